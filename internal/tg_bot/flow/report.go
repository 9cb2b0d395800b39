package flow

import (
	"context"
	"fmt"
	"time"

	"github.com/DenisKhanov/KrafloBot/internal/tg_bot/constant"
	"github.com/DenisKhanov/KrafloBot/internal/tg_bot/models"
	"github.com/sirupsen/logrus"
)

// Report states.
const (
	ReportChooseMode   models.StateID = "chooseMode"
	ReportPickDay      models.StateID = "pickDay"
	ReportConfirmDay   models.StateID = "confirmDay"
	ReportPickStart    models.StateID = "pickStart"
	ReportPickEnd      models.StateID = "pickEnd"
	ReportConfirmRange models.StateID = "confirmRange"
)

const (
	modeSingleDay = "single"
	modeRange     = "range"

	actionConfirm = "confirm"
	actionBack    = "back"
	actionCancel  = "cancel"
)

// ReportAnswers collects the period of a report. Days are at midnight UTC.
type ReportAnswers struct {
	Mode  *string
	Start *time.Time
	End   *time.Time
}

func (a *ReportAnswers) Clone() models.Answers {
	c := *a
	return &c
}

func (a *ReportAnswers) Complete() error {
	return checkFields(
		field{"mode", a.Mode != nil},
		field{"start", a.Start != nil},
		field{"end", a.End != nil},
		field{"end not before start", a.Start == nil || a.End == nil || !a.End.Before(*a.Start)},
	)
}

func report(a models.Answers) *ReportAnswers {
	return a.(*ReportAnswers)
}

// PeriodLabel renders the inclusive report period.
func PeriodLabel(start, end time.Time) string {
	return fmt.Sprintf("%s a %s", formatDay(start), formatDay(end))
}

// Report renders the caller's work orders of one day or of a range of days as a document.
func Report(d Deps) *Definition {
	confirmOptions := StaticOptions(
		models.Option{Label: constant.EMOJI_OK + " Gerar relatório", Value: actionConfirm},
		models.Option{Label: "↩️ Voltar", Value: actionBack},
		models.Option{Label: constant.BUTTON_TEXT_CANCEL, Value: actionCancel},
	)
	clearDates := func(a *ReportAnswers) {
		a.Start = nil
		a.End = nil
	}

	return &Definition{
		ID:            FlowReport,
		Initial:       ReportChooseMode,
		NewAnswers:    func() models.Answers { return &ReportAnswers{} },
		Guard:         requireProfile(d.Repo, "Você precisa estar registado para gerar relatórios. Use /start para se registar."),
		FailureNotice: constant.EMOJI_CROSS_MARK + " Ocorreu um erro ao gerar o seu relatório em PDF.",
		States: map[models.StateID]State{
			ReportChooseMode: {
				Kind:   SingleChoice,
				Prompt: Text("Como deseja gerar o relatório?"),
				Options: StaticOptions(
					models.Option{Label: "Relatório de um Dia Específico", Value: modeSingleDay},
					models.Option{Label: "Relatório por Intervalo de Datas", Value: modeRange},
				),
				Accept: func(a models.Answers, v Value) Transition {
					report(a).Mode = strPtr(v.Text)
					if v.Text == modeRange {
						return GoTo(ReportPickStart)
					}
					return GoTo(ReportPickDay)
				},
			},
			ReportPickDay: {
				Kind:   Date,
				Prompt: Text("Selecione o dia para o relatório."),
				Accept: func(a models.Answers, v Value) Transition {
					day := v.Date
					report(a).Start = &day
					report(a).End = &day
					return GoTo(ReportConfirmDay)
				},
			},
			ReportConfirmDay: {
				Kind: SingleChoice,
				Prompt: func(a models.Answers) string {
					return fmt.Sprintf("Gerar relatório para %s?", formatDay(*report(a).Start))
				},
				Options: confirmOptions,
				Accept: func(a models.Answers, v Value) Transition {
					switch v.Text {
					case actionBack:
						clearDates(report(a))
						return GoTo(ReportPickDay)
					case actionCancel:
						return Cancelled("Relatório cancelado.")
					}
					return Complete(d.generateReport)
				},
			},
			ReportPickStart: {
				Kind:   Date,
				Prompt: Text("Selecione a DATA INICIAL do intervalo."),
				Accept: func(a models.Answers, v Value) Transition {
					day := v.Date
					report(a).Start = &day
					report(a).End = nil
					return GoTo(ReportPickEnd)
				},
			},
			ReportPickEnd: {
				Kind: Date,
				Prompt: func(a models.Answers) string {
					return fmt.Sprintf("Data inicial: %s.\nAgora, selecione a DATA FINAL.", formatDay(*report(a).Start))
				},
				MinDate: func(a models.Answers) time.Time {
					return *report(a).Start
				},
				Validate: func(_ context.Context, s *models.Session, v Value) error {
					start := *report(s.Answers).Start
					if v.Date.Before(start) {
						return Invalid(fmt.Sprintf("%s A data final não pode ser anterior à data inicial (%s).", constant.EMOJI_WARNING, formatDay(start)))
					}
					return nil
				},
				Accept: func(a models.Answers, v Value) Transition {
					day := v.Date
					report(a).End = &day
					return GoTo(ReportConfirmRange)
				},
			},
			ReportConfirmRange: {
				Kind: SingleChoice,
				Prompt: func(a models.Answers) string {
					r := report(a)
					return fmt.Sprintf("Gerar relatório para o período de %s?", PeriodLabel(*r.Start, *r.End))
				},
				Options: confirmOptions,
				Accept: func(a models.Answers, v Value) Transition {
					switch v.Text {
					case actionBack:
						clearDates(report(a))
						return GoTo(ReportPickStart)
					case actionCancel:
						return Cancelled("Relatório cancelado.")
					}
					return Complete(d.generateReport)
				},
			},
		},
	}
}

// generateReport queries the orders opened in [start, end+1 day) and renders them.
func (d Deps) generateReport(ctx context.Context, userID int64, answers models.Answers) (Outcome, error) {
	a := report(answers)

	profile, err := d.Repo.FindUserByOwner(ctx, userID)
	if err != nil {
		return Outcome{}, err
	}
	if profile == nil {
		return Outcome{}, Failure("Erro: não foi possível encontrar o seu registo de utilizador.",
			fmt.Errorf("no profile for chat %d", userID))
	}

	orders, err := d.Repo.FindOrdersByOwnerAndDateRange(ctx, userID, *a.Start, a.End.AddDate(0, 0, 1))
	if err != nil {
		return Outcome{}, err
	}
	label := PeriodLabel(*a.Start, *a.End)
	if len(orders) == 0 {
		return Outcome{Notice: constant.EMOJI_INFO + " Nenhuma Ordem de Serviço encontrada para o período selecionado."}, nil
	}

	doc, err := d.Renderer.Render(ctx, *profile, orders, label)
	if err != nil {
		return Outcome{}, err
	}
	logrus.WithFields(logrus.Fields{"chatID": userID, "orders": len(orders), "file": doc.Name}).Info("Report rendered")

	return Outcome{
		Notice:   fmt.Sprintf("%s Relatório do período %s gerado.", constant.EMOJI_BAR_CHART, label),
		Document: doc,
		Release: func() {
			if err := d.Renderer.Discard(doc); err != nil {
				logrus.WithError(err).Warnf("Report %s was not removed", doc.Path)
			}
		},
	}, nil
}
