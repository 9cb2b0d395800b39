package flow

import (
	"context"
	"fmt"
	"strconv"

	"github.com/DenisKhanov/KrafloBot/internal/tg_bot/constant"
	"github.com/DenisKhanov/KrafloBot/internal/tg_bot/models"
)

// Close-order states.
const (
	CloseConfirm          models.StateID = "confirm"
	CloseSelectOrder      models.StateID = "selectOrder"
	CloseSolution         models.StateID = "solutionApplied"
	ClosePartReplaced     models.StateID = "partReplaced"
	ClosePartDescription  models.StateID = "partDescription"
	ClosePartTag          models.StateID = "partTag"
	CloseServiceCompleted models.StateID = "serviceCompleted"
	CloseWantsNotes       models.StateID = "wantsNotes"
	CloseNotes            models.StateID = "notes"
)

const messageNoOpenOrders = constant.EMOJI_INFO + " Você não tem nenhuma Ordem de Serviço aberta no momento."

// CloseOrderAnswers collects the closing data of a work order.
// Part and notes fields are only set on their branches.
type CloseOrderAnswers struct {
	OrderID          *int64
	Solution         *string
	PartReplaced     *bool
	PartDescription  *string
	PartTag          *string
	ServiceCompleted *bool
	WantsNotes       *bool
	Notes            *string
}

func (a *CloseOrderAnswers) Clone() models.Answers {
	c := *a
	return &c
}

func (a *CloseOrderAnswers) Complete() error {
	partReplaced := a.PartReplaced != nil && *a.PartReplaced
	wantsNotes := a.WantsNotes != nil && *a.WantsNotes
	return checkFields(
		field{"orderID", a.OrderID != nil},
		field{"solutionApplied", a.Solution != nil},
		field{"partReplaced", a.PartReplaced != nil},
		field{"partDescription", !partReplaced || a.PartDescription != nil},
		field{"partTag", !partReplaced || a.PartTag != nil},
		field{"serviceCompleted", a.ServiceCompleted != nil},
		field{"wantsNotes", a.WantsNotes != nil},
		field{"notes", !wantsNotes || a.Notes != nil},
	)
}

func closeOrder(a models.Answers) *CloseOrderAnswers {
	return a.(*CloseOrderAnswers)
}

// OrderOptionLabel is how an open work order is offered for selection.
func OrderOptionLabel(ref models.OpenOrderRef) string {
	return fmt.Sprintf("ID: %d - Máquina: %s", ref.ID, ref.MachineNumber)
}

// CloseOrder closes one of the caller's open work orders.
func CloseOrder(d Deps) *Definition {
	serviceOptions := StaticOptions(
		models.Option{Label: "Sim, concluído", Value: answerYes},
		models.Option{Label: "Não, pendente", Value: answerNo},
	)

	return &Definition{
		ID:            FlowCloseOrder,
		Initial:       CloseConfirm,
		NewAnswers:    func() models.Answers { return &CloseOrderAnswers{} },
		FailureNotice: constant.EMOJI_CROSS_MARK + " Ocorreu um erro ao fechar a OS. Tente novamente.",
		States: map[models.StateID]State{
			CloseConfirm: {
				Kind:    SingleChoice,
				Prompt:  Text("Deseja fechar uma Ordem de Serviço?"),
				Options: yesNo,
				Accept: func(_ models.Answers, v Value) Transition {
					if v.Text == answerNo {
						return Cancelled("Fecho de OS cancelado.")
					}
					return GoTo(CloseSelectOrder)
				},
			},
			CloseSelectOrder: {
				Kind:    SingleChoice,
				Prompt:  Text("Selecione a Ordem de Serviço que deseja fechar:"),
				Options: d.openOrderOptions,
				Empty:   messageNoOpenOrders,
				Accept: func(a models.Answers, v Value) Transition {
					// Option values are order IDs formatted by openOrderOptions.
					id, _ := strconv.ParseInt(v.Text, 10, 64)
					closeOrder(a).OrderID = &id
					return GoTo(CloseSolution)
				},
			},
			CloseSolution: {
				Kind:   FreeText,
				Prompt: Text("Ótimo. Por favor, descreva a solução que foi aplicada."),
				Accept: func(a models.Answers, v Value) Transition {
					closeOrder(a).Solution = strPtr(v.Text)
					return GoTo(ClosePartReplaced)
				},
			},
			ClosePartReplaced: {
				Kind:    SingleChoice,
				Prompt:  Text("Houve substituição de peças?"),
				Options: yesNo,
				Accept: func(a models.Answers, v Value) Transition {
					ans := closeOrder(a)
					if v.Text == answerYes {
						ans.PartReplaced = boolPtr(true)
						return GoTo(ClosePartDescription)
					}
					ans.PartReplaced = boolPtr(false)
					ans.PartDescription = nil
					ans.PartTag = nil
					return GoTo(CloseServiceCompleted)
				},
			},
			ClosePartDescription: {
				Kind:   FreeText,
				Prompt: Text("Por favor, adicione a descrição da peça substituída:"),
				Accept: func(a models.Answers, v Value) Transition {
					closeOrder(a).PartDescription = strPtr(v.Text)
					return GoTo(ClosePartTag)
				},
			},
			ClosePartTag: {
				Kind:   FreeText,
				Prompt: Text("A peça possui alguma TAG ou código?"),
				Accept: func(a models.Answers, v Value) Transition {
					closeOrder(a).PartTag = strPtr(v.Text)
					return GoTo(CloseServiceCompleted)
				},
			},
			CloseServiceCompleted: {
				Kind:    SingleChoice,
				Prompt:  Text("O serviço foi concluído com sucesso?"),
				Options: serviceOptions,
				Accept: func(a models.Answers, v Value) Transition {
					closeOrder(a).ServiceCompleted = boolPtr(v.Text == answerYes)
					return GoTo(CloseWantsNotes)
				},
			},
			CloseWantsNotes: {
				Kind:    SingleChoice,
				Prompt:  Text("Deseja adicionar alguma observação final?"),
				Options: yesNo,
				Accept: func(a models.Answers, v Value) Transition {
					ans := closeOrder(a)
					if v.Text == answerYes {
						ans.WantsNotes = boolPtr(true)
						return GoTo(CloseNotes)
					}
					ans.WantsNotes = boolPtr(false)
					ans.Notes = nil
					return Complete(d.closeWorkOrder)
				},
			},
			CloseNotes: {
				Kind:   FreeText,
				Prompt: Text("Escreva a sua observação:"),
				Accept: func(a models.Answers, v Value) Transition {
					closeOrder(a).Notes = strPtr(v.Text)
					return Complete(d.closeWorkOrder)
				},
			},
		},
	}
}

// openOrderOptions offers exactly the caller's open work orders.
func (d Deps) openOrderOptions(ctx context.Context, userID int64) ([]models.Option, error) {
	refs, err := d.Repo.FindOpenOrdersByOwner(ctx, userID)
	if err != nil {
		return nil, err
	}
	options := make([]models.Option, 0, len(refs))
	for _, ref := range refs {
		options = append(options, models.Option{Label: OrderOptionLabel(ref), Value: strconv.FormatInt(ref.ID, 10)})
	}
	return options, nil
}

func (d Deps) closeWorkOrder(ctx context.Context, userID int64, answers models.Answers) (Outcome, error) {
	a := closeOrder(answers)
	closed, err := d.Repo.CloseWorkOrder(ctx, *a.OrderID, userID, models.ClosingFields{
		ClosedAt:         d.now(),
		SolutionApplied:  *a.Solution,
		PartReplaced:     *a.PartReplaced,
		PartDescription:  a.PartDescription,
		PartTag:          a.PartTag,
		ServiceCompleted: *a.ServiceCompleted,
		Notes:            a.Notes,
	})
	if err != nil {
		return Outcome{}, err
	}
	if !closed {
		// Not found, not owned or already closed: the user sees the same generic failure.
		return Outcome{}, fmt.Errorf("work order %d was not closed for chat %d", *a.OrderID, userID)
	}
	return Outcome{Notice: constant.EMOJI_OK + " Ordem de Serviço fechada com sucesso!"}, nil
}
