package flow

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/DenisKhanov/KrafloBot/internal/tg_bot/constant"
	"github.com/DenisKhanov/KrafloBot/internal/tg_bot/models"
)

// The bot's flows.
const (
	FlowRegistration models.FlowID = "registration"
	FlowCreateOrder  models.FlowID = "create_order"
	FlowCloseOrder   models.FlowID = "close_order"
	FlowReport       models.FlowID = "report"
)

const (
	answerYes = "yes"
	answerNo  = "no"
)

var yesNo = StaticOptions(
	models.Option{Label: constant.EMOJI_OK + " Sim", Value: answerYes},
	models.Option{Label: constant.EMOJI_CROSS_MARK + " Não", Value: answerNo},
)

// Deps are the collaborators of the flows.
type Deps struct {
	Repo     Repository
	Renderer Renderer
	Now      func() time.Time // Defaults to time.Now
}

func (d Deps) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

// Flows builds the definitions of every flow of the bot.
func Flows(d Deps) []*Definition {
	return []*Definition{
		Registration(d),
		CreateOrder(d),
		CloseOrder(d),
		Report(d),
	}
}

// requireProfile admits only users that are already registered.
func requireProfile(repo Repository, reason string) Guard {
	return func(ctx context.Context, userID int64) (string, error) {
		profile, err := repo.FindUserByOwner(ctx, userID)
		if err != nil {
			return "", err
		}
		if profile == nil {
			return reason, nil
		}
		return "", nil
	}
}

type field struct {
	name string
	set  bool
}

// checkFields reports the names of the fields that were never answered.
func checkFields(fields ...field) error {
	var missing []string
	for _, f := range fields {
		if !f.set {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing answers: %s", strings.Join(missing, ", "))
	}
	return nil
}

func strPtr(s string) *string {
	return &s
}

func boolPtr(b bool) *bool {
	return &b
}

// formatDay renders a day as DD/MM/YYYY.
func formatDay(t time.Time) string {
	return t.Format("02/01/2006")
}
