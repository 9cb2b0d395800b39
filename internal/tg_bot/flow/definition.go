// Package flow drives users through the bot's multi-step conversations.
//
// A flow is a hard-coded graph of states. Every state declares the shape of input it
// expects, how that input is checked and which transition an accepted value triggers.
// The Engine keeps one session per user, re-asks a state when input is invalid and runs
// the flow's side effect when the graph completes.
package flow

import (
	"context"
	"fmt"
	"time"

	"github.com/DenisKhanov/KrafloBot/internal/tg_bot/models"
)

// InputKind is the shape of input a state expects.
type InputKind int

const (
	FreeText     InputKind = iota // Any non-empty typed text
	SingleChoice                  // A press of one of the offered buttons
	NumericText                   // Typed text made of digits only
	Date                          // A calendar pick or a typed date
)

func (k InputKind) String() string {
	switch k {
	case FreeText:
		return "freeText"
	case SingleChoice:
		return "singleChoice"
	case NumericText:
		return "numericText"
	case Date:
		return "date"
	default:
		return fmt.Sprintf("InputKind(%d)", int(k))
	}
}

// Value is an input that passed the kind check.
type Value struct {
	Text string    // Trimmed text, digits or the chosen option value
	Date time.Time // Picked day at midnight UTC, only for Date states
}

// Guard decides whether a user may start a flow. A non-empty reason rejects the start and
// is shown to the user. An error means the check itself could not be made.
type Guard func(ctx context.Context, userID int64) (reason string, err error)

// OptionsFunc lists the choices of a SingleChoice state when the state is entered.
type OptionsFunc func(ctx context.Context, userID int64) ([]models.Option, error)

// ValidateFunc checks a parsed value beyond its kind. Returning a *ValidationError re-asks
// the state with its message. Any other error means the check could not be made.
type ValidateFunc func(ctx context.Context, session *models.Session, v Value) error

// AcceptFunc stores the value into the answers and picks the transition.
// It receives a copy of the answers which is kept only if the transition is valid.
type AcceptFunc func(answers models.Answers, v Value) Transition

// SideEffect performs the terminal action of a flow with the completed answers.
type SideEffect func(ctx context.Context, userID int64, answers models.Answers) (Outcome, error)

// Outcome is what a successful side effect hands back to the user.
type Outcome struct {
	Notice   string
	Document *models.Document
	Release  func() // Cleans up the document once it was delivered
}

// State is one step of a flow.
type State struct {
	Kind     InputKind
	Prompt   func(answers models.Answers) string
	Options  OptionsFunc
	Empty    string // Notice that ends the flow when Options yields nothing
	Invalid  string // Message for input of the wrong kind, defaults per kind
	MinDate  func(answers models.Answers) time.Time
	Validate ValidateFunc
	Accept   AcceptFunc
}

// Definition is an immutable flow graph.
type Definition struct {
	ID            models.FlowID
	Initial       models.StateID
	States        map[models.StateID]State
	Guard         Guard
	NewAnswers    func() models.Answers
	FailureNotice string // Shown when the side effect fails without a message of its own
}

// check verifies the graph before the engine accepts it.
func (d *Definition) check() error {
	if d.ID == "" {
		return fmt.Errorf("flow without ID")
	}
	if d.NewAnswers == nil {
		return fmt.Errorf("flow %s: no answers constructor", d.ID)
	}
	if _, ok := d.States[d.Initial]; !ok {
		return fmt.Errorf("flow %s: initial state %q is not defined", d.ID, d.Initial)
	}
	for id, st := range d.States {
		if st.Accept == nil {
			return fmt.Errorf("flow %s: state %q has no accept rule", d.ID, id)
		}
		if st.Prompt == nil {
			return fmt.Errorf("flow %s: state %q has no prompt", d.ID, id)
		}
		if st.Kind == SingleChoice && st.Options == nil {
			return fmt.Errorf("flow %s: choice state %q has no options", d.ID, id)
		}
	}
	return nil
}

type transitionKind int

const (
	goTo transitionKind = iota
	complete
	cancelled
)

// Transition is the result of accepting a value.
type Transition struct {
	kind   transitionKind
	next   models.StateID
	effect SideEffect
	notice string
}

// GoTo moves the session to another state of the same flow.
func GoTo(next models.StateID) Transition {
	return Transition{kind: goTo, next: next}
}

// Complete ends the flow by running the side effect.
func Complete(effect SideEffect) Transition {
	return Transition{kind: complete, effect: effect}
}

// Cancelled ends the flow without a side effect. An empty notice uses the default one.
func Cancelled(notice string) Transition {
	return Transition{kind: cancelled, notice: notice}
}

// Text returns a prompt that does not depend on the answers.
func Text(prompt string) func(models.Answers) string {
	return func(models.Answers) string { return prompt }
}

// StaticOptions returns an OptionsFunc with a fixed list of choices.
func StaticOptions(options ...models.Option) OptionsFunc {
	return func(context.Context, int64) ([]models.Option, error) {
		return options, nil
	}
}
