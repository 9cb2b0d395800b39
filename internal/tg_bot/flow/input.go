package flow

import (
	"strings"
	"time"

	"github.com/DenisKhanov/KrafloBot/internal/tg_bot/constant"
	"github.com/DenisKhanov/KrafloBot/internal/tg_bot/models"
)

// Accepted layouts of a typed date.
var dateLayouts = []string{"2006-01-02", "02/01/2006"}

const (
	messageDigitsOnly = "Por favor, digite apenas números."
	messageEmptyText  = "A resposta não pode ficar vazia. Por favor, digite novamente."
	messageBadDate    = "Data inválida. Escolha um dia no calendário ou digite no formato DD/MM/AAAA."
)

// Input is one user event delivered to a session.
type Input struct {
	Text     string // Typed text or the value of the pressed button
	IsChoice bool   // The user pressed a button instead of typing
}

// TextInput wraps a typed message.
func TextInput(text string) Input {
	return Input{Text: text}
}

// ChoiceInput wraps a button press carrying the option value.
func ChoiceInput(value string) Input {
	return Input{Text: value, IsChoice: true}
}

// parse checks the input against the kind of the state.
func parse(st State, options []models.Option, in Input) (Value, error) {
	invalid := func(fallback string) error {
		if st.Invalid != "" {
			return Invalid(st.Invalid)
		}
		return Invalid(fallback)
	}

	text := strings.TrimSpace(in.Text)
	switch st.Kind {
	case SingleChoice:
		if !in.IsChoice {
			return Value{}, invalid(constant.MESSAGE_USE_BUTTONS)
		}
		for _, o := range options {
			if o.Value == text {
				return Value{Text: text}, nil
			}
		}
		// Stale button from an older message.
		return Value{}, invalid(constant.MESSAGE_USE_BUTTONS)
	case FreeText:
		if in.IsChoice {
			return Value{}, invalid(constant.MESSAGE_TYPE_ANSWER)
		}
		if text == "" {
			return Value{}, invalid(messageEmptyText)
		}
		return Value{Text: text}, nil
	case NumericText:
		if in.IsChoice {
			return Value{}, invalid(constant.MESSAGE_TYPE_ANSWER)
		}
		if text == "" || strings.IndexFunc(text, notDigit) >= 0 {
			return Value{}, invalid(messageDigitsOnly)
		}
		return Value{Text: text}, nil
	case Date:
		day, ok := ParseDate(text)
		if !ok {
			return Value{}, invalid(messageBadDate)
		}
		return Value{Text: day.Format(dateLayouts[0]), Date: day}, nil
	}
	return Value{}, invalid(constant.MESSAGE_USE_BUTTONS)
}

// ParseDate reads a day in one of the accepted layouts and returns it at midnight UTC.
func ParseDate(text string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if day, err := time.Parse(layout, strings.TrimSpace(text)); err == nil {
			return day, true
		}
	}
	return time.Time{}, false
}

func notDigit(r rune) bool {
	return r < '0' || r > '9'
}
