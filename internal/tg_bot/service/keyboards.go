package service

import (
	"github.com/DenisKhanov/KrafloBot/internal/tg_bot/constant"
	"github.com/DenisKhanov/KrafloBot/internal/tg_bot/models"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// homeKeyboard is the idle menu with the three quick actions.
func homeKeyboard() tgbotapi.ReplyKeyboardMarkup {
	markup := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(constant.BUTTON_TEXT_CREATE_ORDER),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(constant.BUTTON_TEXT_CLOSE_ORDER),
			tgbotapi.NewKeyboardButton(constant.BUTTON_TEXT_REPORT),
		),
	)
	markup.ResizeKeyboard = true // Подгоняет размер клавиатуры под экран
	return markup
}

// cancelKeyboard replaces the home menu while a typed answer is expected.
func cancelKeyboard() tgbotapi.ReplyKeyboardMarkup {
	markup := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(constant.BUTTON_TEXT_CANCEL),
		),
	)
	markup.ResizeKeyboard = true
	return markup
}

// getKeyboardRow creates a single-row inline keyboard with one button.
// Arguments:
//   - buttonText: the text displayed on the button.
//   - buttonCode: the callback data associated with the button.
//
// Returns a slice of InlineKeyboardButton representing the row.
func getKeyboardRow(buttonText, buttonCode string) []tgbotapi.InlineKeyboardButton {
	return tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData(buttonText, buttonCode))
}

// choiceKeyboard renders one inline button per option.
func choiceKeyboard(options []models.Option) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(options))
	for _, o := range options {
		rows = append(rows, getKeyboardRow(o.Label, constant.CALLBACK_CHOICE+o.Value))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}
