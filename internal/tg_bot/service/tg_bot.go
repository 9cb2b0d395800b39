// Package service provides the Telegram side of the bot. It turns updates into flow engine
// calls and renders the engine's replies as messages, keyboards, calendars and documents.
package service

import (
	"context"
	"errors"
	"strings"

	"github.com/DenisKhanov/KrafloBot/internal/tg_bot/constant"
	"github.com/DenisKhanov/KrafloBot/internal/tg_bot/flow"
	"github.com/DenisKhanov/KrafloBot/internal/tg_bot/models"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
)

// Sender is the part of the Telegram Bot API the bot talks through.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// FlowEngine drives the users' conversations.
type FlowEngine interface {
	Start(ctx context.Context, userID int64, flowID models.FlowID) (flow.Reply, error)
	Submit(ctx context.Context, userID int64, in flow.Input) (flow.Reply, error)
	Cancel(userID int64) flow.Reply
}

// TgBotServices is the main service struct for the Telegram bot.
type TgBotServices struct {
	Bot    Sender     // Telegram Bot API instance
	Engine FlowEngine // Conversation engine
}

// NewTgBot creates a new TgBotServices instance.
func NewTgBot(bot Sender, engine FlowEngine) *TgBotServices {
	return &TgBotServices{Bot: bot, Engine: engine}
}

// commandFlows maps commands to the flow they start.
var commandFlows = map[string]models.FlowID{
	constant.COMMAND_START:        flow.FlowRegistration,
	constant.COMMAND_CREATE_ORDER: flow.FlowCreateOrder,
	constant.COMMAND_CLOSE_ORDER:  flow.FlowCloseOrder,
	constant.COMMAND_REPORT:       flow.FlowReport,
}

// buttonFlows maps the quick-action labels of the home keyboard to the flow they start.
var buttonFlows = map[string]models.FlowID{
	constant.BUTTON_TEXT_CREATE_ORDER: flow.FlowCreateOrder,
	constant.BUTTON_TEXT_CLOSE_ORDER:  flow.FlowCloseOrder,
	constant.BUTTON_TEXT_REPORT:       flow.FlowReport,
}

// sendMessage sends a message to the specified chat with optional reply and markup.
// Arguments:
//   - chatID: the ID of the chat to send the message to.
//   - text: the text content of the message.
//   - replyToID: the ID of the message to reply to (0 if no reply).
//   - markup: an optional keyboard or inline markup (nil if none).
//
// Returns an error if the message fails to send.
func (b *TgBotServices) sendMessage(chatID int64, text string, replyToID int, markup interface{}) error {
	msg := tgbotapi.NewMessage(chatID, text)
	if replyToID != 0 {
		msg.ReplyToMessageID = replyToID
	}
	if markup != nil {
		msg.ReplyMarkup = markup
	}
	_, err := b.Bot.Send(msg)
	if err != nil {
		logrus.WithError(err).Errorf("Failed to send message to chat %d: %s", chatID, text)
	}
	return err
}

// showHome sends the text together with the quick-action keyboard.
func (b *TgBotServices) showHome(chatID int64, text string) error {
	if text == "" {
		text = constant.MESSAGE_HOME
	}
	return b.sendMessage(chatID, text, 0, homeKeyboard())
}

// startFlow starts a flow and renders its first prompt, or the reason it was refused.
func (b *TgBotServices) startFlow(ctx context.Context, chatID int64, flowID models.FlowID) error {
	reply, err := b.Engine.Start(ctx, chatID, flowID)
	if err != nil {
		var rejection *flow.RejectionError
		if errors.As(err, &rejection) {
			return b.showHome(chatID, rejection.Message+"\n"+constant.MESSAGE_HOME)
		}
		logrus.WithError(err).WithField("chatID", chatID).Errorf("Failed to start flow %s", flowID)
		return b.showHome(chatID, constant.MESSAGE_GENERIC_FAILURE)
	}
	return b.sendReply(chatID, reply)
}

// submit delivers user input to the active flow.
func (b *TgBotServices) submit(ctx context.Context, chatID int64, in flow.Input) error {
	reply, err := b.Engine.Submit(ctx, chatID, in)
	if errors.Is(err, flow.ErrNoActiveFlow) {
		if in.IsChoice {
			return b.showHome(chatID, constant.MESSAGE_SESSION_EXPIRED)
		}
		return b.showHome(chatID, constant.MESSAGE_UNKNOWN)
	}
	if err != nil {
		logrus.WithError(err).WithField("chatID", chatID).Error("Failed to submit input")
		return b.showHome(chatID, constant.MESSAGE_GENERIC_FAILURE)
	}
	return b.sendReply(chatID, reply)
}

// sendReply renders an engine reply. A finished flow gets its document, its notice and
// the home keyboard; a running one gets the notice followed by the next prompt.
func (b *TgBotServices) sendReply(chatID int64, reply flow.Reply) error {
	if reply.Release != nil {
		defer reply.Release()
	}

	if reply.Finished || reply.Prompt == nil {
		if reply.Document != nil {
			if err := b.sendDocument(chatID, reply.Document); err != nil {
				return b.showHome(chatID, constant.MESSAGE_GENERIC_FAILURE)
			}
		}
		return b.showHome(chatID, joinLines(reply.Notice, constant.MESSAGE_HOME))
	}

	if reply.Notice != "" {
		if err := b.sendMessage(chatID, reply.Notice, 0, nil); err != nil {
			return err
		}
	}
	return b.sendPrompt(chatID, reply.Prompt)
}

// sendPrompt asks the question of the current state with the markup fitting its input kind.
func (b *TgBotServices) sendPrompt(chatID int64, p *flow.Prompt) error {
	switch p.Kind {
	case flow.SingleChoice:
		return b.sendMessage(chatID, p.Text, 0, choiceKeyboard(p.Options))
	case flow.Date:
		month := p.MinDate
		if month.IsZero() {
			month = today()
		}
		return b.sendMessage(chatID, p.Text, 0, calendarKeyboard(month, p.MinDate))
	default:
		return b.sendMessage(chatID, p.Text, 0, cancelKeyboard())
	}
}

// sendDocument uploads a rendered report.
func (b *TgBotServices) sendDocument(chatID int64, doc *models.Document) error {
	upload := tgbotapi.NewDocument(chatID, tgbotapi.FilePath(doc.Path))
	if _, err := b.Bot.Send(upload); err != nil {
		logrus.WithError(err).Errorf("Failed to send document %s to chat %d", doc.Name, chatID)
		return err
	}
	return nil
}

// handleCallback processes inline keyboard presses.
func (b *TgBotServices) handleCallback(ctx context.Context, query *tgbotapi.CallbackQuery) error {
	if _, err := b.Bot.Request(tgbotapi.NewCallback(query.ID, "")); err != nil {
		logrus.WithError(err).Warn("Failed to answer callback query")
	}
	if query.Message == nil || query.Message.Chat == nil {
		return nil
	}
	chatID := query.Message.Chat.ID
	messageID := query.Message.MessageID
	data := query.Data

	switch {
	case data == constant.CALLBACK_CALENDAR_NOP:
		return nil
	case strings.HasPrefix(data, constant.CALLBACK_CALENDAR_NAV):
		month, minDate, ok := parseCalendarNav(data)
		if !ok {
			return nil
		}
		_, err := b.Bot.Request(tgbotapi.NewEditMessageReplyMarkup(chatID, messageID, calendarKeyboard(month, minDate)))
		return err
	case strings.HasPrefix(data, constant.CALLBACK_CALENDAR_DAY):
		b.clearInlineKeyboard(chatID, messageID)
		return b.submit(ctx, chatID, flow.ChoiceInput(strings.TrimPrefix(data, constant.CALLBACK_CALENDAR_DAY)))
	case strings.HasPrefix(data, constant.CALLBACK_CHOICE):
		b.clearInlineKeyboard(chatID, messageID)
		return b.submit(ctx, chatID, flow.ChoiceInput(strings.TrimPrefix(data, constant.CALLBACK_CHOICE)))
	default:
		logrus.WithField("chatID", chatID).Warnf("Unknown callback data %q", data)
		return nil
	}
}

// clearInlineKeyboard removes the buttons of an answered question so they cannot be pressed twice.
func (b *TgBotServices) clearInlineKeyboard(chatID int64, messageID int) {
	empty := tgbotapi.NewInlineKeyboardMarkup()
	empty.InlineKeyboard = [][]tgbotapi.InlineKeyboardButton{}
	if _, err := b.Bot.Request(tgbotapi.NewEditMessageReplyMarkup(chatID, messageID, empty)); err != nil {
		logrus.WithError(err).Debug("Failed to clear inline keyboard")
	}
}

// handleMessage processes a text message. Commands and quick actions win over flow input.
func (b *TgBotServices) handleMessage(ctx context.Context, message *tgbotapi.Message) error {
	chatID := message.Chat.ID
	text := strings.TrimSpace(message.Text)
	logrus.WithField("chatID", chatID).Debugf("Message [%s]", text)

	if message.IsCommand() {
		command := message.Command()
		if command == constant.COMMAND_CANCEL || command == constant.COMMAND_CANCEL_ALIAS {
			return b.sendReply(chatID, b.Engine.Cancel(chatID))
		}
		if flowID, ok := commandFlows[command]; ok {
			return b.startFlow(ctx, chatID, flowID)
		}
		return b.showHome(chatID, constant.MESSAGE_UNKNOWN)
	}

	if text == constant.BUTTON_TEXT_CANCEL {
		return b.sendReply(chatID, b.Engine.Cancel(chatID))
	}
	if flowID, ok := buttonFlows[text]; ok {
		return b.startFlow(ctx, chatID, flowID)
	}
	return b.submit(ctx, chatID, flow.TextInput(text))
}

// UpdateProcessing handles one update to completion.
// Arguments:
//   - ctx: bounds the repository and rendering work of the update.
//   - update: the Telegram update to process.
func (b *TgBotServices) UpdateProcessing(ctx context.Context, update *tgbotapi.Update) {
	var err error
	switch {
	case update.CallbackQuery != nil:
		err = b.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil && update.Message.Chat != nil && update.Message.Text != "":
		err = b.handleMessage(ctx, update.Message)
	default:
		return
	}
	if err != nil {
		logrus.WithError(err).Errorf("Update %d not fully delivered", update.UpdateID)
	}
}

func joinLines(lines ...string) string {
	var parts []string
	for _, l := range lines {
		if l != "" {
			parts = append(parts, l)
		}
	}
	return strings.Join(parts, "\n\n")
}
