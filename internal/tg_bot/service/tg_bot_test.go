package service

import (
	"context"
	"testing"
	"time"

	"github.com/DenisKhanov/KrafloBot/internal/tg_bot/constant"
	"github.com/DenisKhanov/KrafloBot/internal/tg_bot/flow"
	"github.com/DenisKhanov/KrafloBot/internal/tg_bot/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpdateProcessing_StartRegistersNewUser(t *testing.T) {
	tb := newTestBot(t)

	tb.text(10, "/start")
	msg := tb.sender.lastMessage(t)
	assert.Contains(t, msg.Text, "nome completo")
	cancel := replyMarkup(t, msg)
	assert.Equal(t, constant.BUTTON_TEXT_CANCEL, cancel.Keyboard[0][0].Text)

	tb.text(10, "Maria Silva")
	roles := inlineMarkup(t, tb.sender.lastMessage(t))
	require.Len(t, roles.InlineKeyboard, len(flow.Roles))
	assert.Equal(t, constant.CALLBACK_CHOICE+"Mecânico", callbackData(roles.InlineKeyboard[0][0]))

	tb.press(10, constant.CALLBACK_CHOICE+"Mecânico")
	assert.Contains(t, tb.sender.lastMessage(t).Text, "Função definida: Mecânico")
	require.NotEmpty(t, tb.sender.markupEdits(), "the answered keyboard is removed")

	tb.text(10, "Pleno")
	tb.text(10, "Usinagem")
	tb.text(10, "EMP-100")

	done := tb.sender.lastMessage(t)
	assert.Contains(t, done.Text, "Registo realizado com sucesso")
	assert.Contains(t, done.Text, constant.MESSAGE_HOME)
	home := replyMarkup(t, done)
	assert.Equal(t, constant.BUTTON_TEXT_CREATE_ORDER, home.Keyboard[0][0].Text)

	profile, err := tb.store.FindUserByOwner(context.Background(), 10)
	require.NoError(t, err)
	require.NotNil(t, profile)
	assert.Equal(t, "EMP-100", profile.RegistrationCode)

	_, active := tb.engine.Session(10)
	assert.False(t, active)
}

func TestUpdateProcessing_WelcomeBack(t *testing.T) {
	tb := newTestBot(t)
	tb.register(t, 11, "Ana")

	tb.text(11, "/start")

	msg := tb.sender.lastMessage(t)
	assert.Contains(t, msg.Text, "Bem-vindo(a) de volta, Ana!")
	assert.Contains(t, msg.Text, constant.MESSAGE_HOME)
	replyMarkup(t, msg)
	_, active := tb.engine.Session(11)
	assert.False(t, active)
}

func TestUpdateProcessing_UnknownInput(t *testing.T) {
	tb := newTestBot(t)

	tb.text(12, "olá")
	assert.Equal(t, constant.MESSAGE_UNKNOWN, tb.sender.lastMessage(t).Text)

	tb.text(12, "/desconhecido")
	assert.Equal(t, constant.MESSAGE_UNKNOWN, tb.sender.lastMessage(t).Text)

	tb.press(12, constant.CALLBACK_CHOICE+"yes")
	assert.Equal(t, constant.MESSAGE_SESSION_EXPIRED, tb.sender.lastMessage(t).Text)
}

func TestUpdateProcessing_CancelTwice(t *testing.T) {
	tb := newTestBot(t)
	tb.register(t, 13, "Rui")

	tb.text(13, constant.BUTTON_TEXT_CREATE_ORDER)
	_, active := tb.engine.Session(13)
	require.True(t, active)

	tb.text(13, "/cancelar")
	assert.Contains(t, tb.sender.lastMessage(t).Text, constant.MESSAGE_CANCELLED)
	_, active = tb.engine.Session(13)
	assert.False(t, active)

	tb.text(13, constant.BUTTON_TEXT_CANCEL)
	assert.Contains(t, tb.sender.lastMessage(t).Text, constant.MESSAGE_NOTHING_TO_STOP)
}

func TestUpdateProcessing_GuardRejection(t *testing.T) {
	tb := newTestBot(t)

	tb.text(14, "/relatorio")

	msg := tb.sender.lastMessage(t)
	assert.Contains(t, msg.Text, "registado")
	assert.Contains(t, msg.Text, constant.MESSAGE_HOME)
	_, active := tb.engine.Session(14)
	assert.False(t, active)
}

func TestUpdateProcessing_ReportDeliversAndRemovesDocument(t *testing.T) {
	tb := newTestBot(t)
	tb.register(t, 15, "Lia")
	_, err := tb.store.CreateWorkOrder(context.Background(), models.WorkOrder{
		OwnerID: 15, MachineNumber: "42", MachineModel: "Romi", MaintenanceType: models.MaintenancePreventive,
		ProblemDescription: "Ruído", OpenedAt: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	tb.text(15, constant.BUTTON_TEXT_REPORT)
	inlineMarkup(t, tb.sender.lastMessage(t))

	tb.press(15, constant.CALLBACK_CHOICE+"single")
	calendar := inlineMarkup(t, tb.sender.lastMessage(t))
	assert.Len(t, calendar.InlineKeyboard[1], 7, "weekday header")

	tb.press(15, constant.CALLBACK_CALENDAR_DAY+"2024-03-01")
	assert.Contains(t, tb.sender.lastMessage(t).Text, "01/03/2024")

	tb.press(15, constant.CALLBACK_CHOICE+"confirm")

	require.Len(t, tb.sender.documents, 1)
	doc := tb.sender.documents[0]
	assert.True(t, doc.existed, "the report exists while it is uploaded")
	assert.True(t, fileGone(doc.path), "the report is removed after delivery")
	assert.Contains(t, tb.sender.lastMessage(t).Text, constant.MESSAGE_HOME)
	_, active := tb.engine.Session(15)
	assert.False(t, active)
}

func TestUpdateProcessing_CalendarNavigationStaysInTransport(t *testing.T) {
	tb := newTestBot(t)
	tb.register(t, 16, "Leo")

	tb.text(16, "/relatorio")
	tb.press(16, constant.CALLBACK_CHOICE+"range")
	before, ok := tb.engine.Session(16)
	require.True(t, ok)
	sentBefore := len(tb.sender.messages())

	tb.press(16, constant.CALLBACK_CALENDAR_NAV+"2024-02|")

	edits := tb.sender.markupEdits()
	require.NotEmpty(t, edits)
	last := edits[len(edits)-1]
	require.NotNil(t, last.ReplyMarkup)
	assert.Equal(t, "Fevereiro 2024", last.ReplyMarkup.InlineKeyboard[0][1].Text)
	assert.Equal(t, 7, last.MessageID)
	assert.Len(t, tb.sender.messages(), sentBefore, "navigation sends no message")

	after, ok := tb.engine.Session(16)
	require.True(t, ok)
	assert.Equal(t, before.StateID, after.StateID)

	tb.press(16, constant.CALLBACK_CALENDAR_NOP)
	assert.Len(t, tb.sender.markupEdits(), len(edits))
}

func TestUpdateProcessing_EndDateCalendarStartsAtStartDate(t *testing.T) {
	tb := newTestBot(t)
	tb.register(t, 17, "Bia")

	tb.text(17, "/relatorio")
	tb.press(17, constant.CALLBACK_CHOICE+"range")
	tb.press(17, constant.CALLBACK_CALENDAR_DAY+"2024-05-20")

	calendar := inlineMarkup(t, tb.sender.lastMessage(t))
	assert.Equal(t, "Maio 2024", calendar.InlineKeyboard[0][1].Text)
	assert.Equal(t, constant.CALLBACK_CALENDAR_NOP, callbackData(calendar.InlineKeyboard[0][0]), "no way back before the start date")

	tb.text(17, "19/05/2024")
	assert.Contains(t, tb.sender.lastMessage(t).Text, "20/05/2024")
	s, ok := tb.engine.Session(17)
	require.True(t, ok)
	assert.Equal(t, flow.ReportPickEnd, s.StateID)
}

func TestJoinLines(t *testing.T) {
	assert.Equal(t, "a\n\nb", joinLines("a", "", "b"))
	assert.Equal(t, "", joinLines())
}
