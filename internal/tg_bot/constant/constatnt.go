package constant

const (
	EMOJI_PLUS       = "\U00002795"           //➕
	EMOJI_CHECK_MARK = "\U00002714\U0000FE0F" //✔️
	EMOJI_BAR_CHART  = "\U0001F4CA"           //📊
	EMOJI_CROSS_MARK = "\U0000274C"           //❌
	EMOJI_WARNING    = "\U000026A0\U0000FE0F" //⚠️
	EMOJI_OK         = "\U00002705"           //✅
	EMOJI_INFO       = "\U00002139\U0000FE0F" //ℹ️

	BUTTON_TEXT_CREATE_ORDER = EMOJI_PLUS + " Criar Nova OS"
	BUTTON_TEXT_CLOSE_ORDER  = EMOJI_CHECK_MARK + " Fechar OS"
	BUTTON_TEXT_REPORT       = EMOJI_BAR_CHART + " Gerar Relatório"
	BUTTON_TEXT_CANCEL       = EMOJI_CROSS_MARK + " Cancelar"

	COMMAND_START        = "start"
	COMMAND_CREATE_ORDER = "criar_os"
	COMMAND_CLOSE_ORDER  = "fechar_os"
	COMMAND_REPORT       = "relatorio"
	COMMAND_CANCEL       = "cancelar"
	COMMAND_CANCEL_ALIAS = "cancel"

	// Callback data prefixes of inline keyboards.
	CALLBACK_CHOICE       = "ch:"       // ch:<option value>
	CALLBACK_CALENDAR_DAY = "cal:day:"  // cal:day:2006-01-02
	CALLBACK_CALENDAR_NAV = "cal:nav:"  // cal:nav:2006-01|<min day or empty>
	CALLBACK_CALENDAR_NOP = "cal:noop"  // header and padding cells

	MESSAGE_HOME            = "Selecione uma opção abaixo:"
	MESSAGE_CANCELLED       = "Operação cancelada."
	MESSAGE_NOTHING_TO_STOP = "Não há nenhuma operação em andamento."
	MESSAGE_UNKNOWN         = "Não entendi. Use os botões do menu ou /start."
	MESSAGE_GENERIC_FAILURE = EMOJI_CROSS_MARK + " Ocorreu um erro inesperado. Por favor, tente novamente."
	MESSAGE_SESSION_EXPIRED = "Esta operação já foi encerrada."
	MESSAGE_USE_BUTTONS     = "Por favor, escolha uma das opções usando os botões."
	MESSAGE_TYPE_ANSWER     = "Por favor, responda digitando o texto."
)
