package telegram

// InlineKeyboardMarkup represents inline keyboard attached to a message
type InlineKeyboardMarkup struct {
	InlineKeyboard [][]InlineKeyboardButton `json:"inline_keyboard"`
}

// InlineKeyboardButton represents one button of inline keyboard
type InlineKeyboardButton struct {
	Text         string `json:"text"`
	CallbackData string `json:"callback_data,omitempty"`
	URL          string `json:"url,omitempty"`
}

// NewInlineKeyboard creates keyboard from rows of buttons
func NewInlineKeyboard(rows ...[]InlineKeyboardButton) InlineKeyboardMarkup {
	return InlineKeyboardMarkup{InlineKeyboard: rows}
}

// NewButtonRow creates a row of buttons
func NewButtonRow(buttons ...InlineKeyboardButton) []InlineKeyboardButton {
	return buttons
}

// NewCallbackButton creates a button that sends callback data when pressed
func NewCallbackButton(text, data string) InlineKeyboardButton {
	return InlineKeyboardButton{Text: text, CallbackData: data}
}

// NewURLButton creates a button that opens a URL
func NewURLButton(text, url string) InlineKeyboardButton {
	return InlineKeyboardButton{Text: text, URL: url}
}

// NewSingleColumnKeyboard builds a keyboard with one callback button per row.
// Labels and callback data values must have equal length.
func NewSingleColumnKeyboard(labels []string, data []string) InlineKeyboardMarkup {
	rows := make([][]InlineKeyboardButton, 0, len(labels))
	for i, label := range labels {
		rows = append(rows, NewButtonRow(NewCallbackButton(label, data[i])))
	}
	return InlineKeyboardMarkup{InlineKeyboard: rows}
}
