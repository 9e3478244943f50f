package tgbotapi

import (
	"context"
	"fmt"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/time/rate"

	"mentor/pkg/logger"
	"mentor/pkg/telegram"
)

// Bot implements telegram.Bot using go-telegram-bot-api with long polling
type Bot struct {
	api        *tgbotapi.BotAPI
	msgHandler func(telegram.Update)
	stopCh     chan struct{}
	limiter    *rate.Limiter
	seq        *telegram.Sequencer
	log        *logger.Logger
}

// NewBot creates a polling telegram bot client.
// The limiter stays under Telegram's ~30 msg/sec global cap with headroom.
func NewBot(token string, log *logger.Logger) (*Bot, error) {
	httpClient := &http.Client{Timeout: 60 * time.Second}

	api, err := tgbotapi.NewBotAPIWithClient(token, tgbotapi.APIEndpoint, httpClient)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot api: %w", err)
	}

	log.Infow("Telegram bot authorized", "username", api.Self.UserName)

	return &Bot{
		api:     api,
		stopCh:  make(chan struct{}),
		limiter: rate.NewLimiter(20, 30),
		seq:     telegram.NewSequencer(),
		log:     log,
	}, nil
}

// SetHandler sets the update handler
func (b *Bot) SetHandler(handler func(telegram.Update)) {
	b.msgHandler = handler
}

// Start begins long polling until ctx is cancelled or Stop is called
func (b *Bot) Start(ctx context.Context) error {
	if b.msgHandler == nil {
		return fmt.Errorf("update handler not set")
	}

	updateCfg := tgbotapi.NewUpdate(0)
	updateCfg.Timeout = 30

	updates := b.api.GetUpdatesChan(updateCfg)
	b.log.Info("Telegram bot started polling")

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			b.seq.Wait()
			return ctx.Err()
		case <-b.stopCh:
			b.api.StopReceivingUpdates()
			b.seq.Wait()
			return nil
		case tgUpdate, ok := <-updates:
			if !ok {
				b.seq.Wait()
				return nil
			}
			// Sequence by sender so two rapid messages from the same
			// user cannot be handled out of arrival order.
			update := convertUpdate(tgUpdate)
			b.seq.Enqueue(update.SenderID(), func() {
				b.msgHandler(update)
			})
		}
	}
}

// Stop stops the polling loop
func (b *Bot) Stop() {
	close(b.stopCh)
}

// SendMessage sends a plain text message with Markdown formatting
func (b *Bot) SendMessage(chatID int64, text string) error {
	if err := b.limiter.Wait(context.Background()); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown

	if _, err := b.api.Send(msg); err != nil {
		// Retry without parse mode: user content may contain broken markup
		msg.ParseMode = ""
		if _, retryErr := b.api.Send(msg); retryErr != nil {
			return fmt.Errorf("failed to send message to chat %d: %w", chatID, retryErr)
		}
	}

	return nil
}

// SendMessageWithKeyboard sends a message with an inline keyboard
func (b *Bot) SendMessageWithKeyboard(chatID int64, text string, keyboard telegram.InlineKeyboardMarkup) error {
	if err := b.limiter.Wait(context.Background()); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	msg.ReplyMarkup = convertKeyboard(keyboard)

	if _, err := b.api.Send(msg); err != nil {
		return fmt.Errorf("failed to send keyboard message to chat %d: %w", chatID, err)
	}

	return nil
}

// SendTyping shows the "typing..." chat action
func (b *Bot) SendTyping(chatID int64) error {
	action := tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping)
	if _, err := b.api.Request(action); err != nil {
		return fmt.Errorf("failed to send typing action: %w", err)
	}
	return nil
}

// AnswerCallback acknowledges an inline keyboard button press
func (b *Bot) AnswerCallback(callbackQueryID string, text string, showAlert bool) error {
	callback := tgbotapi.NewCallback(callbackQueryID, text)
	callback.ShowAlert = showAlert

	if _, err := b.api.Request(callback); err != nil {
		return fmt.Errorf("failed to answer callback: %w", err)
	}

	return nil
}

func convertUpdate(tgUpdate tgbotapi.Update) telegram.Update {
	update := telegram.Update{UpdateID: tgUpdate.UpdateID}

	if tgUpdate.Message != nil {
		update.Message = convertMessage(tgUpdate.Message)
	}

	if tgUpdate.CallbackQuery != nil {
		cb := tgUpdate.CallbackQuery
		update.CallbackQuery = &telegram.CallbackQuery{
			ID:   cb.ID,
			From: convertUser(cb.From),
			Data: cb.Data,
		}
		if cb.Message != nil {
			update.CallbackQuery.Message = convertMessage(cb.Message)
		}
	}

	return update
}

func convertMessage(tgMsg *tgbotapi.Message) *telegram.Message {
	msg := &telegram.Message{
		MessageID: tgMsg.MessageID,
		From:      convertUser(tgMsg.From),
		Chat:      convertChat(tgMsg.Chat),
		Text:      tgMsg.Text,
	}

	// Telegram sends photo sizes smallest first; keep the largest
	if len(tgMsg.Photo) > 0 {
		msg.PhotoFileID = tgMsg.Photo[len(tgMsg.Photo)-1].FileID
		if msg.Text == "" {
			msg.Text = tgMsg.Caption
		}
	}

	msg.ParseCommand()

	return msg
}

func convertUser(tgUser *tgbotapi.User) *telegram.User {
	if tgUser == nil {
		return nil
	}
	return &telegram.User{
		ID:        tgUser.ID,
		FirstName: tgUser.FirstName,
		LastName:  tgUser.LastName,
		Username:  tgUser.UserName,
		IsBot:     tgUser.IsBot,
	}
}

func convertChat(tgChat *tgbotapi.Chat) *telegram.Chat {
	if tgChat == nil {
		return nil
	}
	return &telegram.Chat{
		ID:       tgChat.ID,
		Type:     tgChat.Type,
		Username: tgChat.UserName,
	}
}

func convertKeyboard(kb telegram.InlineKeyboardMarkup) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(kb.InlineKeyboard))

	for _, row := range kb.InlineKeyboard {
		buttons := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, btn := range row {
			switch {
			case btn.URL != "":
				buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonURL(btn.Text, btn.URL))
			default:
				buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(btn.Text, btn.CallbackData))
			}
		}
		rows = append(rows, buttons)
	}

	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

var _ telegram.Bot = (*Bot)(nil)
