package broadcast

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mentor/internal/domain/user"
	"mentor/pkg/errors"
	"mentor/pkg/logger"
	"mentor/pkg/telegram"
)

type stubUserRepo struct {
	registered []*user.User
}

func (r *stubUserRepo) Create(ctx context.Context, u *user.User) error { return nil }
func (r *stubUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	return nil, errors.ErrNotFound
}
func (r *stubUserRepo) GetByTelegramID(ctx context.Context, telegramID int64) (*user.User, error) {
	return nil, errors.ErrNotFound
}
func (r *stubUserRepo) Update(ctx context.Context, u *user.User) error { return nil }
func (r *stubUserRepo) ListRegistered(ctx context.Context) ([]*user.User, error) {
	return r.registered, nil
}

var _ user.Repository = (*stubUserRepo)(nil)

// flakyBot fails sends to the configured chat IDs
type flakyBot struct {
	failFor map[int64]bool
	sent    []int64
}

func (b *flakyBot) Start(ctx context.Context) error { return nil }
func (b *flakyBot) Stop()                           {}
func (b *flakyBot) SetHandler(func(telegram.Update)) {}
func (b *flakyBot) SendTyping(chatID int64) error   { return nil }
func (b *flakyBot) AnswerCallback(id, text string, showAlert bool) error { return nil }
func (b *flakyBot) SendMessageWithKeyboard(chatID int64, text string, kb telegram.InlineKeyboardMarkup) error {
	return nil
}

func (b *flakyBot) SendMessage(chatID int64, text string) error {
	if b.failFor[chatID] {
		return errors.New("blocked by user")
	}
	b.sent = append(b.sent, chatID)
	return nil
}

var _ telegram.Bot = (*flakyBot)(nil)

func TestSendCountsDeliveredAndFailed(t *testing.T) {
	repo := &stubUserRepo{registered: []*user.User{
		{ID: uuid.New(), TelegramID: 100},
		{ID: uuid.New(), TelegramID: 200},
		{ID: uuid.New(), TelegramID: 300},
	}}
	bot := &flakyBot{failFor: map[int64]bool{200: true}}

	svc := New(repo, bot, logger.Get())

	result, err := svc.Send(context.Background(), "markets open in 10 minutes")
	require.NoError(t, err)
	assert.Equal(t, 2, result.Delivered)
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, []int64{100, 300}, bot.sent)
}

func TestSendNoRecipients(t *testing.T) {
	svc := New(&stubUserRepo{}, &flakyBot{}, logger.Get())

	result, err := svc.Send(context.Background(), "hello")
	require.NoError(t, err)
	assert.Zero(t, result.Delivered)
	assert.Zero(t, result.Failed)
}
