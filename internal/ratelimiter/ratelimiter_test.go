package ratelimiter

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

type fakeSender struct {
	mu      sync.Mutex
	sent    []time.Time
	texts   []string
	actions int
	err     error
}

func (f *fakeSender) SendMessage(_ context.Context, params *bot.SendMessageParams) (*models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.sent = append(f.sent, time.Now())
	f.texts = append(f.texts, params.Text)

	return &models.Message{ID: len(f.sent), Text: params.Text}, f.err
}

func (f *fakeSender) EditMessageText(_ context.Context, params *bot.EditMessageTextParams) (*models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.sent = append(f.sent, time.Now())
	f.texts = append(f.texts, params.Text)

	return &models.Message{ID: params.MessageID, Text: params.Text}, f.err
}

func (f *fakeSender) SendChatAction(context.Context, *bot.SendChatActionParams) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.actions++

	return true, nil
}

func newTestRateLimiter(t *testing.T, sender Sender) *RateLimiter {
	t.Helper()

	rl := New(sender, slog.New(slog.NewTextHandler(io.Discard, nil)))
	t.Cleanup(rl.Stop)

	return rl
}

func TestGetDelay(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name     string
		chatID   int64
		lastSent time.Time
		wantZero bool
	}{
		{
			"Private chat - no delay needed",
			123456789,
			now.Add(-2 * time.Second),
			true,
		},
		{
			"Private chat - delay needed",
			123456789,
			now.Add(-500 * time.Millisecond),
			false,
		},
		{
			"Group chat - no delay needed",
			-123456789,
			now.Add(-4 * time.Second),
			true,
		},
		{
			"Group chat - delay needed",
			-123456789,
			now.Add(-1 * time.Second),
			false,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got := getDelay(test.chatID, test.lastSent)

			if test.wantZero && got > 0 {
				t.Errorf("Expected zero delay, got %v", got)
			}

			if !test.wantZero && got <= 0 {
				t.Errorf("Expected positive delay, got %v", got)
			}
		})
	}
}

func TestGetChatID(t *testing.T) {
	tests := []struct {
		name   string
		chatID any
		want   int64
	}{
		{"Int64", int64(12345), 12345},
		{"Int", 67890, 67890},
		{"Username", "@channel", 0},
		{"Nil", nil, 0},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got := getChatID(test.chatID)

			if got != test.want {
				t.Errorf("Expected %v chatID, got %v", test.want, got)
			}
		})
	}
}

func TestGetRate(t *testing.T) {
	tests := []struct {
		name   string
		chatID int64
		want   time.Duration
	}{
		{
			"PrivateChatRate",
			1,
			privateChatRate,
		},
		{
			"GroupChatRate",
			-1,
			groupChatRate,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got := getRate(test.chatID)

			if got != test.want {
				t.Errorf("Expected %v rate, got %v", test.want, got)
			}
		})
	}
}

func TestSendMessageSpacesSameChat(t *testing.T) {
	sender := &fakeSender{}
	rl := newTestRateLimiter(t, sender)
	ctx := context.Background()

	if _, err := rl.SendMessage(ctx, &bot.SendMessageParams{ChatID: int64(1), Text: "first"}); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	msg, err := rl.EditMessageText(ctx, &bot.EditMessageTextParams{ChatID: int64(1), MessageID: 7, Text: "second"})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if msg.ID != 7 {
		t.Errorf("Expected edited message 7, got %d", msg.ID)
	}

	sender.mu.Lock()
	defer sender.mu.Unlock()

	if len(sender.sent) != 2 {
		t.Fatalf("Expected 2 sends, got %d", len(sender.sent))
	}

	gap := sender.sent[1].Sub(sender.sent[0])
	if gap < privateChatRate-50*time.Millisecond {
		t.Errorf("Expected gap of at least %v, got %v", privateChatRate, gap)
	}
}

func TestSendMessageReturnsSenderError(t *testing.T) {
	wantErr := errors.New("forbidden")
	rl := newTestRateLimiter(t, &fakeSender{err: wantErr})

	_, err := rl.SendMessage(context.Background(), &bot.SendMessageParams{ChatID: int64(2), Text: "x"})
	if !errors.Is(err, wantErr) {
		t.Errorf("Expected %v, got %v", wantErr, err)
	}
}

func TestSendChatActionBypassesQueue(t *testing.T) {
	sender := &fakeSender{}
	rl := newTestRateLimiter(t, sender)

	ok, err := rl.SendChatAction(context.Background(), &bot.SendChatActionParams{
		ChatID: int64(3),
		Action: models.ChatActionTyping,
	})
	if err != nil || !ok {
		t.Fatalf("Expected successful chat action, got %v, %v", ok, err)
	}

	if sender.actions != 1 {
		t.Errorf("Expected 1 chat action, got %d", sender.actions)
	}
}

func TestSendMessageAfterStop(t *testing.T) {
	rl := New(&fakeSender{}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	rl.Stop()

	_, err := rl.SendMessage(context.Background(), &bot.SendMessageParams{ChatID: int64(4), Text: "x"})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestSendMessageCancelledContext(t *testing.T) {
	sender := &fakeSender{}
	rl := newTestRateLimiter(t, sender)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := rl.SendMessage(ctx, &bot.SendMessageParams{ChatID: int64(5), Text: "x"})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}
