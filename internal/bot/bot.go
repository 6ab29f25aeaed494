package bot

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"readsum/internal/pipeline"
	"readsum/internal/ratelimiter"
)

const updateProcessingTimeout = 3 * time.Minute

// Runner performs one run on a session.
type Runner interface {
	Run(ctx context.Context, session *pipeline.Session) error
}

type Bot struct {
	api          *bot.Bot
	sender       ratelimiter.Sender
	rateLimiter  *ratelimiter.RateLimiter
	runner       Runner
	allowedUsers []int64
	log          *slog.Logger

	mu    sync.Mutex
	chats map[int64]*chat
}

// chat binds a chat to its session. progress is set while a run of this
// chat is in flight. refs is guarded by Bot.mu.
type chat struct {
	session *pipeline.Session
	refs    int

	mu       sync.Mutex
	progress func(pipeline.Snapshot)
}

func New(
	token string,
	runner Runner,
	allowedUsers []int64,
	log *slog.Logger,
	opts ...bot.Option,
) (*Bot, error) {
	b := &Bot{
		runner:       runner,
		allowedUsers: allowedUsers,
		log:          log,
		chats:        make(map[int64]*chat),
	}

	opts = append([]bot.Option{
		bot.WithDefaultHandler(b.handleUpdate),
		bot.WithErrorsHandler(func(err error) {
			log.Error("Telegram API error",
				"error", err)
		}),
	}, opts...)

	api, err := bot.New(strings.TrimSpace(token), opts...)
	if err != nil {
		return nil, err
	}

	b.api = api
	b.rateLimiter = ratelimiter.New(api, log)
	b.sender = b.rateLimiter

	return b, nil
}

// Start polls updates until ctx is done.
func (b *Bot) Start(ctx context.Context) {
	b.api.Start(ctx)

	b.log.InfoContext(ctx, "Bot context is done",
		"error", ctx.Err())
}

func (b *Bot) Stop() {
	if b.rateLimiter != nil {
		b.rateLimiter.Stop()
	}
}

func (b *Bot) handleUpdate(ctx context.Context, _ *bot.Bot, update *models.Update) {
	if update == nil || update.Message == nil {
		return
	}

	updateCtx, cancel := context.WithTimeout(ctx, updateProcessingTimeout)
	defer cancel()

	message := update.Message
	chatID := message.Chat.ID

	var userID int64
	var username string
	if message.From != nil {
		userID = message.From.ID
		username = message.From.Username
	}

	if !b.userAllowed(userID) {
		b.log.DebugContext(updateCtx, "User is not allowed",
			"userID", userID,
			"chatID", chatID,
			"username", username,
			"chatType", message.Chat.Type)

		return
	}

	if err := b.handleMessage(updateCtx, message); err != nil {
		b.log.ErrorContext(updateCtx, "Failed to handle message",
			"error", err,
			"chatID", chatID,
			"userID", userID,
			"chatType", message.Chat.Type,
			"messageID", message.ID)
	}
}

func (b *Bot) userAllowed(userID int64) bool {
	return len(b.allowedUsers) == 0 || slices.Contains(b.allowedUsers, userID)
}

// acquireChat returns the chat of chatID and holds it until releaseChat.
// Chats are kept only while a message of theirs is being handled.
func (b *Bot) acquireChat(chatID int64) *chat {
	b.mu.Lock()
	defer b.mu.Unlock()

	c, ok := b.chats[chatID]
	if !ok {
		c = &chat{}
		c.session = pipeline.NewSession(c.observe)
		b.chats[chatID] = c
	}
	c.refs++

	return c
}

func (b *Bot) releaseChat(chatID int64, c *chat) {
	b.mu.Lock()
	defer b.mu.Unlock()

	c.refs--
	if c.refs <= 0 && b.chats[chatID] == c {
		delete(b.chats, chatID)
	}
}

func (b *Bot) chatCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return len(b.chats)
}

func (c *chat) observe(snap pipeline.Snapshot) {
	c.mu.Lock()
	progress := c.progress
	c.mu.Unlock()

	if progress != nil {
		progress(snap)
	}
}

func (c *chat) setProgress(progress func(pipeline.Snapshot)) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.progress = progress
}
