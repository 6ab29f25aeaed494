package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"mvdan.cc/xurls/v2"

	"readsum/internal/markdown"
	"readsum/internal/pipeline"
	"readsum/internal/reader"
)

const welcomeText = `🤖 *Welcome to readsum\!*

Send me a link to an article and I will reply with a short bullet summary of it\.

You can also paste a whole message: I will pick the first link in it\.`

const (
	noURLText = "✖️ I could not find a link in your message\\. Send me an article URL\\."
	busyText  = "⏳ Still working on your previous link\\. Please wait\\."
)

//nolint:gochecknoglobals // Compiled once, safe for concurrent use.
var urlPattern = xurls.Relaxed()

func (b *Bot) handleMessage(ctx context.Context, message *models.Message) error {
	text := strings.TrimSpace(message.Text)
	if text == "" {
		text = strings.TrimSpace(message.Caption)
	}

	if strings.HasPrefix(text, "/start") || strings.HasPrefix(text, "/help") {
		return b.sendText(ctx, message.Chat.ID, welcomeText)
	}

	articleURL := FindURL(text)
	if articleURL == "" {
		return b.sendText(ctx, message.Chat.ID, noURLText)
	}

	return b.withSpinner(ctx, message.Chat.ID, func() error {
		return b.handleURL(ctx, message.Chat.ID, articleURL)
	})
}

// FindURL returns the first web link in text, or an empty string. Links
// with a scheme other than http or https and email addresses are skipped.
func FindURL(text string) string {
	for _, match := range urlPattern.FindAllString(text, -1) {
		lower := strings.ToLower(match)

		switch {
		case strings.HasPrefix(lower, "http://"), strings.HasPrefix(lower, "https://"):
			return match
		case hasScheme(lower), strings.Contains(lower, "@"):
			continue
		default:
			return match
		}
	}

	return ""
}

// hasScheme reports whether s starts with "scheme:" not followed by a port.
func hasScheme(s string) bool {
	i := strings.IndexByte(s, ':')
	if i <= 0 {
		return false
	}

	for j := range i {
		c := s[j]
		if !('a' <= c && c <= 'z') && (j == 0 || !strings.ContainsRune("0123456789+-.", rune(c))) {
			return false
		}
	}

	rest := s[i+1:]

	return rest == "" || rest[0] < '0' || rest[0] > '9'
}

func (b *Bot) handleURL(ctx context.Context, chatID int64, articleURL string) error {
	c := b.acquireChat(chatID)
	defer b.releaseChat(chatID, c)

	if c.session.Running() {
		return b.sendText(ctx, chatID, busyText)
	}

	status, err := b.sender.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    chatID,
		Text:      markdown.FormatStatusV2(pipeline.StatusFetching),
		ParseMode: models.ParseModeMarkdown,
	})
	if err != nil {
		return fmt.Errorf("send status message: %w", err)
	}

	c.setProgress(func(snap pipeline.Snapshot) {
		if snap.State != pipeline.StateSummarizing {
			return
		}

		if err := b.editText(ctx, chatID, status.ID, markdown.FormatStatusV2(snap.Status)); err != nil {
			b.log.WarnContext(ctx, "Failed to update status message",
				"error", err,
				"chatID", chatID,
				"messageID", status.ID)
		}
	})
	defer c.setProgress(nil)

	c.session.SetURL(articleURL)

	runErr := b.runner.Run(ctx, c.session)
	if errors.Is(runErr, pipeline.ErrBusy) {
		return b.editText(ctx, chatID, status.ID, busyText)
	}

	snap := c.session.Snapshot()

	var reply string
	if snap.State == pipeline.StateDone {
		reply = markdown.FormatSummaryV2(reader.NormalizeURL(articleURL), snap.Summary)
	} else {
		reply = markdown.FormatErrorV2(snap.Error)
	}

	if err = b.editText(ctx, chatID, status.ID, reply); err != nil {
		return fmt.Errorf("edit status message: %w", err)
	}

	return nil
}

func (b *Bot) sendText(ctx context.Context, chatID int64, text string) error {
	_, err := b.sender.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    chatID,
		Text:      normalizeText(text),
		ParseMode: models.ParseModeMarkdown,
		LinkPreviewOptions: &models.LinkPreviewOptions{
			IsDisabled: bot.True(),
		},
	})

	return err
}

func (b *Bot) editText(ctx context.Context, chatID int64, messageID int, text string) error {
	_, err := b.sender.EditMessageText(ctx, &bot.EditMessageTextParams{
		ChatID:    chatID,
		MessageID: messageID,
		Text:      normalizeText(text),
		ParseMode: models.ParseModeMarkdown,
		LinkPreviewOptions: &models.LinkPreviewOptions{
			IsDisabled: bot.True(),
		},
	})

	return err
}

func normalizeText(text string) string {
	return strings.ToValidUTF8(text, "?")
}
