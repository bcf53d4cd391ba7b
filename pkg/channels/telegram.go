package channels

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"

	"github.com/heartnote/heartnote/pkg/compose"
	"github.com/heartnote/heartnote/pkg/config"
	"github.com/heartnote/heartnote/pkg/logger"
	"github.com/heartnote/heartnote/pkg/metrics"
	"github.com/heartnote/heartnote/pkg/pipeline"
)

// Generator is the pipeline entry point served to chat users.
type Generator interface {
	Generate(ctx context.Context, req pipeline.Request) (pipeline.Result, error)
}

// TelegramChannel answers "/<mode> [tone] text" commands with generated text.
type TelegramChannel struct {
	bot *telego.Bot
	gen Generator
}

func NewTelegramChannel(cfg config.TelegramConfig, gen Generator) (*TelegramChannel, error) {
	if cfg.Token == "" {
		return nil, errors.New("telegram token is empty")
	}
	bot, err := telego.NewBot(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	return &TelegramChannel{bot: bot, gen: gen}, nil
}

func (c *TelegramChannel) Name() string {
	return "telegram"
}

// Start long-polls for updates until ctx is cancelled.
func (c *TelegramChannel) Start(ctx context.Context) error {
	updates, err := c.bot.UpdatesViaLongPolling(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start long polling: %w", err)
	}
	logger.InfoC("telegram", "Telegram channel started")

	for {
		select {
		case <-ctx.Done():
			logger.InfoC("telegram", "Telegram channel stopped")
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			c.handleUpdate(ctx, update)
		}
	}
}

func (c *TelegramChannel) handleUpdate(ctx context.Context, update telego.Update) {
	msg := update.Message
	if msg == nil || msg.Text == "" {
		return
	}
	lang := ""
	if msg.From != nil {
		lang = msg.From.LanguageCode
	}

	text := reply(ctx, c.gen, msg.Text, lang)
	if text == "" {
		return
	}
	if _, err := c.bot.SendMessage(ctx, tu.Message(tu.ID(msg.Chat.ID), text)); err != nil {
		logger.ErrorCF("telegram", "Failed to send message", map[string]any{
			"chat_id": msg.Chat.ID,
			"error":   err.Error(),
		})
	}
}

const helpText = "Send /<mode> [tone] <what you feel>.\n\n" +
	"Modes: %s\nTones: soft, balanced, deep\n\n" +
	"Example: /poem deep the house is quiet since you left"

func helpMessage() string {
	modes := compose.AllModes()
	keys := make([]string, len(modes))
	for i, m := range modes {
		keys[i] = string(m)
	}
	return fmt.Sprintf(helpText, strings.Join(keys, ", "))
}

// Command is a parsed "/<mode> [tone] text" message.
type Command struct {
	Name string
	Tone string
	Text string
}

// ParseCommand splits a chat message. ok is false for text that is not a
// command. A "@botname" suffix on the command is ignored.
func ParseCommand(text string) (Command, bool) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return Command{}, false
	}
	fields := strings.Fields(text[1:])
	if len(fields) == 0 {
		return Command{}, false
	}
	name, _, _ := strings.Cut(fields[0], "@")
	cmd := Command{Name: strings.ToLower(name)}

	rest := fields[1:]
	if len(rest) > 0 && compose.IsToneKey(rest[0]) {
		cmd.Tone = strings.ToLower(rest[0])
		rest = rest[1:]
	}
	cmd.Text = strings.Join(rest, " ")
	return cmd, true
}

// reply computes the answer to one chat message. langCode is the sender's
// Telegram locale. Any text the user typed goes through the pipeline so the
// safety filter sees it before help or mode handling.
func reply(ctx context.Context, gen Generator, text, langCode string) string {
	cmd, ok := ParseCommand(text)
	if !ok {
		cmd = Command{Text: strings.TrimSpace(text)}
	}
	help := !ok || cmd.Name == "start" || cmd.Name == "help"

	if strings.TrimSpace(cmd.Text) == "" {
		_, known := compose.ParseMode(cmd.Name)
		switch {
		case help:
			return helpMessage()
		case !known:
			return pipeline.ModeUnavailableMessage
		default:
			return "Please write something."
		}
	}

	mode := cmd.Name
	if help {
		mode = ""
	}
	ctx = metrics.WithChannel(ctx, metrics.ChannelTelegram)
	res, err := gen.Generate(ctx, pipeline.Request{
		Mode:        mode,
		Description: cmd.Text,
		Tone:        cmd.Tone,
		Language:    langCode,
	})
	if err != nil {
		logger.ErrorCF("telegram", "Generation failed", map[string]any{"error": err.Error()})
		if help {
			return helpMessage()
		}
		return "Something went wrong. Please try again shortly."
	}
	if help && !res.Blocked {
		return helpMessage()
	}
	return res.Response
}
