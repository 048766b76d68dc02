// Copyright (c) 2025 BVK Chaitanya

// Package telegram implements a Telegram bot that delivers watchlist
// notifications to a fixed set of authorized users and answers their
// read-only bot commands.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bvk/stockwatch/ctxutil"
	"github.com/bvk/stockwatch/gobs"
	"github.com/bvk/stockwatch/kvutil"
	"github.com/bvk/stockwatch/syncmap"
	"github.com/bvkgo/kv"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/visvasity/cli"
)

type CmdFunc = cli.CmdFunc

type command struct {
	purpose string
	handler CmdFunc
}

type Client struct {
	cg ctxutil.CloseGroup

	db kv.Database

	mu sync.Mutex

	bot *bot.Bot

	self *models.User

	secrets *Secrets

	state *gobs.TelegramState

	commandMap syncmap.Map[string, *command]
}

var start = time.Now()

// New connects to the Telegram bot api and starts receiving updates in the
// background. Chat ids of authorized users are persisted in the database.
func New(ctx context.Context, db kv.Database, secrets *Secrets) (*Client, error) {
	if err := secrets.Check(); err != nil {
		return nil, err
	}

	c := &Client{
		db:      db,
		secrets: secrets.Clone(),
	}

	b, err := bot.New(secrets.BotToken, bot.WithDefaultHandler(c.handler))
	if err != nil {
		return nil, fmt.Errorf("could not create telegram bot: %w", err)
	}
	c.bot = b

	self, err := b.GetMe(ctx)
	if err != nil {
		return nil, fmt.Errorf("could not get telegram bot user: %w", err)
	}
	c.self = self

	state, err := kvutil.GetDB[gobs.TelegramState](ctx, db, c.stateKey())
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		state = &gobs.TelegramState{
			UserChatIDMap: make(map[string]int64),
		}
	}
	c.state = state

	c.commandMap.Store("uptime", &command{
		purpose: "Prints the server uptime",
		handler: c.uptime,
	})
	if err := c.setCommands(ctx); err != nil {
		return nil, err
	}

	c.cg.Go(func(ctx context.Context) {
		c.bot.Start(ctx)
	})
	return c, nil
}

func (c *Client) Close() error {
	c.cg.Close()
	return nil
}

func (c *Client) BotUserName() string {
	return c.self.Username
}

func (c *Client) stateKey() string {
	return path.Join("/telegram", c.self.Username, "state")
}

// AddCommand registers a bot command. Handler output written to cli.Stdout is
// sent back as the reply.
func (c *Client) AddCommand(ctx context.Context, name, purpose string, handler CmdFunc) error {
	if len(name) == 0 || len(purpose) == 0 || handler == nil {
		return os.ErrInvalid
	}
	if _, loaded := c.commandMap.LoadOrStore(name, &command{purpose: purpose, handler: handler}); loaded {
		return os.ErrExist
	}
	return c.setCommands(ctx)
}

func (c *Client) setCommands(ctx context.Context) error {
	var cmds []models.BotCommand
	for name, cmd := range c.commandMap.Range {
		cmds = append(cmds, models.BotCommand{
			Command:     name,
			Description: cmd.purpose,
		})
	}
	sort.Slice(cmds, func(i, j int) bool { return cmds[i].Command < cmds[j].Command })

	if ok, err := c.bot.SetMyCommands(ctx, &bot.SetMyCommandsParams{Commands: cmds}); err != nil {
		return fmt.Errorf("could not set bot commands: %w", err)
	} else if !ok {
		return fmt.Errorf("could not set bot commands")
	}
	return nil
}

// parseCommand splits a "/name arg1 arg2" message into the command name and
// its arguments.
func parseCommand(msg *models.Message) (string, []string, error) {
	if msg == nil || len(msg.Entities) == 0 {
		return "", nil, os.ErrInvalid
	}
	entity := msg.Entities[0]
	if entity.Type != models.MessageEntityTypeBotCommand || entity.Offset != 0 {
		return "", nil, os.ErrInvalid
	}
	if len(msg.Text) < entity.Length || !strings.HasPrefix(msg.Text, "/") {
		return "", nil, os.ErrInvalid
	}
	name := msg.Text[1:entity.Length]
	// Commands in group chats are addressed as /name@botname.
	if p := strings.IndexByte(name, '@'); p != -1 {
		name = name[:p]
	}
	args := strings.Fields(msg.Text[entity.Length:])
	return name, args, nil
}

func (c *Client) isAuthorized(user string) bool {
	return slices.Contains(c.secrets.Users(), user)
}

// SendMessage sends the text to every authorized user with a known chat id.
func (c *Client) SendMessage(ctx context.Context, at time.Time, text string) error {
	c.mu.Lock()
	chats := make(map[string]int64)
	for _, user := range c.secrets.Users() {
		if id, ok := c.state.UserChatIDMap[user]; ok {
			chats[user] = id
		}
	}
	c.mu.Unlock()

	if len(chats) == 0 {
		slog.WarnContext(ctx, "no telegram chats to notify; users must message the bot first", "bot", c.BotUserName())
		return nil
	}

	msg := at.Format("2006-01-02 15:04:05 MST") + " " + text
	var errs []error
	for user, id := range chats {
		if _, err := c.bot.SendMessage(ctx, &bot.SendMessageParams{ChatID: id, Text: msg}); err != nil {
			slog.ErrorContext(ctx, "could not send telegram message", "user", user, "err", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (c *Client) handler(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}
	sender := update.Message.From.Username
	if !c.isAuthorized(sender) {
		slog.WarnContext(ctx, "ignoring telegram message from unauthorized user", "sender", sender)
		return
	}
	if err := c.saveChatID(ctx, sender, update.Message.Chat.ID); err != nil {
		slog.WarnContext(ctx, "could not save telegram chat id (ignored)", "user", sender, "err", err)
	}

	reply := c.respond(ctx, update.Message)
	if len(reply) == 0 {
		return
	}
	disabled := true
	p := &bot.SendMessageParams{
		ChatID:             update.Message.Chat.ID,
		Text:               reply,
		ReplyParameters:    &models.ReplyParameters{MessageID: update.Message.ID},
		LinkPreviewOptions: &models.LinkPreviewOptions{IsDisabled: &disabled},
	}
	if _, err := b.SendMessage(ctx, p); err != nil {
		slog.ErrorContext(ctx, "could not reply to telegram command (ignored)", "user", sender, "err", err)
	}
}

func (c *Client) respond(ctx context.Context, msg *models.Message) string {
	name, args, err := parseCommand(msg)
	if err != nil {
		return ""
	}
	cmd, ok := c.commandMap.Load(name)
	if !ok {
		return fmt.Sprintf("unknown command %q", name)
	}

	var sb strings.Builder
	if err := cmd.handler(cli.WithStdout(ctx, &sb), args); err != nil {
		slog.ErrorContext(ctx, "telegram command has failed", "command", name, "args", args, "err", err)
		return err.Error()
	}
	return sb.String()
}

func (c *Client) saveChatID(ctx context.Context, user string, chatID int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if id, ok := c.state.UserChatIDMap[user]; ok && id == chatID {
		return nil
	}
	c.state.UserChatIDMap[user] = chatID
	slog.InfoContext(ctx, "saving telegram chat id for authorized user", "user", user, "chat-id", chatID)
	return kvutil.SetDB(ctx, c.db, c.stateKey(), c.state)
}

func (c *Client) uptime(ctx context.Context, _ []string) error {
	stdout := cli.Stdout(ctx)
	const day = 24 * time.Hour
	d := time.Since(start).Round(time.Second)
	if d < day {
		fmt.Fprintf(stdout, "%v", d)
		return nil
	}
	fmt.Fprintf(stdout, "%dd%v", d/day, d%day)
	return nil
}
