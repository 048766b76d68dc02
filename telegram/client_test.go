// Copyright (c) 2025 BVK Chaitanya

package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"testing"
	"time"

	"github.com/bvkgo/kv/kvmemdb"
	"github.com/go-telegram/bot/models"
)

func TestParseCommand(t *testing.T) {
	newMsg := func(text string, length int) *models.Message {
		return &models.Message{
			Text: text,
			Entities: []models.MessageEntity{
				{Type: models.MessageEntityTypeBotCommand, Offset: 0, Length: length},
			},
		}
	}

	name, args, err := parseCommand(newMsg("/watchlist ada@example.com", 10))
	if err != nil {
		t.Fatal(err)
	}
	if name != "watchlist" || !slices.Equal(args, []string{"ada@example.com"}) {
		t.Fatalf("unexpected command %q %v", name, args)
	}

	name, args, err = parseCommand(newMsg("/uptime@stockwatch_bot", 22))
	if err != nil {
		t.Fatal(err)
	}
	if name != "uptime" || len(args) != 0 {
		t.Fatalf("unexpected command %q %v", name, args)
	}

	if _, _, err := parseCommand(&models.Message{Text: "hello"}); err == nil {
		t.Fatalf("wanted error for plain text message")
	}
}

func TestSecretsCheck(t *testing.T) {
	s := &Secrets{BotToken: "token", Owner: "ada", Members: []string{"ada"}}
	if err := s.Check(); err == nil {
		t.Fatalf("wanted error for repeated owner")
	}
	s.Members = []string{"bob", "bob"}
	if err := s.Check(); err == nil {
		t.Fatalf("wanted error for repeated member")
	}
	s.Members = []string{"bob", "eve"}
	if err := s.Check(); err != nil {
		t.Fatal(err)
	}
	if users := s.Users(); !slices.Equal(users, []string{"ada", "bob", "eve"}) {
		t.Fatalf("unexpected users %v", users)
	}
}

func TestClient(t *testing.T) {
	data, err := os.ReadFile("telegram-creds.json")
	if err != nil {
		t.Skip("no credentials")
		return
	}
	secrets := new(Secrets)
	if err := json.Unmarshal(data, secrets); err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	c, err := New(ctx, kvmemdb.New(), secrets)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	t.Logf("authorized on bot account %s", c.BotUserName())
	if err := c.SendMessage(ctx, time.Now(), fmt.Sprintf("test message from %s", t.Name())); err != nil {
		t.Fatal(err)
	}
}
