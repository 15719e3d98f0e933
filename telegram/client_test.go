// Copyright (c) 2025 BVK Chaitanya

package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/bvkgo/kv/kvmemdb"
	"github.com/go-telegram/bot/models"
)

var testingSecrets *Secrets

func checkSecrets() bool {
	if testingSecrets != nil {
		return true
	}
	data, err := os.ReadFile("telegram-creds.json")
	if err != nil {
		return false
	}
	s := new(Secrets)
	if err := json.Unmarshal(data, s); err != nil {
		return false
	}
	if err := s.Check(); err != nil {
		return false
	}
	testingSecrets = s
	return true
}

func TestClient(t *testing.T) {
	ctx := context.Background()

	if !checkSecrets() {
		t.Skip("no credentials")
		return
	}

	db := kvmemdb.New()
	c, err := New(ctx, db, testingSecrets)
	if err != nil {
		t.Fatal(err)
	}
	defer func() {
		if err := c.Close(); err != nil {
			t.Fatal(err)
		}
	}()

	t.Logf("Authorized on account %s with owner %s", c.BotUserName(), c.OwnerUserName())

	if err := c.SendMessage(ctx, time.Now(), "sentinel telegram client test"); err != nil {
		t.Fatal(err)
	}
}

func TestParseCommand(t *testing.T) {
	command := func(text string, length int) *models.Message {
		return &models.Message{
			Text: text,
			Entities: []models.MessageEntity{
				{Type: models.MessageEntityTypeBotCommand, Offset: 0, Length: length},
			},
		}
	}

	name, args, err := parseCommand(command("/status now please", 7))
	if err != nil {
		t.Fatal(err)
	}
	if name != "status" || len(args) != 2 || args[0] != "now" || args[1] != "please" {
		t.Fatalf("unexpected command %q with args %q", name, args)
	}

	name, _, err = parseCommand(command("/uptime@sentinel_bot", 20))
	if err != nil {
		t.Fatal(err)
	}
	if name != "uptime" {
		t.Fatalf("want uptime, got %q", name)
	}

	if _, _, err := parseCommand(&models.Message{Text: "hello"}); !errors.Is(err, os.ErrInvalid) {
		t.Fatalf("want os.ErrInvalid for plain text, got %v", err)
	}
}
