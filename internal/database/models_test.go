package database_test

import (
	"testing"
	"time"

	"github.com/nutrichat/nutrichat/internal/database"
)

func TestMessageCountExcludesContextTurn(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC()
	conv := &database.Conversation{
		History: []database.Turn{
			database.TextTurn(database.RoleUser, "system context", now),
		},
	}

	if got := conv.MessageCount(); got != 0 {
		t.Errorf("MessageCount() with only context turn = %d, want 0", got)
	}

	conv.History = append(conv.History,
		database.TextTurn(database.RoleUser, "hello", now),
		database.TextTurn(database.RoleModel, "hi there", now),
	)

	if got := conv.MessageCount(); got != 2 {
		t.Errorf("MessageCount() after one exchange = %d, want 2", got)
	}
}

func TestMessageCountEmptyHistory(t *testing.T) {
	t.Parallel()

	conv := &database.Conversation{}
	if got := conv.MessageCount(); got != 0 {
		t.Errorf("MessageCount() with empty history = %d, want 0", got)
	}
}

func TestTextTurn(t *testing.T) {
	t.Parallel()

	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	turn := database.TextTurn(database.RoleModel, "eat your greens", at)

	if turn.Role != database.RoleModel {
		t.Errorf("Role = %q, want %q", turn.Role, database.RoleModel)
	}
	if len(turn.Parts) != 1 || turn.Parts[0].Text != "eat your greens" {
		t.Errorf("Parts = %+v, want single text part", turn.Parts)
	}
	if turn.Parts[0].InlineData != nil {
		t.Error("InlineData != nil for text turn")
	}
	if !turn.Timestamp.Equal(at) {
		t.Errorf("Timestamp = %v, want %v", turn.Timestamp, at)
	}
}
