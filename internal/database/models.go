package database

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Turn roles as stored in conversation history and sent to the completion API.
const (
	RoleUser  = "user"
	RoleModel = "model"
)

// Conversation is one chat session: the visitor's biometrics captured at
// creation time plus the full exchange history, keyed by session identifier.
type Conversation struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	SessionID string             `bson:"sessionId" json:"sessionId"`
	UserInfo  UserInfo           `bson:"userInfo" json:"userInfo"`
	History   []Turn             `bson:"history" json:"history"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// UserInfo holds the biometrics from the intake form. Written once when the
// conversation is created and never mutated afterwards.
type UserInfo struct {
	Name   string  `bson:"name" json:"name"`
	Age    int     `bson:"age" json:"age"`
	Weight float64 `bson:"weight" json:"weight"`
	Height float64 `bson:"height" json:"height"`
}

// Turn is a single message in the history: one role, one or more parts.
type Turn struct {
	Role      string    `bson:"role" json:"role"`
	Parts     []Part    `bson:"parts" json:"parts"`
	Timestamp time.Time `bson:"timestamp" json:"timestamp"`
}

// Part carries either text or inline image bytes, mirroring the completion
// API's content shape so history replays without translation.
type Part struct {
	Text       string      `bson:"text,omitempty" json:"text,omitempty"`
	InlineData *InlineData `bson:"inlineData,omitempty" json:"inlineData,omitempty"`
}

// InlineData is an image payload with its declared media type.
type InlineData struct {
	MIMEType string `bson:"mimeType" json:"mimeType"`
	Data     []byte `bson:"data" json:"data"`
}

// TextTurn builds a single-part text turn.
func TextTurn(role, text string, at time.Time) Turn {
	return Turn{
		Role:      role,
		Parts:     []Part{{Text: text}},
		Timestamp: at,
	}
}

// MessageCount returns the number of user-visible turns. The first history
// entry is the synthesized context turn and is never shown to the client,
// so it is excluded.
func (c *Conversation) MessageCount() int {
	if len(c.History) == 0 {
		return 0
	}
	return len(c.History) - 1
}
