package database

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// ErrNotFound indicates no conversation exists for the session identifier.
var ErrNotFound = errors.New("conversation not found")

// Store defines the interface for conversation persistence.
// Methods accept context.Context for cancellation and timeouts.
type Store interface {
	// Ping checks the database connection.
	Ping(ctx context.Context) error

	// GetConversation retrieves a conversation by session identifier.
	// Returns nil, nil if not found.
	GetConversation(ctx context.Context, sessionID string) (*Conversation, error)

	// CreateConversation inserts a new conversation holding the user's
	// biometrics and the synthesized context turn as its first history entry.
	// If a concurrent request already created the session, the existing
	// conversation is returned instead.
	CreateConversation(ctx context.Context, sessionID string, info UserInfo, contextTurn Turn) (*Conversation, error)

	// AppendTurns atomically appends turns to a conversation's history and
	// advances updatedAt. Returns ErrNotFound if the session does not exist.
	AppendTurns(ctx context.Context, sessionID string, turns ...Turn) error
}

// mongoStore implements Store on the conversations collection.
type mongoStore struct {
	manager *Manager
	logger  *slog.Logger
}

// NewStore creates a Store backed by the given connection manager.
func NewStore(manager *Manager, logger *slog.Logger) Store {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &mongoStore{
		manager: manager,
		logger:  logger.With("component", "store"),
	}
}

// Ping checks the database connection.
func (s *mongoStore) Ping(ctx context.Context) error {
	return s.manager.Ping(ctx)
}

// GetConversation retrieves a conversation by session identifier.
func (s *mongoStore) GetConversation(ctx context.Context, sessionID string) (*Conversation, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("session identifier cannot be empty")
	}

	coll, err := s.manager.Collection(ctx)
	if err != nil {
		return nil, err
	}

	var conv Conversation
	err = coll.FindOne(ctx, bson.M{"sessionId": sessionID}).Decode(&conv)

	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		s.logger.DebugContext(ctx, "no conversation found", "session_id", sessionID)
		return nil, nil

	case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
		s.logger.WarnContext(ctx, "context timeout or cancellation while fetching conversation",
			"session_id", sessionID, "error", err)
		return nil, err

	case err != nil:
		s.logger.ErrorContext(ctx, "error fetching conversation", "session_id", sessionID, "error", err)
		return nil, fmt.Errorf("failed to get conversation for session %s: %w", sessionID, err)
	}

	s.logger.DebugContext(ctx, "conversation fetched",
		"session_id", sessionID, "turns", len(conv.History))
	return &conv, nil
}

// CreateConversation inserts a new conversation document.
func (s *mongoStore) CreateConversation(ctx context.Context, sessionID string, info UserInfo, contextTurn Turn) (*Conversation, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("session identifier cannot be empty")
	}

	coll, err := s.manager.Collection(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	conv := &Conversation{
		SessionID: sessionID,
		UserInfo:  info,
		History:   []Turn{contextTurn},
		CreatedAt: now,
		UpdatedAt: now,
	}

	res, err := coll.InsertOne(ctx, conv)
	if mongo.IsDuplicateKeyError(err) {
		// A concurrent request created the session first. Use its document,
		// userInfo is written once and never overwritten.
		s.logger.DebugContext(ctx, "conversation already created concurrently", "session_id", sessionID)

		existing, getErr := s.GetConversation(ctx, sessionID)
		if getErr != nil {
			return nil, getErr
		}
		if existing == nil {
			return nil, fmt.Errorf("failed to create conversation for session %s: %w", sessionID, err)
		}
		return existing, nil
	}
	if err != nil {
		s.logger.ErrorContext(ctx, "error creating conversation", "session_id", sessionID, "error", err)
		return nil, fmt.Errorf("failed to create conversation for session %s: %w", sessionID, err)
	}

	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		conv.ID = oid
		s.logger.DebugContext(ctx, "conversation created",
			"session_id", sessionID, "id", oid.Hex())
	}
	return conv, nil
}

// AppendTurns atomically appends turns to the history array.
func (s *mongoStore) AppendTurns(ctx context.Context, sessionID string, turns ...Turn) error {
	if sessionID == "" {
		return fmt.Errorf("session identifier cannot be empty")
	}
	if len(turns) == 0 {
		return nil
	}

	coll, err := s.manager.Collection(ctx)
	if err != nil {
		return err
	}

	update := bson.M{
		"$push": bson.M{"history": bson.M{"$each": turns}},
		"$set":  bson.M{"updatedAt": time.Now().UTC()},
	}

	res, err := coll.UpdateOne(ctx, bson.M{"sessionId": sessionID}, update)
	if err != nil {
		s.logger.ErrorContext(ctx, "error appending turns", "session_id", sessionID, "error", err)
		return fmt.Errorf("failed to append turns for session %s: %w", sessionID, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("%w: session %s", ErrNotFound, sessionID)
	}

	s.logger.DebugContext(ctx, "turns appended",
		"session_id", sessionID, "count", len(turns))
	return nil
}
