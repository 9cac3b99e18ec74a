// Package session keeps the last document each chat sent, so follow-up questions can
// re-analyse it. Nothing here outlives the process.
package session

import (
	"context"
	"errors"
	"time"

	"github.com/gadeShivani/iso20022-rag/internal/models"
)

// ErrNoDocument is returned when a chat has not sent a document yet.
var ErrNoDocument = errors.New("no document for chat")

// Document is the raw XML a chat last sent. It is re-parsed for every request.
type Document struct {
	ChatID      int64
	Name        string
	XML         string
	MessageType models.MessageType
	SavedAt     time.Time
	LastUsedAt  time.Time
}

type Store interface {
	GetDocument(ctx context.Context, chatID int64) (*Document, error)
	SaveDocument(ctx context.Context, doc *Document) error
	TouchDocument(ctx context.Context, chatID int64) error
	DeleteDocument(ctx context.Context, chatID int64) error
	// Prune drops documents unused for longer than maxAge and reports how many.
	Prune(ctx context.Context, maxAge time.Duration) (int, error)
	Close() error
}
