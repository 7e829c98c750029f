package history

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Alias1177/stockgpt/internal/analyze"
	"github.com/Alias1177/stockgpt/internal/database"
	"github.com/Alias1177/stockgpt/models"
)

const (
	// StoreKey is where the conversation lives in the key-value store
	StoreKey = "stockgpt_history"
	// MaxEntries caps the stored messages; the oldest are dropped first
	MaxEntries = 50
)

// Store keeps the analysis conversation as user/assistant message pairs
type Store struct {
	kv  models.KeyValueStore
	now func() time.Time
	mu  sync.Mutex
}

func NewStore(kv models.KeyValueStore) *Store {
	return &Store{kv: kv, now: time.Now}
}

// Record appends the query and its result. When the analysis failed the
// assistant reply carries the user-facing error message instead.
func (s *Store) Record(ctx context.Context, query string, result *models.AnalysisResult, failure error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, err := s.load(ctx)
	if err != nil {
		return err
	}

	ts := s.now().UnixMilli()
	reply := models.ChatMessage{ID: uuid.NewString(), Role: models.RoleAssistant, Timestamp: ts}
	switch {
	case result != nil:
		reply.Content = result.Summary
		reply.Data = result
	case failure != nil:
		reply.Content = failure.Error()
		var classified *analyze.ClassifiedError
		if errors.As(failure, &classified) {
			reply.Content = classified.Message
		}
	}

	list = append(list,
		models.ChatMessage{ID: uuid.NewString(), Role: models.RoleUser, Content: query, Timestamp: ts},
		reply,
	)
	if len(list) > MaxEntries {
		list = list[len(list)-MaxEntries:]
	}
	return database.SetJSON(ctx, s.kv, StoreKey, list)
}

// List returns up to limit of the most recent messages, oldest first.
// A limit of zero or less returns everything.
func (s *Store) List(ctx context.Context, limit int) ([]models.ChatMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(list) > limit {
		list = list[len(list)-limit:]
	}
	return list, nil
}

func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.kv.Delete(ctx, StoreKey)
}

func (s *Store) load(ctx context.Context) ([]models.ChatMessage, error) {
	var list []models.ChatMessage
	if _, err := database.GetJSON(ctx, s.kv, StoreKey, &list); err != nil {
		return nil, err
	}
	return list, nil
}
