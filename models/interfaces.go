package models

import "context"

// KeyValueStore is the local persistence used by alerts, session and history
type KeyValueStore interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// Notifier delivers a short message to the user
type Notifier interface {
	Notify(ctx context.Context, title, body string) error
}
