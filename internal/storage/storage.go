// Package storage publishes catalog documents to object storage.
package storage

import "context"

// Publisher writes a JSON document under key and returns its location.
type Publisher interface {
	PublishJSON(ctx context.Context, key string, v any) (string, error)
}
