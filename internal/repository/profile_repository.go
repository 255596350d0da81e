package repository

import (
	"context"

	"newsfeed/internal/domain/entity"
)

// UserProfileStore is C5: a key->vector store with an update counter that
// supports incremental-mean updates under concurrent clicks. Writes for a
// single user must serialize; writes for distinct users may run in
// parallel.
type UserProfileStore interface {
	// Get returns the user's interest record, or entity.ErrNotFound if the
	// user has never clicked.
	Get(ctx context.Context, userID string) (*entity.UserInterest, error)

	// UpsertClick atomically folds vec into the user's running-mean interest
	// vector: new := (old*cnt + vec) / (cnt+1), or vec/1 for a new user.
	UpsertClick(ctx context.Context, userID string, vec []float32) (*entity.UserInterest, error)
}
