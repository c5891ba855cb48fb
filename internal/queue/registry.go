// Package queue holds the submission queue core: enqueueing new jobs,
// advancing their build/mail stages, and projecting recent records for
// display. All mutations go through the ledger's single-writer boundary.
package queue

import (
	"context"
	"fmt"
	"strings"
	"time"

	"chibichitra/internal/domain"
	"chibichitra/internal/ledger"
)

// Registry appends new submissions with freshly assigned ids.
type Registry struct {
	store *ledger.Store
	now   func() time.Time
}

// NewRegistry constructs a registry over the shared ledger.
func NewRegistry(store *ledger.Store) *Registry {
	return &Registry{store: store, now: time.Now}
}

// Enqueue records a new submission with both steps pending and returns its
// id. Ids are assigned as 1 + the highest existing id (1 for an empty
// ledger); the load-assign-append-save sequence runs under the store lock,
// so concurrent enqueues can never collide.
func (r *Registry) Enqueue(ctx context.Context, imageFilename, animeName, email string) (int64, error) {
	imageFilename = strings.TrimSpace(imageFilename)
	animeName = strings.TrimSpace(animeName)
	email = strings.TrimSpace(email)
	if imageFilename == "" || animeName == "" || email == "" {
		return 0, fmt.Errorf("enqueue: image, anime name and email are all required: %w", domain.ErrInvalidInput)
	}

	var id int64
	err := r.store.Update(ctx, func(records []domain.Submission) ([]domain.Submission, bool, error) {
		id = 1
		for _, rec := range records {
			if rec.ID >= id {
				id = rec.ID + 1
			}
		}
		records = append(records, domain.Submission{
			ID:            id,
			ImageFilename: imageFilename,
			AnimeName:     animeName,
			Email:         email,
			Stage:         domain.StageQueued,
			SubmittedAt:   r.now(),
		})
		return records, true, nil
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}
