package queue

import (
	"context"
	"sort"

	"chibichitra/internal/domain"
	"chibichitra/internal/ledger"
)

// View is the read-only projection used by the web process to show recent
// submissions. It never writes and tolerates running concurrently with the
// worker; the store's atomic replace guarantees a consistent snapshot.
type View struct {
	store *ledger.Store
}

// NewView constructs a view over the shared ledger.
func NewView(store *ledger.Store) *View {
	return &View{store: store}
}

// Recent returns the n highest-id records, most recent first. An absent
// ledger yields an empty slice, never an error.
func (v *View) Recent(ctx context.Context, n int) ([]domain.Submission, error) {
	if n <= 0 {
		return nil, nil
	}
	records, err := v.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	sort.Slice(records, func(i, j int) bool { return records[i].ID > records[j].ID })
	if len(records) > n {
		records = records[:n]
	}
	return records, nil
}
