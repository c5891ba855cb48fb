// Package ledger persists the submission queue as a flat CSV file shared
// between the web process and the worker. The file is the permanent audit
// log: rows are append-only and only their status flags ever change.
package ledger

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"chibichitra/internal/domain"
)

// TimestampLayout is the fixed format of the timestamp column.
const TimestampLayout = "2006-01-02 15:04:05"

const (
	flagPending = "N"
	flagDone    = "Y"
)

// header is the exact column order of the shared file. Both the enqueue path
// and the processor parse it; changing it is a breaking change.
var header = []string{"id", "image_filename", "anime_name", "email_id", "build_status", "mail_status", "timestamp"}

// Store provides atomic whole-set reads and replaces of the submission file.
// Mutations from this process are serialized through an internal mutex;
// mutations across processes (the api and the worker both write) are
// serialized through an advisory lock next to the file.
type Store struct {
	path string

	mu       sync.Mutex
	fileLock *flock.Flock
}

// NewStore creates a store for the file at path. The file itself is created
// lazily on the first Save.
func NewStore(path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("ledger: path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ledger: ensure directory: %w", err)
	}
	return &Store{
		path:     path,
		fileLock: flock.New(path + ".lock"),
	}, nil
}

// Path returns the location of the backing file.
func (s *Store) Path() string { return s.path }

// Load reads the complete record set. A missing file yields an empty set;
// a file that cannot be parsed into the expected schema yields an error
// wrapping domain.ErrStoreCorrupt. Reads take no lock: Save replaces the
// file atomically, so a reader always observes a complete snapshot.
func (s *Store) Load(ctx context.Context) ([]domain.Submission, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("ledger: open %s: %w", s.path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = len(header)
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("ledger: parse %s: %v: %w", s.path, err, domain.ErrStoreCorrupt)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("ledger: %s: missing header: %w", s.path, domain.ErrStoreCorrupt)
	}
	for i, name := range header {
		if strings.TrimSpace(rows[0][i]) != name {
			return nil, fmt.Errorf("ledger: %s: header column %d is %q, want %q: %w",
				s.path, i, rows[0][i], name, domain.ErrStoreCorrupt)
		}
	}

	records := make([]domain.Submission, 0, len(rows)-1)
	for _, row := range rows[1:] {
		rec, err := parseRow(row)
		if err != nil {
			return nil, fmt.Errorf("ledger: %s: %v: %w", s.path, err, domain.ErrStoreCorrupt)
		}
		records = append(records, rec)
	}
	return records, nil
}

// Save replaces the file with the complete record set. The write goes to a
// temporary file in the same directory and is renamed over the target, so a
// concurrent Load can never observe a half-written file. Failures wrap
// domain.ErrStoreWrite.
func (s *Store) Save(ctx context.Context, records []domain.Submission) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("ledger: create temp file: %v: %w", err, domain.ErrStoreWrite)
	}
	tmpPath := tmp.Name()

	w := csv.NewWriter(tmp)
	writeErr := w.Write(header)
	for _, rec := range records {
		if writeErr != nil {
			break
		}
		writeErr = w.Write(formatRow(rec))
	}
	if writeErr == nil {
		w.Flush()
		writeErr = w.Error()
	}
	if writeErr == nil {
		writeErr = tmp.Sync()
	}
	if closeErr := tmp.Close(); writeErr == nil {
		writeErr = closeErr
	}
	if writeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("ledger: write %s: %v: %w", s.path, writeErr, domain.ErrStoreWrite)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("ledger: rename %s: %v: %w", s.path, err, domain.ErrStoreWrite)
	}
	return nil
}

// Update runs fn inside the single-writer boundary: load, mutate, save.
// fn returns the record set to persist and whether anything changed; when
// nothing changed no write happens. Two concurrent Updates never interleave,
// in-process or across processes, so load-compute-save is effectively atomic.
func (s *Store) Update(ctx context.Context, fn func(records []domain.Submission) ([]domain.Submission, bool, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	locked, err := s.fileLock.TryLockContext(ctx, 50*time.Millisecond)
	if err != nil {
		return fmt.Errorf("ledger: acquire lock: %w", err)
	}
	if !locked {
		return errors.New("ledger: lock not acquired")
	}
	defer s.fileLock.Unlock()

	records, err := s.Load(ctx)
	if err != nil {
		return err
	}
	records, changed, err := fn(records)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}
	return s.Save(ctx, records)
}

func parseRow(row []string) (domain.Submission, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(row[0]), 10, 64)
	if err != nil || id <= 0 {
		return domain.Submission{}, fmt.Errorf("row id %q is not a positive integer", row[0])
	}
	buildDone, err := parseFlag(row[4])
	if err != nil {
		return domain.Submission{}, fmt.Errorf("row %d: build_status: %v", id, err)
	}
	mailDone, err := parseFlag(row[5])
	if err != nil {
		return domain.Submission{}, fmt.Errorf("row %d: mail_status: %v", id, err)
	}
	stage, ok := domain.StageFromFlags(buildDone, mailDone)
	if !ok {
		return domain.Submission{}, fmt.Errorf("row %d: mail marked done before build", id)
	}
	ts, err := time.ParseInLocation(TimestampLayout, strings.TrimSpace(row[6]), time.Local)
	if err != nil {
		return domain.Submission{}, fmt.Errorf("row %d: timestamp %q: %v", id, row[6], err)
	}
	return domain.Submission{
		ID:            id,
		ImageFilename: strings.TrimSpace(row[1]),
		AnimeName:     strings.TrimSpace(row[2]),
		Email:         strings.TrimSpace(row[3]),
		Stage:         stage,
		SubmittedAt:   ts,
	}, nil
}

func formatRow(rec domain.Submission) []string {
	return []string{
		strconv.FormatInt(rec.ID, 10),
		rec.ImageFilename,
		rec.AnimeName,
		rec.Email,
		formatFlag(rec.Stage.BuildDone()),
		formatFlag(rec.Stage.MailDone()),
		rec.SubmittedAt.Format(TimestampLayout),
	}
}

func parseFlag(raw string) (bool, error) {
	switch strings.TrimSpace(raw) {
	case flagDone:
		return true, nil
	case flagPending:
		return false, nil
	default:
		return false, fmt.Errorf("status %q is neither %q nor %q", raw, flagPending, flagDone)
	}
}

func formatFlag(done bool) string {
	if done {
		return flagDone
	}
	return flagPending
}
