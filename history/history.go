// Package history persists finished transcripts in an embedded Badger
// store so past dictations can be recalled after the text has left the
// clipboard.
package history

import (
	"encoding/json"
	"fmt"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

// Entry is one finished dictation.
type Entry struct {
	ID        string        `json:"id"`
	Text      string        `json:"text"`
	Language  string        `json:"language,omitempty"`
	Duration  time.Duration `json:"duration"`
	CreatedAt time.Time     `json:"created_at"`
}

// Store wraps the Badger database holding transcript history.
type Store struct {
	db *badger.DB
}

// Open opens or creates the history store at dir.
func Open(dir string) (*Store, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open history store: %w", err)
	}
	return &Store{db: db}, nil
}

// Append records a finished transcript. The entry ID and timestamp are
// assigned here.
func (s *Store) Append(text, language string, duration time.Duration) (*Entry, error) {
	entry := &Entry{
		ID:        uuid.New().String(),
		Text:      text,
		Language:  language,
		Duration:  duration,
		CreatedAt: time.Now(),
	}

	val, err := json.Marshal(entry)
	if err != nil {
		return nil, fmt.Errorf("marshal entry: %w", err)
	}

	// Keys sort by creation time so iteration order is chronological.
	key := fmt.Appendf(nil, "%020d-%s", entry.CreatedAt.UnixNano(), entry.ID)
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, val)
	})
	if err != nil {
		return nil, fmt.Errorf("write entry: %w", err)
	}
	return entry, nil
}

// Recent returns up to n entries, newest first.
func (s *Store) Recent(n int) ([]Entry, error) {
	if n <= 0 {
		return nil, nil
	}

	var entries []Entry
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		it := txn.NewIterator(opts)
		defer it.Close()

		// Reverse iteration needs a seek past every real key.
		for it.Seek([]byte{0xff}); it.Valid() && len(entries) < n; it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var e Entry
				if err := json.Unmarshal(val, &e); err != nil {
					return fmt.Errorf("unmarshal entry: %w", err)
				}
				entries = append(entries, e)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("read entries: %w", err)
	}
	return entries, nil
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}
