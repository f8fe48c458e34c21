package store

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/relay-loop/ralph/observability"
)

// AppendProgress writes one entry to the append-only progress journal: a
// blank line, a UTC timestamp header, a blank line, the entry text, and a
// trailing newline. The journal is never rewritten.
func (s *Store) AppendProgress(ctx context.Context, entry string) error {
	f, err := os.OpenFile(s.progressPath(), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSaveFailed, err)
	}
	defer f.Close()

	header := time.Now().UTC().Format("2006-01-02 15:04:05 UTC")
	if _, err := fmt.Fprintf(f, "\n%s\n\n%s\n", header, entry); err != nil {
		return fmt.Errorf("%w: %v", ErrSaveFailed, err)
	}

	s.observer.OnEvent(ctx, observability.Event{
		Type:      EventProgress,
		Level:     observability.LevelVerbose,
		Timestamp: time.Now(),
		Source:    "store.AppendProgress",
	})
	return nil
}

// ReadProgress returns the full journal contents, or an empty string if it
// does not yet exist.
func (s *Store) ReadProgress() (string, error) {
	data, err := os.ReadFile(s.progressPath())
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("%w: %v", ErrReadFailed, err)
	}
	return string(data), nil
}
