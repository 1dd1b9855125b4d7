package roundtrip

import (
	"context"

	"github.com/AlexZinkM/qr-roundtrip/internal/model"
	"github.com/AlexZinkM/qr-roundtrip/internal/scanner"
)

// Completion is delivered once per scan request. It carries the session the
// request was issued for so the continuation needs no shared state.
type Completion struct {
	Session *Session
	Outcome model.ScanOutcome
	Err     error
}

// Launch issues a scan request for s. Exactly one Completion is sent on the
// returned channel, which is then closed.
func Launch(ctx context.Context, s *Session, sc scanner.Scanner) <-chan Completion {
	ch := make(chan Completion, 1)
	go func() {
		defer close(ch)
		outcome, err := sc.Scan(ctx)
		ch <- Completion{Session: s, Outcome: outcome, Err: err}
	}()
	return ch
}
