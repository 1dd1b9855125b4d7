package roundtrip

import (
	"sync"
	"time"

	"github.com/AlexZinkM/qr-roundtrip/internal/model"
	"github.com/AlexZinkM/qr-roundtrip/internal/payload"
)

// State of a verification session
type State string

const (
	// StateArmed means the payload is displayed and a scan result is awaited
	StateArmed State = "armed"
	// StateDone means a scan result was compared and the report emitted
	StateDone State = "done"
)

// Session is one round-trip attempt. It owns its payload and the text shown
// to the scanner; both are fixed at creation. It is passed through the scan
// continuation instead of being kept in shared state.
type Session struct {
	ID          string
	payload     payload.Payload
	text        string
	fingerprint string
	armedAt     time.Time

	mu       sync.Mutex
	state    State
	doneAt   time.Time
	scanText string
	isQRCode bool
	report   *model.Report
}

// Text returns the encoded text that is rendered as a QR code
func (s *Session) Text() string {
	return s.text
}

// Payload returns a copy of the reference payload
func (s *Session) Payload() []byte {
	return s.payload.Bytes()
}

// Fingerprint returns the hex digest of the payload
func (s *Session) Fingerprint() string {
	return s.fingerprint
}

// ArmedAt returns when the session was created
func (s *Session) ArmedAt() time.Time {
	return s.armedAt
}

// State returns the current state
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// DoneAt returns when the comparison completed; zero while armed
func (s *Session) DoneAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doneAt
}

// Report returns the comparison report, nil while armed
func (s *Session) Report() *model.Report {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.report
}

// Toast returns the message shown to the user for the accepted scan result,
// or "" while armed.
func (s *Session) Toast() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateDone {
		return ""
	}
	return Toast(s.scanText, s.isQRCode)
}

// lastActivity is DoneAt once verified, ArmedAt before
func (s *Session) lastActivity() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateDone {
		return s.doneAt
	}
	return s.armedAt
}
