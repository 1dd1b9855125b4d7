// Package roundtrip checks that a payload survives being rendered as a QR
// code, scanned and decoded back. A Verifier arms sessions, receives scan
// results through an asynchronous continuation and logs one line per
// discrepancy.
package roundtrip

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/AlexZinkM/qr-roundtrip/internal/codec"
	"github.com/AlexZinkM/qr-roundtrip/internal/crypto"
	"github.com/AlexZinkM/qr-roundtrip/internal/model"
	"github.com/AlexZinkM/qr-roundtrip/internal/payload"
	"github.com/AlexZinkM/qr-roundtrip/internal/qrdata"
	"github.com/AlexZinkM/qr-roundtrip/internal/scanner"
)

// Option configures a Verifier
type Option func(v *Verifier)

// WithClock configures the verifier to use the specified clock.
func WithClock(clk clock.Clock) Option {
	return func(v *Verifier) {
		v.clock = clk
	}
}

// Verifier arms sessions and compares scan results against their payload.
type Verifier struct {
	logger zerolog.Logger
	clock  clock.Clock
}

// NewVerifier creates a Verifier reporting to logger
func NewVerifier(logger zerolog.Logger, opts ...Option) *Verifier {
	v := &Verifier{
		logger: logger,
		clock:  clock.New(),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Now returns the current time on the verifier's clock
func (v *Verifier) Now() time.Time {
	return v.clock.Now()
}

// Arm generates the payload and its encoded text and returns a session
// awaiting a scan.
func (v *Verifier) Arm() *Session {
	p := payload.Generate()
	b := p.Bytes()

	s := &Session{
		ID:          uuid.NewString(),
		payload:     p,
		text:        codec.Encode(b),
		fingerprint: crypto.Fingerprint(b),
		armedAt:     v.clock.Now(),
		state:       StateArmed,
	}

	v.logger.Debug().
		Str("session", s.ID).
		Str("fingerprint", crypto.ShortFingerprint(b)).
		Int("length", len(b)).
		Msg("session armed")
	return s
}

// Verify compares scanned text with the original payload. Every mismatching
// offset is logged and listed; a length mismatch skips the byte comparison.
func (v *Verifier) Verify(scanText string, original []byte) model.Report {
	return verify(v.logger, scanText, original)
}

func verify(log zerolog.Logger, scanText string, original []byte) model.Report {
	report := model.Report{
		ExpectedLength: len(original),
		ActualLength:   codec.Len(scanText),
	}

	decoded, err := codec.Decode(scanText)
	if err != nil {
		report.Outcome = model.OutcomeDecodeFailure
		report.DecodeError = err.Error()
		log.Error().Err(err).Msg("scanned text cannot be decoded to bytes")
		return report
	}
	report.ActualLength = len(decoded)

	if len(decoded) != len(original) {
		report.Outcome = model.OutcomeLengthMismatch
		log.Error().
			Int("expected", len(original)).
			Int("actual", len(decoded)).
			Msg("length mismatch")
		return report
	}

	for i := range original {
		if decoded[i] == original[i] {
			continue
		}
		report.Mismatches = append(report.Mismatches, model.Mismatch{
			Offset:   i,
			Expected: original[i],
			Actual:   decoded[i],
		})
		log.Error().
			Int("offset", i).
			Uint8("expected", original[i]).
			Uint8("actual", decoded[i]).
			Msg("byte mismatch")
	}

	if len(report.Mismatches) > 0 {
		report.Outcome = model.OutcomeByteMismatch
		return report
	}
	report.Outcome = model.OutcomeMatch
	log.Info().Int("length", len(original)).Msg("round trip matched")
	return report
}

// Resume is the continuation run when a scan completes. A cancelled scan
// leaves the session armed and returns no report.
func (v *Verifier) Resume(c Completion) (*model.Report, error) {
	s := c.Session
	log := v.logger.With().Str("session", s.ID).Logger()

	if c.Err != nil {
		log.Error().Err(c.Err).Msg("scan failed")
		return nil, fmt.Errorf("scan failed: %w", c.Err)
	}
	if c.Outcome.Status != model.ScanStatusSuccess {
		log.Debug().Msg("scan cancelled, session stays armed")
		return nil, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateDone {
		return nil, ErrSessionDone
	}
	if c.Outcome.Text == nil {
		log.Info().Msg(Toast("null", c.Outcome.IsQRCode))
		log.Error().Err(ErrMissingResult).Msg("scan result has no text")
		return nil, ErrMissingResult
	}
	text := *c.Outcome.Text

	log.Info().Msg(Toast(text, c.Outcome.IsQRCode))
	v.logVerificationData(log, text)

	report := verify(log, text, s.payload.Bytes())
	s.state = StateDone
	s.doneAt = v.clock.Now()
	s.scanText = text
	s.isQRCode = c.Outcome.IsQRCode
	s.report = &report
	return &report, nil
}

// Run launches a scan for s and waits for its completion. If ctx ends first
// the session stays armed and Run returns ctx's error.
func (v *Verifier) Run(ctx context.Context, s *Session, sc scanner.Scanner) (*model.Report, error) {
	select {
	case c := <-Launch(ctx, s, sc):
		return v.Resume(c)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// logVerificationData logs the scanned text parsed as verification QR data,
// or <nil> when it is not one.
func (v *Verifier) logVerificationData(log zerolog.Logger, text string) {
	b, err := codec.Decode(text)
	if err != nil {
		log.Debug().Str("qrCodeData", "<nil>").Msg("qrCodeData")
		return
	}
	data, err := qrdata.Parse(b)
	if err != nil {
		log.Debug().Str("qrCodeData", "<nil>").AnErr("reason", err).Msg("qrCodeData")
		return
	}
	log.Debug().Stringer("qrCodeData", data).Msg("qrCodeData")
}

// Toast is the transient message shown to the user after a scan, whatever
// the verification outcome.
func Toast(text string, isQRCode bool) string {
	return "QrCode: " + text + " is QRCode: " + strconv.FormatBool(isQRCode)
}
