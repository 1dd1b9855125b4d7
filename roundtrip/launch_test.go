package roundtrip

import (
	"bytes"
	"context"
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/AlexZinkM/qr-roundtrip/internal/model"
	"github.com/AlexZinkM/qr-roundtrip/internal/scanner"
)

func TestLaunchDeliversOnce(t *testing.T) {
	t.Parallel()
	c := qt.New(t)

	var buf bytes.Buffer
	s := newTestVerifier(&buf).Arm()

	ch := Launch(context.Background(), s, scanner.Func(func(ctx context.Context) (model.ScanOutcome, error) {
		return model.ScanSucceeded("hello", true), nil
	}))

	got, ok := <-ch
	c.Assert(ok, qt.IsTrue)
	c.Assert(got.Session, qt.Equals, s)
	c.Assert(got.Err, qt.IsNil)
	c.Assert(*got.Outcome.Text, qt.Equals, "hello")

	_, ok = <-ch
	c.Assert(ok, qt.IsFalse, qt.Commentf("channel should be closed after one completion"))
}

func TestLaunchPassesContext(t *testing.T) {
	t.Parallel()
	c := qt.New(t)

	var buf bytes.Buffer
	s := newTestVerifier(&buf).Arm()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	got := <-Launch(ctx, s, scanner.NewTextScanner(bytes.NewReader([]byte("x"))))
	c.Assert(got.Err, qt.IsNil)
	c.Assert(got.Outcome.Status, qt.Equals, model.ScanStatusCancelled)
}
