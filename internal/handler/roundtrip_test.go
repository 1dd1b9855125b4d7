package handler

import (
	"bytes"
	"image"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	qt "github.com/frankban/quicktest"
	"github.com/rs/zerolog"
	"github.com/skip2/go-qrcode"

	"github.com/AlexZinkM/qr-roundtrip/internal/model"
	"github.com/AlexZinkM/qr-roundtrip/roundtrip"
)

func newTestServer(c *qt.C) *httptest.Server {
	h := NewRoundTripHandler(roundtrip.NewVerifier(zerolog.Nop()), roundtrip.NewStore(0, 0), 512, qrcode.Medium)
	return serve(c, h)
}

func serve(c *qt.C, h *RoundTripHandler) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/qr/sessions", h.Sessions)
	mux.HandleFunc("/qr/sessions/png", h.SessionPNG)
	mux.HandleFunc("/qr/sessions/scan", h.Scan)

	srv := httptest.NewServer(mux)
	c.Cleanup(srv.Close)
	return srv
}

func createSession(c *qt.C, srv *httptest.Server) model.SessionResponse {
	resp, err := http.Post(srv.URL+"/qr/sessions", "application/json", nil)
	c.Assert(err, qt.IsNil)
	defer resp.Body.Close()
	c.Assert(resp.StatusCode, qt.Equals, http.StatusCreated)

	var s model.SessionResponse
	c.Assert(json.NewDecoder(resp.Body).Decode(&s), qt.IsNil)
	return s
}

func postScan(c *qt.C, srv *httptest.Server, id, contentType string, body []byte) (*http.Response, []byte) {
	resp, err := http.Post(srv.URL+"/qr/sessions/scan?id="+id, contentType, bytes.NewReader(body))
	c.Assert(err, qt.IsNil)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	c.Assert(err, qt.IsNil)
	return resp, data
}

func canonical() []byte {
	b := make([]byte, 256)
	for i := range b {
		b[i] = byte(i)
	}
	return b
}

func TestCreateAndGetSession(t *testing.T) {
	t.Parallel()
	c := qt.New(t)
	srv := newTestServer(c)

	s := createSession(c, srv)
	c.Assert(s.ID, qt.Not(qt.Equals), "")
	c.Assert(s.State, qt.Equals, "armed")
	c.Assert(s.TextLength, qt.Equals, 256)
	c.Assert(strings.HasPrefix(s.QR, "data:image/png;base64,"), qt.IsTrue)

	resp, err := http.Get(srv.URL + "/qr/sessions?id=" + s.ID)
	c.Assert(err, qt.IsNil)
	defer resp.Body.Close()
	c.Assert(resp.StatusCode, qt.Equals, http.StatusOK)

	var got model.SessionResponse
	c.Assert(json.NewDecoder(resp.Body).Decode(&got), qt.IsNil)
	c.Assert(got.ID, qt.Equals, s.ID)
	c.Assert(got.Fingerprint, qt.Equals, s.Fingerprint)
	c.Assert(got.QR, qt.Equals, "")
	c.Assert(got.Report, qt.IsNil)
}

func TestScanRawBytes(t *testing.T) {
	t.Parallel()
	c := qt.New(t)
	srv := newTestServer(c)
	s := createSession(c, srv)

	raw := canonical()
	raw[10] = 99
	resp, data := postScan(c, srv, s.ID, "application/octet-stream", raw)
	c.Assert(resp.StatusCode, qt.Equals, http.StatusOK, qt.Commentf("body: %s", data))

	var got model.ScanResponse
	c.Assert(json.Unmarshal(data, &got), qt.IsNil)
	c.Assert(got.State, qt.Equals, "done")
	c.Assert(strings.HasPrefix(got.Toast, "QrCode: "), qt.IsTrue)
	c.Assert(strings.HasSuffix(got.Toast, " is QRCode: false"), qt.IsTrue)
	c.Assert(got.Report.Outcome, qt.Equals, model.OutcomeByteMismatch)
	c.Assert(got.Report.Mismatches, qt.DeepEquals, []model.Mismatch{{Offset: 10, Expected: 10, Actual: 99}})

	// a verified session does not accept another result
	resp, data = postScan(c, srv, s.ID, "application/octet-stream", canonical())
	c.Assert(resp.StatusCode, qt.Equals, http.StatusConflict)
	var e model.ErrorResponse
	c.Assert(json.Unmarshal(data, &e), qt.IsNil)
	c.Assert(e.Code, qt.Equals, model.CodeSessionDone)
}

func TestScanShortText(t *testing.T) {
	t.Parallel()
	c := qt.New(t)
	srv := newTestServer(c)
	s := createSession(c, srv)

	resp, data := postScan(c, srv, s.ID, "text/plain", canonical()[:255])
	c.Assert(resp.StatusCode, qt.Equals, http.StatusOK)

	var got model.ScanResponse
	c.Assert(json.Unmarshal(data, &got), qt.IsNil)
	c.Assert(got.Report.Outcome, qt.Equals, model.OutcomeLengthMismatch)
	c.Assert(got.Report.ActualLength, qt.Equals, 255)
	c.Assert(got.Report.Mismatches, qt.HasLen, 0)
}

func TestScanImage(t *testing.T) {
	t.Parallel()
	c := qt.New(t)
	srv := newTestServer(c)
	s := createSession(c, srv)

	resp, err := http.Get(srv.URL + "/qr/sessions/png?id=" + s.ID)
	c.Assert(err, qt.IsNil)
	img, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	c.Assert(err, qt.IsNil)
	c.Assert(resp.Header.Get("Content-Type"), qt.Equals, "image/png")

	resp, data := postScan(c, srv, s.ID, "image/png", img)
	c.Assert(resp.StatusCode, qt.Equals, http.StatusOK, qt.Commentf("body: %s", data))

	var got model.ScanResponse
	c.Assert(json.Unmarshal(data, &got), qt.IsNil)
	c.Assert(got.Report.Outcome, qt.Equals, model.OutcomeMatch)
	c.Assert(strings.HasSuffix(got.Toast, " is QRCode: true"), qt.IsTrue)

	resp, err = http.Get(srv.URL + "/qr/sessions?id=" + s.ID)
	c.Assert(err, qt.IsNil)
	defer resp.Body.Close()
	var state model.SessionResponse
	c.Assert(json.NewDecoder(resp.Body).Decode(&state), qt.IsNil)
	c.Assert(state.State, qt.Equals, "done")
	c.Assert(state.Report.OK(), qt.IsTrue)
}

func TestScanImageWithoutCode(t *testing.T) {
	t.Parallel()
	c := qt.New(t)
	srv := newTestServer(c)
	s := createSession(c, srv)

	blank := image.NewGray(image.Rect(0, 0, 64, 64))
	for i := range blank.Pix {
		blank.Pix[i] = 0xff
	}
	var buf bytes.Buffer
	c.Assert(png.Encode(&buf, blank), qt.IsNil)

	resp, data := postScan(c, srv, s.ID, "image/png", buf.Bytes())
	c.Assert(resp.StatusCode, qt.Equals, http.StatusOK, qt.Commentf("body: %s", data))

	var got model.ScanResponse
	c.Assert(json.Unmarshal(data, &got), qt.IsNil)
	c.Assert(got.State, qt.Equals, "armed")
	c.Assert(got.Report, qt.IsNil)
	c.Assert(got.Toast, qt.Equals, "")

	getResp, err := http.Get(srv.URL + "/qr/sessions?id=" + s.ID)
	c.Assert(err, qt.IsNil)
	defer getResp.Body.Close()
	var state model.SessionResponse
	c.Assert(json.NewDecoder(getResp.Body).Decode(&state), qt.IsNil)
	c.Assert(state.State, qt.Equals, "armed")
}

func TestLookupErrors(t *testing.T) {
	t.Parallel()
	c := qt.New(t)
	srv := newTestServer(c)

	resp, err := http.Get(srv.URL + "/qr/sessions?id=nope")
	c.Assert(err, qt.IsNil)
	resp.Body.Close()
	c.Assert(resp.StatusCode, qt.Equals, http.StatusNotFound)

	resp, err = http.Get(srv.URL + "/qr/sessions/png")
	c.Assert(err, qt.IsNil)
	resp.Body.Close()
	c.Assert(resp.StatusCode, qt.Equals, http.StatusBadRequest)

	resp, err = http.Get(srv.URL + "/qr/sessions/scan?id=nope")
	c.Assert(err, qt.IsNil)
	resp.Body.Close()
	c.Assert(resp.StatusCode, qt.Equals, http.StatusMethodNotAllowed)

	req, err := http.NewRequest(http.MethodPut, srv.URL+"/qr/sessions", nil)
	c.Assert(err, qt.IsNil)
	resp, err = http.DefaultClient.Do(req)
	c.Assert(err, qt.IsNil)
	resp.Body.Close()
	c.Assert(resp.StatusCode, qt.Equals, http.StatusMethodNotAllowed)
}

func getStatus(c *qt.C, srv *httptest.Server, id string) int {
	resp, err := http.Get(srv.URL + "/qr/sessions?id=" + id)
	c.Assert(err, qt.IsNil)
	resp.Body.Close()
	return resp.StatusCode
}

func deleteSession(c *qt.C, srv *httptest.Server, id string) int {
	req, err := http.NewRequest(http.MethodDelete, srv.URL+"/qr/sessions?id="+id, nil)
	c.Assert(err, qt.IsNil)
	resp, err := http.DefaultClient.Do(req)
	c.Assert(err, qt.IsNil)
	resp.Body.Close()
	return resp.StatusCode
}

func TestDeleteSession(t *testing.T) {
	t.Parallel()
	c := qt.New(t)
	srv := newTestServer(c)

	s := createSession(c, srv)
	c.Assert(deleteSession(c, srv, s.ID), qt.Equals, http.StatusNoContent)
	c.Assert(getStatus(c, srv, s.ID), qt.Equals, http.StatusNotFound)
	c.Assert(deleteSession(c, srv, s.ID), qt.Equals, http.StatusNotFound)
	c.Assert(deleteSession(c, srv, ""), qt.Equals, http.StatusBadRequest)
}

func TestIdleSessionsExpire(t *testing.T) {
	t.Parallel()
	c := qt.New(t)

	mockClock := clock.NewMock()
	v := roundtrip.NewVerifier(zerolog.Nop(), roundtrip.WithClock(mockClock))
	srv := serve(c, NewRoundTripHandler(v, roundtrip.NewStore(time.Minute, 0), 256, qrcode.Medium))

	old := createSession(c, srv)
	c.Assert(getStatus(c, srv, old.ID), qt.Equals, http.StatusOK)

	mockClock.Add(2 * time.Minute)
	fresh := createSession(c, srv)

	c.Assert(getStatus(c, srv, old.ID), qt.Equals, http.StatusNotFound, qt.Commentf("session idle past the TTL should be removed"))
	c.Assert(getStatus(c, srv, fresh.ID), qt.Equals, http.StatusOK)
}

func TestCreateSessionStoreFull(t *testing.T) {
	t.Parallel()
	c := qt.New(t)

	srv := serve(c, NewRoundTripHandler(roundtrip.NewVerifier(zerolog.Nop()), roundtrip.NewStore(0, 1), 256, qrcode.Medium))
	first := createSession(c, srv)

	resp, err := http.Post(srv.URL+"/qr/sessions", "application/json", nil)
	c.Assert(err, qt.IsNil)
	defer resp.Body.Close()
	c.Assert(resp.StatusCode, qt.Equals, http.StatusServiceUnavailable)

	var e model.ErrorResponse
	c.Assert(json.NewDecoder(resp.Body).Decode(&e), qt.IsNil)
	c.Assert(e.Code, qt.Equals, model.CodeStoreFull)

	c.Assert(deleteSession(c, srv, first.ID), qt.Equals, http.StatusNoContent)
	createSession(c, srv)
}
