package handler

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/skip2/go-qrcode"

	"github.com/AlexZinkM/qr-roundtrip/internal/codec"
	"github.com/AlexZinkM/qr-roundtrip/internal/config"
	"github.com/AlexZinkM/qr-roundtrip/internal/display"
	"github.com/AlexZinkM/qr-roundtrip/internal/model"
	"github.com/AlexZinkM/qr-roundtrip/internal/scanner"
	"github.com/AlexZinkM/qr-roundtrip/roundtrip"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// maxScanBody limits uploaded scan images and texts
const maxScanBody = 8 << 20

// RoundTripHandler serves the QR round-trip debug endpoints
type RoundTripHandler struct {
	verifier *roundtrip.Verifier
	store    *roundtrip.Store
	size     int
	level    qrcode.RecoveryLevel
}

// NewRoundTripHandler creates a handler rendering codes of size pixels
func NewRoundTripHandler(verifier *roundtrip.Verifier, store *roundtrip.Store, size int, level qrcode.RecoveryLevel) *RoundTripHandler {
	return &RoundTripHandler{
		verifier: verifier,
		store:    store,
		size:     size,
		level:    level,
	}
}

// NewRoundTripHandlerFromConfig creates a handler with QR settings from config
func NewRoundTripHandlerFromConfig(verifier *roundtrip.Verifier) (*RoundTripHandler, error) {
	level, err := display.ParseLevel(config.GetQRLevel())
	if err != nil {
		return nil, err
	}
	return NewRoundTripHandler(verifier, roundtrip.NewStore(config.GetSessionTTL(), config.GetMaxSessions()), config.GetQRSize(), level), nil
}

// Sessions dispatches /qr/sessions by method
func (h *RoundTripHandler) Sessions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.CreateSession(w, r)
	case http.MethodGet:
		h.GetSession(w, r)
	case http.MethodDelete:
		h.DeleteSession(w, r)
	default:
		http.Error(w, "Method not allowed. Should be GET, POST or DELETE", http.StatusMethodNotAllowed)
	}
}

// CreateSession handles POST /qr/sessions
// @Summary      Arm a round-trip session
// @Description  Generates the 256-byte reference payload and returns it rendered as a QR code
// @Tags         qr
// @Produce      json
// @Success      201  {object}  model.SessionResponse
// @Failure      503  {object}  model.ErrorResponse
// @Router       /qr/sessions [post]
func (h *RoundTripHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	s := h.verifier.Arm()

	uri, err := display.DataURI(s.Text(), h.size, h.level)
	if err != nil {
		writeError(w, http.StatusInternalServerError, model.CodeInternal, err)
		return
	}
	if err := h.store.Put(s, h.verifier.Now()); err != nil {
		writeError(w, http.StatusServiceUnavailable, model.CodeStoreFull, err)
		return
	}

	resp := sessionResponse(s)
	resp.QR = uri
	writeJSON(w, http.StatusCreated, resp)
}

// GetSession handles GET /qr/sessions
// @Summary      Get session state
// @Description  Returns the session state and, once verified, its comparison report
// @Tags         qr
// @Produce      json
// @Param        id   query     string  true  "Session ID"
// @Success      200  {object}  model.SessionResponse
// @Failure      404  {object}  model.ErrorResponse
// @Router       /qr/sessions [get]
func (h *RoundTripHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	s, ok := h.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse(s))
}

// DeleteSession handles DELETE /qr/sessions
// @Summary      Discard a session
// @Tags         qr
// @Param        id   query     string  true  "Session ID"
// @Success      204
// @Failure      404  {object}  model.ErrorResponse
// @Router       /qr/sessions [delete]
func (h *RoundTripHandler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, model.CodeBadRequest, errors.New("id query parameter is required"))
		return
	}
	if !h.store.Delete(id) {
		writeError(w, http.StatusNotFound, model.CodeSessionNotFound, roundtrip.ErrSessionNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SessionPNG handles GET /qr/sessions/png
// @Summary      Session QR code image
// @Description  Returns the session's QR code as a PNG image
// @Tags         qr
// @Produce      png
// @Param        id   query     string  true  "Session ID"
// @Success      200  {file}    binary
// @Failure      404  {object}  model.ErrorResponse
// @Router       /qr/sessions/png [get]
func (h *RoundTripHandler) SessionPNG(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed. Should be GET", http.StatusMethodNotAllowed)
		return
	}
	s, ok := h.lookup(w, r)
	if !ok {
		return
	}

	png, err := display.PNG(s.Text(), h.size, h.level)
	if err != nil {
		writeError(w, http.StatusInternalServerError, model.CodeInternal, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}

// Scan handles POST /qr/sessions/scan
// @Summary      Submit a scan result
// @Description  Accepts a photo of the QR code (image/*) or the raw scanned bytes (any other content type) and compares them with the session payload
// @Tags         qr
// @Accept       png,jpeg,plain,octet-stream
// @Produce      json
// @Param        id   query     string  true  "Session ID"
// @Success      200  {object}  model.ScanResponse
// @Failure      400  {object}  model.ErrorResponse
// @Failure      404  {object}  model.ErrorResponse
// @Failure      409  {object}  model.ErrorResponse
// @Router       /qr/sessions/scan [post]
func (h *RoundTripHandler) Scan(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed. Should be POST", http.StatusMethodNotAllowed)
		return
	}
	s, ok := h.lookup(w, r)
	if !ok {
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxScanBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, model.CodeBadRequest, err)
		return
	}

	var sc scanner.Scanner
	if strings.HasPrefix(r.Header.Get("Content-Type"), "image/") {
		sc = scanner.NewImageScanner(body)
	} else {
		sc = scanner.NewTextScanner(bytes.NewReader(body))
	}

	report, err := h.verifier.Run(r.Context(), s, sc)
	switch {
	case errors.Is(err, roundtrip.ErrSessionDone):
		writeError(w, http.StatusConflict, model.CodeSessionDone, err)
		return
	case roundtrip.IsMissingResult(err):
		writeError(w, http.StatusUnprocessableEntity, model.CodeMissingResult, err)
		return
	case err != nil:
		writeError(w, http.StatusBadRequest, model.CodeBadRequest, err)
		return
	}

	// report is nil when no code was found; the session stays armed
	writeJSON(w, http.StatusOK, model.ScanResponse{
		ID:     s.ID,
		State:  string(s.State()),
		Toast:  s.Toast(),
		Report: report,
	})
}

func (h *RoundTripHandler) lookup(w http.ResponseWriter, r *http.Request) (*roundtrip.Session, bool) {
	id := r.URL.Query().Get("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, model.CodeBadRequest, errors.New("id query parameter is required"))
		return nil, false
	}
	s, err := h.store.Get(id)
	if err != nil {
		writeError(w, http.StatusNotFound, model.CodeSessionNotFound, err)
		return nil, false
	}
	return s, true
}

func sessionResponse(s *roundtrip.Session) model.SessionResponse {
	return model.SessionResponse{
		ID:          s.ID,
		State:       string(s.State()),
		Fingerprint: s.Fingerprint(),
		TextLength:  codec.Len(s.Text()),
		ArmedAt:     s.ArmedAt(),
		Report:      s.Report(),
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	writeJSON(w, status, model.ErrorResponse{Error: err.Error(), Code: code})
}
