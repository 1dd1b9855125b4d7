package api

import (
	"net/http"

	"github.com/rs/zerolog"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/AlexZinkM/qr-roundtrip/docs" // registers the swagger spec
	"github.com/AlexZinkM/qr-roundtrip/internal/handler"
	"github.com/AlexZinkM/qr-roundtrip/roundtrip"
)

// SetupRouter sets up router with handlers configured from config
func SetupRouter(logger zerolog.Logger) (http.Handler, error) {
	roundTripHandler, err := handler.NewRoundTripHandlerFromConfig(roundtrip.NewVerifier(logger))
	if err != nil {
		return nil, err
	}
	return NewRouter(roundTripHandler), nil
}

// NewRouter registers the QR endpoints and the Swagger UI
func NewRouter(h *handler.RoundTripHandler) http.Handler {
	mux := http.NewServeMux()

	// Swagger UI
	mux.HandleFunc("/swagger/", httpSwagger.WrapHandler)

	// QR round-trip endpoints
	mux.HandleFunc("/qr/sessions", h.Sessions)
	mux.HandleFunc("/qr/sessions/png", h.SessionPNG)
	mux.HandleFunc("/qr/sessions/scan", h.Scan)

	return mux
}
