package model

import "time"

// SessionResponse represents response for POST /qr/sessions
type SessionResponse struct {
	ID          string    `json:"id"`
	State       string    `json:"state"`
	Fingerprint string    `json:"fingerprint"`
	TextLength  int       `json:"textLength"`
	QR          string    `json:"QR"` // data:image/png;base64,...
	ArmedAt     time.Time `json:"armedAt"`
	Report      *Report   `json:"report,omitempty"`
}

// ScanResponse represents response for POST /qr/sessions/scan
type ScanResponse struct {
	ID     string  `json:"id"`
	State  string  `json:"state"`
	Toast  string  `json:"toast"`
	Report *Report `json:"report,omitempty"`
}
