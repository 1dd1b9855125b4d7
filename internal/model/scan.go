package model

// ScanStatus tells whether the scan collaborator produced a result
type ScanStatus string

const (
	ScanStatusSuccess   ScanStatus = "success"
	ScanStatusCancelled ScanStatus = "cancelled"
)

// ScanOutcome is what the scan collaborator hands back after a scan request.
// Text is nil when the collaborator reported success without a value.
type ScanOutcome struct {
	Status   ScanStatus
	Text     *string
	IsQRCode bool
}

// ScanSucceeded builds a successful outcome carrying text
func ScanSucceeded(text string, isQRCode bool) ScanOutcome {
	return ScanOutcome{Status: ScanStatusSuccess, Text: &text, IsQRCode: isQRCode}
}

// ScanCancelled builds a cancelled outcome
func ScanCancelled() ScanOutcome {
	return ScanOutcome{Status: ScanStatusCancelled}
}
