// Package display renders text as scannable QR codes. Text is converted to
// bytes with ISO-8859-1 and stored in QR byte mode, whose default character
// set is ISO-8859-1, so a conforming scanner reproduces the same text.
package display

import (
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/AlexZinkM/qr-roundtrip/internal/codec"

	"github.com/mdp/qrterminal/v3"
	"github.com/skip2/go-qrcode"
	"rsc.io/qr"
)

// Renderer accepts text and shows it as a QR code
type Renderer interface {
	Render(text string) error
}

// ParseLevel converts a level name from configuration to a recovery level
func ParseLevel(name string) (qrcode.RecoveryLevel, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "low", "l":
		return qrcode.Low, nil
	case "medium", "m", "":
		return qrcode.Medium, nil
	case "high", "q":
		return qrcode.High, nil
	case "highest", "h":
		return qrcode.Highest, nil
	}
	return qrcode.Medium, fmt.Errorf("unknown QR level %q: use low, medium, high or highest", name)
}

// content converts text to the raw byte string stored in the symbol
func content(text string) (string, error) {
	b, err := codec.Decode(text)
	if err != nil {
		return "", fmt.Errorf("text cannot be rendered in byte mode: %w", err)
	}
	return string(b), nil
}

// PNG renders text as a PNG image of size x size pixels
func PNG(text string, size int, level qrcode.RecoveryLevel) ([]byte, error) {
	data, err := content(text)
	if err != nil {
		return nil, err
	}

	qr, err := qrcode.New(data, level)
	if err != nil {
		return nil, fmt.Errorf("failed to create QR code: %w", err)
	}

	png, err := qr.PNG(size)
	if err != nil {
		return nil, fmt.Errorf("failed to generate PNG: %w", err)
	}
	return png, nil
}

// DataURI renders text as a base64 PNG data URI suitable for an <img> tag
func DataURI(text string, size int, level qrcode.RecoveryLevel) (string, error) {
	png, err := PNG(text, size, level)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}

// FileRenderer writes the QR code to a PNG file
type FileRenderer struct {
	Path  string
	Size  int
	Level qrcode.RecoveryLevel
}

func (r *FileRenderer) Render(text string) error {
	png, err := PNG(text, r.Size, r.Level)
	if err != nil {
		return err
	}
	if err := os.WriteFile(r.Path, png, 0644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}

// TerminalRenderer draws the QR code with half-block characters
type TerminalRenderer struct {
	W     io.Writer
	Level qrcode.RecoveryLevel
}

func (r *TerminalRenderer) Render(text string) error {
	data, err := content(text)
	if err != nil {
		return err
	}
	qrterminal.GenerateHalfBlock(data, terminalLevel(r.Level), r.W)
	return nil
}

func terminalLevel(level qrcode.RecoveryLevel) qr.Level {
	switch level {
	case qrcode.Low:
		return qrterminal.L
	case qrcode.Medium:
		return qrterminal.M
	default:
		return qrterminal.H
	}
}
