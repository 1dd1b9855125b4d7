// Package scanner implements scan collaborators: components that produce the
// text read back from a displayed QR code.
package scanner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg" // register JPEG decoder for camera captures
	_ "image/png"
	"io"

	"github.com/AlexZinkM/qr-roundtrip/internal/codec"
	"github.com/AlexZinkM/qr-roundtrip/internal/model"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/qrcode"
)

// Scanner produces a scan outcome. A cancelled outcome with a nil error
// means the user backed out without a result.
type Scanner interface {
	Scan(ctx context.Context) (model.ScanOutcome, error)
}

// ImageScanner decodes a QR code from an encoded image (PNG or JPEG)
type ImageScanner struct {
	image []byte
}

// NewImageScanner creates a scanner for the given image bytes
func NewImageScanner(img []byte) *ImageScanner {
	return &ImageScanner{image: img}
}

// Scan decodes the image. Byte segments are read as ISO-8859-1 so every byte
// comes back as the character with the same code point. An image without a
// readable code yields a cancelled outcome, the same as leaving the camera
// screen without a result.
func (s *ImageScanner) Scan(ctx context.Context) (model.ScanOutcome, error) {
	if err := ctx.Err(); err != nil {
		return model.ScanCancelled(), nil
	}

	img, _, err := image.Decode(bytes.NewReader(s.image))
	if err != nil {
		return model.ScanOutcome{}, fmt.Errorf("failed to decode image: %w", err)
	}

	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return model.ScanOutcome{}, fmt.Errorf("failed to binarize image: %w", err)
	}

	hints := map[gozxing.DecodeHintType]interface{}{
		gozxing.DecodeHintType_CHARACTER_SET: "ISO-8859-1",
		gozxing.DecodeHintType_TRY_HARDER:    true,
	}
	result, err := qrcode.NewQRCodeReader().Decode(bmp, hints)
	if err != nil {
		var notFound gozxing.NotFoundException
		if errors.As(err, &notFound) {
			return model.ScanCancelled(), nil
		}
		return model.ScanOutcome{}, fmt.Errorf("failed to read QR code: %w", err)
	}

	return model.ScanSucceeded(result.GetText(), result.GetBarcodeFormat() == gozxing.BarcodeFormat_QR_CODE), nil
}

// TextScanner reads raw bytes typed or pasted by the user and interprets them
// as ISO-8859-1 text. It is the manual-entry fallback when no camera exists.
type TextScanner struct {
	r io.Reader
}

// NewTextScanner creates a scanner reading from r
func NewTextScanner(r io.Reader) *TextScanner {
	return &TextScanner{r: r}
}

func (s *TextScanner) Scan(ctx context.Context) (model.ScanOutcome, error) {
	if err := ctx.Err(); err != nil {
		return model.ScanCancelled(), nil
	}

	raw, err := io.ReadAll(s.r)
	if err != nil {
		return model.ScanOutcome{}, fmt.Errorf("failed to read scan input: %w", err)
	}
	return model.ScanSucceeded(codec.Encode(raw), false), nil
}

// Func adapts a plain function to the Scanner interface
type Func func(ctx context.Context) (model.ScanOutcome, error)

func (f Func) Scan(ctx context.Context) (model.ScanOutcome, error) {
	return f(ctx)
}
