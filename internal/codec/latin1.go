// Package codec converts between raw bytes and text using ISO-8859-1, the
// single-byte code page where every byte value 0-255 maps to the character
// with the same code point. Text produced here survives a QR byte-mode
// round trip without expansion or escaping.
package codec

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// maxCodePoint is the highest code point representable in a single byte
const maxCodePoint = 0xFF

var latin1 = charmap.ISO8859_1

// OutOfRangeError is returned by Decode when the text contains a character
// that has no single-byte representation.
type OutOfRangeError struct {
	Offset int  // character offset, not byte offset
	Rune   rune // offending character, utf8.RuneError for invalid UTF-8
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("character %U at offset %d is outside the single-byte range", e.Rune, e.Offset)
}

// IsOutOfRangeError checks if error is OutOfRangeError
func IsOutOfRangeError(err error) bool {
	var target *OutOfRangeError
	return errors.As(err, &target)
}

// Encode maps each byte to the character of identical code point.
func Encode(b []byte) string {
	out, err := latin1.NewDecoder().Bytes(b)
	if err != nil {
		// ISO-8859-1 defines every byte value
		panic(fmt.Sprintf("codec: unexpected ISO-8859-1 decode failure: %v", err))
	}
	return string(out)
}

// Decode is the exact inverse of Encode. Characters above U+00FF are
// rejected with an *OutOfRangeError rather than truncated or wrapped.
func Decode(s string) ([]byte, error) {
	offset := 0
	// invalid UTF-8 ranges as utf8.RuneError (U+FFFD) and is rejected here too
	for _, r := range s {
		if r > maxCodePoint {
			return nil, &OutOfRangeError{Offset: offset, Rune: r}
		}
		offset++
	}

	out, err := latin1.NewEncoder().String(s)
	if err != nil {
		return nil, fmt.Errorf("failed to encode ISO-8859-1: %w", err)
	}
	return []byte(out), nil
}

// Len returns the length of s in characters.
func Len(s string) int {
	return utf8.RuneCountInString(s)
}
