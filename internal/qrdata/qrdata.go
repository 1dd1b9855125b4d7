// Package qrdata parses the binary payload of Matrix key-verification QR
// codes. Only the layout is checked; keys and secrets are not validated.
//
// Layout:
//
//	"MATRIX" | version (0x02) | mode | len(txn) uint16 BE | txn | key1 (32) | key2 (32) | secret (>= 8)
package qrdata

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
)

const (
	Version   = 0x02
	keyLen    = 32
	minSecret = 8
)

var header = []byte("MATRIX")

// Mode tells which party and keys the code is for
type Mode byte

const (
	ModeVerifyingAnotherUser             Mode = 0x00
	ModeSelfVerifyingMasterKeyTrusted    Mode = 0x01
	ModeSelfVerifyingMasterKeyNotTrusted Mode = 0x02
)

func (m Mode) String() string {
	switch m {
	case ModeVerifyingAnotherUser:
		return "verifying_another_user"
	case ModeSelfVerifyingMasterKeyTrusted:
		return "self_verifying_master_key_trusted"
	case ModeSelfVerifyingMasterKeyNotTrusted:
		return "self_verifying_master_key_not_trusted"
	}
	return fmt.Sprintf("mode(%d)", byte(m))
}

var (
	ErrNotVerificationCode = errors.New("not a verification QR code")
	ErrTruncated           = errors.New("verification QR code is truncated")
)

// Data is a parsed verification QR code
type Data struct {
	Mode          Mode
	TransactionID string
	FirstKey      []byte
	SecondKey     []byte
	SharedSecret  []byte
}

// Parse parses b. It returns ErrNotVerificationCode when b does not start
// with the verification header, which is the common case for arbitrary data.
func Parse(b []byte) (*Data, error) {
	if !bytes.HasPrefix(b, header) {
		return nil, ErrNotVerificationCode
	}
	rest := b[len(header):]

	if len(rest) < 4 {
		return nil, ErrTruncated
	}
	if rest[0] != Version {
		return nil, fmt.Errorf("unsupported verification QR version %d", rest[0])
	}
	mode := Mode(rest[1])
	if mode > ModeSelfVerifyingMasterKeyNotTrusted {
		return nil, fmt.Errorf("unknown verification mode %d", rest[1])
	}
	txnLen := int(binary.BigEndian.Uint16(rest[2:4]))
	rest = rest[4:]

	if len(rest) < txnLen+2*keyLen+minSecret {
		return nil, ErrTruncated
	}

	d := &Data{
		Mode:          mode,
		TransactionID: string(rest[:txnLen]),
	}
	rest = rest[txnLen:]
	d.FirstKey = append([]byte(nil), rest[:keyLen]...)
	d.SecondKey = append([]byte(nil), rest[keyLen:2*keyLen]...)
	d.SharedSecret = append([]byte(nil), rest[2*keyLen:]...)
	return d, nil
}

// Encode produces the binary form accepted by Parse
func (d *Data) Encode() ([]byte, error) {
	if len(d.FirstKey) != keyLen || len(d.SecondKey) != keyLen {
		return nil, fmt.Errorf("keys must be %d bytes", keyLen)
	}
	if len(d.SharedSecret) < minSecret {
		return nil, fmt.Errorf("shared secret must be at least %d bytes", minSecret)
	}
	if len(d.TransactionID) > 0xFFFF {
		return nil, errors.New("transaction id too long")
	}

	var buf bytes.Buffer
	buf.Write(header)
	buf.WriteByte(Version)
	buf.WriteByte(byte(d.Mode))
	_ = binary.Write(&buf, binary.BigEndian, uint16(len(d.TransactionID)))
	buf.WriteString(d.TransactionID)
	buf.Write(d.FirstKey)
	buf.Write(d.SecondKey)
	buf.Write(d.SharedSecret)
	return buf.Bytes(), nil
}

// String renders keys and secret as unpadded base64, the form used in
// verification events.
func (d *Data) String() string {
	return fmt.Sprintf("QrCodeData(mode=%s, transactionId=%s, firstKey=%s, secondKey=%s, sharedSecret=%s)",
		d.Mode,
		d.TransactionID,
		base64.RawStdEncoding.EncodeToString(d.FirstKey),
		base64.RawStdEncoding.EncodeToString(d.SecondKey),
		base64.RawStdEncoding.EncodeToString(d.SharedSecret),
	)
}
