package payload

// Size is the number of bytes in the reference payload.
const Size = 256

// Payload is the fixed reference byte sequence used for the round-trip test.
// The zero value is not useful, use Generate.
type Payload struct {
	data [Size]byte
}

// Generate returns the reference payload: byte i holds the value i mod 256.
func Generate() Payload {
	var p Payload
	for i := range p.data {
		p.data[i] = byte(i % 256)
	}
	return p
}

// Bytes returns a copy of the payload so callers cannot mutate it
func (p Payload) Bytes() []byte {
	out := make([]byte, Size)
	copy(out, p.data[:])
	return out
}
