package data

import (
	"encoding/binary"
	"fmt"
)

// Long values travel as 8 byte big-endian integers
const LongSize = 8

// Ptr is a reusable view over a byte slice.
// Evaluation points it at the bytes of a value instead of copying them.
type Ptr struct {
	b []byte
}

// Set points the view at b
func (p *Ptr) Set(b []byte) {
	p.b = b
}

// Get returns the bytes currently viewed
func (p *Ptr) Get() []byte {
	return p.b
}

// Len returns the length of the viewed bytes
func (p *Ptr) Len() int {
	return len(p.b)
}

// Reset clears the view so the pointer can be reused
func (p *Ptr) Reset() {
	p.b = nil
}

// EncodeLong encodes v as a big-endian 8 byte value
func EncodeLong(v int64) []byte {
	b := make([]byte, LongSize)
	binary.BigEndian.PutUint64(b, uint64(v))
	return b
}

// DecodeLong decodes a value written by EncodeLong
func DecodeLong(b []byte) (int64, error) {
	if len(b) != LongSize {
		return 0, fmt.Errorf("expected %d bytes for BIGINT, got %d", LongSize, len(b))
	}
	return int64(binary.BigEndian.Uint64(b)), nil
}
