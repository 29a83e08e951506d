// Package uuid generates UUID v7 identifiers. Every row id in the store is
// a v7: the leading 48 bits are a millisecond timestamp, so lexicographic
// id order follows creation order. Message history queries order by
// (created_at, id) and depend on that property to break same-timestamp ties.
package uuid

import (
	"crypto/rand"
	"encoding/hex"
	"time"
)

// UUID is a 16-byte UUID v7 identifier.
type UUID [16]byte

// NewV7 generates a UUID v7 for the current time.
func NewV7() UUID {
	return newV7At(time.Now())
}

// newV7At builds a v7 UUID with the timestamp taken from t: 48 bits of
// Unix milliseconds, then 74 random bits around the version and variant
// fields (draft-ietf-uuidrev-rfc4122bis layout).
func newV7At(t time.Time) UUID {
	var u UUID

	ms := uint64(t.UnixMilli())
	u[0] = byte(ms >> 40)
	u[1] = byte(ms >> 32)
	u[2] = byte(ms >> 24)
	u[3] = byte(ms >> 16)
	u[4] = byte(ms >> 8)
	u[5] = byte(ms)

	if _, err := rand.Read(u[6:]); err != nil {
		// the platform entropy source is broken; ids cannot be issued safely
		panic("uuid: crypto/rand read failed: " + err.Error())
	}

	// version 0b0111 in the high nibble of byte 6
	u[6] = 0x70 | (u[6] & 0x0f)
	// RFC 4122 variant 0b10 in the top bits of byte 7
	u[7] = 0x80 | (u[7] & 0x3f)

	return u
}

// Time returns the creation timestamp encoded in the UUID, at millisecond
// precision.
func (u UUID) Time() time.Time {
	ms := uint64(u[0])<<40 | uint64(u[1])<<32 | uint64(u[2])<<24 |
		uint64(u[3])<<16 | uint64(u[4])<<8 | uint64(u[5])
	return time.UnixMilli(int64(ms))
}

// String returns the canonical form: xxxxxxxx-xxxx-xxxx-xxxx-xxxxxxxxxxxx.
func (u UUID) String() string {
	var buf [36]byte
	hex.Encode(buf[0:8], u[0:4])
	buf[8] = '-'
	hex.Encode(buf[9:13], u[4:6])
	buf[13] = '-'
	hex.Encode(buf[14:18], u[6:8])
	buf[18] = '-'
	hex.Encode(buf[19:23], u[8:10])
	buf[23] = '-'
	hex.Encode(buf[24:36], u[10:16])
	return string(buf[:])
}
