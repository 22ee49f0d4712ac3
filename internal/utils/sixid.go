// Package utils holds the compact id type shared by every model and
// the Mongo test harness.
package utils

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"strings"
)

// SixID is a 6-byte random identifier. Its text form is 10 characters
// of Crockford Base32, short enough to paste into a URL or a chat.
type SixID [6]byte

// SixIDHookFunc lets tests pin id generation. Returning override=false
// falls through to random generation.
type SixIDHookFunc func() (id SixID, override bool)

// NewSixIDHook, when set, intercepts NewSixID. Test-only.
var NewSixIDHook SixIDHookFunc

// NewSixID returns a fresh random id.
func NewSixID() SixID {
	if NewSixIDHook != nil {
		if id, override := NewSixIDHook(); override {
			return id
		}
	}

	var id SixID
	if _, err := rand.Read(id[:]); err != nil {
		// crypto/rand failing leaves the zero id rather than panicking.
		return SixID{}
	}
	return id
}

// Crockford Base32: no I, L, O or U, so ids survive being read aloud.
const crockfordAlphabet = "0123456789ABCDEFGHJKMNPQRSTVWXYZ"

var crockfordValues = buildCrockfordValues()

func buildCrockfordValues() map[byte]byte {
	m := make(map[byte]byte, 64)
	for i := 0; i < len(crockfordAlphabet); i++ {
		c := crockfordAlphabet[i]
		m[c] = byte(i)
		if c >= 'A' && c <= 'Z' {
			m[c+'a'-'A'] = byte(i)
		}
	}
	// Crockford decode aliases for easily confused glyphs.
	m['o'], m['O'] = m['0'], m['0']
	m['i'], m['I'] = m['1'], m['1']
	m['l'], m['L'] = m['1'], m['1']
	return m
}

// String encodes the id as 10 uppercase Crockford Base32 characters
// (48 bits in 5-bit groups).
func (u SixID) String() string {
	out := make([]byte, 0, 10)
	var bits uint
	var nbits uint
	for _, b := range u {
		bits |= uint(b) << nbits
		nbits += 8
		for nbits >= 5 {
			out = append(out, crockfordAlphabet[bits&0x1F])
			bits >>= 5
			nbits -= 5
		}
	}
	if nbits > 0 {
		out = append(out, crockfordAlphabet[bits&0x1F])
	}
	return string(out)
}

// ParseSixID decodes the Crockford Base32 form produced by String.
// Hyphens and spaces are ignored; the empty string decodes to the zero
// id.
func ParseSixID(s string) (SixID, error) {
	if s == "" {
		return SixID{}, nil
	}

	s = strings.ReplaceAll(s, "-", "")
	s = strings.ReplaceAll(s, " ", "")
	if len(s) != 10 {
		return SixID{}, errors.New("sixid: encoded form must be 10 characters")
	}

	var id SixID
	var bits uint64
	var nbits uint
	idx := 0
	for i := 0; i < len(s); i++ {
		val, ok := crockfordValues[s[i]]
		if !ok {
			return SixID{}, errors.New("sixid: invalid base32 character")
		}
		bits |= uint64(val) << nbits
		nbits += 5
		for nbits >= 8 && idx < len(id) {
			id[idx] = byte(bits & 0xFF)
			idx++
			bits >>= 8
			nbits -= 8
		}
	}
	if idx != len(id) {
		return SixID{}, errors.New("sixid: truncated encoding")
	}
	return id, nil
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (u SixID) MarshalBinary() ([]byte, error) {
	return u[:], nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (u *SixID) UnmarshalBinary(data []byte) error {
	if len(data) != len(u) {
		return errors.New("sixid: binary form must be 6 bytes")
	}
	copy(u[:], data)
	return nil
}

// MarshalJSON renders the id as its Base32 string.
func (u SixID) MarshalJSON() ([]byte, error) {
	return json.Marshal(u.String())
}

// UnmarshalJSON accepts the Base32 string form.
func (u *SixID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseSixID(s)
	if err != nil {
		return err
	}
	*u = parsed
	return nil
}
