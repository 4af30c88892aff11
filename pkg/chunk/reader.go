// Package chunk provides the low-level binary primitives shared by all
// container decoders: a position-tracked little-endian reader over an
// in-memory byte slice, RIFF-style tag+size tokenizing, and the string and
// timestamp accessors the SF2 and NI container formats need.
package chunk

import (
	"strings"
	"time"

	"golang.org/x/text/encoding/unicode"
)

// Reader reads little-endian primitives from a byte slice while tracking the
// current offset. All accessors validate the remaining length and return a
// ParseError with key IDS_ERR_STREAM_TRUNCATED on underrun; the position is
// not advanced on error.
type Reader struct {
	data []byte
	pos  int
}

// NewReader creates a Reader over data. The slice is not copied.
func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

// Available returns the number of unread bytes.
func (r *Reader) Available() int {
	return len(r.data) - r.pos
}

// Offset returns the current byte position.
func (r *Reader) Offset() int64 {
	return int64(r.pos)
}

// Bytes consumes and returns the next n bytes. The returned slice aliases the
// underlying data.
func (r *Reader) Bytes(n int) ([]byte, error) {
	if n < 0 || r.Available() < n {
		return nil, NewParseError("IDS_ERR_STREAM_TRUNCATED", r.Offset(), n-r.Available())
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

// Skip advances the position by n bytes.
func (r *Reader) Skip(n int) error {
	_, err := r.Bytes(n)
	return err
}

// Uint8 reads one byte.
func (r *Reader) Uint8() (uint8, error) {
	b, err := r.Bytes(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// Uint16 reads a little-endian 16-bit unsigned integer.
func (r *Reader) Uint16() (uint16, error) {
	b, err := r.Bytes(2)
	if err != nil {
		return 0, err
	}
	return uint16(b[0]) | uint16(b[1])<<8, nil
}

// Uint32 reads a little-endian 32-bit unsigned integer.
func (r *Reader) Uint32() (uint32, error) {
	b, err := r.Bytes(4)
	if err != nil {
		return 0, err
	}
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24, nil
}

// Uint64 reads a little-endian 64-bit unsigned integer.
func (r *Reader) Uint64() (uint64, error) {
	lo, err := r.Uint32()
	if err != nil {
		return 0, err
	}
	hi, err := r.Uint32()
	if err != nil {
		return 0, err
	}
	return uint64(hi)<<32 | uint64(lo), nil
}

// Int16 reads a little-endian 16-bit two's-complement integer.
func (r *Reader) Int16() (int16, error) {
	v, err := r.Uint16()
	return int16(v), err
}

// Int32 reads a little-endian 32-bit two's-complement integer.
func (r *Reader) Int32() (int32, error) {
	v, err := r.Uint32()
	return int32(v), err
}

// FixedASCII reads a fixed-length field holding a null-terminated ASCII
// string and returns the text before the first NUL, with surrounding
// whitespace trimmed. SF2 name fields are 20 bytes; the length is a
// parameter because INFO sub-chunks use their declared chunk size.
func (r *Reader) FixedASCII(n int) (string, error) {
	b, err := r.Bytes(n)
	if err != nil {
		return "", err
	}
	for i, c := range b {
		if c == 0 {
			return strings.TrimSpace(string(b[:i])), nil
		}
	}
	return strings.TrimSpace(string(b)), nil
}

// UTF16String reads a 32-bit character count followed by that many UTF-16LE
// code units.
func (r *Reader) UTF16String() (string, error) {
	n, err := r.Uint32()
	if err != nil {
		return "", err
	}
	b, err := r.Bytes(int(n) * 2)
	if err != nil {
		return "", err
	}
	return DecodeUTF16(b)
}

// Time32 reads a 32-bit Unix timestamp (seconds) as used by the Kontakt file
// list trailing metadata.
func (r *Reader) Time32() (time.Time, error) {
	secs, err := r.Uint32()
	if err != nil {
		return time.Time{}, err
	}
	return time.Unix(int64(secs), 0).UTC(), nil
}

// utf16le is the codec for NI container strings. Decoders and encoders are
// created per call; the transformers carry state and are not safe to share.
var utf16le = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)

// DecodeUTF16 converts UTF-16LE bytes to a Go string.
func DecodeUTF16(b []byte) (string, error) {
	out, err := utf16le.NewDecoder().Bytes(b)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// EncodeUTF16 converts a Go string to UTF-16LE bytes.
func EncodeUTF16(s string) ([]byte, error) {
	return utf16le.NewEncoder().Bytes([]byte(s))
}
