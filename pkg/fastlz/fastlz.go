// Package fastlz implements the FastLZ block format used by NI container
// subtree chunks. Both compression levels decode; the compressor emits
// level 1, which every Kontakt generation accepts.
package fastlz

import (
	"errors"
	"fmt"
)

const (
	maxCopy     = 32
	maxLen      = 264 // 256 + 8
	maxDistance = 8192
	maxL2Dist   = 8191
)

var (
	// ErrCorrupt is returned when the compressed stream is malformed.
	ErrCorrupt = errors.New("fastlz: corrupt stream")

	// ErrSizeMismatch is returned when the decompressed size differs from
	// the size the container header declared.
	ErrSizeMismatch = errors.New("fastlz: decompressed size mismatch")
)

// Decompress expands a FastLZ stream. The level is taken from the top three
// bits of the first byte. The output length must equal expectedSize exactly;
// anything else is a fatal error on the caller's side, so no partial result
// is returned.
func Decompress(in []byte, expectedSize int) ([]byte, error) {
	if len(in) == 0 {
		return nil, ErrCorrupt
	}
	level := in[0]>>5 + 1
	var (
		out []byte
		err error
	)
	switch level {
	case 1:
		out, err = decompress1(in, expectedSize)
	case 2:
		out, err = decompress2(in, expectedSize)
	default:
		return nil, fmt.Errorf("fastlz: unsupported level %d", level)
	}
	if err != nil {
		return nil, err
	}
	if len(out) != expectedSize {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrSizeMismatch, len(out), expectedSize)
	}
	return out, nil
}

func decompress1(in []byte, maxout int) ([]byte, error) {
	out := make([]byte, 0, maxout)
	ip := 0
	ctrl := uint32(in[ip] & 31)
	ip++

	for {
		if ctrl >= 32 {
			length := int(ctrl>>5) - 1
			ofs := int(ctrl&31) << 8
			if length == 6 {
				if ip >= len(in) {
					return nil, ErrCorrupt
				}
				length += int(in[ip])
				ip++
			}
			if ip >= len(in) {
				return nil, ErrCorrupt
			}
			ofs += int(in[ip])
			ip++
			ref := len(out) - ofs - 1
			if ref < 0 || len(out)+length+3 > maxout {
				return nil, ErrCorrupt
			}
			for i := 0; i < length+3; i++ {
				out = append(out, out[ref+i])
			}
		} else {
			run := int(ctrl) + 1
			if ip+run > len(in) || len(out)+run > maxout {
				return nil, ErrCorrupt
			}
			out = append(out, in[ip:ip+run]...)
			ip += run
		}
		if ip >= len(in) {
			break
		}
		ctrl = uint32(in[ip])
		ip++
	}
	return out, nil
}

func decompress2(in []byte, maxout int) ([]byte, error) {
	out := make([]byte, 0, maxout)
	ip := 0
	ctrl := uint32(in[ip] & 31)
	ip++

	for {
		if ctrl >= 32 {
			length := int(ctrl>>5) - 1
			ofs := int(ctrl&31) << 8
			if length == 6 {
				// Level 2 match lengths extend in 255-byte steps.
				for {
					if ip >= len(in) {
						return nil, ErrCorrupt
					}
					code := in[ip]
					ip++
					length += int(code)
					if code != 255 {
						break
					}
				}
			}
			if ip >= len(in) {
				return nil, ErrCorrupt
			}
			code := in[ip]
			ip++
			ofs += int(code)
			ref := len(out) - ofs - 1
			if code == 255 && ofs == int(31)<<8+255 {
				// Far match: 16-bit big-endian distance beyond 8 KiB.
				if ip+2 > len(in) {
					return nil, ErrCorrupt
				}
				ofs = int(in[ip])<<8 + int(in[ip+1])
				ip += 2
				ref = len(out) - ofs - maxL2Dist - 1
			}
			if ref < 0 || len(out)+length+3 > maxout {
				return nil, ErrCorrupt
			}
			for i := 0; i < length+3; i++ {
				out = append(out, out[ref+i])
			}
		} else {
			run := int(ctrl) + 1
			if ip+run > len(in) || len(out)+run > maxout {
				return nil, ErrCorrupt
			}
			out = append(out, in[ip:ip+run]...)
			ip += run
		}
		if ip >= len(in) {
			break
		}
		ctrl = uint32(in[ip])
		ip++
	}
	return out, nil
}

// Compress produces a level-1 FastLZ stream for in. Greedy match search with
// a 3-byte hash, matching the reference encoder's opcode layout.
func Compress(in []byte) []byte {
	if len(in) == 0 {
		return []byte{0}
	}
	out := make([]byte, 0, len(in)+len(in)/31+2)
	var htab [8192]int32
	for i := range htab {
		htab[i] = -1
	}

	hash := func(p int) uint32 {
		v := uint32(in[p]) | uint32(in[p+1])<<8 | uint32(in[p+2])<<16
		return (v * 2654435761) >> 19 & 8191
	}

	flushLiterals := func(from, to int) {
		for from < to {
			run := to - from
			if run > maxCopy {
				run = maxCopy
			}
			out = append(out, byte(run-1))
			out = append(out, in[from:from+run]...)
			from += run
		}
	}

	anchor := 0
	ip := 0
	for ip+3 <= len(in) {
		h := hash(ip)
		ref := htab[h]
		htab[h] = int32(ip)
		if ref < 0 || ip == 0 || ip-int(ref) > maxDistance-1 ||
			in[ref] != in[ip] || in[ref+1] != in[ip+1] || in[ref+2] != in[ip+2] {
			ip++
			continue
		}
		length := 3
		for ip+length < len(in) && length < maxLen && in[int(ref)+length] == in[ip+length] {
			length++
		}
		flushLiterals(anchor, ip)
		dist := ip - int(ref) - 1
		if length-2 < 7 {
			out = append(out, byte((length-2)<<5|dist>>8), byte(dist))
		} else {
			out = append(out, byte(7<<5|dist>>8), byte(length-9), byte(dist))
		}
		ip += length
		anchor = ip
	}
	flushLiterals(anchor, len(in))
	return out
}
