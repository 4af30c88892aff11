// Package wavmeta extracts the sampler-relevant fields of a WAV file: channel
// layout, sample rate, frame count, the smpl chunk's root key, fine tune and
// loop points. Decoding is delegated to go-audio/wav; this package only maps
// its metadata onto the intermediate zone model.
package wavmeta

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/go-audio/wav"

	"github.com/zurustar/sampleconv/pkg/multisample"
)

// ErrNotWAV reports input that is not a RIFF/WAVE stream.
var ErrNotWAV = errors.New("wavmeta: not a RIFF/WAVE stream")

// Info holds the fields a sampler cares about. RootKey is -1 when the file
// carries no smpl chunk.
type Info struct {
	Channels   int
	SampleRate int
	BitDepth   int
	Frames     int

	RootKey int
	// FineTune in semitones, derived from the smpl pitch fraction.
	FineTune float64
	Loops    []multisample.Loop
}

// Read decodes the headers and metadata of an in-memory WAV file. The PCM
// payload is not decoded.
func Read(data []byte) (*Info, error) {
	return ReadFrom(bytes.NewReader(data))
}

// ReadFrom decodes headers and metadata from a seekable stream. The decoder
// drains chunks as it scans, so the frame count and the metadata each get a
// rewound pass of their own.
func ReadFrom(r io.ReadSeeker) (*Info, error) {
	d := wav.NewDecoder(r)
	if !d.IsValidFile() {
		return nil, ErrNotWAV
	}

	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("wavmeta: %w", err)
	}
	d = wav.NewDecoder(r)
	if err := d.FwdToPCM(); err != nil {
		return nil, fmt.Errorf("wavmeta: %w", err)
	}

	info := &Info{
		Channels:   int(d.NumChans),
		SampleRate: int(d.SampleRate),
		BitDepth:   int(d.BitDepth),
		RootKey:    -1,
	}
	if d.NumChans > 0 && d.BitDepth > 0 {
		info.Frames = int(d.PCMLen()) / int(d.NumChans) / (int(d.BitDepth) / 8)
	}

	// Metadata chunks are optional; a decode failure here must not reject
	// an otherwise playable file.
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("wavmeta: %w", err)
	}
	d = wav.NewDecoder(r)
	d.ReadMetadata()
	if d.Metadata == nil || d.Metadata.SamplerInfo == nil {
		return info, nil
	}
	si := d.Metadata.SamplerInfo
	if si.MIDIUnityNote <= 127 {
		info.RootKey = int(si.MIDIUnityNote)
	}
	info.FineTune = float64(si.MIDIPitchFraction) / (1 << 32)
	for _, l := range si.Loops {
		loop := multisample.Loop{Start: int(l.Start), End: int(l.End)}
		switch l.Type {
		case 1:
			loop.Type = multisample.LoopAlternating
		case 2:
			loop.Type = multisample.LoopBackward
		default:
			loop.Type = multisample.LoopForward
		}
		info.Loops = append(info.Loops, loop)
	}
	return info, nil
}

// Apply copies the decoded fields onto a zone, leaving fields the file did
// not provide untouched.
func Apply(z *multisample.SampleZone, info *Info) {
	z.Channels = info.Channels
	z.SampleRate = info.SampleRate
	if info.RootKey >= 0 {
		z.KeyRoot = info.RootKey
		z.Tune = info.FineTune
	}
	if len(info.Loops) > 0 {
		z.Loops = append([]multisample.Loop(nil), info.Loops...)
	}
}
