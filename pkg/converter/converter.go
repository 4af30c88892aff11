// Package converter ties the format adapters together: it detects source and
// target formats, runs the parse, auto-map and emit pipeline for one
// instrument, and drives batches of files through a worker pool.
package converter

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/zurustar/sampleconv/pkg/keymap"
	"github.com/zurustar/sampleconv/pkg/multisample"
)

// Format identifies one supported external representation.
type Format string

const (
	FormatSF2       Format = "sf2"
	FormatNKI       Format = "nki"
	FormatSFZ       Format = "sfz"
	FormatTenTen    Format = "1010"
	FormatWAVFolder Format = "wav"
)

// Source is one input file handed to a reader. Readers never touch the file
// system; the caller (or the batch driver) loads the bytes.
type Source struct {
	Name string
	Data []byte
}

// OutputFile is one file a writer produced. Path is relative to the chosen
// output directory.
type OutputFile struct {
	Path string
	Data []byte
}

// Options carries the read-only conversion configuration shared by all files
// of a batch.
type Options struct {
	Mapping keymap.Config

	// Creator is stamped into formats that carry author metadata.
	Creator string
}

// DetectFormat guesses the format of a file name. A directory (or a name
// without a recognized extension that ends in a separator) is a WAV folder.
func DetectFormat(name string) (Format, error) {
	if strings.HasSuffix(name, "/") || strings.HasSuffix(name, string(filepath.Separator)) {
		return FormatWAVFolder, nil
	}
	switch strings.ToLower(filepath.Ext(name)) {
	case ".sf2":
		return FormatSF2, nil
	case ".nki", ".nkm", ".nkx":
		return FormatNKI, nil
	case ".sfz":
		return FormatSFZ, nil
	case ".xml":
		return FormatTenTen, nil
	case ".wav":
		return FormatWAVFolder, nil
	default:
		return "", fmt.Errorf("converter: cannot detect format of %q", name)
	}
}

// Read parses the sources of one instrument in the given format. SF2 banks
// and NKI multi-instrument banks may yield several multisamples; the other
// formats yield exactly one.
func Read(format Format, sources []Source, opts Options) ([]*multisample.Multisample, error) {
	if len(sources) == 0 {
		return nil, fmt.Errorf("converter: no input")
	}
	switch format {
	case FormatSF2:
		return ReadSF2(sources[0].Data)
	case FormatNKI:
		return ReadNKI(sources[0].Data)
	case FormatSFZ:
		m, err := ReadSFZ(sources[0])
		if err != nil {
			return nil, err
		}
		return []*multisample.Multisample{m}, nil
	case FormatTenTen:
		m, err := ReadTenTen(sources[0])
		if err != nil {
			return nil, err
		}
		return []*multisample.Multisample{m}, nil
	case FormatWAVFolder:
		m, err := ReadWAVFolder(sources, opts.Mapping)
		if err != nil {
			return nil, err
		}
		return []*multisample.Multisample{m}, nil
	default:
		return nil, fmt.Errorf("converter: unsupported source format %q", format)
	}
}

// Write emits one multisample in the given format.
func Write(format Format, m *multisample.Multisample, opts Options) ([]OutputFile, error) {
	if opts.Creator != "" && m.Creator == "" {
		m.Creator = opts.Creator
	}
	switch format {
	case FormatSF2:
		return WriteSF2(m)
	case FormatNKI:
		return WriteNKI(m)
	case FormatSFZ:
		return WriteSFZ(m)
	case FormatTenTen:
		return WriteTenTen(m)
	case FormatWAVFolder:
		return WriteWAVFolder(m)
	default:
		return nil, fmt.Errorf("converter: unsupported target format %q", format)
	}
}

// safeName flattens an instrument name into something usable as a file name.
func safeName(name string) string {
	if name == "" {
		return "untitled"
	}
	mapped := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, name)
	return strings.TrimSpace(mapped)
}
