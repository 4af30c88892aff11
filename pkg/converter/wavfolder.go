package converter

import (
	"bytes"
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/zurustar/sampleconv/pkg/keymap"
	"github.com/zurustar/sampleconv/pkg/multisample"
	"github.com/zurustar/sampleconv/pkg/sfz"
	"github.com/zurustar/sampleconv/pkg/tenten"
	"github.com/zurustar/sampleconv/pkg/wavmeta"
)

// ReadWAVFolder builds a multisample from a bag of loose WAV files. The
// files carry no mapping, so the auto-mapper infers key ranges, velocity
// groups and stereo pairs from metadata and filenames.
func ReadWAVFolder(sources []Source, cfg keymap.Config) (*multisample.Multisample, error) {
	var zones []*multisample.SampleZone
	for _, src := range sources {
		if !strings.EqualFold(path.Ext(src.Name), ".wav") {
			continue
		}
		info, err := wavmeta.Read(src.Data)
		if err != nil {
			return nil, fmt.Errorf("converter: %s: %w", src.Name, err)
		}
		base := strings.TrimSuffix(path.Base(src.Name), path.Ext(src.Name))
		z := multisample.NewSampleZone(base, src.Name)
		z.Data = src.Data
		wavmeta.Apply(z, info)
		zones = append(zones, z)
	}
	if len(zones) == 0 {
		return nil, fmt.Errorf("converter: no WAV files in input")
	}
	sort.Slice(zones, func(i, j int) bool { return zones[i].SampleFile < zones[j].SampleFile })

	groups, err := keymap.MapSamples(zones, cfg)
	if err != nil {
		return nil, err
	}
	name := path.Base(path.Dir(zones[0].SampleFile))
	if name == "." || name == "/" || name == "" {
		name = "Multisample"
	}
	return &multisample.Multisample{Name: name, Groups: groups}, nil
}

// WriteWAVFolder emits each zone's audio as a loose WAV file under a folder
// named after the instrument. Zones without embedded audio are skipped; the
// mapping itself is not representable in this format.
func WriteWAVFolder(m *multisample.Multisample) ([]OutputFile, error) {
	dir := safeName(m.Name)
	var out []OutputFile
	seen := map[string]bool{}
	for _, g := range m.Groups {
		for _, z := range g.Zones {
			if len(z.Data) == 0 {
				continue
			}
			name := path.Base(z.SampleFile)
			if name == "" || name == "." {
				name = safeName(z.Name) + ".wav"
			}
			if seen[name] {
				continue
			}
			seen[name] = true
			out = append(out, OutputFile{Path: path.Join(dir, name), Data: z.Data})
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("converter: no embedded audio to write for %q", m.Name)
	}
	return out, nil
}

// ReadSFZ parses an SFZ document.
func ReadSFZ(src Source) (*multisample.Multisample, error) {
	m, err := sfz.Parse(bytes.NewReader(src.Data))
	if err != nil {
		return nil, err
	}
	if m.Name == "" {
		m.Name = strings.TrimSuffix(path.Base(src.Name), path.Ext(src.Name))
	}
	return m, nil
}

// WriteSFZ emits an SFZ document plus any embedded sample audio.
func WriteSFZ(m *multisample.Multisample) ([]OutputFile, error) {
	sfz.SortZones(m)
	var buf bytes.Buffer
	if err := sfz.Write(&buf, m); err != nil {
		return nil, err
	}
	out := []OutputFile{{Path: safeName(m.Name) + ".sfz", Data: buf.Bytes()}}
	out = append(out, embeddedAudio(m)...)
	return out, nil
}

// ReadTenTen parses a 1010music preset document.
func ReadTenTen(src Source) (*multisample.Multisample, error) {
	m, err := tenten.Parse(bytes.NewReader(src.Data))
	if err != nil {
		return nil, err
	}
	if m.Name == "" {
		m.Name = strings.TrimSuffix(path.Base(src.Name), path.Ext(src.Name))
	}
	return m, nil
}

// WriteTenTen emits a preset document plus any embedded sample audio.
func WriteTenTen(m *multisample.Multisample) ([]OutputFile, error) {
	var buf bytes.Buffer
	if err := tenten.Write(&buf, m); err != nil {
		return nil, err
	}
	out := []OutputFile{{Path: safeName(m.Name) + ".xml", Data: buf.Bytes()}}
	out = append(out, embeddedAudio(m)...)
	return out, nil
}

func embeddedAudio(m *multisample.Multisample) []OutputFile {
	var out []OutputFile
	seen := map[string]bool{}
	for _, g := range m.Groups {
		for _, z := range g.Zones {
			if len(z.Data) == 0 || seen[z.SampleFile] {
				continue
			}
			seen[z.SampleFile] = true
			out = append(out, OutputFile{Path: z.SampleFile, Data: z.Data})
		}
	}
	return out
}
