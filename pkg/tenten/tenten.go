// Package tenten reads and writes 1010music preset XML documents. A preset
// is a session of sample cells; in multisample presets each cell carries the
// key/velocity window and playback parameters of one zone as scaled integer
// attributes.
package tenten

import (
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/zurustar/sampleconv/pkg/chunk"
	"github.com/zurustar/sampleconv/pkg/multisample"
)

// Scaled-integer conventions of the params attributes.
const (
	// envelope times and sustain level run 0..1000
	envScale = 1000
	// pan runs -1000..1000
	panScale = 1000
	// pitch is in cents, gain in centi-decibels
	centScale = 100
)

type document struct {
	XMLName xml.Name `xml:"document"`
	Session *session `xml:"session"`
}

type session struct {
	Version int    `xml:"version,attr"`
	Name    string `xml:"name,attr,omitempty"`
	Cells   []cell `xml:"cell"`
}

type cell struct {
	Row      int    `xml:"row,attr"`
	Column   int    `xml:"column,attr"`
	Layer    int    `xml:"layer,attr"`
	Filename string `xml:"filename,attr"`
	Type     string `xml:"type,attr"`
	Params   params `xml:"params"`
}

type params struct {
	RootNote       int `xml:"rootnote,attr"`
	KeyRangeBottom int `xml:"keyrangebottom,attr"`
	KeyRangeTop    int `xml:"keyrangetop,attr"`
	VelRangeBottom int `xml:"velrangebottom,attr"`
	VelRangeTop    int `xml:"velrangetop,attr"`

	FadeKeyBottom int `xml:"fadekeybottom,attr"`
	FadeKeyTop    int `xml:"fadekeytop,attr"`
	FadeVelBottom int `xml:"fadevelbottom,attr"`
	FadeVelTop    int `xml:"fadeveltop,attr"`

	SampleStart int `xml:"samstart,attr"`
	SampleLen   int `xml:"samlen,attr"`
	LoopMode    int `xml:"loopmode,attr"`
	LoopStart   int `xml:"loopstart,attr"`
	LoopEnd     int `xml:"loopend,attr"`
	LoopFade    int `xml:"loopfadeamt,attr"`
	Reverse     int `xml:"reverse,attr"`

	Pitch  int `xml:"pitch,attr"`
	PanPos int `xml:"panpos,attr"`
	GainDB int `xml:"gaindb,attr"`

	EnvAttack  int `xml:"envattack,attr"`
	EnvHold    int `xml:"envhold,attr"`
	EnvDecay   int `xml:"envdecay,attr"`
	EnvSustain int `xml:"envsus,attr"`
	EnvRelease int `xml:"envrel,attr"`
}

// Loop mode attribute values.
const (
	loopNone = iota
	loopForward
	loopAlternating
	loopBackward
)

// Parse decodes a preset document. A document without a session element is
// structurally invalid.
func Parse(r io.Reader) (*multisample.Multisample, error) {
	var doc document
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("tenten: decode: %w", err)
	}
	if doc.Session == nil {
		return nil, chunk.NewParseError("IDS_TENTEN_MISSING_SESSION", -1)
	}

	m := &multisample.Multisample{Name: doc.Session.Name}
	byLayer := map[int]*multisample.Group{}
	for _, c := range doc.Session.Cells {
		if c.Type != "sample" {
			continue
		}
		g, ok := byLayer[c.Layer]
		if !ok {
			g = &multisample.Group{Name: fmt.Sprintf("Group %d", len(byLayer)+1)}
			byLayer[c.Layer] = g
			m.Groups = append(m.Groups, g)
		}
		g.Zones = append(g.Zones, cellToZone(&c))
	}
	return m, nil
}

func cellToZone(c *cell) *multisample.SampleZone {
	file := strings.ReplaceAll(c.Filename, `\`, "/")
	file = strings.TrimPrefix(file, "./")
	z := multisample.NewSampleZone(baseName(file), file)
	p := &c.Params

	z.KeyRoot = p.RootNote
	z.KeyLow = p.KeyRangeBottom
	z.KeyHigh = p.KeyRangeTop
	z.VelocityLow = p.VelRangeBottom
	z.VelocityHigh = p.VelRangeTop
	z.NoteCrossfadeLow = p.FadeKeyBottom
	z.NoteCrossfadeHigh = p.FadeKeyTop
	z.VelocityCrossfadeLow = p.FadeVelBottom
	z.VelocityCrossfadeHigh = p.FadeVelTop

	z.Start = p.SampleStart
	if p.SampleLen > 0 {
		z.Stop = p.SampleStart + p.SampleLen
	}
	z.Reversed = p.Reverse != 0
	z.Tune = float64(p.Pitch) / centScale
	z.Panning = float64(p.PanPos) / panScale
	z.Gain = float64(p.GainDB) / centScale

	if p.LoopMode != loopNone {
		loop := multisample.Loop{
			Start:     p.LoopStart,
			End:       p.LoopEnd,
			Crossfade: p.LoopFade,
		}
		switch p.LoopMode {
		case loopAlternating:
			loop.Type = multisample.LoopAlternating
		case loopBackward:
			loop.Type = multisample.LoopBackward
		default:
			loop.Type = multisample.LoopForward
		}
		z.Loops = append(z.Loops, loop)
	}

	z.Envelope = multisample.AmplitudeEnvelope{
		Attack:  float64(p.EnvAttack) / envScale,
		Hold:    float64(p.EnvHold) / envScale,
		Decay:   float64(p.EnvDecay) / envScale,
		Sustain: float64(p.EnvSustain) / envScale,
		Release: float64(p.EnvRelease) / envScale,
	}
	return z
}

// Write emits the multisample as a preset document, one cell per zone. Zones
// of group i land on layer i.
func Write(w io.Writer, m *multisample.Multisample) error {
	doc := document{Session: &session{Version: 2, Name: m.Name}}
	for layer, g := range m.Groups {
		for row, z := range g.Zones {
			doc.Session.Cells = append(doc.Session.Cells, zoneToCell(z, row, layer))
		}
	}
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "    ")
	if err := enc.Encode(&doc); err != nil {
		return fmt.Errorf("tenten: encode: %w", err)
	}
	return enc.Close()
}

func zoneToCell(z *multisample.SampleZone, row, layer int) cell {
	p := params{
		RootNote:       z.KeyRoot,
		KeyRangeBottom: z.KeyLow,
		KeyRangeTop:    z.KeyHigh,
		VelRangeBottom: z.VelocityLow,
		VelRangeTop:    z.VelocityHigh,
		FadeKeyBottom:  z.NoteCrossfadeLow,
		FadeKeyTop:     z.NoteCrossfadeHigh,
		FadeVelBottom:  z.VelocityCrossfadeLow,
		FadeVelTop:     z.VelocityCrossfadeHigh,
		SampleStart:    z.Start,
		Pitch:          int(z.Tune * centScale),
		PanPos:         int(z.Panning * panScale),
		GainDB:         int(z.Gain * centScale),
	}
	if z.Stop >= 0 {
		p.SampleLen = z.Stop - z.Start
	}
	if z.Reversed {
		p.Reverse = 1
	}
	if len(z.Loops) > 0 {
		loop := z.Loops[0]
		switch loop.Type {
		case multisample.LoopAlternating:
			p.LoopMode = loopAlternating
		case multisample.LoopBackward:
			p.LoopMode = loopBackward
		default:
			p.LoopMode = loopForward
		}
		p.LoopStart = loop.Start
		p.LoopEnd = loop.End
		p.LoopFade = loop.Crossfade
	}
	env := z.Envelope
	scale := func(v float64) int {
		if v < 0 {
			return 0
		}
		return int(v * envScale)
	}
	p.EnvAttack = scale(env.Attack)
	p.EnvHold = scale(env.Hold)
	p.EnvDecay = scale(env.Decay)
	p.EnvRelease = scale(env.Release)
	if env.Sustain < 0 {
		p.EnvSustain = envScale
	} else {
		p.EnvSustain = scale(env.Sustain)
	}

	return cell{
		Row:      row,
		Layer:    layer,
		Filename: `.\` + strings.ReplaceAll(z.SampleFile, "/", `\`),
		Type:     "sample",
		Params:   p,
	}
}

func baseName(path string) string {
	if i := strings.LastIndex(path, "/"); i >= 0 {
		path = path[i+1:]
	}
	if i := strings.LastIndex(path, "."); i > 0 {
		path = path[:i]
	}
	return path
}
