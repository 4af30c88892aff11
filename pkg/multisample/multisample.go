// Package multisample defines the normalized intermediate representation all
// format adapters exchange: groups of key/velocity-mapped sample zones with
// loops and an amplitude envelope. Readers produce it, the auto-mapper
// enriches it when the source format carries no mapping, and exactly one
// writer consumes it.
package multisample

// LoopType enumerates the playback direction of a sample loop.
type LoopType int

const (
	LoopForward LoopType = iota
	LoopAlternating
	LoopBackward
)

// Loop is one loop region in sample frames. Crossfade is in frames.
type Loop struct {
	Start     int
	End       int
	Type      LoopType
	Crossfade int
}

// AmplitudeEnvelope holds envelope times in seconds and the sustain level in
// the range [0, 1]. Negative values mean "not set" and writers substitute
// their format defaults.
type AmplitudeEnvelope struct {
	Attack  float64
	Hold    float64
	Decay   float64
	Sustain float64
	Release float64
}

// NewAmplitudeEnvelope returns an envelope with all fields unset.
func NewAmplitudeEnvelope() AmplitudeEnvelope {
	return AmplitudeEnvelope{Attack: -1, Hold: -1, Decay: -1, Sustain: -1, Release: -1}
}

// SampleZone maps a single sample (or stereo pair) onto a key and velocity
// region.
type SampleZone struct {
	Name string

	// SampleFile is the path or archive entry the audio comes from; Data
	// carries the raw file bytes when the source container embeds them.
	SampleFile string
	Data       []byte

	// RightSampleFile and RightData are set when the zone was assembled
	// from a mono left/right pair. The actual channel interleave is left
	// to the audio collaborator that renders the zone.
	RightSampleFile string
	RightData       []byte

	// Channels of the underlying audio; 0 when unknown.
	Channels   int
	SampleRate int

	// Start and Stop are play range frame offsets; Stop < 0 means "to the
	// end of the sample".
	Start int
	Stop  int

	KeyRoot int
	KeyLow  int
	KeyHigh int

	VelocityLow  int
	VelocityHigh int

	NoteCrossfadeLow      int
	NoteCrossfadeHigh     int
	VelocityCrossfadeLow  int
	VelocityCrossfadeHigh int

	// Tune in semitones (fractional), Panning in [-1, 1].
	Tune     float64
	Panning  float64
	Reversed bool
	Gain     float64

	Loops    []Loop
	Envelope AmplitudeEnvelope
}

// NewSampleZone returns a zone with full key/velocity coverage and an unset
// root key.
func NewSampleZone(name, file string) *SampleZone {
	return &SampleZone{
		Name:         name,
		SampleFile:   file,
		Stop:         -1,
		KeyRoot:      -1,
		KeyHigh:      127,
		VelocityHigh: 127,
		Envelope:     NewAmplitudeEnvelope(),
	}
}

// Group is an ordered set of zones sharing one velocity layer.
type Group struct {
	Name  string
	Zones []*SampleZone
}

// Multisample is a complete converted instrument.
type Multisample struct {
	Name        string
	Creator     string
	Category    string
	Description string
	Keywords    []string
	Groups      []*Group
}

// ZoneCount returns the total zone count across groups.
func (m *Multisample) ZoneCount() int {
	n := 0
	for _, g := range m.Groups {
		n += len(g.Zones)
	}
	return n
}
