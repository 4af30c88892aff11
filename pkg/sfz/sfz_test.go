package sfz

import (
	"bytes"
	"strings"
	"testing"

	"github.com/zurustar/sampleconv/pkg/multisample"
)

func TestParseInheritance(t *testing.T) {
	const doc = `
// comment line
<global>
ampeg_release=0.5
<group>
lovel=0 hivel=63
<region> sample=Samples\Piano C3.wav
pitch_keycenter=48 lokey=0 hikey=51
<region> sample=Piano_E3.wav
pitch_keycenter=52 lokey=52 hikey=127 ampeg_release=1.25 // trailing comment
<group>
lovel=64
<region> sample=Piano_C3_f.wav
key=48
`
	m, err := Parse(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(m.Groups) != 2 {
		t.Fatalf("groups = %d, want 2", len(m.Groups))
	}
	soft := m.Groups[0].Zones
	if len(soft) != 2 {
		t.Fatalf("group 1 zones = %d, want 2", len(soft))
	}

	// Backslash sample paths normalize to slashes, spaces included.
	if soft[0].SampleFile != "Samples/Piano C3.wav" {
		t.Errorf("sample = %q", soft[0].SampleFile)
	}
	if soft[0].Name != "Piano C3" {
		t.Errorf("name = %q", soft[0].Name)
	}
	if soft[0].KeyRoot != 48 || soft[0].KeyLow != 0 || soft[0].KeyHigh != 51 {
		t.Errorf("zone 0 = root %d range %d..%d", soft[0].KeyRoot, soft[0].KeyLow, soft[0].KeyHigh)
	}

	// Group opcodes apply to every region under the group.
	if soft[0].VelocityLow != 0 || soft[0].VelocityHigh != 63 {
		t.Errorf("zone 0 velocity = %d..%d", soft[0].VelocityLow, soft[0].VelocityHigh)
	}

	// Global opcodes reach regions, region values override them.
	if soft[0].Envelope.Release != 0.5 {
		t.Errorf("zone 0 release = %v", soft[0].Envelope.Release)
	}
	if soft[1].Envelope.Release != 1.25 {
		t.Errorf("zone 1 release = %v", soft[1].Envelope.Release)
	}

	// key sets root and both bounds at once.
	loud := m.Groups[1].Zones[0]
	if loud.KeyRoot != 48 || loud.KeyLow != 48 || loud.KeyHigh != 48 {
		t.Errorf("key zone = root %d range %d..%d", loud.KeyRoot, loud.KeyLow, loud.KeyHigh)
	}
	if loud.VelocityLow != 64 || loud.VelocityHigh != 127 {
		t.Errorf("key zone velocity = %d..%d", loud.VelocityLow, loud.VelocityHigh)
	}
}

func TestParseHeadersShareLineWithOpcodes(t *testing.T) {
	// Headers rarely stand alone in the wild; opcodes follow on the same
	// line and headers may even share one line.
	const doc = `
<group> lovel=64 <region> sample=a.wav lokey=10 hikey=20
<region> sample=b.wav
`
	m, err := Parse(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(m.Groups) != 1 || len(m.Groups[0].Zones) != 2 {
		t.Fatalf("shape = %d groups, %d zones", len(m.Groups), m.ZoneCount())
	}
	z := m.Groups[0].Zones[0]
	if z.KeyLow != 10 || z.KeyHigh != 20 {
		t.Errorf("zone 0 range = %d..%d", z.KeyLow, z.KeyHigh)
	}
	// lovel lands on the group even though <region> follows on the line.
	if z.VelocityLow != 64 || m.Groups[0].Zones[1].VelocityLow != 64 {
		t.Errorf("group lovel not inherited: %d, %d",
			z.VelocityLow, m.Groups[0].Zones[1].VelocityLow)
	}
}

func TestParseImplicitGroup(t *testing.T) {
	m, err := Parse(strings.NewReader("<region> sample=a.wav\n"))
	if err != nil {
		t.Fatal(err)
	}
	if len(m.Groups) != 1 || m.Groups[0].Name != "Group 1" {
		t.Fatalf("groups = %+v", m.Groups)
	}
}

func TestParseLoopModes(t *testing.T) {
	const doc = `
<region> sample=a.wav
loop_mode=loop_continuous loop_start=100 loop_end=900 loop_crossfade=32
<region> sample=b.wav
loop_mode=no_loop loop_start=5 loop_end=10
<region> sample=c.wav
loop_mode=one_shot
`
	m, err := Parse(strings.NewReader(doc))
	if err != nil {
		t.Fatal(err)
	}
	if len(m.Groups) != 1 || len(m.Groups[0].Zones) != 3 {
		t.Fatalf("shape = %d groups, %d zones", len(m.Groups), m.ZoneCount())
	}
	zones := m.Groups[0].Zones
	if len(zones[0].Loops) != 1 {
		t.Fatalf("loops = %d, want 1", len(zones[0].Loops))
	}
	loop := zones[0].Loops[0]
	if loop.Start != 100 || loop.End != 900 || loop.Crossfade != 32 {
		t.Errorf("loop = %+v", loop)
	}
	if len(zones[1].Loops) != 0 || len(zones[2].Loops) != 0 {
		t.Error("no_loop and one_shot must not produce loops")
	}
}

func TestParseScaledValues(t *testing.T) {
	const doc = `
<region> sample=a.wav
tune=50 pan=-25 volume=-6.5 direction=reverse
ampeg_sustain=75
`
	m, err := Parse(strings.NewReader(doc))
	if err != nil {
		t.Fatal(err)
	}
	z := m.Groups[0].Zones[0]
	if z.Tune != 0.5 {
		t.Errorf("tune = %v, want 0.5 semitones", z.Tune)
	}
	if z.Panning != -0.25 {
		t.Errorf("pan = %v, want -0.25", z.Panning)
	}
	if z.Gain != -6.5 {
		t.Errorf("volume = %v", z.Gain)
	}
	if !z.Reversed {
		t.Error("direction=reverse not applied")
	}
	if z.Envelope.Sustain != 0.75 {
		t.Errorf("sustain = %v, want 0.75", z.Envelope.Sustain)
	}
	// Opcodes that never appeared stay unset.
	if z.Envelope.Attack != -1 {
		t.Errorf("attack = %v, want -1 (unset)", z.Envelope.Attack)
	}
}

func TestParseMalformedValue(t *testing.T) {
	_, err := Parse(strings.NewReader("<region> sample=a.wav\nlokey=abc\n"))
	if err == nil || !strings.Contains(err.Error(), `lokey="abc"`) {
		t.Errorf("err = %v, want opcode-naming error", err)
	}
	// Errors carry the line of the region the opcode belongs to.
	if err == nil || !strings.Contains(err.Error(), "line 1") {
		t.Errorf("err = %v, want region line number", err)
	}
}

func TestWriteParseRoundTrip(t *testing.T) {
	z := multisample.NewSampleZone("Piano_C3", "Samples/Piano_C3.wav")
	z.KeyRoot = 48
	z.KeyLow = 0
	z.KeyHigh = 51
	z.VelocityLow = 10
	z.VelocityHigh = 100
	z.Start = 16
	z.Stop = 5000
	z.Tune = 0.5
	z.Panning = 0.25
	z.Gain = -3
	z.Reversed = true
	z.Loops = []multisample.Loop{{Start: 100, End: 4000, Crossfade: 8}}
	z.NoteCrossfadeLow = 2
	z.NoteCrossfadeHigh = 3
	z.VelocityCrossfadeLow = 4
	z.VelocityCrossfadeHigh = 5
	z.Envelope = multisample.AmplitudeEnvelope{
		Attack: 0.01, Hold: 0.05, Decay: 0.2, Sustain: 0.8, Release: 1.5,
	}

	plain := multisample.NewSampleZone("Piano_E3", "Piano_E3.wav")
	plain.KeyRoot = 52
	plain.KeyLow = 52

	src := &multisample.Multisample{
		Name:    "Piano",
		Creator: "someone",
		Groups: []*multisample.Group{
			{Name: "Group 1", Zones: []*multisample.SampleZone{z, plain}},
		},
	}

	var buf bytes.Buffer
	if err := Write(&buf, src); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	got, err := Parse(&buf)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(got.Groups) != 1 || len(got.Groups[0].Zones) != 2 {
		t.Fatalf("shape = %d groups, %d zones", len(got.Groups), got.ZoneCount())
	}

	g := got.Groups[0].Zones[0]
	if g.SampleFile != z.SampleFile || g.Name != "Piano_C3" {
		t.Errorf("sample = %q name = %q", g.SampleFile, g.Name)
	}
	if g.KeyRoot != 48 || g.KeyLow != 0 || g.KeyHigh != 51 {
		t.Errorf("key = root %d range %d..%d", g.KeyRoot, g.KeyLow, g.KeyHigh)
	}
	if g.VelocityLow != 10 || g.VelocityHigh != 100 {
		t.Errorf("velocity = %d..%d", g.VelocityLow, g.VelocityHigh)
	}
	if g.Start != 16 || g.Stop != 5000 {
		t.Errorf("play range = %d..%d", g.Start, g.Stop)
	}
	if g.Tune != 0.5 || g.Panning != 0.25 || g.Gain != -3 {
		t.Errorf("tune=%v pan=%v gain=%v", g.Tune, g.Panning, g.Gain)
	}
	if !g.Reversed {
		t.Error("Reversed lost")
	}
	if len(g.Loops) != 1 || g.Loops[0] != z.Loops[0] {
		t.Errorf("loops = %+v", g.Loops)
	}
	if g.NoteCrossfadeLow != 2 || g.NoteCrossfadeHigh != 3 ||
		g.VelocityCrossfadeLow != 4 || g.VelocityCrossfadeHigh != 5 {
		t.Errorf("crossfades = %d/%d %d/%d",
			g.NoteCrossfadeLow, g.NoteCrossfadeHigh,
			g.VelocityCrossfadeLow, g.VelocityCrossfadeHigh)
	}
	if g.Envelope != z.Envelope {
		t.Errorf("envelope = %+v, want %+v", g.Envelope, z.Envelope)
	}

	// The minimal zone keeps its defaults across the trip.
	p := got.Groups[0].Zones[1]
	if p.KeyRoot != 52 || p.KeyLow != 52 || p.KeyHigh != 127 {
		t.Errorf("plain key = root %d range %d..%d", p.KeyRoot, p.KeyLow, p.KeyHigh)
	}
	if p.VelocityLow != 0 || p.VelocityHigh != 127 {
		t.Errorf("plain velocity = %d..%d", p.VelocityLow, p.VelocityHigh)
	}
	if p.Envelope != multisample.NewAmplitudeEnvelope() {
		t.Errorf("plain envelope = %+v", p.Envelope)
	}
}

func TestWriteEmitsBackslashPaths(t *testing.T) {
	z := multisample.NewSampleZone("kick", "Samples/kick.wav")
	m := &multisample.Multisample{
		Groups: []*multisample.Group{{Name: "Group 1", Zones: []*multisample.SampleZone{z}}},
	}

	var buf bytes.Buffer
	if err := Write(&buf, m); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), `sample=Samples\kick.wav`) {
		t.Errorf("output:\n%s", buf.String())
	}
}

func TestSortZones(t *testing.T) {
	a := multisample.NewSampleZone("a", "a.wav")
	a.KeyRoot = 60
	b := multisample.NewSampleZone("b", "b.wav")
	b.KeyRoot = 48
	c := multisample.NewSampleZone("c", "c.wav")
	c.KeyRoot = 60
	c.VelocityLow = 0
	a.VelocityLow = 64

	m := &multisample.Multisample{
		Groups: []*multisample.Group{{Zones: []*multisample.SampleZone{a, b, c}}},
	}
	SortZones(m)

	zones := m.Groups[0].Zones
	if zones[0] != b || zones[1] != c || zones[2] != a {
		t.Errorf("order = %s, %s, %s", zones[0].Name, zones[1].Name, zones[2].Name)
	}
}
