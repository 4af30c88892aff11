package keymap

import (
	"errors"
	"testing"

	"github.com/zurustar/sampleconv/pkg/multisample"
)

func monoZone(file string) *multisample.SampleZone {
	z := multisample.NewSampleZone(file, file)
	z.Channels = 1
	return z
}

func TestMapSamplesNoteNames(t *testing.T) {
	zones := []*multisample.SampleZone{
		monoZone("Piano_C3.wav"),
		monoZone("Piano_D3.wav"),
		monoZone("Piano_E3.wav"),
	}

	groups, err := MapSamples(zones, Config{Ascending: true})
	if err != nil {
		t.Fatalf("MapSamples failed: %v", err)
	}
	if len(groups) != 1 {
		t.Fatalf("groups = %d, want 1", len(groups))
	}

	got := groups[0].Zones
	if len(got) != 3 {
		t.Fatalf("zones = %d, want 3", len(got))
	}

	want := []struct{ root, low, high int }{
		{48, 0, 49},
		{50, 50, 51},
		{52, 52, 127},
	}
	for i, w := range want {
		z := got[i]
		if z.KeyRoot != w.root || z.KeyLow != w.low || z.KeyHigh != w.high {
			t.Errorf("zone %d = root %d range %d..%d, want root %d range %d..%d",
				i, z.KeyRoot, z.KeyLow, z.KeyHigh, w.root, w.low, w.high)
		}
		if z.VelocityLow != 0 || z.VelocityHigh != 127 {
			t.Errorf("zone %d velocity = %d..%d, want full range", i, z.VelocityLow, z.VelocityHigh)
		}
	}
}

func TestMapSamplesEmbeddedNotesWin(t *testing.T) {
	// Filenames suggest C3/D3, but embedded roots say otherwise.
	a := monoZone("Piano_C3.wav")
	a.KeyRoot = 60
	b := monoZone("Piano_D3.wav")
	b.KeyRoot = 64

	groups, err := MapSamples([]*multisample.SampleZone{a, b}, Config{Ascending: true})
	if err != nil {
		t.Fatal(err)
	}
	zones := groups[0].Zones
	if zones[0].KeyRoot != 60 || zones[1].KeyRoot != 64 {
		t.Errorf("roots = %d, %d, want 60, 64", zones[0].KeyRoot, zones[1].KeyRoot)
	}
}

func TestMapSamplesIdenticalEmbeddedNotesFallBack(t *testing.T) {
	// Three samples all claiming root 60 is meaningless metadata; the
	// filenames must take over.
	zones := []*multisample.SampleZone{
		monoZone("Bass_C2.wav"),
		monoZone("Bass_G2.wav"),
		monoZone("Bass_C3.wav"),
	}
	for _, z := range zones {
		z.KeyRoot = 60
	}

	groups, err := MapSamples(zones, Config{Ascending: true})
	if err != nil {
		t.Fatal(err)
	}
	got := groups[0].Zones
	if got[0].KeyRoot != 36 || got[1].KeyRoot != 43 || got[2].KeyRoot != 48 {
		t.Errorf("roots = %d, %d, %d, want 36, 43, 48",
			got[0].KeyRoot, got[1].KeyRoot, got[2].KeyRoot)
	}
}

func TestMapSamplesStereoPair(t *testing.T) {
	// A pair with identical embedded roots must survive as a stereo zone,
	// not fall into the meaningless-metadata rejection.
	l := monoZone("Pad_L.wav")
	l.KeyRoot = 60
	l.Data = []byte{1}
	r := monoZone("Pad_R.wav")
	r.KeyRoot = 60
	r.Data = []byte{2}

	groups, err := MapSamples([]*multisample.SampleZone{l, r}, Config{
		Ascending:           true,
		LeftChannelPatterns: []string{"_L"},
	})
	if err != nil {
		t.Fatalf("MapSamples failed: %v", err)
	}

	zones := groups[0].Zones
	if len(zones) != 1 {
		t.Fatalf("zones = %d, want 1 combined stereo zone", len(zones))
	}
	z := zones[0]
	if z.Name != "Pad" {
		t.Errorf("name = %q, want Pad", z.Name)
	}
	if z.Channels != 2 {
		t.Errorf("channels = %d, want 2", z.Channels)
	}
	if z.SampleFile != "Pad_L.wav" || z.RightSampleFile != "Pad_R.wav" {
		t.Errorf("pair = %q + %q", z.SampleFile, z.RightSampleFile)
	}
	if z.KeyLow != 0 || z.KeyHigh != 127 {
		t.Errorf("range = %d..%d", z.KeyLow, z.KeyHigh)
	}
}

func TestMapSamplesStereoPairErrors(t *testing.T) {
	t.Run("左チャンネルが見つからない", func(t *testing.T) {
		a := monoZone("Pad_X.wav")
		a.KeyRoot = 60
		b := monoZone("Pad_Y.wav")
		b.KeyRoot = 60

		_, err := MapSamples([]*multisample.SampleZone{a, b}, Config{
			LeftChannelPatterns: []string{"_L"},
		})
		var ce *CombinationError
		if !errors.As(err, &ce) || ce.Key != "IDS_KEYMAP_LEFT_CHANNEL_NOT_FOUND" {
			t.Errorf("err = %v", err)
		}
	})

	t.Run("モノラルでないサンプル", func(t *testing.T) {
		a := monoZone("Pad_L.wav")
		a.KeyRoot = 60
		b := monoZone("Pad_R.wav")
		b.KeyRoot = 60
		b.Channels = 2

		_, err := MapSamples([]*multisample.SampleZone{a, b}, Config{
			LeftChannelPatterns: []string{"_L"},
		})
		var me *MultisampleError
		if !errors.As(err, &me) || me.Key != "IDS_KEYMAP_NOT_MONO" {
			t.Errorf("err = %v", err)
		}
	})
}

func TestMapSamplesVelocityGroups(t *testing.T) {
	zones := []*multisample.SampleZone{
		monoZone("Velo1_C3.wav"),
		monoZone("Velo1_E3.wav"),
		monoZone("Velo2_C3.wav"),
		monoZone("Velo2_E3.wav"),
	}

	groups, err := MapSamples(zones, Config{
		Ascending:           true,
		GroupPatterns:       []string{"Velo*"},
		CrossfadeVelocities: 10,
	})
	if err != nil {
		t.Fatalf("MapSamples failed: %v", err)
	}
	if len(groups) != 2 {
		t.Fatalf("groups = %d, want 2", len(groups))
	}
	if groups[0].Name != "Group 1" || groups[1].Name != "Group 2" {
		t.Errorf("names = %q, %q", groups[0].Name, groups[1].Name)
	}

	// Two layers split 127 at 63; the lower layer fades into the upper,
	// the top layer reaches 127 with no fade above it.
	for _, z := range groups[0].Zones {
		if z.VelocityLow != 0 || z.VelocityHigh != 72 {
			t.Errorf("group 1 velocity = %d..%d, want 0..72", z.VelocityLow, z.VelocityHigh)
		}
		if z.VelocityCrossfadeHigh != 10 || z.VelocityCrossfadeLow != 0 {
			t.Errorf("group 1 fades = %d/%d", z.VelocityCrossfadeLow, z.VelocityCrossfadeHigh)
		}
	}
	for _, z := range groups[1].Zones {
		if z.VelocityLow != 63 || z.VelocityHigh != 127 {
			t.Errorf("group 2 velocity = %d..%d, want 63..127", z.VelocityLow, z.VelocityHigh)
		}
		if z.VelocityCrossfadeHigh != 0 || z.VelocityCrossfadeLow != 10 {
			t.Errorf("group 2 fades = %d/%d", z.VelocityCrossfadeLow, z.VelocityCrossfadeHigh)
		}
	}
}

func TestMapSamplesDescendingGroups(t *testing.T) {
	zones := []*multisample.SampleZone{
		monoZone("Velo1_C3.wav"),
		monoZone("Velo2_C3.wav"),
	}

	groups, err := MapSamples(zones, Config{GroupPatterns: []string{"Velo*"}})
	if err != nil {
		t.Fatal(err)
	}
	// Descending order puts the highest group value into the lowest layer.
	if groups[0].Zones[0].SampleFile != "Velo2_C3.wav" {
		t.Errorf("group 1 sample = %q, want Velo2_C3.wav", groups[0].Zones[0].SampleFile)
	}
}

func TestMapSamplesPatternMismatch(t *testing.T) {
	zones := []*multisample.SampleZone{
		monoZone("Velo1_C3.wav"),
		monoZone("Stray_C3.wav"), // first file matched, so all must match
	}

	_, err := MapSamples(zones, Config{GroupPatterns: []string{"Velo*"}})
	var me *MultisampleError
	if !errors.As(err, &me) || me.Key != "IDS_KEYMAP_NO_PATTERN_MATCH" {
		t.Errorf("err = %v", err)
	}
}

func TestMapSamplesNoteCrossfade(t *testing.T) {
	zones := []*multisample.SampleZone{
		monoZone("Piano_C3.wav"), // 48
		monoZone("Piano_E3.wav"), // 52
	}

	groups, err := MapSamples(zones, Config{Ascending: true, CrossfadeNotes: 2})
	if err != nil {
		t.Fatal(err)
	}
	got := groups[0].Zones
	// Base split is 0..50 / 51..127; a fade of 2 widens both sides by one.
	if got[0].KeyHigh != 51 || got[0].NoteCrossfadeHigh != 1 {
		t.Errorf("low zone high = %d fade = %d", got[0].KeyHigh, got[0].NoteCrossfadeHigh)
	}
	if got[1].KeyLow != 50 || got[1].NoteCrossfadeLow != 1 {
		t.Errorf("high zone low = %d fade = %d", got[1].KeyLow, got[1].NoteCrossfadeLow)
	}
}

func TestMapSamplesNoKeyMap(t *testing.T) {
	zones := []*multisample.SampleZone{
		monoZone("aaaa.wav"),
		monoZone("bbbb.wav"),
	}

	_, err := MapSamples(zones, Config{})
	var me *MultisampleError
	if !errors.As(err, &me) || me.Key != "IDS_KEYMAP_NO_KEY_MAP" {
		t.Errorf("err = %v", err)
	}
}

func TestMapSamplesNumericNotes(t *testing.T) {
	zones := []*multisample.SampleZone{
		monoZone("sample-048.wav"),
		monoZone("sample-060.wav"),
		monoZone("sample-072.wav"),
	}

	groups, err := MapSamples(zones, Config{Ascending: true})
	if err != nil {
		t.Fatal(err)
	}
	got := groups[0].Zones
	if got[0].KeyRoot != 48 || got[1].KeyRoot != 60 || got[2].KeyRoot != 72 {
		t.Errorf("roots = %d, %d, %d", got[0].KeyRoot, got[1].KeyRoot, got[2].KeyRoot)
	}
}

func TestNoteMapTokens(t *testing.T) {
	tests := []struct {
		name string
		want int
	}{
		{"Piano_C3", 48},
		{"Piano_C-1", 0},    // lowest octave
		{"Piano_C_3", 48},   // underscore-joined octave
		{"Strings_F#4", 66}, // sharp spelling
		{"Lead_A#3", 58},
		{"Horn_H2", 47},   // German B natural
		{"Horn_Ais2", 46}, // German A sharp
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			z := monoZone(tt.name + ".wav")
			groups, err := MapSamples([]*multisample.SampleZone{z}, Config{})
			if err != nil {
				t.Fatalf("MapSamples failed: %v", err)
			}
			if got := groups[0].Zones[0].KeyRoot; got != tt.want {
				t.Errorf("root = %d, want %d", got, tt.want)
			}
		})
	}
}
