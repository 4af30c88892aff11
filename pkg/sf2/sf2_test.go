package sf2

import (
	"bytes"
	"testing"

	"github.com/sinshu/go-meltysynth/meltysynth"

	"github.com/zurustar/sampleconv/pkg/chunk"
)

// buildTestBank assembles a two-preset bank with a global instrument zone,
// the way the converter's SF2 writer lays banks out.
func buildTestBank() *File {
	f := &File{
		BankName:    "Test Bank",
		SoundEngine: "EMU8000",
	}

	// Two 100-frame samples, each followed by 46 guard frames.
	frames := 100
	guard := 46
	f.SampleData = make([]byte, (frames+guard)*2*2)
	for i := 0; i < frames; i++ {
		v := int16(i * 50)
		f.SampleData[i*2] = byte(v)
		f.SampleData[i*2+1] = byte(v >> 8)
		off := (frames + guard + i) * 2
		f.SampleData[off] = byte(-v)
		f.SampleData[off+1] = byte(uint16(-v) >> 8)
	}

	s0 := f.AddSample(&SampleDescriptor{
		Name:          "C3",
		Start:         0,
		End:           uint32(frames),
		LoopStart:     10,
		LoopEnd:       90,
		SampleRate:    44100,
		OriginalPitch: 48,
		Type:          SampleTypeMono,
	})
	s1 := f.AddSample(&SampleDescriptor{
		Name:          "E3",
		Start:         uint32(frames + guard),
		End:           uint32(2*frames + guard),
		SampleRate:    44100,
		OriginalPitch: 52,
		Type:          SampleTypeMono,
	})

	inst := &Instrument{Name: "Test Inst", Index: 0}

	global := &InstrumentZone{}
	global.SetGlobal(true)
	global.Generators.Add(GenPan, 250)

	z0 := &InstrumentZone{Sample: s0}
	z0.Generators.AddRange(GenKeyRange, 0, 51)
	z0.Generators.Add(GenSampleModes, 1)
	z0.Generators.Add(GenSampleID, int16(s0.Index))

	z1 := &InstrumentZone{Sample: s1}
	z1.Generators.AddRange(GenKeyRange, 52, 127)
	z1.Generators.Add(GenFineTune, -12)
	z1.Generators.Add(GenSampleID, int16(s1.Index))

	inst.Zones = []*InstrumentZone{global, z0, z1}
	f.Instruments = []*Instrument{inst}

	p0 := &Preset{Name: "Test Preset", Bank: 0, Program: 0}
	pz := &PresetZone{Instrument: inst}
	pz.Generators.Add(GenInstrument, int16(inst.Index))
	p0.Zones = []*PresetZone{pz}

	p1 := &Preset{Name: "Second", Bank: 0, Program: 1}
	pz1 := &PresetZone{Instrument: inst}
	pz1.Generators.Add(GenCoarseTune, 12)
	pz1.Generators.Add(GenInstrument, int16(inst.Index))
	p1.Zones = []*PresetZone{pz1}

	f.Presets = []*Preset{p0, p1}
	return f
}

func TestWriteParseRoundTrip(t *testing.T) {
	src := buildTestBank()
	data, err := Write(src)
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	f, err := Parse(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if f.BankName != "Test Bank" {
		t.Errorf("BankName = %q", f.BankName)
	}
	if f.SoundEngine != "EMU8000" {
		t.Errorf("SoundEngine = %q", f.SoundEngine)
	}
	if len(f.Presets) != 2 || len(f.Instruments) != 1 || len(f.Samples) != 2 {
		t.Fatalf("counts = %d presets, %d instruments, %d samples",
			len(f.Presets), len(f.Instruments), len(f.Samples))
	}

	inst := f.Instruments[0]
	if inst.Name != "Test Inst" {
		t.Errorf("instrument name = %q", inst.Name)
	}
	if len(inst.Zones) != 3 {
		t.Fatalf("instrument zones = %d, want 3", len(inst.Zones))
	}
	if !inst.Zones[0].IsGlobal() {
		t.Error("first instrument zone should be global")
	}
	if inst.GlobalZone() == nil {
		t.Error("GlobalZone returned nil")
	}
	if pan, ok := inst.Zones[0].Generators.Get(GenPan); !ok || pan != 250 {
		t.Errorf("global pan = %d, %v", pan, ok)
	}

	z0 := inst.Zones[1]
	if z0.Sample == nil || z0.Sample.Name != "C3" {
		t.Fatalf("zone 0 sample = %+v", z0.Sample)
	}
	if lo, hi, ok := z0.Generators.GetRange(GenKeyRange); !ok || lo != 0 || hi != 51 {
		t.Errorf("zone 0 key range = %d..%d, %v", lo, hi, ok)
	}
	if z0.Sample.LoopStart != 10 || z0.Sample.LoopEnd != 90 {
		t.Errorf("loop = %d..%d", z0.Sample.LoopStart, z0.Sample.LoopEnd)
	}

	z1 := inst.Zones[2]
	if z1.Sample == nil || z1.Sample.Name != "E3" {
		t.Fatalf("zone 1 sample = %+v", z1.Sample)
	}
	if ft, ok := z1.Generators.Get(GenFineTune); !ok || ft != -12 {
		t.Errorf("fine tune = %d, %v", ft, ok)
	}

	p := f.Presets[0]
	if p.Name != "Test Preset" || len(p.Zones) != 1 {
		t.Fatalf("preset = %q zones=%d", p.Name, len(p.Zones))
	}
	if p.Zones[0].Instrument != inst {
		t.Error("preset zone not linked to instrument")
	}
	if p.GlobalZone() != nil {
		t.Error("preset should have no global zone")
	}
	if ct, ok := f.Presets[1].Zones[0].Generators.Get(GenCoarseTune); !ok || ct != 12 {
		t.Errorf("preset 1 coarse tune = %d, %v", ct, ok)
	}

	// Sample data survives with frame-accurate offsets.
	if got := len(z0.Sample.Data16()); got != 200 {
		t.Errorf("zone 0 sample bytes = %d, want 200", got)
	}
	if !bytes.Equal(z0.Sample.Data16(), src.Samples[0].Data16()) {
		t.Error("zone 0 sample data mismatch")
	}
}

func TestWriteParseGeneratorOrder(t *testing.T) {
	src := buildTestBank()
	data, err := Write(src)
	if err != nil {
		t.Fatal(err)
	}
	f, err := Parse(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}

	want := []GeneratorID{GenKeyRange, GenSampleModes, GenSampleID}
	got := f.Instruments[0].Zones[1].Generators.Order()
	if len(got) != len(want) {
		t.Fatalf("order = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
}

func TestGeneratorsFirstWins(t *testing.T) {
	var g Generators
	g.Add(GenPan, 10)
	g.Add(GenPan, 20)

	if v, _ := g.Get(GenPan); v != 10 {
		t.Errorf("Get = %d, want 10 (first insertion wins)", v)
	}
	if g.Len() != 1 {
		t.Errorf("Len = %d, want 1", g.Len())
	}
}

func TestGeneratorsRange(t *testing.T) {
	var g Generators
	g.AddRange(GenKeyRange, 36, 96)
	lo, hi, ok := g.GetRange(GenKeyRange)
	if !ok || lo != 36 || hi != 96 {
		t.Errorf("GetRange = %d..%d, %v", lo, hi, ok)
	}
}

// A handcrafted bank whose first preset zone carries no INSTRUMENT generator:
// that zone must come back as the preset's global zone, and the sentinel
// header must not become a third preset.
func TestParsePresetGlobalZone(t *testing.T) {
	phdr := chunk.NewWriter()
	putPresetHeader := func(name string, program, bagIndex uint16) {
		phdr.PutFixedASCII(name, 20)
		phdr.PutUint16(program)
		phdr.PutUint16(0) // bank
		phdr.PutUint16(bagIndex)
		phdr.PutUint32(0) // library
		phdr.PutUint32(0) // genre
		phdr.PutUint32(0) // morphology
	}
	putPresetHeader("Layered", 0, 0)
	putPresetHeader("Plain", 1, 2)
	putPresetHeader("EOP", 0, 3)

	pbag := chunk.NewWriter()
	for _, b := range [][2]uint16{{0, 0}, {1, 0}, {3, 0}, {5, 0}} {
		pbag.PutUint16(b[0])
		pbag.PutUint16(b[1])
	}

	pgen := chunk.NewWriter()
	for _, g := range [][2]uint16{
		{uint16(GenPan), 100}, // zone 0: no INSTRUMENT generator
		{uint16(GenKeyRange), 0x7F00},
		{uint16(GenInstrument), 0},
		{uint16(GenVelRange), 0x7F00},
		{uint16(GenInstrument), 0},
	} {
		pgen.PutUint16(g[0])
		pgen.PutUint16(g[1])
	}

	inst := chunk.NewWriter()
	inst.PutFixedASCII("Inst", 20)
	inst.PutUint16(0)
	inst.PutFixedASCII("EOI", 20)
	inst.PutUint16(1)

	ibag := chunk.NewWriter()
	for _, b := range [][2]uint16{{0, 0}, {1, 0}} {
		ibag.PutUint16(b[0])
		ibag.PutUint16(b[1])
	}

	igen := chunk.NewWriter()
	igen.PutUint16(uint16(GenSampleID))
	igen.PutUint16(0)

	shdr := chunk.NewWriter()
	shdr.PutFixedASCII("Samp", 20)
	for _, v := range []uint32{0, 4, 0, 0, 44100} {
		shdr.PutUint32(v)
	}
	shdr.PutUint8(60)
	shdr.PutUint8(0)
	shdr.PutUint16(0)
	shdr.PutUint16(uint16(SampleTypeMono))
	shdr.PutFixedASCII("EOS", 20)
	shdr.PutBytes(make([]byte, shdrRecordLen-20))

	pdta := chunk.NewWriter()
	pdta.PutRIFFChunk("phdr", phdr.Bytes())
	pdta.PutRIFFChunk("pbag", pbag.Bytes())
	pdta.PutRIFFChunk("pmod", make([]byte, modRecordLen))
	pdta.PutRIFFChunk("pgen", pgen.Bytes())
	pdta.PutRIFFChunk("inst", inst.Bytes())
	pdta.PutRIFFChunk("ibag", ibag.Bytes())
	pdta.PutRIFFChunk("imod", make([]byte, modRecordLen))
	pdta.PutRIFFChunk("igen", igen.Bytes())
	pdta.PutRIFFChunk("shdr", shdr.Bytes())

	ifil := chunk.NewWriter()
	ifil.PutUint16(2)
	ifil.PutUint16(1)
	info := chunk.NewWriter()
	info.PutRIFFChunk("ifil", ifil.Bytes())

	sdta := chunk.NewWriter()
	sdta.PutRIFFChunk("smpl", make([]byte, 8))

	body := chunk.NewWriter()
	body.PutBytes([]byte("sfbk"))
	putList(body, "INFO", info.Bytes())
	putList(body, "sdta", sdta.Bytes())
	putList(body, "pdta", pdta.Bytes())
	out := chunk.NewWriter()
	out.PutRIFFChunk("RIFF", body.Bytes())

	f, err := Parse(bytes.NewReader(out.Bytes()))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(f.Presets) != 2 {
		t.Fatalf("presets = %d, want 2", len(f.Presets))
	}

	layered := f.Presets[0]
	if len(layered.Zones) != 2 {
		t.Fatalf("preset 0 zones = %d, want 2", len(layered.Zones))
	}
	if !layered.Zones[0].IsGlobal() {
		t.Error("preset 0 zone 0 must be global")
	}
	if layered.GlobalZone() != layered.Zones[0] {
		t.Error("GlobalZone() != first zone")
	}
	if v, ok := layered.Zones[0].Generators.Get(GenPan); !ok || v != 100 {
		t.Errorf("global zone pan = %d, %v", v, ok)
	}
	if layered.Zones[1].IsGlobal() || layered.Zones[1].Instrument == nil {
		t.Error("preset 0 zone 1 must reference the instrument")
	}

	plain := f.Presets[1]
	if len(plain.Zones) != 1 {
		t.Fatalf("preset 1 zones = %d, want 1", len(plain.Zones))
	}
	if plain.Zones[0].IsGlobal() {
		t.Error("preset 1 zone 0 must not be global")
	}
}

func TestParseTruncated(t *testing.T) {
	src := buildTestBank()
	data, err := Write(src)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Parse(bytes.NewReader(data[:len(data)/2])); err == nil {
		t.Error("expected error for truncated bank")
	}
	if _, err := Parse(bytes.NewReader([]byte("not a soundfont"))); err == nil {
		t.Error("expected error for garbage input")
	}
}

// The emitted bank must load in an independent SoundFont implementation.
func TestWriteCrossValidation(t *testing.T) {
	data, err := Write(buildTestBank())
	if err != nil {
		t.Fatal(err)
	}

	sf, err := meltysynth.NewSoundFont(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("meltysynth rejected the bank: %v", err)
	}
	if sf == nil {
		t.Fatal("meltysynth returned nil soundfont")
	}
}
