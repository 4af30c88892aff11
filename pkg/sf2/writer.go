package sf2

import (
	"github.com/zurustar/sampleconv/pkg/chunk"
)

// Sentinel record names. The flat tables always carry one trailing record
// whose only purpose is bounding the last real entry.
const (
	sentinelPreset     = "EOP"
	sentinelInstrument = "EOI"
	sentinelSample     = "EOS"
)

// Write serializes the bank. Generator ordering is emitted exactly as
// inserted, never sorted, and all sentinel/terminal records required by the
// format are appended. parse(Write(f)) reproduces f's zone structure.
func Write(f *File) ([]byte, error) {
	info, err := buildInfo(f)
	if err != nil {
		return nil, err
	}
	sdta := buildSdta(f)
	pdta := buildPdta(f)

	payload := chunk.NewWriter()
	payload.PutBytes([]byte("sfbk"))
	putList(payload, "INFO", info)
	putList(payload, "sdta", sdta)
	putList(payload, "pdta", pdta)

	out := chunk.NewWriter()
	out.PutRIFFChunk("RIFF", payload.Bytes())
	return out.Bytes(), nil
}

func putList(w *chunk.Writer, form string, content []byte) {
	body := make([]byte, 0, len(content)+4)
	body = append(body, form...)
	body = append(body, content...)
	w.PutRIFFChunk("LIST", body)
}

func buildInfo(f *File) ([]byte, error) {
	w := chunk.NewWriter()

	major, minor := f.VersionMajor, f.VersionMinor
	if major == 0 {
		major, minor = 2, 1
	}
	ver := chunk.NewWriter()
	ver.PutUint16(major)
	ver.PutUint16(minor)
	w.PutRIFFChunk("ifil", ver.Bytes())

	engine := f.SoundEngine
	if engine == "" {
		engine = "EMU8000"
	}
	w.PutRIFFChunk("isng", zeroTerminated(engine))
	w.PutRIFFChunk("INAM", zeroTerminated(f.BankName))

	if f.ROMName != "" {
		w.PutRIFFChunk("irom", zeroTerminated(f.ROMName))
	}
	if f.ROMVersionMajor != 0 || f.ROMVersionMinor != 0 {
		rv := chunk.NewWriter()
		rv.PutUint16(f.ROMVersionMajor)
		rv.PutUint16(f.ROMVersionMinor)
		w.PutRIFFChunk("iver", rv.Bytes())
	}
	for _, opt := range []struct {
		id    string
		value string
	}{
		{"ICRD", f.CreationDate},
		{"IENG", f.Engineers},
		{"IPRD", f.Product},
		{"ICOP", f.Copyright},
		{"ICMT", f.Comment},
		{"ISFT", f.Software},
	} {
		if opt.value != "" {
			w.PutRIFFChunk(opt.id, zeroTerminated(opt.value))
		}
	}
	return w.Bytes(), nil
}

// zeroTerminated renders an INFO text field: the string plus a terminator,
// padded to an even length so the chunk needs no RIFF pad byte.
func zeroTerminated(s string) []byte {
	b := append([]byte(s), 0)
	if len(b)%2 == 1 {
		b = append(b, 0)
	}
	return b
}

func buildSdta(f *File) []byte {
	w := chunk.NewWriter()
	w.PutRIFFChunk("smpl", f.SampleData)
	if len(f.SampleData24) > 0 {
		w.PutRIFFChunk("sm24", f.SampleData24)
	}
	return w.Bytes()
}

func buildPdta(f *File) []byte {
	phdr := chunk.NewWriter()
	pbag := chunk.NewWriter()
	pmod := chunk.NewWriter()
	pgen := chunk.NewWriter()

	bagIndex, genIndex, modIndex := 0, 0, 0
	for _, preset := range f.Presets {
		phdr.PutFixedASCII(preset.Name, 20)
		phdr.PutUint16(preset.Program)
		phdr.PutUint16(preset.Bank)
		phdr.PutUint16(uint16(bagIndex))
		phdr.PutUint32(preset.Library)
		phdr.PutUint32(preset.Genre)
		phdr.PutUint32(preset.Morphology)
		for _, zone := range preset.Zones {
			pbag.PutUint16(uint16(genIndex))
			pbag.PutUint16(uint16(modIndex))
			genIndex += writeGenerators(pgen, &zone.Zone)
			modIndex += writeModulators(pmod, &zone.Zone)
			bagIndex++
		}
	}
	// Sentinel preset header plus the terminal bag/gen/mod records it
	// points at.
	phdr.PutFixedASCII(sentinelPreset, 20)
	phdr.PutUint16(0)
	phdr.PutUint16(0)
	phdr.PutUint16(uint16(bagIndex))
	phdr.PutUint32(0)
	phdr.PutUint32(0)
	phdr.PutUint32(0)
	pbag.PutUint16(uint16(genIndex))
	pbag.PutUint16(uint16(modIndex))
	putTerminalMod(pmod)
	pgen.PutUint16(0)
	pgen.PutUint16(0)

	inst := chunk.NewWriter()
	ibag := chunk.NewWriter()
	imod := chunk.NewWriter()
	igen := chunk.NewWriter()

	bagIndex, genIndex, modIndex = 0, 0, 0
	for _, instrument := range f.Instruments {
		inst.PutFixedASCII(instrument.Name, 20)
		inst.PutUint16(uint16(bagIndex))
		for _, zone := range instrument.Zones {
			ibag.PutUint16(uint16(genIndex))
			ibag.PutUint16(uint16(modIndex))
			genIndex += writeGenerators(igen, &zone.Zone)
			modIndex += writeModulators(imod, &zone.Zone)
			bagIndex++
		}
	}
	inst.PutFixedASCII(sentinelInstrument, 20)
	inst.PutUint16(uint16(bagIndex))
	ibag.PutUint16(uint16(genIndex))
	ibag.PutUint16(uint16(modIndex))
	putTerminalMod(imod)
	igen.PutUint16(0)
	igen.PutUint16(0)

	shdr := chunk.NewWriter()
	for _, s := range f.Samples {
		shdr.PutFixedASCII(s.Name, 20)
		shdr.PutUint32(s.Start)
		shdr.PutUint32(s.End)
		shdr.PutUint32(s.LoopStart)
		shdr.PutUint32(s.LoopEnd)
		shdr.PutUint32(s.SampleRate)
		shdr.PutUint8(s.OriginalPitch)
		shdr.PutUint8(uint8(s.PitchCorrection))
		shdr.PutUint16(s.LinkedSample)
		shdr.PutUint16(uint16(s.Type))
	}
	shdr.PutFixedASCII(sentinelSample, 20)
	for i := 0; i < 5; i++ {
		shdr.PutUint32(0)
	}
	shdr.PutUint8(0)
	shdr.PutUint8(0)
	shdr.PutUint16(0)
	shdr.PutUint16(0)

	w := chunk.NewWriter()
	w.PutRIFFChunk("phdr", phdr.Bytes())
	w.PutRIFFChunk("pbag", pbag.Bytes())
	w.PutRIFFChunk("pmod", pmod.Bytes())
	w.PutRIFFChunk("pgen", pgen.Bytes())
	w.PutRIFFChunk("inst", inst.Bytes())
	w.PutRIFFChunk("ibag", ibag.Bytes())
	w.PutRIFFChunk("imod", imod.Bytes())
	w.PutRIFFChunk("igen", igen.Bytes())
	w.PutRIFFChunk("shdr", shdr.Bytes())
	return w.Bytes()
}

func writeGenerators(w *chunk.Writer, zone *Zone) int {
	for _, id := range zone.Generators.Order() {
		value, _ := zone.Generators.Get(id)
		w.PutUint16(uint16(id))
		w.PutUint16(uint16(value))
	}
	return zone.Generators.Len()
}

func writeModulators(w *chunk.Writer, zone *Zone) int {
	for _, m := range zone.Modulators {
		w.PutUint16(m.SourceOperator)
		w.PutUint16(m.DestinationGenerator)
		w.PutInt16(m.Amount)
		w.PutUint16(m.AmountSourceOperator)
		w.PutUint16(m.TransformOperator)
	}
	return len(zone.Modulators)
}

func putTerminalMod(w *chunk.Writer) {
	for i := 0; i < 5; i++ {
		w.PutUint16(0)
	}
}
