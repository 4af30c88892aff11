package sf2

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/go-audio/riff"

	"github.com/zurustar/sampleconv/pkg/chunk"
)

var (
	riffListID = [4]byte{'L', 'I', 'S', 'T'}
	sfbkFormat = [4]byte{'s', 'f', 'b', 'k'}
)

// Fixed record lengths of the flat pdta tables.
const (
	phdrRecordLen = 38
	bagRecordLen  = 4
	modRecordLen  = 10
	genRecordLen  = 4
	instRecordLen = 22
	shdrRecordLen = 46
)

// Parse reads a complete SoundFont 2 bank. Structural damage (bad record
// lengths, dangling indices, missing terminal generators) surfaces as a
// *chunk.ParseError; missing optional INFO metadata is defaulted instead,
// since real-world files routinely omit it.
func Parse(r io.Reader) (*File, error) {
	p := riff.New(r)
	if err := p.ParseHeaders(); err != nil {
		return nil, fmt.Errorf("reading RIFF header: %w", err)
	}
	if p.Format != sfbkFormat {
		return nil, chunk.NewParseError("IDS_SF2_UNSUPPORTED_RIFF_FORMAT", 0, string(p.Format[:]))
	}

	ctx := newParserContext()
	for {
		ch, err := p.NextChunk()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading RIFF chunk: %w", err)
		}
		if ch.ID != riffListID {
			ch.Drain()
			continue
		}
		body := make([]byte, ch.Size)
		if _, err := io.ReadFull(ch, body); err != nil {
			return nil, fmt.Errorf("reading LIST chunk: %w", err)
		}
		if len(body) < 4 {
			return nil, chunk.NewParseError("IDS_ERR_STREAM_TRUNCATED", 0, 4-len(body))
		}
		form, content := string(body[:4]), body[4:]
		switch form {
		case "INFO":
			if err := ctx.parseInfo(content); err != nil {
				return nil, err
			}
		case "sdta":
			if err := ctx.parseSdta(content); err != nil {
				return nil, err
			}
		case "pdta":
			if err := ctx.parsePdta(content); err != nil {
				return nil, err
			}
		default:
			slog.Debug("skipping unknown LIST form", "form", form)
		}
	}
	if err := ctx.assemble(); err != nil {
		return nil, err
	}
	return ctx.file, nil
}

type presetHeaderRec struct {
	name       string
	program    uint16
	bank       uint16
	bagIndex   int
	library    uint32
	genre      uint32
	morphology uint32
}

type instHeaderRec struct {
	name     string
	bagIndex int
}

type bagRec struct {
	genIndex int
	modIndex int
}

type genRec struct {
	id  GeneratorID
	raw uint16
}

// parserContext carries the in-progress flat tables through the chunk walk;
// assemble() turns them into the zone hierarchy once every pdta table is in.
type parserContext struct {
	file *File

	presetHeaders []presetHeaderRec
	presetBags    []bagRec
	presetMods    []Modulator
	presetGens    []genRec
	instHeaders   []instHeaderRec
	instBags      []bagRec
	instMods      []Modulator
	instGens      []genRec
}

func newParserContext() *parserContext {
	return &parserContext{
		file: &File{SoundEngine: "EMU8000"},
	}
}

func (c *parserContext) parseInfo(content []byte) error {
	r := chunk.NewReader(content)
	for r.Available() > 0 {
		ch, err := chunk.ReadRIFFChunk(r)
		if err != nil {
			return err
		}
		cr := chunk.NewReader(ch.Data)
		switch ch.ID {
		case "ifil":
			if c.file.VersionMajor, err = cr.Uint16(); err != nil {
				return err
			}
			if c.file.VersionMinor, err = cr.Uint16(); err != nil {
				return err
			}
		case "iver":
			if c.file.ROMVersionMajor, err = cr.Uint16(); err != nil {
				return err
			}
			if c.file.ROMVersionMinor, err = cr.Uint16(); err != nil {
				return err
			}
		case "isng":
			c.file.SoundEngine, err = cr.FixedASCII(len(ch.Data))
		case "INAM":
			c.file.BankName, err = cr.FixedASCII(len(ch.Data))
		case "irom":
			c.file.ROMName, err = cr.FixedASCII(len(ch.Data))
		case "ICRD":
			c.file.CreationDate, err = cr.FixedASCII(len(ch.Data))
		case "IENG":
			c.file.Engineers, err = cr.FixedASCII(len(ch.Data))
		case "IPRD":
			c.file.Product, err = cr.FixedASCII(len(ch.Data))
		case "ICOP":
			c.file.Copyright, err = cr.FixedASCII(len(ch.Data))
		case "ICMT":
			c.file.Comment, err = cr.FixedASCII(len(ch.Data))
		case "ISFT":
			c.file.Software, err = cr.FixedASCII(len(ch.Data))
		default:
			slog.Debug("skipping unknown INFO sub-chunk", "id", ch.ID)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (c *parserContext) parseSdta(content []byte) error {
	r := chunk.NewReader(content)
	for r.Available() > 0 {
		ch, err := chunk.ReadRIFFChunk(r)
		if err != nil {
			return err
		}
		switch ch.ID {
		case "smpl":
			c.file.SampleData = ch.Data
		case "sm24":
			c.file.SampleData24 = ch.Data
		default:
			slog.Debug("skipping unknown sdta sub-chunk", "id", ch.ID)
		}
	}
	return nil
}

func (c *parserContext) parsePdta(content []byte) error {
	r := chunk.NewReader(content)
	for r.Available() > 0 {
		ch, err := chunk.ReadRIFFChunk(r)
		if err != nil {
			return err
		}
		switch ch.ID {
		case "phdr":
			err = c.parsePresetHeaders(ch)
		case "pbag":
			c.presetBags, err = parseBags(ch)
		case "pmod":
			c.presetMods, err = parseModulators(ch)
		case "pgen":
			c.presetGens, err = parseGenerators(ch)
		case "inst":
			err = c.parseInstHeaders(ch)
		case "ibag":
			c.instBags, err = parseBags(ch)
		case "imod":
			c.instMods, err = parseModulators(ch)
		case "igen":
			c.instGens, err = parseGenerators(ch)
		case "shdr":
			err = c.parseSampleHeaders(ch)
		default:
			slog.Debug("skipping unknown pdta sub-chunk", "id", ch.ID)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func recordCount(ch chunk.RIFFChunk, recordLen int) (int, error) {
	if len(ch.Data)%recordLen != 0 {
		return 0, chunk.NewParseError("IDS_ERR_INVALID_RECORD_LENGTH", -1, ch.ID, len(ch.Data), recordLen)
	}
	return len(ch.Data) / recordLen, nil
}

func (c *parserContext) parsePresetHeaders(ch chunk.RIFFChunk) error {
	count, err := recordCount(ch, phdrRecordLen)
	if err != nil {
		return err
	}
	r := chunk.NewReader(ch.Data)
	for i := 0; i < count; i++ {
		var rec presetHeaderRec
		if rec.name, err = r.FixedASCII(20); err != nil {
			return err
		}
		if rec.program, err = r.Uint16(); err != nil {
			return err
		}
		if rec.bank, err = r.Uint16(); err != nil {
			return err
		}
		bagIdx, err := r.Uint16()
		if err != nil {
			return err
		}
		rec.bagIndex = int(bagIdx)
		if rec.library, err = r.Uint32(); err != nil {
			return err
		}
		if rec.genre, err = r.Uint32(); err != nil {
			return err
		}
		if rec.morphology, err = r.Uint32(); err != nil {
			return err
		}
		c.presetHeaders = append(c.presetHeaders, rec)
	}
	return nil
}

func (c *parserContext) parseInstHeaders(ch chunk.RIFFChunk) error {
	count, err := recordCount(ch, instRecordLen)
	if err != nil {
		return err
	}
	r := chunk.NewReader(ch.Data)
	for i := 0; i < count; i++ {
		var rec instHeaderRec
		if rec.name, err = r.FixedASCII(20); err != nil {
			return err
		}
		bagIdx, err := r.Uint16()
		if err != nil {
			return err
		}
		rec.bagIndex = int(bagIdx)
		c.instHeaders = append(c.instHeaders, rec)
	}
	return nil
}

func parseBags(ch chunk.RIFFChunk) ([]bagRec, error) {
	count, err := recordCount(ch, bagRecordLen)
	if err != nil {
		return nil, err
	}
	r := chunk.NewReader(ch.Data)
	bags := make([]bagRec, 0, count)
	for i := 0; i < count; i++ {
		genIdx, err := r.Uint16()
		if err != nil {
			return nil, err
		}
		modIdx, err := r.Uint16()
		if err != nil {
			return nil, err
		}
		bags = append(bags, bagRec{genIndex: int(genIdx), modIndex: int(modIdx)})
	}
	return bags, nil
}

func parseModulators(ch chunk.RIFFChunk) ([]Modulator, error) {
	count, err := recordCount(ch, modRecordLen)
	if err != nil {
		return nil, err
	}
	r := chunk.NewReader(ch.Data)
	mods := make([]Modulator, 0, count)
	for i := 0; i < count; i++ {
		var m Modulator
		src, err := r.Uint16()
		if err != nil {
			return nil, err
		}
		m.SourceOperator = src & 0x7F
		if m.DestinationGenerator, err = r.Uint16(); err != nil {
			return nil, err
		}
		if m.Amount, err = r.Int16(); err != nil {
			return nil, err
		}
		if m.AmountSourceOperator, err = r.Uint16(); err != nil {
			return nil, err
		}
		if m.TransformOperator, err = r.Uint16(); err != nil {
			return nil, err
		}
		mods = append(mods, m)
	}
	return mods, nil
}

func parseGenerators(ch chunk.RIFFChunk) ([]genRec, error) {
	count, err := recordCount(ch, genRecordLen)
	if err != nil {
		return nil, err
	}
	r := chunk.NewReader(ch.Data)
	gens := make([]genRec, 0, count)
	for i := 0; i < count; i++ {
		id, err := r.Uint16()
		if err != nil {
			return nil, err
		}
		raw, err := r.Uint16()
		if err != nil {
			return nil, err
		}
		gens = append(gens, genRec{id: GeneratorID(id), raw: raw})
	}
	return gens, nil
}

func (c *parserContext) parseSampleHeaders(ch chunk.RIFFChunk) error {
	count, err := recordCount(ch, shdrRecordLen)
	if err != nil {
		return err
	}
	r := chunk.NewReader(ch.Data)
	// The last record is the EOS sentinel and never becomes a descriptor.
	for i := 0; i < count-1; i++ {
		s := &SampleDescriptor{}
		if s.Name, err = r.FixedASCII(20); err != nil {
			return err
		}
		if s.Start, err = r.Uint32(); err != nil {
			return err
		}
		if s.End, err = r.Uint32(); err != nil {
			return err
		}
		if s.LoopStart, err = r.Uint32(); err != nil {
			return err
		}
		if s.LoopEnd, err = r.Uint32(); err != nil {
			return err
		}
		if s.SampleRate, err = r.Uint32(); err != nil {
			return err
		}
		if s.OriginalPitch, err = r.Uint8(); err != nil {
			return err
		}
		pc, err := r.Uint8()
		if err != nil {
			return err
		}
		s.PitchCorrection = int8(pc)
		if s.LinkedSample, err = r.Uint16(); err != nil {
			return err
		}
		st, err := r.Uint16()
		if err != nil {
			return err
		}
		s.Type = SampleType(st)
		c.file.AddSample(s)
	}
	return nil
}

// assemble walks the preset and instrument header tables pairwise across
// consecutive records. Both tables end in a sentinel record whose only
// purpose is bounding the last real entry's zone range, so every loop runs
// to size()-1.
func (c *parserContext) assemble() error {
	for i := 0; i+1 < len(c.instHeaders); i++ {
		rec := c.instHeaders[i]
		inst := &Instrument{Name: rec.name, Index: i}
		zoneCount := c.instHeaders[i+1].bagIndex - rec.bagIndex
		for j := 0; j < zoneCount; j++ {
			zone, err := c.buildInstrumentZone(rec.bagIndex+j, j == 0)
			if err != nil {
				return err
			}
			inst.Zones = append(inst.Zones, zone)
		}
		c.file.Instruments = append(c.file.Instruments, inst)
	}

	for i := 0; i+1 < len(c.presetHeaders); i++ {
		rec := c.presetHeaders[i]
		preset := &Preset{
			Name:       rec.name,
			Program:    rec.program,
			Bank:       rec.bank,
			Library:    rec.library,
			Genre:      rec.genre,
			Morphology: rec.morphology,
		}
		zoneCount := c.presetHeaders[i+1].bagIndex - rec.bagIndex
		for j := 0; j < zoneCount; j++ {
			zone, err := c.buildPresetZone(rec.bagIndex+j, j == 0)
			if err != nil {
				return err
			}
			preset.Zones = append(preset.Zones, zone)
		}
		c.file.Presets = append(c.file.Presets, preset)
	}
	return nil
}

func sliceFlatTable(bags []bagRec, bagIndex int) (genFirst, genCount, modFirst, modCount int, err error) {
	if bagIndex+1 >= len(bags) {
		return 0, 0, 0, 0, chunk.NewParseError("IDS_SF2_BAD_ZONE_INDEX", -1, bagIndex, len(bags))
	}
	b, next := bags[bagIndex], bags[bagIndex+1]
	return b.genIndex, next.genIndex - b.genIndex, b.modIndex, next.modIndex - b.modIndex, nil
}

func (c *parserContext) buildInstrumentZone(bagIndex int, first bool) (*InstrumentZone, error) {
	genFirst, genCount, modFirst, modCount, err := sliceFlatTable(c.instBags, bagIndex)
	if err != nil {
		return nil, err
	}
	zone := &InstrumentZone{}
	if err := fillZone(&zone.Zone, c.instGens, genFirst, genCount, c.instMods, modFirst, modCount); err != nil {
		return nil, err
	}
	if !zone.Generators.Has(GenSampleID) {
		if !first {
			return nil, chunk.NewParseError("IDS_SF2_MISSING_SAMPLE_ID", -1, bagIndex)
		}
		zone.SetGlobal(true)
		return zone, nil
	}
	idx, _ := zone.Generators.Get(GenSampleID)
	if int(uint16(idx)) >= len(c.file.Samples) {
		return nil, chunk.NewParseError("IDS_SF2_SAMPLE_INDEX_OUT_OF_RANGE", -1, uint16(idx), len(c.file.Samples))
	}
	zone.Sample = c.file.Samples[uint16(idx)]
	return zone, nil
}

func (c *parserContext) buildPresetZone(bagIndex int, first bool) (*PresetZone, error) {
	genFirst, genCount, modFirst, modCount, err := sliceFlatTable(c.presetBags, bagIndex)
	if err != nil {
		return nil, err
	}
	zone := &PresetZone{}
	if err := fillZone(&zone.Zone, c.presetGens, genFirst, genCount, c.presetMods, modFirst, modCount); err != nil {
		return nil, err
	}
	if !zone.Generators.Has(GenInstrument) {
		if first {
			zone.SetGlobal(true)
		} else {
			// Structural anomaly in the wild; keep the zone as a plain
			// zone without an instrument reference.
			slog.Debug("preset zone without INSTRUMENT generator outside first position", "bag", bagIndex)
		}
		return zone, nil
	}
	idx, _ := zone.Generators.Get(GenInstrument)
	if int(uint16(idx)) >= len(c.file.Instruments) {
		return nil, chunk.NewParseError("IDS_SF2_INSTRUMENT_INDEX_OUT_OF_RANGE", -1, uint16(idx), len(c.file.Instruments))
	}
	zone.Instrument = c.file.Instruments[uint16(idx)]
	return zone, nil
}

func fillZone(zone *Zone, gens []genRec, genFirst, genCount int, mods []Modulator, modFirst, modCount int) error {
	if genFirst < 0 || genCount < 0 || genFirst+genCount > len(gens) {
		return chunk.NewParseError("IDS_SF2_BAD_ZONE_INDEX", -1, genFirst+genCount, len(gens))
	}
	if modFirst < 0 || modCount < 0 || modFirst+modCount > len(mods) {
		return chunk.NewParseError("IDS_SF2_BAD_ZONE_INDEX", -1, modFirst+modCount, len(mods))
	}
	for _, g := range gens[genFirst : genFirst+genCount] {
		zone.Generators.AddSigned(g.id, g.raw)
	}
	zone.Modulators = append(zone.Modulators, mods[modFirst:modFirst+modCount]...)
	return nil
}
