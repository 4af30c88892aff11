package sf2

// Modulator is one entry of a PMOD/IMOD table. The source operator is masked
// to its controller bits on read. Multiple modulators may target the same
// destination; no deduplication happens.
type Modulator struct {
	SourceOperator       uint16
	DestinationGenerator uint16
	Amount               int16
	AmountSourceOperator uint16
	TransformOperator    uint16
}

// Zone holds the generator and modulator bookkeeping shared by preset and
// instrument zones. A zone is global iff it is the first zone of its parent
// and lacks the terminating generator; this is inferred while parsing, never
// stored in the file.
type Zone struct {
	Generators Generators
	Modulators []Modulator

	global bool
}

// IsGlobal reports whether this zone is its parent's global zone.
func (z *Zone) IsGlobal() bool {
	return z.global
}

// SetGlobal marks the zone as global. Only the first zone of a parent may be
// marked; the reader enforces this.
func (z *Zone) SetGlobal(global bool) {
	z.global = global
}

// PresetZone is a zone whose terminating generator references an instrument.
type PresetZone struct {
	Zone
	// Instrument is nil for the global zone.
	Instrument *Instrument
}

// InstrumentZone is a zone whose terminating generator references a sample.
type InstrumentZone struct {
	Zone
	// Sample is nil for the global zone.
	Sample *SampleDescriptor
}

// Preset is a named group of preset zones, addressed by bank and program.
type Preset struct {
	Name       string
	Program    uint16
	Bank       uint16
	Library    uint32
	Genre      uint32
	Morphology uint32
	Zones      []*PresetZone
}

// GlobalZone returns the preset's global zone, or nil.
func (p *Preset) GlobalZone() *PresetZone {
	if len(p.Zones) > 0 && p.Zones[0].IsGlobal() {
		return p.Zones[0]
	}
	return nil
}

// Instrument is a named group of instrument zones.
type Instrument struct {
	Name  string
	Index int
	Zones []*InstrumentZone
}

// GlobalZone returns the instrument's global zone, or nil.
func (i *Instrument) GlobalZone() *InstrumentZone {
	if len(i.Zones) > 0 && i.Zones[0].IsGlobal() {
		return i.Zones[0]
	}
	return nil
}

// SampleType values of the SHDR sample-link field.
type SampleType uint16

const (
	SampleTypeMono      SampleType = 1
	SampleTypeRight     SampleType = 2
	SampleTypeLeft      SampleType = 4
	SampleTypeLinked    SampleType = 8
	SampleTypeROMFlag   SampleType = 0x8000
	SampleTypeROMMono   SampleType = SampleTypeROMFlag | SampleTypeMono
	SampleTypeROMRight  SampleType = SampleTypeROMFlag | SampleTypeRight
	SampleTypeROMLeft   SampleType = SampleTypeROMFlag | SampleTypeLeft
	SampleTypeROMLinked SampleType = SampleTypeROMFlag | SampleTypeLinked
)

// SampleDescriptor is one SHDR record. Start/End/LoopStart/LoopEnd are
// sample-frame offsets into the file's shared smpl (and optional sm24)
// buffers; descriptors reference those buffers and must not outlive or
// mutate them.
type SampleDescriptor struct {
	Index           int
	Name            string
	Start           uint32
	End             uint32
	LoopStart       uint32
	LoopEnd         uint32
	SampleRate      uint32
	OriginalPitch   uint8
	PitchCorrection int8
	LinkedSample    uint16
	Type            SampleType

	file *File
}

// Data16 returns the 16-bit sample frames [Start, End) from the owning
// file's smpl buffer. The returned slice aliases the shared buffer.
func (s *SampleDescriptor) Data16() []byte {
	if s.file == nil {
		return nil
	}
	lo := int(s.Start) * 2
	hi := int(s.End) * 2
	if lo > len(s.file.SampleData) || hi > len(s.file.SampleData) || lo > hi {
		return nil
	}
	return s.file.SampleData[lo:hi]
}

// Data24 returns the matching low-byte frames from the sm24 buffer, or nil
// when the bank carries no 24-bit extension.
func (s *SampleDescriptor) Data24() []byte {
	if s.file == nil || len(s.file.SampleData24) == 0 {
		return nil
	}
	lo := int(s.Start)
	hi := int(s.End)
	if lo > len(s.file.SampleData24) || hi > len(s.file.SampleData24) || lo > hi {
		return nil
	}
	return s.file.SampleData24[lo:hi]
}

// File is a parsed SoundFont 2 bank.
type File struct {
	// ifil version halves. Version() folds them per the informal
	// major + minor/100 convention.
	VersionMajor uint16
	VersionMinor uint16

	SoundEngine string // isng, defaults to "EMU8000"
	BankName    string // INAM, defaults to ""

	ROMName         string // irom
	ROMVersionMajor uint16 // iver
	ROMVersionMinor uint16
	CreationDate    string // ICRD
	Engineers       string // IENG
	Product         string // IPRD
	Copyright       string // ICOP
	Comment         string // ICMT
	Software        string // ISFT

	Presets     []*Preset
	Instruments []*Instrument
	Samples     []*SampleDescriptor

	// Shared sample buffers, owned by the file and referenced by every
	// SampleDescriptor.
	SampleData   []byte // smpl
	SampleData24 []byte // sm24
}

// Version returns the ifil version folded to a single number.
func (f *File) Version() float64 {
	return float64(f.VersionMajor) + float64(f.VersionMinor)/100
}

// AddSample appends a descriptor and binds it to the file's buffers.
func (f *File) AddSample(s *SampleDescriptor) *SampleDescriptor {
	s.Index = len(f.Samples)
	s.file = f
	f.Samples = append(f.Samples, s)
	return s
}
