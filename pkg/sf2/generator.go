// Package sf2 implements reading and writing of SoundFont 2 banks: the
// Preset→Zone→Instrument→Zone→Sample hierarchy reconstructed from the flat
// PHDR/PBAG/PGEN/PMOD/INST/IBAG/IGEN/IMOD/SHDR tables.
package sf2

// GeneratorID identifies an SF2 generator operator (SoundFont 2.04 §8.1.2).
type GeneratorID uint16

const (
	GenStartAddrsOffset           GeneratorID = 0
	GenEndAddrsOffset             GeneratorID = 1
	GenStartLoopAddrsOffset       GeneratorID = 2
	GenEndLoopAddrsOffset         GeneratorID = 3
	GenStartAddrsCoarseOffset     GeneratorID = 4
	GenModLFOToPitch              GeneratorID = 5
	GenVibLFOToPitch              GeneratorID = 6
	GenModEnvToPitch              GeneratorID = 7
	GenInitialFilterFc            GeneratorID = 8
	GenInitialFilterQ             GeneratorID = 9
	GenModLFOToFilterFc           GeneratorID = 10
	GenModEnvToFilterFc           GeneratorID = 11
	GenEndAddrsCoarseOffset       GeneratorID = 12
	GenModLFOToVolume             GeneratorID = 13
	GenChorusEffectsSend          GeneratorID = 15
	GenReverbEffectsSend          GeneratorID = 16
	GenPan                        GeneratorID = 17
	GenDelayModLFO                GeneratorID = 21
	GenFreqModLFO                 GeneratorID = 22
	GenDelayVibLFO                GeneratorID = 23
	GenFreqVibLFO                 GeneratorID = 24
	GenDelayModEnv                GeneratorID = 25
	GenAttackModEnv               GeneratorID = 26
	GenHoldModEnv                 GeneratorID = 27
	GenDecayModEnv                GeneratorID = 28
	GenSustainModEnv              GeneratorID = 29
	GenReleaseModEnv              GeneratorID = 30
	GenKeynumToModEnvHold         GeneratorID = 31
	GenKeynumToModEnvDecay        GeneratorID = 32
	GenDelayVolEnv                GeneratorID = 33
	GenAttackVolEnv               GeneratorID = 34
	GenHoldVolEnv                 GeneratorID = 35
	GenDecayVolEnv                GeneratorID = 36
	GenSustainVolEnv              GeneratorID = 37
	GenReleaseVolEnv              GeneratorID = 38
	GenKeynumToVolEnvHold         GeneratorID = 39
	GenKeynumToVolEnvDecay        GeneratorID = 40
	GenInstrument                 GeneratorID = 41
	GenKeyRange                   GeneratorID = 43
	GenVelRange                   GeneratorID = 44
	GenStartLoopAddrsCoarseOffset GeneratorID = 45
	GenKeynum                     GeneratorID = 46
	GenVelocity                   GeneratorID = 47
	GenInitialAttenuation         GeneratorID = 48
	GenEndLoopAddrsCoarseOffset   GeneratorID = 50
	GenCoarseTune                 GeneratorID = 51
	GenFineTune                   GeneratorID = 52
	GenSampleID                   GeneratorID = 53
	GenSampleModes                GeneratorID = 54
	GenScaleTuning                GeneratorID = 56
	GenExclusiveClass             GeneratorID = 57
	GenOverridingRootKey          GeneratorID = 58
)

// Generators is an ordered, duplicate-rejecting generator map. The SF2
// specification requires a strict ordering for some operators (INSTRUMENT
// and SAMPLE_ID must come last in a zone), so insertion order is load-bearing
// and kept separately from the lookup index.
type Generators struct {
	order  []GeneratorID
	values map[GeneratorID]int16
}

// Add inserts a generator with an unsigned or range value. The first
// occurrence of an ID wins; later calls with the same ID are dropped.
func (g *Generators) Add(id GeneratorID, value int16) {
	if g.values == nil {
		g.values = make(map[GeneratorID]int16)
	}
	if _, exists := g.values[id]; exists {
		return
	}
	g.values[id] = value
	g.order = append(g.order, id)
}

// AddSigned converts a packed two's-complement 16-bit value and delegates to
// Add. The SF2 wire format stores signed generator amounts as raw u16.
func (g *Generators) AddSigned(id GeneratorID, raw uint16) {
	g.Add(id, int16(raw))
}

// AddRange inserts a lo/hi byte-pair generator (key range, velocity range).
func (g *Generators) AddRange(id GeneratorID, low, high uint8) {
	g.Add(id, int16(uint16(low)|uint16(high)<<8))
}

// Get returns the value for id and whether it is present.
func (g *Generators) Get(id GeneratorID) (int16, bool) {
	v, ok := g.values[id]
	return v, ok
}

// GetRange splits a range generator into its low and high bytes.
func (g *Generators) GetRange(id GeneratorID) (low, high uint8, ok bool) {
	v, ok := g.values[id]
	if !ok {
		return 0, 0, false
	}
	return uint8(uint16(v) & 0xFF), uint8(uint16(v) >> 8), true
}

// Has reports whether id is present.
func (g *Generators) Has(id GeneratorID) bool {
	_, ok := g.values[id]
	return ok
}

// Order returns the generator IDs in insertion order.
func (g *Generators) Order() []GeneratorID {
	return g.order
}

// Len returns the number of stored generators.
func (g *Generators) Len() int {
	return len(g.order)
}
