package converter

import (
	"bytes"
	"fmt"
	"math"

	"github.com/go-audio/wav"

	"github.com/zurustar/sampleconv/pkg/multisample"
	"github.com/zurustar/sampleconv/pkg/sf2"
	"github.com/zurustar/sampleconv/pkg/wavmeta"
)

// ReadSF2 converts every preset of a bank into its own multisample. Sample
// audio is re-wrapped as WAV bytes on each zone so any writer can emit it.
func ReadSF2(data []byte) ([]*multisample.Multisample, error) {
	f, err := sf2.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	var out []*multisample.Multisample
	for _, preset := range f.Presets {
		m := &multisample.Multisample{
			Name:        preset.Name,
			Creator:     f.Engineers,
			Description: f.Comment,
		}
		group := &multisample.Group{Name: "Group 1"}

		presetGlobal := preset.GlobalZone()
		for _, pz := range preset.Zones {
			if pz.IsGlobal() || pz.Instrument == nil {
				continue
			}
			instGlobal := pz.Instrument.GlobalZone()
			for _, iz := range pz.Instrument.Zones {
				if iz.IsGlobal() || iz.Sample == nil {
					continue
				}
				zone := sf2ZoneToSample(iz, instGlobal, pz, presetGlobal)
				group.Zones = append(group.Zones, zone)
			}
		}
		m.Groups = append(m.Groups, group)
		out = append(out, m)
	}
	return out, nil
}

// genLookup resolves a generator with zone-over-global fallback.
type genLookup struct {
	zone   *sf2.Zone
	global *sf2.Zone
}

func (l genLookup) value(id sf2.GeneratorID) (int16, bool) {
	if v, ok := l.zone.Generators.Get(id); ok {
		return v, true
	}
	if l.global != nil {
		if v, ok := l.global.Generators.Get(id); ok {
			return v, true
		}
	}
	return 0, false
}

func (l genLookup) valueOr(id sf2.GeneratorID, def int16) int16 {
	if v, ok := l.value(id); ok {
		return v
	}
	return def
}

func (l genLookup) keyRange() (uint8, uint8) {
	if lo, hi, ok := l.zone.Generators.GetRange(sf2.GenKeyRange); ok {
		return lo, hi
	}
	if l.global != nil {
		if lo, hi, ok := l.global.Generators.GetRange(sf2.GenKeyRange); ok {
			return lo, hi
		}
	}
	return 0, 127
}

func (l genLookup) velRange() (uint8, uint8) {
	if lo, hi, ok := l.zone.Generators.GetRange(sf2.GenVelRange); ok {
		return lo, hi
	}
	if l.global != nil {
		if lo, hi, ok := l.global.Generators.GetRange(sf2.GenVelRange); ok {
			return lo, hi
		}
	}
	return 0, 127
}

func sf2ZoneToSample(iz *sf2.InstrumentZone, instGlobal *sf2.InstrumentZone, pz *sf2.PresetZone, presetGlobal *sf2.PresetZone) *multisample.SampleZone {
	sample := iz.Sample
	inst := genLookup{zone: &iz.Zone}
	if instGlobal != nil {
		inst.global = &instGlobal.Zone
	}
	pre := genLookup{zone: &pz.Zone}
	if presetGlobal != nil {
		pre.global = &presetGlobal.Zone
	}

	z := multisample.NewSampleZone(sample.Name, safeName(sample.Name)+".wav")
	z.Channels = 1
	z.SampleRate = int(sample.SampleRate)

	lo, hi := inst.keyRange()
	z.KeyLow, z.KeyHigh = int(lo), int(hi)
	// Preset-level ranges narrow the instrument's.
	plo, phi := pre.keyRange()
	z.KeyLow = maxInt(z.KeyLow, int(plo))
	z.KeyHigh = minInt(z.KeyHigh, int(phi))

	vlo, vhi := inst.velRange()
	z.VelocityLow, z.VelocityHigh = int(vlo), int(vhi)
	pvlo, pvhi := pre.velRange()
	z.VelocityLow = maxInt(z.VelocityLow, int(pvlo))
	z.VelocityHigh = minInt(z.VelocityHigh, int(pvhi))

	root := inst.valueOr(sf2.GenOverridingRootKey, -1)
	if root >= 0 {
		z.KeyRoot = int(root)
	} else {
		z.KeyRoot = int(sample.OriginalPitch)
	}

	// Preset generators are relative offsets on top of the instrument level.
	coarse := inst.valueOr(sf2.GenCoarseTune, 0) + pre.valueOr(sf2.GenCoarseTune, 0)
	fine := inst.valueOr(sf2.GenFineTune, 0) + pre.valueOr(sf2.GenFineTune, 0)
	z.Tune = float64(coarse) + float64(fine)/100 + float64(sample.PitchCorrection)/100

	pan := inst.valueOr(sf2.GenPan, 0)
	z.Panning = clampFloat(float64(pan)/500, -1, 1)

	atten := int(inst.valueOr(sf2.GenInitialAttenuation, 0)) + int(pre.valueOr(sf2.GenInitialAttenuation, 0))
	z.Gain = -float64(atten) / 10

	frames := int(sample.End) - int(sample.Start)
	startOff := int(inst.valueOr(sf2.GenStartAddrsOffset, 0)) + 32768*int(inst.valueOr(sf2.GenStartAddrsCoarseOffset, 0))
	endOff := int(inst.valueOr(sf2.GenEndAddrsOffset, 0)) + 32768*int(inst.valueOr(sf2.GenEndAddrsCoarseOffset, 0))
	if startOff > 0 {
		z.Start = startOff
	}
	if endOff != 0 {
		z.Stop = frames + endOff
	}

	if mode := inst.valueOr(sf2.GenSampleModes, 0) & 3; mode == 1 || mode == 3 {
		loopStartOff := int(inst.valueOr(sf2.GenStartLoopAddrsOffset, 0)) + 32768*int(inst.valueOr(sf2.GenStartLoopAddrsCoarseOffset, 0))
		loopEndOff := int(inst.valueOr(sf2.GenEndLoopAddrsOffset, 0)) + 32768*int(inst.valueOr(sf2.GenEndLoopAddrsCoarseOffset, 0))
		z.Loops = append(z.Loops, multisample.Loop{
			Start: int(sample.LoopStart) - int(sample.Start) + loopStartOff,
			End:   int(sample.LoopEnd) - int(sample.Start) + loopEndOff,
			Type:  multisample.LoopForward,
		})
	}

	env := multisample.NewAmplitudeEnvelope()
	if tc, ok := inst.value(sf2.GenAttackVolEnv); ok {
		env.Attack = timecentsToSeconds(tc)
	}
	if tc, ok := inst.value(sf2.GenHoldVolEnv); ok {
		env.Hold = timecentsToSeconds(tc)
	}
	if tc, ok := inst.value(sf2.GenDecayVolEnv); ok {
		env.Decay = timecentsToSeconds(tc)
	}
	if cb, ok := inst.value(sf2.GenSustainVolEnv); ok {
		env.Sustain = attenuationToLevel(cb)
	}
	if tc, ok := inst.value(sf2.GenReleaseVolEnv); ok {
		env.Release = timecentsToSeconds(tc)
	}
	z.Envelope = env

	info := &wavmeta.Info{
		Channels:   1,
		SampleRate: int(sample.SampleRate),
		BitDepth:   16,
		RootKey:    z.KeyRoot,
		Loops:      z.Loops,
	}
	z.Data = wavmeta.Encode(info, sample.Data16())
	return z
}

// timecentsToSeconds folds the SF2 exponential time scale; anything at or
// below -12000 timecents is effectively instant.
func timecentsToSeconds(tc int16) float64 {
	if tc <= -12000 {
		return 0
	}
	return math.Pow(2, float64(tc)/1200)
}

// attenuationToLevel maps sustain attenuation in centibels to a linear level.
func attenuationToLevel(cb int16) float64 {
	if cb <= 0 {
		return 1
	}
	if cb >= 1440 {
		return 0
	}
	return math.Pow(10, -float64(cb)/200)
}

// WriteSF2 assembles a single-preset bank: one instrument per group, one
// sample per zone, 46 guard frames after each sample as the format requires.
func WriteSF2(m *multisample.Multisample) ([]OutputFile, error) {
	f := &sf2.File{
		BankName:  m.Name,
		Engineers: m.Creator,
		Comment:   m.Description,
	}

	preset := &sf2.Preset{Name: m.Name}
	f.Presets = append(f.Presets, preset)

	var smpl []byte
	for gi, g := range m.Groups {
		inst := &sf2.Instrument{Name: g.Name, Index: gi}
		f.Instruments = append(f.Instruments, inst)

		for _, z := range g.Zones {
			pcm, rate, err := zonePCM(z)
			if err != nil {
				return nil, fmt.Errorf("sf2: zone %q: %w", z.Name, err)
			}
			frames := len(pcm) / 2

			desc := &sf2.SampleDescriptor{
				Name:          z.Name,
				Start:         uint32(len(smpl) / 2),
				SampleRate:    uint32(rate),
				OriginalPitch: uint8(clampInt(z.KeyRoot, 0, 127)),
				Type:          sf2.SampleTypeMono,
			}
			desc.End = desc.Start + uint32(frames)
			if len(z.Loops) > 0 {
				desc.LoopStart = desc.Start + uint32(z.Loops[0].Start)
				desc.LoopEnd = desc.Start + uint32(z.Loops[0].End)
			}
			f.AddSample(desc)

			smpl = append(smpl, pcm...)
			smpl = append(smpl, make([]byte, 46*2)...)

			iz := &sf2.InstrumentZone{Sample: desc}
			fillInstrumentGenerators(iz, z, desc)
			inst.Zones = append(inst.Zones, iz)
		}

		pzone := &sf2.PresetZone{Instrument: inst}
		pzone.Generators.Add(sf2.GenInstrument, int16(gi))
		preset.Zones = append(preset.Zones, pzone)
	}
	f.SampleData = smpl

	data, err := sf2.Write(f)
	if err != nil {
		return nil, err
	}
	return []OutputFile{{Path: safeName(m.Name) + ".sf2", Data: data}}, nil
}

// fillInstrumentGenerators emits the zone's generators in the order the
// format mandates: key range first, sample ID last.
func fillInstrumentGenerators(iz *sf2.InstrumentZone, z *multisample.SampleZone, desc *sf2.SampleDescriptor) {
	g := &iz.Generators
	g.AddRange(sf2.GenKeyRange, uint8(clampInt(z.KeyLow, 0, 127)), uint8(clampInt(z.KeyHigh, 0, 127)))
	if z.VelocityLow > 0 || z.VelocityHigh < 127 {
		g.AddRange(sf2.GenVelRange, uint8(clampInt(z.VelocityLow, 0, 127)), uint8(clampInt(z.VelocityHigh, 0, 127)))
	}
	if z.KeyRoot >= 0 {
		g.Add(sf2.GenOverridingRootKey, int16(z.KeyRoot))
	}
	if len(z.Loops) > 0 {
		g.Add(sf2.GenSampleModes, 1)
	}
	coarse := int(z.Tune)
	fine := int(math.Round((z.Tune - float64(coarse)) * 100))
	if coarse != 0 {
		g.Add(sf2.GenCoarseTune, int16(coarse))
	}
	if fine != 0 {
		g.Add(sf2.GenFineTune, int16(fine))
	}
	if z.Panning != 0 {
		g.Add(sf2.GenPan, int16(clampFloat(z.Panning, -1, 1)*500))
	}
	if z.Gain < 0 {
		g.Add(sf2.GenInitialAttenuation, int16(-z.Gain*10))
	}
	env := z.Envelope
	if env.Attack > 0 {
		g.Add(sf2.GenAttackVolEnv, secondsToTimecents(env.Attack))
	}
	if env.Hold > 0 {
		g.Add(sf2.GenHoldVolEnv, secondsToTimecents(env.Hold))
	}
	if env.Decay > 0 {
		g.Add(sf2.GenDecayVolEnv, secondsToTimecents(env.Decay))
	}
	if env.Sustain >= 0 && env.Sustain < 1 {
		g.Add(sf2.GenSustainVolEnv, levelToAttenuation(env.Sustain))
	}
	if env.Release > 0 {
		g.Add(sf2.GenReleaseVolEnv, secondsToTimecents(env.Release))
	}
	g.Add(sf2.GenSampleID, int16(desc.Index))
}

func secondsToTimecents(s float64) int16 {
	if s <= 0 {
		return -12000
	}
	tc := 1200 * math.Log2(s)
	return int16(clampFloat(tc, -12000, 8000))
}

func levelToAttenuation(level float64) int16 {
	if level <= 0 {
		return 1440
	}
	cb := -200 * math.Log10(level)
	return int16(clampFloat(cb, 0, 1440))
}

// zonePCM extracts 16-bit mono/interleaved PCM from a zone's WAV bytes.
func zonePCM(z *multisample.SampleZone) ([]byte, int, error) {
	if len(z.Data) == 0 {
		rate := z.SampleRate
		if rate == 0 {
			rate = 44100
		}
		return nil, rate, nil
	}
	d := wav.NewDecoder(bytes.NewReader(z.Data))
	buf, err := d.FullPCMBuffer()
	if err != nil {
		return nil, 0, err
	}
	shift := 0
	if d.BitDepth > 16 {
		shift = int(d.BitDepth) - 16
	}
	pcm := make([]byte, 0, len(buf.Data)*2)
	for _, s := range buf.Data {
		v := int16(s >> shift)
		pcm = append(pcm, byte(uint16(v)), byte(uint16(v)>>8))
	}
	return pcm, buf.Format.SampleRate, nil
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
