// Package sfz reads and writes SFZ instrument definitions. SFZ is the one
// text format in the conversion set: sections of key=value opcodes with
// region inheriting group inheriting global.
package sfz

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/zurustar/sampleconv/pkg/multisample"
)

type section struct {
	kind    string
	opcodes map[string]string
	line    int
}

// Parse reads an SFZ document into the intermediate model. Unknown opcodes
// are ignored; malformed numeric values are line-numbered errors.
func Parse(r io.Reader) (*multisample.Multisample, error) {
	var (
		global   = map[string]string{}
		sections []*section
		current  *section
	)

	scanner := bufio.NewScanner(r)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "//") {
			continue
		}
		if i := strings.Index(line, "//"); i >= 0 {
			line = strings.TrimSpace(line[:i])
		}

		// Headers share the line with opcodes ("<region> sample=..."), and
		// several headers may sit on one line. Opcode runs between headers
		// belong to the header just opened.
		for line != "" {
			if strings.HasPrefix(line, "<") {
				end := strings.Index(line, ">")
				if end < 0 {
					break
				}
				kind := strings.ToLower(strings.TrimSpace(line[1:end]))
				current = &section{kind: kind, opcodes: map[string]string{}, line: lineNum}
				switch kind {
				case "global":
					global = current.opcodes
				case "group", "region":
					sections = append(sections, current)
				}
				line = strings.TrimSpace(line[end+1:])
				continue
			}
			run := line
			if next := strings.Index(line, "<"); next >= 0 {
				run, line = strings.TrimSpace(line[:next]), line[next:]
			} else {
				line = ""
			}
			if current != nil && run != "" {
				parseOpcodeLine(run, current.opcodes)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("sfz: read: %w", err)
	}

	m := &multisample.Multisample{}
	var currentGroup *multisample.Group
	var groupOpcodes map[string]string
	for _, s := range sections {
		switch s.kind {
		case "group":
			currentGroup = &multisample.Group{Name: fmt.Sprintf("Group %d", len(m.Groups)+1)}
			m.Groups = append(m.Groups, currentGroup)
			groupOpcodes = s.opcodes
		case "region":
			merged := mergeOpcodes(global, groupOpcodes, s.opcodes)
			zone, err := regionToZone(merged, s.line)
			if err != nil {
				return nil, err
			}
			if currentGroup == nil {
				currentGroup = &multisample.Group{Name: "Group 1"}
				m.Groups = append(m.Groups, currentGroup)
			}
			currentGroup.Zones = append(currentGroup.Zones, zone)
		}
	}
	return m, nil
}

// parseOpcodeLine splits whitespace-separated key=value pairs. The sample
// opcode may contain spaces, so its value extends to the next key= token.
func parseOpcodeLine(line string, into map[string]string) {
	fields := strings.Fields(line)
	for i := 0; i < len(fields); i++ {
		eq := strings.Index(fields[i], "=")
		if eq <= 0 {
			continue
		}
		key := strings.ToLower(fields[i][:eq])
		value := fields[i][eq+1:]
		if key == "sample" {
			for i+1 < len(fields) && !strings.Contains(fields[i+1], "=") {
				i++
				value += " " + fields[i]
			}
		}
		into[key] = value
	}
}

func mergeOpcodes(layers ...map[string]string) map[string]string {
	merged := map[string]string{}
	for _, layer := range layers {
		for k, v := range layer {
			merged[k] = v
		}
	}
	return merged
}

func regionToZone(op map[string]string, line int) (*multisample.SampleZone, error) {
	file := strings.ReplaceAll(op["sample"], `\`, "/")
	z := multisample.NewSampleZone(baseName(file), file)

	intField := func(key string, dst *int) error {
		v, ok := op[key]
		if !ok {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("sfz: line %d: %s=%q: %w", line, key, v, err)
		}
		*dst = n
		return nil
	}
	floatField := func(key string, dst *float64) error {
		v, ok := op[key]
		if !ok {
			return nil
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("sfz: line %d: %s=%q: %w", line, key, v, err)
		}
		*dst = f
		return nil
	}

	for _, f := range []struct {
		key string
		dst *int
	}{
		{"lokey", &z.KeyLow}, {"hikey", &z.KeyHigh}, {"pitch_keycenter", &z.KeyRoot},
		{"key", &z.KeyRoot},
		{"lovel", &z.VelocityLow}, {"hivel", &z.VelocityHigh},
		{"offset", &z.Start}, {"end", &z.Stop},
	} {
		if err := intField(f.key, f.dst); err != nil {
			return nil, err
		}
	}
	// key sets all three bounds at once.
	if _, ok := op["key"]; ok {
		if _, hasLo := op["lokey"]; !hasLo {
			z.KeyLow = z.KeyRoot
		}
		if _, hasHi := op["hikey"]; !hasHi {
			z.KeyHigh = z.KeyRoot
		}
	}

	var cents float64
	if err := floatField("tune", &cents); err != nil {
		return nil, err
	}
	z.Tune = cents / 100

	var pan float64
	if err := floatField("pan", &pan); err != nil {
		return nil, err
	}
	z.Panning = pan / 100

	if err := floatField("volume", &z.Gain); err != nil {
		return nil, err
	}
	if op["direction"] == "reverse" {
		z.Reversed = true
	}

	if mode, ok := op["loop_mode"]; ok && mode != "no_loop" && mode != "one_shot" {
		loop := multisample.Loop{}
		if err := intField("loop_start", &loop.Start); err != nil {
			return nil, err
		}
		if err := intField("loop_end", &loop.End); err != nil {
			return nil, err
		}
		if err := intField("loop_crossfade", &loop.Crossfade); err != nil {
			return nil, err
		}
		z.Loops = append(z.Loops, loop)
	}

	env := multisample.NewAmplitudeEnvelope()
	if err := floatField("ampeg_attack", &env.Attack); err != nil {
		return nil, err
	}
	if err := floatField("ampeg_hold", &env.Hold); err != nil {
		return nil, err
	}
	if err := floatField("ampeg_decay", &env.Decay); err != nil {
		return nil, err
	}
	if err := floatField("ampeg_release", &env.Release); err != nil {
		return nil, err
	}
	var sustainPct = -1.0
	if err := floatField("ampeg_sustain", &sustainPct); err != nil {
		return nil, err
	}
	if sustainPct >= 0 {
		env.Sustain = sustainPct / 100
	}
	z.Envelope = env

	if err := intField("xfin_lokey", &z.NoteCrossfadeLow); err != nil {
		return nil, err
	}
	if err := intField("xfout_hikey", &z.NoteCrossfadeHigh); err != nil {
		return nil, err
	}
	if err := intField("xfin_lovel", &z.VelocityCrossfadeLow); err != nil {
		return nil, err
	}
	if err := intField("xfout_hivel", &z.VelocityCrossfadeHigh); err != nil {
		return nil, err
	}
	return z, nil
}

// Write emits the multisample as an SFZ document, one group section per
// group and one region per zone. Opcodes at format defaults are omitted.
func Write(w io.Writer, m *multisample.Multisample) error {
	bw := bufio.NewWriter(w)
	if m.Name != "" {
		fmt.Fprintf(bw, "// %s\n", m.Name)
	}
	if m.Creator != "" {
		fmt.Fprintf(bw, "// creator: %s\n", m.Creator)
	}
	for _, g := range m.Groups {
		fmt.Fprintf(bw, "\n<group> // %s\n", g.Name)
		for _, z := range g.Zones {
			writeRegion(bw, z)
		}
	}
	return bw.Flush()
}

func writeRegion(w *bufio.Writer, z *multisample.SampleZone) {
	fmt.Fprintf(w, "<region> sample=%s\n", strings.ReplaceAll(z.SampleFile, "/", `\`))

	put := func(key string, value string) {
		fmt.Fprintf(w, "    %s=%s\n", key, value)
	}
	putInt := func(key string, value int) { put(key, strconv.Itoa(value)) }

	if z.KeyRoot >= 0 {
		putInt("pitch_keycenter", z.KeyRoot)
	}
	putInt("lokey", z.KeyLow)
	putInt("hikey", z.KeyHigh)
	if z.VelocityLow > 0 {
		putInt("lovel", z.VelocityLow)
	}
	if z.VelocityHigh < 127 {
		putInt("hivel", z.VelocityHigh)
	}
	if z.Start > 0 {
		putInt("offset", z.Start)
	}
	if z.Stop >= 0 {
		putInt("end", z.Stop)
	}
	if z.Tune != 0 {
		putInt("tune", int(z.Tune*100))
	}
	if z.Panning != 0 {
		putInt("pan", int(z.Panning*100))
	}
	if z.Gain != 0 {
		put("volume", strconv.FormatFloat(z.Gain, 'f', -1, 64))
	}
	if z.Reversed {
		put("direction", "reverse")
	}
	if len(z.Loops) > 0 {
		put("loop_mode", "loop_continuous")
		putInt("loop_start", z.Loops[0].Start)
		putInt("loop_end", z.Loops[0].End)
		if z.Loops[0].Crossfade > 0 {
			putInt("loop_crossfade", z.Loops[0].Crossfade)
		}
	}
	if z.NoteCrossfadeLow > 0 {
		putInt("xfin_lokey", z.NoteCrossfadeLow)
	}
	if z.NoteCrossfadeHigh > 0 {
		putInt("xfout_hikey", z.NoteCrossfadeHigh)
	}
	if z.VelocityCrossfadeLow > 0 {
		putInt("xfin_lovel", z.VelocityCrossfadeLow)
	}
	if z.VelocityCrossfadeHigh > 0 {
		putInt("xfout_hivel", z.VelocityCrossfadeHigh)
	}
	writeEnvelope(w, z.Envelope, put)
}

func writeEnvelope(w *bufio.Writer, env multisample.AmplitudeEnvelope, put func(string, string)) {
	f := func(key string, v float64) {
		if v >= 0 {
			put(key, strconv.FormatFloat(v, 'f', -1, 64))
		}
	}
	f("ampeg_attack", env.Attack)
	f("ampeg_hold", env.Hold)
	f("ampeg_decay", env.Decay)
	f("ampeg_release", env.Release)
	if env.Sustain >= 0 {
		put("ampeg_sustain", strconv.FormatFloat(env.Sustain*100, 'f', -1, 64))
	}
}

func baseName(path string) string {
	path = strings.ReplaceAll(path, `\`, "/")
	if i := strings.LastIndex(path, "/"); i >= 0 {
		path = path[i+1:]
	}
	if i := strings.LastIndex(path, "."); i > 0 {
		path = path[:i]
	}
	return path
}

// SortZones orders zones by root key then low velocity, the order SFZ
// editors conventionally keep.
func SortZones(m *multisample.Multisample) {
	for _, g := range m.Groups {
		sort.SliceStable(g.Zones, func(i, j int) bool {
			a, b := g.Zones[i], g.Zones[j]
			if a.KeyRoot != b.KeyRoot {
				return a.KeyRoot < b.KeyRoot
			}
			return a.VelocityLow < b.VelocityLow
		})
	}
}
