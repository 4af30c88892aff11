// Package keymap infers key ranges, velocity layers and crossfades for a bag
// of samples whose source format carries no explicit mapping. Notes come from
// embedded metadata when present, otherwise from filename heuristics; mono
// left/right pairs are reconciled into stereo zones.
package keymap

import (
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/zurustar/sampleconv/pkg/multisample"
)

// Config holds the read-only mapping parameters. A zero value maps everything
// into one full-range group with no crossfades.
type Config struct {
	// Ascending orders velocity groups from the lowest detected group value
	// upward; false reverses the stacking.
	Ascending bool

	// CrossfadeNotes and CrossfadeVelocities are the requested crossfade
	// widths; both are clamped to what the ranges can hold.
	CrossfadeNotes      int
	CrossfadeVelocities int

	// GroupPatterns split samples into velocity groups. Each pattern holds
	// exactly one '*' wildcard standing for the numeric group value.
	GroupPatterns []string

	// LeftChannelPatterns identify the left file of a mono pair, tried as a
	// filename suffix first and as a substring second.
	LeftChannelPatterns []string
}

// MapSamples assigns key ranges, velocity layers and crossfades, returning
// the zones organized into ordered groups. The input zones are modified in
// place.
func MapSamples(zones []*multisample.SampleZone, cfg Config) ([]*multisample.Group, error) {
	if len(zones) == 0 {
		return nil, nil
	}

	grouped, err := detectGroups(zones, cfg.GroupPatterns)
	if err != nil {
		return nil, err
	}

	groups := make([]*multisample.Group, 0, len(grouped))
	for _, set := range grouped {
		notes, err := detectNotes(set.members)
		if err != nil {
			return nil, err
		}
		mapped, err := reconcileStereo(set.members, notes, cfg.LeftChannelPatterns)
		if err != nil {
			return nil, err
		}
		synthesizeKeyRanges(mapped)
		synthesizeNoteCrossfades(mapped, cfg.CrossfadeNotes)
		groups = append(groups, &multisample.Group{Zones: mapped})
	}

	orderGroups(groups, grouped, cfg.Ascending)
	applyVelocityLayers(groups, cfg.CrossfadeVelocities)
	return groups, nil
}

// groupSet is one detected group with the numeric value its pattern captured.
type groupSet struct {
	value   int
	members []*multisample.SampleZone
}

// detectGroups splits the samples by group pattern. When no pattern matches
// the first filename, everything forms a single group; when one does, every
// sample must match some pattern.
func detectGroups(zones []*multisample.SampleZone, patterns []string) ([]*groupSet, error) {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		if strings.Count(p, "*") != 1 {
			return nil, newMultisampleError("IDS_KEYMAP_NO_PATTERN_MATCH", p)
		}
		re, err := regexp.Compile(strings.Replace(regexp.QuoteMeta(p), `\*`, `([0-9]+)`, 1))
		if err != nil {
			return nil, newMultisampleError("IDS_KEYMAP_NO_PATTERN_MATCH", p)
		}
		compiled = append(compiled, re)
	}

	first := sampleName(zones[0])
	anyMatch := false
	for _, re := range compiled {
		if re.MatchString(first) {
			anyMatch = true
			break
		}
	}
	if !anyMatch {
		return []*groupSet{{members: zones}}, nil
	}

	byValue := map[int]*groupSet{}
	var order []int
	for _, z := range zones {
		name := sampleName(z)
		matched := false
		for _, re := range compiled {
			m := re.FindStringSubmatch(name)
			if m == nil {
				continue
			}
			value, err := strconv.Atoi(m[1])
			if err != nil {
				continue
			}
			set, ok := byValue[value]
			if !ok {
				set = &groupSet{value: value}
				byValue[value] = set
				order = append(order, value)
			}
			set.members = append(set.members, z)
			matched = true
			break
		}
		if !matched {
			return nil, newMultisampleError("IDS_KEYMAP_NO_PATTERN_MATCH", name)
		}
	}

	sort.Ints(order)
	out := make([]*groupSet, 0, len(order))
	for _, v := range order {
		out = append(out, byValue[v])
	}
	return out, nil
}

// detectNotes resolves a MIDI note per sample: embedded metadata first, then
// the filename heuristics. All-identical embedded notes indicate meaningless
// metadata and disqualify that source, except for a single sample or a
// candidate stereo pair.
func detectNotes(zones []*multisample.SampleZone) (map[*multisample.SampleZone]int, error) {
	if notes, ok := embeddedNotes(zones); ok {
		return notes, nil
	}

	var best *noteCandidate
	tried := make([]string, 0, len(noteMaps)+1)
	tried = append(tried, "embedded")

	for _, m := range noteMaps {
		tried = append(tried, m.Name())
		notes := map[*multisample.SampleZone]int{}
		total := 0
		ok := true
		for _, z := range zones {
			note, matched, found := m.Find(sampleName(z))
			if !found {
				ok = false
				break
			}
			notes[z] = note
			total += matched
		}
		if !ok {
			continue
		}
		c := &noteCandidate{
			notes:      notes,
			distinct:   distinctNotes(notes),
			consistent: channelsConsistent(notes),
			matchedLen: total,
		}
		if c.better(best) {
			best = c
		}
	}
	if best == nil {
		return nil, newMultisampleError("IDS_KEYMAP_NO_KEY_MAP", strings.Join(tried, ", "))
	}
	return best.notes, nil
}

// noteCandidate is one key map that matched every sample, scored for the
// tie-breaks between simultaneously plausible naming schemes.
type noteCandidate struct {
	notes      map[*multisample.SampleZone]int
	distinct   int
	consistent bool
	matchedLen int
}

// better prefers more distinct notes, then consistent channel profiles, then
// the shorter total matched length. Shorter matches mean more specific
// tokens and fewer coincidental substring hits.
func (c *noteCandidate) better(best *noteCandidate) bool {
	if best == nil {
		return true
	}
	if c.distinct != best.distinct {
		return c.distinct > best.distinct
	}
	if c.consistent != best.consistent {
		return c.consistent
	}
	return c.matchedLen < best.matchedLen
}

func embeddedNotes(zones []*multisample.SampleZone) (map[*multisample.SampleZone]int, bool) {
	notes := map[*multisample.SampleZone]int{}
	for _, z := range zones {
		if z.KeyRoot < 0 || z.KeyRoot > 127 {
			return nil, false
		}
		notes[z] = z.KeyRoot
	}
	// A flat set of identical notes means the writer never filled the field
	// in. One sample, or two forming a potential stereo pair, stays valid.
	if distinctNotes(notes) == 1 && len(zones) > 2 {
		return nil, false
	}
	return notes, true
}

func distinctNotes(notes map[*multisample.SampleZone]int) int {
	seen := map[int]bool{}
	for _, n := range notes {
		seen[n] = true
	}
	return len(seen)
}

// channelsConsistent reports whether every note sees the same channel-count
// profile. A map that finds 2 mono files on one note and 1 stereo file on
// another matched something coincidental.
func channelsConsistent(notes map[*multisample.SampleZone]int) bool {
	profiles := map[int][]int{}
	for z, n := range notes {
		profiles[n] = append(profiles[n], z.Channels)
	}
	var ref []int
	for _, p := range profiles {
		sort.Ints(p)
		if ref == nil {
			ref = p
			continue
		}
		if len(p) != len(ref) {
			return false
		}
		for i := range p {
			if p[i] != ref[i] {
				return false
			}
		}
	}
	return true
}

// reconcileStereo turns the note assignment into one zone per note. A
// uniform two-samples-per-note layout is combined into stereo zones via the
// left-channel patterns; any other uneven layout is unmappable.
func reconcileStereo(zones []*multisample.SampleZone, notes map[*multisample.SampleZone]int, leftPatterns []string) ([]*multisample.SampleZone, error) {
	perNote := map[int][]*multisample.SampleZone{}
	for _, z := range zones {
		n := notes[z]
		perNote[n] = append(perNote[n], z)
	}

	count := -1
	for _, members := range perNote {
		if count < 0 {
			count = len(members)
			continue
		}
		if len(members) != count {
			for n, m := range perNote {
				if len(m) != count {
					return nil, newMultisampleError("IDS_KEYMAP_INCONSISTENT_SAMPLE_COUNT", n, len(m), count)
				}
			}
		}
	}

	var out []*multisample.SampleZone
	switch count {
	case 1:
		for n, members := range perNote {
			members[0].KeyRoot = n
			out = append(out, members[0])
		}
	case 2:
		for n, members := range perNote {
			combined, err := combinePair(members[0], members[1], leftPatterns)
			if err != nil {
				return nil, err
			}
			combined.KeyRoot = n
			out = append(out, combined)
		}
	default:
		return nil, newMultisampleError("IDS_KEYMAP_INCONSISTENT_SAMPLE_COUNT", firstNote(perNote), count, 1)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].KeyRoot < out[j].KeyRoot })
	return out, nil
}

func firstNote(perNote map[int][]*multisample.SampleZone) int {
	for n := range perNote {
		return n
	}
	return -1
}

// combinePair merges two mono samples sharing a note into one stereo zone.
// The left file is identified by pattern, suffix match before substring
// match, and lends the pair its name with the pattern stripped.
func combinePair(a, b *multisample.SampleZone, leftPatterns []string) (*multisample.SampleZone, error) {
	for _, z := range []*multisample.SampleZone{a, b} {
		if z.Channels > 1 {
			return nil, newMultisampleError("IDS_KEYMAP_NOT_MONO", sampleName(z), z.Channels)
		}
	}

	left, right, pattern := matchLeft(a, b, leftPatterns, strings.HasSuffix)
	if left == nil {
		left, right, pattern = matchLeft(a, b, leftPatterns, strings.Contains)
	}
	if left == nil {
		return nil, newCombinationError("IDS_KEYMAP_LEFT_CHANNEL_NOT_FOUND", sampleName(a), sampleName(b))
	}

	left.Name = strings.Replace(sampleName(left), pattern, "", 1)
	left.Channels = 2
	left.RightSampleFile = right.SampleFile
	left.RightData = right.Data
	return left, nil
}

func matchLeft(a, b *multisample.SampleZone, patterns []string, match func(s, pat string) bool) (left, right *multisample.SampleZone, pattern string) {
	for _, pat := range patterns {
		if match(sampleName(a), pat) {
			return a, b, pat
		}
		if match(sampleName(b), pat) {
			return b, a, pat
		}
	}
	return nil, nil, ""
}

// synthesizeKeyRanges spreads sorted zones over the full keyboard: the low
// bound of each zone sits just above the midpoint to its lower neighbor, the
// outermost zones absorb 0 and 127.
func synthesizeKeyRanges(zones []*multisample.SampleZone) {
	for i, z := range zones {
		if i == 0 {
			z.KeyLow = 0
		} else {
			prev := zones[i-1]
			prev.KeyHigh = (prev.KeyRoot + z.KeyRoot) / 2
			z.KeyLow = prev.KeyHigh + 1
		}
	}
	if len(zones) > 0 {
		zones[len(zones)-1].KeyHigh = 127
	}
}

// synthesizeNoteCrossfades overlaps adjacent zones by up to width notes. The
// gap between roots caps the width; the high side takes the extra note of an
// odd split.
func synthesizeNoteCrossfades(zones []*multisample.SampleZone, width int) {
	if width <= 0 {
		return
	}
	for i := 1; i < len(zones); i++ {
		low, high := zones[i-1], zones[i]
		gap := high.KeyRoot - low.KeyRoot
		fade := gap - 1
		if fade > width {
			fade = width
		}
		if fade <= 0 {
			continue
		}
		down := fade / 2
		up := fade - down
		low.KeyHigh += up
		low.NoteCrossfadeHigh = up
		high.KeyLow -= down
		high.NoteCrossfadeLow = down
	}
}

// orderGroups names the groups "Group 1".."Group N" in ascending or
// descending group-value order.
func orderGroups(groups []*multisample.Group, sets []*groupSet, ascending bool) {
	if !ascending {
		for i, j := 0, len(groups)-1; i < j; i, j = i+1, j-1 {
			groups[i], groups[j] = groups[j], groups[i]
		}
	}
	for i, g := range groups {
		g.Name = "Group " + strconv.Itoa(i+1)
	}
}

// applyVelocityLayers stacks the groups over the velocity axis. Integer
// division shortchanges the top layer, so the last group's ceiling is forced
// to 127; its high crossfade stays zero because nothing sits above it.
func applyVelocityLayers(groups []*multisample.Group, crossfade int) {
	count := len(groups)
	if count == 0 {
		return
	}
	span := 127 / count
	fade := crossfade
	if fade > span-1 {
		fade = span - 1
	}
	if fade < 0 {
		fade = 0
	}
	for i, g := range groups {
		low := i * span
		high := (i+1)*span - 1
		last := i == count-1
		if last {
			high = 127
		}
		fadeHigh := 0
		if !last && fade > 0 {
			high += fade
			fadeHigh = fade
		}
		fadeLow := 0
		if i > 0 {
			fadeLow = fade
		}
		for _, z := range g.Zones {
			z.VelocityLow = low
			z.VelocityHigh = high
			z.VelocityCrossfadeLow = fadeLow
			z.VelocityCrossfadeHigh = fadeHigh
		}
	}
}

// sampleName returns the bare filename a heuristic should see: no directory,
// no extension.
func sampleName(z *multisample.SampleZone) string {
	name := z.Name
	if z.SampleFile != "" {
		name = filepath.Base(z.SampleFile)
	}
	return strings.TrimSuffix(name, filepath.Ext(name))
}
