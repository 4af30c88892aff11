package keymap

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// A noteMap extracts a MIDI note from one filename. It returns the note, the
// length of the matched substring (used as a tie-breaker between competing
// maps) and whether anything matched at all.
type noteMap interface {
	Name() string
	Find(name string) (note int, matchedLen int, ok bool)
}

// noteMaps is the fixed strategy order: four note-name spellings, each bare
// and underscore-joined to the octave, then the two zero-padded numeric
// forms. C3 is MIDI note 48.
var noteMaps = buildNoteMaps()

var (
	namesFlatEN  = []string{"C", "DB", "D", "EB", "E", "F", "GB", "G", "AB", "A", "BB", "B"}
	namesSharpEN = []string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}
	namesFlatDE  = []string{"C", "DES", "D", "ES", "E", "F", "GES", "G", "AS", "A", "B", "H"}
	namesSharpDE = []string{"C", "CIS", "D", "DIS", "E", "F", "FIS", "G", "GIS", "A", "AIS", "H"}
)

func buildNoteMaps() []noteMap {
	var maps []noteMap
	for _, spelling := range []struct {
		name  string
		names []string
	}{
		{"flat", namesFlatEN},
		{"sharp", namesSharpEN},
		{"flat-de", namesFlatDE},
		{"sharp-de", namesSharpDE},
	} {
		maps = append(maps,
			newTokenNoteMap(spelling.name, spelling.names, ""),
			newTokenNoteMap(spelling.name+"-sep", spelling.names, "_"),
		)
	}
	maps = append(maps,
		&numericNoteMap{name: "2-digit", re: regexp.MustCompile(`(?:^|[^0-9])([0-9]{2})(?:[^0-9]|$)`), width: 2},
		&numericNoteMap{name: "3-digit", re: regexp.MustCompile(`(?:^|[^0-9])([0-9]{3})(?:[^0-9]|$)`), width: 3},
	)
	return maps
}

// tokenNoteMap matches note-name tokens like "C3" or "F#_2". Octave -1 maps
// to MIDI 0..11.
type tokenNoteMap struct {
	name   string
	tokens map[string]int
}

func newTokenNoteMap(name string, names []string, sep string) *tokenNoteMap {
	m := &tokenNoteMap{name: name + sep, tokens: map[string]int{}}
	for octave := -1; octave <= 9; octave++ {
		for semitone, noteName := range names {
			note := (octave+1)*12 + semitone
			if note > 127 {
				continue
			}
			m.tokens[noteName+sep+strconv.Itoa(octave)] = note
		}
	}
	return m
}

func (m *tokenNoteMap) Name() string { return m.name }

// Find keeps the rightmost match, preferring the longer token on a position
// tie. Scanning every token this way avoids false hits from prefixes ("A2"
// inside "Ab2").
func (m *tokenNoteMap) Find(name string) (int, int, bool) {
	upper := strings.ToUpper(name)
	bestPos, bestLen, bestNote := -1, 0, -1
	for token, note := range m.tokens {
		pos := strings.LastIndex(upper, token)
		if pos < 0 {
			continue
		}
		if pos > bestPos || (pos == bestPos && len(token) > bestLen) {
			bestPos, bestLen, bestNote = pos, len(token), note
		}
	}
	if bestPos < 0 {
		return 0, 0, false
	}
	return bestNote, bestLen, true
}

// numericNoteMap matches a zero-padded decimal note number of a fixed width,
// bounded by non-digits so "148" never yields "48".
type numericNoteMap struct {
	name  string
	re    *regexp.Regexp
	width int
}

func (m *numericNoteMap) Name() string { return fmt.Sprintf("%s numeric", m.name) }

func (m *numericNoteMap) Find(name string) (int, int, bool) {
	matches := m.re.FindAllStringSubmatch(name, -1)
	if len(matches) == 0 {
		return 0, 0, false
	}
	// Rightmost run wins, same rule as the token maps.
	last := matches[len(matches)-1]
	note, err := strconv.Atoi(last[1])
	if err != nil || note > 127 {
		return 0, 0, false
	}
	return note, m.width, true
}
