// Package messages maps stable message-key identifiers to human-readable
// error text. The keys themselves are the stable error taxonomy; the text is
// presentation only and may be localized by swapping the table.
package messages

import "fmt"

var table = map[string]string{
	"IDS_ERR_STREAM_TRUNCATED":              "stream truncated: need %d more byte(s)",
	"IDS_ERR_CHUNK_SIZE_EXCEEDS_STREAM":     "chunk '%s' declares %d bytes but only %d remain",
	"IDS_ERR_INVALID_RECORD_LENGTH":         "chunk '%s' size %d is not a multiple of the record length %d",
	"IDS_ERR_STRING_NOT_TERMINATED":         "fixed string of %d bytes is not null-terminated",
	"IDS_SF2_UNSUPPORTED_RIFF_FORMAT":       "not a SoundFont 2 file: RIFF format is '%s'",
	"IDS_SF2_MISSING_SAMPLE_ID":             "instrument zone %d has no sample generator",
	"IDS_SF2_SAMPLE_INDEX_OUT_OF_RANGE":     "sample index %d out of range (have %d samples)",
	"IDS_SF2_INSTRUMENT_INDEX_OUT_OF_RANGE": "instrument index %d out of range (have %d instruments)",
	"IDS_SF2_BAD_ZONE_INDEX":                "zone table index %d out of range (table has %d records)",
	"IDS_NKI_FOUND_MORE_THAN_ONE_ENTRY":     "dictionary chunk contains %d items, only 1 is supported",
	"IDS_NKI_UNKNOWN_CHUNK_TYPE":            "unknown container chunk type %d",
	"IDS_NKI_COMPRESSED_SIZE_MISMATCH":      "decompressed %d bytes, expected %d",
	"IDS_NKI5_UNSUPPORTED_FILELIST_VERSION": "unsupported file list version %d",
	"IDS_NKI5_UNKNOWN_FILE_TYPE":            "unknown special file type %d",
	"IDS_NKI5_UNKNOWN_SEGMENT_TYPE":         "unknown path segment type %d",
	"IDS_NKI5_UNKNOWN_PRESET_CHUNK":         "unknown preset chunk ID 0x%02X",
	"IDS_NKI5_NO_PROGRAM_FOUND":             "container holds no program chunk",
	"IDS_NKI5_FILE_INDEX_OUT_OF_RANGE":      "zone references file %d, list has %d entries",
	"IDS_KEYMAP_NO_PATTERN_MATCH":           "filename %q matches no group pattern",
	"IDS_KEYMAP_NO_KEY_MAP":                 "no note detection strategy matched all filenames (tried: %s)",
	"IDS_KEYMAP_INCONSISTENT_SAMPLE_COUNT":  "note %d has %d samples, expected %d",
	"IDS_KEYMAP_LEFT_CHANNEL_NOT_FOUND":     "no left-channel pattern matches %q / %q",
	"IDS_KEYMAP_NOT_MONO":                   "sample %q has %d channels, stereo pairing needs mono input",
	"IDS_TENTEN_MISSING_SESSION":            "preset document has no session element",
}

// Get resolves a message key and interpolates the arguments. Unknown keys are
// returned verbatim with the arguments appended, so a missing table entry
// still yields a usable error line.
func Get(key string, args ...any) string {
	format, ok := table[key]
	if !ok {
		if len(args) == 0 {
			return key
		}
		return fmt.Sprintf("%s %v", key, args)
	}
	return fmt.Sprintf(format, args...)
}
