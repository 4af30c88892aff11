package nicontainer

import (
	"errors"
	"testing"
	"time"

	"github.com/zurustar/sampleconv/pkg/chunk"
)

func TestFileListExRoundTrip(t *testing.T) {
	src := &FileList{
		FileCategory: 2,
		SampleFiles: []FileEntry{
			{Path: "Samples/Piano_C3.wav"},
			{Path: "C:/Library/Grand/Piano_E3.wav"},
			{Path: "../Shared/Pad.wav"},
			{Path: "Monolith.nkx", Kind: FileNKX},
		},
		LastModified: []time.Time{
			time.Unix(1600000000, 0).UTC(),
			time.Unix(1600000001, 0).UTC(),
			time.Unix(1600000002, 0).UTC(),
			time.Unix(1600000003, 0).UTC(),
		},
		ExtraPerFile: []uint32{0, 1, 2, 3},
	}

	pc, err := BuildFileListEx(src)
	if err != nil {
		t.Fatalf("BuildFileListEx failed: %v", err)
	}
	if pc.ID != PresetChunkFilenameListEx {
		t.Fatalf("chunk ID = %#x", uint16(pc.ID))
	}

	got, err := ParseFileList(pc)
	if err != nil {
		t.Fatalf("ParseFileList failed: %v", err)
	}
	if !got.Ex {
		t.Error("Ex = false")
	}
	if got.FileCategory != 2 {
		t.Errorf("FileCategory = %d", got.FileCategory)
	}
	if len(got.SampleFiles) != 4 {
		t.Fatalf("files = %d", len(got.SampleFiles))
	}
	// Drive segments re-read without the separator after the colon.
	want := []FileEntry{
		{Path: "Samples/Piano_C3.wav"},
		{Path: "C:Library/Grand/Piano_E3.wav"},
		{Path: "../Shared/Pad.wav"},
		{Path: "Monolith.nkx", Kind: FileNKX},
	}
	for i := range want {
		if got.SampleFiles[i] != want[i] {
			t.Errorf("file %d = %+v, want %+v", i, got.SampleFiles[i], want[i])
		}
	}
	for i, want := range src.LastModified {
		if !got.LastModified[i].Equal(want) {
			t.Errorf("timestamp %d = %v, want %v", i, got.LastModified[i], want)
		}
	}
	for i, want := range src.ExtraPerFile {
		if got.ExtraPerFile[i] != want {
			t.Errorf("extra %d = %d, want %d", i, got.ExtraPerFile[i], want)
		}
	}
}

func TestFileListV0(t *testing.T) {
	w := chunk.NewWriter()
	w.PutUint32(0) // list version
	w.PutUint32(2) // file count
	w.PutUTF16String("C:\\Samples\\kick.wav")
	w.PutUTF16String("snare.wav")

	fl, err := ParseFileList(&PresetChunk{ID: PresetChunkFilenameList, Data: w.Bytes()})
	if err != nil {
		t.Fatal(err)
	}
	if len(fl.SampleFiles) != 2 || fl.SampleFiles[1].Path != "snare.wav" {
		t.Errorf("files = %+v", fl.SampleFiles)
	}
}

func TestFileListV1Segments(t *testing.T) {
	w := chunk.NewWriter()
	w.PutUint32(1) // list version
	w.PutUint32(1) // file count
	w.PutUint32(3) // segments
	w.PutUint32(uint32(SegmentDriveASCII))
	w.PutBytes([]byte{'D', 0})
	w.PutUint32(uint32(SegmentComponent))
	w.PutUTF16String("Samples")
	w.PutUint32(uint32(SegmentFilename))
	w.PutUTF16String("loop.wav")

	fl, err := ParseFileList(&PresetChunk{ID: PresetChunkFilenameList, Data: w.Bytes()})
	if err != nil {
		t.Fatal(err)
	}
	if len(fl.SampleFiles) != 1 || fl.SampleFiles[0].Path != "D:Samples/loop.wav" {
		t.Errorf("files = %+v", fl.SampleFiles)
	}
	// No timestamp block present.
	if len(fl.LastModified) != 0 {
		t.Errorf("timestamps = %v", fl.LastModified)
	}
}

func TestFileListV2EntryFlags(t *testing.T) {
	w := chunk.NewWriter()
	w.PutUint32(2)    // list version
	w.PutUint32(1)    // file count
	w.PutUint32(0x11) // per-entry flags
	w.PutUint32(1)    // segments
	w.PutUint32(uint32(SegmentFilename))
	w.PutUTF16String("hat.wav")

	fl, err := ParseFileList(&PresetChunk{ID: PresetChunkFilenameList, Data: w.Bytes()})
	if err != nil {
		t.Fatal(err)
	}
	if len(fl.EntryFlags) != 1 || fl.EntryFlags[0] != 0x11 {
		t.Errorf("entry flags = %v", fl.EntryFlags)
	}
	if fl.SampleFiles[0].Path != "hat.wav" {
		t.Errorf("path = %q", fl.SampleFiles[0].Path)
	}
}

func TestFileListUnsupportedVersion(t *testing.T) {
	w := chunk.NewWriter()
	w.PutUint16(3) // EX version, only 2 is defined

	_, err := ParseFileList(&PresetChunk{ID: PresetChunkFilenameListEx, Data: w.Bytes()})
	var pe *chunk.ParseError
	if !errors.As(err, &pe) || pe.Key != "IDS_NKI5_UNSUPPORTED_FILELIST_VERSION" {
		t.Errorf("err = %v", err)
	}
}

func TestFileListExUnknownSpecialType(t *testing.T) {
	w := chunk.NewWriter()
	w.PutUint16(2) // EX version
	w.PutUint32(0) // file category
	w.PutUint32(9) // unknown special-file record type

	_, err := ParseFileList(&PresetChunk{ID: PresetChunkFilenameListEx, Data: w.Bytes()})
	var pe *chunk.ParseError
	if !errors.As(err, &pe) || pe.Key != "IDS_NKI5_UNKNOWN_FILE_TYPE" {
		t.Errorf("err = %v", err)
	}
}

func TestFileListUnknownSegmentType(t *testing.T) {
	w := chunk.NewWriter()
	w.PutUint32(1)  // list version
	w.PutUint32(1)  // file count
	w.PutUint32(1)  // segments
	w.PutUint32(77) // unknown segment type

	_, err := ParseFileList(&PresetChunk{ID: PresetChunkFilenameList, Data: w.Bytes()})
	var pe *chunk.ParseError
	if !errors.As(err, &pe) || pe.Key != "IDS_NKI5_UNKNOWN_SEGMENT_TYPE" {
		t.Errorf("err = %v", err)
	}
}

func TestFileListExSpecialPrefix(t *testing.T) {
	w := chunk.NewWriter()
	w.PutUint16(2) // EX version
	w.PutUint32(0) // file category

	w.PutUint32(specialMonolithSource)
	w.PutUint32(1) // segments
	w.PutUint32(uint32(SegmentFilename))
	w.PutUTF16String("Source.nki")

	w.PutUint32(specialEndOfPrefix)
	w.PutUint32(0) // empty main list

	fl, err := ParseFileList(&PresetChunk{ID: PresetChunkFilenameListEx, Data: w.Bytes()})
	if err != nil {
		t.Fatal(err)
	}
	if fl.MonolithSourcePath != "Source.nki" {
		t.Errorf("monolith source = %q", fl.MonolithSourcePath)
	}
}
