package nicontainer

import (
	"strings"
	"time"

	"github.com/zurustar/sampleconv/pkg/chunk"
)

// The file list has been re-encoded with every other NI tool generation.
// Each revision gets its own decode path selected by the leading version
// field; only the primitive readers are shared. Trailing sections appeared
// over time and old files simply end early, so everything past the main list
// is bounded by "bytes remain" checks, never by fixed field counts.

// SegmentType tags one typed path segment of a file entry.
type SegmentType uint32

const (
	SegmentDriveASCII  SegmentType = 0 // 2 bytes, colon-appended
	SegmentDriveUTF16  SegmentType = 1 // UTF-16 drive letter, colon-appended
	SegmentComponent   SegmentType = 2 // UTF-16 path component, slash-appended
	SegmentParentDir   SegmentType = 3 // "../", no payload
	SegmentFilename    SegmentType = 4 // UTF-16 filename, terminal
	SegmentFlag        SegmentType = 6 // seen with compressed samples, no payload
	SegmentFilenameNKX SegmentType = 8
	SegmentFilenameNKM SegmentType = 9
)

// FileKind distinguishes plain sample references from archive-typed
// terminal segments.
type FileKind int

const (
	FileRegular FileKind = iota
	FileNKX
	FileNKM
)

// FileEntry is one resolved path of the main list.
type FileEntry struct {
	Path string
	Kind FileKind
}

// FileList is the decoded payload of a FILENAME_LIST or FILENAME_LIST_EX
// chunk.
type FileList struct {
	Version uint32
	Ex      bool

	// FileCategory is the u32 marker following the EX version field.
	FileCategory uint32

	SampleFiles []FileEntry

	// Special files of the EX prefix.
	AbsoluteSourcePath string
	MonolithSourcePath string
	ResourceFile       string
	ResourceFolder     string

	// Special files of the EX trailing section.
	NKIFile             string
	WallpaperFile       string
	ImpulseResponseFile string

	// LastModified carries one timestamp per file when the trailing
	// section is present.
	LastModified []time.Time

	// ExtraPerFile is the undocumented u32 per file of the EX variant,
	// replayed verbatim.
	ExtraPerFile []uint32

	// EntryFlags holds the per-entry flag words of list version 2.
	EntryFlags []uint32
}

// ParseFileList decodes either file list chunk flavor.
func ParseFileList(pc *PresetChunk) (*FileList, error) {
	r := chunk.NewReader(pc.Data)
	switch pc.ID {
	case PresetChunkFilenameListEx:
		version, err := r.Uint16()
		if err != nil {
			return nil, err
		}
		if version != 2 {
			return nil, chunk.NewParseError("IDS_NKI5_UNSUPPORTED_FILELIST_VERSION", r.Offset(), version)
		}
		return parseFileListEx(r)
	case PresetChunkFilenameList:
		version, err := r.Uint32()
		if err != nil {
			return nil, err
		}
		switch version {
		case 0:
			return parseFileListV0(r)
		case 1:
			return parseFileListV1(r)
		case 2:
			return parseFileListV2(r)
		default:
			return nil, chunk.NewParseError("IDS_NKI5_UNSUPPORTED_FILELIST_VERSION", r.Offset(), version)
		}
	default:
		return nil, chunk.NewParseError("IDS_NKI5_UNSUPPORTED_FILELIST_VERSION", -1, uint32(pc.ID))
	}
}

// parseFileListV0 decodes the oldest generation: whole paths as plain
// UTF-16 strings, nothing else.
func parseFileListV0(r *chunk.Reader) (*FileList, error) {
	fl := &FileList{Version: 0}
	count, err := r.Uint32()
	if err != nil {
		return nil, err
	}
	for i := uint32(0); i < count; i++ {
		path, err := r.UTF16String()
		if err != nil {
			return nil, err
		}
		fl.SampleFiles = append(fl.SampleFiles, FileEntry{Path: path})
	}
	return fl, nil
}

// parseFileListV1 decodes segment-based entries plus the optional
// timestamp block.
func parseFileListV1(r *chunk.Reader) (*FileList, error) {
	fl := &FileList{Version: 1}
	if err := fl.readMainList(r); err != nil {
		return nil, err
	}
	if err := fl.readTimestamps(r); err != nil {
		return nil, err
	}
	return fl, nil
}

// parseFileListV2 is v1 with one flag word ahead of every entry.
func parseFileListV2(r *chunk.Reader) (*FileList, error) {
	fl := &FileList{Version: 2}
	count, err := r.Uint32()
	if err != nil {
		return nil, err
	}
	for i := uint32(0); i < count; i++ {
		flags, err := r.Uint32()
		if err != nil {
			return nil, err
		}
		fl.EntryFlags = append(fl.EntryFlags, flags)
		entry, err := readPathEntry(r)
		if err != nil {
			return nil, err
		}
		fl.SampleFiles = append(fl.SampleFiles, entry)
	}
	if err := fl.readTimestamps(r); err != nil {
		return nil, err
	}
	return fl, nil
}

// Special-file record tags of the EX prefix.
const (
	specialAbsoluteSource = 0
	specialMonolithSource = 1
	specialResourceFile   = 2
	specialResourceAndDir = 3
	specialEndOfPrefix    = 4
)

// Trailing-record tags of the EX suffix.
const (
	trailingNoMoreFilesA    = 0
	trailingNoMoreFilesB    = 1
	trailingNKIFilename     = 2
	trailingNKIAndWallpaper = 3
	trailingImpulseResponse = 7
)

func parseFileListEx(r *chunk.Reader) (*FileList, error) {
	fl := &FileList{Version: 2, Ex: true}
	var err error
	if fl.FileCategory, err = r.Uint32(); err != nil {
		return nil, err
	}

	// Special-files prefix: typed records until the terminator tag.
prefix:
	for {
		recordType, err := r.Uint32()
		if err != nil {
			return nil, err
		}
		switch recordType {
		case specialAbsoluteSource:
			if fl.AbsoluteSourcePath, err = readPathString(r); err != nil {
				return nil, err
			}
		case specialMonolithSource:
			if fl.MonolithSourcePath, err = readPathString(r); err != nil {
				return nil, err
			}
		case specialResourceFile:
			if fl.ResourceFile, err = readPathString(r); err != nil {
				return nil, err
			}
		case specialResourceAndDir:
			if fl.ResourceFile, err = readPathString(r); err != nil {
				return nil, err
			}
			if fl.ResourceFolder, err = readPathString(r); err != nil {
				return nil, err
			}
		case specialEndOfPrefix:
			break prefix
		default:
			return nil, chunk.NewParseError("IDS_NKI5_UNKNOWN_FILE_TYPE", r.Offset(), recordType)
		}
	}

	if err := fl.readMainList(r); err != nil {
		return nil, err
	}
	if err := fl.readTimestamps(r); err != nil {
		return nil, err
	}

	// One undocumented u32 per file, then more typed records. Older
	// writers stop anywhere in here, so every step re-checks the stream.
	if r.Available() >= 4*len(fl.SampleFiles) {
		for range fl.SampleFiles {
			v, err := r.Uint32()
			if err != nil {
				return nil, err
			}
			fl.ExtraPerFile = append(fl.ExtraPerFile, v)
		}
	}
	for r.Available() > 0 {
		recordType, err := r.Uint32()
		if err != nil {
			return nil, err
		}
		switch recordType {
		case trailingNoMoreFilesA, trailingNoMoreFilesB:
			return fl, nil
		case trailingNKIFilename:
			if fl.NKIFile, err = readPathString(r); err != nil {
				return nil, err
			}
		case trailingNKIAndWallpaper:
			if fl.NKIFile, err = readPathString(r); err != nil {
				return nil, err
			}
			if fl.WallpaperFile, err = readPathString(r); err != nil {
				return nil, err
			}
		case trailingImpulseResponse:
			// Single odd case with a 1-byte segment count.
			count, err := r.Uint8()
			if err != nil {
				return nil, err
			}
			entry, err := readSegments(r, int(count))
			if err != nil {
				return nil, err
			}
			fl.ImpulseResponseFile = entry.Path
		default:
			return nil, chunk.NewParseError("IDS_NKI5_UNKNOWN_FILE_TYPE", r.Offset(), recordType)
		}
	}
	return fl, nil
}

func (fl *FileList) readMainList(r *chunk.Reader) error {
	count, err := r.Uint32()
	if err != nil {
		return err
	}
	for i := uint32(0); i < count; i++ {
		entry, err := readPathEntry(r)
		if err != nil {
			return err
		}
		fl.SampleFiles = append(fl.SampleFiles, entry)
	}
	return nil
}

func (fl *FileList) readTimestamps(r *chunk.Reader) error {
	if r.Available() < 8*len(fl.SampleFiles) || len(fl.SampleFiles) == 0 {
		return nil
	}
	for range fl.SampleFiles {
		t, err := r.Time32()
		if err != nil {
			return err
		}
		if err := r.Skip(4); err != nil {
			return err
		}
		fl.LastModified = append(fl.LastModified, t)
	}
	return nil
}

func readPathEntry(r *chunk.Reader) (FileEntry, error) {
	count, err := r.Uint32()
	if err != nil {
		return FileEntry{}, err
	}
	return readSegments(r, int(count))
}

func readPathString(r *chunk.Reader) (string, error) {
	entry, err := readPathEntry(r)
	return entry.Path, err
}

// readSegments concatenates typed path segments. Segment length depends on
// the type, so an unknown tag cannot be skipped and is a hard error.
func readSegments(r *chunk.Reader, count int) (FileEntry, error) {
	var sb strings.Builder
	entry := FileEntry{}
	for i := 0; i < count; i++ {
		segType, err := r.Uint32()
		if err != nil {
			return FileEntry{}, err
		}
		switch SegmentType(segType) {
		case SegmentDriveASCII:
			b, err := r.Bytes(2)
			if err != nil {
				return FileEntry{}, err
			}
			sb.WriteString(strings.TrimRight(string(b), "\x00"))
			sb.WriteByte(':')
		case SegmentDriveUTF16:
			s, err := r.UTF16String()
			if err != nil {
				return FileEntry{}, err
			}
			sb.WriteString(s)
			sb.WriteByte(':')
		case SegmentComponent:
			s, err := r.UTF16String()
			if err != nil {
				return FileEntry{}, err
			}
			sb.WriteString(s)
			sb.WriteByte('/')
		case SegmentParentDir:
			sb.WriteString("../")
		case SegmentFilename:
			s, err := r.UTF16String()
			if err != nil {
				return FileEntry{}, err
			}
			sb.WriteString(s)
		case SegmentFlag:
			// No payload; purpose unknown.
		case SegmentFilenameNKX:
			s, err := r.UTF16String()
			if err != nil {
				return FileEntry{}, err
			}
			sb.WriteString(s)
			entry.Kind = FileNKX
		case SegmentFilenameNKM:
			s, err := r.UTF16String()
			if err != nil {
				return FileEntry{}, err
			}
			sb.WriteString(s)
			entry.Kind = FileNKM
		default:
			return FileEntry{}, chunk.NewParseError("IDS_NKI5_UNKNOWN_SEGMENT_TYPE", r.Offset(), segType)
		}
	}
	entry.Path = sb.String()
	return entry, nil
}

// BuildFileListEx encodes the main list as a FILENAME_LIST_EX chunk. The
// writer emits the modern layout only: version 2, empty special-file
// prefix, segmented paths, timestamps, per-file words and a terminating
// trailing record.
func BuildFileListEx(fl *FileList) (*PresetChunk, error) {
	w := chunk.NewWriter()
	w.PutUint16(2)
	w.PutUint32(fl.FileCategory)
	w.PutUint32(specialEndOfPrefix)
	w.PutUint32(uint32(len(fl.SampleFiles)))
	for _, entry := range fl.SampleFiles {
		if err := writePathEntry(w, entry); err != nil {
			return nil, err
		}
	}
	for i := range fl.SampleFiles {
		var t time.Time
		if i < len(fl.LastModified) {
			t = fl.LastModified[i]
		}
		w.PutUint32(uint32(t.Unix() & 0xFFFFFFFF))
		w.PutUint32(0)
	}
	for i := range fl.SampleFiles {
		var extra uint32
		if i < len(fl.ExtraPerFile) {
			extra = fl.ExtraPerFile[i]
		}
		w.PutUint32(extra)
	}
	w.PutUint32(trailingNoMoreFilesA)
	return &PresetChunk{ID: PresetChunkFilenameListEx, Data: w.Bytes()}, nil
}

// writePathEntry splits a slash-separated path back into typed segments.
func writePathEntry(w *chunk.Writer, entry FileEntry) error {
	var segs []func(*chunk.Writer) error
	rest := entry.Path

	if len(rest) >= 2 && rest[1] == ':' {
		drive := rest[:1]
		rest = rest[2:]
		rest = strings.TrimPrefix(rest, "/")
		segs = append(segs, func(w *chunk.Writer) error {
			w.PutUint32(uint32(SegmentDriveASCII))
			w.PutBytes([]byte{drive[0], 0})
			return nil
		})
	}
	parts := strings.Split(rest, "/")
	for i, part := range parts {
		part := part
		last := i == len(parts)-1
		switch {
		case part == "..":
			segs = append(segs, func(w *chunk.Writer) error {
				w.PutUint32(uint32(SegmentParentDir))
				return nil
			})
		case last:
			segType := SegmentFilename
			switch entry.Kind {
			case FileNKX:
				segType = SegmentFilenameNKX
			case FileNKM:
				segType = SegmentFilenameNKM
			}
			segs = append(segs, func(w *chunk.Writer) error {
				w.PutUint32(uint32(segType))
				return w.PutUTF16String(part)
			})
		case part == "":
			// Collapse duplicate separators.
		default:
			segs = append(segs, func(w *chunk.Writer) error {
				w.PutUint32(uint32(SegmentComponent))
				return w.PutUTF16String(part)
			})
		}
	}

	w.PutUint32(uint32(len(segs)))
	for _, write := range segs {
		if err := write(w); err != nil {
			return err
		}
	}
	return nil
}
