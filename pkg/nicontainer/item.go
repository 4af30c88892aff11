// Package nicontainer decodes and re-encodes the Native Instruments
// container format used by NKI/NKX/NKM files: a recursive tree of versioned,
// typed, optionally FastLZ-compressed chunks, bottoming out in typed chunk
// data (authoring application, sound info, preset data, file lists).
package nicontainer

import (
	"github.com/zurustar/sampleconv/pkg/chunk"
)

// ChunkType identifies the payload decoder of a container item.
type ChunkType uint32

const (
	ChunkTerminator             ChunkType = 1
	ChunkBNISoundPreset         ChunkType = 3
	ChunkBNISoundHeader         ChunkType = 4
	ChunkItem                   ChunkType = 100
	ChunkAuthoringApplication   ChunkType = 101
	ChunkAuthorization          ChunkType = 103
	ChunkSubTreeItem            ChunkType = 104
	ChunkSoundInfoItem          ChunkType = 106
	ChunkPresetChunkItem        ChunkType = 108
	ChunkExternalFileReference  ChunkType = 109
	ChunkResources              ChunkType = 110
	ChunkAudioSampleItem        ChunkType = 111
	ChunkInternalResourceRef    ChunkType = 112
	ChunkPictureItem            ChunkType = 113
	ChunkEncryptionItem         ChunkType = 114
	ChunkAppSpecific            ChunkType = 115
)

func (t ChunkType) String() string {
	switch t {
	case ChunkTerminator:
		return "Terminator"
	case ChunkBNISoundPreset:
		return "BNISoundPreset"
	case ChunkBNISoundHeader:
		return "BNISoundHeader"
	case ChunkItem:
		return "Item"
	case ChunkAuthoringApplication:
		return "AuthoringApplication"
	case ChunkAuthorization:
		return "Authorization"
	case ChunkSubTreeItem:
		return "SubTreeItem"
	case ChunkSoundInfoItem:
		return "SoundInfoItem"
	case ChunkPresetChunkItem:
		return "PresetChunkItem"
	case ChunkExternalFileReference:
		return "ExternalFileReference"
	case ChunkResources:
		return "Resources"
	case ChunkAudioSampleItem:
		return "AudioSampleItem"
	case ChunkInternalResourceRef:
		return "InternalResourceReference"
	case ChunkPictureItem:
		return "PictureItem"
	case ChunkEncryptionItem:
		return "EncryptionItem"
	case ChunkAppSpecific:
		return "AppSpecific"
	default:
		return "Unknown"
	}
}

// ChunkData is a typed item payload. Implementations must round-trip: Write
// re-emits exactly what Read consumed, including fields that are carried as
// opaque bytes.
type ChunkData interface {
	Type() ChunkType
	Read(r *chunk.Reader) error
	Write(w *chunk.Writer) error
}

// dataDecoders maps a chunk type to its payload constructor. Types without
// an entry keep their payload as opaque bytes (RawData) so unknown chunks
// survive a round trip untouched.
var dataDecoders = map[ChunkType]func() ChunkData{
	ChunkTerminator:           func() ChunkData { return &TerminatorData{} },
	ChunkAuthoringApplication: func() ChunkData { return &AuthoringApplicationData{} },
	ChunkAuthorization:        func() ChunkData { return &AuthorizationData{} },
	ChunkSoundInfoItem:        func() ChunkData { return &SoundInfoData{} },
	ChunkSubTreeItem:          func() ChunkData { return &SubTreeData{} },
	ChunkPresetChunkItem:      func() ChunkData { return &PresetData{} },
}

// Item is one node of the container tree.
type Item struct {
	// Index is the child index within the parent; 0 for the root.
	Index uint32
	// DomainID is the item's 4-character domain tag (e.g. "NISD").
	DomainID string
	// TypeID selects the payload decoder.
	TypeID ChunkType
	// Version of the item header. Read and replayed, never validated.
	Version uint32

	Data     ChunkData
	Children []*Item
}

// ReadItem decodes one item and, recursively, its children.
func ReadItem(r *chunk.Reader) (*Item, error) {
	item := &Item{}
	var err error
	if item.Index, err = r.Uint32(); err != nil {
		return nil, err
	}
	domain, err := r.Bytes(4)
	if err != nil {
		return nil, err
	}
	item.DomainID = string(domain)
	typeID, err := r.Uint32()
	if err != nil {
		return nil, err
	}
	item.TypeID = ChunkType(typeID)
	if item.Version, err = r.Uint32(); err != nil {
		return nil, err
	}

	dataSize, err := r.Uint32()
	if err != nil {
		return nil, err
	}
	payload, err := r.Bytes(int(dataSize))
	if err != nil {
		return nil, err
	}
	if construct, ok := dataDecoders[item.TypeID]; ok {
		item.Data = construct()
	} else {
		item.Data = &RawData{typeID: item.TypeID}
	}
	if err := item.Data.Read(chunk.NewReader(payload)); err != nil {
		return nil, err
	}

	childCount, err := r.Uint32()
	if err != nil {
		return nil, err
	}
	for i := uint32(0); i < childCount; i++ {
		child, err := ReadItem(r)
		if err != nil {
			return nil, err
		}
		item.Children = append(item.Children, child)
	}
	return item, nil
}

// WriteItem encodes the item and its children.
func WriteItem(w *chunk.Writer, item *Item) error {
	w.PutUint32(item.Index)
	w.PutBytes([]byte(padDomain(item.DomainID)))
	w.PutUint32(uint32(item.TypeID))
	w.PutUint32(item.Version)

	data := chunk.NewWriter()
	if item.Data != nil {
		if err := item.Data.Write(data); err != nil {
			return err
		}
	}
	w.PutUint32(uint32(data.Len()))
	w.PutBytes(data.Bytes())

	w.PutUint32(uint32(len(item.Children)))
	for _, child := range item.Children {
		if err := WriteItem(w, child); err != nil {
			return err
		}
	}
	return nil
}

// padDomain widens short domain tags so PutFixedASCII never truncates the
// terminator into the tag.
func padDomain(s string) string {
	for len(s) < 4 {
		s += " "
	}
	return s[:4]
}

// Find returns the first item in the tree (depth-first, self included) whose
// type matches, or nil.
func (it *Item) Find(t ChunkType) *Item {
	if it.TypeID == t {
		return it
	}
	for _, child := range it.Children {
		if found := child.Find(t); found != nil {
			return found
		}
	}
	return nil
}

// FindAll returns every matching item in depth-first order, self included.
func (it *Item) FindAll(t ChunkType) []*Item {
	var out []*Item
	if it.TypeID == t {
		out = append(out, it)
	}
	for _, child := range it.Children {
		out = append(out, child.FindAll(t)...)
	}
	return out
}
