package nicontainer

import (
	"github.com/zurustar/sampleconv/pkg/chunk"
	"github.com/zurustar/sampleconv/pkg/fastlz"
)

// RawData preserves the payload of chunk types this package does not decode.
// Several fields in the wild hold dates, UUIDs or constants nobody
// validates; store-and-replay keeps them intact.
type RawData struct {
	typeID ChunkType
	Bytes  []byte
}

func (d *RawData) Type() ChunkType { return d.typeID }

func (d *RawData) Read(r *chunk.Reader) error {
	b, err := r.Bytes(r.Available())
	if err != nil {
		return err
	}
	d.Bytes = append([]byte(nil), b...)
	return nil
}

func (d *RawData) Write(w *chunk.Writer) error {
	w.PutBytes(d.Bytes)
	return nil
}

// TerminatorData is the empty payload closing an item list.
type TerminatorData struct{}

func (d *TerminatorData) Type() ChunkType           { return ChunkTerminator }
func (d *TerminatorData) Read(*chunk.Reader) error  { return nil }
func (d *TerminatorData) Write(*chunk.Writer) error { return nil }

// AuthoringApplicationID identifies the NI tool that wrote the container.
type AuthoringApplicationID uint32

const (
	AppGuitarRig     AuthoringApplicationID = 1
	AppKontakt       AuthoringApplicationID = 2
	AppKore          AuthoringApplicationID = 3
	AppReaktor       AuthoringApplicationID = 4
	AppMaschine      AuthoringApplicationID = 5
	AppBattery       AuthoringApplicationID = 6
	AppKompleteKtrl  AuthoringApplicationID = 7
	AppTraktor       AuthoringApplicationID = 8
)

func (a AuthoringApplicationID) String() string {
	switch a {
	case AppGuitarRig:
		return "Guitar Rig"
	case AppKontakt:
		return "Kontakt"
	case AppKore:
		return "Kore"
	case AppReaktor:
		return "Reaktor"
	case AppMaschine:
		return "Maschine"
	case AppBattery:
		return "Battery"
	case AppKompleteKtrl:
		return "Komplete Kontrol"
	case AppTraktor:
		return "Traktor"
	default:
		return "Unknown"
	}
}

// AuthoringApplicationData names the application and version that produced
// the file.
type AuthoringApplicationData struct {
	Version     uint32
	Application AuthoringApplicationID
	AppVersion  string
}

func (d *AuthoringApplicationData) Type() ChunkType { return ChunkAuthoringApplication }

func (d *AuthoringApplicationData) Read(r *chunk.Reader) error {
	var err error
	if d.Version, err = r.Uint32(); err != nil {
		return err
	}
	app, err := r.Uint32()
	if err != nil {
		return err
	}
	d.Application = AuthoringApplicationID(app)
	d.AppVersion, err = r.UTF16String()
	return err
}

func (d *AuthoringApplicationData) Write(w *chunk.Writer) error {
	w.PutUint32(d.Version)
	w.PutUint32(uint32(d.Application))
	return w.PutUTF16String(d.AppVersion)
}

// dictionary is the shared layout of dictionary-style chunks: a version, a
// dictionary type, exactly one sized item, and trailing padding/checksum
// words that are read but never validated.
type dictionary struct {
	Version  uint32
	DictType uint32
	Payload  []byte
	Reserved uint32
	Padding  uint32
	Checksum uint32
}

func readDictionary(r *chunk.Reader) (*dictionary, error) {
	d := &dictionary{}
	var err error
	if d.Version, err = r.Uint32(); err != nil {
		return nil, err
	}
	if d.DictType, err = r.Uint32(); err != nil {
		return nil, err
	}
	itemCount, err := r.Uint32()
	if err != nil {
		return nil, err
	}
	// A format limitation, not a recoverable case: multi-item
	// dictionaries have never been observed and have no defined layout.
	if itemCount != 1 {
		return nil, chunk.NewParseError("IDS_NKI_FOUND_MORE_THAN_ONE_ENTRY", r.Offset(), itemCount)
	}
	itemSize, err := r.Uint32()
	if err != nil {
		return nil, err
	}
	if d.Reserved, err = r.Uint32(); err != nil {
		return nil, err
	}
	payload, err := r.Bytes(int(itemSize))
	if err != nil {
		return nil, err
	}
	d.Payload = append([]byte(nil), payload...)
	if r.Available() >= 4 {
		if d.Padding, err = r.Uint32(); err != nil {
			return nil, err
		}
	}
	if r.Available() >= 4 {
		if d.Checksum, err = r.Uint32(); err != nil {
			return nil, err
		}
	}
	return d, nil
}

func (d *dictionary) write(w *chunk.Writer, payload []byte) {
	w.PutUint32(d.Version)
	w.PutUint32(d.DictType)
	w.PutUint32(1)
	w.PutUint32(uint32(len(payload)))
	w.PutUint32(d.Reserved)
	w.PutBytes(payload)
	w.PutUint32(d.Padding)
	w.PutUint32(d.Checksum)
}

// AuthorizationData carries the license product IDs. The checksum is
// replayed, not checked.
type AuthorizationData struct {
	dict *dictionary
	PIDs []uint32
}

func (d *AuthorizationData) Type() ChunkType { return ChunkAuthorization }

func (d *AuthorizationData) Read(r *chunk.Reader) error {
	dict, err := readDictionary(r)
	if err != nil {
		return err
	}
	d.dict = dict
	pr := chunk.NewReader(dict.Payload)
	count, err := pr.Uint32()
	if err != nil {
		return err
	}
	d.PIDs = d.PIDs[:0]
	for i := uint32(0); i < count; i++ {
		pid, err := pr.Uint32()
		if err != nil {
			return err
		}
		d.PIDs = append(d.PIDs, pid)
	}
	return nil
}

func (d *AuthorizationData) Write(w *chunk.Writer) error {
	if d.dict == nil {
		d.dict = &dictionary{Version: 1}
	}
	payload := chunk.NewWriter()
	payload.PutUint32(uint32(len(d.PIDs)))
	for _, pid := range d.PIDs {
		payload.PutUint32(pid)
	}
	d.dict.write(w, payload.Bytes())
	return nil
}

// SoundInfoData holds the display metadata of a preset: name, author,
// vendor, tag list and two key/value sections.
type SoundInfoData struct {
	Version    uint32
	Name       string
	Author     string
	Vendor     string
	Tags       []string
	Attributes []Property
	Properties []Property
}

// Property is one key/value entry of a sound info section.
type Property struct {
	Key   string
	Value string
}

func (d *SoundInfoData) Type() ChunkType { return ChunkSoundInfoItem }

func (d *SoundInfoData) Read(r *chunk.Reader) error {
	var err error
	if d.Version, err = r.Uint32(); err != nil {
		return err
	}
	if d.Name, err = r.UTF16String(); err != nil {
		return err
	}
	if d.Author, err = r.UTF16String(); err != nil {
		return err
	}
	if d.Vendor, err = r.UTF16String(); err != nil {
		return err
	}
	tagCount, err := r.Uint32()
	if err != nil {
		return err
	}
	d.Tags = d.Tags[:0]
	for i := uint32(0); i < tagCount; i++ {
		tag, err := r.UTF16String()
		if err != nil {
			return err
		}
		d.Tags = append(d.Tags, tag)
	}
	if d.Attributes, err = readProperties(r); err != nil {
		return err
	}
	d.Properties, err = readProperties(r)
	return err
}

func readProperties(r *chunk.Reader) ([]Property, error) {
	count, err := r.Uint32()
	if err != nil {
		return nil, err
	}
	props := make([]Property, 0, count)
	for i := uint32(0); i < count; i++ {
		key, err := r.UTF16String()
		if err != nil {
			return nil, err
		}
		value, err := r.UTF16String()
		if err != nil {
			return nil, err
		}
		props = append(props, Property{Key: key, Value: value})
	}
	return props, nil
}

func (d *SoundInfoData) Write(w *chunk.Writer) error {
	w.PutUint32(d.Version)
	for _, s := range []string{d.Name, d.Author, d.Vendor} {
		if err := w.PutUTF16String(s); err != nil {
			return err
		}
	}
	w.PutUint32(uint32(len(d.Tags)))
	for _, tag := range d.Tags {
		if err := w.PutUTF16String(tag); err != nil {
			return err
		}
	}
	if err := writeProperties(w, d.Attributes); err != nil {
		return err
	}
	return writeProperties(w, d.Properties)
}

func writeProperties(w *chunk.Writer, props []Property) error {
	w.PutUint32(uint32(len(props)))
	for _, p := range props {
		if err := w.PutUTF16String(p.Key); err != nil {
			return err
		}
		if err := w.PutUTF16String(p.Value); err != nil {
			return err
		}
	}
	return nil
}

// SubTreeData nests a complete container tree, optionally FastLZ-compressed.
// Decompression failure or a size mismatch is fatal; there is no partial
// recovery for a damaged subtree.
type SubTreeData struct {
	Compressed bool
	Tree       *Item
}

func (d *SubTreeData) Type() ChunkType { return ChunkSubTreeItem }

func (d *SubTreeData) Read(r *chunk.Reader) error {
	flag, err := r.Uint8()
	if err != nil {
		return err
	}
	d.Compressed = flag != 0
	var raw []byte
	if d.Compressed {
		uncompressedSize, err := r.Uint32()
		if err != nil {
			return err
		}
		compressedSize, err := r.Uint32()
		if err != nil {
			return err
		}
		packed, err := r.Bytes(int(compressedSize))
		if err != nil {
			return err
		}
		if raw, err = fastlz.Decompress(packed, int(uncompressedSize)); err != nil {
			return chunk.NewParseError("IDS_NKI_COMPRESSED_SIZE_MISMATCH", r.Offset(), len(packed), uncompressedSize)
		}
	} else {
		size, err := r.Uint32()
		if err != nil {
			return err
		}
		if raw, err = r.Bytes(int(size)); err != nil {
			return err
		}
	}
	d.Tree, err = ReadItem(chunk.NewReader(raw))
	return err
}

func (d *SubTreeData) Write(w *chunk.Writer) error {
	tree := chunk.NewWriter()
	if d.Tree != nil {
		if err := WriteItem(tree, d.Tree); err != nil {
			return err
		}
	}
	raw := tree.Bytes()
	if d.Compressed {
		packed := fastlz.Compress(raw)
		w.PutUint8(1)
		w.PutUint32(uint32(len(raw)))
		w.PutUint32(uint32(len(packed)))
		w.PutBytes(packed)
		return nil
	}
	w.PutUint8(0)
	w.PutUint32(uint32(len(raw)))
	w.PutBytes(raw)
	return nil
}
