package chunk

// RIFFChunk is one tagged, length-prefixed block of a RIFF stream: a 4-byte
// ID, a 32-bit size and the payload. LIST/RIFF group chunks carry their
// 4-byte form type as the first payload bytes; Sub splits them further.
type RIFFChunk struct {
	ID   string
	Data []byte
}

// ReadRIFFChunk consumes the next chunk from r. The declared size is
// validated against the remaining bytes, and the word-alignment pad byte
// following an odd-sized chunk is skipped.
func ReadRIFFChunk(r *Reader) (RIFFChunk, error) {
	start := r.Offset()
	idBytes, err := r.Bytes(4)
	if err != nil {
		return RIFFChunk{}, err
	}
	id := string(idBytes)
	size, err := r.Uint32()
	if err != nil {
		return RIFFChunk{}, err
	}
	if int(size) > r.Available() {
		return RIFFChunk{}, NewParseError("IDS_ERR_CHUNK_SIZE_EXCEEDS_STREAM", start, id, size, r.Available())
	}
	data, err := r.Bytes(int(size))
	if err != nil {
		return RIFFChunk{}, err
	}
	if size%2 == 1 && r.Available() > 0 {
		if err := r.Skip(1); err != nil {
			return RIFFChunk{}, err
		}
	}
	return RIFFChunk{ID: id, Data: data}, nil
}

// Sub interprets a group chunk (RIFF/LIST): it returns the 4-byte form type
// and a reader over the contained sub-chunks.
func (c RIFFChunk) Sub() (string, *Reader, error) {
	r := NewReader(c.Data)
	form, err := r.Bytes(4)
	if err != nil {
		return "", nil, err
	}
	return string(form), r, nil
}
