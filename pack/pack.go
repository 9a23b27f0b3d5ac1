// Package pack bundles several voxel models into one .voxpack file.
//
// A pack starts with the magic "VOXQPACK", a version byte and a compression
// byte. The (optionally compressed) content that follows opens with a layout
// byte. The raw layout stores every model file back to back; the CDC layout
// splits them into content-defined chunks and stores each unique chunk once,
// which pays off for collections of similar models.
package pack

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
	"github.com/voxelsplace/voxquad/vox"
)

const (
	magic   = "VOXQPACK"
	version = 1

	maxNameLen = 0xFFFF
)

var (
	// ErrInvalidPack is returned for data that is not a well formed pack.
	ErrInvalidPack = errors.New("invalid voxpack")

	// ErrUnsupported is returned for unknown versions, layouts or codecs.
	ErrUnsupported = errors.New("unsupported voxpack feature")
)

// Layout is how the content section stores entries.
type Layout uint8

const (
	// LayoutRaw stores each entry as one length-prefixed blob.
	LayoutRaw Layout = 0
	// LayoutCDC stores a chunk dictionary and each entry as chunk references.
	LayoutCDC Layout = 1
)

func (l Layout) String() string {
	switch l {
	case LayoutRaw:
		return "raw"
	case LayoutCDC:
		return "cdc"
	default:
		return "unknown"
	}
}

// ParseLayout maps "raw" or "cdc" to its Layout.
func ParseLayout(s string) (Layout, error) {
	switch s {
	case "raw":
		return LayoutRaw, nil
	case "cdc":
		return LayoutCDC, nil
	default:
		return 0, errors.Wrapf(ErrUnsupported, "layout %q", s)
	}
}

// Entry is one named model file inside a pack.
type Entry struct {
	Name string
	Data []byte
}

// Pack is an ordered collection of named model files.
type Pack struct {
	Entries []Entry
}

// Add encodes g and appends it under name.
func (p *Pack) Add(name string, g *vox.VoxelGrid) error {
	if len(name) > maxNameLen {
		return errors.Errorf("entry name too long: %d bytes", len(name))
	}
	p.Entries = append(p.Entries, Entry{Name: name, Data: vox.EncodeToBytes(g)})
	return nil
}

// Len returns the number of entries.
func (p *Pack) Len() int {
	return len(p.Entries)
}

// Model decodes the i-th entry.
func (p *Pack) Model(i int) (*vox.VoxelGrid, error) {
	if i < 0 || i >= len(p.Entries) {
		return nil, errors.Errorf("entry %d out of range [0,%d)", i, len(p.Entries))
	}
	g, err := vox.DecodeBytes(p.Entries[i].Data)
	return g, errors.Wrapf(err, "decoding entry %q", p.Entries[i].Name)
}

// Marshal encodes the pack with the given layout and compression.
func (p *Pack) Marshal(layout Layout, comp Compression) ([]byte, error) {
	for _, e := range p.Entries {
		if len(e.Name) > maxNameLen {
			return nil, errors.Errorf("entry name too long: %d bytes", len(e.Name))
		}
	}

	var content bytes.Buffer
	w := writer{&content}
	w.u8(uint8(layout))

	switch layout {
	case LayoutRaw:
		w.u32(uint32(len(p.Entries)))
		for _, e := range p.Entries {
			w.name(e.Name)
			w.u32(uint32(len(e.Data)))
			content.Write(e.Data)
		}

	case LayoutCDC:
		w.u32(chunkTarget)
		w.u32(chunkMin)
		w.u32(chunkMax)

		dict, seqs := buildChunkIndex(p.Entries)
		w.u32(uint32(len(dict)))
		for _, b := range dict {
			w.u32(uint32(len(b)))
			content.Write(b)
		}

		w.u32(uint32(len(p.Entries)))
		for i, e := range p.Entries {
			w.name(e.Name)
			w.u32(uint32(len(e.Data)))
			w.u32(uint32(len(seqs[i])))
			for _, idx := range seqs[i] {
				w.u32(uint32(idx))
			}
		}

	default:
		return nil, errors.Wrapf(ErrUnsupported, "layout %d", layout)
	}

	body, err := compress(comp, content.Bytes())
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, len(magic)+2+len(body))
	out = append(out, magic...)
	out = append(out, version, uint8(comp))
	return append(out, body...), nil
}

// Unmarshal parses a pack and reports the compression it was stored with.
func Unmarshal(data []byte) (*Pack, Compression, error) {
	if len(data) < len(magic)+2 || string(data[:len(magic)]) != magic {
		return nil, 0, errors.Wrap(ErrInvalidPack, "bad magic")
	}
	if v := data[len(magic)]; v != version {
		return nil, 0, errors.Wrapf(ErrUnsupported, "version %d", v)
	}
	comp := Compression(data[len(magic)+1])

	content, err := decompress(comp, data[len(magic)+2:])
	if err != nil {
		return nil, 0, err
	}

	r := reader{r: bytes.NewReader(content)}
	layout := Layout(r.u8())
	if r.err != nil {
		return nil, 0, r.fail("layout")
	}

	var p *Pack
	switch layout {
	case LayoutRaw:
		p, err = readRaw(&r)
	case LayoutCDC:
		p, err = readCDC(&r)
	default:
		return nil, 0, errors.Wrapf(ErrUnsupported, "layout %d", layout)
	}
	if err != nil {
		return nil, 0, err
	}
	return p, comp, nil
}

func readRaw(r *reader) (*Pack, error) {
	n := r.u32()
	if r.err != nil {
		return nil, r.fail("entry count")
	}

	p := &Pack{}
	for i := uint32(0); i < n; i++ {
		name := r.name()
		data := r.bytes(r.u32())
		if r.err != nil {
			return nil, r.fail("entry %d", i)
		}
		p.Entries = append(p.Entries, Entry{Name: name, Data: data})
	}
	return p, nil
}

func readCDC(r *reader) (*Pack, error) {
	r.u32() // target
	r.u32() // min
	maxSize := r.u32()
	nBlocks := r.u32()
	if r.err != nil {
		return nil, r.fail("chunk parameters")
	}

	var blocks [][]byte
	for i := uint32(0); i < nBlocks; i++ {
		b := r.bytes(r.u32())
		if r.err != nil {
			return nil, r.fail("chunk %d", i)
		}
		blocks = append(blocks, b)
	}

	n := r.u32()
	if r.err != nil {
		return nil, r.fail("entry count")
	}

	p := &Pack{}
	for i := uint32(0); i < n; i++ {
		name := r.name()
		rawLen := r.u32()
		seqLen := r.u32()
		if r.err != nil {
			return nil, r.fail("entry %d", i)
		}

		var data []byte
		for j := uint32(0); j < seqLen; j++ {
			idx := r.u32()
			if r.err != nil {
				return nil, r.fail("entry %d chunks", i)
			}
			if idx >= nBlocks {
				return nil, errors.Wrapf(ErrInvalidPack, "entry %q references chunk %d of %d", name, idx, nBlocks)
			}
			data = append(data, blocks[idx]...)
			if uint64(len(data)) > uint64(rawLen)+uint64(maxSize) {
				return nil, errors.Wrapf(ErrInvalidPack, "entry %q chunks exceed its length", name)
			}
		}
		if uint32(len(data)) != rawLen {
			return nil, errors.Wrapf(ErrInvalidPack, "entry %q is %d bytes, want %d", name, len(data), rawLen)
		}
		p.Entries = append(p.Entries, Entry{Name: name, Data: data})
	}
	return p, nil
}

// writer appends little-endian fields to a buffer, which never fails.
type writer struct {
	buf *bytes.Buffer
}

func (w writer) u8(v uint8) {
	w.buf.WriteByte(v)
}

func (w writer) u16(v uint16) {
	w.buf.Write(binary.LittleEndian.AppendUint16(nil, v))
}

func (w writer) u32(v uint32) {
	w.buf.Write(binary.LittleEndian.AppendUint32(nil, v))
}

func (w writer) name(s string) {
	w.u16(uint16(len(s)))
	w.buf.WriteString(s)
}

// reader decodes little-endian fields and keeps the first error.
type reader struct {
	r   *bytes.Reader
	err error
}

func (r *reader) read(v any) {
	if r.err != nil {
		return
	}
	r.err = binary.Read(r.r, binary.LittleEndian, v)
}

func (r *reader) u8() uint8 {
	var v uint8
	r.read(&v)
	return v
}

func (r *reader) u16() uint16 {
	var v uint16
	r.read(&v)
	return v
}

func (r *reader) u32() uint32 {
	var v uint32
	r.read(&v)
	return v
}

func (r *reader) bytes(n uint32) []byte {
	if r.err != nil {
		return nil
	}
	if int64(n) > int64(r.r.Len()) {
		r.err = io.ErrUnexpectedEOF
		return nil
	}
	b := make([]byte, n)
	_, r.err = io.ReadFull(r.r, b)
	return b
}

func (r *reader) name() string {
	return string(r.bytes(uint32(r.u16())))
}

func (r *reader) fail(format string, args ...any) error {
	err := r.err
	if err == io.EOF {
		err = io.ErrUnexpectedEOF
	}
	return errors.Wrapf(errors.Wrap(ErrInvalidPack, err.Error()), "reading "+format, args...)
}
