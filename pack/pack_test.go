package pack

import (
	"bytes"
	"fmt"
	"math/rand"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"github.com/voxelsplace/voxquad/vox"
)

func randomGrid(t *testing.T, rng *rand.Rand, w, h, d uint32) *vox.VoxelGrid {
	var palette vox.Palette
	for i := range palette {
		palette[i] = vox.ColourFrom6Bit(uint8(rng.Intn(64)), uint8(rng.Intn(64)), uint8(rng.Intn(64)))
	}

	data := make([]byte, int(w*h*d))
	for i := range data {
		if rng.Intn(3) == 0 {
			data[i] = uint8(rng.Intn(vox.PaletteSize))
		} else {
			data[i] = vox.Empty
		}
	}

	g, err := vox.NewVoxelGrid(w, h, d, palette, data)
	require.NoError(t, err)
	return g
}

func testPack(t *testing.T) *Pack {
	rng := rand.New(rand.NewSource(7))
	p := &Pack{}
	for i, size := range []uint32{1, 4, 9} {
		require.NoError(t, p.Add(fmt.Sprintf("model-%d", i), randomGrid(t, rng, size, size+1, size+2)))
	}
	return p
}

func TestPackRoundTrip(t *testing.T) {
	p := testPack(t)

	for _, layout := range []Layout{LayoutRaw, LayoutCDC} {
		for _, comp := range []Compression{CompNone, CompZlib, CompZstd} {
			t.Run(layout.String()+"/"+comp.String(), func(t *testing.T) {
				data, err := p.Marshal(layout, comp)
				require.NoError(t, err)
				require.Equal(t, []byte(magic), data[:len(magic)])

				got, gotComp, err := Unmarshal(data)
				require.NoError(t, err)
				require.Equal(t, comp, gotComp)
				require.Equal(t, p.Entries, got.Entries)

				for i := 0; i < p.Len(); i++ {
					want, err := p.Model(i)
					require.NoError(t, err)
					model, err := got.Model(i)
					require.NoError(t, err)
					require.Equal(t, want.Checksum(), model.Checksum())
				}
			})
		}
	}
}

func TestPackCDCDeduplicates(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	g := randomGrid(t, rng, 32, 32, 32)

	single := &Pack{}
	require.NoError(t, single.Add("a", g))

	double := &Pack{}
	require.NoError(t, double.Add("a", g))
	require.NoError(t, double.Add("b", g))

	dict, seqs := buildChunkIndex(double.Entries)
	require.Equal(t, seqs[0], seqs[1])
	require.Greater(t, len(seqs[0]), 1)
	require.LessOrEqual(t, len(dict), len(seqs[0]))

	one, err := single.Marshal(LayoutCDC, CompNone)
	require.NoError(t, err)
	two, err := double.Marshal(LayoutCDC, CompNone)
	require.NoError(t, err)

	// the second copy only costs a name and its chunk references
	require.Less(t, len(two)-len(one), 64+4*len(seqs[1]))

	raw, err := double.Marshal(LayoutRaw, CompNone)
	require.NoError(t, err)
	require.Less(t, len(two), len(raw))
}

func TestChunkBoundaries(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	data := make([]byte, 100000)
	rng.Read(data)

	idx := newChunkIndex()
	seq := idx.split(data, chunkTarget, chunkMin, chunkMax)

	var joined []byte
	for i, n := range seq {
		b := idx.blocks[n]
		if i < len(seq)-1 {
			require.GreaterOrEqual(t, len(b), chunkMin)
		}
		require.LessOrEqual(t, len(b), chunkMax)
		joined = append(joined, b...)
	}
	require.Equal(t, data, joined)

	// an edit early on only disturbs the chunks around it
	edited := append([]byte(nil), data...)
	edited[10] ^= 0xFF
	seq2 := idx.split(edited, chunkTarget, chunkMin, chunkMax)
	require.Equal(t, seq[len(seq)-1], seq2[len(seq2)-1])
}

func TestPackEmpty(t *testing.T) {
	data, err := (&Pack{}).Marshal(LayoutCDC, CompZstd)
	require.NoError(t, err)

	p, _, err := Unmarshal(data)
	require.NoError(t, err)
	require.Zero(t, p.Len())
}

func TestPackModelOutOfRange(t *testing.T) {
	p := testPack(t)
	_, err := p.Model(3)
	require.Error(t, err)
	_, err = p.Model(-1)
	require.Error(t, err)
}

func TestPackNameTooLong(t *testing.T) {
	p := &Pack{}
	name := string(bytes.Repeat([]byte("x"), maxNameLen+1))
	rng := rand.New(rand.NewSource(1))
	require.Error(t, p.Add(name, randomGrid(t, rng, 1, 1, 1)))

	p.Entries = append(p.Entries, Entry{Name: name})
	_, err := p.Marshal(LayoutRaw, CompNone)
	require.Error(t, err)
}

func TestUnmarshalErrors(t *testing.T) {
	p := testPack(t)
	valid, err := p.Marshal(LayoutRaw, CompNone)
	require.NoError(t, err)

	withByte := func(i int, b byte) []byte {
		out := append([]byte(nil), valid...)
		out[i] = b
		return out
	}

	tests := []struct {
		name string
		data []byte
		want error
	}{
		{name: "empty", data: nil, want: ErrInvalidPack},
		{name: "bad magic", data: withByte(0, 'X'), want: ErrInvalidPack},
		{name: "bad version", data: withByte(len(magic), 9), want: ErrUnsupported},
		{name: "bad compression", data: withByte(len(magic)+1, 7), want: ErrUnsupported},
		{name: "bad layout", data: withByte(len(magic)+2, 5), want: ErrUnsupported},
		{name: "truncated", data: valid[:len(valid)-10], want: ErrInvalidPack},
		{name: "header only", data: valid[:len(magic)+2], want: ErrInvalidPack},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, _, err := Unmarshal(test.data)
			require.Error(t, err)
			require.True(t, errors.Is(err, test.want), "%v", err)
		})
	}
}

func TestUnmarshalBadChunkIndex(t *testing.T) {
	p := &Pack{Entries: []Entry{{Name: "a", Data: []byte{1, 2, 3}}}}
	data, err := p.Marshal(LayoutCDC, CompNone)
	require.NoError(t, err)

	// the last u32 is the entry's only chunk reference
	data[len(data)-4] = 9
	_, _, err = Unmarshal(data)
	require.True(t, errors.Is(err, ErrInvalidPack), "%v", err)
}

func TestParseNames(t *testing.T) {
	for _, c := range []Compression{CompNone, CompZlib, CompZstd} {
		got, err := ParseCompression(c.String())
		require.NoError(t, err)
		require.Equal(t, c, got)
	}
	_, err := ParseCompression("lz4")
	require.Error(t, err)

	for _, l := range []Layout{LayoutRaw, LayoutCDC} {
		got, err := ParseLayout(l.String())
		require.NoError(t, err)
		require.Equal(t, l, got)
	}
	_, err = ParseLayout("tar")
	require.Error(t, err)
}
