package pack

import (
	"bytes"
	"encoding/binary"
	"math/bits"

	"github.com/cespare/xxhash/v2"
)

// Chunking bounds for the CDC layout.
const (
	chunkTarget = 4096
	chunkMin    = 2048
	chunkMax    = 16384
)

// gear is the rolling hash table, derived from a fixed seed so chunk
// boundaries are stable across runs and builds.
var gear = func() [256]uint64 {
	var table [256]uint64
	seed := xxhash.Sum64String("voxquad-cdc-gear")
	for i := range table {
		var b [16]byte
		binary.LittleEndian.PutUint64(b[:8], seed+uint64(i)*0x9E3779B185EBCA87)
		binary.LittleEndian.PutUint64(b[8:], ^(seed + uint64(i)*0xC2B2AE3D27D4EB4F))
		v := xxhash.Sum64(b[:])
		if v == 0 {
			v = 0x9E3779B185EBCA87
		}
		table[i] = v
	}
	return table
}()

// chunkIndex is the dictionary of unique chunks shared by all entries.
type chunkIndex struct {
	blocks [][]byte
	byHash map[uint64][]int
}

func newChunkIndex() *chunkIndex {
	return &chunkIndex{byHash: make(map[uint64][]int)}
}

func (c *chunkIndex) add(b []byte) int {
	h := xxhash.Sum64(b)
	for _, i := range c.byHash[h] {
		if bytes.Equal(c.blocks[i], b) {
			return i
		}
	}

	i := len(c.blocks)
	c.blocks = append(c.blocks, append([]byte(nil), b...))
	c.byHash[h] = append(c.byHash[h], i)
	return i
}

// split cuts data at content-defined boundaries and returns the dictionary
// index of every chunk in order.
func (c *chunkIndex) split(data []byte, target, minSize, maxSize int) []int {
	mask := uint64(1)<<(bits.Len(uint(target))-1) - 1

	var seq []int
	var h uint64
	start := 0
	for pos, b := range data {
		h = h<<1 + gear[b]
		size := pos - start + 1
		if size < minSize {
			continue
		}
		if h&mask == 0 || size >= maxSize {
			seq = append(seq, c.add(data[start:pos+1]))
			start = pos + 1
			h = 0
		}
	}
	if start < len(data) {
		seq = append(seq, c.add(data[start:]))
	}
	return seq
}

// buildChunkIndex chunks every entry and returns the shared dictionary
// with one chunk sequence per entry.
func buildChunkIndex(entries []Entry) ([][]byte, [][]int) {
	idx := newChunkIndex()
	seqs := make([][]int, len(entries))
	for i, e := range entries {
		seqs[i] = idx.split(e.Data, chunkTarget, chunkMin, chunkMax)
	}
	return idx.blocks, seqs
}
