package utils

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/voxelsplace/voxquad/vox"
)

// noisePalette spreads the 255 usable indices over the 6-bit colour cube.
func noisePalette() vox.Palette {
	var p vox.Palette
	for i := range p {
		p[i] = vox.ColourFrom6Bit(uint8(i%4)*21, uint8(i/4%4)*21, uint8(i/16%16)*4+3)
	}
	return p
}

// generateNoiseGrid fills the given percentage of a w×h×d grid with random
// palette indices. The rest is empty.
func generateNoiseGrid(w, h, d uint32, percentage float64, r *rand.Rand) (*vox.VoxelGrid, error) {
	percentage = min(max(percentage, 0), 100)

	total := int(w) * int(h) * int(d)
	want := int(float64(total)*(percentage/100) + 0.5)
	want = min(want, total)

	data := make([]uint8, total)
	for i := range data {
		data[i] = vox.Empty
	}

	// partial Fisher-Yates over cell offsets
	idx := make([]int, total)
	for i := range idx {
		idx[i] = i
	}
	for i := 0; i < want; i++ {
		j := i + r.Intn(total-i)
		idx[i], idx[j] = idx[j], idx[i]
		data[idx[i]] = uint8(r.Intn(vox.PaletteSize - 1))
	}

	return vox.NewVoxelGrid(w, h, d, noisePalette(), data)
}

// RunGenerateNoise writes amount random models named 0.vox..(amount-1).vox
// into dir, each with the given percentage of cells filled.
func RunGenerateNoise(w, h, d uint32, percentage float64, amount int, dir string) error {
	return RunGenerateNoiseRange(w, h, d, percentage, percentage, amount, dir, time.Now().UnixNano())
}

// RunGenerateNoiseRange is RunGenerateNoise with a per-file fill percentage
// drawn from [minPercentage, maxPercentage]. Files generated from the same
// seed are identical.
func RunGenerateNoiseRange(w, h, d uint32, minPercentage, maxPercentage float64, amount int, dir string, seed int64) error {
	if hdr := (vox.Header{Width: w, Height: h, Depth: d}); hdr.Cells() > vox.DefaultMaxCells {
		return errors.New("noise model too large").
			WithTag("width", w).
			WithTag("height", h).
			WithTag("depth", d)
	}
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.New("creating output directory failed").
			WithType(ErrTypeWrite).
			WithTag("dir", dir).
			Wrap(err)
	}

	minPercentage = max(minPercentage, 0)
	maxPercentage = min(maxPercentage, 100)
	if maxPercentage < minPercentage {
		minPercentage, maxPercentage = maxPercentage, minPercentage
	}

	// per-file seeds follow a Weyl sequence from the base seed
	const weyl = uint64(0x9e3779b97f4a7c15)
	for i := 0; i < amount; i++ {
		s := uint64(seed) ^ (uint64(i)+1)*weyl
		r := rand.New(rand.NewSource(int64(s & 0x7fffffffffffffff)))

		perc := minPercentage
		if maxPercentage > minPercentage {
			perc += r.Float64() * (maxPercentage - minPercentage)
		}

		grid, err := generateNoiseGrid(w, h, d, perc, r)
		if err != nil {
			return errors.New("generating noise failed").Wrap(err)
		}

		path := filepath.Join(dir, fmt.Sprintf("%d.vox", i))
		if err := vox.SaveFile(path, grid); err != nil {
			return errors.New("saving noise model failed").
				WithType(ErrTypeWrite).
				WithTag("path", path).
				Wrap(err)
		}

		logs.WithTag("path", path).
			WithTag("fill", perc).
			Debug("noise model generated")
	}
	return nil
}
