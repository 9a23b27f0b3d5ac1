package pack

import (
	"bytes"
	"compress/zlib"
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"
)

// Compression is the codec applied to the pack content section.
type Compression uint8

const (
	CompNone Compression = 0
	CompZlib Compression = 1
	CompZstd Compression = 2
)

var compressionNames = map[Compression]string{
	CompNone: "none",
	CompZlib: "zlib",
	CompZstd: "zstd",
}

func (c Compression) String() string {
	if name, ok := compressionNames[c]; ok {
		return name
	}
	return "unknown"
}

// ParseCompression maps "none", "zlib" or "zstd" to its Compression.
func ParseCompression(s string) (Compression, error) {
	for c, name := range compressionNames {
		if name == s {
			return c, nil
		}
	}
	return 0, errors.Wrapf(ErrUnsupported, "compression %q", s)
}

func compress(c Compression, content []byte) ([]byte, error) {
	switch c {
	case CompNone:
		return content, nil

	case CompZlib:
		var buf bytes.Buffer
		zw, err := zlib.NewWriterLevel(&buf, zlib.BestCompression)
		if err != nil {
			return nil, err
		}
		if _, err := zw.Write(content); err != nil {
			return nil, errors.Wrap(err, "zlib write")
		}
		if err := zw.Close(); err != nil {
			return nil, errors.Wrap(err, "zlib close")
		}
		return buf.Bytes(), nil

	case CompZstd:
		enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			return nil, err
		}
		defer enc.Close()
		return enc.EncodeAll(content, nil), nil

	default:
		return nil, errors.Wrapf(ErrUnsupported, "compression %d", c)
	}
}

func decompress(c Compression, data []byte) ([]byte, error) {
	switch c {
	case CompNone:
		return data, nil

	case CompZlib:
		zr, err := zlib.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, errors.Wrap(err, "zlib header")
		}
		defer zr.Close()
		out, err := io.ReadAll(zr)
		return out, errors.Wrap(err, "zlib read")

	case CompZstd:
		dec, err := zstd.NewReader(nil)
		if err != nil {
			return nil, err
		}
		defer dec.Close()
		out, err := dec.DecodeAll(data, nil)
		return out, errors.Wrap(err, "zstd read")

	default:
		return nil, errors.Wrapf(ErrUnsupported, "compression %d", c)
	}
}
