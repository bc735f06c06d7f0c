package bodystorage

import (
	"errors"
	"fmt"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"auditwatch/internal/constants"
)

var errIncompressible = errors.New("data is incompressible")

// zstd encoders and decoders are safe for concurrent use.
var (
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error
	zstdEncoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		panic("bodystorage: zstd encoder initialization failed: " + err.Error())
	}

	zstdDecoder, err = zstd.NewReader(nil)
	if err != nil {
		panic("bodystorage: zstd decoder initialization failed: " + err.Error())
	}
}

// encode compresses data with algorithm. Incompressible data comes back
// unchanged with encoding "none".
func encode(data []byte, algorithm string) ([]byte, string, error) {
	var (
		out []byte
		err error
	)

	switch algorithm {
	case "", constants.CompressionNone:
		return data, constants.CompressionNone, nil
	case constants.CompressionZstd:
		out, err = compressZstd(data)
	case constants.CompressionLZ4:
		out, err = compressLZ4(data)
	default:
		return nil, "", fmt.Errorf("unsupported compression: %q", algorithm)
	}

	if errors.Is(err, errIncompressible) {
		return data, constants.CompressionNone, nil
	}
	if err != nil {
		return nil, "", err
	}
	return out, algorithm, nil
}

func decode(data []byte, encoding string, size int) ([]byte, error) {
	switch encoding {
	case "", constants.CompressionNone:
		if len(data) != size {
			return nil, fmt.Errorf("stored body: size %d does not match expected %d", len(data), size)
		}
		return data, nil
	case constants.CompressionZstd:
		out, err := zstdDecoder.DecodeAll(data, make([]byte, 0, size))
		if err != nil {
			return nil, fmt.Errorf("zstd decompress: %w", err)
		}
		if len(out) != size {
			return nil, fmt.Errorf("zstd decompress: got %d bytes, expected %d", len(out), size)
		}
		return out, nil
	case constants.CompressionLZ4:
		out := make([]byte, size)
		n, err := lz4.UncompressBlock(data, out)
		if err != nil {
			return nil, fmt.Errorf("lz4 decompress: %w", err)
		}
		if n != size {
			return nil, fmt.Errorf("lz4 decompress: got %d bytes, expected %d", n, size)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported encoding: %q", encoding)
	}
}

func compressZstd(data []byte) ([]byte, error) {
	compressed := zstdEncoder.EncodeAll(data, nil)
	if len(compressed) >= len(data) {
		return nil, errIncompressible
	}
	return compressed, nil
}

func compressLZ4(data []byte) ([]byte, error) {
	dst := make([]byte, lz4.CompressBlockBound(len(data)))

	written, err := lz4.CompressBlock(data, dst, nil)
	if err != nil {
		return nil, fmt.Errorf("lz4 compress: %w", err)
	}
	// CompressBlock reports 0 for incompressible input.
	if written == 0 || written >= len(data) {
		return nil, errIncompressible
	}
	return dst[:written], nil
}
