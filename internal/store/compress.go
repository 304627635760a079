package store

import (
	"encoding/binary"
	"fmt"

	"github.com/pierrec/lz4"
)

// Journal blob encodings. The first byte of every stored blob names the
// codec; the next four carry the uncompressed size.
const (
	codecRaw byte = 0x00
	codecLZ4 byte = 0x01
)

const blobHeaderSize = 5

// compressBlob lz4-compresses data, falling back to raw storage when the
// block does not shrink. CompressBlock reports 0 for incompressible input.
func compressBlob(data []byte) []byte {
	bound := lz4.CompressBlockBound(len(data))
	buf := make([]byte, blobHeaderSize+bound)
	n, err := lz4.CompressBlock(data, buf[blobHeaderSize:], nil)
	if err != nil || n == 0 || n >= len(data) {
		out := make([]byte, blobHeaderSize+len(data))
		out[0] = codecRaw
		binary.BigEndian.PutUint32(out[1:], uint32(len(data)))
		copy(out[blobHeaderSize:], data)
		return out
	}
	buf[0] = codecLZ4
	binary.BigEndian.PutUint32(buf[1:], uint32(len(data)))
	return buf[:blobHeaderSize+n]
}

// decompressBlob reverses compressBlob.
func decompressBlob(blob []byte) ([]byte, error) {
	if len(blob) < blobHeaderSize {
		return nil, fmt.Errorf("journal blob too short: %d bytes", len(blob))
	}
	size := binary.BigEndian.Uint32(blob[1:])
	payload := blob[blobHeaderSize:]
	switch blob[0] {
	case codecRaw:
		if int(size) != len(payload) {
			return nil, fmt.Errorf("raw blob size mismatch: header %d, payload %d", size, len(payload))
		}
		out := make([]byte, len(payload))
		copy(out, payload)
		return out, nil
	case codecLZ4:
		out := make([]byte, size)
		n, err := lz4.UncompressBlock(payload, out)
		if err != nil {
			return nil, fmt.Errorf("lz4 decompression failed: %w", err)
		}
		if n != int(size) {
			return nil, fmt.Errorf("lz4 blob size mismatch: header %d, decoded %d", size, n)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unknown journal blob codec 0x%02x", blob[0])
	}
}
