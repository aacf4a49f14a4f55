package compress

import (
	"fmt"

	"github.com/pierrec/lz4/v4"

	"github.com/lattice-config/frtclient/configkey"
)

// lz4Compressor implements Compressor for configkey.LZ4 using the LZ4 block
// framing the config server speaks (a plain compressed block, not the LZ4
// frame format with its own header/checksum).
type lz4Compressor struct{}

func (lz4Compressor) Type() configkey.CompressionType { return configkey.LZ4 }

func (lz4Compressor) Compress(data []byte) ([]byte, error) {
	buf := make([]byte, lz4.CompressBlockBound(len(data)))
	var c lz4.Compressor
	n, err := c.CompressBlock(data, buf)
	if err != nil {
		return nil, fmt.Errorf("lz4 compress: %w", err)
	}
	if n == 0 && len(data) > 0 {
		// Incompressible input: CompressBlock reports n==0 in this case.
		return nil, fmt.Errorf("lz4 compress: input not compressible")
	}
	return buf[:n], nil
}

// Decompress expands data into a buffer sized exactly to uncompressedSize,
// per the wire contract (the response carries the declared uncompressed
// size alongside the compressed bytes). If the decompressor reports fewer
// bytes than declared, the buffer is shrunk to the actual size rather than
// left zero-padded, matching the original's shrink-on-mismatch behavior.
func (lz4Compressor) Decompress(data []byte, uncompressedSize uint32) ([]byte, error) {
	buf := make([]byte, uncompressedSize)
	n, err := lz4.UncompressBlock(data, buf)
	if err != nil {
		return nil, fmt.Errorf("lz4 decompress: %w", err)
	}
	if n < 0 {
		return nil, fmt.Errorf("lz4 decompress: negative size returned")
	}
	return buf[:n], nil
}
