package compress

// ZstdCompressor compresses payloads with Zstandard. The implementation is
// selected at build time, see the package documentation.
type ZstdCompressor struct{}

var _ Codec = (*ZstdCompressor)(nil)

// NewZstdCompressor creates a new Zstd compressor with default settings.
func NewZstdCompressor() ZstdCompressor {
	return ZstdCompressor{}
}
