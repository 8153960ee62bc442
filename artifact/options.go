package artifact

import (
	"github.com/prcurve/prcurve/compress"
	"github.com/prcurve/prcurve/format"
	"github.com/prcurve/prcurve/internal/options"
)

// Config holds binary encoding settings.
type Config struct {
	// Compression is the payload codec. Defaults to CompressionNone.
	Compression format.CompressionType
	// BigEndian writes multi-byte fields big-endian.
	BigEndian bool
}

func defaultConfig() Config {
	return Config{Compression: format.CompressionNone}
}

// Option is a functional option for Config.
type Option = options.Option[*Config]

// WithCompression sets the payload codec.
func WithCompression(c format.CompressionType) Option {
	return options.New(func(cfg *Config) error {
		if _, err := compress.GetCodec(c); err != nil {
			return err
		}
		cfg.Compression = c

		return nil
	})
}

// WithBigEndian writes the table big-endian. Decoding detects the byte order
// from the header.
func WithBigEndian() Option {
	return options.NoError(func(cfg *Config) {
		cfg.BigEndian = true
	})
}
