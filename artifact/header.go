package artifact

import (
	"fmt"

	"github.com/prcurve/prcurve/endian"
	"github.com/prcurve/prcurve/errs"
	"github.com/prcurve/prcurve/format"
)

const (
	// HeaderSize is the fixed size of the artifact header in bytes.
	HeaderSize = 32
	// Version is the artifact format version written by this package.
	Version = 1
)

// Magic identifies artifact tables.
var Magic = [4]byte{'P', 'R', 'C', 'V'}

// FlagBigEndian marks a table whose multi-byte fields are big-endian.
const FlagBigEndian uint8 = 0x1

// Header is the fixed-size section at the start of every artifact.
type Header struct {
	// Version is the format version. byte offset 4
	Version uint8
	// Kind is the table kind. byte offset 5
	Kind format.ArtifactKind
	// Compression is the payload codec. byte offset 6
	Compression format.CompressionType
	// Flags holds FlagBigEndian. byte offset 7
	Flags uint8
	// Rows is the number of table rows. byte offset 8-11
	Rows uint32
	// Columns is the number of payload columns. byte offset 12-13
	Columns uint16
	// PayloadSize is the stored (compressed) payload size. byte offset 16-19
	PayloadSize uint32
	// RawSize is the uncompressed payload size. byte offset 20-23
	RawSize uint32
	// Checksum is the xxHash64 of the uncompressed payload. byte offset 24-31
	Checksum uint64
}

// Engine returns the byte order recorded in Flags.
func (h *Header) Engine() endian.EndianEngine {
	return endian.GetEngine(h.Flags&FlagBigEndian != 0)
}

// Bytes serializes the header. Bytes 14-15 are reserved and zero.
func (h *Header) Bytes() []byte {
	b := make([]byte, HeaderSize)
	copy(b[0:4], Magic[:])
	b[4] = h.Version
	b[5] = uint8(h.Kind)
	b[6] = uint8(h.Compression)
	b[7] = h.Flags

	engine := h.Engine()
	engine.PutUint32(b[8:12], h.Rows)
	engine.PutUint16(b[12:14], h.Columns)
	engine.PutUint32(b[16:20], h.PayloadSize)
	engine.PutUint32(b[20:24], h.RawSize)
	engine.PutUint64(b[24:32], h.Checksum)

	return b
}

// Parse parses the header from exactly HeaderSize bytes.
func (h *Header) Parse(data []byte) error {
	if len(data) != HeaderSize {
		return fmt.Errorf("%w: header is %d bytes, want %d", errs.ErrInvalidArtifact, len(data), HeaderSize)
	}
	if [4]byte(data[0:4]) != Magic {
		return fmt.Errorf("%w: bad magic %q", errs.ErrInvalidArtifact, data[0:4])
	}

	h.Version = data[4]
	h.Kind = format.ArtifactKind(data[5])
	h.Compression = format.CompressionType(data[6])
	h.Flags = data[7]

	engine := h.Engine()
	h.Rows = engine.Uint32(data[8:12])
	h.Columns = engine.Uint16(data[12:14])
	h.PayloadSize = engine.Uint32(data[16:20])
	h.RawSize = engine.Uint32(data[20:24])
	h.Checksum = engine.Uint64(data[24:32])

	if h.Version != Version {
		return fmt.Errorf("%w: %d", errs.ErrUnsupportedVersion, h.Version)
	}

	return nil
}

// ParseHeader parses the header at the start of data.
func ParseHeader(data []byte) (Header, error) {
	if len(data) < HeaderSize {
		return Header{}, fmt.Errorf("%w: %d bytes is shorter than the header", errs.ErrInvalidArtifact, len(data))
	}

	var h Header
	if err := h.Parse(data[:HeaderSize]); err != nil {
		return Header{}, err
	}

	return h, nil
}
