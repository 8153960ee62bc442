package artifact

import (
	"fmt"
	"math"

	"github.com/cespare/xxhash/v2"

	"github.com/prcurve/prcurve/compress"
	"github.com/prcurve/prcurve/endian"
	"github.com/prcurve/prcurve/errs"
	"github.com/prcurve/prcurve/format"
	"github.com/prcurve/prcurve/internal/pool"
)

// columnWriter appends fixed-width fields to a pooled payload buffer.
type columnWriter struct {
	engine endian.EndianEngine
	bb     *pool.ByteBuffer
}

func (w *columnWriter) float64(v float64) {
	w.bb.B = w.engine.AppendUint64(w.bb.B, math.Float64bits(v))
}

func (w *columnWriter) float64s(vs []float64) {
	for _, v := range vs {
		w.float64(v)
	}
}

func (w *columnWriter) uint32(v uint32) {
	w.bb.B = w.engine.AppendUint32(w.bb.B, v)
}

func (w *columnWriter) uint8(v uint8) {
	w.bb.B = append(w.bb.B, v)
}

// columnReader reads fixed-width fields from a payload. The first short read
// sets err; later reads return zero values.
type columnReader struct {
	engine endian.EndianEngine
	data   []byte
	off    int
	err    error
}

func (r *columnReader) next(n int) []byte {
	if r.err != nil {
		return nil
	}
	if len(r.data)-r.off < n {
		r.err = fmt.Errorf("%w: payload truncated at byte %d", errs.ErrInvalidArtifact, r.off)
		return nil
	}
	b := r.data[r.off : r.off+n]
	r.off += n

	return b
}

func (r *columnReader) float64() float64 {
	b := r.next(8)
	if b == nil {
		return 0
	}

	return math.Float64frombits(r.engine.Uint64(b))
}

func (r *columnReader) float64s(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = r.float64()
	}

	return out
}

func (r *columnReader) uint32() uint32 {
	b := r.next(4)
	if b == nil {
		return 0
	}

	return r.engine.Uint32(b)
}

func (r *columnReader) uint8() uint8 {
	b := r.next(1)
	if b == nil {
		return 0
	}

	return b[0]
}

// finish reports a short read or unread trailing bytes.
func (r *columnReader) finish() error {
	if r.err != nil {
		return r.err
	}
	if r.off != len(r.data) {
		return fmt.Errorf("%w: %d trailing payload bytes", errs.ErrInvalidArtifact, len(r.data)-r.off)
	}

	return nil
}

// newWriter borrows a payload buffer; seal returns it to the pool.
func newWriter(cfg Config, sizeHint int) *columnWriter {
	bb := pool.GetPayloadBuffer()
	bb.Grow(sizeHint)

	return &columnWriter{
		engine: endian.GetEngine(cfg.BigEndian),
		bb:     bb,
	}
}

// seal compresses the payload and prepends the header. The returned bytes do
// not share memory with the writer's buffer, which goes back to the pool.
func seal(cfg Config, kind format.ArtifactKind, rows, cols int, w *columnWriter) ([]byte, error) {
	defer pool.PutPayloadBuffer(w.bb)
	payload := w.bb.Bytes()

	if uint64(rows) > math.MaxUint32 || uint64(len(payload)) > math.MaxUint32 {
		return nil, fmt.Errorf("%w: table too large", errs.ErrInvalidArtifact)
	}

	codec, err := compress.GetCodec(cfg.Compression)
	if err != nil {
		return nil, err
	}
	compressed, err := codec.Compress(payload)
	if err != nil {
		return nil, fmt.Errorf("compress %s payload: %w", kind, err)
	}

	h := Header{
		Version:     Version,
		Kind:        kind,
		Compression: cfg.Compression,
		Rows:        uint32(rows),
		Columns:     uint16(cols),
		PayloadSize: uint32(len(compressed)),
		RawSize:     uint32(len(payload)),
		Checksum:    xxhash.Sum64(payload),
	}
	if cfg.BigEndian {
		h.Flags |= FlagBigEndian
	}

	out := make([]byte, 0, HeaderSize+len(compressed))
	out = append(out, h.Bytes()...)
	out = append(out, compressed...)

	return out, nil
}

// tableLayout fixes the payload shape of one artifact kind: a metadata block
// of metaSize bytes followed by cols columns totalling rowSize bytes per row.
type tableLayout struct {
	kind     format.ArtifactKind
	cols     int
	metaSize int
	rowSize  int
}

// rawSize returns the exact uncompressed payload size for rows rows.
func (l tableLayout) rawSize(rows uint32) uint64 {
	return uint64(l.metaSize) + uint64(rows)*uint64(l.rowSize)
}

// open validates the header and checksum and returns a reader over the
// uncompressed payload. The header's row count must account for the raw size
// exactly before anything is decompressed or allocated.
func open(data []byte, layout tableLayout) (Header, *columnReader, error) {
	h, err := ParseHeader(data)
	if err != nil {
		return Header{}, nil, err
	}
	if h.Kind != layout.kind {
		return Header{}, nil, fmt.Errorf("%w: table kind %s, want %s", errs.ErrInvalidArtifact, h.Kind, layout.kind)
	}
	if int(h.Columns) != layout.cols {
		return Header{}, nil, fmt.Errorf("%w: %d columns, want %d", errs.ErrInvalidArtifact, h.Columns, layout.cols)
	}
	if want := layout.rawSize(h.Rows); uint64(h.RawSize) != want {
		return Header{}, nil, fmt.Errorf("%w: %d rows need %d payload bytes, header says %d",
			errs.ErrInvalidArtifact, h.Rows, want, h.RawSize)
	}

	body := data[HeaderSize:]
	if len(body) != int(h.PayloadSize) {
		return Header{}, nil, fmt.Errorf("%w: payload is %d bytes, header says %d",
			errs.ErrInvalidArtifact, len(body), h.PayloadSize)
	}

	codec, err := compress.GetCodec(h.Compression)
	if err != nil {
		return Header{}, nil, fmt.Errorf("%w: %w", errs.ErrInvalidArtifact, err)
	}
	raw, err := codec.Decompress(body)
	if err != nil {
		return Header{}, nil, fmt.Errorf("%w: %w", errs.ErrInvalidArtifact, err)
	}
	if len(raw) != int(h.RawSize) {
		return Header{}, nil, fmt.Errorf("%w: payload decompressed to %d bytes, header says %d",
			errs.ErrInvalidArtifact, len(raw), h.RawSize)
	}
	if sum := xxhash.Sum64(raw); sum != h.Checksum {
		return Header{}, nil, fmt.Errorf("%w: got %016x, header says %016x", errs.ErrChecksumMismatch, sum, h.Checksum)
	}

	return h, &columnReader{engine: h.Engine(), data: raw}, nil
}
