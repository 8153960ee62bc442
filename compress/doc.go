// Package compress provides the codecs applied to artifact table payloads.
//
// An artifact payload is the column data of one curve or segment table. It is
// compressed as a whole after encoding, and the header records which codec was
// used so a decoder can pick the matching one:
//
//   - None: payload stored as is
//   - Zstd: best ratio, the choice for archived run outputs
//   - S2: fast with a good ratio
//   - LZ4: fastest decompression
//
// All codecs are stateless values and safe for concurrent use. Zstd and LZ4
// keep pooled encoder state internally.
//
// Zstd uses github.com/klauspost/compress/zstd by default. Building with the
// gozstd tag (and cgo enabled) switches to the cgo binding
// github.com/valyala/gozstd; both produce standard zstd frames, so artifacts
// written by one are readable by the other.
package compress
