// Package artifact encodes pooled curves and bin segments as the tables handed
// to rendering.
//
// Two encodings are provided. The binary encoding is a self-describing
// columnar table:
//
//	+--------------------+----------------------------------+
//	| Header (32 bytes)  | Payload (optionally compressed)  |
//	+--------------------+----------------------------------+
//
// The header records the table kind, the payload codec, the row and column
// counts and an xxHash64 checksum of the uncompressed payload. The payload
// holds a small metadata block followed by one contiguous column per field.
// Decoding verifies the checksum and returns errs.ErrChecksumMismatch on
// corruption.
//
// The CSV encoding writes one row per grid position or segment with a header
// line, for spreadsheets and plotting tools.
package artifact
