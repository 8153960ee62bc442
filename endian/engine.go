// Package endian provides the byte order engines used by artifact tables.
//
// An EndianEngine combines binary.ByteOrder and binary.AppendByteOrder so a
// single value can both read fixed-width fields and append them to a buffer:
//
//	engine := endian.GetLittleEndianEngine()
//	buf = engine.AppendUint32(buf, rows)
//	rows = engine.Uint32(buf[off:])
package endian

import "encoding/binary"

// EndianEngine combines ByteOrder and AppendByteOrder from encoding/binary.
// binary.LittleEndian and binary.BigEndian satisfy it.
type EndianEngine interface {
	binary.ByteOrder
	binary.AppendByteOrder
}

// GetLittleEndianEngine returns the little-endian engine, the artifact default.
func GetLittleEndianEngine() EndianEngine {
	return binary.LittleEndian
}

// GetBigEndianEngine returns the big-endian engine.
func GetBigEndianEngine() EndianEngine {
	return binary.BigEndian
}

// GetEngine returns the big-endian engine when bigEndian is set and the
// little-endian engine otherwise.
func GetEngine(bigEndian bool) EndianEngine {
	if bigEndian {
		return GetBigEndianEngine()
	}

	return GetLittleEndianEngine()
}
