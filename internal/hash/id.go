package hash

import "github.com/cespare/xxhash/v2"

// TermID returns the xxHash64 of a regression term name.
func TermID(name string) uint64 {
	return xxhash.Sum64String(name)
}
