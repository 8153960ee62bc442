package pool

import "sync"

// Scratch slice pools used by the numeric kernels. Slices handed out here never
// escape the call that borrowed them.
var (
	float64SlicePool = sync.Pool{
		New: func() any { return &[]float64{} },
	}
	intSlicePool = sync.Pool{
		New: func() any { return &[]int{} },
	}
)

// GetFloat64Slice returns a zeroed float64 slice of length size and a cleanup
// function that returns it to the pool.
//
// Example:
//
//	diff, cleanup := pool.GetFloat64Slice(len(cols))
//	defer cleanup()
func GetFloat64Slice(size int) ([]float64, func()) {
	ptr, _ := float64SlicePool.Get().(*[]float64)
	slice := (*ptr)[:0]

	if cap(slice) < size {
		slice = make([]float64, size)
	} else {
		slice = slice[:size]
		clear(slice)
	}
	*ptr = slice

	return slice, func() { float64SlicePool.Put(ptr) }
}

// GetIntSlice returns a zeroed int slice of length size and a cleanup function
// that returns it to the pool.
func GetIntSlice(size int) ([]int, func()) {
	ptr, _ := intSlicePool.Get().(*[]int)
	slice := (*ptr)[:0]

	if cap(slice) < size {
		slice = make([]int, size)
	} else {
		slice = slice[:size]
		clear(slice)
	}
	*ptr = slice

	return slice, func() { intSlicePool.Put(ptr) }
}
