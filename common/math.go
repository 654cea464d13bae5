package common

import (
	"unsafe"
)

// SliceToBytes converts any slice to a byte slice for GPU buffer uploads.
// Uses unsafe pointer operations to create a view into the original data.
// WARNING: The returned slice shares memory with the input - do not modify.
//
// Parameters:
//   - data: source slice of any type
//
// Returns:
//   - []byte: byte slice view of the input data, or nil if input is empty
func SliceToBytes[T any](data []T) []byte {
	if len(data) == 0 {
		return nil
	}
	var zero T
	size := unsafe.Sizeof(zero)
	totalBytes := int(size) * len(data)
	return unsafe.Slice((*byte)(unsafe.Pointer(&data[0])), totalBytes)
}

// BytesToSlice copies a raw byte slice read back from the GPU into a newly allocated slice of T.
// Trailing bytes that do not fill a whole element are ignored.
//
// Parameters:
//   - data: the raw bytes to reinterpret
//
// Returns:
//   - []T: a slice owning its own memory, or nil if data holds no whole element
func BytesToSlice[T any](data []byte) []T {
	var zero T
	size := int(unsafe.Sizeof(zero))
	if size == 0 || len(data) < size {
		return nil
	}
	out := make([]T, len(data)/size)
	copy(SliceToBytes(out), data)
	return out
}

// StructToBytes reinterprets a pointer to a struct as a raw byte slice using unsafe.
// The returned slice has length equal to the struct's size in memory.
//
// Parameters:
//   - v: pointer to the struct to reinterpret
//
// Returns:
//   - []byte: byte slice view of the struct's memory
func StructToBytes[T any](v *T) []byte {
	size := unsafe.Sizeof(*v)
	return unsafe.Slice((*byte)(unsafe.Pointer(v)), int(size))
}

// CeilDiv returns the number of d-sized groups needed to cover n items.
// A zero divisor yields zero.
//
// Parameters:
//   - n: the number of items to cover
//   - d: the group size
//
// Returns:
//   - uint32: ceil(n / d)
func CeilDiv(n, d uint32) uint32 {
	if d == 0 {
		return 0
	}
	return (n + d - 1) / d
}

// AlignUp rounds value up to the next multiple of alignment.
// Unlike a mask-based round, alignment does not need to be a power of two.
//
// Parameters:
//   - value: the value to align
//   - alignment: the required alignment (0 leaves the value unchanged)
//
// Returns:
//   - uint64: value rounded up to the next multiple of alignment
func AlignUp(value, alignment uint64) uint64 {
	if alignment == 0 {
		return value
	}
	return (value + alignment - 1) / alignment * alignment
}
