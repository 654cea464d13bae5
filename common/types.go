// package common contains common types that are used throughout this engine. They are not interface-wrapped structs, just plain structs that express
// commonly used data-types.
package common

import (
	"encoding/binary"
	"fmt"
)

// DataPairSize is the packed size of a DataPair in bytes.
const DataPairSize = 8

// DataPair is a packed record of two unsigned 32-bit integers, laid out exactly as it is stored in a GPU buffer.
type DataPair struct {
	// A is stored at byte offset 0.
	A uint32
	// B is stored at byte offset 4.
	B uint32
}

// Bytes encodes the pair in its little-endian buffer layout.
//
// Returns:
//   - []byte: an 8 byte slice holding A followed by B
func (p DataPair) Bytes() []byte {
	out := make([]byte, DataPairSize)
	p.Put(out)
	return out
}

// Put writes the pair into the first 8 bytes of dst. Used to mutate mapped GPU memory in place.
//
// Parameters:
//   - dst: destination slice, at least DataPairSize bytes long
func (p DataPair) Put(dst []byte) {
	binary.LittleEndian.PutUint32(dst[0:4], p.A)
	binary.LittleEndian.PutUint32(dst[4:8], p.B)
}

// DataPairFromBytes decodes a DataPair from the first 8 bytes of data.
//
// Parameters:
//   - data: raw bytes read back from a buffer
//
// Returns:
//   - DataPair: the decoded pair
//   - error: an error if data is shorter than DataPairSize
func DataPairFromBytes(data []byte) (DataPair, error) {
	if len(data) < DataPairSize {
		return DataPair{}, fmt.Errorf("data pair needs %d bytes, got %d", DataPairSize, len(data))
	}
	return DataPair{
		A: binary.LittleEndian.Uint32(data[0:4]),
		B: binary.LittleEndian.Uint32(data[4:8]),
	}, nil
}

// String formats the pair for log output.
func (p DataPair) String() string {
	return fmt.Sprintf("{a: %d, b: %d}", p.A, p.B)
}
