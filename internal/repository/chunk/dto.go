package chunk

import (
	"encoding/binary"
	"math"
)

// vectorToBytes packs a float32 vector into the little-endian binary form
// RediSearch expects for FLOAT32 vector fields.
func vectorToBytes(v []float32) string {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return string(buf)
}
