package oto

import (
	"encoding/binary"
	"math"
)

// FloatBufferTo16BitLE converts float samples to 16-bit little-endian
// integers, clamping values outside -1..1. dst must hold at least two bytes
// per sample.
func FloatBufferTo16BitLE(src []float32, dst []byte) {
	for i, v := range src {
		var uv int16
		if v < -1.0 {
			uv = -math.MaxInt16
		} else if v > 1.0 {
			uv = math.MaxInt16
		} else {
			uv = int16(v * math.MaxInt16)
		}
		binary.LittleEndian.PutUint16(dst[i*2:], uint16(uv))
	}
}
