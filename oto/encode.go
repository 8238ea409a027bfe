package oto

import (
	"encoding/binary"
	"math"

	"github.com/generalfuzz/acrn"
)

const frameBytes = 8

// EncodeFloat32LE appends the frames of buf to dst as interleaved
// little-endian float32 samples, the format the device is opened with.
func EncodeFloat32LE(dst []byte, buf acrn.AudioBuffer) []byte {
	for _, frame := range buf {
		dst = binary.LittleEndian.AppendUint32(dst, math.Float32bits(frame[0]))
		dst = binary.LittleEndian.AppendUint32(dst, math.Float32bits(frame[1]))
	}
	return dst
}
