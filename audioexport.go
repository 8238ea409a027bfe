package acrn

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
)

const wavChannels = 2

// Wav encodes the rendered session as a stereo .wav file. With pcm16 the
// samples are converted to signed 16-bit integers, otherwise they are stored
// as IEEE float32.
func (b AudioBuffer) Wav(sampleRate int, pcm16 bool) ([]byte, error) {
	data := b.Interleave()
	buf := new(bytes.Buffer)
	writeWavHeader(buf, len(data), sampleRate, pcm16)
	if err := writeSamples(buf, data, pcm16); err != nil {
		return nil, fmt.Errorf("AudioBuffer.Wav failed: %w", err)
	}
	return buf.Bytes(), nil
}

// Raw encodes the rendered session as headerless interleaved samples.
func (b AudioBuffer) Raw(pcm16 bool) ([]byte, error) {
	buf := new(bytes.Buffer)
	if err := writeSamples(buf, b.Interleave(), pcm16); err != nil {
		return nil, fmt.Errorf("AudioBuffer.Raw failed: %w", err)
	}
	return buf.Bytes(), nil
}

func writeSamples(buf *bytes.Buffer, data []float32, pcm16 bool) error {
	var err error
	if pcm16 {
		ints := make([]int16, len(data))
		for i, v := range data {
			ints[i] = int16(min(max(float64(v)*math.MaxInt16, math.MinInt16), math.MaxInt16))
		}
		err = binary.Write(buf, binary.LittleEndian, ints)
	} else {
		err = binary.Write(buf, binary.LittleEndian, data)
	}
	if err != nil {
		return fmt.Errorf("could not write samples: %w", err)
	}
	return nil
}

// writeWavHeader writes a RIFF header for numSamples interleaved stereo
// samples. Float files get the extended fmt chunk and a fact chunk.
// Refer to: http://www-mmsp.ece.mcgill.ca/Documents/AudioFormats/WAVE/WAVE.html
func writeWavHeader(buf *bytes.Buffer, numSamples, sampleRate int, pcm16 bool) {
	bytesPerSample, fmtChunkSize, waveFormat, riffSize := 4, 18, 3, 50
	if pcm16 {
		bytesPerSample, fmtChunkSize, waveFormat, riffSize = 2, 16, 1, 36
	}
	riffSize += bytesPerSample * numSamples
	put := func(v any) { binary.Write(buf, binary.LittleEndian, v) }
	buf.WriteString("RIFF")
	put(uint32(riffSize))
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	put(uint32(fmtChunkSize))
	put(uint16(waveFormat))
	put(uint16(wavChannels))
	put(uint32(sampleRate))
	put(uint32(sampleRate * wavChannels * bytesPerSample)) // avgBytesPerSec
	put(uint16(wavChannels * bytesPerSample))              // blockAlign
	put(uint16(8 * bytesPerSample))
	if !pcm16 {
		put(uint16(0)) // extension size
		buf.WriteString("fact")
		put(uint32(4))
		put(uint32(numSamples / wavChannels))
	}
	buf.WriteString("data")
	put(uint32(bytesPerSample * numSamples))
}
