package audio

import (
	"encoding/binary"
	"math"
	"os"
	"testing"
)

// segment describes one stretch of synthetic audio: a tone at a level,
// or silence when ToneFreq is 0.
type segment struct {
	DurationMS int
	ToneFreq   float64 // Hz, 0 = silence
	ToneLevel  float64 // dBFS
}

// makeTestTrack builds an in-memory mono track from consecutive
// segments.
func makeTestTrack(t *testing.T, sampleRate int, segments []segment) *Track {
	t.Helper()

	var samples []int16
	maxInt16 := float64(math.MaxInt16)

	for _, seg := range segments {
		n := seg.DurationMS * sampleRate / 1000
		if seg.ToneFreq == 0 {
			samples = append(samples, make([]int16, n)...)
			continue
		}

		amp := math.Pow(10.0, seg.ToneLevel/20.0)
		for i := 0; i < n; i++ {
			ts := float64(i) / float64(sampleRate)
			v := amp * math.Sin(2.0*math.Pi*seg.ToneFreq*ts)
			samples = append(samples, int16(v*maxInt16))
		}
	}

	return &Track{Samples: samples, SampleRate: sampleRate}
}

// writeTestWAV writes a track to a temp WAV file and returns the path.
// The file is removed when the test ends.
func writeTestWAV(t *testing.T, track *Track) string {
	t.Helper()

	tmpFile, err := os.CreateTemp(t.TempDir(), "pausetune-test-*.wav")
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}

	if err := writeWAV(tmpFile, track.Samples, track.SampleRate); err != nil {
		tmpFile.Close()
		t.Fatalf("failed to write WAV file: %v", err)
	}

	if err := tmpFile.Close(); err != nil {
		t.Fatalf("failed to close temp file: %v", err)
	}

	return tmpFile.Name()
}

// writeWAV writes a mono 16-bit WAV file
func writeWAV(f *os.File, samples []int16, sampleRate int) error {
	const (
		numChannels   = 1
		bitsPerSample = 16
	)

	byteRate := sampleRate * numChannels * bitsPerSample / 8
	blockAlign := numChannels * bitsPerSample / 8
	dataSize := len(samples) * 2
	fileSize := 36 + dataSize

	if _, err := f.Write([]byte("RIFF")); err != nil {
		return err
	}
	if err := binary.Write(f, binary.LittleEndian, uint32(fileSize)); err != nil {
		return err
	}
	if _, err := f.Write([]byte("WAVE")); err != nil {
		return err
	}

	// fmt subchunk
	if _, err := f.Write([]byte("fmt ")); err != nil {
		return err
	}
	if err := binary.Write(f, binary.LittleEndian, uint32(16)); err != nil {
		return err
	}
	if err := binary.Write(f, binary.LittleEndian, uint16(1)); err != nil { // PCM
		return err
	}
	if err := binary.Write(f, binary.LittleEndian, uint16(numChannels)); err != nil {
		return err
	}
	if err := binary.Write(f, binary.LittleEndian, uint32(sampleRate)); err != nil {
		return err
	}
	if err := binary.Write(f, binary.LittleEndian, uint32(byteRate)); err != nil {
		return err
	}
	if err := binary.Write(f, binary.LittleEndian, uint16(blockAlign)); err != nil {
		return err
	}
	if err := binary.Write(f, binary.LittleEndian, uint16(bitsPerSample)); err != nil {
		return err
	}

	// data subchunk
	if _, err := f.Write([]byte("data")); err != nil {
		return err
	}
	if err := binary.Write(f, binary.LittleEndian, uint32(dataSize)); err != nil {
		return err
	}

	for _, sample := range samples {
		if err := binary.Write(f, binary.LittleEndian, sample); err != nil {
			return err
		}
	}

	return nil
}
