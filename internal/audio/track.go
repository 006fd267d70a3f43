// Package audio provides audio decoding, encoding, and the in-memory
// sample buffer the silence pipeline operates on.
package audio

// Track is an immutable, decoded mono audio buffer. All pipeline maths
// work in milliseconds against the sample rate; Track converts between
// the two and hands out read-only slices.
type Track struct {
	Samples    []int16
	SampleRate int
}

// DurationMS returns the track length in milliseconds.
func (t *Track) DurationMS() int {
	if t.SampleRate == 0 {
		return 0
	}
	return int(int64(len(t.Samples)) * 1000 / int64(t.SampleRate))
}

// sampleIndex converts a millisecond offset to a sample index, clamped
// to the track bounds.
func (t *Track) sampleIndex(ms int) int {
	idx := int(int64(ms) * int64(t.SampleRate) / 1000)
	if idx < 0 {
		return 0
	}
	if idx > len(t.Samples) {
		return len(t.Samples)
	}
	return idx
}

// SliceMS returns the samples between startMS and endMS. The returned
// slice aliases the track buffer and must not be modified.
func (t *Track) SliceMS(startMS, endMS int) []int16 {
	start := t.sampleIndex(startMS)
	end := t.sampleIndex(endMS)
	if end < start {
		end = start
	}
	return t.Samples[start:end]
}

// Builder assembles an output track by appending verbatim slices of a
// source track and runs of synthetic silence. It never mutates the
// source.
type Builder struct {
	samples    []int16
	sampleRate int
}

// NewBuilder creates a Builder producing audio at the given sample rate.
// hintMS pre-sizes the buffer to avoid repeated growth on long tracks.
func NewBuilder(sampleRate, hintMS int) *Builder {
	hint := int(int64(hintMS) * int64(sampleRate) / 1000)
	if hint < 0 {
		hint = 0
	}
	return &Builder{
		samples:    make([]int16, 0, hint),
		sampleRate: sampleRate,
	}
}

// AppendSlice copies the source span [startMS, endMS) into the output.
func (b *Builder) AppendSlice(src *Track, startMS, endMS int) {
	b.samples = append(b.samples, src.SliceMS(startMS, endMS)...)
}

// AppendSilence appends ms of digital silence.
func (b *Builder) AppendSilence(ms int) {
	if ms <= 0 {
		return
	}
	n := int(int64(ms) * int64(b.sampleRate) / 1000)
	b.samples = append(b.samples, make([]int16, n)...)
}

// DurationMS returns the assembled length so far in milliseconds.
func (b *Builder) DurationMS() int {
	if b.sampleRate == 0 {
		return 0
	}
	return int(int64(len(b.samples)) * 1000 / int64(b.sampleRate))
}

// TrimTail removes ms from the end of the assembled audio.
func (b *Builder) TrimTail(ms int) {
	n := int(int64(ms) * int64(b.sampleRate) / 1000)
	if n <= 0 {
		return
	}
	if n > len(b.samples) {
		n = len(b.samples)
	}
	b.samples = b.samples[:len(b.samples)-n]
}

// Track finalises the builder into an immutable Track.
func (b *Builder) Track() *Track {
	return &Track{Samples: b.samples, SampleRate: b.sampleRate}
}
