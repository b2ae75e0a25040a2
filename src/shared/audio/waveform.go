package audio

import (
	"github.com/pkg/errors"
)

// Waveform is an uncompressed multichannel sample buffer.
// Samples are indexed [channel][frame] and normalized to [-1, 1].
type Waveform struct {
	SampleRate int
	Samples    [][]float64
}

func NewWaveform(sampleRate int, channelCount int, frameCount int) Waveform {
	samples := make([][]float64, channelCount)
	for i := range samples {
		samples[i] = make([]float64, frameCount)
	}

	return Waveform{
		SampleRate: sampleRate,
		Samples:    samples,
	}
}

func (w Waveform) ChannelCount() int {
	return len(w.Samples)
}

func (w Waveform) FrameCount() int {
	if len(w.Samples) == 0 {
		return 0
	}

	return len(w.Samples[0])
}

// EnsureStereo duplicates a mono channel into two.
// Waveforms that are already multichannel come back unchanged.
func (w Waveform) EnsureStereo() Waveform {
	if w.ChannelCount() != 1 {
		return w
	}

	duplicated := make([]float64, len(w.Samples[0]))
	copy(duplicated, w.Samples[0])

	return Waveform{
		SampleRate: w.SampleRate,
		Samples:    [][]float64{w.Samples[0], duplicated},
	}
}

// Resample converts the waveform to the target rate by linear
// interpolation. Good enough for conforming input to the model rate -
// the extraction step already outputs the right rate in practice.
func (w Waveform) Resample(targetRate int) Waveform {
	if w.SampleRate == targetRate || w.FrameCount() == 0 {
		resampled := w
		resampled.SampleRate = targetRate
		return resampled
	}

	ratio := float64(w.SampleRate) / float64(targetRate)
	newFrameCount := int(float64(w.FrameCount()) * float64(targetRate) / float64(w.SampleRate))

	resampled := NewWaveform(targetRate, w.ChannelCount(), newFrameCount)
	for ch, channel := range w.Samples {
		for i := 0; i < newFrameCount; i++ {
			pos := float64(i) * ratio
			left := int(pos)
			right := left + 1
			if right >= len(channel) {
				right = len(channel) - 1
			}

			frac := pos - float64(left)
			resampled.Samples[ch][i] = channel[left]*(1-frac) + channel[right]*frac
		}
	}

	return resampled
}

// Add mixes the other waveform into this one elementwise and returns
// the result. Shapes must match.
func (w Waveform) Add(other Waveform) (Waveform, error) {
	if w.ChannelCount() != other.ChannelCount() || w.FrameCount() != other.FrameCount() {
		return Waveform{}, errors.New("cannot add waveforms of mismatched shapes")
	}

	sum := NewWaveform(w.SampleRate, w.ChannelCount(), w.FrameCount())
	for ch := range w.Samples {
		for i := range w.Samples[ch] {
			sum.Samples[ch][i] = w.Samples[ch][i] + other.Samples[ch][i]
		}
	}

	return sum, nil
}

// FitFrames pads with silence or trims so the waveform has exactly
// the given number of frames per channel.
func (w Waveform) FitFrames(frameCount int) Waveform {
	if w.FrameCount() == frameCount {
		return w
	}

	fitted := NewWaveform(w.SampleRate, w.ChannelCount(), frameCount)
	for ch := range w.Samples {
		copy(fitted.Samples[ch], w.Samples[ch])
	}

	return fitted
}
