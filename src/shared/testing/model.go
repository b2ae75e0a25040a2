package testing

import (
	"context"

	"github.com/veedubyou/vocal-extractor-be/src/shared/audio"
	"github.com/veedubyou/vocal-extractor-be/src/shared/separation"
)

var _ separation.Model = StubModel{}

// StubModel returns four constant-valued sources shaped like the
// input, so stem math can be asserted exactly: the instrumental should
// come out as the sum of the first three source values.
type StubModel struct {
	SourceValues [separation.SourceCount]float64

	// Err short circuits Apply when set
	Err error
}

func (s StubModel) Apply(ctx context.Context, wave audio.Waveform) ([]audio.Waveform, error) {
	if s.Err != nil {
		return nil, s.Err
	}

	sources := make([]audio.Waveform, separation.SourceCount)
	for i := range sources {
		sources[i] = constantWaveform(wave, s.SourceValues[i])
	}

	return sources, nil
}

func constantWaveform(shape audio.Waveform, value float64) audio.Waveform {
	wave := audio.NewWaveform(shape.SampleRate, shape.ChannelCount(), shape.FrameCount())
	for channel := range wave.Samples {
		for frame := range wave.Samples[channel] {
			wave.Samples[channel][frame] = value
		}
	}

	return wave
}
