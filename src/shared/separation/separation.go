package separation

import (
	"context"
	"github.com/cockroachdb/errors"
	"github.com/veedubyou/vocal-extractor-be/src/shared/audio"
	"github.com/veedubyou/vocal-extractor-be/src/shared/lib/errors/mark"
)

//go:generate go run github.com/maxbrunsfeld/counterfeiter/v6 -generate

// ModelSampleRate is the only rate the pretrained model accepts.
// Input at any other rate is resampled before inference.
const ModelSampleRate = 44100

// Source indices in the model's fixed output order.
const (
	SourceDrums = iota
	SourceBass
	SourceOther
	SourceVocals

	SourceCount
)

//counterfeiter:generate . Model
type Model interface {
	// Apply runs one forward pass and returns the separated sources
	// in the order drums, bass, other, vocals. Every source has the
	// same shape as the input.
	Apply(ctx context.Context, wave audio.Waveform) ([]audio.Waveform, error)
}

type StemPair struct {
	Vocals       audio.Waveform
	Instrumental audio.Waveform
}

// Host owns the model instance for the process lifetime. The model is
// loaded once at startup and shared across all separations, which is
// safe because inference is stateless per call. A failed load leaves
// the host degraded rather than crashing the process - separations are
// then rejected up front.
type Host struct {
	model   Model
	loadErr error
}

func NewHost(model Model) Host {
	return Host{
		model: model,
	}
}

func NewDegradedHost(loadErr error) Host {
	return Host{
		loadErr: loadErr,
	}
}

func (h Host) Available() bool {
	return h.model != nil
}

// Separate splits the waveform into vocals and an instrumental sum of
// the three non-vocal sources.
func (h Host) Separate(ctx context.Context, wave audio.Waveform) (StemPair, error) {
	if !h.Available() {
		err := errors.New("The separation model is not loaded")
		if h.loadErr != nil {
			err = errors.Wrap(h.loadErr, "The separation model failed to load at startup")
		}

		return StemPair{}, mark.Wrap(err, ModelUnavailableMark, "Model is unavailable")
	}

	if wave.SampleRate != ModelSampleRate {
		wave = wave.Resample(ModelSampleRate)
	}

	wave = wave.EnsureStereo()

	sources, err := h.model.Apply(ctx, wave)
	if err != nil {
		return StemPair{}, mark.Wrap(err, DefaultErrorMark, "Failed to apply the separation model")
	}

	if err := validateSources(wave, sources); err != nil {
		return StemPair{}, err
	}

	instrumental := sources[SourceDrums]
	for _, source := range []int{SourceBass, SourceOther} {
		instrumental, err = instrumental.Add(sources[source])
		if err != nil {
			return StemPair{}, mark.Wrap(err, BadModelOutputMark, "Failed to sum non-vocal sources")
		}
	}

	return StemPair{
		Vocals:       sources[SourceVocals],
		Instrumental: instrumental,
	}, nil
}

func validateSources(input audio.Waveform, sources []audio.Waveform) error {
	if len(sources) != SourceCount {
		return mark.Message(BadModelOutputMark, "Model did not return four sources")
	}

	for _, source := range sources {
		if source.ChannelCount() != input.ChannelCount() || source.FrameCount() != input.FrameCount() {
			return mark.Message(BadModelOutputMark, "Model source shape doesn't match the input shape")
		}
	}

	return nil
}
