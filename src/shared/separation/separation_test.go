package separation_test

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/errors/markers"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/veedubyou/vocal-extractor-be/src/shared/audio"
	"github.com/veedubyou/vocal-extractor-be/src/shared/separation"
	"github.com/veedubyou/vocal-extractor-be/src/shared/testing"
)

// shapedModel lets tests break the model output contract on purpose.
type shapedModel struct {
	sources func(wave audio.Waveform) []audio.Waveform
}

func (s shapedModel) Apply(ctx context.Context, wave audio.Waveform) ([]audio.Waveform, error) {
	return s.sources(wave), nil
}

func makeWave(sampleRate int, channelCount int, frameCount int, value float64) audio.Waveform {
	wave := audio.NewWaveform(sampleRate, channelCount, frameCount)
	for channel := range wave.Samples {
		for frame := range wave.Samples[channel] {
			wave.Samples[channel][frame] = value
		}
	}

	return wave
}

var _ = Describe("Separation", func() {
	var (
		stubModel testing.StubModel
		host      separation.Host
	)

	BeforeEach(func() {
		stubModel = testing.StubModel{
			SourceValues: [separation.SourceCount]float64{0.1, 0.2, 0.3, 0.25},
		}
		host = separation.NewHost(stubModel)
	})

	Describe("Separate", func() {
		var (
			input audio.Waveform
			stems separation.StemPair
		)

		BeforeEach(func() {
			input = makeWave(separation.ModelSampleRate, 2, 1000, 0.5)
		})

		JustBeforeEach(func() {
			var err error
			stems, err = host.Separate(context.Background(), input)
			Expect(err).NotTo(HaveOccurred())
		})

		It("returns stems shaped like the input", func() {
			Expect(stems.Vocals.ChannelCount()).To(Equal(2))
			Expect(stems.Vocals.FrameCount()).To(Equal(1000))
			Expect(stems.Instrumental.ChannelCount()).To(Equal(2))
			Expect(stems.Instrumental.FrameCount()).To(Equal(1000))
		})

		It("passes the vocals source through", func() {
			Expect(stems.Vocals.Samples[0][0]).To(BeNumerically("~", 0.25, 1e-9))
		})

		It("sums the non-vocal sources into the instrumental", func() {
			Expect(stems.Instrumental.Samples[0][0]).To(BeNumerically("~", 0.6, 1e-9))
			Expect(stems.Instrumental.Samples[1][999]).To(BeNumerically("~", 0.6, 1e-9))
		})

		Describe("With mono input", func() {
			BeforeEach(func() {
				input = makeWave(separation.ModelSampleRate, 1, 1000, 0.5)
			})

			It("widens to stereo before applying the model", func() {
				Expect(stems.Vocals.ChannelCount()).To(Equal(2))
				Expect(stems.Instrumental.ChannelCount()).To(Equal(2))
			})
		})

		Describe("With input at a different sample rate", func() {
			BeforeEach(func() {
				input = makeWave(22050, 2, 500, 0.5)
			})

			It("resamples to the model rate", func() {
				Expect(stems.Vocals.SampleRate).To(Equal(separation.ModelSampleRate))
				Expect(stems.Vocals.FrameCount()).To(Equal(1000))
			})
		})
	})

	Describe("With a degraded host", func() {
		BeforeEach(func() {
			host = separation.NewDegradedHost(errors.New("model binary missing"))
		})

		It("is not available", func() {
			Expect(host.Available()).To(BeFalse())
		})

		It("rejects separations with the unavailable mark", func() {
			input := makeWave(separation.ModelSampleRate, 2, 10, 0.5)

			_, err := host.Separate(context.Background(), input)
			Expect(err).To(HaveOccurred())
			Expect(markers.Is(err, separation.ModelUnavailableMark)).To(BeTrue())
		})
	})

	Describe("With a model returning the wrong source count", func() {
		BeforeEach(func() {
			model := shapedModel{
				sources: func(wave audio.Waveform) []audio.Waveform {
					return []audio.Waveform{wave, wave}
				},
			}
			host = separation.NewHost(model)
		})

		It("rejects the output", func() {
			input := makeWave(separation.ModelSampleRate, 2, 10, 0.5)

			_, err := host.Separate(context.Background(), input)
			Expect(err).To(HaveOccurred())
			Expect(markers.Is(err, separation.BadModelOutputMark)).To(BeTrue())
		})
	})

	Describe("With a model returning mismatched shapes", func() {
		BeforeEach(func() {
			model := shapedModel{
				sources: func(wave audio.Waveform) []audio.Waveform {
					short := makeWave(wave.SampleRate, wave.ChannelCount(), wave.FrameCount()/2, 0)
					return []audio.Waveform{wave, wave, wave, short}
				},
			}
			host = separation.NewHost(model)
		})

		It("rejects the output", func() {
			input := makeWave(separation.ModelSampleRate, 2, 10, 0.5)

			_, err := host.Separate(context.Background(), input)
			Expect(err).To(HaveOccurred())
			Expect(markers.Is(err, separation.BadModelOutputMark)).To(BeTrue())
		})
	})
})
