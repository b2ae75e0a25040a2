package separation_test

import (
	"context"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/veedubyou/vocal-extractor-be/src/shared/audio"
	"github.com/veedubyou/vocal-extractor-be/src/shared/separation"
	"github.com/veedubyou/vocal-extractor-be/src/shared/testing"
)

var _ = Describe("DemucsModel", func() {
	var (
		demucsBinPath   string
		workingDir      string
		commandExecutor *testing.ScriptedExecutor
	)

	BeforeEach(func() {
		tempDir := GinkgoT().TempDir()

		// LoadDemucsModel stats the binary, an empty file satisfies it
		demucsBinPath = filepath.Join(tempDir, "demucs")
		Expect(os.WriteFile(demucsBinPath, []byte{}, 0755)).To(Succeed())

		workingDir = filepath.Join(tempDir, "demucs_work")
		commandExecutor = &testing.ScriptedExecutor{}
	})

	Describe("Loading", func() {
		It("loads when the binary exists", func() {
			_, err := separation.LoadDemucsModel(demucsBinPath, workingDir, commandExecutor)
			Expect(err).NotTo(HaveOccurred())
		})

		It("creates the working dir", func() {
			_, err := separation.LoadDemucsModel(demucsBinPath, workingDir, commandExecutor)
			Expect(err).NotTo(HaveOccurred())
			Expect(workingDir).To(BeADirectory())
		})

		It("fails when the binary is missing", func() {
			_, err := separation.LoadDemucsModel(filepath.Join(workingDir, "no-such-demucs"), workingDir, commandExecutor)
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("Apply", func() {
		var (
			model separation.DemucsModel
			input audio.Waveform
		)

		outputDirFromArgs := func(args []string) string {
			for i, arg := range args {
				if arg == "-o" && i+1 < len(args) {
					return args[i+1]
				}
			}

			Fail("demucs args are missing the -o flag")
			return ""
		}

		writeStems := func(outputDir string, frameCount int) {
			// mimic the <out>/<model>/<track>/ nesting of real demucs
			stemDir := filepath.Join(outputDir, "htdemucs", "input")
			Expect(os.MkdirAll(stemDir, os.ModePerm)).To(Succeed())

			stemValues := map[string]float64{
				"drums.wav":  0.1,
				"bass.wav":   0.2,
				"other.wav":  0.3,
				"vocals.wav": 0.4,
			}

			for fileName, value := range stemValues {
				stem := audio.NewWaveform(separation.ModelSampleRate, 2, frameCount)
				for ch := range stem.Samples {
					for i := range stem.Samples[ch] {
						stem.Samples[ch][i] = value
					}
				}

				Expect(audio.WriteWAVFile(filepath.Join(stemDir, fileName), stem)).To(Succeed())
			}
		}

		BeforeEach(func() {
			var err error
			model, err = separation.LoadDemucsModel(demucsBinPath, workingDir, commandExecutor)
			Expect(err).NotTo(HaveOccurred())

			input = audio.NewWaveform(separation.ModelSampleRate, 2, 1000)
		})

		Describe("With well behaved output", func() {
			var sources []audio.Waveform

			BeforeEach(func() {
				commandExecutor.Handler = func(command testing.ExecutedCommand) ([]byte, error) {
					// off by a few frames, as the real model can be
					writeStems(outputDirFromArgs(command.Args), 997)
					return nil, nil
				}

				var err error
				sources, err = model.Apply(context.Background(), input)
				Expect(err).NotTo(HaveOccurred())
			})

			It("returns the sources in drums, bass, other, vocals order", func() {
				Expect(sources).To(HaveLen(separation.SourceCount))
				Expect(sources[separation.SourceDrums].Samples[0][0]).To(BeNumerically("~", 0.1, 1e-3))
				Expect(sources[separation.SourceBass].Samples[0][0]).To(BeNumerically("~", 0.2, 1e-3))
				Expect(sources[separation.SourceOther].Samples[0][0]).To(BeNumerically("~", 0.3, 1e-3))
				Expect(sources[separation.SourceVocals].Samples[0][0]).To(BeNumerically("~", 0.4, 1e-3))
			})

			It("conforms every source to the input frame count", func() {
				for _, source := range sources {
					Expect(source.FrameCount()).To(Equal(input.FrameCount()))
				}
			})

			It("runs demucs on cpu against the staged input", func() {
				executed := commandExecutor.ExecutedCommands()
				Expect(executed).To(HaveLen(1))
				Expect(executed[0].Name).To(Equal(demucsBinPath))
				Expect(executed[0].Args).To(ContainElements("-d", "cpu", "--filename", "{stem}.{ext}"))
				Expect(executed[0].Dir).NotTo(BeEmpty())
			})

			It("cleans up its run dir", func() {
				dirEntries, err := os.ReadDir(workingDir)
				Expect(err).NotTo(HaveOccurred())
				Expect(dirEntries).To(BeEmpty())
			})
		})

		It("fails when the subprocess fails", func() {
			commandExecutor.Handler = func(command testing.ExecutedCommand) ([]byte, error) {
				return []byte("CUDA out of memory"), errors.New("exit status 1")
			}

			_, err := model.Apply(context.Background(), input)
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("CUDA out of memory"))
		})

		It("fails when the output dir has no stems", func() {
			commandExecutor.Handler = func(command testing.ExecutedCommand) ([]byte, error) {
				return nil, nil
			}

			_, err := model.Apply(context.Background(), input)
			Expect(err).To(HaveOccurred())
		})

		It("halts when the context is already cancelled", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			_, err := model.Apply(ctx, input)
			Expect(err).To(HaveOccurred())
			Expect(commandExecutor.ExecutedCommands()).To(BeEmpty())
		})
	})
})
