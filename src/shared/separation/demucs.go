package separation

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/apex/log"
	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/veedubyou/vocal-extractor-be/src/shared/audio"
	"github.com/veedubyou/vocal-extractor-be/src/shared/lib/executor"
)

var _ Model = DemucsModel{}

// source file names in demucs output, indexed by Source* order
var demucsStemFileNames = []string{
	"drums.wav",
	"bass.wav",
	"other.wav",
	"vocals.wav",
}

// LoadDemucsModel verifies the demucs installation up front so that a
// broken deployment degrades at startup instead of on the first job.
func LoadDemucsModel(demucsBinPath string, workingDirStr string, commandExecutor executor.Executor) (DemucsModel, error) {
	if _, err := os.Stat(demucsBinPath); err != nil {
		return DemucsModel{}, errors.Wrap(err, "Demucs binary is not accessible")
	}

	workingDir, err := filepath.Abs(workingDirStr)
	if err != nil {
		return DemucsModel{}, errors.Wrap(err, "Failed to convert working dir to absolute format")
	}

	if err := os.MkdirAll(workingDir, os.ModePerm); err != nil {
		return DemucsModel{}, errors.Wrap(err, "Failed to create the demucs working dir")
	}

	return DemucsModel{
		demucsBinPath:   demucsBinPath,
		workingDir:      workingDir,
		commandExecutor: commandExecutor,
	}, nil
}

type DemucsModel struct {
	demucsBinPath   string
	workingDir      string
	commandExecutor executor.Executor
}

func (d DemucsModel) Apply(ctx context.Context, wave audio.Waveform) ([]audio.Waveform, error) {
	runDir := filepath.Join(d.workingDir, uuid.New().String())
	if err := os.MkdirAll(runDir, os.ModePerm); err != nil {
		return nil, errors.Wrap(err, "Failed to create a run dir for demucs")
	}

	defer func() {
		_ = os.RemoveAll(runDir)
	}()

	inputPath := filepath.Join(runDir, "input.wav")
	if err := audio.WriteWAVFile(inputPath, wave); err != nil {
		return nil, errors.Wrap(err, "Failed to write the input waveform for demucs")
	}

	// inference is a lengthy process, if we want to halt now is the time
	if ctx.Err() != nil {
		return nil, errors.Wrap(ctx.Err(), "Context cancelled before inference could happen")
	}

	if err := d.runDemucs(inputPath, runDir); err != nil {
		return nil, err
	}

	stemDir, err := findStemDir(runDir)
	if err != nil {
		return nil, errors.Wrap(err, "Failed to locate the demucs output dir")
	}

	sources := make([]audio.Waveform, 0, SourceCount)
	for _, fileName := range demucsStemFileNames {
		source, err := audio.ReadWAVFile(filepath.Join(stemDir, fileName))
		if err != nil {
			return nil, errors.Wrapf(err, "Failed to read the %s stem", fileName)
		}

		// demucs can be off by a few frames from the input, conform
		// the shape so that downstream sums line up
		source = source.FitFrames(wave.FrameCount())
		sources = append(sources, source)
	}

	return sources, nil
}

func (d DemucsModel) runDemucs(inputPath string, outputDir string) error {
	logger := log.WithFields(log.Fields{
		"inputPath": inputPath,
		"outputDir": outputDir,
	})

	logger.Info("Running demucs command")

	args := []string{"-o", outputDir, "-d", "cpu", "--filename", "{stem}.{ext}", inputPath}

	cmd := d.commandExecutor.Command(d.demucsBinPath, args...)
	cmd.SetDir(d.workingDir)

	output, err := cmd.CombinedOutput()
	if err != nil {
		return errors.Wrap(err, fmt.Sprintf("Error occurred while running demucs: %s", string(output)))
	}

	logger.Debug(string(output))
	logger.Info("Finished demucs command")

	return nil
}

// demucs nests its stems under <out>/<model name>/<track name>/,
// descend through the two directory levels to find them
func findStemDir(runDir string) (string, error) {
	modelDir, err := findSingleChildDir(runDir)
	if err != nil {
		return "", err
	}

	trackDir, err := findSingleChildDir(modelDir)
	if err != nil {
		return "", err
	}

	return trackDir, nil
}

func findSingleChildDir(dir string) (string, error) {
	dirEntries, err := os.ReadDir(dir)
	if err != nil {
		return "", errors.Wrap(err, "Error reading output directory")
	}

	for _, dirEntry := range dirEntries {
		if dirEntry.IsDir() {
			return filepath.Join(dir, dirEntry.Name()), nil
		}
	}

	return "", errors.Errorf("No child directory found in %s", dir)
}
