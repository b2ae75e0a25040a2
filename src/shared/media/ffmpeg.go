package media

import (
	"fmt"

	"github.com/apex/log"
	"github.com/cockroachdb/errors"
	"github.com/veedubyou/vocal-extractor-be/src/shared/lib/executor"
	"github.com/veedubyou/vocal-extractor-be/src/shared/lib/errors/mark"
)

// audio conform target: the separation model wants 44.1kHz stereo
const (
	extractSampleRate   = "44100"
	extractChannelCount = "2"
)

func NewFFmpeg(ffmpegBinPath string, commandExecutor executor.Executor) FFmpeg {
	return FFmpeg{
		ffmpegBinPath:   ffmpegBinPath,
		commandExecutor: commandExecutor,
	}
}

type FFmpeg struct {
	ffmpegBinPath   string
	commandExecutor executor.Executor
}

// ExtractAudio demuxes the audio track of the video into a stereo
// 44.1kHz wav file, discarding the video stream.
func (f FFmpeg) ExtractAudio(videoPath string, audioPath string) error {
	logger := log.WithFields(log.Fields{
		"videoPath": videoPath,
		"audioPath": audioPath,
	})

	logger.Info("Running ffmpeg audio extraction")

	args := []string{
		"-y",
		"-i", videoPath,
		"-ar", extractSampleRate,
		"-ac", extractChannelCount,
		"-vn",
		"-loglevel", "error",
		audioPath,
	}

	if err := f.run(args); err != nil {
		return errors.Wrap(err, "Failed to extract the audio track")
	}

	logger.Info("Finished ffmpeg audio extraction")
	return nil
}

// RemuxAudio combines the audio file with the video stream of the
// original upload. The map flags pin the audio stream to the first
// input and the video stream to the second - without them ffmpeg
// silently picks the wrong streams.
func (f FFmpeg) RemuxAudio(audioPath string, videoPath string, outputPath string) error {
	logger := log.WithFields(log.Fields{
		"audioPath":  audioPath,
		"videoPath":  videoPath,
		"outputPath": outputPath,
	})

	logger.Info("Running ffmpeg remux")

	args := []string{
		"-y",
		"-i", audioPath,
		"-i", videoPath,
		"-c:v", "copy",
		"-c:a", "aac",
		"-map", "0:a",
		"-map", "1:v",
		outputPath,
	}

	if err := f.run(args); err != nil {
		return errors.Wrap(err, "Failed to remux the audio against the video stream")
	}

	logger.Info("Finished ffmpeg remux")
	return nil
}

func (f FFmpeg) run(args []string) error {
	cmd := f.commandExecutor.Command(f.ffmpegBinPath, args...)

	output, err := cmd.CombinedOutput()
	if err != nil {
		err = errors.Wrap(err, fmt.Sprintf("Error occurred while running ffmpeg: %s", string(output)))
		return mark.Wrap(err, ToolFailedMark, "ffmpeg exited with an error")
	}

	return nil
}
