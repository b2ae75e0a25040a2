package jobusecase

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/apex/log"
	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/errors/markers"
	"github.com/rabbitmq/amqp091-go"
	"github.com/veedubyou/vocal-extractor-be/src/server/internal/errors/api"
	"github.com/veedubyou/vocal-extractor-be/src/server/internal/job/entity"
	"github.com/veedubyou/vocal-extractor-be/src/server/internal/job/errors"
	"github.com/veedubyou/vocal-extractor-be/src/shared/audio"
	"github.com/veedubyou/vocal-extractor-be/src/shared/filestore"
	"github.com/veedubyou/vocal-extractor-be/src/shared/lib/rabbitmq"
	"github.com/veedubyou/vocal-extractor-be/src/shared/lib/workpool"
	"github.com/veedubyou/vocal-extractor-be/src/shared/media"
	"github.com/veedubyou/vocal-extractor-be/src/shared/separation"
	"github.com/veedubyou/vocal-extractor-be/src/shared/storagepath"
)

type Usecase struct {
	modelHost separation.Host
	ffmpeg    media.FFmpeg
	pool      *workpool.Pool
	publisher rabbitmq.Publisher

	// resultStore mirrors finished stems to cloud storage when set.
	// nil disables mirroring entirely.
	resultStore   filestore.FileStore
	pathGenerator storagepath.Generator

	tempDirPath   string
	outputDirPath string
}

func NewUsecase(
	modelHost separation.Host,
	ffmpeg media.FFmpeg,
	pool *workpool.Pool,
	publisher rabbitmq.Publisher,
	resultStore filestore.FileStore,
	pathGenerator storagepath.Generator,
	tempDirPath string,
	outputDirPath string,
) Usecase {
	return Usecase{
		modelHost:     modelHost,
		ffmpeg:        ffmpeg,
		pool:          pool,
		publisher:     publisher,
		resultStore:   resultStore,
		pathGenerator: pathGenerator,
		tempDirPath:   tempDirPath,
		outputDirPath: outputDirPath,
	}
}

// Process runs the full pipeline for one upload: stage the video,
// extract its audio, separate the stems, and render them in the
// requested format. The call blocks until a pool worker has finished
// the job, so the response carries ready-to-download URLs.
func (u Usecase) Process(ctx context.Context, filename string, upload io.Reader, format string) (jobentity.Result, *api.Error) {
	// reject before staging anything so a dead model doesn't
	// accumulate orphaned uploads
	if !u.modelHost.Available() {
		err := errors.New("The separation model is not loaded")
		return jobentity.Result{}, api.CommitError(err,
			joberrors.ModelUnavailableCode,
			"The separation model is unavailable. Please try again later")
	}

	if filename == "" {
		err := errors.New("The upload has no filename")
		return jobentity.Result{}, api.CommitError(err,
			joberrors.BadUploadCode,
			"A video file is required")
	}

	job := jobentity.NewJob(filepath.Base(filename), jobentity.ParseOutputFormat(format), u.tempDirPath, u.outputDirPath)

	logger := log.WithFields(log.Fields{
		"jobID":    job.ID,
		"filename": job.OriginalFilename,
		"format":   job.Format,
	})

	logger.Info("Starting separation job")

	if err := u.stageUpload(job, upload); err != nil {
		u.reportJobFailed(job, err)
		return jobentity.Result{}, api.CommitError(err,
			api.DefaultErrorCode,
			"Unknown error: Failed to save the uploaded file")
	}

	err := u.pool.Do(func() error {
		return u.runJob(ctx, job)
	})

	// the staged files are only needed while the job runs. removal is
	// best effort - a leftover temp file is not worth failing the job
	u.cleanupTempFiles(job)

	if err != nil {
		u.reportJobFailed(job, err)
		return jobentity.Result{}, processErrorResponse(err)
	}

	logger.Info("Finished separation job")

	go u.reportJobProcessed(job)
	go u.mirrorResults(job)

	return jobentity.Result{
		VocalsURL: downloadURL(job.StemOutputPath(jobentity.VocalsStemName)),
		MusicURL:  downloadURL(job.StemOutputPath(jobentity.MusicStemName)),
	}, nil
}

// ResolveDownload maps a requested file path to a servable path on
// disk, refusing anything outside the output directory.
func (u Usecase) ResolveDownload(file string) (string, *api.Error) {
	if !strings.HasPrefix(file, u.outputDirPath) {
		err := errors.Errorf("Requested file %s is outside the output directory", file)
		return "", api.CommitError(err,
			joberrors.FileNotFoundCode,
			"File not found")
	}

	if _, err := os.Stat(file); err != nil {
		err = errors.Wrap(err, "Failed to stat the requested file")
		return "", api.CommitError(err,
			joberrors.FileNotFoundCode,
			"File not found")
	}

	return file, nil
}

func (u Usecase) stageUpload(job jobentity.Job, upload io.Reader) error {
	if err := os.MkdirAll(u.tempDirPath, os.ModePerm); err != nil {
		return errors.Wrap(err, "Failed to create the temp directory")
	}

	videoFile, err := os.Create(job.VideoPath())
	if err != nil {
		return errors.Wrap(err, "Failed to create the staged video file")
	}
	defer videoFile.Close()

	if _, err := io.Copy(videoFile, upload); err != nil {
		return errors.Wrap(err, "Failed to write the upload to disk")
	}

	return nil
}

func (u Usecase) runJob(ctx context.Context, job jobentity.Job) error {
	if err := u.ffmpeg.ExtractAudio(job.VideoPath(), job.AudioPath()); err != nil {
		return errors.Wrap(err, "Failed to extract audio from the video")
	}

	wave, err := audio.ReadWAVFile(job.AudioPath())
	if err != nil {
		return errors.Wrap(err, "Failed to read the extracted audio")
	}

	stems, err := u.modelHost.Separate(ctx, wave)
	if err != nil {
		return errors.Wrap(err, "Failed to separate the audio")
	}

	if err := os.MkdirAll(job.OutputDir(), os.ModePerm); err != nil {
		return errors.Wrap(err, "Failed to create the job output directory")
	}

	if err := u.renderStem(job, jobentity.VocalsStemName, stems.Vocals); err != nil {
		return errors.Wrap(err, "Failed to render the vocals stem")
	}

	if err := u.renderStem(job, jobentity.MusicStemName, stems.Instrumental); err != nil {
		return errors.Wrap(err, "Failed to render the music stem")
	}

	return nil
}

func (u Usecase) renderStem(job jobentity.Job, stemName string, wave audio.Waveform) error {
	wavPath := job.StemWAVPath(stemName)

	if err := audio.WriteWAVFile(wavPath, wave); err != nil {
		return errors.Wrap(err, "Failed to write the stem wav file")
	}

	if job.Format != jobentity.OutputFormatMP4 {
		return nil
	}

	if err := u.ffmpeg.RemuxAudio(wavPath, job.VideoPath(), job.StemOutputPath(stemName)); err != nil {
		return errors.Wrap(err, "Failed to remux the stem against the video")
	}

	// the wav was only an intermediate for the remux
	if err := os.Remove(wavPath); err != nil {
		log.WithField("path", wavPath).
			WithError(err).
			Warn("Failed to remove the intermediate stem wav")
	}

	return nil
}

func (u Usecase) cleanupTempFiles(job jobentity.Job) {
	for _, path := range []string{job.VideoPath(), job.AudioPath()} {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			log.WithField("path", path).
				WithError(err).
				Warn("Failed to remove a staged job file")
		}
	}
}

type jobEvent struct {
	JobID    string `json:"job_id"`
	Filename string `json:"filename"`
	Format   string `json:"format"`
	Error    string `json:"error,omitempty"`
}

func (u Usecase) reportJobProcessed(job jobentity.Job) {
	u.publishJobEvent("job_processed", jobEvent{
		JobID:    job.ID,
		Filename: job.OriginalFilename,
		Format:   string(job.Format),
	})
}

func (u Usecase) reportJobFailed(job jobentity.Job, jobErr error) {
	u.publishJobEvent("job_failed", jobEvent{
		JobID:    job.ID,
		Filename: job.OriginalFilename,
		Format:   string(job.Format),
		Error:    jobErr.Error(),
	})
}

func (u Usecase) publishJobEvent(eventType string, event jobEvent) {
	jsonBytes, err := json.Marshal(event)
	if err != nil {
		log.WithField("jobID", event.JobID).
			WithError(err).
			Error("Failed to marshal the job event")
		return
	}

	publishMsg := amqp091.Publishing{
		Type: eventType,
		Body: jsonBytes,
	}

	if err := u.publisher.Publish(publishMsg); err != nil {
		log.WithField("jobID", event.JobID).
			WithError(err).
			Error("Failed to publish the job event")
	}
}

func (u Usecase) mirrorResults(job jobentity.Job) {
	if u.resultStore == nil {
		return
	}

	for _, stemName := range []string{jobentity.VocalsStemName, jobentity.MusicStemName} {
		outputPath := job.StemOutputPath(stemName)

		contents, err := os.ReadFile(outputPath)
		if err != nil {
			log.WithField("path", outputPath).
				WithError(err).
				Error("Failed to read the stem file for mirroring")
			continue
		}

		storageURL := u.pathGenerator.GeneratePath(job.ID, filepath.Base(outputPath))
		if err := u.resultStore.WriteFile(context.Background(), storageURL, contents); err != nil {
			log.WithField("url", storageURL).
				WithError(err).
				Error("Failed to mirror the stem file to cloud storage")
		}
	}
}

func processErrorResponse(err error) *api.Error {
	switch {
	case markers.Is(err, separation.ModelUnavailableMark):
		return api.CommitError(err,
			joberrors.ModelUnavailableCode,
			"The separation model is unavailable. Please try again later")

	case markers.Is(err, media.ToolFailedMark):
		return api.CommitError(err,
			joberrors.MediaToolFailedCode,
			"Audio extraction failed. The file may not be a valid video")

	default:
		return api.CommitError(err,
			joberrors.ProcessingFailedCode,
			"Processing failed. Please try again")
	}
}

func downloadURL(filePath string) string {
	return "/download?file=" + filepath.ToSlash(filePath)
}
