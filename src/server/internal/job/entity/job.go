package jobentity

import (
	"fmt"
	"path/filepath"

	"github.com/google/uuid"
)

type OutputFormat string

const (
	OutputFormatWAV = OutputFormat("wav")
	OutputFormatMP4 = OutputFormat("mp4")

	VocalsStemName = "vocals"
	MusicStemName  = "music"
)

// ParseOutputFormat treats "wav" as wav and everything else, including
// the empty string, as mp4.
func ParseOutputFormat(format string) OutputFormat {
	if format == string(OutputFormatWAV) {
		return OutputFormatWAV
	}

	return OutputFormatMP4
}

// Job is one separation request. The ID namespaces every file the job
// touches so that concurrent requests never collide on disk.
type Job struct {
	ID               string
	OriginalFilename string
	Format           OutputFormat

	tempDirPath   string
	outputDirPath string
}

func NewJob(originalFilename string, format OutputFormat, tempDirPath string, outputDirPath string) Job {
	return Job{
		ID:               uuid.New().String(),
		OriginalFilename: originalFilename,
		Format:           format,
		tempDirPath:      tempDirPath,
		outputDirPath:    outputDirPath,
	}
}

// VideoPath is where the raw upload is staged.
func (j Job) VideoPath() string {
	return filepath.Join(j.tempDirPath, fmt.Sprintf("%s_%s", j.ID, j.OriginalFilename))
}

// AudioPath is where the extracted audio track is staged.
func (j Job) AudioPath() string {
	return filepath.Join(j.tempDirPath, fmt.Sprintf("%s_audio.wav", j.ID))
}

// OutputDir holds the job's final stem files.
func (j Job) OutputDir() string {
	return filepath.Join(j.outputDirPath, j.ID)
}

// StemWAVPath is the wav rendition of a stem. For wav jobs this is the
// final file, for mp4 jobs it's the remux intermediate.
func (j Job) StemWAVPath(stemName string) string {
	return filepath.Join(j.OutputDir(), stemName+".wav")
}

// StemOutputPath is the file the client ends up downloading.
func (j Job) StemOutputPath(stemName string) string {
	return filepath.Join(j.OutputDir(), fmt.Sprintf("%s.%s", stemName, j.Format))
}

// Result carries the download URLs handed back to the client.
type Result struct {
	VocalsURL string `json:"vocals_url"`
	MusicURL  string `json:"music_url"`
}
