package config

// File layout, relative to the process working directory.
const (
	TempDirPath          = "temp"
	OutputDirPath        = "separated_output"
	DemucsWorkingDirPath = "demucs_work"
)
