package joberrors

import (
	"github.com/veedubyou/vocal-extractor-be/src/server/internal/errors/api"
)

const (
	ModelUnavailableCode = api.ErrorCode("model_unavailable")
	MediaToolFailedCode  = api.ErrorCode("media_tool_failed")
	ProcessingFailedCode = api.ErrorCode("processing_failed")
	BadUploadCode        = api.ErrorCode("bad_upload")
	FileNotFoundCode     = api.ErrorCode("file_not_found")
)
