package media

import "github.com/cockroachdb/errors/domains"

var (
	ToolFailedMark   = domains.New("media_tool_failed")
	DefaultErrorMark = domains.New("default_error")
)
