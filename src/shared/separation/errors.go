package separation

import "github.com/cockroachdb/errors/domains"

var (
	ModelUnavailableMark = domains.New("model_unavailable")
	BadModelOutputMark   = domains.New("bad_model_output")
	DefaultErrorMark     = domains.New("default_error")
)
