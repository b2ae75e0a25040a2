package auth

import (
	"github.com/veedubyou/vocal-extractor-be/src/server/internal/errors/api"
)

const (
	DuplicateUsernameCode   = api.ErrorCode("duplicate_username")
	InvalidCredentialsCode  = api.ErrorCode("invalid_credentials")
	NotGoogleAuthorizedCode = api.ErrorCode("failed_google_verification")
	BadRequestDataCode      = api.ErrorCode("bad_request_data")
)
