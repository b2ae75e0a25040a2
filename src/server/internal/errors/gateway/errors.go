package gateway

import (
	"fmt"
	"github.com/labstack/echo/v4"
	"github.com/veedubyou/vocal-extractor-be/src/server/api_error"
	"github.com/veedubyou/vocal-extractor-be/src/server/internal/errors/api"
	"github.com/veedubyou/vocal-extractor-be/src/server/internal/errors/auth"
	"github.com/veedubyou/vocal-extractor-be/src/server/internal/job/errors"
	"net/http"
)

var httpStatusCodeMap = map[api.ErrorCode]int{
	api.DefaultErrorCode:           http.StatusInternalServerError,
	auth.DuplicateUsernameCode:     http.StatusBadRequest,
	auth.InvalidCredentialsCode:    http.StatusUnauthorized,
	auth.NotGoogleAuthorizedCode:   http.StatusUnauthorized,
	auth.BadRequestDataCode:        http.StatusBadRequest,
	joberrors.ModelUnavailableCode: http.StatusServiceUnavailable,
	joberrors.MediaToolFailedCode:  http.StatusInternalServerError,
	joberrors.ProcessingFailedCode: http.StatusInternalServerError,
	joberrors.BadUploadCode:        http.StatusBadRequest,
	joberrors.FileNotFoundCode:     http.StatusNotFound,
}

func ErrorResponse(c echo.Context, err *api.Error) error {
	statusCode, ok := httpStatusCodeMap[err.ErrorCode]
	if !ok {
		msg := fmt.Sprintf("Error code %s has no HTTP status code mapping", err.ErrorCode)
		panic(msg)
	}

	return c.JSON(statusCode, api_error.JSONAPIError{
		Code:         string(err.ErrorCode),
		Msg:          err.UserMessage,
		ErrorDetails: err.Error(),
	})
}
