package jobgateway

import (
	"net/http"
	"path/filepath"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/veedubyou/vocal-extractor-be/src/server/internal/errors/api"
	"github.com/veedubyou/vocal-extractor-be/src/server/internal/errors/gateway"
	"github.com/veedubyou/vocal-extractor-be/src/server/internal/job/errors"
	"github.com/veedubyou/vocal-extractor-be/src/server/internal/job/usecase"
	"github.com/veedubyou/vocal-extractor-be/src/server/internal/lib/request"
)

const LivenessMessage = "Vocal Extractor API is running!"

type Gateway struct {
	usecase jobusecase.Usecase
}

func NewGateway(usecase jobusecase.Usecase) Gateway {
	return Gateway{
		usecase: usecase,
	}
}

func (g Gateway) Root(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"message": LivenessMessage,
	})
}

func (g Gateway) Process(c echo.Context) error {
	ctx := request.Context(c)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		err = errors.Wrap(err, "Failed to read the file field of the upload")
		apiErr := api.CommitError(err,
			joberrors.BadUploadCode,
			"A video file is required")
		return gateway.ErrorResponse(c, apiErr)
	}

	upload, err := fileHeader.Open()
	if err != nil {
		err = errors.Wrap(err, "Failed to open the uploaded file")
		apiErr := api.CommitError(err,
			api.DefaultErrorCode,
			"Unknown error: Failed to read the uploaded file")
		return gateway.ErrorResponse(c, apiErr)
	}
	defer upload.Close()

	format := c.FormValue("format")

	result, apiErr := g.usecase.Process(ctx, fileHeader.Filename, upload, format)
	if apiErr != nil {
		return gateway.ErrorResponse(c, apiErr)
	}

	return c.JSON(http.StatusOK, result)
}

func (g Gateway) Download(c echo.Context) error {
	file := c.QueryParam("file")

	filePath, apiErr := g.usecase.ResolveDownload(file)
	if apiErr != nil {
		return gateway.ErrorResponse(c, apiErr)
	}

	return c.Attachment(filePath, filepath.Base(filePath))
}
