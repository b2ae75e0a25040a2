package usergateway

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/veedubyou/vocal-extractor-be/src/server/internal/errors/api"
	"github.com/veedubyou/vocal-extractor-be/src/server/internal/errors/auth"
	"github.com/veedubyou/vocal-extractor-be/src/server/internal/errors/gateway"
	"github.com/veedubyou/vocal-extractor-be/src/server/internal/lib/request"
	"github.com/veedubyou/vocal-extractor-be/src/server/internal/user/usecase"
)

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

type googleLoginRequest struct {
	Token string `json:"token"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type googleLoginResponse struct {
	Message  string `json:"message"`
	Username string `json:"username"`
}

type Gateway struct {
	usecase userusecase.Usecase
}

func NewGateway(usecase userusecase.Usecase) Gateway {
	return Gateway{
		usecase: usecase,
	}
}

func (g Gateway) Register(c echo.Context) error {
	ctx := request.Context(c)

	registration := registerRequest{}
	if err := c.Bind(&registration); err != nil {
		return gateway.ErrorResponse(c, bindError(err, "registration"))
	}

	message, apiErr := g.usecase.Register(ctx, registration.Username, registration.Email, registration.Password)
	if apiErr != nil {
		return gateway.ErrorResponse(c, apiErr)
	}

	return c.JSON(http.StatusOK, messageResponse{Message: message})
}

func (g Gateway) Login(c echo.Context) error {
	ctx := request.Context(c)

	login := loginRequest{}
	if err := c.Bind(&login); err != nil {
		return gateway.ErrorResponse(c, bindError(err, "login"))
	}

	message, apiErr := g.usecase.Login(ctx, login.Username, login.Password)
	if apiErr != nil {
		return gateway.ErrorResponse(c, apiErr)
	}

	return c.JSON(http.StatusOK, messageResponse{Message: message})
}

func (g Gateway) ForgotPassword(c echo.Context) error {
	ctx := request.Context(c)

	forgot := forgotPasswordRequest{}
	if err := c.Bind(&forgot); err != nil {
		return gateway.ErrorResponse(c, bindError(err, "forgot password"))
	}

	message, apiErr := g.usecase.ForgotPassword(ctx, forgot.Email)
	if apiErr != nil {
		return gateway.ErrorResponse(c, apiErr)
	}

	return c.JSON(http.StatusOK, messageResponse{Message: message})
}

func (g Gateway) GoogleLogin(c echo.Context) error {
	ctx := request.Context(c)

	googleLogin := googleLoginRequest{}
	if err := c.Bind(&googleLogin); err != nil {
		return gateway.ErrorResponse(c, bindError(err, "google login"))
	}

	account, apiErr := g.usecase.GoogleLogin(ctx, googleLogin.Token)
	if apiErr != nil {
		return gateway.ErrorResponse(c, apiErr)
	}

	return c.JSON(http.StatusOK, googleLoginResponse{
		Message:  userusecase.GoogleLoginSuccessMsg,
		Username: account.Username,
	})
}

func bindError(err error, requestName string) *api.Error {
	err = errors.Wrap(err, "Failed to bind the "+requestName+" request body")
	return api.CommitError(err,
		auth.BadRequestDataCode,
		"The "+requestName+" data received was malformed")
}
