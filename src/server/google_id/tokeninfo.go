package google_id

import (
	"context"
	"github.com/cockroachdb/errors"
	"github.com/go-resty/resty/v2"
	"github.com/veedubyou/vocal-extractor-be/src/shared/lib/errors/mark"
)

const tokenInfoEndpoint = "https://oauth2.googleapis.com/tokeninfo"

var _ Validator = TokenInfoValidator{}

// TokenInfoValidator forwards the token to Google's tokeninfo endpoint
// and trusts the JSON response. It performs no signature verification
// of its own - the endpoint's verdict is taken as is.
type TokenInfoValidator struct {
	client *resty.Client
}

func NewTokenInfoValidator() TokenInfoValidator {
	return TokenInfoValidator{
		client: resty.New(),
	}
}

type tokenInfoResponse struct {
	Sub              string `json:"sub"`
	Name             string `json:"name"`
	Email            string `json:"email"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

func (t TokenInfoValidator) ValidateToken(ctx context.Context, requestToken string) (User, error) {
	tokenInfo := tokenInfoResponse{}

	response, err := t.client.R().
		SetContext(ctx).
		SetQueryParam("id_token", requestToken).
		SetResult(&tokenInfo).
		SetError(&tokenInfo).
		Get(tokenInfoEndpoint)

	if err != nil {
		return User{}, errors.Wrap(err, "Failed to reach the tokeninfo endpoint")
	}

	if response.IsError() || tokenInfo.Error != "" {
		description := tokenInfo.ErrorDescription
		if description == "" {
			description = tokenInfo.Error
		}

		err := errors.Errorf("Tokeninfo rejected the token: %s", description)
		return User{}, mark.Wrap(err, NotValidatedMark, "Token could not be validated")
	}

	if tokenInfo.Sub == "" {
		err := errors.New("Tokeninfo response is missing the sub field")
		return User{}, mark.Wrap(err, MalformedClaimsMark, "sub field on claims is malformed")
	}

	return User{
		GoogleID: tokenInfo.Sub,
		Name:     tokenInfo.Name,
		Email:    tokenInfo.Email,
	}, nil
}
