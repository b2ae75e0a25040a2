package testing

import (
	"context"
	"fmt"

	"github.com/veedubyou/vocal-extractor-be/src/server/google_id"
	"github.com/veedubyou/vocal-extractor-be/src/shared/lib/errors/mark"
)

type Account struct {
	Username string
	Email    string
	Password string
}

var (
	// registered up front in most suites
	RegisteredAccount = Account{
		Username: "registered_user",
		Email:    "registered@vocalextractor.com",
		Password: "hunter2",
	}

	// valid input but never registered
	UnregisteredAccount = Account{
		Username: "unregistered_user",
		Email:    "unregistered@vocalextractor.com",
		Password: "letmein",
	}
)

type GoogleAccount struct {
	GoogleID string
	Name     string
	Email    string
}

var (
	// passes the fake validator
	GoogleUser = GoogleAccount{
		GoogleID: "1234567890",
		Name:     "Google User",
		Email:    "googleuser@gmail.com",
	}

	// fails the fake validator
	GoogleStranger = GoogleAccount{
		GoogleID: "0987654321",
		Name:     "Google Stranger",
		Email:    "stranger@gmail.com",
	}
)

func TokenForGoogleID(googleID string) string {
	return fmt.Sprintf("%s-token", googleID)
}

var _ google_id.Validator = Validator{}

// Validator accepts exactly the tokens minted by TokenForGoogleID for
// the known fixture accounts.
type Validator struct{}

func (t Validator) ValidateToken(ctx context.Context, requestToken string) (google_id.User, error) {
	validatedAccounts := []GoogleAccount{GoogleUser}

	for _, validatedAccount := range validatedAccounts {
		if requestToken == TokenForGoogleID(validatedAccount.GoogleID) {
			return google_id.User{
				GoogleID: validatedAccount.GoogleID,
				Name:     validatedAccount.Name,
				Email:    validatedAccount.Email,
			}, nil
		}
	}

	return google_id.User{}, mark.Message(google_id.NotValidatedMark, "User is not validated")
}
