package userusecase

import (
	"context"
	"strings"

	"github.com/apex/log"
	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/errors/markers"
	"github.com/veedubyou/vocal-extractor-be/src/server/google_id"
	"github.com/veedubyou/vocal-extractor-be/src/server/internal/errors/api"
	"github.com/veedubyou/vocal-extractor-be/src/server/internal/errors/auth"
	"github.com/veedubyou/vocal-extractor-be/src/server/internal/user/entity"
	"github.com/veedubyou/vocal-extractor-be/src/server/internal/user/storage"
)

const (
	RegistrationSuccessMsg = "Registration successful"
	LoginSuccessMsg        = "Login successful"
	GoogleLoginSuccessMsg  = "Google login successful"

	// the reset messages leak whether an account exists for the email,
	// since only the found case says "simulated". kept as is until a
	// real mailer makes the simulated path go away
	ResetLinkSentMsg    = "Password reset link sent (simulated)"
	ResetLinkGenericMsg = "If an account exists, a reset link has been sent."

	googleIDSuffixLen = 6
)

type Usecase struct {
	store           userstorage.Store
	googleValidator google_id.Validator
}

func NewUsecase(store userstorage.Store, googleValidator google_id.Validator) Usecase {
	return Usecase{
		store:           store,
		googleValidator: googleValidator,
	}
}

func (u Usecase) Register(ctx context.Context, username string, email string, password string) (string, *api.Error) {
	if username == "" || password == "" {
		err := errors.New("Username or password is empty")
		return "", api.CommitError(err,
			auth.BadRequestDataCode,
			"A username and password are required to register")
	}

	newAccount := userentity.Account{
		Username:     username,
		Email:        email,
		PasswordHash: userentity.HashPassword(password),
	}

	if err := u.store.CreateAccount(ctx, newAccount); err != nil {
		switch {
		case markers.Is(err, userstorage.AccountExistsMark):
			return "", api.CommitError(err,
				auth.DuplicateUsernameCode,
				"Username already exists")

		default:
			return "", api.CommitError(err,
				api.DefaultErrorCode,
				"Unknown error: Failed to create the account")
		}
	}

	return RegistrationSuccessMsg, nil
}

func (u Usecase) Login(ctx context.Context, username string, password string) (string, *api.Error) {
	account, err := u.store.GetAccount(ctx, username)
	if err != nil {
		switch {
		case markers.Is(err, userstorage.AccountNotFoundMark):
			// same response as a wrong password so that login can't
			// be used to probe which usernames are registered
			return "", api.CommitError(err,
				auth.InvalidCredentialsCode,
				"Invalid credentials")

		default:
			return "", api.CommitError(err,
				api.DefaultErrorCode,
				"Unknown error: Failed to fetch the account")
		}
	}

	if !account.PasswordMatches(password) {
		err := errors.New("Password hash doesn't match")
		return "", api.CommitError(err,
			auth.InvalidCredentialsCode,
			"Invalid credentials")
	}

	return LoginSuccessMsg, nil
}

func (u Usecase) ForgotPassword(ctx context.Context, email string) (string, *api.Error) {
	_, err := u.store.FindAccountByEmail(ctx, email)
	if err != nil {
		switch {
		case markers.Is(err, userstorage.AccountNotFoundMark):
			return ResetLinkGenericMsg, nil

		default:
			return "", api.CommitError(err,
				api.DefaultErrorCode,
				"Unknown error: Failed to look up the account")
		}
	}

	// no mailer is wired up - the link is only simulated
	log.WithField("email", email).Info("Simulating a password reset link email")
	return ResetLinkSentMsg, nil
}

func (u Usecase) GoogleLogin(ctx context.Context, token string) (userentity.Account, *api.Error) {
	googleUser, apiErr := u.validateToken(ctx, token)
	if apiErr != nil {
		return userentity.Account{}, api.WrapError(apiErr, "Failed to validate Google token")
	}

	username := deriveUsername(googleUser)

	account, err := u.store.GetAccount(ctx, username)
	if err == nil {
		return account, nil
	}

	if !markers.Is(err, userstorage.AccountNotFoundMark) {
		return userentity.Account{}, api.CommitError(err,
			api.DefaultErrorCode,
			"Unknown error: Failed to fetch the account")
	}

	newAccount := userentity.Account{
		Username: username,
		Email:    googleUser.Email,
		GoogleID: googleUser.GoogleID,
	}

	if err := u.store.CreateAccount(ctx, newAccount); err != nil {
		// a concurrent google login for the same user can land first,
		// in which case the account it made is just as good
		if markers.Is(err, userstorage.AccountExistsMark) {
			return u.fetchAccount(ctx, username)
		}

		return userentity.Account{}, api.CommitError(err,
			api.DefaultErrorCode,
			"Unknown error: Failed to create the account")
	}

	return newAccount, nil
}

func (u Usecase) fetchAccount(ctx context.Context, username string) (userentity.Account, *api.Error) {
	account, err := u.store.GetAccount(ctx, username)
	if err != nil {
		return userentity.Account{}, api.CommitError(err,
			api.DefaultErrorCode,
			"Unknown error: Failed to fetch the account")
	}

	return account, nil
}

func (u Usecase) validateToken(ctx context.Context, token string) (google_id.User, *api.Error) {
	if token == "" {
		return google_id.User{}, api.CommitError(
			errors.New("No token provided in the request"),
			auth.BadRequestDataCode,
			"A Google ID token is required to log in")
	}

	googleUser, err := u.googleValidator.ValidateToken(ctx, token)
	if err != nil {
		err = errors.Wrap(err, "Failed to validate Google ID token")
		switch {
		case markers.Is(err, google_id.NotValidatedMark):
			return google_id.User{}, api.CommitError(err,
				auth.NotGoogleAuthorizedCode,
				"Your Google login doesn't seem to be valid. Please try again")

		case markers.Is(err, google_id.MalformedClaimsMark):
			fallthrough
		default:
			return google_id.User{}, api.CommitError(err,
				api.DefaultErrorCode,
				"Unknown error: Couldn't verify your Google login status")
		}
	}

	return googleUser, nil
}

// deriveUsername makes a stable local username from the Google profile:
// the lowercased display name with spaces collapsed to underscores,
// suffixed with a prefix of the subject ID to disambiguate name clashes.
func deriveUsername(googleUser google_id.User) string {
	name := strings.ToLower(googleUser.Name)
	name = strings.ReplaceAll(name, " ", "_")

	suffix := googleUser.GoogleID
	if len(suffix) > googleIDSuffixLen {
		suffix = suffix[:googleIDSuffixLen]
	}

	return name + "_" + suffix
}
