package userstorage

import (
	"context"

	"github.com/cockroachdb/errors/domains"
	"github.com/veedubyou/vocal-extractor-be/src/server/internal/user/entity"
)

var (
	AccountNotFoundMark = domains.New("account_not_found")
	AccountExistsMark   = domains.New("account_exists")
	DefaultErrorMark    = domains.New("default_error")
)

//go:generate go run github.com/maxbrunsfeld/counterfeiter/v6 -generate

// Store abstracts the account repository so a durable backing store
// can be swapped in without touching the request handlers.
//counterfeiter:generate . Store
type Store interface {
	GetAccount(ctx context.Context, username string) (userentity.Account, error)
	CreateAccount(ctx context.Context, account userentity.Account) error
	FindAccountByEmail(ctx context.Context, email string) (userentity.Account, error)
}
