package userstorage

import (
	"context"

	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/cockroachdb/errors/markers"
	"github.com/guregu/dynamo"
	"github.com/veedubyou/vocal-extractor-be/src/server/internal/user/entity"
	"github.com/veedubyou/vocal-extractor-be/src/shared/lib/dynamo"
	"github.com/veedubyou/vocal-extractor-be/src/shared/lib/errors/mark"
)

const (
	AccountsTable = "Accounts"
	usernameKey   = "username"
	emailKey      = "email"
)

var _ Store = DB{}

type dbAccount struct {
	Username     string `dynamo:"username"`
	Email        string `dynamo:"email"`
	PasswordHash string `dynamo:"password_hash"`
	GoogleID     string `dynamo:"google_id"`
}

func (d dbAccount) toEntity() userentity.Account {
	return userentity.Account{
		Username:     d.Username,
		Email:        d.Email,
		PasswordHash: d.PasswordHash,
		GoogleID:     d.GoogleID,
	}
}

// DB is the durable variant of the account store, backed by DynamoDB.
type DB struct {
	dynamoDB dynamolib.DynamoDBWrapper
}

func NewDB(dynamoDB dynamolib.DynamoDBWrapper) DB {
	return DB{
		dynamoDB: dynamoDB,
	}
}

func (d DB) GetAccount(ctx context.Context, username string) (userentity.Account, error) {
	value := dbAccount{}
	err := d.dynamoDB.Table(AccountsTable).
		Get(usernameKey, username).
		Consistent(true).
		OneWithContext(ctx, &value)

	if err != nil {
		switch {
		case markers.Is(err, dynamo.ErrNotFound):
			return userentity.Account{}, mark.Wrap(err, AccountNotFoundMark, "Account is not found")
		default:
			return userentity.Account{}, mark.Wrap(err, DefaultErrorMark, "Failed to fetch account")
		}
	}

	return value.toEntity(), nil
}

func (d DB) CreateAccount(ctx context.Context, account userentity.Account) error {
	err := d.dynamoDB.Table(AccountsTable).
		Put(map[string]any{
			"username":      account.Username,
			"email":         account.Email,
			"password_hash": account.PasswordHash,
			"google_id":     account.GoogleID,
		}).
		If("attribute_not_exists(username)").
		RunWithContext(ctx)

	if err != nil {
		if conditionalCheckFailed(err) {
			return mark.Wrap(err, AccountExistsMark, "An account with this username already exists")
		}

		return mark.Wrap(err, DefaultErrorMark, "Failed to create account")
	}

	return nil
}

func conditionalCheckFailed(err error) bool {
	_, ok := err.(*dynamodb.ConditionalCheckFailedException)
	return ok
}

func (d DB) FindAccountByEmail(ctx context.Context, email string) (userentity.Account, error) {
	values := []dbAccount{}
	err := d.dynamoDB.Table(AccountsTable).
		Scan().
		Filter("$ = ?", emailKey, email).
		AllWithContext(ctx, &values)

	if err != nil {
		return userentity.Account{}, mark.Wrap(err, DefaultErrorMark, "Failed to fetch account")
	}

	if len(values) == 0 {
		return userentity.Account{}, mark.Message(AccountNotFoundMark, "Account is not found")
	}

	return values[0].toEntity(), nil
}
