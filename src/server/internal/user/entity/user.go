package userentity

import (
	"crypto/sha256"
	"encoding/hex"
)

// Account is one registered user. Locally registered accounts carry a
// password hash, externally authenticated ones a Google ID instead.
type Account struct {
	Username     string `json:"username"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"`
	GoogleID     string `json:"-"`
}

// HashPassword is a single unsalted SHA-256 pass. Weak on purpose -
// this matches the demonstration-grade auth the service ships with.
func HashPassword(password string) string {
	digest := sha256.Sum256([]byte(password))
	return hex.EncodeToString(digest[:])
}

func (a Account) PasswordMatches(password string) bool {
	return a.PasswordHash != "" && a.PasswordHash == HashPassword(password)
}
