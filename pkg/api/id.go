package api

import (
	"crypto/rand"
	"math/big"
	"regexp"
)

const (
	idLength = 24
	charset  = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	recordIDPrefix = "rec_"
)

var recordIDPattern = regexp.MustCompile(`^rec_[a-zA-Z0-9]{24}$`)

// NewRecordID generates a new record ID with the "rec_" prefix
// followed by 24 cryptographically random alphanumeric characters.
func NewRecordID() string {
	return recordIDPrefix + randomAlphanumeric(idLength)
}

// ValidateRecordID checks whether the given string is a valid record ID
// (matches "rec_" + 24 alphanumeric characters).
func ValidateRecordID(id string) bool {
	return recordIDPattern.MatchString(id)
}

func randomAlphanumeric(n int) string {
	max := big.NewInt(int64(len(charset)))
	b := make([]byte, n)
	for i := range b {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			panic(err) // crypto/rand failure is not recoverable
		}
		b[i] = charset[idx.Int64()]
	}
	return string(b)
}
