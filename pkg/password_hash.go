package pkg

import (
	"crypto/sha256"
	"encoding/hex"

	"golang.org/x/crypto/bcrypt"
)

const (
	PasswordHashCost = 14

	// bcrypt refuses longer input
	bcryptMaxPasswordBytes = 72
)

func HashPassword(password string) (string, error) {
	return HashPasswordWithCost(password, PasswordHashCost)
}

// HashPasswordWithCost is used by tools and tests where cost 14 is too slow.
func HashPasswordWithCost(password string, cost int) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword(bcryptInput(password), cost)
	return BytesToString(bytes), err
}

func CheckPasswordHash(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), bcryptInput(password)) == nil
}

// bcryptInput digests passwords over the bcrypt limit, so long passwords
// are neither rejected nor silently truncated.
func bcryptInput(password string) []byte {
	if len(password) <= bcryptMaxPasswordBytes {
		return []byte(password)
	}
	sum := sha256.Sum256([]byte(password))
	return []byte(hex.EncodeToString(sum[:]))
}
