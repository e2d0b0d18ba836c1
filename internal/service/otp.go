package service

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"math/big"
	"strconv"
	"time"
)

const (
	// OTPTTL is how long an emailed code stays valid.
	OTPTTL = 5 * time.Minute
	// MaxOTPAttempts is the number of wrong submissions a code survives.
	MaxOTPAttempts = 3

	otpMin = 100000
	otpMax = 999999
)

// GenerateOTP returns a six-digit code drawn uniformly from [100000, 999999].
func GenerateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(otpMax-otpMin+1))
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(n.Int64()+otpMin, 10), nil
}

// HashOTP returns the hex SHA-256 of code. Only hashes are stored.
func HashOTP(code string) string {
	h := sha256.Sum256([]byte(code))
	return hex.EncodeToString(h[:])
}

// OTPEqual compares a submitted code with a stored hash in constant time.
func OTPEqual(code, storedHash string) bool {
	return subtle.ConstantTimeCompare([]byte(HashOTP(code)), []byte(storedHash)) == 1
}
