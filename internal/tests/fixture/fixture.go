package fixture

import (
	"math/rand"
)

func RandAlpha(length int) string {
	b := make([]byte, length)
	for i := range b {
		base := byte('a')
		offset := rand.Intn(26) // a-z lowercase only
		b[i] = base + byte(offset)
	}
	return string(b)
}

const hexDigits = "0123456789abcdef"

// RandHex returns length lowercase hex digits.
func RandHex(length int) string {
	b := make([]byte, length)
	for i := range b {
		b[i] = hexDigits[rand.Intn(len(hexDigits))]
	}
	return string(b)
}

// AccessKeyID returns a random key ID in the format Garage generates.
func AccessKeyID() string {
	return "GK" + RandHex(24)
}

// SecretAccessKey returns a random 64 digit hex secret.
func SecretAccessKey() string {
	return RandHex(64)
}
