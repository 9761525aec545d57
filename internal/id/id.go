package id

import "crypto/rand"

const chars = "abcdefghijklmnopqrstuvwxyz0123456789"

// GenerateID creates a unique 16-character alphanumeric ID.
func GenerateID() string {
	return Suffix(16)
}

// Suffix creates a random alphanumeric string of length n.
// Used for the short random tail in generated question IDs.
func Suffix(n int) string {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		panic("crypto/rand failed: " + err.Error())
	}
	for i := range b {
		b[i] = chars[b[i]%byte(len(chars))]
	}
	return string(b)
}
