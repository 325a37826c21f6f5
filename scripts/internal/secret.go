package internal

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// GenerateSecret prints a random 256-bit HMAC key for auth.secret
func GenerateSecret() error {
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return fmt.Errorf("unable to generate key: %w", err)
	}

	fmt.Printf("Add this to your config.yaml under auth.secret:\n%s\n", hex.EncodeToString(key))
	fmt.Printf("\nOr set this environment variable:\nCOUPON_AUTH_SECRET=%s\n", hex.EncodeToString(key))
	return nil
}
