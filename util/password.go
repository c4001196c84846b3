package util

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"os"
	"strings"
	"sync"

	"golang.org/x/crypto/argon2"
)

var (
	jwtSecretByte = []byte(getEnv("JWTSECRET", ""))
	jwtMutex      sync.RWMutex
)

// Argon2id parameters. Changing these invalidates no stored hash because
// each hash string carries its own parameters.
const (
	argonTime    = 1
	argonMemory  = 64 * 1024
	argonThreads = 4
	argonKeyLen  = 32
	saltLen      = 16
)

func getEnv(key, fallback string) string {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	return value
}

// HashPassword is the legacy HMAC-SHA256 hasher. Still used to verify
// accounts created before the Argon2 migration; logins upgrade such hashes
// in place.
func HashPassword(password string) (hashedPassword string) {
	secretByte := GetJWTSecretByte()
	h := hmac.New(sha256.New, secretByte)
	h.Write([]byte(password))
	hashedPassword = hex.EncodeToString(h.Sum(nil))
	return
}

// GenerateSalt returns a fresh random salt, hex encoded.
func GenerateSalt() (string, error) {
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}
	return hex.EncodeToString(salt), nil
}

// HashPasswordArgon2 derives an Argon2id hash of password with the given hex
// salt. The result embeds the parameters: argon2id$t$m$p$hash.
func HashPasswordArgon2(password, salt string) (string, error) {
	saltByte, err := hex.DecodeString(salt)
	if err != nil {
		return "", fmt.Errorf("invalid salt: %w", err)
	}
	key := argon2.IDKey([]byte(password), saltByte, argonTime, argonMemory, argonThreads, argonKeyLen)
	return fmt.Sprintf("argon2id$%d$%d$%d$%s", argonTime, argonMemory, argonThreads, hex.EncodeToString(key)), nil
}

// VerifyPassword checks a plain password against a stored hash. Argon2id
// hashes are verified with their embedded parameters; anything else falls
// back to the legacy HMAC scheme.
func VerifyPassword(plain, stored, salt string) (bool, error) {
	if !strings.HasPrefix(stored, "argon2id$") {
		legacy := HashPassword(plain)
		return subtle.ConstantTimeCompare([]byte(legacy), []byte(stored)) == 1, nil
	}

	parts := strings.Split(stored, "$")
	if len(parts) != 5 {
		return false, fmt.Errorf("malformed password hash")
	}
	var t, m uint32
	var p uint8
	if _, err := fmt.Sscanf(parts[1], "%d", &t); err != nil {
		return false, fmt.Errorf("malformed password hash: %w", err)
	}
	if _, err := fmt.Sscanf(parts[2], "%d", &m); err != nil {
		return false, fmt.Errorf("malformed password hash: %w", err)
	}
	if _, err := fmt.Sscanf(parts[3], "%d", &p); err != nil {
		return false, fmt.Errorf("malformed password hash: %w", err)
	}

	saltByte, err := hex.DecodeString(salt)
	if err != nil {
		return false, fmt.Errorf("invalid salt: %w", err)
	}
	expected, err := hex.DecodeString(parts[4])
	if err != nil {
		return false, fmt.Errorf("malformed password hash: %w", err)
	}

	key := argon2.IDKey([]byte(plain), saltByte, t, m, p, uint32(len(expected)))
	return subtle.ConstantTimeCompare(key, expected) == 1, nil
}

// SetJWTSecret allows tests or runtime code to update the JWT secret used
// for both token signing and legacy password hashing. This function is
// thread-safe and can be called concurrently.
func SetJWTSecret(secret string) {
	jwtMutex.Lock()
	defer jwtMutex.Unlock()
	jwtSecretByte = []byte(secret)
}

// GetJWTSecretByte returns a copy of the current JWT secret bytes in a thread-safe manner.
func GetJWTSecretByte() []byte {
	jwtMutex.RLock()
	defer jwtMutex.RUnlock()
	return append([]byte(nil), jwtSecretByte...)
}
