// internal/auth/session.go
package auth

import (
	"crypto/ed25519"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// privateKey and publicKey sign and verify guest session tokens. The pair
// is generated per process: sessions are ephemeral and do not outlive a
// restart.
var (
	privateKey ed25519.PrivateKey
	publicKey  ed25519.PublicKey

	// tokenExpireSec is seconds until token expiry (0 => no expiry).
	tokenExpireSec int
)

// Init generates a fresh ed25519 key pair and reads TOKEN_EXPIRE_TIME
// (a Go duration, or "never"/"0"/empty for no expiry).
func Init() error {
	var err error
	publicKey, privateKey, err = ed25519.GenerateKey(nil)
	if err != nil {
		return fmt.Errorf("failed to generate ed25519 key pair: %w", err)
	}
	duration := os.Getenv("TOKEN_EXPIRE_TIME")
	switch duration {
	case "", "never", "0":
		tokenExpireSec = 0
	default:
		d, err := time.ParseDuration(duration)
		if err != nil {
			return fmt.Errorf("failed to parse TOKEN_EXPIRE_TIME: %w", err)
		}
		tokenExpireSec = int(d.Seconds())
	}
	return nil
}

// CreateToken mints a signed guest token with "sub" = playerID.
func CreateToken(playerID string) (string, error) {
	claims := jwt.MapClaims{"sub": playerID}
	if tokenExpireSec > 0 {
		claims["exp"] = time.Now().Add(time.Duration(tokenExpireSec) * time.Second).Unix()
	}
	token := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims)
	return token.SignedString(privateKey)
}

// VerifyToken checks a token and returns its "sub" claim.
func VerifyToken(tokenString string) (string, error) {
	t, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodEd25519); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return publicKey, nil
	})
	if err != nil {
		return "", fmt.Errorf("token parse error: %w", err)
	}
	if !t.Valid {
		return "", fmt.Errorf("invalid token")
	}
	claims, ok := t.Claims.(jwt.MapClaims)
	if !ok {
		return "", fmt.Errorf("invalid token claims")
	}
	sub, ok := claims["sub"].(string)
	if !ok {
		return "", fmt.Errorf("missing sub claim")
	}
	return sub, nil
}
