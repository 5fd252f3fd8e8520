package tokens

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

func SignRefreshToken(userID uint, now time.Time, secret []byte) (string, time.Time, error) {
	exp := now.Add(RefreshTTL)
	token, err := sign(userID, now, exp, secret)
	return token, exp, err
}

func RefreshClaimsFromToken(tokenStr string, refreshSecret []byte) (*Claims, error) {
	return parse(tokenStr, refreshSecret)
}

// Hash is what gets persisted for a refresh token.
func Hash(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
