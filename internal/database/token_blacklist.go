package database

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"
)

const blacklistKeyPrefix = "careers:token:blacklist:"

// tokens are hashed before use as Redis keys to keep raw JWTs out of the store
func blacklistKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return blacklistKeyPrefix + hex.EncodeToString(sum[:])
}

// BlacklistToken revokes a token until its natural expiry
func BlacklistToken(token string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	ctx := context.Background()
	return Redis.Set(ctx, blacklistKey(token), "1", ttl).Err()
}

// IsTokenBlacklisted reports whether a token has been revoked (user logged out).
// Redis errors are treated as "not blacklisted" so an outage does not lock
// everyone out.
func IsTokenBlacklisted(token string) bool {
	ctx := context.Background()
	n, err := Redis.Exists(ctx, blacklistKey(token)).Result()
	if err != nil {
		return false
	}
	return n > 0
}
