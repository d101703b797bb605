package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"ms-storefront/internal/logger"
)

const (
	tokenKeyPrefix = "auth_token:"
	// MaxTokenCacheTTL bounds how long verified claims are reused.
	MaxTokenCacheTTL = 5 * time.Minute
	// TokenExpiryBuffer is the time before actual token expiry after which it is no longer cached
	TokenExpiryBuffer = 10 * time.Second
)

// CachingVerifier remembers verified claims in Redis so repeat requests with
// the same token skip signature verification.
type CachingVerifier struct {
	Inner  TokenVerifier
	Client *redis.Client
	Logger *logger.Logger
}

func NewCachingVerifier(inner TokenVerifier, client *redis.Client, log *logger.Logger) *CachingVerifier {
	return &CachingVerifier{Inner: inner, Client: client, Logger: log}
}

func tokenKey(rawToken string) string {
	sum := sha256.Sum256([]byte(rawToken))
	return tokenKeyPrefix + hex.EncodeToString(sum[:])
}

func (c *CachingVerifier) Verify(ctx context.Context, rawToken string) (*Claims, error) {
	key := tokenKey(rawToken)

	if cached, err := c.Client.Get(ctx, key).Result(); err == nil {
		var claims Claims
		if err := json.Unmarshal([]byte(cached), &claims); err == nil && time.Now().Before(claims.ExpiresAt) {
			return &claims, nil
		}
	} else if err != redis.Nil {
		c.Logger.Warn("AUTH", fmt.Sprintf("Token cache read failed: %v", err))
	}

	claims, err := c.Inner.Verify(ctx, rawToken)
	if err != nil {
		return nil, err
	}

	ttl := time.Until(claims.ExpiresAt) - TokenExpiryBuffer
	if ttl > MaxTokenCacheTTL {
		ttl = MaxTokenCacheTTL
	}
	if ttl > 0 {
		if b, err := json.Marshal(claims); err == nil {
			if err := c.Client.Set(ctx, key, b, ttl).Err(); err != nil {
				c.Logger.Warn("AUTH", fmt.Sprintf("Token cache write failed: %v", err))
			}
		}
	}
	return claims, nil
}
