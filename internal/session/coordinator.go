// Package session coordinates credential refresh. Concurrent refresh calls
// share a single in-flight exchange, and a proactive timer renews the
// access token shortly before it expires.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"golang.org/x/sync/singleflight"

	"scriptura/pkg/domain"
	"scriptura/pkg/store"
)

const (
	accessTokenKey  = "auth:access_token"
	refreshTokenKey = "auth:refresh_token"

	// refreshBuffer is how long before expiry the proactive refresh runs.
	refreshBuffer = 2 * time.Minute
)

// ErrNotAuthenticated indicates no usable refresh credential is stored.
// Callers must treat any RefreshAccessToken error as "logged out", not as
// a transient condition.
var ErrNotAuthenticated = errors.New("not authenticated")

// Exchanger trades a long-lived refresh credential for a fresh token pair.
type Exchanger interface {
	Exchange(ctx context.Context, refreshToken string) (domain.TokenPair, error)
}

// Coordinator serializes credential refreshes against the durable store.
type Coordinator struct {
	kv        store.KV
	exchanger Exchanger
	group     singleflight.Group
}

// New builds a refresh coordinator.
func New(kv store.KV, exchanger Exchanger) *Coordinator {
	return &Coordinator{kv: kv, exchanger: exchanger}
}

// SetTokens stores a freshly issued pair, e.g. after login.
func (c *Coordinator) SetTokens(ctx context.Context, pair domain.TokenPair) error {
	if err := c.kv.Set(ctx, accessTokenKey, pair.AccessToken); err != nil {
		return fmt.Errorf("persist access token: %w", err)
	}
	if err := c.kv.Set(ctx, refreshTokenKey, pair.RefreshToken); err != nil {
		return fmt.Errorf("persist refresh token: %w", err)
	}
	return nil
}

// AccessToken returns the stored short-lived credential, if any.
func (c *Coordinator) AccessToken(ctx context.Context) (string, bool, error) {
	return c.kv.Get(ctx, accessTokenKey)
}

// RefreshAccessToken exchanges the stored refresh token for a new pair,
// persists both, and returns the new access token. Callers that arrive
// while an exchange is in flight share that exchange and its result, so N
// concurrent callers produce exactly one network exchange. On failure, or
// when no refresh token is stored, both credentials are cleared and the
// error is returned. The flight slot is always released, so a failed
// refresh never wedges future attempts.
func (c *Coordinator) RefreshAccessToken(ctx context.Context) (string, error) {
	v, err, _ := c.group.Do("refresh", func() (any, error) {
		refresh, ok, err := c.kv.Get(ctx, refreshTokenKey)
		if err != nil {
			return "", fmt.Errorf("read refresh token: %w", err)
		}
		if !ok || strings.TrimSpace(refresh) == "" {
			c.clearTokens(ctx)
			return "", ErrNotAuthenticated
		}
		pair, err := c.exchanger.Exchange(ctx, refresh)
		if err != nil {
			c.clearTokens(ctx)
			return "", fmt.Errorf("refresh exchange: %w", err)
		}
		if err := c.SetTokens(ctx, pair); err != nil {
			return "", err
		}
		return pair.AccessToken, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (c *Coordinator) clearTokens(ctx context.Context) {
	if err := c.kv.Delete(ctx, accessTokenKey); err != nil {
		slog.Warn("clear access token", "err", err)
	}
	if err := c.kv.Delete(ctx, refreshTokenKey); err != nil {
		slog.Warn("clear refresh token", "err", err)
	}
}

// ScheduleProactiveRefresh arranges a background refresh shortly before
// accessToken expires, and returns a cancel function. Cancel is idempotent
// and safe after the timer has fired; callers invoke it on logout so a
// stale timer cannot fire for a credential context that is gone. This is
// best effort on top of the reactive refresh path: a token whose expiry
// cannot be decoded is logged and skipped, never fatal.
func (c *Coordinator) ScheduleProactiveRefresh(accessToken string) (cancel func()) {
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(accessToken, &claims); err != nil {
		slog.Warn("proactive refresh not scheduled", "err", err)
		return func() {}
	}
	if claims.ExpiresAt == nil {
		slog.Warn("proactive refresh not scheduled", "err", errors.New("token has no expiry claim"))
		return func() {}
	}
	delay := time.Until(claims.ExpiresAt.Time) - refreshBuffer
	if delay < 0 {
		delay = 0
	}
	timer := time.AfterFunc(delay, func() {
		ctx, done := context.WithTimeout(context.Background(), 30*time.Second)
		defer done()
		if _, err := c.RefreshAccessToken(ctx); err != nil {
			slog.Warn("proactive token refresh failed", "err", err)
		}
	})
	return func() { timer.Stop() }
}
