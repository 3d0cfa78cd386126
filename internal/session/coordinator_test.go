package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"scriptura/pkg/domain"
	"scriptura/pkg/store"
)

type fakeExchanger struct {
	calls atomic.Int32
	delay time.Duration
	err   error
	fired chan struct{}
}

func (f *fakeExchanger) Exchange(_ context.Context, refreshToken string) (domain.TokenPair, error) {
	n := f.calls.Add(1)
	if f.fired != nil {
		close(f.fired)
	}
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.err != nil {
		return domain.TokenPair{}, f.err
	}
	return domain.TokenPair{
		AccessToken:  fmt.Sprintf("access-%d", n),
		RefreshToken: fmt.Sprintf("refresh-%d", n),
	}, nil
}

func seededKV(t *testing.T) *store.MemoryKV {
	t.Helper()
	kv := store.NewMemoryKV()
	if err := kv.Set(context.Background(), refreshTokenKey, "long-lived"); err != nil {
		t.Fatalf("seed kv: %v", err)
	}
	return kv
}

func TestConcurrentCallersShareOneExchange(t *testing.T) {
	kv := seededKV(t)
	ex := &fakeExchanger{delay: 50 * time.Millisecond}
	c := New(kv, ex)

	const callers = 3
	results := make([]string, callers)
	errs := make([]error, callers)
	var wg sync.WaitGroup
	wg.Add(callers)
	for i := 0; i < callers; i++ {
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = c.RefreshAccessToken(context.Background())
		}(i)
	}
	wg.Wait()

	for i := 0; i < callers; i++ {
		if errs[i] != nil {
			t.Fatalf("caller %d: %v", i, errs[i])
		}
		if results[i] != results[0] {
			t.Fatalf("callers received different tokens: %q vs %q", results[i], results[0])
		}
	}
	if got := ex.calls.Load(); got != 1 {
		t.Fatalf("expected exactly one exchange, got %d", got)
	}

	access, ok, err := kv.Get(context.Background(), accessTokenKey)
	if err != nil || !ok || access != results[0] {
		t.Fatalf("persisted access token mismatch: %q ok=%v err=%v", access, ok, err)
	}
	refresh, ok, _ := kv.Get(context.Background(), refreshTokenKey)
	if !ok || refresh != "refresh-1" {
		t.Fatalf("refresh token not rotated: %q", refresh)
	}
}

func TestFailedExchangeClearsCredentials(t *testing.T) {
	kv := seededKV(t)
	boom := errors.New("exchange rejected")
	c := New(kv, &fakeExchanger{err: boom})

	if _, err := c.RefreshAccessToken(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("expected exchange error, got %v", err)
	}
	if _, ok, _ := kv.Get(context.Background(), accessTokenKey); ok {
		t.Fatalf("access token must be cleared on failure")
	}
	if _, ok, _ := kv.Get(context.Background(), refreshTokenKey); ok {
		t.Fatalf("refresh token must be cleared on failure")
	}
}

func TestFailedRefreshDoesNotWedgeFutureAttempts(t *testing.T) {
	kv := seededKV(t)
	ex := &fakeExchanger{err: errors.New("temporary outage")}
	c := New(kv, ex)

	if _, err := c.RefreshAccessToken(context.Background()); err == nil {
		t.Fatalf("expected first refresh to fail")
	}

	// The failure logged the user out; a later attempt reports that
	// cleanly instead of hanging on a stale flight.
	ex.err = nil
	if _, err := c.RefreshAccessToken(context.Background()); !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated after logout, got %v", err)
	}

	// After logging in again, refresh works.
	if err := c.SetTokens(context.Background(), domain.TokenPair{AccessToken: "a", RefreshToken: "r"}); err != nil {
		t.Fatalf("set tokens: %v", err)
	}
	if _, err := c.RefreshAccessToken(context.Background()); err != nil {
		t.Fatalf("refresh after re-login: %v", err)
	}
}

func TestMissingRefreshTokenIsNotAuthenticated(t *testing.T) {
	c := New(store.NewMemoryKV(), &fakeExchanger{})
	if _, err := c.RefreshAccessToken(context.Background()); !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated, got %v", err)
	}
}

func signedToken(t *testing.T, expiresIn time.Duration) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiresIn)),
	})
	signed, err := token.SignedString([]byte("test-key"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func TestProactiveRefreshFiresNearExpiry(t *testing.T) {
	kv := seededKV(t)
	ex := &fakeExchanger{fired: make(chan struct{})}
	c := New(kv, ex)

	// Expiry inside the buffer window: the refresh should run immediately.
	cancel := c.ScheduleProactiveRefresh(signedToken(t, time.Second))
	defer cancel()

	select {
	case <-ex.fired:
	case <-time.After(2 * time.Second):
		t.Fatalf("proactive refresh did not fire")
	}
}

func TestProactiveRefreshCancel(t *testing.T) {
	kv := seededKV(t)
	ex := &fakeExchanger{}
	c := New(kv, ex)

	cancel := c.ScheduleProactiveRefresh(signedToken(t, time.Hour))
	cancel()
	cancel() // idempotent

	time.Sleep(50 * time.Millisecond)
	if got := ex.calls.Load(); got != 0 {
		t.Fatalf("cancelled timer must not refresh, got %d calls", got)
	}
}

func TestProactiveRefreshMalformedToken(t *testing.T) {
	c := New(seededKV(t), &fakeExchanger{})
	cancel := c.ScheduleProactiveRefresh("not-a-jwt")
	if cancel == nil {
		t.Fatalf("cancel func must be returned even for malformed tokens")
	}
	cancel()
}
