package fancourier

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jellydator/ttlcache/v3"
	"github.com/tournevent/fancourier/pkg/shipper"
)

const (
	// tokenExpiryBuffer is how long before expiry a stored token stops being reused.
	tokenExpiryBuffer = 5 * time.Minute

	// tokenLifetime is assumed for tokens obtained through authShop.
	tokenLifetime = 24 * time.Hour

	tokenKey = "fc_api_token"
)

// Token is a bearer token and its expiry.
type Token struct {
	Value     string
	ExpiresAt time.Time
}

// validAt reports whether the token can still be used at now.
func (t Token) validAt(now time.Time) bool {
	return t.Value != "" && t.ExpiresAt.After(now.Add(tokenExpiryBuffer))
}

// TokenSource supplies bearer tokens for API calls.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// TokenStore persists the token shared with other integrations on the same site.
type TokenStore interface {
	Load() (Token, bool)
	Save(Token)
}

// TokenRefresher is implemented by stores backed by a host integration that
// can mint a fresh token itself.
type TokenRefresher interface {
	RefreshToken(ctx context.Context) (Token, error)
}

// Authenticator obtains a token for a domain.
type Authenticator interface {
	Authenticate(ctx context.Context, domain string) (*AuthResponse, error)
}

// NewTokenSource picks the token chain for store. Stores that can refresh
// through their host get a SharedTokenSource in front of self-authentication.
func NewTokenSource(store TokenStore, auth Authenticator, domain string) TokenSource {
	self := &DomainAuthenticator{store: store, auth: auth, domain: domain, now: time.Now}
	if refresher, ok := store.(TokenRefresher); ok {
		return chain{
			&SharedTokenSource{store: store, refresher: refresher, now: time.Now},
			self,
		}
	}
	return self
}

// SharedTokenSource reuses the token a host integration keeps in the store,
// asking the host to refresh it when it is about to expire.
type SharedTokenSource struct {
	store     TokenStore
	refresher TokenRefresher
	now       func() time.Time
}

// NewSharedTokenSource creates a source over a host-managed store.
func NewSharedTokenSource(store TokenStore, refresher TokenRefresher) *SharedTokenSource {
	return &SharedTokenSource{store: store, refresher: refresher, now: time.Now}
}

// Token implements TokenSource.
func (s *SharedTokenSource) Token(ctx context.Context) (string, error) {
	if tok, ok := s.store.Load(); ok && tok.validAt(s.now()) {
		return tok.Value, nil
	}
	if s.refresher == nil {
		return "", fmt.Errorf("%w: no shared token", shipper.ErrAuthenticationFailed)
	}

	tok, err := s.refresher.RefreshToken(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: host refresh: %v", shipper.ErrAuthenticationFailed, err)
	}
	if tok.Value == "" {
		return "", fmt.Errorf("%w: host returned empty token", shipper.ErrAuthenticationFailed)
	}
	return tok.Value, nil
}

// DomainAuthenticator authenticates the site domain against authShop and
// caches the result in the store.
type DomainAuthenticator struct {
	store  TokenStore
	auth   Authenticator
	domain string
	now    func() time.Time
}

// NewDomainAuthenticator creates a self-authenticating source.
func NewDomainAuthenticator(store TokenStore, auth Authenticator, domain string) *DomainAuthenticator {
	return &DomainAuthenticator{store: store, auth: auth, domain: domain, now: time.Now}
}

// Token implements TokenSource. Concurrent refreshes may both call authShop;
// the last token saved wins.
func (d *DomainAuthenticator) Token(ctx context.Context) (string, error) {
	now := d.now()
	if tok, ok := d.store.Load(); ok && tok.validAt(now) {
		return tok.Value, nil
	}

	resp, err := d.auth.Authenticate(ctx, d.domain)
	if err != nil {
		if errors.Is(err, shipper.ErrAuthenticationFailed) {
			return "", err
		}
		return "", fmt.Errorf("%w: %w", shipper.ErrAuthenticationFailed, err)
	}

	d.store.Save(Token{Value: resp.Token, ExpiresAt: now.Add(tokenLifetime)})
	return resp.Token, nil
}

// chain tries each source in order.
type chain []TokenSource

func (c chain) Token(ctx context.Context) (string, error) {
	var errs []error
	for _, src := range c {
		tok, err := src.Token(ctx)
		if err == nil {
			return tok, nil
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		errs = append(errs, err)
	}
	return "", errors.Join(errs...)
}

// MemoryTokenStore keeps the token in a ttlcache entry that expires with it.
type MemoryTokenStore struct {
	cache *ttlcache.Cache[string, Token]
}

// NewMemoryTokenStore creates an empty in-memory store.
func NewMemoryTokenStore() *MemoryTokenStore {
	return &MemoryTokenStore{
		cache: ttlcache.New[string, Token](ttlcache.WithDisableTouchOnHit[string, Token]()),
	}
}

// Load implements TokenStore.
func (s *MemoryTokenStore) Load() (Token, bool) {
	item := s.cache.Get(tokenKey)
	if item == nil {
		return Token{}, false
	}
	return item.Value(), true
}

// Save implements TokenStore. Already expired tokens are dropped.
func (s *MemoryTokenStore) Save(t Token) {
	ttl := time.Until(t.ExpiresAt)
	if ttl <= 0 {
		s.cache.Delete(tokenKey)
		return
	}
	s.cache.Set(tokenKey, t, ttl)
}
