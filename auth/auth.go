// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package auth retrieves the authentication state of the current user
// from an identity provider as results carrying problems.
package auth

import (
	"context"
	"sync"
	"time"

	"github.com/z5labs/outcome/option"
)

// Claims are the verified claims of an id token.
type Claims struct {
	Subject   string         `json:"sub"`
	Issuer    string         `json:"iss"`
	Audience  []string       `json:"aud"`
	ExpiresAt time.Time      `json:"exp"`
	IssuedAt  time.Time      `json:"iat"`
	Extra     map[string]any `json:"-"`
}

// UserInfo describes the authenticated user.
type UserInfo struct {
	Subject string `json:"sub"`
	Name    string `json:"name"`
	Email   string `json:"email"`
}

// IdentityProvider is the source of authentication state.
type IdentityProvider interface {
	IsAuthenticated(ctx context.Context) (bool, error)
	IDToken(ctx context.Context) (string, error)
	AccessToken(ctx context.Context, resource string) (string, error)
	IDTokenClaims(ctx context.Context) (Claims, error)
	FetchUserInfo(ctx context.Context) (UserInfo, error)
}

// Cache holds at most one value. Concurrent writes are last write wins.
type Cache[T any] struct {
	mu    sync.Mutex
	value option.Option[T]
}

// Get returns the cached value, if any.
func (c *Cache[T]) Get() option.Option[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.value
}

// Set replaces the cached value.
func (c *Cache[T]) Set(v T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.value = option.Some(v)
}

// Clear empties the cache.
func (c *Cache[T]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.value = option.None[T]()
}

// TokenCache holds access tokens keyed by resource.
type TokenCache struct {
	mu     sync.Mutex
	tokens map[string]string
}

// Get returns the token cached for resource, if any.
func (c *TokenCache) Get(resource string) option.Option[string] {
	c.mu.Lock()
	defer c.mu.Unlock()
	token, ok := c.tokens[resource]
	if !ok {
		return option.None[string]()
	}
	return option.Some(token)
}

// Set caches token for resource.
func (c *TokenCache) Set(resource, token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.tokens == nil {
		c.tokens = make(map[string]string)
	}
	c.tokens[resource] = token
}

// Clear drops every cached token.
func (c *TokenCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tokens = nil
}

// DefaultSkew is how long before its expiry a token is treated as expired.
const DefaultSkew = 30 * time.Second

// Checker decides token expiry with a clock skew allowance.
type Checker struct {
	Skew time.Duration
}

// Expired reports whether claims expire within the skew of now. Claims
// without an expiry never expire.
func (c Checker) Expired(claims Claims, now time.Time) bool {
	if claims.ExpiresAt.IsZero() {
		return false
	}
	return !now.Add(c.Skew).Before(claims.ExpiresAt)
}
