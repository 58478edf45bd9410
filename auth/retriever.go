// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package auth

import (
	"context"
	"errors"
	"time"

	"github.com/z5labs/outcome/problem"
	"github.com/z5labs/outcome/result"
)

// Option configures a [Retriever].
type Option func(*Retriever)

// Skew overrides [DefaultSkew].
func Skew(d time.Duration) Option {
	return func(r *Retriever) {
		r.checker.Skew = d
	}
}

// Clock overrides the source of the current time.
func Clock(now func() time.Time) Option {
	return func(r *Retriever) {
		r.now = now
	}
}

// Retriever reads authentication state from an [IdentityProvider] and
// caches claims, user info and access tokens per instance.
type Retriever struct {
	idp         IdentityProvider
	transformer *problem.Transformer
	checker     Checker
	now         func() time.Time

	claims   Cache[Claims]
	userInfo Cache[UserInfo]
	tokens   TokenCache
}

// NewRetriever returns a [Retriever]. The registry behind transformer
// must define the unauthorized problem.
func NewRetriever(idp IdentityProvider, transformer *problem.Transformer, opts ...Option) (*Retriever, error) {
	if idp == nil {
		return nil, errors.New("auth retriever requires an identity provider")
	}
	if transformer == nil {
		return nil, errors.New("auth retriever requires a problem transformer")
	}
	if _, ok := transformer.Registry().Definition(problem.UnauthorizedID); !ok {
		return nil, problem.MissingDefinitionError{ID: problem.UnauthorizedID}
	}

	r := &Retriever{
		idp:         idp,
		transformer: transformer,
		checker:     Checker{Skew: DefaultSkew},
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

func (r *Retriever) unauthorized(reason string) problem.Problem {
	return r.transformer.Registry().MustCreateProblem(problem.UnauthorizedID, problem.Context{
		"reason": reason,
	})
}

func fromProvider[T any](ctx context.Context, r *Retriever, v T, err error) result.Result[T, problem.Problem] {
	return result.MapErr(result.FromTuple(v, err), func(err error) problem.Problem {
		return r.transformer.FromError(ctx, err, problem.ErrorContext("identity provider"))
	})
}

// Claims returns the id token claims of the authenticated user.
func (r *Retriever) Claims(ctx context.Context) result.Result[Claims, problem.Problem] {
	if claims, ok := r.claims.Get().Get(); ok && !r.checker.Expired(claims, r.now()) {
		return result.Ok[Claims, problem.Problem](claims)
	}
	r.claims.Clear()
	r.userInfo.Clear()
	r.tokens.Clear()

	ok, err := r.idp.IsAuthenticated(ctx)
	return result.AndThen(fromProvider(ctx, r, ok, err), func(ok bool) result.Result[Claims, problem.Problem] {
		if !ok {
			return result.Err[Claims](r.unauthorized("not authenticated"))
		}

		claims, err := r.idp.IDTokenClaims(ctx)
		return result.AndThen(fromProvider(ctx, r, claims, err), func(claims Claims) result.Result[Claims, problem.Problem] {
			if r.checker.Expired(claims, r.now()) {
				return result.Err[Claims](r.unauthorized("id token expired"))
			}
			r.claims.Set(claims)
			return result.Ok[Claims, problem.Problem](claims)
		})
	})
}

// UserInfo returns information about the authenticated user.
func (r *Retriever) UserInfo(ctx context.Context) result.Result[UserInfo, problem.Problem] {
	return result.AndThen(r.Claims(ctx), func(Claims) result.Result[UserInfo, problem.Problem] {
		if info, ok := r.userInfo.Get().Get(); ok {
			return result.Ok[UserInfo, problem.Problem](info)
		}

		info, err := r.idp.FetchUserInfo(ctx)
		return fromProvider(ctx, r, info, err).Run(r.userInfo.Set)
	})
}

// AccessToken returns an access token for resource on behalf of the
// authenticated user.
func (r *Retriever) AccessToken(ctx context.Context, resource string) result.Result[string, problem.Problem] {
	return result.AndThen(r.Claims(ctx), func(Claims) result.Result[string, problem.Problem] {
		if token, ok := r.tokens.Get(resource).Get(); ok {
			return result.Ok[string, problem.Problem](token)
		}

		token, err := r.idp.AccessToken(ctx, resource)
		return fromProvider(ctx, r, token, err).Run(func(token string) {
			r.tokens.Set(resource, token)
		})
	})
}
