// Package auth owns the signed-in session and the identity provider it is
// populated from.
package auth

import (
	"context"
	"errors"

	"storefront/internal/domain"
)

var (
	ErrSignInCancelled     = errors.New("sign-in cancelled")
	ErrSignInInProgress    = errors.New("sign-in already in progress")
	ErrProviderUnavailable = errors.New("sign-in provider unavailable")
	ErrNotAuthenticated    = errors.New("not authenticated")
)

// Provider is an external identity provider
type Provider interface {
	// SignIn runs the interactive flow and returns the identity with its access token
	SignIn(ctx context.Context) (*domain.UserInfo, string, error)
	// CurrentUser resolves the identity behind a previously issued token
	CurrentUser(ctx context.Context, token string) (*domain.UserInfo, error)
	// SignOut revokes the token at the provider
	SignOut(ctx context.Context, token string) error
}

type promptKey struct{}

// WithPrompt attaches a prompt to ctx. Providers that hand the user a device
// code call it after their own prompt.
func WithPrompt(ctx context.Context, prompt PromptFunc) context.Context {
	return context.WithValue(ctx, promptKey{}, prompt)
}

func promptFromContext(ctx context.Context) PromptFunc {
	prompt, _ := ctx.Value(promptKey{}).(PromptFunc)
	return prompt
}

// Category classifies a sign-in failure
type Category int

const (
	CategoryNone Category = iota
	CategoryCancelled
	CategoryInProgress
	CategoryUnavailable
	CategoryOther
)

func (c Category) String() string {
	switch c {
	case CategoryNone:
		return "none"
	case CategoryCancelled:
		return "cancelled"
	case CategoryInProgress:
		return "in_progress"
	case CategoryUnavailable:
		return "unavailable"
	default:
		return "other"
	}
}

// Categorize maps a sign-in error to its category
func Categorize(err error) Category {
	switch {
	case err == nil:
		return CategoryNone
	case errors.Is(err, ErrSignInCancelled), errors.Is(err, context.Canceled):
		return CategoryCancelled
	case errors.Is(err, ErrSignInInProgress):
		return CategoryInProgress
	case errors.Is(err, ErrProviderUnavailable):
		return CategoryUnavailable
	default:
		return CategoryOther
	}
}
