// Package navigation keeps the screen stack a UI shell renders. Every screen
// except SignIn requires a signed-in session.
package navigation

import (
	"errors"
	"fmt"
	"sync"

	"storefront/internal/domain"

	"go.uber.org/zap"
)

var (
	ErrUnauthenticated = errors.New("sign in required")
	ErrUnknownRoute    = errors.New("unknown route")
	ErrInvalidParams   = errors.New("invalid route params")
)

type Route string

const (
	SignIn         Route = "SignIn"
	Products       Route = "Products"
	ProductDetails Route = "ProductDetails"
	CartScreen     Route = "CartScreen"
	BarcodeScanner Route = "BarcodeScanner"
)

func (r Route) Valid() bool {
	switch r {
	case SignIn, Products, ProductDetails, CartScreen, BarcodeScanner:
		return true
	}
	return false
}

// DetailsParams is required by ProductDetails
type DetailsParams struct {
	Product domain.Product `json:"product"`
}

// CartParams optionally carries the cart into CartScreen
type CartParams struct {
	Items []domain.CartItem `json:"cart"`
}

type Entry struct {
	Route  Route       `json:"route"`
	Params interface{} `json:"params,omitempty"`
}

// Authenticator reports whether a session is signed in; auth.Session satisfies it
type Authenticator interface {
	Authenticated() bool
}

type Stack struct {
	mu      sync.Mutex
	entries []Entry
	auth    Authenticator
	logger  *zap.Logger
}

// NewStack starts at SignIn
func NewStack(auth Authenticator, logger *zap.Logger) *Stack {
	return &Stack{
		entries: []Entry{{Route: SignIn}},
		auth:    auth,
		logger:  logger,
	}
}

// Navigate shows route. A route already on the stack is returned to, with its
// params replaced, instead of being pushed twice.
func (s *Stack) Navigate(route Route, params interface{}) error {
	if err := s.check(route); err != nil {
		return err
	}
	if err := validateParams(route, params); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i := len(s.entries) - 1; i >= 0; i-- {
		if s.entries[i].Route == route {
			s.entries = s.entries[:i+1]
			s.entries[i].Params = params
			s.logger.Debug("Navigated back to route", zap.String("route", string(route)))
			return nil
		}
	}

	s.entries = append(s.entries, Entry{Route: route, Params: params})
	s.logger.Debug("Navigated to route", zap.String("route", string(route)))
	return nil
}

// Back pops the top screen. The root screen is never popped.
func (s *Stack) Back() (Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.entries) <= 1 {
		return s.entries[0], false
	}
	s.entries = s.entries[:len(s.entries)-1]
	return s.entries[len(s.entries)-1], true
}

func (s *Stack) Current() Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.entries[len(s.entries)-1]
}

// Entries returns the stack from root to top
func (s *Stack) Entries() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Entry(nil), s.entries...)
}

// Reset replaces the whole stack with route. ProductDetails cannot be a root.
func (s *Stack) Reset(route Route) error {
	if err := s.check(route); err != nil {
		return err
	}
	if route == ProductDetails {
		return fmt.Errorf("%w: %s needs a product", ErrInvalidParams, route)
	}

	s.mu.Lock()
	s.entries = []Entry{{Route: route}}
	s.mu.Unlock()

	s.logger.Debug("Navigation reset", zap.String("route", string(route)))
	return nil
}

func (s *Stack) check(route Route) error {
	if !route.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownRoute, route)
	}
	if route != SignIn && !s.auth.Authenticated() {
		return ErrUnauthenticated
	}
	return nil
}

func validateParams(route Route, params interface{}) error {
	switch route {
	case ProductDetails:
		p, ok := params.(DetailsParams)
		if !ok || p.Product.ID == "" {
			return fmt.Errorf("%w: %s needs a product", ErrInvalidParams, route)
		}
	case CartScreen:
		if params == nil {
			return nil
		}
		if _, ok := params.(CartParams); !ok {
			return fmt.Errorf("%w: %s takes cart params", ErrInvalidParams, route)
		}
	}
	return nil
}
