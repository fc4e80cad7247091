// Package scanner turns barcode decode events and typed codes into product
// lookups, allowing at most one lookup in flight and suppressing re-scans of
// the same code for a short cooldown afterwards.
package scanner

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"storefront/internal/catalog"
	"storefront/internal/domain"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrEmptyCode        = errors.New("enter a barcode")
	ErrBusy             = errors.New("a lookup is already in progress")
	ErrPermissionDenied = errors.New("camera permission not granted")
)

// DefaultCooldown is how long camera decodes are ignored after a lookup
const DefaultCooldown = 2 * time.Second

type State int

const (
	Idle State = iota
	AwaitingResult
	Cooldown
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case AwaitingResult:
		return "awaiting_result"
	case Cooldown:
		return "cooldown"
	default:
		return "unknown"
	}
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

type OutcomeKind string

const (
	Found    OutcomeKind = "found"
	NotFound OutcomeKind = "not_found"
	Failed   OutcomeKind = "failed"
	Ignored  OutcomeKind = "ignored"
)

// Outcome is the result of one decode event or manual entry. Title and
// Message carry the alert shown for NotFound and Failed.
type Outcome struct {
	Kind     OutcomeKind     `json:"kind"`
	Code     string          `json:"code,omitempty"`
	LookupID string          `json:"lookupId,omitempty"`
	Product  *domain.Product `json:"product,omitempty"`
	Title    string          `json:"title,omitempty"`
	Message  string          `json:"message,omitempty"`
}

// Lookup resolves a code to a product; catalog.Client satisfies it
type Lookup interface {
	Lookup(ctx context.Context, code string) (*domain.Product, error)
}

// Clock is injected so cooldown expiry can be tested without sleeping
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

type Option func(*Scanner)

func WithClock(c Clock) Option {
	return func(s *Scanner) { s.clock = c }
}

// Scanner is the Idle -> AwaitingResult -> Cooldown -> Idle state machine.
// Cooldown ends lazily: the state is re-evaluated against the clock whenever
// it is read.
type Scanner struct {
	mu            sync.Mutex
	state         State
	cooldownUntil time.Time
	cooldown      time.Duration
	lookup        Lookup
	clock         Clock
	logger        *zap.Logger
}

func New(lookup Lookup, cooldown time.Duration, logger *zap.Logger, opts ...Option) *Scanner {
	if cooldown < 0 {
		cooldown = 0
	}
	s := &Scanner{
		cooldown: cooldown,
		lookup:   lookup,
		clock:    systemClock{},
		logger:   logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns the current state with any elapsed cooldown applied
func (s *Scanner) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expireLocked()
	return s.state
}

// HandleDecode processes a camera decode event. Events arriving outside Idle
// and blank values are ignored.
func (s *Scanner) HandleDecode(ctx context.Context, code string) Outcome {
	code = strings.TrimSpace(code)
	if code == "" || !s.begin(false) {
		return Outcome{Kind: Ignored, Code: code}
	}
	return s.resolve(ctx, code)
}

// Submit looks up a manually entered code. Manual entry is not subject to the
// camera cooldown, only to the single in-flight lookup.
func (s *Scanner) Submit(ctx context.Context, code string) (Outcome, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return Outcome{}, ErrEmptyCode
	}
	if !s.begin(true) {
		return Outcome{}, ErrBusy
	}
	return s.resolve(ctx, code), nil
}

// begin moves to AwaitingResult if the current state allows a new lookup
func (s *Scanner) begin(manual bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.expireLocked()
	switch s.state {
	case Idle:
	case Cooldown:
		if !manual {
			return false
		}
	default:
		return false
	}
	s.state = AwaitingResult
	return true
}

func (s *Scanner) resolve(ctx context.Context, code string) Outcome {
	id := uuid.NewString()
	log := s.logger.With(zap.String("lookup_id", id), zap.String("code", code))
	log.Debug("Looking up scanned code")

	product, err := s.lookup.Lookup(ctx, code)

	out := Outcome{Code: code, LookupID: id}
	switch {
	case err == nil && product != nil:
		out.Kind = Found
		out.Product = product
		log.Info("Scanned product found", zap.String("product_id", product.ID))
	case err == nil, errors.Is(err, catalog.ErrNotFound):
		out.Kind = NotFound
		out.Title = "Not Found"
		out.Message = "No product found for this barcode."
		log.Info("No product for scanned code")
	default:
		out.Kind = Failed
		out.Title = "Error"
		out.Message = "Failed to fetch product details."
		log.Warn("Scanned code lookup failed", zap.Error(err))
	}

	s.mu.Lock()
	s.state = Cooldown
	s.cooldownUntil = s.clock.Now().Add(s.cooldown)
	s.mu.Unlock()

	return out
}

func (s *Scanner) expireLocked() {
	if s.state == Cooldown && !s.clock.Now().Before(s.cooldownUntil) {
		s.state = Idle
	}
}
