package scanner

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Symbologies the camera is configured to decode
const (
	EAN13   = "ean-13"
	UPCA    = "upc-a"
	QR      = "qr"
	Code128 = "code-128"
)

var supportedSymbologies = map[string]bool{
	EAN13:   true,
	UPCA:    true,
	QR:      true,
	Code128: true,
}

// Supported reports whether the camera is configured for symbology. An empty
// symbology is accepted.
func Supported(symbology string) bool {
	return symbology == "" || supportedSymbologies[symbology]
}

// Decode is one value read from a camera frame
type Decode struct {
	Value     string
	Symbology string
}

// DecodeSource is a camera producing decode events
type DecodeSource interface {
	RequestPermission(ctx context.Context) (bool, error)
	// Decodes is closed when the camera stops
	Decodes() <-chan Decode
}

// Run asks for camera permission once, then feeds decode events through the
// state machine until ctx is done or the source closes. Lookups run off the
// event loop so the camera keeps draining; handle receives every non-ignored
// outcome. A denied permission returns ErrPermissionDenied and is not retried.
//
// Run is for hosts that own a camera. The HTTP API has no camera and feeds
// HandleDecode directly.
func (s *Scanner) Run(ctx context.Context, source DecodeSource, handle func(Outcome)) error {
	granted, err := source.RequestPermission(ctx)
	if err != nil {
		return fmt.Errorf("failed to request camera permission: %w", err)
	}
	if !granted {
		s.logger.Info("Camera permission not granted")
		return ErrPermissionDenied
	}

	g, gctx := errgroup.WithContext(ctx)
	decodes := source.Decodes()

loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case d, ok := <-decodes:
			if !ok {
				break loop
			}
			if !Supported(d.Symbology) {
				s.logger.Debug("Ignoring unsupported symbology", zap.String("symbology", d.Symbology))
				continue
			}
			code := strings.TrimSpace(d.Value)
			if code == "" || !s.begin(false) {
				continue
			}
			g.Go(func() error {
				out := s.resolve(gctx, code)
				if handle != nil {
					handle(out)
				}
				return nil
			})
		}
	}

	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}
