package core

import (
	"context"
	"log/slog"

	"github.com/blackcoderx/apman/pkg/transport"
)

type options struct {
	transport  transport.Transport
	log        *slog.Logger
	legacyBody bool
	observer   func(context.Context, CallInfo)
}

// Option configures Compile and New.
type Option func(*options)

// WithTransport replaces the default HTTP transport.
func WithTransport(t transport.Transport) Option {
	return func(o *options) {
		if t != nil {
			o.transport = t
		}
	}
}

// WithLogger sets the logger for compilation warnings and call tracing.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.log = l
		}
	}
}

// WithLegacyBody disables call-time validation and sends the whole data map
// as the request body.
func WithLegacyBody() Option {
	return func(o *options) { o.legacyBody = true }
}

// WithCallObserver registers a function called after every call, successful
// or not. It runs on the calling goroutine.
func WithCallObserver(fn func(context.Context, CallInfo)) Option {
	return func(o *options) { o.observer = fn }
}

func buildOptions(opts []Option) *options {
	o := &options{log: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(o)
	}
	if o.transport == nil {
		o.transport = transport.NewHTTPTransport(transport.ConfigFromEnv(), transport.WithLogger(o.log))
	}
	return o
}
