// SPDX-License-Identifier: MPL-2.0

package cueutil

// DefaultMaxFileSize is the default maximum document size (5MB).
const DefaultMaxFileSize int64 = 5 * 1024 * 1024

type (
	decodeOptions struct {
		maxFileSize int64
		concrete    bool
		filename    string
	}

	// Option configures decoding.
	Option func(*decodeOptions)
)

func defaultOptions() decodeOptions {
	return decodeOptions{
		maxFileSize: DefaultMaxFileSize,
		concrete:    true,
	}
}

// WithMaxFileSize sets the maximum accepted document size.
func WithMaxFileSize(size int64) Option {
	return func(o *decodeOptions) {
		o.maxFileSize = size
	}
}

// WithConcrete sets whether every value must be concrete after unification.
// Settings files pass false since unset fields fall back to defaults.
func WithConcrete(concrete bool) Option {
	return func(o *decodeOptions) {
		o.concrete = concrete
	}
}

// WithFilename sets the name shown in error messages.
func WithFilename(name string) Option {
	return func(o *decodeOptions) {
		o.filename = name
	}
}
