package ghsign

import (
	"log/slog"

	"github.com/randalmurphal/ghsign/publisher"
)

// options holds configuration shared by signers and verifiers.
type options struct {
	env    *Environment
	keys   [][]byte
	keySet *KeySet

	publisher publisher.Publisher
	store     Store
	logger    *slog.Logger
}

// Option configures a Signer, Verifier or PublicKeys call.
type Option func(*options)

// WithEnvironment replaces the process environment. Unset fields get defaults.
func WithEnvironment(env Environment) Option {
	return func(o *options) {
		o.env = &env
	}
}

// WithKeys supplies keys directly. A signer given a private key as the first
// key signs with it; a list of public keys restricts which published keys
// are trusted and skips the remote fetch. Keys may be PEM or SSH-wire lines.
func WithKeys(keys ...[]byte) Option {
	return func(o *options) {
		o.keys = append(o.keys, keys...)
	}
}

// WithKeySet shares a KeySet, so several signers and verifiers fetch each
// user's keys once.
func WithKeySet(ks *KeySet) Option {
	return func(o *options) {
		o.keySet = ks
	}
}

// WithPublisher sets where public keys are fetched from.
func WithPublisher(p publisher.Publisher) Option {
	return func(o *options) {
		o.publisher = p
	}
}

// WithStore sets where the identity resolution record is kept.
func WithStore(s Store) Option {
	return func(o *options) {
		o.store = s
	}
}

// WithLogger sets the logger for debug events.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// buildOptions applies opts over the default environment.
func buildOptions(opts []Option) *options {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	var env Environment
	if o.env != nil {
		env = *o.env
	} else {
		env = DefaultEnvironment()
	}
	if o.publisher != nil {
		env.Publisher = o.publisher
	}
	if o.store != nil {
		env.Store = o.store
	}
	if o.logger != nil {
		env.Logger = o.logger
	}
	env = env.withDefaults()
	o.env = &env

	if o.keySet == nil {
		o.keySet = NewKeySet(env.Publisher, env.Logger)
	}
	return o
}
