package ghsign

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/randalmurphal/ghsign/auth/ssh"
	"github.com/randalmurphal/ghsign/flight"
	"github.com/randalmurphal/ghsign/store"
)

// Resolution is the outcome of resolving which agent identity signs for a
// user. Deferred means no identity matched but a local private key exists,
// so the caller should sign with the key at KeyPath instead.
type Resolution struct {
	Identity *ssh.Identity
	Deferred bool
	KeyPath  string
}

// Resolver finds the agent identity whose public key the user has published.
// The result is memoized: the first successful Resolve is returned by every
// later call, and concurrent calls share one resolution.
type Resolver struct {
	username  string
	allowlist []string // canonical PEMs; nil means fetch from keys, empty trusts nothing
	keys      *KeySet
	env       Environment
	logger    *slog.Logger

	agent  *flight.Cache[*ssh.AgentConnection]
	result *flight.Cache[Resolution]
}

// NewResolver creates a Resolver for username. Public keys passed with
// WithKeys replace the user's published keys; keys that are not RSA public
// keys are ignored, and if none remain no identity is trusted.
func NewResolver(username string, opts ...Option) *Resolver {
	o := buildOptions(opts)

	var allowlist []string
	if len(o.keys) > 0 {
		allowlist = make([]string, 0, len(o.keys))
	}
	for _, key := range o.keys {
		pem, err := ssh.ToPEM(key)
		if err != nil || !ssh.IsPublicKey(pem) {
			o.env.Logger.Debug("ignoring key not usable as an allowlist entry", "key", firstLine(key), "error", err)
			continue
		}
		allowlist = append(allowlist, pem)
	}

	return newResolver(username, allowlist, o)
}

func newResolver(username string, allowlist []string, o *options) *Resolver {
	r := &Resolver{
		username: username,
		keys:     o.keySet,
		env:      *o.env,
		logger:   o.env.Logger.With("username", username),
	}
	if allowlist != nil {
		r.allowlist = make([]string, len(allowlist))
		for i, pem := range allowlist {
			r.allowlist[i] = ssh.CanonicalPEM(pem)
		}
	}

	r.agent = flight.New(func(context.Context) (*ssh.AgentConnection, error) {
		conn, err := r.env.DialAgent(r.env.AgentSocket)
		if err != nil {
			return nil, &AgentError{Op: "dial", Err: err}
		}
		return conn, nil
	})
	r.result = flight.New(r.resolve)
	return r
}

// Resolve returns the identity that signs for the user.
func (r *Resolver) Resolve(ctx context.Context) (Resolution, error) {
	return r.result.Get(ctx)
}

// Close releases the agent connection, if one was opened.
func (r *Resolver) Close() error {
	if conn, ok := r.agent.Peek(); ok {
		return conn.Close()
	}
	return nil
}

// sign asks the agent to sign data with id.
func (r *Resolver) sign(ctx context.Context, id *ssh.Identity, data []byte) ([]byte, error) {
	conn, err := r.agent.Get(ctx)
	if err != nil {
		return nil, err
	}

	sig, err := conn.Sign(id, data)
	if err != nil {
		return nil, &AgentError{Op: "sign", Err: err}
	}
	return sig.Blob, nil
}

func (r *Resolver) resolve(ctx context.Context) (Resolution, error) {
	conn, err := r.agent.Get(ctx)
	if err != nil {
		return Resolution{}, err
	}

	id, err := r.fromRecord(conn)
	if err != nil {
		return Resolution{}, err
	}
	if id != nil {
		return Resolution{Identity: id}, nil
	}

	return r.fromKeys(ctx, conn)
}

// fromRecord checks the persisted record against the agent. A nil identity
// with a nil error means the record is missing, for another user or stale.
func (r *Resolver) fromRecord(conn *ssh.AgentConnection) (*ssh.Identity, error) {
	rec, err := r.env.Store.Load()
	if err != nil {
		r.logger.Debug("resolution cache miss", "error", err)
		return nil, nil
	}
	if rec.Username != r.username {
		r.logger.Debug("resolution cache is for another user", "cached", rec.Username)
		return nil, nil
	}
	blob, err := rec.Blob()
	if err != nil {
		r.logger.Debug("resolution cache miss", "error", err)
		return nil, nil
	}

	ids, err := conn.List()
	if err != nil {
		return nil, &AgentError{Op: "list", Err: err}
	}

	id := preferRSA(ids, func(id *ssh.Identity) bool {
		return id.Matches(rec.Type, blob) && r.allowed(id)
	})
	if id == nil {
		r.logger.Debug("resolution cache is stale", "type", rec.Type)
		return nil, nil
	}

	r.logger.Debug("resolution cache hit", "fingerprint", id.Fingerprint())
	return id, nil
}

// fromKeys matches agent identities against the candidate keys.
func (r *Resolver) fromKeys(ctx context.Context, conn *ssh.AgentConnection) (Resolution, error) {
	candidates, err := r.candidates(ctx)
	if err != nil {
		return Resolution{}, err
	}

	ids, err := conn.List()
	if err != nil {
		return Resolution{}, &AgentError{Op: "list", Err: err}
	}

	id := preferRSA(ids, func(id *ssh.Identity) bool {
		pem, err := ssh.IdentityToPEM(id)
		if err != nil {
			return false
		}
		_, ok := candidates[ssh.CanonicalPEM(pem)]
		return ok
	})

	if id == nil {
		if path := r.env.DefaultKeyPath(); r.env.AgentSocket != "" && path != "" {
			r.logger.Debug("no agent identity matched, deferring to default key", "path", path)
			return Resolution{Deferred: true, KeyPath: path}, nil
		}
		return Resolution{}, fmt.Errorf("%w for %s", ErrNoMatchingIdentity, r.username)
	}

	if err := r.env.Store.Save(store.NewRecord(r.username, id.Type, id.Blob)); err != nil {
		r.logger.Debug("failed to persist resolution", "error", err)
	}

	r.logger.Debug("resolved agent identity", "fingerprint", id.Fingerprint(), "type", id.Type)
	return Resolution{Identity: id}, nil
}

// allowed reports whether id is in the allowlist, if one was given.
func (r *Resolver) allowed(id *ssh.Identity) bool {
	if r.allowlist == nil {
		return true
	}
	pem, err := ssh.IdentityToPEM(id)
	return err == nil && slices.Contains(r.allowlist, ssh.CanonicalPEM(pem))
}

// candidates returns the trusted keys as a set of canonical PEMs.
func (r *Resolver) candidates(ctx context.Context) (map[string]struct{}, error) {
	keys := r.allowlist
	if keys == nil {
		fetched, err := r.keys.Get(ctx, r.username)
		if err != nil {
			return nil, err
		}
		keys = fetched
	}

	set := make(map[string]struct{}, len(keys))
	for _, pem := range keys {
		set[ssh.CanonicalPEM(pem)] = struct{}{}
	}
	return set, nil
}

// preferRSA returns the first identity accepted by match, favouring a plain
// "ssh-rsa" identity over any other type.
func preferRSA(ids []*ssh.Identity, match func(*ssh.Identity) bool) *ssh.Identity {
	var first *ssh.Identity
	for _, id := range ids {
		if !match(id) {
			continue
		}
		if id.Type == ssh.KeyTypeRSA {
			return id
		}
		if first == nil {
			first = id
		}
	}
	return first
}
