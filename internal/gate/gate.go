// Package gate implements the password gate guarding locked projects and the vault.
package gate

import (
	"context"
	"crypto/md5"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/starford/folio/internal/apperr"
	"github.com/starford/folio/internal/models"
)

// Kind selects one of the two independent gates of a session.
type Kind string

const (
	KindProject Kind = "project"
	KindVault   Kind = "vault"
)

// ParseKind validates a kind received from a client.
func ParseKind(s string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case KindProject:
		return KindProject, nil
	case KindVault:
		return KindVault, nil
	}
	return "", fmt.Errorf("gate kind %q: %w", s, apperr.ErrNotFound)
}

// VaultFlag is the session flag persisting vault authorization.
const VaultFlag = "vaultAuthorized"

// State of a gate.
type State int

const (
	Locked State = iota
	Checking
	Authorized
)

func (s State) String() string {
	switch s {
	case Checking:
		return "checking"
	case Authorized:
		return "authorized"
	default:
		return "locked"
	}
}

// DigestFunc turns a plaintext credential into its comparison form.
type DigestFunc func(plaintext string) string

// MD5Hex is the default digest. It matches hashes already stored in site configs.
func MD5Hex(plaintext string) string {
	sum := md5.Sum([]byte(plaintext))
	return hex.EncodeToString(sum[:])
}

// ResolveCredential picks the comparison credential. A local hash always wins
// over the remote plaintext; with neither the gate is unavailable.
func ResolveCredential(localHash string, settings models.Settings, digest DigestFunc) (string, error) {
	if h := strings.TrimSpace(localHash); h != "" {
		return strings.ToLower(h), nil
	}
	plain := settings[models.SettingPassword]
	if strings.TrimSpace(plain) == "" {
		return "", fmt.Errorf("%w: no local hash and no %s setting", apperr.ErrGateUnavailable, models.SettingPassword)
	}
	if digest == nil {
		return "", fmt.Errorf("%w: no digest function", apperr.ErrGateUnavailable)
	}
	return strings.ToLower(digest(plain)), nil
}

// Gate is one session-scoped gate instance.
type Gate struct {
	kind      Kind
	digest    DigestFunc
	sessions  SessionStore
	sessionID string
	logger    *slog.Logger

	mu         sync.Mutex
	state      State
	credential string
}

// Option configures a Gate.
type Option func(*Gate)

// WithDigest replaces MD5Hex. A nil digest makes every check unavailable.
func WithDigest(fn DigestFunc) Option {
	return func(g *Gate) { g.digest = fn }
}

// WithSessionStore persists vault authorization for sessionID.
func WithSessionStore(store SessionStore, sessionID string) Option {
	return func(g *Gate) {
		g.sessions = store
		g.sessionID = sessionID
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(g *Gate) {
		if l != nil {
			g.logger = l
		}
	}
}

// New creates a locked gate of the given kind.
func New(kind Kind, opts ...Option) *Gate {
	g := &Gate{kind: kind, digest: MD5Hex, logger: slog.Default()}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Kind returns the gate kind.
func (g *Gate) Kind() Kind { return g.kind }

// Configure resolves the credential and, for the vault gate, restores a
// persisted authorization. The returned error is informational: an
// unavailable gate keeps failing closed on every Check.
func (g *Gate) Configure(ctx context.Context, localHash string, settings models.Settings) error {
	cred, err := ResolveCredential(localHash, settings, g.digest)

	g.mu.Lock()
	g.credential = cred
	g.mu.Unlock()

	if g.kind == KindVault && g.sessions != nil {
		ok, ferr := g.sessions.Flag(ctx, g.sessionID, VaultFlag)
		if ferr != nil {
			g.logger.Warn("gate: read session flag failed", slog.String("error", ferr.Error()))
		} else if ok {
			g.mu.Lock()
			g.state = Authorized
			g.mu.Unlock()
		}
	}
	if err != nil {
		g.logger.Warn("gate: unavailable", slog.String("kind", string(g.kind)), slog.String("error", err.Error()))
	}
	return err
}

// Check compares candidate against the credential. An authorized gate
// accepts without comparing and is never downgraded.
func (g *Gate) Check(ctx context.Context, candidate string) error {
	g.mu.Lock()
	if g.state == Authorized {
		g.mu.Unlock()
		return nil
	}
	cred, digest := g.credential, g.digest
	if cred == "" || digest == nil {
		g.mu.Unlock()
		return apperr.ErrGateUnavailable
	}
	if candidate == "" {
		g.mu.Unlock()
		return apperr.ErrGateDenied
	}
	g.state = Checking
	g.mu.Unlock()

	got := strings.ToLower(digest(candidate))
	match := subtle.ConstantTimeCompare([]byte(got), []byte(cred)) == 1

	g.mu.Lock()
	if !match {
		if g.state != Authorized {
			g.state = Locked
		}
		g.mu.Unlock()
		g.logger.Info("gate: denied", slog.String("kind", string(g.kind)))
		return apperr.ErrGateDenied
	}
	g.state = Authorized
	g.mu.Unlock()

	g.logger.Info("gate: authorized", slog.String("kind", string(g.kind)))
	if g.kind == KindVault && g.sessions != nil {
		if err := g.sessions.SetFlag(ctx, g.sessionID, VaultFlag); err != nil {
			g.logger.Warn("gate: persist session flag failed", slog.String("error", err.Error()))
		}
	}
	return nil
}

// Authorized reports whether the gate is open.
func (g *Gate) Authorized() bool {
	return g.State() == Authorized
}

// State returns the current state.
func (g *Gate) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Available reports whether a credential resolved.
func (g *Gate) Available() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.credential != "" && g.digest != nil
}
