// Package auth is the connection gate: it turns a handshake credential into
// an identity once, before any event of the connection is processed.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dkeye/roomcoord/internal/core"
	"github.com/dkeye/roomcoord/internal/domain"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const (
	SessionTokenKey = "token"
	queryTokenKey   = "token"
)

var (
	ErrMissingToken = domain.NewError(domain.KindAuthenticationRequired, "Authentication required")
	ErrUnknownUser  = domain.NewError(domain.KindAuthenticationRequired, "User not found")
)

type tokenVerifier interface {
	Verify(token string) (domain.Identity, error)
}

type Gate struct {
	Verifier tokenVerifier
	Users    core.UserRepository
}

// Authenticate resolves the identity behind token, backfilling missing
// profile fields with a single user lookup.
func (g *Gate) Authenticate(ctx context.Context, token string) (domain.Identity, error) {
	if token == "" {
		return domain.Identity{}, ErrMissingToken
	}
	identity, err := g.Verifier.Verify(token)
	if err != nil {
		return domain.Identity{}, err
	}
	if !identity.NeedsProfile() {
		return identity, nil
	}

	user, err := g.Users.FindByID(ctx, identity.ID)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.Identity{}, ErrUnknownUser
	}
	if err != nil {
		return domain.Identity{}, fmt.Errorf("profile lookup: %w", err)
	}
	log.Debug().Str("module", "adapters.auth").Str("user", string(identity.ID)).Msg("profile backfilled")
	return identity.WithProfile(user), nil
}

// TokenFromRequest reads the credential from the Authorization header, the
// token query parameter or the cookie session, in that order.
func TokenFromRequest(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); h != "" {
		if t, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(t)
		}
	}
	if t := c.Query(queryTokenKey); t != "" {
		return t
	}
	if _, ok := c.Get(sessions.DefaultKey); !ok {
		return ""
	}
	t, _ := sessions.Default(c).Get(SessionTokenKey).(string)
	return t
}
