package auth

import (
	"fmt"
	"time"

	"github.com/dkeye/roomcoord/internal/domain"
	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

const (
	claimID     = "id"
	claimName   = "name"
	claimEmail  = "email"
	claimAvatar = "avatar"
	claimRole   = "role"
)

var ErrInvalidToken = domain.NewError(domain.KindAuthenticationRequired, "Invalid or expired token")

// Verifier checks HS256 access tokens signed with the platform secret.
type Verifier struct {
	key  []byte
	skew time.Duration
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{key: []byte(secret), skew: 30 * time.Second}
}

// Verify returns the identity carried by token. The id comes from the
// "id" claim, falling back to "sub"; profile claims are optional.
func (v *Verifier) Verify(token string) (domain.Identity, error) {
	tok, err := jwt.Parse([]byte(token),
		jwt.WithKey(jwa.HS256, v.key),
		jwt.WithValidate(true),
		jwt.WithAcceptableSkew(v.skew),
	)
	if err != nil {
		return domain.Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	id := claim(tok, claimID)
	if id == "" {
		id = tok.Subject()
	}
	if id == "" {
		return domain.Identity{}, fmt.Errorf("%w: no subject", ErrInvalidToken)
	}
	return domain.Identity{
		ID:     domain.UserID(id),
		Name:   claim(tok, claimName),
		Email:  claim(tok, claimEmail),
		Avatar: claim(tok, claimAvatar),
		Role:   claim(tok, claimRole),
	}, nil
}

func claim(tok jwt.Token, name string) string {
	v, ok := tok.Get(name)
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}
