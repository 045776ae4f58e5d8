// Package resolve finds an email address for a lead using third-party lookups.
package resolve

import (
	"context"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"outreach-engine/internal/domain"
	"outreach-engine/internal/logging"
)

// Resolver is one lookup strategy. An empty result with a nil error means "not found".
type Resolver interface {
	Name() string
	Resolve(ctx context.Context, lead domain.Lead) (string, error)
}

var emailRe = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

func IsValidEmail(s string) bool {
	if s == "" {
		return false
	}
	return emailRe.MatchString(s)
}

// Chain tries each resolver in order and returns the first well-formed address.
// Lookup errors are logged and treated as not found; nothing is retried.
type Chain struct {
	Resolvers []Resolver
	Log       *zap.Logger
}

func NewChain(log *zap.Logger, rs ...Resolver) *Chain {
	return &Chain{Resolvers: rs, Log: logging.OrNop(log)}
}

func (c *Chain) Resolve(ctx context.Context, lead domain.Lead) string {
	if c == nil {
		return ""
	}
	log := logging.OrNop(c.Log)

	for _, r := range c.Resolvers {
		if ctx.Err() != nil {
			return ""
		}
		email, err := r.Resolve(ctx, lead)
		if err != nil {
			log.Debug("lookup failed",
				zap.String("resolver", r.Name()),
				zap.String("name", lead.Name),
				zap.Error(err))
			continue
		}
		email = strings.TrimSpace(email)
		if email == "" {
			continue
		}
		if !IsValidEmail(email) {
			log.Debug("discarding malformed email",
				zap.String("resolver", r.Name()),
				zap.String("email", email))
			continue
		}
		log.Debug("email found", zap.String("resolver", r.Name()), zap.String("name", lead.Name))
		return email
	}
	return ""
}
