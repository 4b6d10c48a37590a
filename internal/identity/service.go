package identity

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/munim-pos/munim/internal/shared"
)

// Repository loads actors.
type Repository interface {
	GetActor(ctx context.Context, id int64) (Actor, error)
}

// Service verifies API keys and checks roles.
type Service struct {
	repo Repository
}

// NewService builds a Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Authenticate resolves an API key of the form "<actor-id>.<secret>" against
// the stored bcrypt hash.
func (s *Service) Authenticate(ctx context.Context, apiKey string) (Actor, error) {
	id, secret, ok := strings.Cut(apiKey, ".")
	if !ok {
		return Actor{}, shared.ErrInvalidCredentials
	}
	actorID, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return Actor{}, shared.ErrInvalidCredentials
	}
	actor, err := s.repo.GetActor(ctx, actorID)
	if err != nil {
		return Actor{}, shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(actor.KeyHash), []byte(secret)); err != nil {
		return Actor{}, shared.ErrInvalidCredentials
	}
	return actor, nil
}

// AuthorizeStockOverride checks that the actor may bypass the non-negative
// stock guard.
func (s *Service) AuthorizeStockOverride(ctx context.Context, actorID int64) error {
	actor, err := s.repo.GetActor(ctx, actorID)
	if err != nil {
		return fmt.Errorf("%w: actor %d", shared.ErrPermission, actorID)
	}
	if !actor.Role.CanOverrideStock() {
		return fmt.Errorf("%w: role %s cannot override stock", shared.ErrPermission, actor.Role)
	}
	return nil
}

// HashKey produces a bcrypt hash for a new API key secret.
func HashKey(secret string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
