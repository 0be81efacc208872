package user

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/hospitalops/scheduler-api/internal/model"
	"github.com/hospitalops/scheduler-api/internal/repository"
	"github.com/hospitalops/scheduler-api/pkg/apperror"
	"github.com/hospitalops/scheduler-api/pkg/auth"
	"github.com/hospitalops/scheduler-api/pkg/security"
)

// Service covers identity: registration, login and activation. Credentials
// never leave this package; tokens carry the user id only.
type Service struct {
	repo   repository.UserRepository
	hasher security.PasswordHasher
	tokens *auth.TokenService
}

func NewService(repo repository.UserRepository, hasher security.PasswordHasher, tokens *auth.TokenService) *Service {
	return &Service{repo: repo, hasher: hasher, tokens: tokens}
}

// Register creates a user with exactly one role. Admin-only at the router.
func (s *Service) Register(ctx context.Context, req *model.CreateUserRequest) (*model.User, error) {
	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, apperror.New(apperror.CodeBadRequest, "password does not meet requirements")
	}

	u := &model.User{
		Email:        req.Email,
		FullName:     req.FullName,
		PasswordHash: hash,
		Role:         req.Role,
		IsActive:     true,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Login verifies credentials and issues an access token. Deactivated users
// cannot log in. The failure message never distinguishes a missing account
// from a wrong password.
func (s *Service) Login(ctx context.Context, req *model.LoginRequest) (*model.LoginResponse, error) {
	u, err := s.repo.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.New(apperror.CodeUnauthorized, "invalid credentials")
		}
		return nil, err
	}
	if !u.IsActive {
		return nil, apperror.New(apperror.CodeUnauthorized, "invalid credentials")
	}
	if err := s.hasher.Compare(u.PasswordHash, req.Password); err != nil {
		return nil, apperror.New(apperror.CodeUnauthorized, "invalid credentials")
	}

	token, err := s.tokens.Generate(u.ID)
	if err != nil {
		return nil, apperror.Internal(err)
	}

	return &model.LoginResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		User:        u,
	}, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.User, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, p model.Pagination) ([]*model.User, error) {
	return s.repo.List(ctx, p)
}

// SetActive flips activation. Deactivation takes effect on the user's next
// request because the role and activation state are read fresh per request.
func (s *Service) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	return s.repo.SetActive(ctx, id, active)
}
