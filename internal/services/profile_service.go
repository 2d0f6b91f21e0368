package services

import (
	"context"
	"database/sql"
	goerrors "errors"
	"strings"

	"github.com/alexvogt/chesscoach/internal/errors"
	"github.com/alexvogt/chesscoach/internal/models"
	"github.com/alexvogt/chesscoach/internal/repository"
)

// ProfileService handles profile management
type ProfileService interface {
	Get(ctx context.Context, id int64) (*models.Profile, error)
	List(ctx context.Context) ([]models.Profile, error)
	Create(ctx context.Context, username string) (*models.Profile, error)
	Delete(ctx context.Context, id int64) error
}

type profileService struct {
	profileRepo repository.ProfileRepository
}

// NewProfileService creates a new ProfileService
func NewProfileService(profileRepo repository.ProfileRepository) ProfileService {
	return &profileService{profileRepo: profileRepo}
}

func (s *profileService) Get(ctx context.Context, id int64) (*models.Profile, error) {
	p, err := s.profileRepo.Get(ctx, id)
	if err != nil {
		if goerrors.Is(err, sql.ErrNoRows) {
			return nil, errors.NewNotFoundError("profile", id)
		}
		return nil, errors.NewInternalError(err)
	}
	return p, nil
}

func (s *profileService) List(ctx context.Context) ([]models.Profile, error) {
	profiles, err := s.profileRepo.List(ctx)
	if err != nil {
		return nil, errors.NewInternalError(err)
	}
	return profiles, nil
}

func (s *profileService) Create(ctx context.Context, username string) (*models.Profile, error) {
	username = strings.TrimSpace(strings.ToLower(username))
	if username == "" {
		return nil, errors.NewValidationError("username", "cannot be empty")
	}
	p, err := s.profileRepo.Upsert(ctx, username)
	if err != nil {
		return nil, errors.NewInternalError(err)
	}
	return p, nil
}

func (s *profileService) Delete(ctx context.Context, id int64) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.profileRepo.Delete(ctx, id); err != nil {
		return errors.NewInternalError(err)
	}
	return nil
}
