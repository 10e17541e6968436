package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	config "github.com/finnholt/beamcast/configs"
	"github.com/finnholt/beamcast/internal/models"
	"github.com/finnholt/beamcast/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

// signupCredits is the starting balance for every new account.
const signupCredits = 10

type AuthService interface {
	Register(ctx context.Context, email, password, name string) (int64, error)
	Login(ctx context.Context, email, password string) (int64, error)
}

type authService struct {
	cfg config.Config
	u   repository.UserRepository
}

func NewAuthService(cfg config.Config, u repository.UserRepository) AuthService {
	return &authService{
		cfg: cfg,
		u:   u,
	}
}

func (s *authService) Register(ctx context.Context, email, password, name string) (int64, error) {
	if email == "" || password == "" {
		err := errors.New("email and password are required")
		slog.Info(err.Error())
		return 0, err
	}

	_, exists, err := s.u.GetByEmail(ctx, email)
	if err != nil {
		return 0, err
	}
	if exists {
		err = errors.New("an account with this email already exists")
		slog.Info(err.Error())
		return 0, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		slog.Error(err.Error())
		return 0, errors.New("error creating account")
	}

	userID, err := s.u.Create(ctx, nil, &models.User{
		Email:        email,
		PasswordHash: string(hash),
		Name:         name,
		Plan:         models.PlanTrial,
		Credits:      signupCredits,
		TrialEndsAt:  time.Now().AddDate(0, 0, models.TrialDays),
	})
	if err != nil {
		return 0, err
	}

	return userID, nil
}

func (s *authService) Login(ctx context.Context, email, password string) (int64, error) {
	user, exists, err := s.u.GetByEmail(ctx, email)
	if err != nil {
		return 0, err
	}
	if !exists {
		err = errors.New("invalid email or password")
		slog.Info(err.Error())
		return 0, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		err = errors.New("invalid email or password")
		slog.Info(err.Error())
		return 0, err
	}

	return user.ID, nil
}
