package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/finnholt/beamcast/internal/dispatch"
	"github.com/finnholt/beamcast/internal/models"
	"github.com/finnholt/beamcast/internal/repository"
	"github.com/finnholt/beamcast/internal/transfer"
	"github.com/finnholt/beamcast/internal/vault"
)

type ConnectionService interface {
	Connect(ctx context.Context, userID int64, cc *transfer.ConnectionCreation) (int64, error)
	List(ctx context.Context, userID int64) ([]*models.Connection, error)
	Pause(ctx context.Context, userID, connectionID int64) error
	Resume(ctx context.Context, userID, connectionID int64) error
	Disconnect(ctx context.Context, userID, connectionID int64) error
}

type connectionService struct {
	cr       repository.ConnectionRepository
	ur       repository.UserRepository
	vault    *vault.Vault
	registry *dispatch.Registry
}

func NewConnectionService(
	cr repository.ConnectionRepository,
	ur repository.UserRepository,
	v *vault.Vault,
	registry *dispatch.Registry) ConnectionService {
	return &connectionService{
		cr:       cr,
		ur:       ur,
		vault:    v,
		registry: registry,
	}
}

// Connect stores a new platform link. Every secret field is encrypted
// independently before it touches the database.
func (s *connectionService) Connect(ctx context.Context, userID int64, cc *transfer.ConnectionCreation) (int64, error) {
	if cc == nil || cc.Platform == "" {
		err := errors.New("platform is required")
		slog.Info(err.Error())
		return 0, err
	}

	if _, ok := s.registry.Get(cc.Platform); !ok {
		err := fmt.Errorf("unsupported platform %q", cc.Platform)
		slog.Info(err.Error())
		return 0, err
	}

	if cc.AccessToken == "" && cc.WebhookURL == "" && cc.BotToken == "" {
		err := errors.New("credentials are required")
		slog.Info(err.Error())
		return 0, err
	}

	user, exists, err := s.ur.GetByID(ctx, userID)
	if err != nil {
		return 0, err
	}
	if !exists {
		return 0, errors.New("user doesn't exist")
	}

	limits := models.PlanLimitsByName[user.Plan]
	count, err := s.cr.CountByUserID(ctx, userID)
	if err != nil {
		return 0, err
	}
	if limits.MaxPlatforms > 0 && count >= limits.MaxPlatforms {
		err := fmt.Errorf("plan %s allows at most %d connected platforms - upgrade for more", user.Plan, limits.MaxPlatforms)
		slog.Info(err.Error())
		return 0, err
	}

	conn := models.Connection{
		UserID:      userID,
		Platform:    cc.Platform,
		AccountName: cc.AccountName,
		Status:      models.ConnectionActive,
		ChannelID:   cc.ChannelID,
		ServerURL:   cc.ServerURL,
	}

	fields := []struct {
		plaintext string
		target    *string
	}{
		{cc.AccessToken, &conn.AccessToken},
		{cc.RefreshToken, &conn.RefreshToken},
		{cc.WebhookURL, &conn.WebhookURL},
		{cc.BotToken, &conn.BotToken},
	}
	for _, f := range fields {
		if f.plaintext == "" {
			continue
		}
		encrypted, err := s.vault.Encrypt(f.plaintext)
		if err != nil {
			slog.Error(err.Error())
			return 0, fmt.Errorf("error encrypting credentials")
		}
		*f.target = encrypted
	}

	now := time.Now()
	conn.VerifiedAt = &now

	id, err := s.cr.Create(ctx, nil, &conn)
	if err != nil {
		return 0, fmt.Errorf("error saving connection")
	}
	return id, nil
}

func (s *connectionService) List(ctx context.Context, userID int64) ([]*models.Connection, error) {
	connections, err := s.cr.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error listing connections")
	}
	return connections, nil
}

func (s *connectionService) Pause(ctx context.Context, userID, connectionID int64) error {
	if err := s.checkOwnership(ctx, userID, connectionID); err != nil {
		return err
	}
	return s.cr.SetStatus(ctx, connectionID, models.ConnectionPaused)
}

func (s *connectionService) Resume(ctx context.Context, userID, connectionID int64) error {
	if err := s.checkOwnership(ctx, userID, connectionID); err != nil {
		return err
	}
	return s.cr.SetStatus(ctx, connectionID, models.ConnectionActive)
}

// Disconnect hard-deletes the connection; the encrypted credentials are gone
// for good.
func (s *connectionService) Disconnect(ctx context.Context, userID, connectionID int64) error {
	if err := s.checkOwnership(ctx, userID, connectionID); err != nil {
		return err
	}
	return s.cr.Remove(ctx, connectionID)
}

func (s *connectionService) checkOwnership(ctx context.Context, userID, connectionID int64) error {
	isValid, err := s.cr.CheckByUserID(ctx, connectionID, userID)
	if err != nil {
		return err
	}
	if !isValid {
		err = errors.New("connection doesn't exist")
		slog.Info(err.Error())
		return err
	}
	return nil
}
