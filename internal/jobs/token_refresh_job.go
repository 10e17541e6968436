package job

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	config "github.com/finnholt/beamcast/configs"
	"github.com/finnholt/beamcast/internal/models"
	"github.com/finnholt/beamcast/internal/repository"
	"github.com/finnholt/beamcast/internal/vault"
	"golang.org/x/oauth2"
)

type TokenRefreshJob struct {
	cfg config.Config
	cr  repository.ConnectionRepository
	v   *vault.Vault
}

func NewTokenRefreshJob(cfg config.Config, cr repository.ConnectionRepository, v *vault.Vault) *TokenRefreshJob {
	return &TokenRefreshJob{cfg: cfg, cr: cr, v: v}
}

// RefreshTokens rotates OAuth access tokens that expire within the next half
// hour. Only connections carrying a refresh token qualify; webhook and bot
// token platforms have nothing to rotate.
func (j *TokenRefreshJob) RefreshTokens() {
	ctx := context.Background()

	currentTime := time.Now()
	timeIn30Minutes := currentTime.Add(30 * time.Minute)

	connections, err := j.cr.ListExpiringTokens(ctx, currentTime, timeIn30Minutes)
	if err != nil {
		slog.Info(err.Error())
		return
	}

	var wg sync.WaitGroup

	concurrencyLimit := 10
	semaphore := make(chan struct{}, concurrencyLimit)

	for _, conn := range connections {
		wg.Add(1)
		semaphore <- struct{}{}

		go func(conn *models.Connection) {
			defer wg.Done()
			defer func() { <-semaphore }()

			if err := j.refreshConnection(ctx, conn); err != nil {
				slog.Info("token refresh failed", "connection_id", conn.ID, "platform", conn.Platform, "error", err.Error())
			}
		}(conn)
	}

	wg.Wait()
}

func (j *TokenRefreshJob) refreshConnection(ctx context.Context, conn *models.Connection) error {
	oauthConfig, ok := j.oauthConfig(conn)
	if !ok {
		return nil
	}

	refreshToken, err := j.v.Decrypt(conn.RefreshToken)
	if err != nil {
		return err
	}

	token, err := oauthConfig.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken}).Token()
	if err != nil {
		return err
	}

	encryptedAccess, err := j.v.Encrypt(token.AccessToken)
	if err != nil {
		return err
	}

	encryptedRefresh := ""
	if token.RefreshToken != "" && token.RefreshToken != refreshToken {
		encryptedRefresh, err = j.v.Encrypt(token.RefreshToken)
		if err != nil {
			return err
		}
	}

	var expiresAt *time.Time
	if !token.Expiry.IsZero() {
		expiresAt = &token.Expiry
	}

	return j.cr.SetTokens(ctx, conn.ID, encryptedAccess, encryptedRefresh, expiresAt)
}

func (j *TokenRefreshJob) oauthConfig(conn *models.Connection) (*oauth2.Config, bool) {
	switch conn.Platform {
	case "mastodon":
		if j.cfg.Mastodon.ClientID == "" || conn.ServerURL == "" {
			return nil, false
		}
		return &oauth2.Config{
			ClientID:     j.cfg.Mastodon.ClientID,
			ClientSecret: j.cfg.Mastodon.ClientSecret,
			Endpoint: oauth2.Endpoint{
				TokenURL: strings.TrimSuffix(conn.ServerURL, "/") + j.cfg.Mastodon.TokenURL,
			},
		}, true
	}
	return nil, false
}
