package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/finnholt/beamcast/internal/models"
	"github.com/lib/pq"
)

type ConnectionRepository interface {
	Create(ctx context.Context, tx *sql.Tx, conn *models.Connection) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.Connection, error)
	ListByUserID(ctx context.Context, userID int64) ([]*models.Connection, error)
	ListActiveByPlatforms(ctx context.Context, userID int64, platforms []string) ([]*models.Connection, error)
	ListExpiringTokens(ctx context.Context, initialTime, finalTime time.Time) ([]*models.Connection, error)
	CountByUserID(ctx context.Context, userID int64) (int, error)
	CheckByUserID(ctx context.Context, connectionID, userID int64) (bool, error)
	SetStatus(ctx context.Context, id int64, status string) error
	SetStatusByUser(ctx context.Context, userID int64, fromStatus, toStatus string) error
	SetTokens(ctx context.Context, id int64, accessToken, refreshToken string, expiresAt *time.Time) error
	IncrementDailyCounter(ctx context.Context, id int64) error
	ResetDailyCounters(ctx context.Context) (int64, error)
	Remove(ctx context.Context, id int64) error
}

type connectionRepository struct {
	db *sql.DB
}

func NewConnectionRepository(db *sql.DB) ConnectionRepository {
	return &connectionRepository{db: db}
}

const connectionColumns = `id, user_id, platform, account_name, status, access_token,
	refresh_token, webhook_url, bot_token, channel_id, server_url, token_expires_at,
	posts_today, last_post_at, verified_at, created_at, updated_at`

func scanConnection(scan func(dest ...any) error) (*models.Connection, error) {
	var c models.Connection
	err := scan(&c.ID, &c.UserID, &c.Platform, &c.AccountName, &c.Status, &c.AccessToken,
		&c.RefreshToken, &c.WebhookURL, &c.BotToken, &c.ChannelID, &c.ServerURL,
		&c.TokenExpiresAt, &c.PostsToday, &c.LastPostAt, &c.VerifiedAt, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *connectionRepository) Create(ctx context.Context, tx *sql.Tx, conn *models.Connection) (int64, error) {
	query := `
		INSERT INTO connections (
			user_id, platform, account_name, status, access_token, refresh_token,
			webhook_url, bot_token, channel_id, server_url, token_expires_at, verified_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id
	`

	args := []any{
		conn.UserID, conn.Platform, conn.AccountName, conn.Status, conn.AccessToken,
		conn.RefreshToken, conn.WebhookURL, conn.BotToken, conn.ChannelID, conn.ServerURL,
		conn.TokenExpiresAt, conn.VerifiedAt,
	}

	var id int64
	var err error
	if tx != nil {
		err = tx.QueryRowContext(ctx, query, args...).Scan(&id)
	} else {
		err = r.db.QueryRowContext(ctx, query, args...).Scan(&id)
	}
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	return id, nil
}

func (r *connectionRepository) GetByID(ctx context.Context, id int64) (*models.Connection, error) {
	query := `SELECT ` + connectionColumns + ` FROM connections WHERE id = $1`
	conn, err := scanConnection(r.db.QueryRowContext(ctx, query, id).Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return conn, nil
}

func (r *connectionRepository) ListByUserID(ctx context.Context, userID int64) ([]*models.Connection, error) {
	query := `SELECT ` + connectionColumns + ` FROM connections WHERE user_id = $1 ORDER BY created_at`
	return r.queryConnections(ctx, query, userID)
}

func (r *connectionRepository) ListActiveByPlatforms(ctx context.Context, userID int64, platforms []string) ([]*models.Connection, error) {
	query := `SELECT ` + connectionColumns + `
		FROM connections
		WHERE user_id = $1 AND status = $2 AND platform = ANY($3)`
	return r.queryConnections(ctx, query, userID, models.ConnectionActive, pq.Array(platforms))
}

func (r *connectionRepository) ListExpiringTokens(ctx context.Context, initialTime, finalTime time.Time) ([]*models.Connection, error) {
	query := `SELECT ` + connectionColumns + `
		FROM connections
		WHERE status = $1
		  AND token_expires_at IS NOT NULL
		  AND refresh_token <> ''
		  AND ((token_expires_at BETWEEN $2 AND $3) OR token_expires_at < $2)`
	return r.queryConnections(ctx, query, models.ConnectionActive, initialTime, finalTime)
}

func (r *connectionRepository) queryConnections(ctx context.Context, query string, args ...any) ([]*models.Connection, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var connections []*models.Connection
	for rows.Next() {
		conn, err := scanConnection(rows.Scan)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		connections = append(connections, conn)
	}
	if err := rows.Err(); err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	return connections, nil
}

func (r *connectionRepository) CountByUserID(ctx context.Context, userID int64) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM connections WHERE user_id = $1`, userID).Scan(&count)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}
	return count, nil
}

func (r *connectionRepository) CheckByUserID(ctx context.Context, connectionID, userID int64) (bool, error) {
	query := `SELECT 1 FROM connections WHERE id = $1 AND user_id = $2`

	var result int
	err := r.db.QueryRowContext(ctx, query, connectionID, userID).Scan(&result)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		slog.Info(err.Error())
		return false, err
	}

	return result == 1, nil
}

func (r *connectionRepository) SetStatus(ctx context.Context, id int64, status string) error {
	query := `UPDATE connections SET status = $1, updated_at = $2 WHERE id = $3`
	_, err := r.db.ExecContext(ctx, query, status, time.Now(), id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *connectionRepository) SetStatusByUser(ctx context.Context, userID int64, fromStatus, toStatus string) error {
	query := `UPDATE connections SET status = $1, updated_at = $2 WHERE user_id = $3 AND status = $4`
	_, err := r.db.ExecContext(ctx, query, toStatus, time.Now(), userID, fromStatus)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *connectionRepository) SetTokens(ctx context.Context, id int64, accessToken, refreshToken string, expiresAt *time.Time) error {
	query := `
		UPDATE connections
		SET access_token = COALESCE(NULLIF($1, ''), access_token),
			refresh_token = COALESCE(NULLIF($2, ''), refresh_token),
			token_expires_at = COALESCE($3, token_expires_at),
			updated_at = $4
		WHERE id = $5
	`
	_, err := r.db.ExecContext(ctx, query, accessToken, refreshToken, expiresAt, time.Now(), id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *connectionRepository) IncrementDailyCounter(ctx context.Context, id int64) error {
	query := `
		UPDATE connections
		SET posts_today = posts_today + 1,
			last_post_at = $1,
			updated_at = $1
		WHERE id = $2
	`
	_, err := r.db.ExecContext(ctx, query, time.Now(), id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *connectionRepository) ResetDailyCounters(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx, `UPDATE connections SET posts_today = 0 WHERE posts_today > 0`)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	return affected, nil
}

// Remove hard-deletes the row. Disconnecting a platform is expected to make
// the stored credentials vanish permanently; there is no soft delete here.
func (r *connectionRepository) Remove(ctx context.Context, id int64) error {
	query := `DELETE FROM connections WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}
