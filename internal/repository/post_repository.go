package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/finnholt/beamcast/internal/models"
)

type PostRepository interface {
	Create(ctx context.Context, tx *sql.Tx, post *models.Post) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.Post, error)
	GetByUserID(ctx context.Context, userID int64) ([]*models.Post, error)
	CheckByUserID(ctx context.Context, postID, userID int64) (bool, error)
	CountByUserSince(ctx context.Context, userID int64, since time.Time) (int, error)
	ListDue(ctx context.Context, now time.Time, limit int) ([]*models.Post, error)
	ListStuckPublishing(ctx context.Context, cutoff time.Time, limit int) ([]*models.Post, error)
	ClaimForPublishing(ctx context.Context, postID int64) (bool, error)
	UpdateStatus(ctx context.Context, status string, postID int64) error
	MarkPaused(ctx context.Context, postID int64, reason string) error
	SetOutcome(ctx context.Context, postID int64, status string, results map[string]any, errorMessage string, publishedAt *time.Time) error
	Requeue(ctx context.Context, postID int64) error
	FailTerminally(ctx context.Context, postID int64, reason string) error
	Remove(ctx context.Context, id int64) error
}

type postRepository struct {
	db *sql.DB
}

func NewPostRepository(db *sql.DB) PostRepository {
	return &postRepository{db: db}
}

const postColumns = `id, user_id, brand_id, content, adapted_content, platforms, media_urls,
	status, scheduled_for, retry_count, max_retries, results, error_message, published_at,
	created_at, updated_at`

func scanPost(scan func(dest ...any) error) (*models.Post, error) {
	var post models.Post
	var adapted, results []byte
	err := scan(&post.ID, &post.UserID, &post.BrandID, &post.Content, &adapted,
		&post.Platforms, &post.MediaURLs, &post.Status, &post.ScheduledFor,
		&post.RetryCount, &post.MaxRetries, &results, &post.ErrorMessage,
		&post.PublishedAt, &post.CreatedAt, &post.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if len(adapted) > 0 {
		if err := json.Unmarshal(adapted, &post.AdaptedContent); err != nil {
			return nil, err
		}
	}
	if len(results) > 0 {
		if err := json.Unmarshal(results, &post.Results); err != nil {
			return nil, err
		}
	}
	return &post, nil
}

func (r *postRepository) Create(ctx context.Context, tx *sql.Tx, post *models.Post) (int64, error) {
	adapted, err := json.Marshal(post.AdaptedContent)
	if err != nil {
		return 0, err
	}

	query := `
		INSERT INTO posts (user_id, brand_id, content, adapted_content, platforms,
			media_urls, status, scheduled_for, max_retries)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`

	args := []any{
		post.UserID, post.BrandID, post.Content, adapted, post.Platforms,
		post.MediaURLs, post.Status, post.ScheduledFor, post.MaxRetries,
	}

	var id int64
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

func (r *postRepository) GetByID(ctx context.Context, id int64) (*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE id = $1`
	post, err := scanPost(r.db.QueryRowContext(ctx, query, id).Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return post, nil
}

func (r *postRepository) GetByUserID(ctx context.Context, userID int64) ([]*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE user_id = $1 ORDER BY created_at DESC`
	return r.queryPosts(ctx, query, userID)
}

func (r *postRepository) CheckByUserID(ctx context.Context, postID, userID int64) (bool, error) {
	query := `SELECT 1 FROM posts WHERE id = $1 AND user_id = $2`

	var result int
	err := r.db.QueryRowContext(ctx, query, postID, userID).Scan(&result)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		slog.Info(err.Error())
		return false, err
	}

	return result == 1, nil
}

func (r *postRepository) CountByUserSince(ctx context.Context, userID int64, since time.Time) (int, error) {
	query := `SELECT COUNT(*) FROM posts WHERE user_id = $1 AND created_at >= $2 AND status <> $3`
	var count int
	err := r.db.QueryRowContext(ctx, query, userID, since, models.PostStatusDraft).Scan(&count)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}
	return count, nil
}

func (r *postRepository) ListDue(ctx context.Context, now time.Time, limit int) ([]*models.Post, error) {
	query := `SELECT ` + postColumns + `
		FROM posts
		WHERE status = $1
		  AND scheduled_for IS NOT NULL
		  AND scheduled_for <= $2
		  AND retry_count < max_retries
		ORDER BY scheduled_for ASC
		LIMIT $3`
	return r.queryPosts(ctx, query, models.PostStatusScheduled, now, limit)
}

func (r *postRepository) ListStuckPublishing(ctx context.Context, cutoff time.Time, limit int) ([]*models.Post, error) {
	query := `SELECT ` + postColumns + `
		FROM posts
		WHERE status = $1
		  AND updated_at < $2
		ORDER BY updated_at ASC
		LIMIT $3`
	return r.queryPosts(ctx, query, models.PostStatusPublishing, cutoff, limit)
}

func (r *postRepository) queryPosts(ctx context.Context, query string, args ...any) ([]*models.Post, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var posts []*models.Post
	for rows.Next() {
		post, err := scanPost(rows.Scan)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		posts = append(posts, post)
	}
	if err := rows.Err(); err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	return posts, nil
}

// ClaimForPublishing atomically moves a post into publishing. The status
// predicate makes the claim exclusive: a post already in flight, paused or in
// a terminal state matches zero rows, and the caller must treat that as
// someone else's claim.
func (r *postRepository) ClaimForPublishing(ctx context.Context, postID int64) (bool, error) {
	query := `
		UPDATE posts
		SET status = $1, updated_at = $2
		WHERE id = $3 AND status IN ($4, $5)
	`
	res, err := r.db.ExecContext(ctx, query, models.PostStatusPublishing, time.Now(), postID,
		models.PostStatusDraft, models.PostStatusScheduled)
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

func (r *postRepository) UpdateStatus(ctx context.Context, status string, postID int64) error {
	query := `UPDATE posts SET status = $1, updated_at = $2 WHERE id = $3`
	_, err := r.db.ExecContext(ctx, query, status, time.Now(), postID)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

// MarkPaused parks a scheduled post that failed tenant eligibility. The retry
// counter is untouched: pausing is not a delivery failure.
func (r *postRepository) MarkPaused(ctx context.Context, postID int64, reason string) error {
	query := `UPDATE posts SET status = $1, error_message = $2, updated_at = $3 WHERE id = $4`
	_, err := r.db.ExecContext(ctx, query, models.PostStatusPaused, reason, time.Now(), postID)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *postRepository) SetOutcome(ctx context.Context, postID int64, status string, results map[string]any, errorMessage string, publishedAt *time.Time) error {
	encoded, err := json.Marshal(results)
	if err != nil {
		return err
	}

	query := `
		UPDATE posts
		SET status = $1,
			results = $2,
			error_message = $3,
			published_at = COALESCE($4, published_at),
			updated_at = $5
		WHERE id = $6
	`
	_, err = r.db.ExecContext(ctx, query, status, encoded, errorMessage, publishedAt, time.Now(), postID)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

// Requeue sends a failed attempt back to the scheduler: retry_count moves up
// and the post becomes visible to ListDue again.
func (r *postRepository) Requeue(ctx context.Context, postID int64) error {
	query := `
		UPDATE posts
		SET status = $1,
			retry_count = retry_count + 1,
			updated_at = $2
		WHERE id = $3
	`
	_, err := r.db.ExecContext(ctx, query, models.PostStatusScheduled, time.Now(), postID)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *postRepository) FailTerminally(ctx context.Context, postID int64, reason string) error {
	query := `
		UPDATE posts
		SET status = $1,
			retry_count = retry_count + 1,
			error_message = $2,
			updated_at = $3
		WHERE id = $4
	`
	_, err := r.db.ExecContext(ctx, query, models.PostStatusFailed, reason, time.Now(), postID)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *postRepository) Remove(ctx context.Context, id int64) error {
	query := `DELETE FROM posts WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}
