package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/seoaudit-pro/audit-engine/internal/models"
)

// UpsertWebsite возвращает ID сайта по домену, создавая запись при первом аудите.
func (s *Storage) UpsertWebsite(ctx context.Context, domain string) (int, error) {
	const op = "storage.UpsertWebsite"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO websites (domain)
			  VALUES ($1)
			  ON CONFLICT (domain) DO UPDATE SET domain = EXCLUDED.domain
			  RETURNING id`
	var id int
	if err := s.DB.QueryRowContext(ctx, query, domain).Scan(&id); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return id, nil
}

// ApplyCompletedScore инкрементально пересчитывает скользящее среднее сайта
// по итогу завершённого аудита. Один UPDATE сериализуется блокировкой строки,
// поэтому одновременные завершения аудитов одного домена не теряют обновлений.
func (s *Storage) ApplyCompletedScore(ctx context.Context, websiteID int, score int, completedAt time.Time) error {
	const op = "storage.ApplyCompletedScore"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE websites
			  SET average_score = ROUND(
			          (COALESCE(average_score, 0) * total_audits + $1) / (total_audits + 1), 2),
			      total_audits = total_audits + 1,
			      last_analyzed = $2
			  WHERE id = $3`
	_, err := s.DB.ExecContext(ctx, query, score, completedAt, websiteID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// ReadWebsite возвращает сайт по его ID.
func (s *Storage) ReadWebsite(ctx context.Context, id int) (*models.Website, error) {
	const op = "storage.ReadWebsite"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, domain, COALESCE(title, ''), COALESCE(description, ''),
			      COALESCE(favicon_url, ''), total_audits, average_score,
			      first_analyzed, last_analyzed, is_active
			  FROM websites WHERE id = $1`
	row := s.DB.QueryRowContext(ctx, query, id)

	var result models.Website
	var averageScore sql.NullFloat64
	var lastAnalyzed sql.NullTime
	if err := row.Scan(&result.ID, &result.Domain, &result.Title, &result.Description,
		&result.FaviconURL, &result.TotalAudits, &averageScore,
		&result.FirstAnalyzed, &lastAnalyzed, &result.IsActive); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if averageScore.Valid {
		result.AverageScore = &averageScore.Float64
	}
	if lastAnalyzed.Valid {
		result.LastAnalyzed = &lastAnalyzed.Time
	}
	return &result, nil
}

// ListWebsites возвращает сайты с пагинацией, недавно проанализированные первыми.
func (s *Storage) ListWebsites(ctx context.Context, limit, offset int) ([]*models.Website, error) {
	const op = "storage.ListWebsites"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, domain, COALESCE(title, ''), COALESCE(description, ''),
			      COALESCE(favicon_url, ''), total_audits, average_score,
			      first_analyzed, last_analyzed, is_active
			  FROM websites
			  ORDER BY last_analyzed DESC NULLS LAST
			  LIMIT $1 OFFSET $2`
	rows, err := s.DB.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Website
	for rows.Next() {
		var item models.Website
		var averageScore sql.NullFloat64
		var lastAnalyzed sql.NullTime
		if err := rows.Scan(&item.ID, &item.Domain, &item.Title, &item.Description,
			&item.FaviconURL, &item.TotalAudits, &averageScore,
			&item.FirstAnalyzed, &lastAnalyzed, &item.IsActive); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if averageScore.Valid {
			item.AverageScore = &averageScore.Float64
		}
		if lastAnalyzed.Valid {
			item.LastAnalyzed = &lastAnalyzed.Time
		}
		result = append(result, &item)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// UpsertSocialProfiles сохраняет профили сайта в социальных сетях,
// найденные социальной категорией проверок.
func (s *Storage) UpsertSocialProfiles(ctx context.Context, websiteID int, profiles []models.SocialProfile) error {
	const op = "storage.UpsertSocialProfiles"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO social_profiles (website_id, platform, profile_url, username,
			      followers_count, posts_count, engagement_rate, verified)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			  ON CONFLICT (website_id, platform) DO UPDATE SET
			      profile_url = EXCLUDED.profile_url,
			      username = EXCLUDED.username,
			      followers_count = EXCLUDED.followers_count,
			      posts_count = EXCLUDED.posts_count,
			      engagement_rate = EXCLUDED.engagement_rate,
			      verified = EXCLUDED.verified,
			      updated_at = NOW()`
	for _, p := range profiles {
		_, err := s.DB.ExecContext(ctx, query, websiteID, p.Platform, p.ProfileURL, p.Username,
			p.FollowersCount, p.PostsCount, p.EngagementRate, p.Verified)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}
	return nil
}
