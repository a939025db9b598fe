package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/seoaudit-pro/audit-engine/internal/models"
)

// GetUser возвращает пользователя по его UID.
func (s *Storage) GetUser(ctx context.Context, userUID string) (*models.User, error) {
	const op = "storage.GetUser"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT uid, email, username, role, subscription_tier, monthly_audit_limit,
			      monthly_audits_used, reset_date, api_key, is_active, created_at
			  FROM users
			  WHERE uid = $1`
	u := &models.User{}
	row := s.DB.QueryRowContext(ctx, query, userUID)

	var apiKey sql.NullString
	if err := row.Scan(&u.UID, &u.Email, &u.Username, &u.Role, &u.SubscriptionTier,
		&u.MonthlyAuditLimit, &u.MonthlyAuditsUsed, &u.ResetDate, &apiKey,
		&u.IsActive, &u.CreatedAt); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if apiKey.Valid {
		u.APIKey = &apiKey.String
	}
	return u, nil
}

// GetUserByAPIKey возвращает активного пользователя по ключу API.
func (s *Storage) GetUserByAPIKey(ctx context.Context, apiKey string) (*models.User, error) {
	const op = "storage.GetUserByAPIKey"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT uid, email, username, role, subscription_tier, monthly_audit_limit,
			      monthly_audits_used, reset_date, api_key, is_active, created_at
			  FROM users
			  WHERE api_key = $1 AND is_active = true`
	u := &models.User{}
	row := s.DB.QueryRowContext(ctx, query, apiKey)

	var key sql.NullString
	if err := row.Scan(&u.UID, &u.Email, &u.Username, &u.Role, &u.SubscriptionTier,
		&u.MonthlyAuditLimit, &u.MonthlyAuditsUsed, &u.ResetDate, &key,
		&u.IsActive, &u.CreatedAt); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if key.Valid {
		u.APIKey = &key.String
	}
	return u, nil
}

// RolloverQuota сбрасывает счётчик аудитов и сдвигает дату сброса на месяц,
// если дата сброса наступила. Условие в WHERE делает операцию идемпотентной
// при конкурентных вызовах: сброс применит ровно один из них.
func (s *Storage) RolloverQuota(ctx context.Context, userUID string) error {
	const op = "storage.RolloverQuota"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE users
			  SET monthly_audits_used = 0,
			      reset_date = reset_date + INTERVAL '1 month'
			  WHERE uid = $1
			    AND reset_date <= CURRENT_DATE`
	_, err := s.DB.ExecContext(ctx, query, userUID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// ReserveAudit атомарно занимает один слот месячной квоты пользователя.
// Возвращает false, если лимит исчерпан. Инкремент и проверка лимита
// выполняются одним UPDATE, поэтому два одновременных запроса не могут
// занять последний слот дважды.
//
// Для тарифа free действует меньший из лимита строки и freeLimit —
// настройки max_free_audits_per_month на момент вызова.
func (s *Storage) ReserveAudit(ctx context.Context, userUID string, freeLimit int) (bool, error) {
	const op = "storage.ReserveAudit"
	select {
	case <-ctx.Done():
		return false, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE users
			  SET monthly_audits_used = monthly_audits_used + 1
			  WHERE uid = $1
			    AND is_active = true
			    AND (subscription_tier = 'enterprise'
			         OR monthly_audits_used < CASE WHEN subscription_tier = 'free'
			                                       THEN LEAST(monthly_audit_limit, $2)
			                                       ELSE monthly_audit_limit END)`
	result, err := s.DB.ExecContext(ctx, query, userUID, freeLimit)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return rowsAffected == 1, nil
}

// ReleaseAudit возвращает слот квоты, занятый аудитом, который не должен
// учитываться (например, завершившимся ошибкой до получения результатов).
func (s *Storage) ReleaseAudit(ctx context.Context, userUID string) error {
	const op = "storage.ReleaseAudit"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE users
			  SET monthly_audits_used = GREATEST(monthly_audits_used - 1, 0)
			  WHERE uid = $1`
	_, err := s.DB.ExecContext(ctx, query, userUID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
