package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/seoaudit-pro/audit-engine/internal/models"
)

// CreateAudit вставляет новую запись аудита в состоянии pending и возвращает её ID.
func (s *Storage) CreateAudit(ctx context.Context, audit models.Audit) (int, error) {
	const op = "storage.CreateAudit"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO audits (user_uid, website_id, url, audit_type, status, is_public)
			  VALUES ($1, $2, $3, $4, $5, $6)
			  RETURNING id`
	var newID int
	err := s.DB.QueryRowContext(ctx, query,
		audit.UserUID, audit.WebsiteID, audit.URL, audit.AuditType,
		audit.Status, audit.IsPublic).Scan(&newID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// MarkAuditRunning переводит аудит pending -> running и фиксирует started_at.
// Возвращает false, если аудит уже не в состоянии pending.
func (s *Storage) MarkAuditRunning(ctx context.Context, id int, startedAt time.Time) (bool, error) {
	const op = "storage.MarkAuditRunning"
	select {
	case <-ctx.Done():
		return false, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE audits
			  SET status = $1, started_at = $2
			  WHERE id = $3 AND status = $4`
	result, err := s.DB.ExecContext(ctx, query, models.StatusRunning, startedAt, id, models.StatusPending)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return rowsAffected == 1, nil
}

// FinalizeAudit переводит аудит в конечное состояние.
// Конечные состояния неизменяемы: условие по текущему статусу не даст
// перезаписать уже завершённый аудит.
func (s *Storage) FinalizeAudit(ctx context.Context, id int, status models.AuditStatus,
	overallScore *int, errorMessage *string, completedAt time.Time) (bool, error) {
	const op = "storage.FinalizeAudit"
	select {
	case <-ctx.Done():
		return false, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE audits
			  SET status = $1, overall_score = $2, error_message = $3, completed_at = $4
			  WHERE id = $5 AND status IN ($6, $7)`
	result, err := s.DB.ExecContext(ctx, query,
		status, overallScore, errorMessage, completedAt, id, models.StatusPending, models.StatusRunning)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return rowsAffected == 1, nil
}

// ReadAudit возвращает аудит по его ID.
func (s *Storage) ReadAudit(ctx context.Context, id int) (*models.Audit, error) {
	const op = "storage.ReadAudit"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, user_uid, website_id, url, audit_type, overall_score, status,
			      started_at, completed_at, error_message, is_public, created_at
			  FROM audits WHERE id = $1`
	row := s.DB.QueryRowContext(ctx, query, id)

	var result models.Audit
	var userUID, errorMessage sql.NullString
	var overallScore sql.NullInt64
	var startedAt, completedAt sql.NullTime
	if err := row.Scan(&result.ID, &userUID, &result.WebsiteID, &result.URL, &result.AuditType,
		&overallScore, &result.Status, &startedAt, &completedAt, &errorMessage,
		&result.IsPublic, &result.CreatedAt); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if userUID.Valid {
		result.UserUID = userUID.String
	}
	if overallScore.Valid {
		score := int(overallScore.Int64)
		result.OverallScore = &score
	}
	if startedAt.Valid {
		result.StartedAt = &startedAt.Time
	}
	if completedAt.Valid {
		result.CompletedAt = &completedAt.Time
	}
	if errorMessage.Valid {
		result.ErrorMessage = &errorMessage.String
	}
	return &result, nil
}

// FindInFlightAuditByURL возвращает ID незавершённого аудита по нормализованному URL
// или 0, если такого аудита нет.
func (s *Storage) FindInFlightAuditByURL(ctx context.Context, url string) (int, error) {
	const op = "storage.FindInFlightAuditByURL"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id FROM audits
			  WHERE url = $1 AND status IN ($2, $3)
			  LIMIT 1`
	var id int
	err := s.DB.QueryRowContext(ctx, query, url, models.StatusPending, models.StatusRunning).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return id, nil
}

// ListAuditsByUser возвращает аудиты пользователя с пагинацией, новые первыми.
func (s *Storage) ListAuditsByUser(ctx context.Context, userUID string, limit, offset int) ([]*models.Audit, error) {
	const op = "storage.ListAuditsByUser"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, user_uid, website_id, url, audit_type, overall_score, status,
			      started_at, completed_at, error_message, is_public, created_at
			  FROM audits
			  WHERE user_uid = $1
			  ORDER BY created_at DESC
			  LIMIT $2 OFFSET $3`
	rows, err := s.DB.QueryContext(ctx, query, userUID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Audit
	for rows.Next() {
		var item models.Audit
		var uid, errorMessage sql.NullString
		var overallScore sql.NullInt64
		var startedAt, completedAt sql.NullTime
		if err := rows.Scan(&item.ID, &uid, &item.WebsiteID, &item.URL, &item.AuditType,
			&overallScore, &item.Status, &startedAt, &completedAt, &errorMessage,
			&item.IsPublic, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if uid.Valid {
			item.UserUID = uid.String
		}
		if overallScore.Valid {
			score := int(overallScore.Int64)
			item.OverallScore = &score
		}
		if startedAt.Valid {
			item.StartedAt = &startedAt.Time
		}
		if completedAt.Valid {
			item.CompletedAt = &completedAt.Time
		}
		if errorMessage.Valid {
			item.ErrorMessage = &errorMessage.String
		}
		result = append(result, &item)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// CreateAuditDetails вставляет строки результатов проверок одного аудита.
func (s *Storage) CreateAuditDetails(ctx context.Context, auditID int, details []models.AuditDetail) error {
	const op = "storage.CreateAuditDetails"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO audit_details (audit_id, category, check_name, status, score,
			      max_score, message, recommendation, technical_details, priority)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	for _, d := range details {
		var technicalDetails []byte
		if len(d.Extra) > 0 {
			var err error
			technicalDetails, err = json.Marshal(d.Extra)
			if err != nil {
				return fmt.Errorf("%s: %w", op, err)
			}
		}
		_, err := s.DB.ExecContext(ctx, query, auditID, d.Category, d.CheckName, d.Status,
			d.Score, d.MaxScore, d.Message, d.Recommendation, technicalDetails, d.Priority)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}
	return nil
}

// ListAuditDetails возвращает строки результатов проверок аудита.
func (s *Storage) ListAuditDetails(ctx context.Context, auditID int) ([]models.AuditDetail, error) {
	const op = "storage.ListAuditDetails"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, audit_id, category, check_name, status, score, max_score,
			      message, recommendation, technical_details, priority, created_at
			  FROM audit_details
			  WHERE audit_id = $1
			  ORDER BY category, check_name`
	rows, err := s.DB.QueryContext(ctx, query, auditID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []models.AuditDetail
	for rows.Next() {
		var item models.AuditDetail
		var message, recommendation sql.NullString
		var technicalDetails []byte
		if err := rows.Scan(&item.ID, &item.AuditID, &item.Category, &item.CheckName,
			&item.Status, &item.Score, &item.MaxScore, &message, &recommendation,
			&technicalDetails, &item.Priority, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		item.Message = message.String
		item.Recommendation = recommendation.String
		if len(technicalDetails) > 0 {
			if err := json.Unmarshal(technicalDetails, &item.Extra); err != nil {
				return nil, fmt.Errorf("%s: %w", op, err)
			}
		}
		result = append(result, item)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
