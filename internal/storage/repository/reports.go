package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/seoaudit-pro/audit-engine/internal/models"
)

// CreateReport вставляет запись сформированного отчёта и возвращает её ID.
func (s *Storage) CreateReport(ctx context.Context, report models.Report) (int, error) {
	const op = "storage.CreateReport"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO reports (audit_id, user_uid, report_type, file_path, file_size_kb,
			      is_public, expires_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7)
			  RETURNING id`
	var newID int
	err := s.DB.QueryRowContext(ctx, query, report.AuditID, report.UserUID, report.ReportType,
		report.FilePath, report.FileSizeKB, report.IsPublic, report.ExpiresAt).Scan(&newID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// ReadReport возвращает отчёт по его ID.
func (s *Storage) ReadReport(ctx context.Context, id int) (*models.Report, error) {
	const op = "storage.ReadReport"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, audit_id, COALESCE(user_uid::text, ''), report_type, file_path,
			      COALESCE(file_size_kb, 0), download_count, is_public, expires_at, created_at
			  FROM reports WHERE id = $1`
	var result models.Report
	row := s.DB.QueryRowContext(ctx, query, id)
	if err := row.Scan(&result.ID, &result.AuditID, &result.UserUID, &result.ReportType,
		&result.FilePath, &result.FileSizeKB, &result.DownloadCount, &result.IsPublic,
		&result.ExpiresAt, &result.CreatedAt); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &result, nil
}

// ListReportsByUser возвращает отчёты пользователя с пагинацией, новые первыми.
func (s *Storage) ListReportsByUser(ctx context.Context, userUID string, limit, offset int) ([]*models.Report, error) {
	const op = "storage.ListReportsByUser"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, audit_id, COALESCE(user_uid::text, ''), report_type, file_path,
			      COALESCE(file_size_kb, 0), download_count, is_public, expires_at, created_at
			  FROM reports
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

	var result []*models.Report
	for rows.Next() {
		var item models.Report
		if err := rows.Scan(&item.ID, &item.AuditID, &item.UserUID, &item.ReportType,
			&item.FilePath, &item.FileSizeKB, &item.DownloadCount, &item.IsPublic,
			&item.ExpiresAt, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &item)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// IncrementDownloadCount увеличивает счётчик скачиваний отчёта.
func (s *Storage) IncrementDownloadCount(ctx context.Context, id int) error {
	const op = "storage.IncrementDownloadCount"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE reports
			  SET download_count = download_count + 1
			  WHERE id = $1`
	_, err := s.DB.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// FindReportsExpiringSoon находит отчёты, срок хранения которых истекает
// в ближайшее окно window и по которым уведомление ещё не отправлялось.
func (s *Storage) FindReportsExpiringSoon(ctx context.Context, now time.Time, window time.Duration) ([]*models.Report, error) {
	const op = "storage.FindReportsExpiringSoon"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, audit_id, COALESCE(user_uid::text, ''), report_type, file_path,
			      COALESCE(file_size_kb, 0), download_count, is_public, expires_at, created_at
			  FROM reports
			  WHERE expires_at > $1 AND expires_at <= $2 AND NOT expiry_notified`
	rows, err := s.DB.QueryContext(ctx, query, now, now.Add(window))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Report
	for rows.Next() {
		var item models.Report
		if err := rows.Scan(&item.ID, &item.AuditID, &item.UserUID, &item.ReportType,
			&item.FilePath, &item.FileSizeKB, &item.DownloadCount, &item.IsPublic,
			&item.ExpiresAt, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &item)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// MarkReportExpiryNotified отмечает, что уведомление об истечении срока
// хранения отчёта отправлено.
func (s *Storage) MarkReportExpiryNotified(ctx context.Context, id int) error {
	const op = "storage.MarkReportExpiryNotified"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE reports SET expiry_notified = TRUE WHERE id = $1`
	_, err := s.DB.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// FindExpiredReports находит отчёты с истёкшим сроком хранения.
func (s *Storage) FindExpiredReports(ctx context.Context, now time.Time) ([]*models.Report, error) {
	const op = "storage.FindExpiredReports"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, audit_id, COALESCE(user_uid::text, ''), report_type, file_path,
			      COALESCE(file_size_kb, 0), download_count, is_public, expires_at, created_at
			  FROM reports
			  WHERE expires_at <= $1`
	rows, err := s.DB.QueryContext(ctx, query, now)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Report
	for rows.Next() {
		var item models.Report
		if err := rows.Scan(&item.ID, &item.AuditID, &item.UserUID, &item.ReportType,
			&item.FilePath, &item.FileSizeKB, &item.DownloadCount, &item.IsPublic,
			&item.ExpiresAt, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &item)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
