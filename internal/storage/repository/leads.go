package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/seoaudit-pro/audit-engine/internal/models"
)

// UpsertLead сохраняет лид по email: новая запись создаётся со статусом new,
// существующая обновляет источник, метаданные и оценку конверсии.
func (s *Storage) UpsertLead(ctx context.Context, lead models.Lead) (int, error) {
	const op = "storage.UpsertLead"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var metadata []byte
	if len(lead.Metadata) > 0 {
		var err error
		metadata, err = json.Marshal(lead.Metadata)
		if err != nil {
			return 0, fmt.Errorf("%s: %w", op, err)
		}
	}

	query := `INSERT INTO leads (email, source, audit_id, status, conversion_score, metadata)
			  VALUES ($1, $2, $3, $4, $5, $6)
			  ON CONFLICT (email) DO UPDATE SET
			      source = EXCLUDED.source,
			      audit_id = COALESCE(EXCLUDED.audit_id, leads.audit_id),
			      conversion_score = GREATEST(leads.conversion_score, EXCLUDED.conversion_score),
			      metadata = COALESCE(EXCLUDED.metadata, leads.metadata),
			      updated_at = NOW()
			  RETURNING id`
	var id int
	err := s.DB.QueryRowContext(ctx, query, lead.Email, lead.Source, lead.AuditID,
		lead.Status, lead.ConversionScore, metadata).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return id, nil
}

// ListLeads возвращает лиды с фильтром по статусу и пагинацией.
// Пустой статус означает все лиды.
func (s *Storage) ListLeads(ctx context.Context, status string, limit, offset int) ([]*models.Lead, error) {
	const op = "storage.ListLeads"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, email, source, audit_id, status, conversion_score, metadata,
			      created_at, updated_at
			  FROM leads
			  WHERE ($1 = '' OR status = $1)
			  ORDER BY created_at DESC
			  LIMIT $2 OFFSET $3`
	rows, err := s.DB.QueryContext(ctx, query, status, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Lead
	for rows.Next() {
		var item models.Lead
		var metadata []byte
		if err := rows.Scan(&item.ID, &item.Email, &item.Source, &item.AuditID,
			&item.Status, &item.ConversionScore, &metadata,
			&item.CreatedAt, &item.UpdatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &item.Metadata); err != nil {
				return nil, fmt.Errorf("%s: %w", op, err)
			}
		}
		result = append(result, &item)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
