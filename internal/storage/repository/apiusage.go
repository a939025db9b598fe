package repository

import (
	"context"
	"fmt"
)

// RecordAPIUsage учитывает один запрос по ключу API: запись за текущие сутки
// создаётся или её счётчик увеличивается.
func (s *Storage) RecordAPIUsage(ctx context.Context, userUID, apiKey, endpoint string) error {
	const op = "storage.RecordAPIUsage"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO api_usage (user_uid, api_key, endpoint)
			  VALUES ($1, $2, $3)
			  ON CONFLICT (user_uid, endpoint, usage_date) DO UPDATE SET
			      request_count = api_usage.request_count + 1`
	_, err := s.DB.ExecContext(ctx, query, userUID, apiKey, endpoint)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
