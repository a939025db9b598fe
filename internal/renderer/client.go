// Package renderer реализует HTTP-клиент генератора файлов отчётов.
// Генератор принимает данные завершённого аудита и возвращает путь
// к сформированному файлу в общем хранилище.
package renderer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrRendererUnavailable — генератор отчётов недоступен или вернул ошибку.
var ErrRendererUnavailable = errors.New("report renderer unavailable")

type renderRequest struct {
	AuditID    int    `json:"audit_id"`
	ReportType string `json:"report_type"`
	FileName   string `json:"file_name"`
}

type renderResponse struct {
	FilePath   string `json:"file_path"`
	FileSizeKB int    `json:"file_size_kb"`
}

// Client — клиент HTTP API генератора отчётов.
type Client struct {
	apiURL     string
	httpClient *http.Client
}

// NewClient создаёт новый клиент генератора отчётов.
func NewClient(apiURL string, timeout time.Duration) *Client {
	return &Client{
		apiURL:     apiURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// RenderReport формирует файл отчёта по аудиту и возвращает путь
// к файлу и его размер в килобайтах.
func (c *Client) RenderReport(ctx context.Context, auditID int, reportType, fileName string) (string, int, error) {
	const op = "renderer.RenderReport"

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(renderRequest{
		AuditID:    auditID,
		ReportType: reportType,
		FileName:   fileName,
	}); err != nil {
		return "", 0, fmt.Errorf("%s: %w", op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL+"/v1/render", &buf)
	if err != nil {
		return "", 0, fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", 0, fmt.Errorf("%s: %w", op, ctx.Err())
		}
		return "", 0, fmt.Errorf("%s: %w", op, ErrRendererUnavailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", 0, fmt.Errorf("%s: unexpected status %s: %w", op, resp.Status, ErrRendererUnavailable)
	}

	var result renderResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", 0, fmt.Errorf("%s: %w", op, ErrRendererUnavailable)
	}
	return result.FilePath, result.FileSizeKB, nil
}
