package checkprovider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/seoaudit-pro/audit-engine/internal/models"
)

// Client — клиент HTTP API внешних анализаторов.
type Client struct {
	apiURL     string
	httpClient *http.Client
}

// NewClient создаёт новый клиент анализаторов.
// Таймаут клиента страхует от зависших соединений; дедлайны конкретных
// проверок задаются контекстом вызова.
func NewClient(apiURL string, timeout time.Duration) *Client {
	return &Client{
		apiURL:     apiURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	url := c.apiURL + path
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, url, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

// RunCheck выполняет проверку одной категории для указанного URL
// и возвращает нормализованный результат.
func (c *Client) RunCheck(ctx context.Context, category models.Category, target string) (*models.CheckResult, error) {
	const op = "checkprovider.RunCheck"

	req, err := c.newRequest(ctx, http.MethodPost, "/v1/checks/"+string(category), runCheckRequest{URL: target})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%s: %w", op, ctx.Err())
		}
		return nil, fmt.Errorf("%s: %w", op, ErrUnavailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s: unexpected status %s: %w", op, resp.Status, ErrUnavailable)
	}

	var result models.CheckResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("%s: %w", op, ErrUnavailable)
	}
	result.Category = category
	return &result, nil
}

// FetchPage проверяет доступность страницы перед запуском проверок.
// Возвращает ErrUnreachable, если страница не отвечает.
func (c *Client) FetchPage(ctx context.Context, target string) error {
	const op = "checkprovider.FetchPage"

	req, err := c.newRequest(ctx, http.MethodPost, "/v1/probe", runCheckRequest{URL: target})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("%s: %w", op, ctx.Err())
		}
		return fmt.Errorf("%s: %w", op, ErrUnavailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s: unexpected status %s: %w", op, resp.Status, ErrUnavailable)
	}

	var probe probeResponse
	if err := json.NewDecoder(resp.Body).Decode(&probe); err != nil {
		return fmt.Errorf("%s: %w", op, ErrUnavailable)
	}
	if !probe.Reachable {
		return fmt.Errorf("%s: status %d: %w", op, probe.StatusCode, ErrUnreachable)
	}
	return nil
}

// CategoryChecker связывает клиент анализаторов с одной категорией проверок.
// Реализует контракт Checker сервиса checkrunner.
type CategoryChecker struct {
	client   *Client
	category models.Category
}

// Checker возвращает исполнитель проверок указанной категории.
func (c *Client) Checker(category models.Category) *CategoryChecker {
	return &CategoryChecker{client: c, category: category}
}

// Category возвращает категорию исполнителя.
func (c *CategoryChecker) Category() models.Category {
	return c.category
}

// Run выполняет проверку категории для указанного URL.
func (c *CategoryChecker) Run(ctx context.Context, target string) (*models.CheckResult, error) {
	return c.client.RunCheck(ctx, c.category, target)
}
