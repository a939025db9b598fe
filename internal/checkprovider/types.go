// Package checkprovider реализует HTTP-клиент к внешним анализаторам,
// выполняющим проверки категорий (seo, performance, security, social),
// и к зонду доступности страницы.
package checkprovider

import "errors"

// Ошибки клиента внешних анализаторов.
var (
	// ErrUnavailable — анализатор недоступен или вернул некорректный ответ.
	ErrUnavailable = errors.New("check backend unavailable")
	// ErrUnreachable — анализируемая страница недоступна.
	ErrUnreachable = errors.New("target unreachable")
)

// Запрос на выполнение проверки категории.
type runCheckRequest struct {
	URL string `json:"url"`
}

// Ответ зонда доступности страницы.
type probeResponse struct {
	Reachable  bool   `json:"reachable"`
	StatusCode int    `json:"status_code"`
	Title      string `json:"title,omitempty"`
	FaviconURL string `json:"favicon_url,omitempty"`
}
