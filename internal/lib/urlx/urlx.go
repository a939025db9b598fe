// Package urlx реализует нормализацию URL, по которой движок аудита
// группирует аудиты и удерживает правило "не более одного незавершённого
// аудита на один адрес".
package urlx

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrInvalidURL возвращается для адресов, которые нельзя аудировать.
var ErrInvalidURL = errors.New("invalid url")

// Normalize приводит адрес к каноническому виду: схема и хост в нижнем
// регистре, отброшены фрагмент и стандартный порт, убран завершающий слэш
// пустого пути. Адрес без схемы считается https.
func Normalize(raw string) (string, error) {
	const op = "urlx.Normalize"

	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("%s: %w", op, ErrInvalidURL)
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, ErrInvalidURL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("%s: %w", op, ErrInvalidURL)
	}
	if u.Hostname() == "" || !strings.Contains(u.Hostname(), ".") {
		return "", fmt.Errorf("%s: %w", op, ErrInvalidURL)
	}

	u.Host = strings.ToLower(u.Host)
	if u.Scheme == "https" && u.Port() == "443" || u.Scheme == "http" && u.Port() == "80" {
		u.Host = u.Hostname()
	}
	u.Fragment = ""
	if u.Path == "/" {
		u.Path = ""
	}
	return u.String(), nil
}

// Domain возвращает домен нормализованного URL для статистики сайтов.
// Префикс www отбрасывается, чтобы www.example.com и example.com
// считались одним сайтом.
func Domain(normalized string) string {
	u, err := url.Parse(normalized)
	if err != nil {
		return ""
	}
	host := strings.ToLower(u.Hostname())
	return strings.TrimPrefix(host, "www.")
}
