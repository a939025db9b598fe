// Package models содержит доменные структуры аудита сайта,
// а также вспомогательные типы для работы с данными из внешних источников (например, JSON-запросы).
package models

import "time"

// Category обозначает группу проверок, выполняемых в рамках аудита.
type Category string

// Поддерживаемые категории проверок.
const (
	CategorySeo         Category = "seo"
	CategoryPerformance Category = "performance"
	CategorySecurity    Category = "security"
	CategorySocial      Category = "social"
)

// AllCategories возвращает полный набор категорий в фиксированном порядке.
func AllCategories() []Category {
	return []Category{CategorySeo, CategoryPerformance, CategorySecurity, CategorySocial}
}

// AuditStatus описывает состояние жизненного цикла аудита.
type AuditStatus string

// Состояния аудита. Переходы: pending -> running -> {completed, failed, timed_out}.
const (
	StatusPending   AuditStatus = "pending"
	StatusRunning   AuditStatus = "running"
	StatusCompleted AuditStatus = "completed"
	StatusFailed    AuditStatus = "failed"
	StatusTimedOut  AuditStatus = "timed_out"
)

// IsTerminal сообщает, является ли состояние конечным.
func (s AuditStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusTimedOut
}

// Audit представляет один запрос на анализ одного URL.
// OverallScore заполняется только в состоянии completed,
// ErrorMessage — только в состояниях failed и timed_out.
type Audit struct {
	ID           int         // Идентификатор аудита
	UserUID      string      // UID пользователя, запустившего аудит
	WebsiteID    int         // Идентификатор сайта
	URL          string      // Нормализованный URL
	AuditType    string      // Тип аудита: full или перечень категорий через запятую
	OverallScore *int        // Итоговый балл 0..100
	Status       AuditStatus // Текущее состояние
	StartedAt    *time.Time  // Момент перехода в running
	CompletedAt  *time.Time  // Момент перехода в конечное состояние
	ErrorMessage *string     // Причина ошибки или таймаута
	IsPublic     bool        // Доступен ли результат по публичной ссылке
	CreatedAt    time.Time
}

// AuditDetail описывает результат одной именованной проверки.
// После создания запись не изменяется.
type AuditDetail struct {
	ID             int
	AuditID        int
	Category       Category
	CheckName      string
	Status         string // pass, fail, warning, info
	Score          int
	MaxScore       int
	Message        string
	Recommendation string
	Priority       string // low, medium, high, critical
	Extra          map[string]any
	CreatedAt      time.Time
}

// Finding — одна проверка в составе результата категории, как её возвращает внешний анализатор.
type Finding struct {
	CheckName      string         `json:"check_name"`
	Status         string         `json:"status"`
	Score          int            `json:"score"`
	MaxScore       int            `json:"max_score"`
	Message        string         `json:"message"`
	Recommendation string         `json:"recommendation,omitempty"`
	Priority       string         `json:"priority"`
	Details        map[string]any `json:"details,omitempty"`
}

// CheckResult — нормализованный результат одной категории проверок.
type CheckResult struct {
	Category Category  `json:"category"`
	Score    int       `json:"score"`
	MaxScore int       `json:"max_score"`
	Findings []Finding `json:"findings"`

	Seo         *SeoMetrics         `json:"seo_metrics,omitempty"`
	Performance *PerformanceMetrics `json:"performance_metrics,omitempty"`
	Security    *SecurityScan       `json:"security_scan,omitempty"`
	Profiles    []SocialProfile     `json:"social_profiles,omitempty"`
}

// DummySubmit используется для приёма запроса на запуск аудита из JSON.
type DummySubmit struct {
	URL       string `json:"url" validate:"required,url"` // Адрес анализируемой страницы
	AuditType string `json:"audit_type"`                  // Пусто — использовать набор категорий по умолчанию
	IsPublic  bool   `json:"is_public"`
}

// AuditSummary — представление аудита для ответа API и кеша.
type AuditSummary struct {
	ID           int           `json:"id"`
	URL          string        `json:"url"`
	AuditType    string        `json:"audit_type"`
	Status       AuditStatus   `json:"status"`
	OverallScore *int          `json:"overall_score,omitempty"`
	PartialScore *int          `json:"partial_score,omitempty"`
	ErrorMessage *string       `json:"error_message,omitempty"`
	StartedAt    *time.Time    `json:"started_at,omitempty"`
	CompletedAt  *time.Time    `json:"completed_at,omitempty"`
	Details      []AuditDetail `json:"details,omitempty"`
}
