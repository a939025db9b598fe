package models

import "time"

// Lead — контакт, собранный через публичную или встраиваемую форму аудита.
// Ссылка на породивший аудит слабая: при удалении аудита лид сохраняется.
type Lead struct {
	ID              int            `json:"id"`
	Email           string         `json:"email"`
	Source          string         `json:"source"`
	AuditID         *int           `json:"audit_id,omitempty"`
	Status          string         `json:"status"` // new, contacted, qualified, converted
	ConversionScore int            `json:"conversion_score"`
	Metadata        map[string]any `json:"metadata,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

// DummyLead используется для приёма данных формы захвата лида из JSON.
type DummyLead struct {
	Email    string         `json:"email" validate:"required,email"`
	Source   string         `json:"source" validate:"required"`
	AuditID  *int           `json:"audit_id"`
	Metadata map[string]any `json:"metadata"`
}
