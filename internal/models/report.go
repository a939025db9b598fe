package models

import "time"

// Report — сформированный файл отчёта по завершённому аудиту.
// Отчёт доступен до ExpiresAt; удаление файла выполняет внешний сборщик.
type Report struct {
	ID            int       `json:"id"`
	AuditID       int       `json:"audit_id"`
	UserUID       string    `json:"-"`
	ReportType    string    `json:"report_type"` // pdf, html или json
	FilePath      string    `json:"-"`
	FileSizeKB    int       `json:"file_size_kb"`
	DownloadCount int       `json:"download_count"`
	IsPublic      bool      `json:"is_public"`
	ExpiresAt     time.Time `json:"expires_at"`
	CreatedAt     time.Time `json:"created_at"`
}

// DummyReport используется для приёма запроса на формирование отчёта из JSON.
type DummyReport struct {
	AuditID    int    `json:"audit_id" validate:"required,gt=0"`
	ReportType string `json:"report_type" validate:"omitempty,oneof=pdf html json"`
}
