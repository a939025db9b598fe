package models

import "time"

// Website — нормализованный домен, агрегирующий статистику по всем его аудитам.
// AverageScore — скользящее среднее итоговых баллов завершённых аудитов,
// обновляется инкрементально при каждом завершении.
type Website struct {
	ID            int        `json:"id"`
	Domain        string     `json:"domain"`
	Title         string     `json:"title,omitempty"`
	Description   string     `json:"description,omitempty"`
	FaviconURL    string     `json:"favicon_url,omitempty"`
	TotalAudits   int        `json:"total_audits"`
	AverageScore  *float64   `json:"average_score,omitempty"`
	FirstAnalyzed time.Time  `json:"first_analyzed"`
	LastAnalyzed  *time.Time `json:"last_analyzed,omitempty"`
	IsActive      bool       `json:"-"`
}
