// Package settings загружает настройки движка из таблицы system_settings
// в неизменяемый снимок. Компоненты получают Provider через конструктор
// и читают актуальный снимок методом Current; перечитывание таблицы
// выполняется только явным вызовом Reload.
package settings

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/seoaudit-pro/audit-engine/internal/models"
)

// Ключи таблицы system_settings, распознаваемые движком.
const (
	KeyMaxFreeAudits      = "max_free_audits_per_month"
	KeyAuditTimeout       = "audit_timeout_seconds"
	KeyCheckTimeout       = "check_timeout_seconds"
	KeyReportRetention    = "report_retention_days"
	KeyDefaultAuditChecks = "default_audit_checks"
	KeyCategoryWeights    = "category_weights"
	KeyEnableRegistration = "enable_registration"
	KeyMaintenanceMode    = "maintenance_mode"
)

// Snapshot — неизменяемый срез настроек движка на момент загрузки.
type Snapshot struct {
	MaxFreeAuditsPerMonth int
	AuditTimeout          time.Duration
	CheckTimeout          time.Duration
	ReportRetentionDays   int
	DefaultAuditChecks    []models.Category
	CategoryWeights       map[models.Category]float64
	EnableRegistration    bool
	MaintenanceMode       bool
}

// Repository описывает доступ к таблице system_settings.
type Repository interface {
	ListSettings(ctx context.Context) (map[string]string, error)
}

// Provider хранит текущий снимок настроек и умеет его перечитывать.
type Provider struct {
	repo Repository
	cur  atomic.Pointer[Snapshot]
}

// NewProvider создает Provider и выполняет первоначальную загрузку.
func NewProvider(ctx context.Context, repo Repository) (*Provider, error) {
	p := &Provider{repo: repo}
	if err := p.Reload(ctx); err != nil {
		return nil, err
	}
	return p, nil
}

// Current возвращает актуальный снимок настроек.
func (p *Provider) Current() *Snapshot {
	return p.cur.Load()
}

// Reload перечитывает таблицу system_settings и атомарно подменяет снимок.
func (p *Provider) Reload(ctx context.Context) error {
	const op = "settings.Reload"

	raw, err := p.repo.ListSettings(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	snap := defaults()
	snap.MaxFreeAuditsPerMonth = intValue(raw, KeyMaxFreeAudits, snap.MaxFreeAuditsPerMonth)
	snap.AuditTimeout = time.Duration(intValue(raw, KeyAuditTimeout, int(snap.AuditTimeout/time.Second))) * time.Second
	snap.CheckTimeout = time.Duration(intValue(raw, KeyCheckTimeout, int(snap.CheckTimeout/time.Second))) * time.Second
	snap.ReportRetentionDays = intValue(raw, KeyReportRetention, snap.ReportRetentionDays)
	snap.EnableRegistration = boolValue(raw, KeyEnableRegistration, snap.EnableRegistration)
	snap.MaintenanceMode = boolValue(raw, KeyMaintenanceMode, snap.MaintenanceMode)

	if v, ok := raw[KeyDefaultAuditChecks]; ok {
		checks := parseCategories(v)
		if len(checks) > 0 {
			snap.DefaultAuditChecks = checks
		}
	}
	if v, ok := raw[KeyCategoryWeights]; ok {
		var weights map[models.Category]float64
		if err := json.Unmarshal([]byte(v), &weights); err == nil && len(weights) > 0 {
			snap.CategoryWeights = weights
		}
	}

	p.cur.Store(&snap)
	return nil
}

func defaults() Snapshot {
	return Snapshot{
		MaxFreeAuditsPerMonth: 5,
		AuditTimeout:          120 * time.Second,
		CheckTimeout:          30 * time.Second,
		ReportRetentionDays:   90,
		DefaultAuditChecks:    models.AllCategories(),
		CategoryWeights: map[models.Category]float64{
			models.CategorySeo:         1,
			models.CategoryPerformance: 1,
			models.CategorySecurity:    1,
			models.CategorySocial:      1,
		},
		EnableRegistration: true,
		MaintenanceMode:    false,
	}
}

func intValue(raw map[string]string, key string, def int) int {
	v, ok := raw[key]
	if !ok {
		return def
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return def
	}
	return n
}

func boolValue(raw map[string]string, key string, def bool) bool {
	v, ok := raw[key]
	if !ok {
		return def
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		return def
	}
	return b
}

func parseCategories(v string) []models.Category {
	var result []models.Category
	for _, part := range strings.Split(v, ",") {
		part = strings.TrimSpace(strings.ToLower(part))
		switch models.Category(part) {
		case models.CategorySeo, models.CategoryPerformance, models.CategorySecurity, models.CategorySocial:
			result = append(result, models.Category(part))
		}
	}
	return result
}
