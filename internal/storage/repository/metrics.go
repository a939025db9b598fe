package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/seoaudit-pro/audit-engine/internal/models"
)

// CreateSeoMetrics сохраняет структурированные SEO-показатели аудита.
func (s *Storage) CreateSeoMetrics(ctx context.Context, auditID int, m models.SeoMetrics) error {
	const op = "storage.CreateSeoMetrics"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	h1Tags, err := json.Marshal(m.H1Tags)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	h2Tags, err := json.Marshal(m.H2Tags)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	var extra []byte
	if len(m.Extra) > 0 {
		if extra, err = json.Marshal(m.Extra); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}

	query := `INSERT INTO seo_metrics (audit_id, page_title, meta_description, h1_tags, h2_tags,
			      images_count, images_without_alt, internal_links, external_links, word_count,
			      page_size_kb, load_time_ms, mobile_friendly, ssl_enabled, robots_txt_exists,
			      sitemap_exists, canonical_url, extra)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`
	_, err = s.DB.ExecContext(ctx, query, auditID, m.PageTitle, m.MetaDescription, h1Tags, h2Tags,
		m.ImagesCount, m.ImagesWithoutAlt, m.InternalLinks, m.ExternalLinks, m.WordCount,
		m.PageSizeKB, m.LoadTimeMs, m.MobileFriendly, m.SslEnabled, m.RobotsTxtExists,
		m.SitemapExists, m.CanonicalURL, extra)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// CreatePerformanceMetrics сохраняет показатели производительности аудита.
func (s *Storage) CreatePerformanceMetrics(ctx context.Context, auditID int, m models.PerformanceMetrics) error {
	const op = "storage.CreatePerformanceMetrics"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO performance_metrics (audit_id, first_contentful_paint,
			      largest_contentful_paint, first_input_delay, cumulative_layout_shift,
			      speed_index, time_to_interactive, total_blocking_time, performance_score,
			      accessibility_score, best_practices_score, seo_score)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	_, err := s.DB.ExecContext(ctx, query, auditID, m.FirstContentfulPaint,
		m.LargestContentfulPaint, m.FirstInputDelay, m.CumulativeLayoutShift,
		m.SpeedIndex, m.TimeToInteractive, m.TotalBlockingTime, m.PerformanceScore,
		m.AccessibilityScore, m.BestPracticesScore, m.SeoScore)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// CreateSecurityScan сохраняет результат проверки безопасности аудита.
func (s *Storage) CreateSecurityScan(ctx context.Context, auditID int, m models.SecurityScan) error {
	const op = "storage.CreateSecurityScan"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	marshal := func(v any) ([]byte, error) {
		if v == nil {
			return nil, nil
		}
		return json.Marshal(v)
	}
	sslCertificate, err := marshal(m.SslCertificate)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	blacklistStatus, err := marshal(m.BlacklistStatus)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	securityHeaders, err := marshal(m.SecurityHeaders)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	vulnerabilities, err := marshal(m.Vulnerabilities)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	query := `INSERT INTO security_scans (audit_id, ssl_certificate, ssl_grade, ssl_expires_at,
			      malware_detected, blacklist_status, security_headers, vulnerabilities, security_score)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err = s.DB.ExecContext(ctx, query, auditID, sslCertificate, m.SslGrade, m.SslExpiresAt,
		m.MalwareDetected, blacklistStatus, securityHeaders, vulnerabilities, m.SecurityScore)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
