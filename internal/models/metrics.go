package models

import "time"

// SeoMetrics — структурированные показатели SEO-категории для одного аудита.
// Поля с неструктурированными данными анализатора складываются в Extra.
type SeoMetrics struct {
	ID               int            `json:"-"`
	AuditID          int            `json:"-"`
	PageTitle        string         `json:"page_title"`
	MetaDescription  string         `json:"meta_description"`
	H1Tags           []string       `json:"h1_tags"`
	H2Tags           []string       `json:"h2_tags"`
	ImagesCount      int            `json:"images_count"`
	ImagesWithoutAlt int            `json:"images_without_alt"`
	InternalLinks    int            `json:"internal_links"`
	ExternalLinks    int            `json:"external_links"`
	WordCount        int            `json:"word_count"`
	PageSizeKB       float64        `json:"page_size_kb"`
	LoadTimeMs       int            `json:"load_time_ms"`
	MobileFriendly   bool           `json:"mobile_friendly"`
	SslEnabled       bool           `json:"ssl_enabled"`
	RobotsTxtExists  bool           `json:"robots_txt_exists"`
	SitemapExists    bool           `json:"sitemap_exists"`
	CanonicalURL     string         `json:"canonical_url"`
	Extra            map[string]any `json:"extra,omitempty"`
}

// PerformanceMetrics — показатели скорости загрузки страницы (web vitals и производные баллы).
type PerformanceMetrics struct {
	ID                     int     `json:"-"`
	AuditID                int     `json:"-"`
	FirstContentfulPaint   int     `json:"first_contentful_paint"`
	LargestContentfulPaint int     `json:"largest_contentful_paint"`
	FirstInputDelay        int     `json:"first_input_delay"`
	CumulativeLayoutShift  float64 `json:"cumulative_layout_shift"`
	SpeedIndex             int     `json:"speed_index"`
	TimeToInteractive      int     `json:"time_to_interactive"`
	TotalBlockingTime      int     `json:"total_blocking_time"`
	PerformanceScore       int     `json:"performance_score"`
	AccessibilityScore     int     `json:"accessibility_score"`
	BestPracticesScore     int     `json:"best_practices_score"`
	SeoScore               int     `json:"seo_score"`
}

// SecurityScan — результат проверки безопасности: сертификат, заголовки, уязвимости.
type SecurityScan struct {
	ID              int            `json:"-"`
	AuditID         int            `json:"-"`
	SslGrade        string         `json:"ssl_grade"`
	SslExpiresAt    *time.Time     `json:"ssl_expires_at,omitempty"`
	SslCertificate  map[string]any `json:"ssl_certificate,omitempty"`
	MalwareDetected bool           `json:"malware_detected"`
	BlacklistStatus map[string]any `json:"blacklist_status,omitempty"`
	SecurityHeaders map[string]any `json:"security_headers,omitempty"`
	Vulnerabilities []string       `json:"vulnerabilities,omitempty"`
	SecurityScore   int            `json:"security_score"`
}

// SocialProfile — найденный профиль сайта в социальной сети.
type SocialProfile struct {
	ID             int     `json:"-"`
	WebsiteID      int     `json:"-"`
	Platform       string  `json:"platform"`
	ProfileURL     string  `json:"profile_url"`
	Username       string  `json:"username"`
	FollowersCount int     `json:"followers_count"`
	PostsCount     int     `json:"posts_count"`
	EngagementRate float64 `json:"engagement_rate"`
	Verified       bool    `json:"verified"`
}
