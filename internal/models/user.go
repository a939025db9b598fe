// Package models содержит доменную модель пользователя сервиса аудита,
// включающую тариф, месячную квоту и дату её сброса.
// Структура используется в бизнес-логике и при работе с хранилищем.
package models

import "time"

// Тарифы подписки. Лимит аудитов тарифа enterprise не ограничен.
const (
	TierFree         = "free"
	TierStarter      = "starter"
	TierProfessional = "professional"
	TierEnterprise   = "enterprise"
)

// User представляет зарегистрированного пользователя системы.
// Запись создаётся внешним сервисом регистрации; движок аудита
// изменяет только счётчик использованной квоты и дату сброса.
type User struct {
	UID               string    // Уникальный идентификатор пользователя
	Email             string    // Электронная почта (уникальная)
	Username          string    // Имя пользователя
	Role              string    // Роль пользователя, admin или user
	SubscriptionTier  string    // Тариф подписки
	MonthlyAuditLimit int       // Месячный лимит аудитов
	MonthlyAuditsUsed int       // Использовано аудитов в текущем периоде
	ResetDate         time.Time // Дата сброса счётчика
	APIKey            *string   // Ключ API, если выдан
	IsActive          bool
	CreatedAt         time.Time
}

// IsUnlimited сообщает, действует ли для пользователя месячный лимит.
func (u *User) IsUnlimited() bool {
	return u.SubscriptionTier == TierEnterprise
}
