// Package aggregator вычисляет итоговый балл аудита по результатам
// категорий. Функция Aggregate чистая: одинаковые входные данные
// всегда дают одинаковый балл и одинаковый порядок деталей.
package aggregator

import (
	"math"
	"sort"

	"github.com/seoaudit-pro/audit-engine/internal/models"
)

// Aggregate сводит результаты категорий в итоговый балл 0..100
// и плоский список деталей в детерминированном порядке.
//
// Балл каждой категории нормируется к доле score/max_score, умножается
// на вес категории и суммируется; веса перенормируются по фактически
// завершившимся категориям, поэтому пропуск категории не занижает балл.
// Категории с нулевым max_score в расчёте не участвуют.
func Aggregate(results map[models.Category]*models.CheckResult, weights map[models.Category]float64) (int, []models.AuditDetail) {
	categories := make([]models.Category, 0, len(results))
	for category := range results {
		categories = append(categories, category)
	}
	sort.Slice(categories, func(i, j int) bool { return categories[i] < categories[j] })

	var weightSum float64
	for _, category := range categories {
		if results[category].MaxScore > 0 {
			weightSum += weightOf(weights, category)
		}
	}

	var score float64
	details := make([]models.AuditDetail, 0)
	for _, category := range categories {
		result := results[category]
		if result.MaxScore > 0 && weightSum > 0 {
			ratio := float64(result.Score) / float64(result.MaxScore)
			score += weightOf(weights, category) / weightSum * ratio * 100
		}
		for _, finding := range result.Findings {
			details = append(details, models.AuditDetail{
				Category:       category,
				CheckName:      finding.CheckName,
				Status:         finding.Status,
				Score:          finding.Score,
				MaxScore:       finding.MaxScore,
				Message:        finding.Message,
				Recommendation: finding.Recommendation,
				Priority:       finding.Priority,
				Extra:          finding.Details,
			})
		}
	}

	return clamp(int(math.Round(score))), details
}

// weightOf возвращает вес категории; не перечисленные в настройке
// категории получают вес 1.
func weightOf(weights map[models.Category]float64, category models.Category) float64 {
	w, ok := weights[category]
	if !ok || w <= 0 {
		return 1
	}
	return w
}

func clamp(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
