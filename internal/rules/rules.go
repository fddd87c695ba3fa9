// Package rules содержит чистые проверки бизнес-инвариантов. Функции получают
// заранее загруженные из хранилища факты и ничего не пишут; первая
// нарушенная проверка возвращается как ошибка (fail-fast).
package rules

import "github.com/Leganyst/rollcall/internal/model"

// HasRole проверяет возможности на границе API.
func HasRole(roles []model.Role, required model.Role) bool {
	for _, r := range roles {
		if r == required {
			return true
		}
	}
	return false
}
