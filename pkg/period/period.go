// pkg/period/period.go
package period

import "strings"

// IsValid проверяет, что интервал поддерживается биржей.
// Регистр важен: "1m" - минута, "1M" - месяц.
func IsValid(interval string) bool {
	for _, i := range AllIntervals {
		if i == interval {
			return true
		}
	}
	return false
}

// Supported - список интервалов для сообщений об ошибках
func Supported() string {
	return strings.Join(AllIntervals, ", ")
}
