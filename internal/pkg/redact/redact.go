package redact

import "unicode/utf8"

const tokenPlaceholder = "[REDACTED_TOKEN]"

// Token скрывает bearer/refresh токен для логов.
// Длинные токены сохраняют последние 4 символа, чтобы различать их в трассировке.
func Token(t string) string {
	if t == "" {
		return ""
	}

	if utf8.RuneCountInString(t) < 16 {
		return tokenPlaceholder
	}

	r := []rune(t)
	return tokenPlaceholder + "..." + string(r[len(r)-4:])
}

// Account маскирует номер банковского счёта, оставляя последние 4 цифры.
func Account(num string) string {
	r := []rune(num)
	if len(r) <= 4 {
		return "****"
	}

	masked := make([]rune, len(r))
	for i := range r {
		if i < len(r)-4 {
			masked[i] = '*'
			continue
		}
		masked[i] = r[i]
	}

	return string(masked)
}
