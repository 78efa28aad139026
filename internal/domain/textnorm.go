package domain

import "strings"

// Normalize lowercases, trims, and folds the ё homoglyph so the rule
// cascades and stem matchers see one canonical spelling.
func Normalize(text string) string {
	text = strings.ToLower(strings.TrimSpace(text))
	return strings.ReplaceAll(text, "ё", "е")
}

// MaskPhones masks every phone-shaped digit run in free text, keeping
// separators and the last two digits. Used for transcripts, event-log
// payloads and admin previews.
func MaskPhones(text string) string {
	return phoneCandidateRE.ReplaceAllStringFunc(text, func(raw string) string {
		digits := nonDigitRE.ReplaceAllString(raw, "")
		if len(digits) < 7 {
			return raw
		}
		masked := strings.Repeat("*", len(digits)-2) + digits[len(digits)-2:]
		var b strings.Builder
		i := 0
		for _, ch := range raw {
			if ch >= '0' && ch <= '9' {
				b.WriteByte(masked[i])
				i++
			} else {
				b.WriteRune(ch)
			}
		}
		return b.String()
	})
}

// MaskPhone masks a single normalized phone value.
func MaskPhone(phone string) string {
	digits := nonDigitRE.ReplaceAllString(phone, "")
	if len(digits) < 4 {
		return phone
	}
	keepLast := digits[len(digits)-2:]
	if strings.HasPrefix(digits, "7") && len(digits) == 11 {
		return "+7" + strings.Repeat("*", 7) + keepLast
	}
	return strings.Repeat("*", len(digits)-2) + keepLast
}
