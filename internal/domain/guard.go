package domain

import "strings"

// GuardResult reports what the final safety pass did to a reply.
type GuardResult struct {
	Text             string
	GuardApplied     bool
	ConflictDetected bool
}

// ApplyGuardrails post-processes any outgoing text, whatever produced it.
// In order: cap links to the single allowed one, cap question marks,
// redact money mentions. Money redaction is unconditional for
// price-sensitive intents and applies to other intents only when the
// answer used retrieved content.
func ApplyGuardrails(text, intent, allowedLink string, ragUsed bool) GuardResult {
	out := text
	applied := false

	capped := capLinks(out, allowedLink)
	if capped != out {
		applied = true
		out = capped
	}

	capped = capQuestionMarks(out, 2)
	if capped != out {
		applied = true
		out = capped
	}

	conflict := false
	if IsPriceSensitiveIntent(intent) || ragUsed {
		cleaned := redactMoney(out)
		if cleaned != out {
			applied = true
			conflict = true
			out = cleaned
		}
	}

	return GuardResult{Text: strings.TrimSpace(out), GuardApplied: applied, ConflictDetected: conflict}
}

// capLinks keeps at most the allowed URL: any line carrying another
// http(s) URL is dropped, a line carrying the allowed one is reduced to
// just that link.
func capLinks(text, allowedLink string) string {
	if !strings.Contains(text, "http://") && !strings.Contains(text, "https://") {
		return text
	}
	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	linkSeen := false
	for _, line := range lines {
		if !strings.Contains(line, "http://") && !strings.Contains(line, "https://") {
			out = append(out, line)
			continue
		}
		if allowedLink != "" && strings.Contains(line, allowedLink) && !linkSeen {
			out = append(out, allowedLink)
			linkSeen = true
		}
	}
	return strings.Join(out, "\n")
}

// capQuestionMarks rewrites question marks beyond max to periods,
// scanning left to right.
func capQuestionMarks(text string, max int) string {
	if strings.Count(text, "?") <= max {
		return text
	}
	var b strings.Builder
	b.Grow(len(text))
	seen := 0
	for _, ch := range text {
		if ch == '?' {
			seen++
			if seen > max {
				b.WriteRune('.')
				continue
			}
		}
		b.WriteRune(ch)
	}
	return b.String()
}

func redactMoney(text string) string {
	text = moneyWithCurrencyRE.ReplaceAllString(text, "—")
	return priceWordNumberRE.ReplaceAllString(text, "цена —")
}

// ValidatePlannerOutput checks rendered text against plan constraints
// without changing it; issues feed observability, enforcement stays in
// ApplyGuardrails.
func ValidatePlannerOutput(text string, link string, questions []string) (bool, []string) {
	var issues []string

	urls := urlRE.FindAllString(text, -1)
	if len(urls) > 1 {
		issues = append(issues, "too many links")
	}
	if link != "" {
		for _, u := range urls {
			if strings.TrimRight(u, "/") != strings.TrimRight(link, "/") {
				issues = append(issues, "forbidden link")
			}
		}
	} else if len(urls) > 0 {
		issues = append(issues, "links are not allowed")
	}

	if len(questions) > 2 {
		issues = append(issues, "too many questions in list")
	}
	if strings.Count(text, "?") > 2 {
		issues = append(issues, "too many question marks")
	}

	if moneyWithCurrencyRE.MatchString(text) || priceWordNumberRE.MatchString(text) {
		issues = append(issues, "forbidden currency usage")
	}

	if strings.Contains(strings.ToLower(text), "что вас интересует") {
		issues = append(issues, "banned phrase")
	}

	return len(issues) == 0, issues
}
