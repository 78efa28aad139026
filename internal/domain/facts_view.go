package domain

import (
	"fmt"
	"strings"

	"github.com/jucity/ai-manager-backend/internal/apierr"
)

var dayShortNames = [7]string{"Пн", "Вт", "Ср", "Чт", "Пт", "Сб", "Вс"}

// OpeningHoursText renders the weekly schedule with consecutive
// identical days grouped ("Пн–Пт 10:00–22:00, Сб–Вс 10:00–23:00").
func OpeningHoursText(hours []OpeningHourFact) string {
	if len(hours) == 0 {
		return ""
	}

	type daySpan struct {
		dow int
		val string
	}
	normalized := make([]daySpan, 0, len(hours))
	for _, h := range hours {
		switch {
		case h.IsClosed:
			normalized = append(normalized, daySpan{h.Dow, "выходной"})
		case h.OpenTime != nil && h.CloseTime != nil:
			normalized = append(normalized, daySpan{h.Dow, *h.OpenTime + "–" + *h.CloseTime})
		case h.Note != nil && *h.Note != "":
			normalized = append(normalized, daySpan{h.Dow, *h.Note})
		default:
			normalized = append(normalized, daySpan{h.Dow, "по расписанию"})
		}
	}

	type group struct {
		start, end int
		val        string
	}
	var groups []group
	cur := group{normalized[0].dow, normalized[0].dow, normalized[0].val}
	for _, d := range normalized[1:] {
		if d.val == cur.val && d.dow == cur.end+1 {
			cur.end = d.dow
			continue
		}
		groups = append(groups, cur)
		cur = group{d.dow, d.dow, d.val}
	}
	groups = append(groups, cur)

	parts := make([]string, 0, len(groups))
	for _, g := range groups {
		if g.start == g.end {
			parts = append(parts, dayName(g.start)+" "+g.val)
		} else {
			parts = append(parts, dayName(g.start)+"–"+dayName(g.end)+" "+g.val)
		}
	}
	return strings.Join(parts, ", ")
}

func dayName(dow int) string {
	if dow >= 0 && dow < 7 {
		return dayShortNames[dow]
	}
	return fmt.Sprintf("%d", dow)
}

// PrimaryPhone picks the phone marked primary, else the first phone.
func PrimaryPhone(contacts []ContactFact) string {
	first := ""
	for _, c := range contacts {
		if c.Type != "phone" || c.Value == "" {
			continue
		}
		if c.IsPrimary {
			return c.Value
		}
		if first == "" {
			first = c.Value
		}
	}
	return first
}

// ValidateContacts enforces the primary-phone invariant: when any phone
// contact exists, exactly one must be marked primary.
func ValidateContacts(contacts []ContactFact) error {
	phones := 0
	primaries := 0
	for _, c := range contacts {
		if c.Type != "phone" {
			continue
		}
		phones++
		if c.IsPrimary {
			primaries++
		}
	}
	if phones > 0 && primaries != 1 {
		return apierr.Invalid("exactly 1 primary phone is required when phone contacts exist")
	}
	return nil
}

// ValidateOpeningHours rejects duplicate or out-of-range days and
// open>=close entries unless the day is marked closed.
func ValidateOpeningHours(hours []OpeningHourFact) error {
	seen := make(map[int]bool, len(hours))
	for _, h := range hours {
		if h.Dow < 0 || h.Dow > 6 {
			return apierr.Invalid("dow must be 0..6")
		}
		if seen[h.Dow] {
			return apierr.Invalid("duplicate dow %d", h.Dow)
		}
		seen[h.Dow] = true
		if h.IsClosed {
			continue
		}
		if h.OpenTime == nil || h.CloseTime == nil {
			return apierr.Invalid("open_time and close_time are required when is_closed=false")
		}
		if err := validateHHMM(*h.OpenTime); err != nil {
			return err
		}
		if err := validateHHMM(*h.CloseTime); err != nil {
			return err
		}
		if *h.OpenTime >= *h.CloseTime {
			return apierr.Invalid("open_time must be < close_time")
		}
	}
	return nil
}

func validateHHMM(v string) error {
	if len(v) != 5 || v[2] != ':' {
		return apierr.Invalid("time must be HH:MM, got %q", v)
	}
	for _, c := range []byte{v[0], v[1], v[3], v[4]} {
		if c < '0' || c > '9' {
			return apierr.Invalid("time must be HH:MM, got %q", v)
		}
	}
	hh := int(v[0]-'0')*10 + int(v[1]-'0')
	mm := int(v[3]-'0')*10 + int(v[4]-'0')
	if hh > 23 || mm > 59 {
		return apierr.Invalid("time must be HH:MM, got %q", v)
	}
	return nil
}

var intentKindLabels = map[string]string{
	IntentPartyMain:    "ДР",
	IntentGraduation:   "Выпускной",
	IntentNewYearTrees: "Ёлки",
	IntentHandoff:      "Запрос менеджера",
}

// BuildAdminMessage renders the masked staff notification for a handoff.
func BuildAdminMessage(intent, parkSlug string, slots SlotsState, lastUserMessage string) string {
	kind, ok := intentKindLabels[intent]
	if !ok {
		kind = intent
	}

	parts := []string{fmt.Sprintf("🔥 Заявка: %s (park=%s)", kind, parkSlug)}
	if slots.EventDate != nil && !slots.EventDate.IsZero() {
		parts = append(parts, "Дата: "+slots.EventDate.Format("2006-01-02"))
	} else if slots.DayOfWeek != nil {
		parts = append(parts, fmt.Sprintf("День недели: %d (0=Пн..6=Вс)", *slots.DayOfWeek))
	}
	if slots.KidsCount != nil && *slots.KidsCount > 0 {
		parts = append(parts, fmt.Sprintf("Дети: %d", *slots.KidsCount))
	}
	if slots.KidsAgeMain != nil && *slots.KidsAgeMain > 0 && intent == IntentPartyMain {
		parts = append(parts, fmt.Sprintf("Возраст: %d", *slots.KidsAgeMain))
	}
	if slots.ClientPhone != nil && *slots.ClientPhone != "" {
		parts = append(parts, "Тел: "+MaskPhone(*slots.ClientPhone))
	}
	parts = append(parts, "Комментарий: "+truncateRunes(MaskPhones(lastUserMessage), 200))
	return strings.Join(parts, "\n")
}

// BuildLeadSummary maintains the short human-readable lead line shown
// in admin listings.
func BuildLeadSummary(intent string, slots SlotsState) string {
	var parts []string
	if intent != "" {
		label, ok := intentKindLabels[intent]
		if !ok {
			label = intent
		}
		parts = append(parts, label)
	}
	if slots.EventDate != nil && !slots.EventDate.IsZero() {
		parts = append(parts, "дата "+slots.EventDate.Format("2006-01-02"))
	} else if slots.DayOfWeek != nil {
		parts = append(parts, fmt.Sprintf("день недели %d", *slots.DayOfWeek))
	}
	if slots.KidsCount != nil && *slots.KidsCount > 0 {
		parts = append(parts, fmt.Sprintf("дети %d", *slots.KidsCount))
	}
	if slots.KidsAgeMain != nil && *slots.KidsAgeMain > 0 {
		parts = append(parts, fmt.Sprintf("возраст %d", *slots.KidsAgeMain))
	}
	if slots.ClientPhone != nil && *slots.ClientPhone != "" {
		parts = append(parts, "телефон есть")
	}
	return strings.Join(parts, ". ")
}

// PageURL resolves a site page to an absolute URL, preferring the
// explicit absolute_url over base_url+path.
func PageURL(baseURL string, absoluteURL, path *string) string {
	if absoluteURL != nil && *absoluteURL != "" {
		return *absoluteURL
	}
	if path == nil || *path == "" {
		return ""
	}
	return strings.TrimRight(baseURL, "/") + "/" + strings.TrimLeft(*path, "/")
}

func truncateRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
