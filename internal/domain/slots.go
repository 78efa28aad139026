package domain

import (
	"strconv"
	"strings"
	"time"
)

// SlotsPatch carries fields found in a single message. A nil field means
// "not found in this message", never "no value".
type SlotsPatch struct {
	ClientPhone *string
	ClientName  *string
	EventDate   *time.Time
	EventTime   *string // "HH:MM"
	DayOfWeek   *int    // 0=Mon..6=Sun
	KidsCount   *int
	KidsAgeMain *int
}

// SlotsState is the already-accumulated view of the same fields (usually
// the open lead).
type SlotsState struct {
	ClientPhone *string
	ClientName  *string
	EventDate   *time.Time
	EventTime   *string
	DayOfWeek   *int
	KidsCount   *int
	KidsAgeMain *int
}

var monthStems = []struct {
	stem  string
	month time.Month
}{
	{"январ", time.January},
	{"феврал", time.February},
	{"март", time.March},
	{"апрел", time.April},
	{"ма", time.May},
	{"июн", time.June},
	{"июл", time.July},
	{"август", time.August},
	{"сентябр", time.September},
	{"октябр", time.October},
	{"ноябр", time.November},
	{"декабр", time.December},
}

// ExtractSlots pulls structured fields out of free text. partyContext
// widens kid-count phrasing and enables age extraction.
func ExtractSlots(text string, partyContext bool) SlotsPatch {
	return ExtractSlotsAt(text, partyContext, time.Now())
}

// ExtractSlotsAt is ExtractSlots with an injectable clock for the
// "bare date already passed this year" rule.
func ExtractSlotsAt(text string, partyContext bool, now time.Time) SlotsPatch {
	patch := SlotsPatch{
		ClientPhone: ExtractPhone(text),
		ClientName:  ExtractName(text),
		KidsCount:   extractKidsCount(text, partyContext),
		EventTime:   extractTime(text),
	}
	if partyContext {
		patch.KidsAgeMain = extractAge(text)
	}
	patch.EventDate, patch.DayOfWeek = extractDate(text, now)
	return patch
}

// ExtractPhone finds the first phone-shaped run and normalizes it to the
// +7 international form. Anything that cannot be normalized is rejected.
func ExtractPhone(text string) *string {
	m := phoneCandidateRE.FindString(text)
	if m == "" {
		return nil
	}
	digits := nonDigitRE.ReplaceAllString(m, "")
	if digits == "" {
		return nil
	}
	if strings.HasPrefix(digits, "8") && len(digits) == 11 {
		digits = "7" + digits[1:]
	}
	if strings.HasPrefix(digits, "7") && len(digits) == 11 {
		v := "+" + digits
		return &v
	}
	if strings.HasPrefix(digits, "9") && len(digits) == 10 {
		v := "+7" + digits
		return &v
	}
	return nil
}

func extractKidsCount(text string, partyContext bool) *int {
	t := Normalize(text)
	if m := kidsCountRE.FindStringSubmatch(t); m != nil {
		if n := parseBounded(m[1]); n != nil {
			return n
		}
		return nil
	}
	if partyContext {
		if m := nasCountRE.FindStringSubmatch(t); m != nil {
			return parseBounded(m[1])
		}
	}
	return nil
}

func extractAge(text string) *int {
	t := Normalize(text)
	m := ageRE.FindStringSubmatch(t)
	if m == nil {
		return nil
	}
	return parseBounded(m[1])
}

func parseBounded(s string) *int {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 || n >= 100 {
		return nil
	}
	return &n
}

// extractDate returns an explicit date or, failing that, a day-of-week.
// The two are mutually exclusive: a day-of-week is only reported when no
// date was found.
func extractDate(text string, now time.Time) (*time.Time, *int) {
	t := Normalize(text)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	if m := dateDDMMRE.FindStringSubmatch(t); m != nil {
		day, _ := strconv.Atoi(m[1])
		mon, _ := strconv.Atoi(m[2])
		year := today.Year()
		if m[3] != "" {
			year, _ = strconv.Atoi(m[3])
			if year < 100 {
				year += 2000
			}
		}
		d, ok := buildDate(year, mon, day)
		if !ok {
			return nil, nil
		}
		return &d, nil
	}

	if m := dateDDMonthRE.FindStringSubmatch(t); m != nil {
		day, _ := strconv.Atoi(m[1])
		var mon time.Month
		for _, ms := range monthStems {
			if strings.HasPrefix(m[2], ms.stem) {
				mon = ms.month
				break
			}
		}
		if mon == 0 {
			return nil, nil
		}
		d, ok := buildDate(today.Year(), int(mon), day)
		if !ok {
			return nil, nil
		}
		if d.Before(today) {
			d, ok = buildDate(today.Year()+1, int(mon), day)
			if !ok {
				return nil, nil
			}
		}
		return &d, nil
	}

	return nil, extractDayOfWeek(t)
}

func buildDate(year, month, day int) (time.Time, bool) {
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, false
	}
	d := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	// time.Date normalizes overflow (e.g. Feb 30); treat that as invalid.
	if d.Day() != day || int(d.Month()) != month {
		return time.Time{}, false
	}
	return d, true
}

func extractDayOfWeek(textNorm string) *int {
	stems := []struct {
		stem string
		dow  int
	}{
		{"понед", 0},
		{"вторн", 1},
		{"сред", 2},
		{"четвер", 3},
		{"пятниц", 4},
		{"суббот", 5},
		{"воскрес", 6},
	}
	for _, s := range stems {
		if strings.Contains(textNorm, s.stem) {
			d := s.dow
			return &d
		}
	}
	return nil
}

func extractTime(text string) *string {
	t := Normalize(text)
	if m := timeHHMMRE.FindStringSubmatch(t); m != nil {
		h, _ := strconv.Atoi(m[1])
		mi, _ := strconv.Atoi(m[2])
		if h >= 0 && h <= 23 && mi >= 0 && mi <= 59 {
			v := twoDigit(h) + ":" + twoDigit(mi)
			return &v
		}
	}
	if m := timeWordDayRE.FindStringSubmatch(t); m != nil {
		h, _ := strconv.Atoi(m[1])
		if h >= 1 && h <= 11 {
			v := twoDigit(h+12) + ":00"
			return &v
		}
		if h == 12 {
			v := "12:00"
			return &v
		}
	}
	return nil
}

func twoDigit(n int) string {
	if n < 10 {
		return "0" + strconv.Itoa(n)
	}
	return strconv.Itoa(n)
}

// MergeSlots applies first-seen-wins: a patch field lands only where the
// existing value is empty (nil, empty string, or zero). The returned
// patch holds exactly the fields that changed.
func MergeSlots(existing SlotsState, patch SlotsPatch) SlotsPatch {
	var out SlotsPatch
	if patch.ClientPhone != nil && emptyStr(existing.ClientPhone) {
		out.ClientPhone = patch.ClientPhone
	}
	if patch.ClientName != nil && emptyStr(existing.ClientName) {
		out.ClientName = patch.ClientName
	}
	if patch.EventDate != nil && (existing.EventDate == nil || existing.EventDate.IsZero()) {
		out.EventDate = patch.EventDate
	}
	if patch.EventTime != nil && emptyStr(existing.EventTime) {
		out.EventTime = patch.EventTime
	}
	if patch.DayOfWeek != nil && emptyInt(existing.DayOfWeek) {
		out.DayOfWeek = patch.DayOfWeek
	}
	if patch.KidsCount != nil && emptyInt(existing.KidsCount) {
		out.KidsCount = patch.KidsCount
	}
	if patch.KidsAgeMain != nil && emptyInt(existing.KidsAgeMain) {
		out.KidsAgeMain = patch.KidsAgeMain
	}
	return out
}

// Applied returns existing with the patch folded in.
func (p SlotsPatch) Applied(existing SlotsState) SlotsState {
	out := existing
	if p.ClientPhone != nil {
		out.ClientPhone = p.ClientPhone
	}
	if p.ClientName != nil {
		out.ClientName = p.ClientName
	}
	if p.EventDate != nil {
		out.EventDate = p.EventDate
	}
	if p.EventTime != nil {
		out.EventTime = p.EventTime
	}
	if p.DayOfWeek != nil {
		out.DayOfWeek = p.DayOfWeek
	}
	if p.KidsCount != nil {
		out.KidsCount = p.KidsCount
	}
	if p.KidsAgeMain != nil {
		out.KidsAgeMain = p.KidsAgeMain
	}
	return out
}

func emptyStr(v *string) bool { return v == nil || *v == "" }
func emptyInt(v *int) bool    { return v == nil || *v == 0 }

// HasDateLike reports whether either an explicit date or a day-of-week
// is known; required-slot checks treat the two as interchangeable.
func (s SlotsState) HasDateLike() bool {
	return (s.EventDate != nil && !s.EventDate.IsZero()) || s.DayOfWeek != nil
}

// ComputeMissingSlots lists required slots still unsatisfied. A date
// requirement is satisfied by either a date or a day-of-week, and the
// age slot only binds for the party intent.
func ComputeMissingSlots(intent string, required []string, merged SlotsState) []string {
	missing := make([]string, 0, len(required))
	for _, slot := range required {
		switch slot {
		case SlotEventDate:
			if !merged.HasDateLike() {
				missing = append(missing, slot)
			}
		case SlotKidsCount:
			if emptyInt(merged.KidsCount) {
				missing = append(missing, slot)
			}
		case SlotKidsAgeMain:
			if emptyInt(merged.KidsAgeMain) {
				missing = append(missing, slot)
			}
		case SlotClientPhone:
			if emptyStr(merged.ClientPhone) {
				missing = append(missing, slot)
			}
		}
	}
	if intent != IntentPartyMain {
		out := missing[:0]
		for _, s := range missing {
			if s != SlotKidsAgeMain {
				out = append(out, s)
			}
		}
		missing = out
	}
	return missing
}

// ShouldCreateHandoff decides whether the lead is ready for a human:
// phone plus something date-like for lead intents, phone alone for the
// bare handoff intent.
func ShouldCreateHandoff(intent string, merged SlotsState) bool {
	phoneOK := !emptyStr(merged.ClientPhone)
	if intent == IntentHandoff {
		return phoneOK
	}
	if !IsLeadIntent(intent) {
		return false
	}
	return phoneOK && merged.HasDateLike()
}

var nameStopwords = map[string]struct{}{
	"хочу": {}, "могу": {}, "буду": {}, "будем": {}, "приду": {},
	"иду": {}, "еду": {}, "спрошу": {}, "узнаю": {}, "не": {},
	"щас": {}, "сейчас": {}, "тут": {},
}

// ExtractName picks up "меня зовут X" and bare "я X" introductions.
func ExtractName(text string) *string {
	raw := strings.TrimSpace(text)
	if raw == "" {
		return nil
	}
	if m := nameIntroRE.FindStringSubmatch(raw); m != nil {
		v := normalizeName(m[1])
		return &v
	}
	if m := nameIAmRE.FindStringSubmatch(raw); m != nil {
		if _, stop := nameStopwords[strings.ToLower(m[1])]; stop {
			return nil
		}
		v := normalizeName(m[1])
		return &v
	}
	return nil
}

func normalizeName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return name
	}
	runes := []rune(strings.ToLower(name))
	return strings.ToUpper(string(runes[0])) + string(runes[1:])
}
