package domain

import "strings"

const (
	IntentStart        = "start"
	IntentClarify      = "clarify"
	IntentContacts     = "contacts"
	IntentRules        = "rules"
	IntentHandoff      = "handoff"
	IntentRestaurant   = "restaurant"
	IntentPoster       = "poster"
	IntentAttractions  = "attractions"
	IntentPricesTkt    = "prices_tickets"
	IntentPricesVR     = "prices_vr"
	IntentPromotions   = "promotions"
	IntentGiftCards    = "gift_cards"
	IntentPartyMain    = "party_main"
	IntentGraduation   = "graduation"
	IntentNewYearTrees = "new_year_trees"
	IntentFallback     = "fallback"
)

const (
	ModeConsult = "consult_mode"
	ModeLead    = "lead_mode"
	ModeHandoff = "handoff_mode"
	ModeLegal   = "legal_mode"
)

const (
	SlotEventDate   = "event_date"
	SlotKidsCount   = "kids_count"
	SlotKidsAgeMain = "kids_age_main"
	SlotClientPhone = "client_phone"
)

type RouteResult struct {
	Intent        string
	Mode          string
	Confidence    float64
	LinkIntent    string
	RequiredSlots []string
}

type routeRule struct {
	intent     string
	linkIntent string
	needles    []string
}

// Ordered priority list; first match wins. The order is a compatibility
// contract with the existing rule cascade, do not re-sort.
var routeRules = []routeRule{
	{intent: IntentContacts, linkIntent: "contact", needles: []string{
		"контакт", "телефон", "адрес", "как добрат", "как доехать", "проехать",
		"где вы", "часы работы", "время работы", "режим работы", "график", "работаете",
	}},
	{intent: IntentRules, linkIntent: "rules", needles: []string{"правила", "можно", "нельзя", "запрещ"}},
	{intent: IntentHandoff, linkIntent: "rules", needles: []string{
		"администратор", "оператор", "менеджер", "человек", "свяжитесь", "позвоните", "жалоб", "верните деньги",
	}},
	{intent: IntentRestaurant, linkIntent: "restaurant", needles: []string{"ресторан", "меню", "еда", "кафе"}},
	{intent: IntentPoster, linkIntent: "poster", needles: []string{"афиша", "мероприят"}},
	{intent: IntentAttractions, linkIntent: "attractions", needles: []string{"аттракцион", "что есть", "развлечен"}},
	{intent: IntentPricesTkt, linkIntent: "prices_tickets", needles: []string{"цены", "сколько стоит", "билет", "билеты", "стоимость"}},
	{intent: IntentPricesVR, linkIntent: "prices_vr", needles: []string{"vr", "виртуаль"}},
	{intent: IntentPromotions, linkIntent: "promotions", needles: []string{"акци", "скидк", "промокод"}},
	{intent: IntentGiftCards, linkIntent: "gift_cards", needles: []string{"сертификат", "подарочн"}},
	{intent: IntentPartyMain, linkIntent: "party_main", needles: []string{"д/р", "день рождения", "праздник", "детский праздник"}},
	{intent: IntentGraduation, linkIntent: "graduation", needles: []string{"выпускной"}},
	{intent: IntentNewYearTrees, linkIntent: "new_year_trees", needles: []string{"елки", "утренник", "новый год"}},
}

// Route classifies a raw message. Pure: identical input always yields an
// identical result.
func Route(message string) RouteResult {
	raw := strings.TrimSpace(message)
	rawLower := strings.ToLower(raw)
	text := Normalize(message)

	intent := IntentFallback
	linkIntent := ""

	switch {
	case rawLower == "/help" || strings.HasPrefix(rawLower, "/start"):
		intent = IntentStart
	case hasAny(text, "в смысле", "не понял", "что?", "чего", "поясни") || strings.Contains(raw, "??"):
		intent = IntentClarify
	default:
		for _, rule := range routeRules {
			if hasAny(text, rule.needles...) {
				intent = rule.intent
				linkIntent = rule.linkIntent
				break
			}
		}
	}

	var mode string
	var required []string
	switch intent {
	case IntentPartyMain:
		mode = ModeLead
		required = []string{SlotEventDate, SlotKidsCount, SlotKidsAgeMain, SlotClientPhone}
	case IntentGraduation:
		mode = ModeLead
		required = []string{SlotEventDate, SlotKidsCount, SlotClientPhone}
	case IntentNewYearTrees:
		mode = ModeLead
		required = []string{SlotEventDate, SlotClientPhone}
	case IntentHandoff:
		mode = ModeHandoff
		required = []string{SlotClientPhone}
	case IntentRules:
		mode = ModeLegal
	default:
		mode = ModeConsult
	}

	confidence := 0.7
	if intent == IntentStart || intent == IntentClarify {
		confidence = 1.0
	}

	return RouteResult{
		Intent:        intent,
		Mode:          mode,
		Confidence:    confidence,
		LinkIntent:    linkIntent,
		RequiredSlots: required,
	}
}

func hasAny(text string, needles ...string) bool {
	for _, n := range needles {
		if strings.Contains(text, n) {
			return true
		}
	}
	return false
}

// IsLeadIntent reports whether the intent collects an event booking.
func IsLeadIntent(intent string) bool {
	switch intent {
	case IntentPartyMain, IntentGraduation, IntentNewYearTrees:
		return true
	}
	return false
}

// IsPriceSensitiveIntent marks intents whose replies must never carry
// money amounts.
func IsPriceSensitiveIntent(intent string) bool {
	switch intent {
	case IntentPricesTkt, IntentPricesVR, IntentPromotions, IntentGiftCards:
		return true
	}
	return false
}

// IsRetrievalIntent marks intents answered from the knowledge base.
func IsRetrievalIntent(intent string) bool {
	switch intent {
	case IntentRules, IntentAttractions, IntentRestaurant, IntentPoster:
		return true
	}
	return false
}
