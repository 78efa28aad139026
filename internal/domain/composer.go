package domain

import (
	"fmt"
	"strings"
	"time"
)

// FactsView is the read-only facts snapshot the composer consumes; it is
// the same shape whether it came from live tables or a published version.
type FactsView struct {
	Contacts         []ContactFact           `json:"contacts"`
	Location         *LocationFact           `json:"location,omitempty"`
	OpeningHours     []OpeningHourFact       `json:"opening_hours"`
	Transport        []TransportFact         `json:"transport"`
	SitePages        map[string]SitePageFact `json:"site_pages"`
	LegalDocuments   []LegalDocumentFact     `json:"legal_documents"`
	Promotions       []PromotionFact         `json:"promotions"`
	FAQ              []FAQFact               `json:"faq"`
	OpeningHoursText string                  `json:"opening_hours_text"`
	PrimaryPhone     string                  `json:"primary_phone"`
}

type ContactFact struct {
	Type      string `json:"type"`
	Value     string `json:"value"`
	IsPrimary bool   `json:"is_primary"`
}

type LocationFact struct {
	AddressText string   `json:"address_text"`
	City        *string  `json:"city,omitempty"`
	Lat         *float64 `json:"lat,omitempty"`
	Lon         *float64 `json:"lon,omitempty"`
}

type OpeningHourFact struct {
	Dow       int     `json:"dow"`
	OpenTime  *string `json:"open_time,omitempty"`
	CloseTime *string `json:"close_time,omitempty"`
	IsClosed  bool    `json:"is_closed"`
	Note      *string `json:"note,omitempty"`
}

type TransportFact struct {
	Kind string `json:"kind"`
	Text string `json:"text"`
}

type SitePageFact struct {
	Key         string  `json:"key"`
	Path        *string `json:"path,omitempty"`
	AbsoluteURL *string `json:"absolute_url,omitempty"`
}

type LegalDocumentFact struct {
	Key         string  `json:"key"`
	Title       string  `json:"title"`
	Path        *string `json:"path,omitempty"`
	AbsoluteURL *string `json:"absolute_url,omitempty"`
}

type PromotionFact struct {
	Key       string     `json:"key"`
	Title     string     `json:"title"`
	Text      string     `json:"text"`
	ValidFrom *time.Time `json:"valid_from,omitempty"`
	ValidTo   *time.Time `json:"valid_to,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

type FAQFact struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
	IsActive bool   `json:"is_active"`
}

// RetrievedChunk is one ranked knowledge-base hit.
type RetrievedChunk struct {
	Score     float64
	SourceURL string
	Title     string
	ChunkID   string
	Text      string
}

// ComposeInput bundles everything a single answer depends on.
type ComposeInput struct {
	Intent         string
	Facts          FactsView
	Link           string
	UserMessage    string
	Lead           *SlotsState
	MissingSlots   []string
	HandoffCreated bool
	RAGChunks      []RetrievedChunk
}

const restaurantDisclaimer = "Меню на сайте носит информационный характер (не оферта); точные цены и состав уточняются у администратора."

const snippetCapChars = 420

// FactsKeysUsed names the facts categories an intent's answer reads,
// for the facts_used observability event.
func FactsKeysUsed(intent string) []string {
	switch intent {
	case IntentContacts:
		return []string{"contacts", "location", "opening_hours", "transport", "site_pages"}
	case IntentRules:
		return []string{"site_pages", "legal_documents"}
	case IntentStart, IntentClarify:
		return nil
	case IntentFallback:
		return nil
	default:
		return []string{"site_pages"}
	}
}

// BuildPlan builds the deterministic per-intent answer plan.
func BuildPlan(in ComposeInput) AnswerPlan {
	plan := AnswerPlan{
		Intent:      in.Intent,
		Link:        in.Link,
		Constraints: DefaultConstraints(),
	}

	switch in.Intent {
	case IntentStart:
		plan.AnswerPoints = []string{
			"Привет! Я Джуси — помощник парка «Джунгли Сити» 🐒🌴",
			"Могу подсказать:\n• адрес и как добраться\n• график работы\n• цены и билеты\n• дни рождения/выпускные\n• ресторан и меню\n• правила посещения",
			"Напиши просто вопрос, например:\n«Как до вас добраться?»\n«Сколько стоит билет?»\n«Хочу день рождения на 15 января, 8 детей по 6 лет»",
			"С чего начнём? 🙂",
		}

	case IntentClarify:
		plan.AnswerPoints = []string{
			"Ой, извини — я слишком сухо ответил 🙈",
			"Напиши, что тебе нужно, как будто пишешь администратору: «цены», «как добраться», «график», «день рождения», «меню», «правила».",
			"Я сразу отвечу и дам ссылку, если надо.",
		}

	case IntentContacts:
		plan.AnswerPoints = composeContacts(in.Facts)

	case IntentRules:
		if len(in.RAGChunks) > 0 {
			plan.AnswerPoints = []string{summarizeChunks(in.RAGChunks)}
		} else {
			plan.AnswerPoints = []string{"У нас есть правила посещения (безопасность, возрастные ограничения и т.п.). Подробности на странице."}
		}

	case IntentPricesTkt, IntentPricesVR, IntentPromotions, IntentGiftCards:
		plan.AnswerPoints = []string{"Подробная информация по этому вопросу — на странице."}
		if in.Intent == IntentPricesTkt || in.Intent == IntentPromotions {
			if !mentionsDayReference(in.UserMessage) {
				plan.Questions = append(plan.Questions, "На какую дату планируете визит?")
			}
		}

	case IntentPartyMain, IntentGraduation, IntentNewYearTrees:
		points, questions := composeLead(in.Intent, in.Lead, in.MissingSlots)
		plan.AnswerPoints = points
		plan.Questions = questions

	case IntentHandoff:
		if in.HandoffCreated {
			plan.AnswerPoints = []string{"Спасибо! Передала запрос менеджеру, с вами свяжутся по указанному номеру."}
		} else {
			plan.AnswerPoints = []string{"Поняла. Чтобы передать менеджеру и уточнить детали, напишите номер телефона для связи."}
			plan.Questions = append(plan.Questions, "Напишите, пожалуйста, номер телефона для связи.")
		}

	case IntentPoster, IntentAttractions, IntentRestaurant:
		if len(in.RAGChunks) > 0 {
			text := summarizeChunks(in.RAGChunks)
			if in.Intent == IntentRestaurant {
				text = restaurantSafe(text)
			}
			plan.AnswerPoints = []string{text}
		} else {
			plan.AnswerPoints = []string{"Подробности и актуальная информация — на странице."}
		}

	default:
		plan.AnswerPoints = []string{
			"Понял! Чтобы помочь точнее — это про:\n• цены/билеты\n• как добраться/контакты\n• график работы\n• праздник/бронь\n• правила или ресторан?",
			"Напиши одним словом или сразу вопрос 🙂",
		}
		plan.Questions = append(plan.Questions, "Что именно интересует?")
	}

	return plan
}

func composeContacts(facts FactsView) []string {
	var points []string
	if facts.Location != nil && facts.Location.AddressText != "" {
		points = append(points, "Адрес: "+facts.Location.AddressText)
	}
	if facts.OpeningHoursText != "" {
		points = append(points, "Часы работы: "+facts.OpeningHoursText)
	}
	var transport []string
	for _, t := range facts.Transport {
		if t.Text != "" {
			transport = append(transport, t.Text)
		}
	}
	if len(transport) > 0 {
		points = append(points, "Как добраться:")
		for i, line := range transport {
			if i == 2 {
				break
			}
			points = append(points, "- "+line)
		}
	}
	if facts.PrimaryPhone != "" {
		points = append(points, "Телефон: "+facts.PrimaryPhone)
	}
	if len(points) == 0 {
		points = []string{"Подскажите, что именно из контактов нужно: адрес или телефон?"}
	}
	return points
}

var leadIntros = map[string]string{
	IntentPartyMain:    "Можем помочь с праздником — уточню пару деталей и подберём вариант.",
	IntentGraduation:   "По выпускному уточню пару деталей — и предложу формат.",
	IntentNewYearTrees: "По новогодним ёлкам/утренникам уточню пару деталей — и предложу варианты.",
}

func composeLead(intent string, lead *SlotsState, missing []string) ([]string, []string) {
	intro, ok := leadIntros[intent]
	if !ok {
		intro = "Уточню пару деталей."
	}

	var summaryParts []string
	if lead != nil {
		if lead.EventDate != nil && !lead.EventDate.IsZero() {
			summaryParts = append(summaryParts, "дата: "+lead.EventDate.Format("2006-01-02"))
		} else if lead.DayOfWeek != nil {
			summaryParts = append(summaryParts, "день недели указан")
		}
		if lead.KidsCount != nil && *lead.KidsCount > 0 {
			summaryParts = append(summaryParts, fmt.Sprintf("детей: %d", *lead.KidsCount))
		}
		if lead.KidsAgeMain != nil && *lead.KidsAgeMain > 0 && intent == IntentPartyMain {
			summaryParts = append(summaryParts, fmt.Sprintf("возраст: %d", *lead.KidsAgeMain))
		}
		if lead.ClientPhone != nil && *lead.ClientPhone != "" {
			summaryParts = append(summaryParts, "телефон: есть")
		}
	}

	points := []string{intro}
	if len(summaryParts) > 0 {
		points = append(points, "Пока записала: "+strings.Join(summaryParts, ", ")+".")
	}

	missingSet := make(map[string]bool, len(missing))
	for _, m := range missing {
		missingSet[m] = true
	}

	var questions []string
	askDate := func() {
		questions = append(questions, "На какую дату планируете мероприятие? (можно день/месяц или день недели)")
	}
	if missingSet[SlotEventDate] {
		askDate()
	}
	if missingSet[SlotKidsCount] && len(questions) < 2 {
		questions = append(questions, "Сколько будет детей?")
	}
	if missingSet[SlotKidsAgeMain] && len(questions) < 2 && intent == IntentPartyMain {
		questions = append(questions, "Какой возраст детей (примерно)?")
	}
	if missingSet[SlotClientPhone] && len(questions) < 2 {
		// Cold leads get a date question instead of a contact request.
		engaged := lead != nil && (lead.HasDateLike() || (lead.KidsCount != nil && *lead.KidsCount > 0))
		if engaged {
			questions = append(questions, "Чтобы закрепить бронь и уточнить детали, напишите номер телефона для связи.")
		} else if len(questions) < 2 && !missingSet[SlotEventDate] {
			askDate()
		}
	}

	return points, questions
}

var dayReferenceNeedles = []string{
	"сегодня", "завтра", "выходн", "будн", "суббот", "воскрес",
	"пятниц", "понедел", "вторник", "сред", "четверг",
}

func mentionsDayReference(message string) bool {
	return hasAny(Normalize(message), dayReferenceNeedles...)
}

func summarizeChunks(chunks []RetrievedChunk) string {
	var parts []string
	for i, c := range chunks {
		if i == 3 {
			break
		}
		snippet := strings.Join(strings.Fields(c.Text), " ")
		if len(snippet) > snippetCapChars {
			snippet = trimAtWordBoundary(snippet, snippetCapChars) + "…"
		}
		if snippet != "" {
			parts = append(parts, snippet)
		}
	}
	if len(parts) == 0 {
		return "Подробности и актуальная информация — на странице."
	}
	if len(parts) > 2 {
		parts = parts[:2]
	}
	return strings.Join(parts, "\n")
}

func trimAtWordBoundary(s string, capChars int) string {
	if len(s) <= capChars {
		return s
	}
	cut := capChars
	// don't split a multi-byte rune
	for cut > 0 && !isRuneStart(s[cut]) {
		cut--
	}
	trimmed := s[:cut]
	if idx := strings.LastIndex(trimmed, " "); idx > 0 {
		trimmed = trimmed[:idx]
	}
	return trimmed
}

func isRuneStart(b byte) bool { return b&0xC0 != 0x80 }

func restaurantSafe(text string) string {
	text = moneyWithCurrencyRE.ReplaceAllString(text, "—")
	text = priceWordNumberRE.ReplaceAllString(text, "цена —")
	if strings.Contains(strings.ToLower(text), strings.ToLower(restaurantDisclaimer)) {
		return text
	}
	return text + "\n" + restaurantDisclaimer
}
