package domain

import (
	"strings"
	"testing"
	"time"
)

func sampleFacts() FactsView {
	open, cls := "10:00", "22:00"
	return FactsView{
		Contacts: []ContactFact{{Type: "phone", Value: "+7 495 123-45-67", IsPrimary: true}},
		Location: &LocationFact{AddressText: "Москва, ул. Джунглей, 1"},
		Transport: []TransportFact{
			{Kind: "metro", Text: "Метро Лесная, выход 2"},
			{Kind: "bus", Text: "Автобус 42 до остановки Парк"},
			{Kind: "car", Text: "Парковка у входа"},
		},
		OpeningHours:     []OpeningHourFact{{Dow: 0, OpenTime: &open, CloseTime: &cls}},
		OpeningHoursText: "Пн–Вс 10:00–22:00",
		PrimaryPhone:     "+7 495 123-45-67",
	}
}

func TestBuildPlanStart(t *testing.T) {
	plan := BuildPlan(ComposeInput{Intent: IntentStart})
	text := plan.Render()
	if !strings.Contains(text, "Джуси") {
		t.Fatalf("greeting must introduce the assistant: %q", text)
	}
	if !strings.Contains(text, "Джунгли Сити") {
		t.Fatalf("greeting must name the park: %q", text)
	}
}

func TestBuildPlanContacts(t *testing.T) {
	plan := BuildPlan(ComposeInput{Intent: IntentContacts, Facts: sampleFacts()})
	text := plan.Render()
	for _, want := range []string{
		"Адрес: Москва, ул. Джунглей, 1",
		"Часы работы: Пн–Вс 10:00–22:00",
		"Как добраться:",
		"Телефон: +7 495 123-45-67",
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("contacts answer missing %q: %q", want, text)
		}
	}
	// At most two transport lines.
	if strings.Contains(text, "Парковка у входа") {
		t.Fatalf("third transport line must be dropped: %q", text)
	}
}

func TestBuildPlanContactsEmptyFacts(t *testing.T) {
	plan := BuildPlan(ComposeInput{Intent: IntentContacts})
	text := plan.Render()
	if !strings.Contains(text, "адрес или телефон") {
		t.Fatalf("empty facts must ask a narrowing question: %q", text)
	}
}

func TestBuildPlanPricesAsksDate(t *testing.T) {
	plan := BuildPlan(ComposeInput{Intent: IntentPricesTkt, UserMessage: "сколько стоит билет"})
	if len(plan.Questions) != 1 || !strings.Contains(plan.Questions[0], "дату") {
		t.Fatalf("prices without a day reference must ask for a date: %v", plan.Questions)
	}

	plan = BuildPlan(ComposeInput{Intent: IntentPricesTkt, UserMessage: "сколько стоит билет в субботу"})
	if len(plan.Questions) != 0 {
		t.Fatalf("day reference present, no date question expected: %v", plan.Questions)
	}

	plan = BuildPlan(ComposeInput{Intent: IntentPricesVR, UserMessage: "почем vr"})
	if len(plan.Questions) != 0 {
		t.Fatalf("vr prices never ask for a date: %v", plan.Questions)
	}
}

func TestBuildPlanLeadQuestionPriority(t *testing.T) {
	missing := []string{SlotEventDate, SlotKidsCount, SlotKidsAgeMain, SlotClientPhone}
	plan := BuildPlan(ComposeInput{
		Intent:       IntentPartyMain,
		Lead:         &SlotsState{},
		MissingSlots: missing,
	})
	if len(plan.Questions) != 2 {
		t.Fatalf("want 2 questions, got %v", plan.Questions)
	}
	if !strings.Contains(plan.Questions[0], "дату") {
		t.Fatalf("date question must come first: %v", plan.Questions)
	}
	if !strings.Contains(plan.Questions[1], "детей") {
		t.Fatalf("kids question must come second: %v", plan.Questions)
	}
}

func TestBuildPlanLeadColdVsEngagedPhoneAsk(t *testing.T) {
	// Cold lead: nothing known, only the phone missing would remain.
	plan := BuildPlan(ComposeInput{
		Intent:       IntentNewYearTrees,
		Lead:         &SlotsState{},
		MissingSlots: []string{SlotClientPhone},
	})
	joined := strings.Join(plan.Questions, " ")
	if strings.Contains(joined, "телефон") {
		t.Fatalf("cold lead must not be asked for a phone: %v", plan.Questions)
	}

	// Engaged lead: date known, phone missing.
	date := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
	plan = BuildPlan(ComposeInput{
		Intent:       IntentNewYearTrees,
		Lead:         &SlotsState{EventDate: &date},
		MissingSlots: []string{SlotClientPhone},
	})
	joined = strings.Join(plan.Questions, " ")
	if !strings.Contains(joined, "телефон") {
		t.Fatalf("engaged lead must be asked for a phone: %v", plan.Questions)
	}
}

func TestBuildPlanLeadSummaryLine(t *testing.T) {
	date := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
	kids := 8
	plan := BuildPlan(ComposeInput{
		Intent:       IntentPartyMain,
		Lead:         &SlotsState{EventDate: &date, KidsCount: &kids},
		MissingSlots: []string{SlotKidsAgeMain, SlotClientPhone},
	})
	text := plan.Render()
	if !strings.Contains(text, "Пока записала: дата: 2026-01-15, детей: 8.") {
		t.Fatalf("summary line missing or wrong: %q", text)
	}
}

func TestBuildPlanHandoff(t *testing.T) {
	plan := BuildPlan(ComposeInput{Intent: IntentHandoff, HandoffCreated: true})
	if !strings.Contains(plan.Render(), "Передала запрос менеджеру") {
		t.Fatalf("confirmed handoff text missing: %q", plan.Render())
	}

	plan = BuildPlan(ComposeInput{Intent: IntentHandoff})
	if len(plan.Questions) != 1 {
		t.Fatalf("pending handoff must ask for a phone: %v", plan.Questions)
	}
}

func TestBuildPlanRestaurantSanitizesRetrievedText(t *testing.T) {
	plan := BuildPlan(ComposeInput{
		Intent: IntentRestaurant,
		RAGChunks: []RetrievedChunk{
			{Text: "Пицца Маргарита 450 руб. Салат Цезарь 390 ₽."},
		},
	})
	text := plan.Render()
	if strings.Contains(text, "450") || strings.Contains(text, "390") {
		t.Fatalf("menu prices survived: %q", text)
	}
	if !strings.Contains(text, restaurantDisclaimer) {
		t.Fatalf("restaurant disclaimer missing: %q", text)
	}
}

func TestSummarizeChunks(t *testing.T) {
	long := strings.Repeat("слово ", 200)
	got := summarizeChunks([]RetrievedChunk{
		{Text: long},
		{Text: "Второй фрагмент."},
		{Text: "Третий фрагмент."},
		{Text: "Четвёртый фрагмент."},
	})
	lines := strings.Split(got, "\n")
	if len(lines) != 2 {
		t.Fatalf("want 2 snippet lines, got %d: %q", len(lines), got)
	}
	if !strings.HasSuffix(lines[0], "…") {
		t.Fatalf("long snippet must be capped with an ellipsis: %q", lines[0])
	}
	if len(lines[0]) > snippetCapChars+len("…") {
		t.Fatalf("snippet too long: %d", len(lines[0]))
	}
	if lines[1] != "Второй фрагмент." {
		t.Fatalf("second snippet wrong: %q", lines[1])
	}
}

func TestRenderAppendsLinkOnce(t *testing.T) {
	plan := AnswerPlan{
		AnswerPoints: []string{"Смотрите страницу."},
		Link:         "https://junglecity.ru/prices",
		Constraints:  DefaultConstraints(),
	}
	text := plan.Render()
	if strings.Count(text, "https://junglecity.ru/prices") != 1 {
		t.Fatalf("link must appear exactly once: %q", text)
	}

	plan.AnswerPoints = []string{"Уже есть ссылка https://junglecity.ru/prices"}
	text = plan.Render()
	if strings.Count(text, "https://") != 1 {
		t.Fatalf("link in body suppresses the trailing link: %q", text)
	}
}

func TestFactsKeysUsed(t *testing.T) {
	got := FactsKeysUsed(IntentContacts)
	if len(got) == 0 || got[0] != "contacts" {
		t.Fatalf("contacts keys: got=%v", got)
	}
	if FactsKeysUsed(IntentStart) != nil {
		t.Fatalf("start uses no facts")
	}
}
