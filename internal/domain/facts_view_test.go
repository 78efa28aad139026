package domain

import (
	"strings"
	"testing"
	"time"
)

func hoursRow(dow int, open, close string) OpeningHourFact {
	return OpeningHourFact{Dow: dow, OpenTime: &open, CloseTime: &close}
}

func TestOpeningHoursTextGroupsConsecutiveDays(t *testing.T) {
	hours := []OpeningHourFact{
		hoursRow(0, "10:00", "22:00"),
		hoursRow(1, "10:00", "22:00"),
		hoursRow(2, "10:00", "22:00"),
		hoursRow(3, "10:00", "22:00"),
		hoursRow(4, "10:00", "22:00"),
		hoursRow(5, "10:00", "23:00"),
		hoursRow(6, "10:00", "23:00"),
	}
	got := OpeningHoursText(hours)
	want := "Пн–Пт 10:00–22:00, Сб–Вс 10:00–23:00"
	if got != want {
		t.Fatalf("grouped hours: want=%q got=%q", want, got)
	}
}

func TestOpeningHoursTextClosedAndNote(t *testing.T) {
	note := "по праздникам"
	hours := []OpeningHourFact{
		hoursRow(0, "10:00", "22:00"),
		{Dow: 1, IsClosed: true},
		{Dow: 2, Note: &note},
		{Dow: 3},
	}
	got := OpeningHoursText(hours)
	want := "Пн 10:00–22:00, Вт выходной, Ср по праздникам, Чт по расписанию"
	if got != want {
		t.Fatalf("mixed hours: want=%q got=%q", want, got)
	}

	if OpeningHoursText(nil) != "" {
		t.Fatalf("empty schedule must render empty")
	}
}

func TestPrimaryPhone(t *testing.T) {
	contacts := []ContactFact{
		{Type: "email", Value: "hi@junglecity.ru"},
		{Type: "phone", Value: "+7 495 000-00-01"},
		{Type: "phone", Value: "+7 495 000-00-02", IsPrimary: true},
	}
	if got := PrimaryPhone(contacts); got != "+7 495 000-00-02" {
		t.Fatalf("primary phone: got=%q", got)
	}

	contacts[2].IsPrimary = false
	if got := PrimaryPhone(contacts); got != "+7 495 000-00-01" {
		t.Fatalf("fallback to first phone: got=%q", got)
	}

	if got := PrimaryPhone(nil); got != "" {
		t.Fatalf("no contacts: got=%q", got)
	}
}

func TestValidateContacts(t *testing.T) {
	if err := ValidateContacts(nil); err != nil {
		t.Fatalf("no phones should validate: %v", err)
	}
	if err := ValidateContacts([]ContactFact{{Type: "phone", Value: "1"}}); err == nil {
		t.Fatalf("phone without a primary must fail")
	}
	if err := ValidateContacts([]ContactFact{
		{Type: "phone", Value: "1", IsPrimary: true},
		{Type: "phone", Value: "2", IsPrimary: true},
	}); err == nil {
		t.Fatalf("two primaries must fail")
	}
	if err := ValidateContacts([]ContactFact{
		{Type: "phone", Value: "1", IsPrimary: true},
		{Type: "email", Value: "a@b"},
	}); err != nil {
		t.Fatalf("one primary should validate: %v", err)
	}
}

func TestValidateOpeningHours(t *testing.T) {
	if err := ValidateOpeningHours([]OpeningHourFact{hoursRow(0, "10:00", "22:00")}); err != nil {
		t.Fatalf("valid row rejected: %v", err)
	}
	if err := ValidateOpeningHours([]OpeningHourFact{hoursRow(7, "10:00", "22:00")}); err == nil {
		t.Fatalf("dow out of range must fail")
	}
	if err := ValidateOpeningHours([]OpeningHourFact{
		hoursRow(0, "10:00", "22:00"),
		hoursRow(0, "10:00", "22:00"),
	}); err == nil {
		t.Fatalf("duplicate dow must fail")
	}
	if err := ValidateOpeningHours([]OpeningHourFact{hoursRow(0, "22:00", "10:00")}); err == nil {
		t.Fatalf("open >= close must fail")
	}
	if err := ValidateOpeningHours([]OpeningHourFact{hoursRow(0, "25:00", "26:00")}); err == nil {
		t.Fatalf("bogus time must fail")
	}
	if err := ValidateOpeningHours([]OpeningHourFact{{Dow: 0, IsClosed: true}}); err != nil {
		t.Fatalf("closed day needs no times: %v", err)
	}
	if err := ValidateOpeningHours([]OpeningHourFact{{Dow: 0}}); err == nil {
		t.Fatalf("open day without times must fail")
	}
}

func TestBuildAdminMessageMasksContactData(t *testing.T) {
	phone := "+79161234567"
	date := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
	kids, age := 8, 6
	msg := BuildAdminMessage(IntentPartyMain, "jungle", SlotsState{
		ClientPhone: &phone,
		EventDate:   &date,
		KidsCount:   &kids,
		KidsAgeMain: &age,
	}, "перезвоните мне на 89161234567")

	if !strings.Contains(msg, "🔥 Заявка: ДР (park=jungle)") {
		t.Fatalf("header wrong: %q", msg)
	}
	if !strings.Contains(msg, "Дата: 2026-01-15") {
		t.Fatalf("date line wrong: %q", msg)
	}
	if !strings.Contains(msg, "Дети: 8") || !strings.Contains(msg, "Возраст: 6") {
		t.Fatalf("kids lines wrong: %q", msg)
	}
	if strings.Contains(msg, "1234567") {
		t.Fatalf("raw phone digits leaked: %q", msg)
	}
	if !strings.Contains(msg, "Тел: +7*******67") {
		t.Fatalf("masked phone line wrong: %q", msg)
	}
}

func TestBuildAdminMessageDayOfWeekFallback(t *testing.T) {
	dow := 5
	msg := BuildAdminMessage(IntentHandoff, "jungle", SlotsState{DayOfWeek: &dow}, "хочу поговорить")
	if !strings.Contains(msg, "День недели: 5 (0=Пн..6=Вс)") {
		t.Fatalf("dow line wrong: %q", msg)
	}
	if !strings.Contains(msg, "Запрос менеджера") {
		t.Fatalf("handoff kind wrong: %q", msg)
	}
}

func TestBuildLeadSummary(t *testing.T) {
	date := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
	kids := 8
	phone := "+79161234567"
	got := BuildLeadSummary(IntentPartyMain, SlotsState{EventDate: &date, KidsCount: &kids, ClientPhone: &phone})
	want := "ДР. дата 2026-01-15. дети 8. телефон есть"
	if got != want {
		t.Fatalf("lead summary: want=%q got=%q", want, got)
	}
}

func TestPageURL(t *testing.T) {
	abs := "https://junglecity.ru/special"
	path := "/prices"
	if got := PageURL("https://junglecity.ru/", &abs, &path); got != abs {
		t.Fatalf("absolute wins: got=%q", got)
	}
	if got := PageURL("https://junglecity.ru/", nil, &path); got != "https://junglecity.ru/prices" {
		t.Fatalf("base+path: got=%q", got)
	}
	if got := PageURL("https://junglecity.ru", nil, nil); got != "" {
		t.Fatalf("no path: got=%q", got)
	}
}
