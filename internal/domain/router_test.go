package domain

import (
	"reflect"
	"testing"
)

func TestRouteStartCommand(t *testing.T) {
	for _, msg := range []string{"/start", "/start jungle", "/help"} {
		res := Route(msg)
		if res.Intent != IntentStart {
			t.Fatalf("Route(%q).Intent: want=%q got=%q", msg, IntentStart, res.Intent)
		}
		if res.Confidence != 1.0 {
			t.Fatalf("Route(%q).Confidence: want=1.0 got=%v", msg, res.Confidence)
		}
	}
}

func TestRouteClarify(t *testing.T) {
	for _, msg := range []string{"в смысле", "не понял", "это как??"} {
		res := Route(msg)
		if res.Intent != IntentClarify {
			t.Fatalf("Route(%q).Intent: want=%q got=%q", msg, IntentClarify, res.Intent)
		}
	}
}

func TestRouteRuleOrder(t *testing.T) {
	// Contacts come before prices in the cascade, so a mixed message
	// routes to contacts.
	res := Route("Сколько стоит билет и как добраться?")
	if res.Intent != IntentContacts {
		t.Fatalf("mixed message intent: want=%q got=%q", IntentContacts, res.Intent)
	}

	// Rules come before restaurant.
	res = Route("Можно ли к вам со своей едой?")
	if res.Intent != IntentRules {
		t.Fatalf("rules-vs-restaurant intent: want=%q got=%q", IntentRules, res.Intent)
	}
}

func TestRouteIntents(t *testing.T) {
	cases := []struct {
		msg    string
		intent string
		mode   string
	}{
		{"Какой у вас адрес?", IntentContacts, ModeConsult},
		{"Позовите администратора", IntentHandoff, ModeHandoff},
		{"Что в ресторане в меню?", IntentRestaurant, ModeConsult},
		{"Какая афиша на выходные?", IntentPoster, ModeConsult},
		{"Какие есть аттракционы?", IntentAttractions, ModeConsult},
		{"Сколько стоит билет?", IntentPricesTkt, ModeConsult},
		{"Почем VR?", IntentPricesVR, ModeConsult},
		{"Есть ли акции?", IntentPromotions, ModeConsult},
		{"Хочу подарочный сертификат", IntentGiftCards, ModeConsult},
		{"Хочу день рождения для дочки", IntentPartyMain, ModeLead},
		{"Планируем выпускной", IntentGraduation, ModeLead},
		{"Записаться на утренник", IntentNewYearTrees, ModeLead},
		{"Какие правила посещения?", IntentRules, ModeLegal},
		{"мяу", IntentFallback, ModeConsult},
	}
	for _, c := range cases {
		res := Route(c.msg)
		if res.Intent != c.intent {
			t.Fatalf("Route(%q).Intent: want=%q got=%q", c.msg, c.intent, res.Intent)
		}
		if res.Mode != c.mode {
			t.Fatalf("Route(%q).Mode: want=%q got=%q", c.msg, c.mode, res.Mode)
		}
	}
}

func TestRouteRequiredSlots(t *testing.T) {
	cases := []struct {
		msg  string
		want []string
	}{
		{"хочу день рождения", []string{SlotEventDate, SlotKidsCount, SlotKidsAgeMain, SlotClientPhone}},
		{"хочу выпускной", []string{SlotEventDate, SlotKidsCount, SlotClientPhone}},
		{"запишите на елки", []string{SlotEventDate, SlotClientPhone}},
		{"нужен менеджер", []string{SlotClientPhone}},
		{"какой адрес", nil},
	}
	for _, c := range cases {
		res := Route(c.msg)
		if !reflect.DeepEqual(res.RequiredSlots, c.want) {
			t.Fatalf("Route(%q).RequiredSlots: want=%v got=%v", c.msg, c.want, res.RequiredSlots)
		}
	}
}

func TestRouteDeterministic(t *testing.T) {
	msg := "Хочу день рождения 15 января, нас 8 детей"
	first := Route(msg)
	for i := 0; i < 5; i++ {
		if got := Route(msg); !reflect.DeepEqual(got, first) {
			t.Fatalf("Route not deterministic: first=%+v got=%+v", first, got)
		}
	}
}
