package domain

import (
	"strings"
	"testing"
)

func TestNormalize(t *testing.T) {
	cases := []struct{ in, want string }{
		{"  ПривЕт  ", "привет"},
		{"Ёлки и ещё ёжики", "елки и еще ежики"},
		{"", ""},
	}
	for _, c := range cases {
		if got := Normalize(c.in); got != c.want {
			t.Fatalf("Normalize(%q): want=%q got=%q", c.in, c.want, got)
		}
	}
}

func TestMaskPhonesInFreeText(t *testing.T) {
	got := MaskPhones("позвоните на +7 916 123-45-67 после обеда")
	if strings.Contains(got, "123") {
		t.Fatalf("digits leaked: %q", got)
	}
	if !strings.HasSuffix(strings.TrimSuffix(got, " после обеда"), "67") {
		t.Fatalf("last two digits must survive: %q", got)
	}
	if !strings.Contains(got, "-") {
		t.Fatalf("separators must survive: %q", got)
	}
}

func TestMaskPhonesLeavesShortNumbersAlone(t *testing.T) {
	in := "нам 8 детей по 6 лет"
	if got := MaskPhones(in); got != in {
		t.Fatalf("short numbers changed: want=%q got=%q", in, got)
	}
}

func TestMaskPhoneNormalizedForm(t *testing.T) {
	if got := MaskPhone("+79161234567"); got != "+7*******67" {
		t.Fatalf("MaskPhone: want=%q got=%q", "+7*******67", got)
	}
	if got := MaskPhone("123"); got != "123" {
		t.Fatalf("too short to mask: want=123 got=%q", got)
	}
}
