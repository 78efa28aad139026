package domain

import "regexp"

// Shared matchers, compiled once per process. All of them run over text
// that went through Normalize (lowercased, ё folded to е), except the
// phone patterns which also work on raw input.
var (
	phoneCandidateRE = regexp.MustCompile(`(?:\+?\d)[\d\s\-()]{6,}\d`)
	nonDigitRE       = regexp.MustCompile(`\D`)

	timeHHMMRE = regexp.MustCompile(`(\d{1,2})[:.](\d{2})`)
	dateDDMMRE = regexp.MustCompile(`(\d{1,2})[./](\d{1,2})(?:[./](\d{2,4}))?`)

	dateDDMonthRE = regexp.MustCompile(`(\d{1,2})\s*(январ[яь]|феврал[яь]|март[а]?|апрел[яь]|ма[йя]|июн[яь]|июл[яь]|август[а]?|сентябр[яь]|октябр[яь]|ноябр[яь]|декабр[яь])`)

	// RE2 has no unicode-aware \b, so the word stems carry their own
	// delimiter alternatives.
	kidsCountRE   = regexp.MustCompile(`(\d{1,2})\s*(?:дет|реб[её]н|ребят|чел(?:[.,;:!?)]|\s|$))`)
	ageRE         = regexp.MustCompile(`(\d{1,2})\s*(?:лет|года|год|л(?:[.,;:!?)]|\s|$))`)
	nasCountRE    = regexp.MustCompile(`(?:^|[^а-яa-z0-9])нас\s+(\d{1,2})\b`)
	timeWordDayRE = regexp.MustCompile(`(?:^|[^а-яa-z0-9])в\s*(\d{1,2})\s*дня`)

	moneyWithCurrencyRE = regexp.MustCompile(`(?i)\d[\d\s]*(?:[.,]\d+)?\s*(?:₽|руб(?:лей|ля)?\.?|р\.)`)
	priceWordNumberRE   = regexp.MustCompile(`(?i)(?:цена|стоимость)\s*(?:от\s*)?\d[\d\s]*(?:[.,]\d+)?`)

	urlRE = regexp.MustCompile(`https?://[^\s]+`)

	nameIntroRE = regexp.MustCompile(`(?i)меня\s+зовут\s+([а-яёa-z]+)`)
	nameIAmRE   = regexp.MustCompile(`(?i)^я\s+([а-яёa-z]+)\s*$`)
)
