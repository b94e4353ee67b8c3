package services

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

var (
	onesMasculine = []string{"", "один", "два", "три", "четыре", "пять", "шесть", "семь", "восемь", "девять"}
	onesFeminine  = []string{"", "одна", "две", "три", "четыре", "пять", "шесть", "семь", "восемь", "девять"}
	teens         = []string{"десять", "одиннадцать", "двенадцать", "тринадцать", "четырнадцать",
		"пятнадцать", "шестнадцать", "семнадцать", "восемнадцать", "девятнадцать"}
	tens     = []string{"", "", "двадцать", "тридцать", "сорок", "пятьдесят", "шестьдесят", "семьдесят", "восемьдесят", "девяносто"}
	hundreds = []string{"", "сто", "двести", "триста", "четыреста", "пятьсот", "шестьсот", "семьсот", "восемьсот", "девятьсот"}
)

// scale is a power of a thousand with its grammatical gender and the three
// plural forms (1, 2–4, 5+).
type scale struct {
	value    int64
	feminine bool
	forms    [3]string
}

var scales = []scale{
	{1_000_000_000, false, [3]string{"миллиард", "миллиарда", "миллиардов"}},
	{1_000_000, false, [3]string{"миллион", "миллиона", "миллионов"}},
	{1_000, true, [3]string{"тысяча", "тысячи", "тысяч"}},
}

// AmountInWords spells a rouble amount for printed offers. Kopecks stay in
// digits. 1200.50 → "Одна тысяча двести рублей 50 копеек"
func AmountInWords(amount decimal.Decimal) string {
	prefix := ""
	if amount.IsNegative() {
		prefix = "минус "
		amount = amount.Neg()
	}
	amount = amount.Round(2)

	rubles := amount.IntPart()
	kopecks := amount.Sub(decimal.NewFromInt(rubles)).Mul(hundred).IntPart()

	words := integerWords(rubles)
	if words == "" {
		words = "ноль"
	}
	result := fmt.Sprintf("%s%s %s %02d %s",
		prefix, words, pluralForm(rubles, [3]string{"рубль", "рубля", "рублей"}),
		kopecks, pluralForm(kopecks, [3]string{"копейка", "копейки", "копеек"}))
	return capitalize(result)
}

func integerWords(n int64) string {
	var parts []string
	for _, s := range scales {
		if n >= s.value {
			group := n / s.value
			n %= s.value
			parts = append(parts, underThousand(group, s.feminine), pluralForm(group, s.forms))
		}
	}
	if n > 0 {
		parts = append(parts, underThousand(n, false))
	}
	return strings.Join(strings.Fields(strings.Join(parts, " ")), " ")
}

// underThousand spells 1..999. Groups above a billion are spelled
// recursively.
func underThousand(n int64, feminine bool) string {
	if n >= 1000 {
		return integerWords(n)
	}
	ones := onesMasculine
	if feminine {
		ones = onesFeminine
	}

	var parts []string
	if h := n / 100; h > 0 {
		parts = append(parts, hundreds[h])
	}
	rest := n % 100
	switch {
	case rest >= 10 && rest < 20:
		parts = append(parts, teens[rest-10])
	default:
		if t := rest / 10; t > 0 {
			parts = append(parts, tens[t])
		}
		if o := rest % 10; o > 0 {
			parts = append(parts, ones[o])
		}
	}
	return strings.Join(parts, " ")
}

// pluralForm picks the Russian noun form for n.
func pluralForm(n int64, forms [3]string) string {
	n %= 100
	if n >= 11 && n <= 14 {
		return forms[2]
	}
	switch n % 10 {
	case 1:
		return forms[0]
	case 2, 3, 4:
		return forms[1]
	default:
		return forms[2]
	}
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
