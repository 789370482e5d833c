package core

import (
	"strconv"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var amountPrinter = message.NewPrinter(language.English)

// FormatAmount renders m with a currency label and grouped thousands, e.g. "RWF 1,234.50".
func FormatAmount(currency string, m Money) string {
	sign := ""
	cents := m.Cents
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	units := amountPrinter.Sprintf("%v", number.Decimal(cents/100, number.Scale(0)))
	s := sign + units + "." + twoDigits(cents%100)
	if currency == "" {
		return s
	}
	return currency + " " + s
}

func twoDigits(n int64) string {
	if n < 10 {
		return "0" + strconv.FormatInt(n, 10)
	}
	return strconv.FormatInt(n, 10)
}
