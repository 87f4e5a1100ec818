// Package spellout renders amounts in Spanish words the way they are
// printed on receipts: "<words> con <NN>/100".
package spellout

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var belowThirty = [30]string{
	"", "uno", "dos", "tres", "cuatro", "cinco", "seis", "siete", "ocho", "nueve",
	"diez", "once", "doce", "trece", "catorce", "quince", "dieciséis", "diecisiete", "dieciocho", "diecinueve",
	"veinte", "veintiuno", "veintidós", "veintitrés", "veinticuatro", "veinticinco", "veintiséis", "veintisiete", "veintiocho", "veintinueve",
}

var tens = [10]string{
	"", "", "", "treinta", "cuarenta", "cincuenta", "sesenta", "setenta", "ochenta", "noventa",
}

var hundreds = [10]string{
	"", "ciento", "doscientos", "trescientos", "cuatrocientos", "quinientos",
	"seiscientos", "setecientos", "ochocientos", "novecientos",
}

// Amount spells the integer part and appends the two-digit cent remainder.
// The amount is rounded half away from zero to cents first.
func Amount(amount decimal.Decimal) string {
	rounded := amount.Round(2)
	prefix := ""
	if rounded.IsNegative() {
		prefix = "menos "
		rounded = rounded.Abs()
	}

	whole := rounded.Truncate(0)
	cents := rounded.Sub(whole).Shift(2).IntPart()

	return fmt.Sprintf("%s%s con %02d/100", prefix, Integer(whole.IntPart()), cents)
}

// Integer spells a non-negative integer.
func Integer(n int64) string {
	if n <= 0 {
		return "cero"
	}
	return strings.Join(spell(n, false), " ")
}

// spell returns the words for n > 0. apocope shortens a trailing "uno" to
// "un" when the group multiplies mil/millón(es).
func spell(n int64, apocope bool) []string {
	var words []string

	if millions := n / 1_000_000; millions > 0 {
		if millions == 1 {
			words = append(words, "un", "millón")
		} else {
			words = append(words, spell(millions, true)...)
			words = append(words, "millones")
		}
		n %= 1_000_000
	}

	if thousands := n / 1000; thousands > 0 {
		if thousands > 1 {
			words = append(words, spellGroup(int(thousands), true)...)
		}
		words = append(words, "mil")
		n %= 1000
	}

	if n > 0 {
		words = append(words, spellGroup(int(n), apocope)...)
	}

	return words
}

func spellGroup(n int, apocope bool) []string {
	if n == 100 {
		return []string{"cien"}
	}

	var words []string
	if h := n / 100; h > 0 {
		words = append(words, hundreds[h])
	}
	if r := n % 100; r > 0 {
		words = append(words, spellTens(r, apocope)...)
	}
	return words
}

func spellTens(n int, apocope bool) []string {
	if n < 30 {
		w := belowThirty[n]
		if apocope {
			switch n {
			case 1:
				w = "un"
			case 21:
				w = "veintiún"
			}
		}
		return []string{w}
	}

	words := []string{tens[n/10]}
	if u := n % 10; u > 0 {
		unit := belowThirty[u]
		if apocope && u == 1 {
			unit = "un"
		}
		words = append(words, "y", unit)
	}
	return words
}
