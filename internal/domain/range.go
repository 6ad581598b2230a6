package domain

import (
	"regexp"
	"strconv"
	"strings"
)

// BracketRange is the numeric interval implied by a bracket title.
// Open-ended titles ("200+") use 2× the bound as a synthetic upper edge so
// the midpoint stays usable for proximity ranking.
type BracketRange struct {
	Low  float64
	High float64
}

// Midpoint devuelve el centro del intervalo.
func (r BracketRange) Midpoint() float64 {
	return (r.Low + r.High) / 2
}

// Title patterns, tried in order. Numbers accept $, thousands commas and
// K/M suffixes. The "to" of the span pattern must be word-bounded so that
// "together" or "Toronto" never parse as a range.
const numPat = `\$?([0-9][0-9,]*(?:\.[0-9]+)?)\s*([KkMm])?`

var (
	atMostRe  = regexp.MustCompile(`(?:≤|<|(?i:\bunder\b|\bbelow\b|\bless than\b|\bfewer than\b|\bat most\b))\s*` + numPat)
	atLeastRe = regexp.MustCompile(`(?:≥|>|(?i:\bover\b|\babove\b|\bmore than\b|\bat least\b))\s*` + numPat)
	plusRe    = regexp.MustCompile(numPat + `\s*\+`)
	spanRe    = regexp.MustCompile(numPat + `\s*(?:-|–|—|(?i:\bto\b))\s*` + numPat)
)

// ParseRange extrae el rango numérico de un título de bracket.
// "≤31F" → (0, 31); "200+" → (200, 400); "$100K-$150K" → (100000, 150000).
// Devuelve false si el título no codifica ningún rango.
func ParseRange(title string) (BracketRange, bool) {
	if m := atMostRe.FindStringSubmatch(title); m != nil {
		if v, ok := parseScaled(m[1], m[2]); ok {
			return BracketRange{Low: 0, High: v}, true
		}
	}
	if m := atLeastRe.FindStringSubmatch(title); m != nil {
		if v, ok := parseScaled(m[1], m[2]); ok {
			return BracketRange{Low: v, High: 2 * v}, true
		}
	}
	if m := plusRe.FindStringSubmatch(title); m != nil {
		if v, ok := parseScaled(m[1], m[2]); ok {
			return BracketRange{Low: v, High: 2 * v}, true
		}
	}
	if m := spanRe.FindStringSubmatch(title); m != nil {
		lo, okLo := parseScaled(m[1], m[2])
		hi, okHi := parseScaled(m[3], m[4])
		if okLo && okHi {
			if lo > hi {
				lo, hi = hi, lo
			}
			return BracketRange{Low: lo, High: hi}, true
		}
	}
	return BracketRange{}, false
}

// parseScaled convierte "150" + "K" → 150000.
func parseScaled(num, suffix string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.ReplaceAll(num, ",", ""), 64)
	if err != nil {
		return 0, false
	}
	switch strings.ToUpper(suffix) {
	case "K":
		v *= 1e3
	case "M":
		v *= 1e6
	}
	return v, true
}
