package command

import (
	"regexp"
	"strconv"
	"strings"
)

var numberWords = map[string]int{
	"zéro": 0, "un": 1, "une": 1, "deux": 2, "trois": 3, "quatre": 4, "cinq": 5,
	"six": 6, "sept": 7, "huit": 8, "neuf": 9, "dix": 10, "onze": 11, "douze": 12,
	"treize": 13, "quatorze": 14, "quinze": 15, "seize": 16, "vingt": 20, "vingts": 20,
	"trente": 30, "quarante": 40, "cinquante": 50, "soixante": 60,
	"cent": 100, "cents": 100, "mille": 1000,
}

var (
	spokenDecimal = regexp.MustCompile(`(\d+) virgule (\d+)`)
	decimalComma  = regexp.MustCompile(`(\d+),(\d+)\b`)
	// "12 euros 50" is read as 12.50 when the cents close the utterance.
	trailingCents = regexp.MustCompile(`(\d+)\s*(?:€|euros?) (\d{1,2})$`)
)

func isNumberWord(w string) bool {
	_, ok := numberWords[w]
	return ok
}

func isCurrency(w string) bool {
	return w == "€" || w == "euro" || w == "euros"
}

// wordsValue evaluates a run of French number words such as
// "quatre vingt dix" or "deux cent cinquante".
func wordsValue(words []string) int {
	total, current := 0, 0
	for _, w := range words {
		switch w {
		case "cent", "cents":
			if current == 0 {
				current = 1
			}
			current *= 100
		case "mille":
			if current == 0 {
				current = 1
			}
			total += current * 1000
			current = 0
		case "vingt", "vingts":
			if current%100 == 4 {
				current += 76
			} else {
				current += 20
			}
		default:
			current += numberWords[w]
		}
	}
	return total + current
}

// splitHyphens breaks "quatre-vingt-dix" apart while leaving hyphenated
// words that are not numbers untouched.
func splitHyphens(tokens []string) []string {
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		parts := strings.Split(t, "-")
		if len(parts) == 1 {
			out = append(out, t)
			continue
		}
		numeric := true
		for _, p := range parts {
			if !isNumberWord(p) && p != "et" {
				numeric = false
				break
			}
		}
		if numeric {
			out = append(out, parts...)
		} else {
			out = append(out, t)
		}
	}
	return out
}

// normalize lowercases an utterance, turns spoken numbers into digits and
// writes every decimal separator as a dot.
func normalize(utterance string) string {
	s := strings.ToLower(strings.TrimSpace(utterance))
	s = strings.ReplaceAll(s, "’", "'")
	tokens := splitHyphens(strings.Fields(s))

	out := make([]string, 0, len(tokens))
	for i := 0; i < len(tokens); {
		if !isNumberWord(tokens[i]) {
			out = append(out, tokens[i])
			i++
			continue
		}
		run := make([]string, 0, 4)
		j := i
		for j < len(tokens) {
			if isNumberWord(tokens[j]) {
				run = append(run, tokens[j])
				j++
				continue
			}
			if tokens[j] == "et" && j+1 < len(tokens) && isNumberWord(tokens[j+1]) {
				j++
				continue
			}
			break
		}
		// "un café" keeps its article unless a currency follows.
		if len(run) == 1 && (run[0] == "un" || run[0] == "une") && (j >= len(tokens) || !isCurrency(tokens[j])) {
			out = append(out, run[0])
		} else {
			out = append(out, strconv.Itoa(wordsValue(run)))
		}
		i = j
	}

	s = strings.Join(out, " ")
	s = spokenDecimal.ReplaceAllString(s, "$1.$2")
	s = decimalComma.ReplaceAllString(s, "$1.$2")
	s = trailingCents.ReplaceAllString(s, "$1.$2 €")
	return s
}
