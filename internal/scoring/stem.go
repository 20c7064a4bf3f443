package scoring

import "strings"

// Stem implements a condensed version of the Porter stemming algorithm
// (Porter, 1980), used by Layer 1's stem-equivalence check. No pack
// dependency provides a stemmer — SQLite's own `porter` FTS5 tokenizer is
// baked into modernc.org/sqlite's C translation and not callable as a
// standalone Go function, so this is a deliberate stdlib-only fallback
// (see DESIGN.md).
func Stem(word string) string {
	w := strings.ToLower(word)
	if len(w) <= 2 {
		return w
	}

	w = step1a(w)
	w = step1b(w)
	w = step1c(w)
	w = step2(w)
	w = step3(w)
	w = step4(w)
	w = step5(w)
	return w
}

func isVowel(b byte) bool {
	switch b {
	case 'a', 'e', 'i', 'o', 'u':
		return true
	}
	return false
}

// consonantAt reports whether the byte at i is a consonant, treating 'y'
// as a consonant only when not preceded by another consonant.
func consonantAt(w string, i int) bool {
	c := w[i]
	if isVowel(c) {
		return false
	}
	if c == 'y' {
		if i == 0 {
			return true
		}
		return !consonantAt(w, i-1)
	}
	return true
}

// measure counts the number of consonant-vowel sequence groups (the
// Porter algorithm's "m").
func measure(w string) int {
	n := 0
	i := 0
	for i < len(w) && consonantAt(w, i) {
		i++
	}
	for i < len(w) {
		for i < len(w) && !consonantAt(w, i) {
			i++
		}
		if i >= len(w) {
			break
		}
		for i < len(w) && consonantAt(w, i) {
			i++
		}
		n++
	}
	return n
}

func containsVowel(w string) bool {
	for i := range w {
		if !consonantAt(w, i) {
			return true
		}
	}
	return false
}

func endsDoubleConsonant(w string) bool {
	n := len(w)
	if n < 2 {
		return false
	}
	return w[n-1] == w[n-2] && consonantAt(w, n-1)
}

// cvc reports whether w ends in consonant-vowel-consonant, where the final
// consonant is not w, x, or y.
func cvc(w string) bool {
	n := len(w)
	if n < 3 {
		return false
	}
	if !consonantAt(w, n-3) || consonantAt(w, n-2) || !consonantAt(w, n-1) {
		return false
	}
	switch w[n-1] {
	case 'w', 'x', 'y':
		return false
	}
	return true
}

func step1a(w string) string {
	switch {
	case strings.HasSuffix(w, "sses"):
		return w[:len(w)-2]
	case strings.HasSuffix(w, "ies"):
		return w[:len(w)-2]
	case strings.HasSuffix(w, "ss"):
		return w
	case strings.HasSuffix(w, "s") && len(w) > 1:
		return w[:len(w)-1]
	}
	return w
}

func step1b(w string) string {
	switch {
	case strings.HasSuffix(w, "eed"):
		stem := w[:len(w)-3]
		if measure(stem) > 0 {
			return stem + "ee"
		}
		return w
	case strings.HasSuffix(w, "ed"):
		stem := w[:len(w)-2]
		if containsVowel(stem) {
			return step1bCleanup(stem)
		}
	case strings.HasSuffix(w, "ing"):
		stem := w[:len(w)-3]
		if containsVowel(stem) {
			return step1bCleanup(stem)
		}
	}
	return w
}

func step1bCleanup(stem string) string {
	switch {
	case strings.HasSuffix(stem, "at"), strings.HasSuffix(stem, "bl"), strings.HasSuffix(stem, "iz"):
		return stem + "e"
	case endsDoubleConsonant(stem) && !strings.HasSuffix(stem, "l") && !strings.HasSuffix(stem, "s") && !strings.HasSuffix(stem, "z"):
		return stem[:len(stem)-1]
	case measure(stem) == 1 && cvc(stem):
		return stem + "e"
	}
	return stem
}

func step1c(w string) string {
	if strings.HasSuffix(w, "y") && len(w) > 1 && containsVowel(w[:len(w)-1]) {
		return w[:len(w)-1] + "i"
	}
	return w
}

var step2Suffixes = []struct{ suffix, replacement string }{
	{"ational", "ate"}, {"tional", "tion"}, {"enci", "ence"}, {"anci", "ance"},
	{"izer", "ize"}, {"abli", "able"}, {"alli", "al"}, {"entli", "ent"},
	{"eli", "e"}, {"ousli", "ous"}, {"ization", "ize"}, {"ation", "ate"},
	{"ator", "ate"}, {"alism", "al"}, {"iveness", "ive"}, {"fulness", "ful"},
	{"ousness", "ous"}, {"aliti", "al"}, {"iviti", "ive"}, {"biliti", "ble"},
}

func step2(w string) string {
	for _, s := range step2Suffixes {
		if strings.HasSuffix(w, s.suffix) {
			stem := w[:len(w)-len(s.suffix)]
			if measure(stem) > 0 {
				return stem + s.replacement
			}
			return w
		}
	}
	return w
}

var step3Suffixes = []struct{ suffix, replacement string }{
	{"icate", "ic"}, {"ative", ""}, {"alize", "al"}, {"iciti", "ic"},
	{"ical", "ic"}, {"ful", ""}, {"ness", ""},
}

func step3(w string) string {
	for _, s := range step3Suffixes {
		if strings.HasSuffix(w, s.suffix) {
			stem := w[:len(w)-len(s.suffix)]
			if measure(stem) > 0 {
				return stem + s.replacement
			}
			return w
		}
	}
	return w
}

var step4Suffixes = []string{
	"al", "ance", "ence", "er", "ic", "able", "ible", "ant", "ement", "ment",
	"ent", "ou", "ism", "ate", "iti", "ous", "ive", "ize",
}

func step4(w string) string {
	for _, suf := range step4Suffixes {
		if !strings.HasSuffix(w, suf) {
			continue
		}
		stem := w[:len(w)-len(suf)]
		if measure(stem) > 1 {
			return stem
		}
		return w
	}
	if strings.HasSuffix(w, "ion") {
		stem := w[:len(w)-3]
		if (strings.HasSuffix(stem, "s") || strings.HasSuffix(stem, "t")) && measure(stem) > 1 {
			return stem
		}
	}
	return w
}

func step5(w string) string {
	if strings.HasSuffix(w, "e") {
		stem := w[:len(w)-1]
		m := measure(stem)
		if m > 1 || (m == 1 && !cvc(stem)) {
			w = stem
		}
	}
	if strings.HasSuffix(w, "ll") && measure(w[:len(w)-1]) > 1 {
		w = w[:len(w)-1]
	}
	return w
}
