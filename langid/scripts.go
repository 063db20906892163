package langid

// runeRange is one contiguous span of codepoints belonging to a script.
type runeRange struct {
	lo, hi rune
}

// scriptRanges maps each supported language to the Unicode block(s) of its
// writing system. One data table consulted by a generic scan, instead of a
// per-language chain of character checks.
var scriptRanges = map[string][]runeRange{
	"hi": {{0x0900, 0x097F}},                 // Devanagari
	"bn": {{0x0980, 0x09FF}},                 // Bengali
	"pa": {{0x0A00, 0x0A7F}},                 // Gurmukhi
	"gu": {{0x0A80, 0x0AFF}},                 // Gujarati
	"or": {{0x0B00, 0x0B7F}},                 // Oriya
	"ta": {{0x0B80, 0x0BFF}},                 // Tamil
	"te": {{0x0C00, 0x0C7F}},                 // Telugu
	"kn": {{0x0C80, 0x0CFF}},                 // Kannada
	"ml": {{0x0D00, 0x0D7F}},                 // Malayalam
	"ur": {{0x0600, 0x06FF}, {0x0750, 0x077F}}, // Arabic + supplement
}

// scriptAliases maps languages that share a script with another supported
// language to the owner of that script's range entry. Marathi text is
// Devanagari, so an oracle guess of "mr" is corroborated by the "hi" ranges.
var scriptAliases = map[string]string{
	"mr": "hi",
	"ne": "hi",
}

// Supported lists the languages the engine understands, fallback language
// first.
var Supported = []string{"en", "hi", "ta", "te", "bn", "gu", "kn", "ml", "pa", "mr", "or", "ur"}

// DefaultLanguage is the baseline when no script matches: plain Latin text.
const DefaultLanguage = "en"

// IsSupported reports whether code is one of the engine's languages.
func IsSupported(code string) bool {
	for _, c := range Supported {
		if c == code {
			return true
		}
	}
	return false
}

// scanScripts counts, per language, how many runes of text fall in that
// language's script ranges. Latin letters are counted separately since they
// carry no script signal beyond the English baseline.
func scanScripts(text string) (counts map[string]int, latin int) {
	counts = make(map[string]int)
	for _, r := range text {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
			latin++
			continue
		}
		for lang, ranges := range scriptRanges {
			for _, rr := range ranges {
				if r >= rr.lo && r <= rr.hi {
					counts[lang]++
					break
				}
			}
		}
	}
	return counts, latin
}

// dominantScript returns the language whose script matched the most runes.
func dominantScript(counts map[string]int) (string, int) {
	best, bestCount := "", 0
	for lang, n := range counts {
		if n > bestCount || (n == bestCount && lang < best) {
			best, bestCount = lang, n
		}
	}
	return best, bestCount
}

// scriptMatches reports whether any rune of the scanned text belongs to the
// script of code, following aliases for shared scripts.
func scriptMatches(code string, counts map[string]int) bool {
	if owner, ok := scriptAliases[code]; ok {
		code = owner
	}
	return counts[code] > 0
}
