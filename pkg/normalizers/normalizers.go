// Package normalizers provides field normalization for signal/request matching
package normalizers

import (
	"strings"
	"unicode"
)

// cyrillic transliteration used for vessel names; signals arrive with names
// in Russian while requests are frequently filed in Latin script.
var cyrMap = map[rune]string{
	'А': "A", 'Б': "B", 'В': "V", 'Г': "G", 'Д': "D", 'Е': "E", 'Ё': "E",
	'Ж': "ZH", 'З': "Z", 'И': "I", 'Й': "Y", 'К': "K", 'Л': "L", 'М': "M",
	'Н': "N", 'О': "O", 'П': "P", 'Р': "R", 'С': "S", 'Т': "T", 'У': "U",
	'Ф': "F", 'Х': "KH", 'Ц': "TS", 'Ч': "CH", 'Ш': "SH", 'Щ': "SCH",
	'Ъ': "", 'Ы': "Y", 'Ь': "", 'Э': "E", 'Ю': "YU", 'Я': "YA",
	'а': "A", 'б': "B", 'в': "V", 'г': "G", 'д': "D", 'е': "E", 'ё': "E",
	'ж': "ZH", 'з': "Z", 'и': "I", 'й': "Y", 'к': "K", 'л': "L", 'м': "M",
	'н': "N", 'о': "O", 'п': "P", 'р': "R", 'с': "S", 'т': "T", 'у': "U",
	'ф': "F", 'х': "KH", 'ц': "TS", 'ч': "CH", 'ш': "SH", 'щ': "SCH",
	'ъ': "", 'ы': "Y", 'ь': "", 'э': "E", 'ю': "YU", 'я': "YA",
}

// Terminal normalizes an SSAS/IMN/Iridium terminal number: keeps only
// latin letters and digits, uppercased. Returns "" when nothing remains.
func Terminal(s string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(strings.TrimSpace(s)) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Identifier normalizes numeric identifiers such as MMSI and IMO: digits
// only, leading zeros preserved. Returns "" when the input has no digits.
func Identifier(s string) string {
	return DigitsOnly(s)
}

// DigitsOnly keeps only digit characters
func DigitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// VesselName normalizes a vessel name for comparison:
// - Transliterate Cyrillic to Latin
// - Strip diacritics and punctuation
// - Uppercase, collapse whitespace
func VesselName(s string) string {
	s = strings.TrimSpace(s)

	var translit strings.Builder
	for _, r := range s {
		if lat, ok := cyrMap[r]; ok {
			translit.WriteString(lat)
		} else {
			translit.WriteRune(r)
		}
	}

	var b strings.Builder
	prevSpace := false
	for _, r := range strings.ToUpper(translit.String()) {
		switch {
		case (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9'):
			b.WriteRune(r)
			prevSpace = false
		case unicode.IsSpace(r) || unicode.IsPunct(r) || unicode.IsSymbol(r):
			if !prevSpace && b.Len() > 0 {
				b.WriteRune(' ')
				prevSpace = true
			}
		default:
			// combining marks and other script runes are dropped
		}
	}

	return strings.TrimSpace(b.String())
}

// LevenshteinDistance calculates the edit distance between two strings
func LevenshteinDistance(a, b string) int {
	if a == b {
		return 0
	}
	ar := []rune(a)
	br := []rune(b)
	if len(ar) == 0 {
		return len(br)
	}
	if len(br) == 0 {
		return len(ar)
	}

	row := make([]int, len(br)+1)
	prevRow := make([]int, len(br)+1)

	for j := 0; j <= len(br); j++ {
		prevRow[j] = j
	}

	for i := 1; i <= len(ar); i++ {
		row[0] = i
		for j := 1; j <= len(br); j++ {
			cost := 0
			if ar[i-1] != br[j-1] {
				cost = 1
			}
			row[j] = min(min(row[j-1]+1, prevRow[j]+1), prevRow[j-1]+cost)
		}
		row, prevRow = prevRow, row
	}

	return prevRow[len(br)]
}

// Similarity returns an edit-distance ratio between two vessel names in
// 0..1, computed on the normalized forms. Either side empty yields 0.
func Similarity(a, b string) float64 {
	na := VesselName(a)
	nb := VesselName(b)
	if na == "" || nb == "" {
		return 0
	}
	maxLen := len([]rune(na))
	if l := len([]rune(nb)); l > maxLen {
		maxLen = l
	}
	dist := LevenshteinDistance(na, nb)
	return 1 - float64(dist)/float64(maxLen)
}
