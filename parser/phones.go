package parser

import (
	"regexp"
	"strings"
)

// whitespace is the class `\s` stands for in phonePattern. It spans the
// Unicode space separators and the BOM, not only ASCII blanks, so numbers
// split by thin or no-break spaces still match.
const whitespace = `[\t\n\v\f\r \x{a0}\x{1680}\x{2000}-\x{200a}\x{2028}\x{2029}\x{202f}\x{205f}\x{3000}\x{feff}]`

// phonePattern matches NANP-shaped numbers: optional country code, optional
// area code (bare or parenthesized), exchange, line number and an optional
// extension. The shape is kept as-is, including its known false positives
// such as 7 digit numbers without area code.
const phonePattern = `(?i)(?:(?:\+?([1-9]|[0-9][0-9]|[0-9][0-9][0-9])\s*(?:[.-]\s*)?)?(?:\(\s*([2-9]1[02-9]|[2-9][02-8]1|[2-9][02-8][02-9])\s*\)|([0-9][1-9]|[0-9]1[02-9]|[2-9][02-8]1|[2-9][02-8][02-9]))\s*(?:[.-]\s*)?)?([2-9]1[02-9]|[2-9][02-9]1|[2-9][02-9]{2})\s*(?:[.-]\s*)?([0-9]{4})(?:\s*(?:#|x\.?|ext\.?|extension)\s*(\d+))?`

var phoneRegex = regexp.MustCompile(strings.ReplaceAll(phonePattern, `\s`, whitespace))

// imageSuffixes are file extensions of image names that happen to look like numbers
var imageSuffixes = []string{".png", ".bmp", ".jpeg", ".jpg", ".gif", ".svg"}

// ExtractPhones returns the unique phone-like strings found in content, in
// order of first appearance. Matches are lower-cased. The result is never nil.
func ExtractPhones(content string) []string {
	matches := phoneRegex.FindAllString(content, -1)

	phones := make([]string, 0, len(matches))
	seen := make(map[string]bool, len(matches))

	for _, match := range matches {
		phone := strings.ToLower(match)
		if isImageName(phone) || seen[phone] {
			continue
		}
		seen[phone] = true
		phones = append(phones, phone)
	}

	return phones
}

// isImageName reports whether a lower-cased match ends with an image extension
func isImageName(s string) bool {
	for _, suffix := range imageSuffixes {
		if strings.HasSuffix(s, suffix) {
			return true
		}
	}
	return false
}
