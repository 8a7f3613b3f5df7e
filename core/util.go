package core

import (
	"log"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"unicode"

	"github.com/pkg/errors"
	"github.com/volatiletech/strmangle"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	ErrInvalidBool = errors.New("invalid boolean value")

	nonSlugRegex   = regexp.MustCompile(`[^a-z0-9]+`)
	enumSplitRegex = regexp.MustCompile(`[\s\-./]+`)
	underRunRegex  = regexp.MustCompile(`_+`)

	// letters with no canonical decomposition
	slugLetters = strings.NewReplacer(
		"ɔ", "o", "ɛ", "e", "ŋ", "ng", "ß", "ss", "æ", "ae", "œ", "oe", "ø", "o", "đ", "d", "ð", "d",
		"ł", "l", "ı", "i", "þ", "th", "ƒ", "f",
	)
)

// CleanString trims all leading and trailing whitespace in `s` and optionally lowers it.
func CleanString(s string, lower ...bool) string {
	s = strings.TrimSpace(s)
	if len(lower) > 0 && lower[0] {
		return strings.ToLower(s)
	}
	return s
}

// NormalizeEnum coerces free-form labels into enum values: "Sunday Service", "sundayService" and
// "SUNDAY-SERVICE" all become "sunday_service".
func NormalizeEnum(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if strings.ToUpper(s) == s {
		s = strings.ToLower(s)
	}
	s = enumSplitRegex.ReplaceAllString(s, "_")
	s = underRunRegex.ReplaceAllString(strmangle.SnakeCase(s), "_")
	return strings.Trim(strings.ToLower(s), "_")
}

// EnumLabel turns an enum value into a human label: "sunday_service" -> "Sunday Service".
func EnumLabel(s string) string {
	words := strings.Split(s, "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}

// ParseBool accepts the usual spellings of form & query booleans.
func ParseBool(s string) (bool, error) {
	switch CleanString(s, true /* lower */) {
	case "1", "t", "true", "y", "yes", "on":
		return true, nil
	case "0", "f", "false", "n", "no", "off":
		return false, nil
	default:
		return false, ErrInvalidBool
	}
}

// Slugify builds a URL slug out of `s`, folding accented letters to ASCII.
// Scripts with no ASCII folding are dropped, so the result may be empty.
func Slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = slugLetters.Replace(s)
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if folded, _, err := transform.String(t, s); err == nil {
		s = folded
	}
	s = nonSlugRegex.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// Truncate shortens `s` to at most `n` runes, cutting at the last word boundary and adding an ellipsis.
func Truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	cut := string(r[:n])
	if i := strings.LastIndex(cut, " "); i > n/2 {
		cut = cut[:i]
	}
	return strings.TrimRight(cut, " ,.;:") + "..."
}

// ContainsString reports whether `s` is in `list`.
func ContainsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// Getwd tries to find the project root (the directory holding go.mod).
// go-test changes the working directory to the test package being run during tests,
// so we walk up until we find it. Falls back to the current directory.
func Getwd() string {
	wd, err := os.Getwd()
	if err != nil {
		log.Fatal(err)
	}
	currDir := wd
	for {
		if fi, err := os.Stat(filepath.Join(currDir, "go.mod")); err == nil && !fi.IsDir() {
			return currDir
		}
		newDir := filepath.Dir(currDir)
		if newDir == string(os.PathSeparator) || newDir == currDir {
			return wd
		}
		currDir = newDir
	}
}
