package locale

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
)

// ValidateLanguage checks that code is a well-formed BCP 47 tag.
func ValidateLanguage(code string) error {
	if strings.TrimSpace(code) == "" {
		return fmt.Errorf("%w: empty", ErrInvalidLanguage)
	}
	if _, err := language.Parse(code); err != nil {
		return fmt.Errorf("%w: %q: %v", ErrInvalidLanguage, code, err)
	}
	return nil
}

// maxAcceptLanguageLength bounds the header accepted by ParseAcceptLanguage.
const maxAcceptLanguageLength = 4096

// ParseAcceptLanguage picks the best match for an Accept-Language header
// from available. It returns available[0] when nothing matches or the
// header is empty or malformed, and "" when available is empty.
func ParseAcceptLanguage(header string, available []string) string {
	if len(available) == 0 {
		return ""
	}
	if len(header) > maxAcceptLanguageLength {
		header = header[:maxAcceptLanguageLength]
	}
	requested, _, err := language.ParseAcceptLanguage(header)
	if err != nil || len(requested) == 0 {
		return available[0]
	}

	supported := make([]language.Tag, 0, len(available))
	index := make([]int, 0, len(available))
	for i, code := range available {
		tag, err := language.Parse(code)
		if err != nil {
			continue
		}
		supported = append(supported, tag)
		index = append(index, i)
	}
	if len(supported) == 0 {
		return available[0]
	}

	_, i, conf := language.NewMatcher(supported).Match(requested...)
	if conf == language.No {
		return available[0]
	}
	return available[index[i]]
}
