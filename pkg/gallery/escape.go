package gallery

import (
	"strconv"
	"strings"
	"unicode/utf8"
)

// ReplaceUnicodeEscapes decodes every \uXXXX sequence whose four hex digits
// name a valid Unicode scalar value. Anything else (fewer than four
// characters left, non-hex digits, surrogates) keeps its literal \u and the
// text after it is scanned as usual.
func ReplaceUnicodeEscapes(text string) string {
	if !strings.Contains(text, `\u`) {
		return text
	}

	var b strings.Builder
	b.Grow(len(text))

	for {
		i := strings.Index(text, `\u`)
		if i < 0 {
			break
		}
		b.WriteString(text[:i])
		rest := text[i+2:]

		if len(rest) >= 4 {
			code, err := strconv.ParseUint(rest[:4], 16, 32)
			if err == nil && utf8.ValidRune(rune(code)) {
				b.WriteRune(rune(code))
				text = rest[4:]
				continue
			}
		}

		b.WriteString(`\u`)
		text = rest
	}

	b.WriteString(text)
	return b.String()
}
