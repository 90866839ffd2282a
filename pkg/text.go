package pkg

import (
	"strings"
	"unicode/utf8"
)

// StorableText reports whether s fits a postgres text column: valid UTF-8 without NUL bytes.
func StorableText(s string) bool {
	return utf8.ValidString(s) && !strings.ContainsRune(s, 0)
}
