package extract

import (
	"strings"
	"unicode/utf8"
)

// extractPlain treats content as UTF-8 text. Invalid sequences are replaced
// with spaces so a stray binary file still yields its readable portions
// instead of failing the corpus load.
func extractPlain(content []byte) (string, error) {
	if utf8.Valid(content) {
		return string(content), nil
	}
	return strings.ToValidUTF8(string(content), " "), nil
}
