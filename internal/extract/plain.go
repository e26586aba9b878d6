package extract

import (
	"strings"
	"unicode/utf8"
)

// DecodeText returns content as a string. Valid UTF-8 is returned byte-for-byte;
// invalid sequences are replaced with the replacement character.
func DecodeText(content []byte) string {
	if !utf8.Valid(content) {
		return strings.ToValidUTF8(string(content), "�")
	}
	return string(content)
}
