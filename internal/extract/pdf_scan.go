package extract

import (
	"bytes"
	"compress/zlib"
	"io"
	"strings"
	"unicode"
)

// StrategyScan reads the raw bytes as Latin-1 and collects string operands of text objects.
const StrategyScan = "scan"

// maxInflatedBytes bounds the decompressed size of one content stream.
const maxInflatedBytes = 16 << 20

// ScanStrategy is the last-resort heuristic. It needs no valid cross-reference table,
// inflates Flate streams it can find, and never reports a page count.
type ScanStrategy struct{}

func (ScanStrategy) Name() string { return StrategyScan }

func (ScanStrategy) Extract(content []byte) (string, int, error) {
	if !hasPDFHeader(content) {
		return "", 0, ErrNotPDF
	}
	parts := []string{scanTextObjects(content)}
	for _, stream := range inflateStreams(content) {
		parts = append(parts, scanTextObjects(stream))
	}
	return strings.TrimSpace(strings.Join(parts, " ")), 0, nil
}

// inflateStreams returns every stream body that decodes as zlib data.
func inflateStreams(content []byte) [][]byte {
	var out [][]byte
	rest := content
	for {
		i := bytes.Index(rest, []byte("stream"))
		if i < 0 {
			return out
		}
		isEnd := i >= 3 && string(rest[i-3:i]) == "end"
		rest = rest[i+len("stream"):]
		if isEnd {
			continue
		}
		switch {
		case bytes.HasPrefix(rest, []byte("\r\n")):
			rest = rest[2:]
		case bytes.HasPrefix(rest, []byte("\n")), bytes.HasPrefix(rest, []byte("\r")):
			rest = rest[1:]
		}
		end := bytes.Index(rest, []byte("endstream"))
		if end < 0 {
			return out
		}
		body := rest[:end]
		rest = rest[end+len("endstream"):]

		zr, err := zlib.NewReader(bytes.NewReader(body))
		if err != nil {
			continue
		}
		data, err := io.ReadAll(io.LimitReader(zr, maxInflatedBytes))
		_ = zr.Close()
		if len(data) > 0 && (err == nil || err == io.ErrUnexpectedEOF) {
			out = append(out, data)
		}
	}
}

// scanTextObjects collects strings shown between BT and ET operators. Strings inside one
// TJ array are joined directly; separate show operations are joined by a single space.
func scanTextObjects(data []byte) string {
	src := latin1(data)
	var pieces []string
	for {
		start := findOperator(src, "BT")
		if start < 0 {
			break
		}
		src = src[start+2:]
		end := findOperator(src, "ET")
		block := src
		if end >= 0 {
			block = src[:end]
			src = src[end+2:]
		} else {
			src = nil
		}
		pieces = append(pieces, showStrings(block)...)
		if src == nil {
			break
		}
	}
	return strings.Join(pieces, " ")
}

// findOperator returns the index of op as a standalone token in src, or -1.
func findOperator(src []rune, op string) int {
	ops := []rune(op)
	for i := 0; i+len(ops) <= len(src); i++ {
		if src[i] != ops[0] || src[i+1] != ops[1] {
			continue
		}
		if i > 0 && !isDelimiter(src[i-1]) {
			continue
		}
		if j := i + len(ops); j < len(src) && !isDelimiter(src[j]) {
			continue
		}
		return i
	}
	return -1
}

func isDelimiter(r rune) bool {
	return unicode.IsSpace(r) || strings.ContainsRune("()<>[]{}/%", r)
}

func showStrings(block []rune) []string {
	var (
		pieces  []string
		inArray bool
		array   strings.Builder
	)
	emit := func(s string) {
		if s = strings.TrimSpace(printable(s)); s != "" {
			pieces = append(pieces, s)
		}
	}
	for i := 0; i < len(block); {
		var s string
		switch block[i] {
		case '(':
			s, i = literalString(block, i+1)
		case '<':
			if i+1 < len(block) && block[i+1] == '<' {
				i += 2
				continue
			}
			s, i = hexString(block, i+1)
		case '[':
			inArray = true
			array.Reset()
			i++
			continue
		case ']':
			if inArray {
				emit(array.String())
			}
			inArray = false
			i++
			continue
		default:
			i++
			continue
		}
		if inArray {
			array.WriteString(s)
		} else {
			emit(s)
		}
	}
	if inArray {
		emit(array.String())
	}
	return pieces
}

// literalString decodes a (...) string starting after the opening parenthesis and
// returns it with the index following the closing one. Balanced parentheses nest.
func literalString(src []rune, i int) (string, int) {
	var b strings.Builder
	depth := 1
	for i < len(src) {
		r := src[i]
		switch r {
		case '\\':
			i++
			if i >= len(src) {
				return b.String(), i
			}
			switch e := src[i]; e {
			case 'n':
				b.WriteRune('\n')
			case 'r':
				b.WriteRune('\r')
			case 't':
				b.WriteRune('\t')
			case 'b':
				b.WriteRune('\b')
			case 'f':
				b.WriteRune('\f')
			case '\r':
				if i+1 < len(src) && src[i+1] == '\n' {
					i++
				}
			case '\n':
			default:
				if e >= '0' && e <= '7' {
					v := 0
					n := 0
					for n < 3 && i < len(src) && src[i] >= '0' && src[i] <= '7' {
						v = v*8 + int(src[i]-'0')
						i++
						n++
					}
					b.WriteRune(rune(v & 0xFF))
					continue
				}
				b.WriteRune(e)
			}
			i++
		case '(':
			depth++
			b.WriteRune(r)
			i++
		case ')':
			depth--
			i++
			if depth == 0 {
				return b.String(), i
			}
			b.WriteRune(r)
		default:
			b.WriteRune(r)
			i++
		}
	}
	return b.String(), i
}

// hexString decodes a <...> string starting after '<'. An odd final digit is padded with 0.
func hexString(src []rune, i int) (string, int) {
	var digits []byte
	for i < len(src) && src[i] != '>' {
		if c := src[i]; c < unicode.MaxASCII && isHexDigit(byte(c)) {
			digits = append(digits, byte(c))
		}
		i++
	}
	if i < len(src) {
		i++
	}
	if len(digits)%2 == 1 {
		digits = append(digits, '0')
	}
	var b strings.Builder
	for j := 0; j < len(digits); j += 2 {
		b.WriteRune(rune(hexValue(digits[j])<<4 | hexValue(digits[j+1])))
	}
	return b.String(), i
}

func isHexDigit(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func hexValue(c byte) byte {
	switch {
	case c >= '0' && c <= '9':
		return c - '0'
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10
	default:
		return c - 'A' + 10
	}
}

// printable drops control characters, keeping whitespace as a plain space.
func printable(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case unicode.IsSpace(r):
			return ' '
		case unicode.IsPrint(r):
			return r
		default:
			return -1
		}
	}, s)
}

func latin1(data []byte) []rune {
	out := make([]rune, len(data))
	for i, c := range data {
		out[i] = rune(c)
	}
	return out
}
