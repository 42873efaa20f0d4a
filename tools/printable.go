package tools

import (
	"strings"
	"unicode"
)

type printableType interface {
	~string | ~[]rune | ~[]byte
}

// IsPrintable returns v with every non printable character removed, so
// CRLF and telnet control bytes do not end up in log lines.
func IsPrintable[T printableType](v T) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsPrint(r) {
			return r
		}
		return -1
	}, string(v))
}
