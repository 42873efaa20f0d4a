package ftp

import (
	"fmt"
	"io"
	"strings"
)

// Reply writes a single line reply "<code> <msg>\r\n" to w.
func Reply(w io.Writer, code StatusCode, msg string) error {
	_, err := fmt.Fprintf(w, "%d %s\r\n", code, msg)
	if err != nil {
		return fmt.Errorf("error sending reply %d: %w", code, err)
	}
	return nil
}

// ReplyLines writes a multi line reply. The first line carries "<code>-",
// every body line is indented by one space and the last line carries "<code> ".
func ReplyLines(w io.Writer, code StatusCode, first string, lines []string, last string) error {
	var b strings.Builder
	fmt.Fprintf(&b, "%d-%s\r\n", code, first)
	for _, line := range lines {
		fmt.Fprintf(&b, " %s\r\n", line)
	}
	fmt.Fprintf(&b, "%d %s\r\n", code, last)

	_, err := io.WriteString(w, b.String())
	if err != nil {
		return fmt.Errorf("error sending reply %d: %w", code, err)
	}
	return nil
}
