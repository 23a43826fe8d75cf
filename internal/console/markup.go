package console

import (
	"strings"

	"golang.org/x/net/html"
)

// markers maps the ANSI color sequences the native logger emits to display
// markup. Unknown sequences are left in place.
var markers = []string{
	"\x1b[30m", `<font color="black">`,
	"\x1b[31m", `<font color="#ed4e4c">`,
	"\x1b[32m", `<font color="green">`,
	"\x1b[33m", `<font color="#d2c057">`,
	"\x1b[34m", `<font color="#2774f0">`,
	"\x1b[35m", `<font color="magenta">`,
	"\x1b[36m", `<font color="#12b5cb">`,
	"\x1b[37m", `<font color="white">`,
	"\x1b[38;5;245m", `<font color="#8a8a8a">`,
	"\x1b[0m", `</font>`,
}

// displayReplacer rewrites whitespace and color markers in one pass, so text
// it inserts is never substituted again.
var displayReplacer = strings.NewReplacer(append([]string{
	"\n", "<br>",
	" ", "&nbsp;",
}, markers...)...)

// Markup converts a raw log string into display markup.
func Markup(text string) string {
	return displayReplacer.Replace(html.EscapeString(text))
}
