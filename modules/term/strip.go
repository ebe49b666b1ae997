package term

import "github.com/acarl005/stripansi"

// StripANSI removes ANSI escape sequences from s, for rendering colored CLI
// output in a context (a log file, a piped consumer) that can't interpret
// them.
func StripANSI(s string) string {
	return stripansi.Strip(s)
}
