package charstring

import "fmt"

// MaxCharStringLength is the maximum accepted length of a charstring or
// subroutine; longer input is treated as malformed.
const MaxCharStringLength = 65525

// maxCallDepth bounds subroutine recursion for all dialects.
const maxCallDepth = 10

// warnings collects the non-fatal problems found during a parse. Malformed
// glyph bytecode is expected in real-world fonts, so almost every problem is
// recorded here and parsing continues.
type warnings struct {
	list []string
}

func (w *warnings) warnf(format string, args ...interface{}) {
	w.list = append(w.list, fmt.Sprintf(format, args...))
}

// Warnings returns the problems found by the last parse, in order of occurrence.
func (w *warnings) Warnings() []string {
	return w.list
}

// opName formats an opcode for diagnostics, e.g. "2" or "12 16".
func opName(code uint16) string {
	if 0x0c00 <= code {
		return fmt.Sprintf("12 %d", code&0x00ff)
	}
	return fmt.Sprintf("%d", code)
}
