package repl

import (
	"time"

	mdwdiag "github.com/msto63/lox/foundation/lox/diag"
)

// Mode selects what the REPL does with each line
type Mode int

const (
	ModeParse Mode = iota // print the prefix form
	ModeTree              // print the indented tree
	ModeScan              // print the token stream
)

func (m Mode) String() string {
	switch m {
	case ModeTree:
		return "tree"
	case ModeScan:
		return "scan"
	default:
		return "parse"
	}
}

// ParseMode maps a mode name to a Mode
func ParseMode(s string) (Mode, bool) {
	switch s {
	case "parse", "":
		return ModeParse, true
	case "tree":
		return ModeTree, true
	case "scan":
		return ModeScan, true
	}
	return ModeParse, false
}

// Entry is one line of the transcript
type Entry struct {
	Input       string
	Output      []string
	Diagnostics []mdwdiag.Diagnostic
	Info        string
	Duration    time.Duration
}

// resultMsg carries the outcome of analyzing one input line
type resultMsg struct {
	entry Entry
	err   error
}
