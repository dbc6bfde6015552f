package optimizer

import "strings"

// Pass names as they appear in the trace.
const (
	PassSelectionPushdown  = "selection-pushdown"
	PassProjectionPushdown = "projection-pushdown"
	PassJoinReordering     = "join-reordering"
	PassJoinAlgorithm      = "join-algorithm"
)

// Entry is one decision recorded by a pass.
type Entry struct {
	Pass    string `json:"pass"`
	Message string `json:"message"`
}

func (e Entry) String() string {
	return "[" + e.Pass + "] " + e.Message
}

// Log is the ordered optimization trace. It is only ever appended to.
type Log []Entry

// Lines returns the entries formatted one per line.
func (l Log) Lines() []string {
	out := make([]string, len(l))
	for i, e := range l {
		out[i] = e.String()
	}
	return out
}

// ByPass returns the entries recorded by one pass.
func (l Log) ByPass(pass string) Log {
	var out Log
	for _, e := range l {
		if e.Pass == pass {
			out = append(out, e)
		}
	}
	return out
}

func (l Log) String() string {
	return strings.Join(l.Lines(), "\n")
}
