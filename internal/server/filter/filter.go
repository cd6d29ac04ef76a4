// Package filter parses stream subscription filters from query parameters.
package filter

import (
	"net/http"
	"strings"

	"github.com/agentstation/learnstream/pkg/events"
)

// Filter selects the events a stream subscriber receives. The zero Filter
// matches everything.
type Filter struct {
	Types  map[events.Type]bool
	UserID string
}

// Parse reads the filter of a stream request. Event types come from the
// repeatable, comma-separated types parameter and the user from user. A
// type of the form "quiz.*" selects every event of that domain:
//
//	/sse/stream?types=quiz.completed,guide.*&user=u1
func Parse(r *http.Request) Filter {
	q := r.URL.Query()

	var f Filter
	for _, v := range q["types"] {
		for _, t := range strings.Split(v, ",") {
			t = strings.TrimSpace(t)
			if t == "" {
				continue
			}
			if f.Types == nil {
				f.Types = make(map[events.Type]bool)
			}
			f.Types[events.Type(t)] = true
		}
	}
	f.UserID = strings.TrimSpace(q.Get("user"))
	return f
}

// Match reports whether e passes the filter.
func (f Filter) Match(e *events.Event) bool {
	if len(f.Types) > 0 && !f.Types[e.Type] && !f.Types[events.Type(e.Type.Domain()+".*")] {
		return false
	}
	if f.UserID != "" && f.UserID != e.UserID {
		return false
	}
	return true
}
