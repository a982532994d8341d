package activity

import (
	"fmt"
	"strings"
)

// TreeEntry is one line of the diagnostic tree: an activity sitting
// Depth levels below the traversal start, flagged when it is the node
// the caller asked about.
type TreeEntry struct {
	Depth  int
	Label  string
	State  State
	Origin bool
}

// Tree flattens the live graph under from into print order: depth-first,
// nested work before queued work at the same level. Done nodes are
// invisible to navigation and are skipped. The traversal only reads.
func Tree(from, origin Activity) []TreeEntry {
	type frame struct {
		a     Activity
		depth int
	}
	var out []TreeEntry
	stack := []frame{{skipDone(from), 0}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if f.a == nil {
			continue
		}
		out = append(out, TreeEntry{
			Depth:  f.depth,
			Label:  Label(f.a),
			State:  f.a.base().state,
			Origin: f.a == origin,
		})
		// Successor first so the child subtree pops before it.
		if nx := skipDone(f.a.base().next); nx != nil {
			stack = append(stack, frame{nx, f.depth})
		}
		if c := f.a.base().ChildActivity(); c != nil {
			stack = append(stack, frame{c, f.depth + 1})
		}
	}
	return out
}

func skipDone(a Activity) Activity {
	for a != nil && a.base().state == Done {
		a = a.base().next
	}
	return a
}

// Label names an activity for logs and the diagnostic tree: String()
// when the activity implements it, else the concrete type.
func Label(a Activity) string {
	if a == nil {
		return "<nil>"
	}
	if s, ok := a.(fmt.Stringer); ok {
		return s.String()
	}
	return strings.TrimPrefix(fmt.Sprintf("%T", a), "*")
}
