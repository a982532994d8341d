package format

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/list"

	"bunraku/internal/activity"
)

// RenderTree renders a diagnostic activity tree. Each node shows its
// label and state; the node the walk started from carries a current
// marker:
//
//	Repeat(1/3) [active]
//	└─ Series(lap) [active] <- current
//	   ├─ Wait(2) [active]
//	   └─ Func(log) [queued]
func RenderTree(entries []activity.TreeEntry, m Mode) string {
	w := list.NewWriter()
	if m == ASCII {
		w.SetStyle(list.StyleConnectedLight)
	}

	depth := 0
	for _, e := range entries {
		for depth < e.Depth {
			w.Indent()
			depth++
		}
		for depth > e.Depth {
			w.UnIndent()
			depth--
		}
		item := fmt.Sprintf("%s [%s]", e.Label, e.State)
		if e.Origin {
			item += " <- current"
		}
		w.AppendItem(item)
	}

	if m == Markdown {
		return w.RenderMarkdown()
	}
	return w.Render()
}
