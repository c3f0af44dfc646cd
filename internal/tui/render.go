package tui

import (
	"fmt"
	"strings"

	"todoview/internal/store"
	"todoview/internal/task"
)

const (
	msgEmpty   = "No tasks yet. Add your first one above!"
	msgLoading = "Loading…"
)

// subtitle is the line under the header.
func subtitle(st store.State) string {
	if st.Loading {
		return msgLoading
	}
	n := st.Remaining()
	if n == 1 {
		return "1 task remaining"
	}
	return fmt.Sprintf("%d tasks remaining", n)
}

// listView is the rendered list plus the last line of the selected item,
// which the viewport keeps on screen.
type listView struct {
	content   string
	selBottom int
}

// renderList renders todos. The selected item shows its description as
// markdown; the rest show the first line, truncated to width. The task named
// by editID is replaced by editor.
func renderList(todos []task.Task, sel int, width int, showSel bool, editID, editor string, s styles) listView {
	if len(todos) == 0 {
		return listView{content: s.empty.Render(msgEmpty)}
	}
	if width <= 0 {
		width = 80
	}

	var lines []string
	var lv listView
	for i, t := range todos {
		selected := showSel && i == sel

		if editID != "" && t.ID == editID {
			lines = append(lines, strings.Split(editor, "\n")...)
			if selected {
				lv.selBottom = len(lines) - 1
			}
			continue
		}

		box := "[ ]"
		if t.Completed {
			box = "[x]"
		}
		title := strings.TrimSpace(t.Title)
		if title == "" {
			title = "(untitled)"
		}
		if t.Provisional {
			title += " (unsynced)"
		}
		if t.Completed {
			title = s.done.Render(title)
		}

		pointer := "  "
		row := s.item
		if selected {
			pointer = "› "
			row = s.selected
		}
		lines = append(lines, row.Render(truncate(pointer+box+" "+title, width-2)))

		if t.Description != "" {
			if selected {
				md := renderMarkdown(t.Description, s.theme, width-10)
				for _, l := range strings.Split(md, "\n") {
					lines = append(lines, s.desc.Render(l))
				}
			} else {
				lines = append(lines, s.desc.Render(truncate(firstLine(t.Description), width-10)))
			}
		}

		if selected {
			lv.selBottom = len(lines) - 1
		}
	}

	lv.content = strings.Join(lines, "\n")
	return lv
}
