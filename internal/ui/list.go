package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"

	"github.com/desertthunder/blissify/internal/tasks"
)

var _ list.Item = pickItem{}

// pickItem wraps [tasks.Pick] to implement [list.Item].
type pickItem struct {
	pick tasks.Pick
}

func (i pickItem) FilterValue() string { return i.pick.TrackID }
func (i pickItem) Title() string       { return i.pick.TrackID }
func (i pickItem) Description() string {
	desc := fmt.Sprintf("step %d • %.4f • %s", i.pick.Step, i.pick.Distance, i.pick.Source)
	if i.pick.HasSimilarity {
		desc = fmt.Sprintf("%s • sim %.4f", desc, i.pick.Similarity)
	}
	if i.pick.Album != "" {
		desc = fmt.Sprintf("%s • %s", desc, i.pick.Album)
	}
	return desc
}

func pickItems(picks []tasks.Pick) []list.Item {
	items := make([]list.Item, len(picks))
	for i, p := range picks {
		items[i] = pickItem{pick: p}
	}
	return items
}
