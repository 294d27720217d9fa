package query

import (
	"github.com/amrverse/amrrulebrowser/internal/rules"
)

// Option is one entry of the browse selector.
type Option struct {
	Label     string    `json:"label"`
	Selection Selection `json:"selection"`
}

// BrowseOptions lists the browse targets: all files, then each file by display
// name. A file whose organism column holds more than one distinct organism is
// followed by one option per organism.
func (e *Engine) BrowseOptions() []Option {
	opts := []Option{{Label: "All organisms"}}
	for _, f := range e.store.SortedFiles() {
		label := rules.FormatFileName(f.Name)
		opts = append(opts, Option{Label: label, Selection: Selection{File: f.Name}})

		organisms := f.Organisms()
		if len(organisms) < 2 {
			continue
		}
		for _, org := range organisms {
			opts = append(opts, Option{
				Label:     label + ": " + org,
				Selection: Selection{File: f.Name, Organism: org},
			})
		}
	}
	return opts
}

// SearchColumns lists the columns a search can be scoped to, besides AllColumns:
// canonical headers of the loaded files in fixed order, then the others
// alphabetically.
func (e *Engine) SearchColumns() []string {
	return rules.ProjectHeaders(e.store.UnionOfHeaders())
}
