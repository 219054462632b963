package explore

import (
	"strings"

	"github.com/anonto42/feedback-loop/backend/internal/models"
)

// CollapsedCount is how many unselected tags the sidebar shows before expanding.
const CollapsedCount = 10

// TagList is the sidebar's view of the tag catalog.
type TagList struct {
	Selected   []string `json:"selected"`
	Unselected []string `json:"unselected"`
	// ShowExpand is set when more unselected tags match than fit collapsed.
	ShowExpand bool `json:"show_expand"`
}

// PartitionTags lists selected tags first in catalog order, then the unselected tags whose
// name contains search (case-insensitive), cut to CollapsedCount unless expanded.
func PartitionTags(all []models.Tag, selected []string, search string, expanded bool) TagList {
	sel := make(map[string]struct{}, len(selected))
	for _, s := range selected {
		sel[s] = struct{}{}
	}
	q := strings.ToLower(strings.TrimSpace(search))

	out := TagList{Selected: []string{}, Unselected: []string{}}
	for _, t := range all {
		if _, ok := sel[t.Name]; ok {
			out.Selected = append(out.Selected, t.Name)
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(t.Name), q) {
			continue
		}
		out.Unselected = append(out.Unselected, t.Name)
	}

	out.ShowExpand = len(out.Unselected) > CollapsedCount
	if !expanded && out.ShowExpand {
		out.Unselected = out.Unselected[:CollapsedCount]
	}
	return out
}

// HasMore reports whether a feed page filled the requested limit, so another page may exist.
func HasMore(fetched, limit int) bool {
	return fetched >= limit
}
