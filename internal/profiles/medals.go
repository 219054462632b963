package profiles

import "github.com/anonto42/feedback-loop/backend/internal/models"

// GroupMedals collapses repeated awards into one entry per medal id with its count, in order of
// first appearance.
func GroupMedals(medals []models.Medal) []models.GroupedMedal {
	out := make([]models.GroupedMedal, 0, len(medals))
	index := make(map[int64]int, len(medals))
	for _, m := range medals {
		if i, ok := index[m.ID]; ok {
			out[i].Count++
			continue
		}
		index[m.ID] = len(out)
		out = append(out, models.GroupedMedal{Medal: m, Count: 1})
	}
	return out
}
