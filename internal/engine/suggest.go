package engine

import (
	"sort"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// maxSuggestions caps the "did you mean" list.
const maxSuggestions = 2

// suggestCommands returns the known commands closest to name, best first.
// Commands that contain name as a fuzzy subsequence win; when there are
// none, commands within two edits of name are offered instead.
func suggestCommands(name string, commands []string) []string {
	if name == "" {
		return nil
	}

	out := make([]string, 0, maxSuggestions)

	ranks := fuzzy.RankFindFold(name, commands)
	if len(ranks) > 0 {
		sort.Stable(ranks)
		for _, r := range ranks {
			if len(out) == maxSuggestions {
				break
			}
			out = append(out, r.Target)
		}
		return out
	}

	type candidate struct {
		command  string
		distance int
	}
	var near []candidate
	for _, c := range commands {
		if d := fuzzy.LevenshteinDistance(name, c); d <= 2 {
			near = append(near, candidate{c, d})
		}
	}
	sort.SliceStable(near, func(i, j int) bool {
		return near[i].distance < near[j].distance
	})
	for _, c := range near {
		if len(out) == maxSuggestions {
			break
		}
		out = append(out, c.command)
	}
	return out
}
