package analysis

import (
	"cmp"
	"regexp"
	"slices"
	"strings"

	"golang.org/x/text/cases"

	"github.com/JaimeStill/cadence/internal/transcripts"
)

// Lexicon is the fixed set of filler expressions.
var Lexicon = []string{
	"um", "uh", "like", "you know", "so", "actually", "basically",
	"literally", "kind of", "sort of", "i mean", "you see", "right",
	"okay", "well", "anyway", "just",
}

var (
	singleFillers = map[string]struct{}{}
	phraseFillers = map[string]*regexp.Regexp{}
)

func init() {
	for _, f := range Lexicon {
		if strings.Contains(f, " ") {
			phraseFillers[f] = regexp.MustCompile(`\b` + regexp.QuoteMeta(f) + `\b`)
			continue
		}
		singleFillers[f] = struct{}{}
	}
}

// FillerCount is one entry of the filler-word breakdown.
type FillerCount struct {
	Word  string `json:"word"`
	Count int    `json:"count"`
}

// CountFillers counts single-word fillers against each word token and
// multi-word fillers against the full text. The breakdown is sorted by count
// descending, then alphabetically.
func CountFillers(words []transcripts.Word, text string) ([]FillerCount, int) {
	fold := cases.Fold()
	counts := make(map[string]int)
	total := 0

	for _, w := range words {
		token := strings.TrimSpace(fold.String(w.Word))
		if _, ok := singleFillers[token]; ok {
			counts[token]++
			total++
		}
	}

	folded := fold.String(text)
	for phrase, re := range phraseFillers {
		if n := len(re.FindAllStringIndex(folded, -1)); n > 0 {
			counts[phrase] += n
			total += n
		}
	}

	breakdown := make([]FillerCount, 0, len(counts))
	for word, count := range counts {
		breakdown = append(breakdown, FillerCount{Word: word, Count: count})
	}
	slices.SortFunc(breakdown, func(a, b FillerCount) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Word, b.Word)
	})

	return breakdown, total
}
