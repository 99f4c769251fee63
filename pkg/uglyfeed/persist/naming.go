package persist

import (
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	labelCandidates = 10
	labelWords      = 3
	minLabelWordLen = 4
	emptyLabel      = "untitled"
)

var unsafeChars = strings.NewReplacer(
	"<", "", ">", "", ":", "", `"`, "", "/", "", `\`, "", "|", "",
	"?", "", "*", "", "\n", "", "\r", "", "'", "",
	",", "_", " ", "_",
)

// Sanitize makes s safe to use inside a file name.
func Sanitize(s string) string {
	return unsafeChars.Replace(s)
}

// Label derives a short description from the most frequent title
// words: among the ten most common words, the first three longer than
// three characters. Ties keep first-seen order.
func Label(titles []string) string {
	type wordStat struct {
		word  string
		count int
		first int
	}
	counts := make(map[string]*wordStat)
	pos := 0
	for _, title := range titles {
		for _, w := range strings.Fields(strings.ToLower(title)) {
			if wc, ok := counts[w]; ok {
				wc.count++
			} else {
				counts[w] = &wordStat{word: w, count: 1, first: pos}
			}
			pos++
		}
	}

	ranked := make([]*wordStat, 0, len(counts))
	for _, wc := range counts {
		ranked = append(ranked, wc)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].count != ranked[j].count {
			return ranked[i].count > ranked[j].count
		}
		return ranked[i].first < ranked[j].first
	})
	if len(ranked) > labelCandidates {
		ranked = ranked[:labelCandidates]
	}

	words := make([]string, 0, labelWords)
	for _, wc := range ranked {
		if utf8.RuneCountInString(wc.word) >= minLabelWordLen {
			words = append(words, wc.word)
			if len(words) == labelWords {
				break
			}
		}
	}
	return strings.Join(words, " ")
}

// FileName builds "YYYYMMDD_HHMM-<label>-Q<count>-S<score>.json".
func FileName(now time.Time, label string, count int, score float64) string {
	label = Sanitize(label)
	if label == "" {
		label = emptyLabel
	}
	return fmt.Sprintf("%s-%s-Q%d-S%.2f.json", now.Format("20060102_1504"), label, count, score)
}
