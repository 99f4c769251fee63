// Package persist writes article groups to disk as JSON files, dropping
// articles already written earlier in the same run.
package persist

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"github.com/uglyfeed/uglyfeed/pkg/uglyfeed/group"
	"github.com/uglyfeed/uglyfeed/pkg/uglyfeed/ingest"
	"github.com/uglyfeed/uglyfeed/pkg/uglyfeed/similarity"
)

// Item is the on-disk shape of one article.
type Item struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Link    string `json:"link"`
}

// Record describes a group that was written.
type Record struct {
	GroupID    string
	Path       string
	Label      string
	Similarity float64
	Items      []Item
	WrittenAt  time.Time
}

// Size returns the number of articles in the file.
func (r Record) Size() int { return len(r.Items) }

// Options configures a Writer.
type Options struct {
	Dir     string
	MinSize int              // groups smaller than this after dedup are skipped
	Now     func() time.Time // defaults to time.Now
	Logger  zerolog.Logger
}

// Writer persists groups for one run. The set of seen articles lives as
// long as the Writer, so use a fresh Writer per run.
type Writer struct {
	opts    Options
	seen    map[string]struct{}
	entropy *ulid.MonotonicEntropy
}

// NewWriter creates a writer for one run.
func NewWriter(opts Options) *Writer {
	if opts.MinSize < 1 {
		opts.MinSize = group.DefaultMinSize
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Writer{
		opts:    opts,
		seen:    make(map[string]struct{}),
		entropy: ulid.Monotonic(rand.Reader, 0),
	}
}

// Persist writes every group that still holds at least MinSize articles
// once earlier duplicates are removed. sim, when given, rescales the
// score of groups that lost members; otherwise the group's own average
// is used. A failed write is logged and skipped. The only error is an
// unusable output directory.
func (w *Writer) Persist(groups []group.Group, sim *similarity.Matrix) ([]Record, error) {
	if err := os.MkdirAll(w.opts.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir %s: %w", w.opts.Dir, err)
	}

	var records []Record
	for _, g := range groups {
		items, kept := w.unique(g)
		if len(items) < w.opts.MinSize {
			w.opts.Logger.Debug().
				Str("group_id", g.ID).
				Int("size", g.Size()).
				Int("unique", len(items)).
				Msg("group too small after dedup, skipped")
			continue
		}

		score := g.AverageSimilarity
		if sim != nil && len(kept) != g.Size() {
			score = sim.MeanPairwise(kept)
		}

		titles := make([]string, len(items))
		for i, it := range items {
			titles[i] = it.Title
		}
		label := Label(titles)
		now := w.opts.Now()
		name := FileName(now, label, len(items), score)

		path, err := w.write(name, items)
		if err != nil {
			w.opts.Logger.Error().Err(err).
				Str("group_id", g.ID).
				Str("file", name).
				Msg("failed to write group")
			continue
		}

		w.opts.Logger.Info().
			Str("path", path).
			Int("items", len(items)).
			Float64("similarity", score).
			Msg("group saved")
		records = append(records, Record{
			GroupID:    g.ID,
			Path:       path,
			Label:      label,
			Similarity: score,
			Items:      items,
			WrittenAt:  now,
		})
	}
	return records, nil
}

// unique cleans the articles of g and drops those already seen in this
// run. It returns the survivors and their batch indices.
func (w *Writer) unique(g group.Group) ([]Item, []int) {
	items := make([]Item, 0, g.Size())
	var kept []int
	local := make(map[string]struct{})
	for i, a := range g.Articles {
		it := Item{
			Title:   ingest.StripHTML(a.Title),
			Content: ingest.StripHTML(a.Content),
			Link:    a.Link,
		}
		h := ContentHash(it.Title, it.Content)
		if _, ok := w.seen[h]; ok {
			continue
		}
		if _, ok := local[h]; ok {
			continue
		}
		local[h] = struct{}{}
		items = append(items, it)
		if i < len(g.Indices) {
			kept = append(kept, g.Indices[i])
		}
	}
	for h := range local {
		w.seen[h] = struct{}{}
	}
	return items, kept
}

// ContentHash is the dedup key of an article: SHA-256 over its
// normalized title and content.
func ContentHash(title, content string) string {
	norm := func(s string) string {
		return ingest.CollapseSpace(strings.ToLower(ingest.StripHTML(s)))
	}
	sum := sha256.Sum256([]byte(norm(title) + "\n" + norm(content)))
	return hex.EncodeToString(sum[:])
}

// write creates name in the output directory without replacing an
// existing file. On a name clash a ULID suffix is added.
func (w *Writer) write(name string, items []Item) (string, error) {
	path := filepath.Join(w.opts.Dir, name)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if errors.Is(err, fs.ErrExist) {
		base := strings.TrimSuffix(name, ".json")
		suffix := ulid.MustNew(ulid.Now(), w.entropy).String()
		path = filepath.Join(w.opts.Dir, base+"-"+suffix+".json")
		f, err = os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	}
	if err != nil {
		return "", err
	}

	enc := json.NewEncoder(f)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(items); err != nil {
		f.Close()
		os.Remove(path)
		return "", err
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", err
	}
	return path, nil
}

// ReadGroup loads a file written by Persist.
func ReadGroup(path string) ([]Item, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var items []Item
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return items, nil
}

// Sizes returns the article count of each record.
func Sizes(records []Record) []int {
	out := make([]int, len(records))
	for i, r := range records {
		out[i] = r.Size()
	}
	return out
}
