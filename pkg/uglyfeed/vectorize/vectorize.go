// Package vectorize turns preprocessed documents into sparse feature
// vectors: tf-idf and raw counts over a batch vocabulary, or hashed
// features without vocabulary state.
package vectorize

import (
	"fmt"
	"math"
	"sort"

	"github.com/cespare/xxhash/v2"
	"github.com/uglyfeed/uglyfeed/pkg/uglyfeed/internalerr"
)

// Method selects the vectorization strategy.
type Method string

const (
	MethodTFIDF   Method = "tfidf"
	MethodCount   Method = "count"
	MethodHashing Method = "hashing"
)

// DefaultNFeatures is the hashing space width.
const DefaultNFeatures = 1 << 20

// NgramRange bounds the n-gram sizes extracted from each document.
type NgramRange struct {
	Min, Max int
}

// DocFreq is a document frequency bound. A fraction is relative to the
// batch size; an absolute bound counts documents.
type DocFreq struct {
	Value    float64
	Absolute bool
}

// Fraction returns a bound relative to the number of documents.
func Fraction(f float64) DocFreq { return DocFreq{Value: f} }

// Docs returns a bound of n documents.
func Docs(n int) DocFreq { return DocFreq{Value: float64(n), Absolute: true} }

// limit resolves the bound for a batch of n documents.
func (d DocFreq) limit(n int) float64 {
	if d.Absolute {
		return d.Value
	}
	return d.Value * float64(n)
}

func (d DocFreq) String() string {
	if d.Absolute {
		return fmt.Sprintf("%d", int(d.Value))
	}
	return fmt.Sprintf("%g", d.Value)
}

// Options configures Vectorize.
type Options struct {
	Method      Method
	Ngram       NgramRange
	MaxDF       DocFreq // a zero fraction means no upper bound
	MinDF       DocFreq
	MaxFeatures int // 0 keeps every term
	NFeatures   int // hashing only; 0 means DefaultNFeatures
}

// DefaultOptions returns tf-idf over unigrams and bigrams, dropping terms
// in more than 85% or fewer than 1% of documents.
func DefaultOptions() Options {
	return Options{
		Method: MethodTFIDF,
		Ngram:  NgramRange{Min: 1, Max: 2},
		MaxDF:  Fraction(0.85),
		MinDF:  Fraction(0.01),
	}
}

// Validate checks the options without looking at any documents.
func (o Options) Validate() error {
	switch o.Method {
	case MethodTFIDF, MethodCount, MethodHashing:
	default:
		return fmt.Errorf("%w: unsupported vectorization method %q", internalerr.ErrInvalidConfig, o.Method)
	}
	if o.Ngram.Min < 1 || o.Ngram.Max < o.Ngram.Min {
		return fmt.Errorf("%w: invalid ngram range [%d, %d]", internalerr.ErrInvalidConfig, o.Ngram.Min, o.Ngram.Max)
	}
	if o.Method == MethodHashing {
		return nil
	}
	for name, d := range map[string]DocFreq{"max_df": o.MaxDF, "min_df": o.MinDF} {
		if d.Value < 0 || (!d.Absolute && d.Value > 1) {
			return fmt.Errorf("%w: %s out of range: %s", internalerr.ErrInvalidConfig, name, d)
		}
	}
	if o.MaxFeatures < 0 {
		return fmt.Errorf("%w: max_features must be positive", internalerr.ErrInvalidConfig)
	}
	return nil
}

// Vectorize converts docs into one row per document. An empty
// vocabulary is not an error: the result has zero columns and callers
// check Matrix.Empty before clustering.
func Vectorize(docs []string, opts Options) (*Matrix, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if opts.Method == MethodHashing {
		return hashing(docs, opts), nil
	}

	counter := NewCounter()
	for _, d := range docs {
		counter.AddDocument(analyze(d, opts.Ngram))
	}

	vocab := vocabulary(counter, opts)
	index := make(map[string]int, len(vocab))
	for i, t := range vocab {
		index[t] = i
	}

	var idf []float64
	if opts.Method == MethodTFIDF {
		idf = make([]float64, len(vocab))
		n := float64(counter.N)
		for i, t := range vocab {
			idf[i] = math.Log((1+n)/(1+float64(counter.DF[t]))) + 1
		}
	}

	m := &Matrix{
		Rows:       make([]Row, len(docs)),
		Cols:       len(vocab),
		Vocabulary: vocab,
	}
	for i := range docs {
		counts := make(map[int]float64)
		for t, c := range counter.Doc(i) {
			col, ok := index[t]
			if !ok {
				continue
			}
			v := float64(c)
			if idf != nil {
				v *= idf[col]
			}
			counts[col] = v
		}
		row := rowFromCounts(counts)
		if opts.Method == MethodTFIDF {
			row = normalize(row)
		}
		m.Rows[i] = row
	}
	return m, nil
}

// vocabulary returns the sorted terms that pass the document frequency
// bounds and the max_features cap.
func vocabulary(c *Counter, opts Options) []string {
	high := opts.MaxDF.limit(c.N)
	low := opts.MinDF.limit(c.N)
	if opts.MaxDF.Value == 0 && !opts.MaxDF.Absolute {
		high = float64(c.N)
	}
	if high < low {
		return nil
	}

	terms := make([]string, 0, len(c.DF))
	for t, df := range c.DF {
		if float64(df) <= high && float64(df) >= low {
			terms = append(terms, t)
		}
	}
	sort.Strings(terms)

	if opts.MaxFeatures > 0 && len(terms) > opts.MaxFeatures {
		sort.SliceStable(terms, func(i, j int) bool {
			return c.TF[terms[i]] > c.TF[terms[j]]
		})
		terms = terms[:opts.MaxFeatures]
		sort.Strings(terms)
	}
	return terms
}

// hashing maps every term to one of n columns with xxhash. The top hash
// bit picks the sign so collisions tend to cancel out.
func hashing(docs []string, opts Options) *Matrix {
	n := opts.NFeatures
	if n <= 0 {
		n = DefaultNFeatures
	}
	m := &Matrix{Rows: make([]Row, len(docs)), Cols: n}
	for i, d := range docs {
		counts := make(map[int]float64)
		for _, t := range analyze(d, opts.Ngram) {
			h := xxhash.Sum64String(t)
			col := int(h % uint64(n))
			if h>>63 == 1 {
				counts[col]--
			} else {
				counts[col]++
			}
		}
		m.Rows[i] = normalize(rowFromCounts(counts))
	}
	return m
}
