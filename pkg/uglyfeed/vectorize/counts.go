package vectorize

// Counter maintains term statistics over a batch of documents
type Counter struct {
	N  int            // total number of documents
	DF map[string]int // document frequency per term
	TF map[string]int // corpus-wide term frequency
	// per-document term counts, in document order
	docs []map[string]int
}

// NewCounter creates an empty counter
func NewCounter() *Counter {
	return &Counter{
		DF: make(map[string]int),
		TF: make(map[string]int),
	}
}

// AddDocument records the terms of one document, duplicates included.
func (c *Counter) AddDocument(terms []string) {
	c.N++
	counts := make(map[string]int, len(terms))
	for _, t := range terms {
		counts[t]++
		c.TF[t]++
	}
	for t := range counts {
		c.DF[t]++
	}
	c.docs = append(c.docs, counts)
}

// Doc returns the term counts of document i.
func (c *Counter) Doc(i int) map[string]int {
	return c.docs[i]
}
