package ingest

// Pipeline orchestrates preprocessing of a batch:
// language detection → HTML/case/punctuation cleanup → tokenization
type Pipeline struct {
	pre      *Preprocessor
	detector Detector
}

// NewPipeline creates a preprocessing pipeline. A nil detector treats
// every input as the preprocessor's fallback language.
func NewPipeline(pre *Preprocessor, detector Detector) *Pipeline {
	if detector == nil {
		detector = StaticDetector(pre.opts.FallbackLanguage)
	}
	return &Pipeline{pre: pre, detector: detector}
}

// Process preprocesses every input. The result has one document per
// input, in input order.
func (p *Pipeline) Process(inputs []Input) []Document {
	docs := make([]Document, len(inputs))
	for i := range inputs {
		raw := inputs[i].Text()
		lang := p.detector.Detect(StripHTML(raw))
		docs[i] = Document{
			Index:    i,
			Text:     p.pre.Preprocess(raw, lang),
			Language: lang,
		}
	}
	return docs
}

// Texts returns the text of every document, in order.
func Texts(docs []Document) []string {
	out := make([]string, len(docs))
	for i, d := range docs {
		out[i] = d.Text
	}
	return out
}
