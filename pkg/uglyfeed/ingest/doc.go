package ingest

// Input is the raw text of one article
type Input struct {
	Title   string
	Content string
}

// Text returns title and content joined by a space.
func (in *Input) Text() string {
	return in.Title + " " + in.Content
}

// Document is the preprocessed form of the input at the same index.
type Document struct {
	Index    int
	Text     string
	Language string
}
