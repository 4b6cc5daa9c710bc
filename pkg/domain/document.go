package domain

// Header holds the bibliographic metadata found in a teiHeader.
type Header struct {
	Title     string   `json:"title,omitempty" yaml:"title,omitempty"`
	Authors   []string `json:"authors,omitempty" yaml:"authors,omitempty"`
	Editors   []string `json:"editors,omitempty" yaml:"editors,omitempty"`
	Publisher string   `json:"publisher,omitempty" yaml:"publisher,omitempty"`
	Date      string   `json:"date,omitempty" yaml:"date,omitempty"`
	Idno      string   `json:"idno,omitempty" yaml:"idno,omitempty"`
	Language  string   `json:"language,omitempty" yaml:"language,omitempty"`
}

// Document is a single TEI file of a corpus.
// ID is the path relative to the corpus root, with forward slashes and without ".xml".
type Document struct {
	ID     string `json:"id" yaml:"id"`
	Path   string `json:"path,omitempty" yaml:"path,omitempty"`
	Header Header `json:"header" yaml:"header"`
}
