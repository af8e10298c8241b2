package domain

// Page is one unit of extracted text. Number is the 1-based source page
// when the extractor knows page boundaries (PDF), 0 otherwise. Page 0
// propagates to citations as "unknown" rather than a fabricated number.
type Page struct {
	Number int
	Text   string
}
