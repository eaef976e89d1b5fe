package models

// ExtractionSample pairs the text an extractor produced for a scanned
// document with a held-out reference transcription of the same pages.
// The OCR gate scores extraction quality from these pairs.
type ExtractionSample struct {
	ID        string `json:"id"`
	Extracted string `json:"extracted"`
	Reference string `json:"reference"`
}
