package worker

import "github.com/book-expert/events"

// ExtractRequestedEvent asks the worker to extract the story from a stored document.
type ExtractRequestedEvent struct {
	Header events.EventHeader `json:"header"`
	// DocumentKey names the document in the documents bucket.
	DocumentKey string `json:"document_key"`
	// FileName is the original file name; its extension selects PDF or TXT handling.
	FileName string `json:"file_name"`
}

// StoryExtractedEvent is the reply to an ExtractRequestedEvent. Error is set
// and the keys are empty when extraction failed.
type StoryExtractedEvent struct {
	Header     events.EventHeader `json:"header"`
	StoryKey   string             `json:"story_key,omitempty"`
	CoverKey   string             `json:"cover_key,omitempty"`
	TextLength int                `json:"text_length"`
	Error      string             `json:"error,omitempty"`
}
