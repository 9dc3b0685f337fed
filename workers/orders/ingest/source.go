package ingest

import "time"

// RawMessage is one fetched mail message. Body holds the concatenated
// text parts (plain and HTML) before cleaning.
type RawMessage struct {
	Subject string
	From    string
	Date    time.Time
	Body    string
}

// MessageSource yields candidate messages from a mail folder. Identifiers
// are opaque to the pipeline and only valid for the current connection.
type MessageSource interface {
	Select(folder string) error
	// SearchAll returns every message id in the selected folder in
	// server order, oldest first.
	SearchAll() ([]uint32, error)
	// FetchDate returns the send timestamp of one message without
	// downloading its body.
	FetchDate(id uint32) (time.Time, error)
	FetchFull(id uint32) (*RawMessage, error)
	Close() error
}
