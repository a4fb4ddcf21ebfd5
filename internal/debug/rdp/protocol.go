package rdp

import (
	"encoding/json"
)

// ProtocolMessage is the base for all protocol messages.
type ProtocolMessage struct {
	Seq  int    `json:"seq"`
	Type string `json:"type"` // "request", "response", "event"
}

// Request is a command sent to the debug server.
type Request struct {
	ProtocolMessage
	Command   string          `json:"command"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
}

// Response answers one request, matched by RequestSeq.
type Response struct {
	ProtocolMessage
	RequestSeq int             `json:"requestSeq"`
	Success    bool            `json:"success"`
	Command    string          `json:"command"`
	Message    string          `json:"message,omitempty"`
	Body       json.RawMessage `json:"body,omitempty"`
}

// Event is an unsolicited notification from the debug server.
type Event struct {
	ProtocolMessage
	Event string          `json:"event"`
	Body  json.RawMessage `json:"body,omitempty"`
}

// Event names the server may send.
const (
	// EventNewSource announces a newly loaded source.
	EventNewSource = "newSource"
	// EventSourcesCleared announces that all sources were invalidated,
	// typically by a reload or navigation.
	EventSourcesCleared = "sourcesCleared"
)

// SourceInfo describes one source in a sources response.
type SourceInfo struct {
	ID           string `json:"id"`
	URL          string `json:"url"`
	SourceMapURL string `json:"sourceMapURL,omitempty"`
}

// SourcesResponseBody is the body of a sources response.
type SourcesResponseBody struct {
	Sources []SourceInfo `json:"sources"`
}

// NewSourceEventBody is the body of a newSource event.
type NewSourceEventBody struct {
	Source SourceInfo `json:"source"`
}
