package models

// StreamResponse is one chunk of a streaming chat completion. Content carries
// the chunk's text, Done marks the end of the stream, Err reports a failure
// and is always the last value sent.
type StreamResponse struct {
	Content string
	Done    bool
	Err     error
}
