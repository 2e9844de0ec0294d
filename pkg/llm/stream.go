package llm

// StreamChunk is one piece of a streamed completion.
type StreamChunk struct {
	Role     string
	Content  string
	Finished bool
	Error    error
}

// IsError reports whether the chunk carries a stream error.
func (c *StreamChunk) IsError() bool {
	return c.Error != nil
}
