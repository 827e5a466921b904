package llm

import (
	"bytes"
	"encoding/json"
)

// ContentKind tags the shape of a message's content field.
type ContentKind int

const (
	// ContentInvalid covers absent, null and any unrecognized shape.
	ContentInvalid ContentKind = iota
	// ContentText is a bare string.
	ContentText
	// ContentBlock is a single object, treated as a one-element block list.
	ContentBlock
	// ContentBlocks is a list of blocks.
	ContentBlocks
)

// MessageContent is the decoded content of a response message.
// Unrecognized shapes decode without error to ContentInvalid so that the
// response validation order is preserved.
type MessageContent struct {
	Kind   ContentKind
	Text   string
	Blocks []json.RawMessage
}

// UnmarshalJSON implements json.Unmarshaler.
func (c *MessageContent) UnmarshalJSON(data []byte) error {
	*c = MessageContent{}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil
	}

	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return nil
		}
		c.Kind, c.Text = ContentText, s
	case '{':
		c.Kind = ContentBlock
		c.Blocks = []json.RawMessage{append(json.RawMessage(nil), trimmed...)}
	case '[':
		var blocks []json.RawMessage
		if err := json.Unmarshal(trimmed, &blocks); err != nil {
			return nil
		}
		c.Kind, c.Blocks = ContentBlocks, blocks
	}
	return nil
}

// FirstText extracts the reply text. A bare string is returned as is.
// Otherwise the first block must carry a string "text" field, or be a plain
// string itself.
func (c MessageContent) FirstText() (string, error) {
	switch c.Kind {
	case ContentText:
		return c.Text, nil
	case ContentBlock, ContentBlocks:
	default:
		return "", ErrInvalidContentFormat
	}

	if len(c.Blocks) == 0 {
		return "", ErrMissingText
	}
	first := bytes.TrimSpace(c.Blocks[0])

	if len(first) > 0 && first[0] == '"' {
		var legacy string
		if err := json.Unmarshal(first, &legacy); err == nil {
			return legacy, nil
		}
		return "", ErrMissingText
	}

	var block struct {
		Text *string `json:"text"`
	}
	if err := json.Unmarshal(first, &block); err != nil || block.Text == nil {
		return "", ErrMissingText
	}
	return *block.Text, nil
}

// isFalsy reports whether raw is absent, null, false, 0 or "".
func isFalsy(raw json.RawMessage) bool {
	if len(bytes.TrimSpace(raw)) == 0 {
		return true
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return false
	}
	switch x := v.(type) {
	case nil:
		return true
	case bool:
		return !x
	case float64:
		return x == 0
	case string:
		return x == ""
	}
	return false
}
