// Package nlu is the client side of the turn-taking assistant service: one
// user utterance in, zero or more reply segments out.
package nlu

import "context"

// Request is a single RecognizeText turn.
type Request struct {
	BotID      string `json:"botId"`
	BotAliasID string `json:"botAliasId"`
	LocaleID   string `json:"localeId"`
	SessionID  string `json:"sessionId"`
	Text       string `json:"text"`
}

// Segment is one reply segment.
type Segment struct {
	Content     string `json:"content"`
	ContentType string `json:"contentType,omitempty"`
}

// Response carries the reply segments for a turn.
type Response struct {
	Messages []Segment `json:"messages"`
}

// FirstText returns the content of the first segment, or "".
func (r *Response) FirstText() string {
	if r == nil || len(r.Messages) == 0 {
		return ""
	}
	return r.Messages[0].Content
}

// Recognizer runs a RecognizeText turn. Both the clients in this package and
// the mock bot implement it.
type Recognizer interface {
	RecognizeText(ctx context.Context, req *Request) (*Response, error)
}

// Bot identifies the bot deployment a conversation talks to.
type Bot struct {
	ID       string
	AliasID  string
	LocaleID string
}

// NewRequest builds a request for text within sessionID.
func (b Bot) NewRequest(sessionID, text string) *Request {
	return &Request{
		BotID:      b.ID,
		BotAliasID: b.AliasID,
		LocaleID:   b.LocaleID,
		SessionID:  sessionID,
		Text:       text,
	}
}
