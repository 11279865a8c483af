package platform

import (
	"context"
	"fmt"
	"strings"
	"time"
)

const recruiterPath = "/ai/recruiter"

type MessageRole string

const (
	RoleRecruiter MessageRole = "recruiter"
	RoleCandidate MessageRole = "candidate"
)

// Message is one recruiter chat message as stored by the backend.
type Message struct {
	ID        string      `json:"id"`
	Role      MessageRole `json:"role"`
	Content   string      `json:"content"`
	CreatedAt string      `json:"created_at"`
}

type sendRequest struct {
	Content string `json:"content"`
}

// Time parses CreatedAt. The backend emits both naive UTC and offset datetimes; a missing zone means UTC.
func (m Message) Time() (time.Time, error) {
	return ParseTimestamp(m.CreatedAt)
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02T15:04:05.999999999Z07:00",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05",
}

func ParseTimestamp(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}

	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}

	return time.Time{}, fmt.Errorf("unsupported timestamp %q", value)
}

// StartConversation starts the recruiter chat for an application or returns the existing opener.
func (c *Client) StartConversation(ctx context.Context, applicationID int) (*Message, error) {
	var msg Message
	if err := c.postJSON(ctx, fmt.Sprintf("%s/%d/start", recruiterPath, applicationID), nil, &msg); err != nil {
		return nil, fmt.Errorf("start conversation: %w", err)
	}

	return &msg, nil
}

func (c *Client) Messages(ctx context.Context, applicationID int) ([]Message, error) {
	var msgs []Message
	if err := c.getJSON(ctx, fmt.Sprintf("%s/%d/messages", recruiterPath, applicationID), nil, &msgs); err != nil {
		return nil, fmt.Errorf("get messages: %w", err)
	}

	return msgs, nil
}

// SendMessage posts a candidate message and returns the recruiter reply.
func (c *Client) SendMessage(ctx context.Context, applicationID int, content string) (*Message, error) {
	var reply Message
	payload := sendRequest{Content: content}
	if err := c.postJSON(ctx, fmt.Sprintf("%s/%d/message", recruiterPath, applicationID), payload, &reply); err != nil {
		return nil, fmt.Errorf("send message: %w", err)
	}

	return &reply, nil
}
