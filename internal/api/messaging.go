package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/google/uuid"
)

func (c *Client) Conversations(ctx context.Context) ([]Conversation, error) {
	var convs []Conversation
	if err := c.do(ctx, http.MethodGet, "/conversations", nil, &convs); err != nil {
		return nil, err
	}
	return convs, nil
}

func (c *Client) Messages(ctx context.Context, conversationID string, page, limit int) ([]Message, error) {
	var msgs []Message
	path := fmt.Sprintf("/conversations/%s/messages?page=%d&limit=%d",
		url.PathEscape(conversationID), page, limit)
	if err := c.do(ctx, http.MethodGet, path, nil, &msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}

// SendMessage posts a text message. The client generates the message id so
// the backend can drop duplicates if the request is replayed.
func (c *Client) SendMessage(ctx context.Context, conversationID, text string) (*Message, error) {
	body := map[string]string{
		"clientMessageId": uuid.NewString(),
		"text":            text,
	}
	var m Message
	path := "/conversations/" + url.PathEscape(conversationID) + "/messages"
	if err := c.do(ctx, http.MethodPost, path, body, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

func (c *Client) Notifications(ctx context.Context) ([]Notification, error) {
	var ns []Notification
	if err := c.do(ctx, http.MethodGet, "/notifications", nil, &ns); err != nil {
		return nil, err
	}
	return ns, nil
}

// UnreadCount reports the total unread messages across conversations.
func (c *Client) UnreadCount(ctx context.Context) (int, error) {
	var res struct {
		Count int `json:"count"`
	}
	if err := c.do(ctx, http.MethodGet, "/notifications/unread-count", nil, &res); err != nil {
		return 0, err
	}
	return res.Count, nil
}

func (c *Client) VerificationStatus(ctx context.Context) (*VerificationStatus, error) {
	var vs VerificationStatus
	if err := c.do(ctx, http.MethodGet, "/verification/status", nil, &vs); err != nil {
		return nil, err
	}
	return &vs, nil
}
