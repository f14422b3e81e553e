package api

import (
	"context"
	"net/http"
	"net/url"
)

// IncomingCall returns the pending call notification, or nil when there is
// none. Each result supersedes the previous one.
func (c *Client) IncomingCall(ctx context.Context) (*IncomingCall, error) {
	var res struct {
		Call *IncomingCall `json:"call"`
	}
	if err := c.do(ctx, http.MethodGet, "/calls/incoming", nil, &res); err != nil {
		return nil, err
	}
	return res.Call, nil
}

func (c *Client) AcceptCall(ctx context.Context, messageID string) error {
	return c.do(ctx, http.MethodPost, "/calls/"+url.PathEscape(messageID)+"/accept", nil, nil)
}

func (c *Client) RejectCall(ctx context.Context, messageID string) error {
	return c.do(ctx, http.MethodPost, "/calls/"+url.PathEscape(messageID)+"/reject", nil, nil)
}

// CallToken mints the short-lived credential to join a signaling room. The
// backend keys it by the requesting user and the room both parties derive.
func (c *Client) CallToken(ctx context.Context, userID, roomID string) (string, error) {
	body := map[string]string{
		"userId": userID,
		"roomId": roomID,
	}
	var res struct {
		Token string `json:"token"`
	}
	if err := c.do(ctx, http.MethodPost, "/calls/token", body, &res); err != nil {
		return "", err
	}
	return res.Token, nil
}

// HostedRoom mints a hosted (embedded) room for group or link-based calls.
func (c *Client) HostedRoom(ctx context.Context, kind string) (roomURL, meetingID string, err error) {
	body := map[string]string{"callType": kind}
	var res struct {
		RoomURL   string `json:"roomUrl"`
		MeetingID string `json:"meetingId"`
	}
	if err := c.do(ctx, http.MethodPost, "/calls/rooms", body, &res); err != nil {
		return "", "", err
	}
	return res.RoomURL, res.MeetingID, nil
}
