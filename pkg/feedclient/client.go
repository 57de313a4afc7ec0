// Package feedclient is the Go client for the blognest notification feed:
// an HTTP API client plus the view-model, reply composer and badge poller
// that keep a locally cached feed page consistent with the server.
package feedclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Actor is the compact profile of the user who triggered a notification
type Actor struct {
	ID             uint   `json:"id"`
	Fullname       string `json:"fullname"`
	Username       string `json:"username"`
	ProfilePicture string `json:"profile_picture"`
}

// BlogRef is the populated blog reference; nil when the blog was deleted
type BlogRef struct {
	ID     string `json:"_id"`
	BlogID string `json:"blog_id"`
	Topic  string `json:"topic"`
}

// CommentRef is a populated comment or reply reference
type CommentRef struct {
	ID      string `json:"_id"`
	Comment string `json:"comment"`
}

// Notification is one feed entry as returned by the server. Which
// references are set depends on Type: like carries Blog; comment carries
// Blog and Comment; reply carries Blog, Comment (the parent),
// RepliedOnComment and Reply.
type Notification struct {
	ID               string      `json:"_id"`
	Type             string      `json:"type"`
	Seen             bool        `json:"seen"`
	CreatedAt        time.Time   `json:"createdAt"`
	User             *Actor      `json:"user,omitempty"`
	Blog             *BlogRef    `json:"blog,omitempty"`
	Comment          *CommentRef `json:"comment,omitempty"`
	RepliedOnComment *CommentRef `json:"replied_on_comment,omitempty"`
	Reply            *CommentRef `json:"reply,omitempty"`
}

// APIError is a non-2xx response from the server
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

// Client is the HTTP API client the feed components share. BaseURL points
// at the versioned API root (e.g. https://host/api/v1).
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient creates a Client authenticated with the given bearer token
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: http.DefaultClient,
	}
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var errBody struct {
			Message string `json:"message"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&errBody); err == nil {
			apiErr.Message = errBody.Message
		}
		return apiErr
	}

	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

// FetchFeedPage fetches one feed page. deletedDocCount compensates the
// server-side skip for entries this client removed from its cache since the
// last full fetch.
func (c *Client) FetchFeedPage(ctx context.Context, page int64, filter string, deletedDocCount int64) ([]Notification, error) {
	body := map[string]interface{}{
		"page":            page,
		"filter":          filter,
		"deletedDoccount": deletedDocCount,
	}
	var resp struct {
		Notifications struct {
			Result []Notification `json:"result"`
		} `json:"notifications"`
	}
	if err := c.do(ctx, http.MethodPost, "/notifications/notifications", body, &resp); err != nil {
		return nil, err
	}
	return resp.Notifications.Result, nil
}

// CountNotifications returns the total number of notifications matching the
// filter
func (c *Client) CountNotifications(ctx context.Context, filter string) (int64, error) {
	var resp struct {
		TotalDocs int64 `json:"totalDocs"`
	}
	if err := c.do(ctx, http.MethodPost, "/notifications/all-notification-count", map[string]string{"filter": filter}, &resp); err != nil {
		return 0, err
	}
	return resp.TotalDocs, nil
}

// HasNewNotification reports whether an unseen notification from another
// user is waiting. Read-only on the server; safe to poll.
func (c *Client) HasNewNotification(ctx context.Context) (bool, error) {
	var resp struct {
		Available bool `json:"new_notification_available"`
	}
	if err := c.do(ctx, http.MethodGet, "/notifications/new-notification", nil, &resp); err != nil {
		return false, err
	}
	return resp.Available, nil
}

// MarkAsRead marks a single notification as read by id
func (c *Client) MarkAsRead(ctx context.Context, notificationID string) error {
	return c.do(ctx, http.MethodPatch, "/notifications/"+notificationID+"/mark-as-read", nil, nil)
}

// DeleteComment deletes a comment (or reply) by id
func (c *Client) DeleteComment(ctx context.Context, commentID string) error {
	return c.do(ctx, http.MethodDelete, "/comments/"+commentID, nil, nil)
}

// CreateReply posts a reply to a comment. notificationID, when non-empty,
// names the feed entry the reply was composed from so the server can attach
// the reply to it.
func (c *Client) CreateReply(ctx context.Context, commentID, content, notificationID string) (*CommentRef, error) {
	body := map[string]string{
		"content":         content,
		"notification_id": notificationID,
	}
	var resp struct {
		ID      uint   `json:"ID"`
		Content string `json:"content"`
	}
	if err := c.do(ctx, http.MethodPost, "/comments/"+commentID+"/replies", body, &resp); err != nil {
		return nil, err
	}
	return &CommentRef{
		ID:      strconv.FormatUint(uint64(resp.ID), 10),
		Comment: resp.Content,
	}, nil
}
