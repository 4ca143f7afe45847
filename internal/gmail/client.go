// Package gmail wraps the Gmail API for the pipeline: listing candidate
// messages, fetching decoded HTML bodies, and managing the processed label
// that keeps messages from being picked up twice.
package gmail

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gmailapi "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

// Config holds the OAuth2 credentials and request limits for one client.
type Config struct {
	ClientID     string
	ClientSecret string
	RefreshToken string
	AccessToken  string
	MaxResults   int64
}

// Document is the decoded body of one message. HTML is empty when the
// message carries no HTML part. ReceivedAt is the Gmail internalDate, epoch
// milliseconds as a decimal string, empty when unknown.
type Document struct {
	HTML       string
	ReceivedAt string
}

// Client talks to the Gmail API for a single account ("me").
type Client struct {
	svc    *gmailapi.Service
	config *Config
	logger *slog.Logger
}

const userID = "me"

// NewClient builds an authenticated Gmail client. The refresh token mints
// access tokens transparently through the oauth2 transport, so one client
// serves a whole run.
func NewClient(ctx context.Context, config *Config, logger *slog.Logger) (*Client, error) {
	svc, err := gmailapi.NewService(ctx, option.WithHTTPClient(OAuthHTTPClient(ctx, config)))
	if err != nil {
		return nil, fmt.Errorf("create gmail service: %w", err)
	}
	return &Client{svc: svc, config: config, logger: logger}, nil
}

// OAuthHTTPClient returns an HTTP client that injects bearer tokens minted
// from the configured refresh token. The sheets client reuses it so both
// APIs share one credential lifecycle per run.
func OAuthHTTPClient(ctx context.Context, config *Config) *http.Client {
	oauthConfig := &oauth2.Config{
		ClientID:     config.ClientID,
		ClientSecret: config.ClientSecret,
		Scopes: []string{
			gmailapi.GmailModifyScope,
			"https://www.googleapis.com/auth/spreadsheets",
		},
		Endpoint: google.Endpoint,
	}
	token := &oauth2.Token{
		AccessToken:  config.AccessToken,
		RefreshToken: config.RefreshToken,
		TokenType:    "Bearer",
	}
	return oauthConfig.Client(ctx, token)
}

// ListMessageIDs returns the IDs of every message matching the query,
// following pagination to the end. The query is expected to exclude the
// processed label so the result is the whole remaining backlog.
func (c *Client) ListMessageIDs(ctx context.Context, query string) ([]string, error) {
	var ids []string
	req := c.svc.Users.Messages.List(userID).Q(query)
	if c.config.MaxResults > 0 {
		req = req.MaxResults(c.config.MaxResults)
	}
	err := req.Pages(ctx, func(resp *gmailapi.ListMessagesResponse) error {
		for _, m := range resp.Messages {
			ids = append(ids, m.Id)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	c.logger.Debug("listed messages", "query", query, "count", len(ids))
	return ids, nil
}

// Document fetches one message and returns its decoded HTML part and
// received timestamp.
func (c *Client) Document(ctx context.Context, id string) (Document, error) {
	msg, err := c.svc.Users.Messages.Get(userID, id).Format("full").Context(ctx).Do()
	if err != nil {
		return Document{}, fmt.Errorf("get message %s: %w", id, err)
	}

	doc := Document{HTML: findHTMLPart(msg.Payload)}
	if msg.InternalDate > 0 {
		doc.ReceivedAt = strconv.FormatInt(msg.InternalDate, 10)
	}
	return doc, nil
}

// findHTMLPart walks the MIME tree and returns the first decoded text/html
// part, or "" when none exists.
func findHTMLPart(part *gmailapi.MessagePart) string {
	if part == nil {
		return ""
	}
	if part.MimeType == "text/html" && part.Body != nil && part.Body.Data != "" {
		if decoded, err := base64.URLEncoding.DecodeString(part.Body.Data); err == nil {
			return string(decoded)
		}
	}
	for _, p := range part.Parts {
		if html := findHTMLPart(p); html != "" {
			return html
		}
	}
	return ""
}

// EnsureLabel returns the ID of the named label, creating it if absent.
func (c *Client) EnsureLabel(ctx context.Context, name string) (string, error) {
	resp, err := c.svc.Users.Labels.List(userID).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("list labels: %w", err)
	}
	for _, l := range resp.Labels {
		if l.Name == name {
			return l.Id, nil
		}
	}

	created, err := c.svc.Users.Labels.Create(userID, &gmailapi.Label{
		Name:                  name,
		LabelListVisibility:   "labelShow",
		MessageListVisibility: "show",
	}).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("create label %q: %w", name, err)
	}
	c.logger.Info("created label", "name", name, "id", created.Id)
	return created.Id, nil
}

// ApplyLabel marks one message as processed.
func (c *Client) ApplyLabel(ctx context.Context, msgID, labelID string) error {
	_, err := c.svc.Users.Messages.Modify(userID, msgID, &gmailapi.ModifyMessageRequest{
		AddLabelIds: []string{labelID},
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("apply label to %s: %w", msgID, err)
	}
	return nil
}

// HealthCheck verifies the account is reachable with the configured
// credentials.
func (c *Client) HealthCheck(ctx context.Context) error {
	profile, err := c.svc.Users.GetProfile(userID).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("get gmail profile: %w", err)
	}
	c.logger.Info("connected to gmail", "account", profile.EmailAddress)
	return nil
}
