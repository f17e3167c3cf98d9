package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"partner-edge/internal/domain"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const (
	messagingScope  = "https://www.googleapis.com/auth/firebase.messaging"
	defaultEndpoint = "https://fcm.googleapis.com/v1/projects/%s/messages:send"
)

// ErrUnregistered reports a device token the push gateway no longer accepts.
var ErrUnregistered = errors.New("device token is no longer registered")

type fcmRequest struct {
	Message fcmMessage `json:"message"`
}

type fcmMessage struct {
	Token string            `json:"token"`
	Data  map[string]string `json:"data"`
}

// FCMSender sends data messages through the FCM HTTP v1 API.
type FCMSender struct {
	endpoint string
	client   *http.Client
}

// NewFCMSender authenticates with a service account key. base carries the outbound timeout.
func NewFCMSender(ctx context.Context, projectID, serviceAccountJSON string, base *http.Client) (*FCMSender, error) {
	if projectID == "" || serviceAccountJSON == "" {
		return nil, domain.NewServerConfigError(errors.New("push gateway credentials not configured"))
	}
	cfg, err := google.JWTConfigFromJSON([]byte(serviceAccountJSON), messagingScope)
	if err != nil {
		return nil, fmt.Errorf("failed to parse service account: %w", err)
	}
	if base != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, base)
	}
	client := cfg.Client(ctx)
	if base != nil {
		client.Timeout = base.Timeout
	}
	return NewFCMSenderWithClient(fmt.Sprintf(defaultEndpoint, projectID), client), nil
}

// NewFCMSenderWithClient posts to endpoint with an already authenticated client.
func NewFCMSenderWithClient(endpoint string, client *http.Client) *FCMSender {
	return &FCMSender{endpoint: endpoint, client: client}
}

// Send delivers one notification to one device.
func (s *FCMSender) Send(ctx context.Context, deviceToken string, n domain.Notification) error {
	body, err := json.Marshal(fcmRequest{Message: fcmMessage{
		Token: deviceToken,
		Data: map[string]string{
			"type":     n.Type,
			"title":    n.Title,
			"body":     n.Body,
			"priority": n.Priority,
			"url":      n.URL,
		},
	}})
	if err != nil {
		return fmt.Errorf("failed to encode push message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build push request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send push message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if resp.StatusCode == http.StatusNotFound || strings.Contains(string(respBody), "UNREGISTERED") {
		return ErrUnregistered
	}
	return fmt.Errorf("push gateway returned status %d, body: %s", resp.StatusCode, respBody)
}
