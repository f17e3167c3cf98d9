package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"partner-edge/internal/domain"
)

// ChallengeResult is the bot-challenge service's verdict.
type ChallengeResult struct {
	Success    bool     `json:"success"`
	ErrorCodes []string `json:"error-codes,omitempty"`
	Hostname   string   `json:"hostname,omitempty"`
}

// TurnstileClient verifies bot-challenge tokens with the external siteverify endpoint.
type TurnstileClient struct {
	url        string
	secret     string
	httpClient *http.Client
}

// NewTurnstileClient creates a challenge verifier
func NewTurnstileClient(verifyURL, secret string, httpClient *http.Client) *TurnstileClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &TurnstileClient{url: verifyURL, secret: secret, httpClient: httpClient}
}

// Verify returns the service verdict. A non-2xx status or transport failure is a failed challenge (403),
// missing configuration is a server configuration error (500).
func (c *TurnstileClient) Verify(ctx context.Context, token string) (*ChallengeResult, error) {
	if c.url == "" || c.secret == "" {
		return nil, domain.NewServerConfigError(errors.New("bot-challenge verification is not configured"))
	}

	payload, err := json.Marshal(map[string]string{"secret": c.secret, "response": token})
	if err != nil {
		return nil, fmt.Errorf("failed to encode challenge request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return nil, domain.NewServerConfigError(fmt.Errorf("failed to create challenge request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, challengeFailed(fmt.Errorf("failed to call challenge service: %w", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, challengeFailed(fmt.Errorf("failed to read challenge response: %w", err))
	}

	var result ChallengeResult
	if err := json.Unmarshal(body, &result); err != nil {
		result = ChallengeResult{}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		e := challengeFailed(fmt.Errorf("challenge service returned status %d", resp.StatusCode))
		e.Details = result
		return nil, e
	}
	if !result.Success {
		e := challengeFailed(nil)
		e.Details = result
		return nil, e
	}
	return &result, nil
}

func challengeFailed(err error) *domain.Error {
	return &domain.Error{Kind: domain.KindLicense, Message: "Invalid Turnstile token", Err: err}
}
