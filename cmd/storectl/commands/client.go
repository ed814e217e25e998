package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/coldvault/core/pkg/transport/svcauth"
)

// newOperatorToken signs a short-lived operator token from the --secret and
// --principal flags, matching the service-auth scheme buckets and the
// index use between themselves.
func newOperatorToken(kind string) (string, error) {
	if secret == "" {
		return "", fmt.Errorf("--secret is required")
	}
	svc, err := svcauth.New(svcauth.Config{Secret: secret, Issuer: "storectl", TokenTTL: time.Duration(httpTimeoutS*10) * time.Second})
	if err != nil {
		return "", fmt.Errorf("build service-auth signer: %w", err)
	}
	return svc.IssueToken(svcauth.Principal(principal), kind)
}

// apiCall issues one request to a target's wire API, signing an operator
// token fresh for every call.
func apiCall(ctx context.Context, method, baseURL, path string, body, out any) error {
	if baseURL == "" {
		return fmt.Errorf("target URL is required")
	}
	token, err := newOperatorToken("operator")
	if err != nil {
		return err
	}

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	client := &http.Client{Timeout: time.Duration(httpTimeoutS) * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var problem struct {
			Title  string `json:"title"`
			Detail string `json:"detail"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&problem)
		if problem.Detail != "" {
			return fmt.Errorf("%s: %s (status %d)", problem.Title, problem.Detail, resp.StatusCode)
		}
		return fmt.Errorf("unexpected status %d from %s", resp.StatusCode, baseURL+path)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
