package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

var turnstileVerifyURL = "https://challenges.cloudflare.com/turnstile/v0/siteverify"

var turnstileClient = &http.Client{Timeout: 10 * time.Second}

type TurnstileResponse struct {
	Success     bool      `json:"success"`
	ChallengeTS time.Time `json:"challenge_ts"`
	Hostname    string    `json:"hostname"`
	ErrorCodes  []string  `json:"error-codes"`
}

// VerifyTurnstileToken checks a Cloudflare Turnstile token from a public form.
// A rejected token is Forbidden; an unreachable verifier is a dependency failure.
func VerifyTurnstileToken(ctx context.Context, token, secretKey, ip string) error {
	if token == "" || secretKey == "" {
		return Forbidden("missing captcha token")
	}

	form := url.Values{
		"secret":   {secretKey},
		"response": {token},
		"remoteip": {ip},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, turnstileVerifyURL, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := turnstileClient.Do(req)
	if err != nil {
		return DependencyFailure("turnstile", err)
	}
	defer resp.Body.Close()

	var result TurnstileResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return DependencyFailure("turnstile", fmt.Errorf("decode response: %w", err))
	}
	if !result.Success {
		return Forbidden(fmt.Sprintf("captcha rejected: %v", result.ErrorCodes))
	}
	return nil
}
