package messaging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"github.com/goldtouchmobile/booking-relay/pkg/logging"
)

const textMagicAPIURL = "https://rest.textmagic.com/api/v2/messages"

// TextMagicSender posts SMS messages using TextMagic's REST API.
type TextMagicSender struct {
	username   string
	apiKey     string
	from       string
	baseURL    string
	httpClient *http.Client
	logger     *logging.Logger
}

// NewTextMagicSender builds a sender with sane defaults.
func NewTextMagicSender(username, apiKey, from string, logger *logging.Logger) *TextMagicSender {
	if logger == nil {
		logger = logging.Default()
	}
	return &TextMagicSender{
		username: username,
		apiKey:   apiKey,
		from:     from,
		baseURL:  textMagicAPIURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: logger,
	}
}

// WithBaseURL overrides the API endpoint (for testing).
func (s *TextMagicSender) WithBaseURL(url string) *TextMagicSender {
	if url != "" {
		s.baseURL = url
	}
	return s
}

var _ Sender = (*TextMagicSender)(nil)

// Send dispatches a single SMS, retrying transient failures.
func (s *TextMagicSender) Send(ctx context.Context, to, body string) error {
	if s.username == "" || s.apiKey == "" {
		return errors.New("messaging: textmagic credentials missing")
	}
	to = NormalizeE164(to)
	if to == "" {
		return errors.New("messaging: to required")
	}
	if strings.TrimSpace(body) == "" {
		return errors.New("messaging: body required")
	}

	payload, err := json.Marshal(map[string]string{
		"text":   body,
		"phones": to,
		"from":   s.from,
	})
	if err != nil {
		return fmt.Errorf("messaging: marshal payload: %w", err)
	}

	var lastErr error
	for attempt := 1; attempt <= 3; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL, bytes.NewReader(payload))
		if err != nil {
			lastErr = err
			break
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-TM-Username", s.username)
		req.Header.Set("X-TM-Key", s.apiKey)

		resp, err := s.httpClient.Do(req)
		if err != nil {
			lastErr = err
		} else {
			respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			resp.Body.Close()
			if resp.StatusCode >= 200 && resp.StatusCode < 300 {
				var parsed struct {
					ID json.Number `json:"id"`
				}
				_ = json.Unmarshal(respBody, &parsed)
				s.logger.Info("textmagic sms sent", "to", to, "message_id", parsed.ID.String())
				return nil
			}
			lastErr = fmt.Errorf("textmagic send failed: %s", formatAPIError(resp.StatusCode, respBody))
			// Don't retry non-rate-limit 4xx errors.
			if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != 429 {
				break
			}
		}

		if attempt < 3 {
			sleep := time.Duration(200+rand.Intn(300)) * time.Millisecond
			time.Sleep(sleep)
		}
	}

	return lastErr
}

type textMagicAPIError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func formatAPIError(status int, body []byte) string {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return fmt.Sprintf("status %d", status)
	}
	var parsed textMagicAPIError
	if err := json.Unmarshal([]byte(trimmed), &parsed); err == nil && parsed.Message != "" {
		if parsed.Code != 0 {
			return fmt.Sprintf("status %d code %d: %s", status, parsed.Code, parsed.Message)
		}
		return fmt.Sprintf("status %d: %s", status, parsed.Message)
	}
	return fmt.Sprintf("status %d: %s", status, trimmed)
}
