package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"

	"chat-relay/models"
)

// ParseErrorMarker is returned as the relay result when the upstream body
// cannot be parsed as JSON. The HTTP call still succeeds in that case: the
// client receives a 200 with this marker as the plain-text body.
const ParseErrorMarker = "[Error: Failed to parse Gemini response]"

// maxUpstreamBody caps how many bytes of the upstream stream are buffered.
const maxUpstreamBody = 16 << 20 // 16 MiB

// ErrAPIKeyMissing is returned when no Gemini API key was configured.
var ErrAPIKeyMissing = fmt.Errorf("GEMINI_API_KEY not set")

// UpstreamError carries a non-success upstream status so the handler can pass
// it through verbatim, with the upstream's own error payload as details.
type UpstreamError struct {
	StatusCode int
	Details    interface{}
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream returned status %d", e.StatusCode)
}

// RelayService forwards a conversation to the generative-language API and
// returns the aggregated response text.
type RelayService interface {
	// Generate issues one blocking call to the upstream streaming endpoint
	// and returns the concatenated response text. A *UpstreamError is
	// returned for non-success upstream statuses.
	Generate(ctx context.Context, messages []models.ChatMessage) (string, error)
}

type relayService struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
}

// NewRelayService creates a RelayService for the given Gemini endpoint. The
// API key is process-wide configuration, read once at startup.
func NewRelayService(apiKey, baseURL, model string, httpClient *http.Client) RelayService {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &relayService{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		httpClient: httpClient,
	}
}

// Gemini request schema.
type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role"`
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

// Gemini response schema, one fragment of the streamed array.
type geminiFragment struct {
	Candidates []struct {
		Content struct {
			Parts []geminiPart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	PromptFeedback struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
}

func (s *relayService) Generate(ctx context.Context, messages []models.ChatMessage) (string, error) {
	if s.apiKey == "" {
		log.Println("ERROR: [RelayService] Gemini API key is not configured.")
		return "", ErrAPIKeyMissing
	}

	contents := make([]geminiContent, 0, len(messages))
	for _, msg := range messages {
		role := "model" // Gemini uses "model" for assistant messages
		if msg.Role == models.RoleUser {
			role = "user"
		}
		contents = append(contents, geminiContent{
			Role:  role,
			Parts: []geminiPart{{Text: msg.Content}},
		})
	}

	body, err := json.Marshal(geminiRequest{Contents: contents})
	if err != nil {
		return "", fmt.Errorf("failed to encode upstream request: %w", err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:streamGenerateContent", s.baseURL, s.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(body))
	if err != nil {
		return "", fmt.Errorf("failed to build upstream request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", s.apiKey)

	log.Printf("INFO: [RelayService] Calling Gemini API (%d messages, model %s).", len(messages), s.model)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		log.Printf("ERROR: [RelayService] Upstream request failed: %v", err)
		return "", fmt.Errorf("upstream request failed: %w", err)
	}
	defer resp.Body.Close()

	log.Printf("INFO: [RelayService] Gemini API response status: %d", resp.StatusCode)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", s.upstreamError(resp)
	}

	// The streaming endpoint emits a JSON array of fragments. Consume the
	// stream to completion before parsing; nothing is forwarded incrementally
	// to the caller. The read is bounded to guard against unbounded growth.
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxUpstreamBody))
	if err != nil {
		log.Printf("ERROR: [RelayService] Failed to read upstream stream: %v", err)
		return "", fmt.Errorf("failed to read upstream response: %w", err)
	}

	return extractText(raw), nil
}

// upstreamError parses a non-success upstream body, best effort, so the
// caller can surface the same status with the upstream's own details.
func (s *relayService) upstreamError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxUpstreamBody))
	var details interface{}
	if err := json.Unmarshal(raw, &details); err != nil {
		log.Printf("ERROR: [RelayService] Upstream error body is not JSON (status %d).", resp.StatusCode)
		details = nil
	} else {
		log.Printf("ERROR: [RelayService] Gemini API error response (status %d): %s", resp.StatusCode, raw)
	}
	return &UpstreamError{StatusCode: resp.StatusCode, Details: details}
}

// extractText concatenates the generated text of every fragment, in array
// order. Fragments withheld for policy reasons contribute a bracketed marker
// naming the block reason instead of text. An unparsable payload yields
// ParseErrorMarker.
func extractText(raw []byte) string {
	var fragments []geminiFragment
	if err := json.Unmarshal(raw, &fragments); err != nil {
		// Not an array: the non-streaming shape is a single object.
		var single geminiFragment
		if err := json.Unmarshal(raw, &single); err != nil {
			log.Printf("ERROR: [RelayService] Failed to parse upstream response: %v", err)
			return ParseErrorMarker
		}
		fragments = []geminiFragment{single}
	}

	var full strings.Builder
	for _, fragment := range fragments {
		text := ""
		if len(fragment.Candidates) > 0 && len(fragment.Candidates[0].Content.Parts) > 0 {
			text = fragment.Candidates[0].Content.Parts[0].Text
		}
		if text != "" {
			full.WriteString(text)
		} else if fragment.PromptFeedback.BlockReason != "" {
			log.Printf("WARN: [RelayService] Gemini content blocked: %s", fragment.PromptFeedback.BlockReason)
			full.WriteString(fmt.Sprintf("[Blocked: %s]", fragment.PromptFeedback.BlockReason))
		}
	}
	return full.String()
}
