// Package openai implements the image describer on an OpenAI-compatible
// vision chat API.
package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/imgdex/internal/domain"
	"github.com/kailas-cloud/imgdex/internal/domain/image"
	"github.com/kailas-cloud/imgdex/internal/metrics"
)

const describePrompt = `Describe this image for a search index. Reply with a JSON object only:
{"description": string, "tags": [string], "scene": string, "objects": [string],
"palette": string, "ocr_text": string, "confidence": number between 0 and 1}.
"scene" is one lowercase word or short phrase (e.g. "beach", "city street", "portrait").`

// Describer generates image metadata with a vision-capable chat model.
type Describer struct {
	client    *openai.Client
	model     string
	maxTokens int
	user      string
	provider  string
	logger    *zap.Logger
}

// Config holds the describer provider settings.
type Config struct {
	APIKey    string
	BaseURL   string
	Model     string
	MaxTokens int
	User      string
	Provider  string
	Logger    *zap.Logger
}

// NewDescriber creates an OpenAI-compatible describer.
func NewDescriber(cfg *Config) *Describer {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return &Describer{
		client:    openai.NewClientWithConfig(clientCfg),
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
		user:      cfg.User,
		provider:  cfg.Provider,
		logger:    cfg.Logger,
	}
}

// visionReply is the JSON object the model is asked to return.
type visionReply struct {
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	Scene       string   `json:"scene"`
	Objects     []string `json:"objects"`
	Palette     string   `json:"palette"`
	OCRText     string   `json:"ocr_text"`
	Confidence  float64  `json:"confidence"`
}

// Describe implements domain.Describer.
func (d *Describer) Describe(ctx context.Context, rec image.Record) (domain.DescribeResult, error) {
	imageURL := rec.URL
	if rec.ThumbnailURL != "" {
		imageURL = rec.ThumbnailURL
	}
	if imageURL == "" {
		return domain.DescribeResult{}, fmt.Errorf("image %s has no url: %w", rec.ID, domain.ErrInvalidQuery)
	}

	req := openai.ChatCompletionRequest{
		Model: d.model,
		Messages: []openai.ChatCompletionMessage{{
			Role: openai.ChatMessageRoleUser,
			MultiContent: []openai.ChatMessagePart{
				{Type: openai.ChatMessagePartTypeText, Text: describePrompt},
				{Type: openai.ChatMessagePartTypeImageURL, ImageURL: &openai.ChatMessageImageURL{
					URL:    imageURL,
					Detail: openai.ImageURLDetailLow,
				}},
			},
		}},
		ResponseFormat: &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject},
		MaxTokens:      d.maxTokens,
		User:           d.user,
	}

	start := time.Now()
	resp, err := d.client.CreateChatCompletion(ctx, req)
	duration := time.Since(start)

	if err != nil {
		d.fail("api_error")
		return domain.DescribeResult{}, parseAPIError(err)
	}
	if len(resp.Choices) == 0 {
		d.fail("empty_response")
		return domain.DescribeResult{}, fmt.Errorf("empty describe response: %w", domain.ErrDescriberUnavailable)
	}

	reply, err := parseReply(resp.Choices[0].Message.Content)
	if err != nil {
		d.fail("bad_response")
		d.logger.Warn("Unparseable describe reply", zap.String("image_id", rec.ID), zap.Error(err))
		return domain.DescribeResult{}, fmt.Errorf("parse describe reply: %w: %w", err, domain.ErrDescriberUnavailable)
	}

	metrics.DescriberRequestsTotal.WithLabelValues(d.provider, d.model, "success").Inc()
	metrics.DescriberRequestDuration.WithLabelValues(d.provider, d.model).Observe(duration.Seconds())
	if resp.Usage.TotalTokens > 0 {
		metrics.DescriberTokensTotal.WithLabelValues(d.provider, d.model, "prompt").Add(float64(resp.Usage.PromptTokens))
		metrics.DescriberTokensTotal.WithLabelValues(d.provider, d.model, "total").Add(float64(resp.Usage.TotalTokens))
	}

	return domain.DescribeResult{
		Metadata: image.Metadata{
			AIDescription: strings.TrimSpace(reply.Description),
			AITags:        normalizeList(reply.Tags),
			Scene:         strings.ToLower(strings.TrimSpace(reply.Scene)),
			Objects:       normalizeList(reply.Objects),
			Palette:       strings.TrimSpace(reply.Palette),
			OCRText:       strings.TrimSpace(reply.OCRText),
			Confidence:    reply.Confidence,
		},
		PromptTokens: resp.Usage.PromptTokens,
		TotalTokens:  resp.Usage.TotalTokens,
	}, nil
}

// HealthCheck verifies API availability via ListModels (free endpoint).
func (d *Describer) HealthCheck(ctx context.Context) error {
	if _, err := d.client.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}

func (d *Describer) fail(errorType string) {
	metrics.DescriberRequestsTotal.WithLabelValues(d.provider, d.model, "error").Inc()
	metrics.DescriberErrorsTotal.WithLabelValues(d.provider, d.model, errorType).Inc()
}

// parseReply accepts a bare JSON object or one wrapped in a markdown fence.
func parseReply(content string) (visionReply, error) {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")

	var reply visionReply
	if err := json.Unmarshal([]byte(strings.TrimSpace(content)), &reply); err != nil {
		return visionReply{}, err
	}
	if reply.Description == "" && len(reply.Tags) == 0 {
		return visionReply{}, errors.New("reply has neither description nor tags")
	}
	return reply, nil
}

func normalizeList(in []string) []string {
	var out []string
	for _, s := range in {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// parseAPIError extracts a readable message from the API response.
// Every error wraps domain.ErrDescriberUnavailable so transport maps it to 502.
func parseAPIError(err error) error {
	wrap := domain.ErrDescriberUnavailable

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		if detail := extractDetail(reqErr.Body); detail != "" {
			return fmt.Errorf("describe API error %d: %s: %w", reqErr.HTTPStatusCode, detail, wrap)
		}
		return fmt.Errorf("describe API error %d: %s: %w", reqErr.HTTPStatusCode, string(reqErr.Body), wrap)
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("describe API error %d: %s: %w", apiErr.HTTPStatusCode, apiErr.Message, wrap)
	}

	return fmt.Errorf("describe request failed: %v: %w", err, wrap)
}

// extractDetail reads the "detail" field some OpenAI-compatible gateways use for errors.
func extractDetail(body []byte) string {
	var parsed struct {
		Detail string `json:"detail"`
	}
	if json.Unmarshal(body, &parsed) == nil && parsed.Detail != "" {
		return parsed.Detail
	}
	return ""
}
