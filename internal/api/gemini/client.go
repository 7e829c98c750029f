package gemini

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"google.golang.org/genai"

	"github.com/Alias1177/stockgpt/internal/analyze"
	"github.com/Alias1177/stockgpt/models"
)

const DefaultModel = "gemini-2.5-flash"

// Config for the Gemini client
type Config struct {
	APIKey         string
	Model          string
	ThinkingBudget int32
	HTTPClient     *http.Client
}

// Client wraps the Gemini API client. It implements analyze.Generator and
// issues exactly one grounded generation call per Generate.
type Client struct {
	client *genai.Client
	model  string
	budget int32
	logger zerolog.Logger
}

// NewClient creates a new Gemini client
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, analyze.Tag(analyze.CodeMissingCredential, errors.New("gemini API key is empty"))
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: cfg.HTTPClient,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client failed: %w", err)
	}

	return &Client{
		client: client,
		model:  cfg.Model,
		budget: cfg.ThinkingBudget,
		logger: log.With().Str("component", "gemini_client").Str("model", cfg.Model).Logger(),
	}, nil
}

// Generate sends the prompt with Google Search grounding enabled
func (c *Client) Generate(ctx context.Context, prompt analyze.Prompt) (*analyze.Reply, error) {
	c.logger.Debug().Str("query", prompt.UserContent).Msg("Sending prompt to Gemini")

	resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(prompt.UserContent), c.requestConfig(prompt))
	if err != nil {
		c.logger.Error().Err(err).Msg("Gemini API error")
		return nil, translateError(err)
	}

	reply := toReply(resp)
	if reply.Text == "" {
		c.logger.Warn().
			Str("finish_reason", reply.FinishReason).
			Str("block_reason", reply.BlockReason).
			Msg("Gemini returned empty text")
	}
	return reply, nil
}

func (c *Client) requestConfig(prompt analyze.Prompt) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(prompt.SystemInstruction, genai.RoleUser),
		Tools:             []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}},
	}
	if c.budget > 0 {
		cfg.ThinkingConfig = &genai.ThinkingConfig{ThinkingBudget: genai.Ptr(c.budget)}
	}
	return cfg
}

// toReply flattens the first candidate and its grounding metadata
func toReply(resp *genai.GenerateContentResponse) *analyze.Reply {
	reply := &analyze.Reply{}
	if resp == nil {
		return reply
	}
	if resp.PromptFeedback != nil {
		reply.BlockReason = string(resp.PromptFeedback.BlockReason)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0] == nil {
		return reply
	}

	reply.Text = resp.Text()
	candidate := resp.Candidates[0]
	reply.FinishReason = string(candidate.FinishReason)
	reply.Grounding = toGrounding(candidate.GroundingMetadata)
	return reply
}

func toGrounding(meta *genai.GroundingMetadata) *models.Grounding {
	if meta == nil {
		return nil
	}

	g := &models.Grounding{WebSearchQueries: meta.WebSearchQueries}
	for _, chunk := range meta.GroundingChunks {
		if chunk == nil || chunk.Web == nil || chunk.Web.URI == "" {
			continue
		}
		g.Sources = append(g.Sources, models.GroundingSource{
			Title: chunk.Web.Title,
			URI:   chunk.Web.URI,
		})
	}
	if len(g.WebSearchQueries) == 0 && len(g.Sources) == 0 {
		return nil
	}
	return g
}

// translateError tags SDK failures so the analyzer never has to read
// free text to classify them.
func translateError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return err
	}

	for cur := err; cur != nil; cur = errors.Unwrap(cur) {
		switch e := any(cur).(type) {
		case genai.APIError:
			return wrapStatus(err, e)
		case *genai.APIError:
			if e != nil {
				return wrapStatus(err, *e)
			}
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return analyze.Tag(analyze.CodeTimeout, err)
		}
		return analyze.Tag(analyze.CodeNetworkError, err)
	}
	return err
}

func wrapStatus(err error, apiErr genai.APIError) error {
	return fmt.Errorf("%w: %v", &analyze.StatusError{
		StatusCode: apiErr.Code,
		Status:     apiErr.Status,
		Message:    apiErr.Message,
	}, err)
}
