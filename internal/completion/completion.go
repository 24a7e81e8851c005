package completion

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"

	"menuscan/internal/logger"
	"menuscan/internal/menu"
	"menuscan/pkg/models"
)

// ErrNoAPIKey is returned when completion is requested without an OpenAI key.
var ErrNoAPIKey = errors.New("OPENAI_API_KEY is not set")

// maxPromptLines bounds the menu context sent with a request.
const maxPromptLines = 400

// chatClient is the part of *openai.Client the completer uses.
type chatClient interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Config configures the ChatGPT price completer
type Config struct {
	APIKey      string
	Model       string  // gpt-4o-mini, gpt-4o
	Temperature float32 // ChatGPT temperature
	MaxRetries  int     // ChatGPT retry attempts
}

// DefaultConfig returns the completer defaults.
func DefaultConfig() Config {
	return Config{
		Model:       "gpt-4o-mini",
		Temperature: 0.1,
		MaxRetries:  3,
	}
}

// Filled records one price supplied by the model.
type Filled struct {
	Index int    `json:"index"`
	Name  string `json:"name"`
	Price string `json:"price"`
}

// ChatGPTCompleter fills missing item prices by asking ChatGPT to read
// them from the menu text.
type ChatGPTCompleter struct {
	client chatClient
	rules  *menu.Rules
	config Config
	log    zerolog.Logger
}

// chatGPTResponse is the JSON object the model is asked to produce.
type chatGPTResponse struct {
	Prices map[string]string `json:"prices"`
}

// NewChatGPTCompleter creates a completer backed by the OpenAI API.
func NewChatGPTCompleter(cfg Config, rules *menu.Rules) (*ChatGPTCompleter, error) {
	const op = "NewChatGPTCompleter"

	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrNoAPIKey)
	}
	return NewChatGPTCompleterWithClient(openai.NewClient(cfg.APIKey), cfg, rules), nil
}

// NewChatGPTCompleterWithClient creates a completer with an explicit client.
func NewChatGPTCompleterWithClient(client chatClient, cfg Config, rules *menu.Rules) *ChatGPTCompleter {
	defaults := DefaultConfig()
	if cfg.Model == "" {
		cfg.Model = defaults.Model
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = defaults.MaxRetries
	}
	if rules == nil {
		rules = menu.DefaultRules()
	}
	return &ChatGPTCompleter{
		client: client,
		rules:  rules,
		config: cfg,
		log:    logger.WithComponent("completion"),
	}
}

// Complete fills empty prices in items in place and reports which ones it
// filled. Items that already carry a price are never touched. The lines
// give the model the menu text to read prices from.
func (c *ChatGPTCompleter) Complete(ctx context.Context, items []models.ParsedItem, lines []menu.Line) ([]Filled, error) {
	const op = "Complete"

	var missing []int
	for i, it := range items {
		if it.Price == "" && strings.TrimSpace(it.Name) != "" {
			missing = append(missing, i)
		}
	}
	if len(missing) == 0 {
		return nil, nil
	}

	names := make([]string, 0, len(missing))
	for _, i := range missing {
		names = append(names, items[i].Name)
	}

	c.log.Info().
		Int("unpriced", len(missing)).
		Str("model", c.config.Model).
		Msg("Requesting price completion")

	resp, err := c.requestPrices(ctx, names, lines)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var filled []Filled
	for _, i := range missing {
		raw, ok := resp.Prices[items[i].Name]
		if !ok {
			continue
		}
		price, ok := c.acceptPrice(raw)
		if !ok {
			if strings.TrimSpace(raw) != "" {
				c.log.Debug().
					Str("item", items[i].Name).
					Str("price", raw).
					Msg("Rejected completed price")
			}
			continue
		}
		items[i].Price = price
		filled = append(filled, Filled{Index: i, Name: items[i].Name, Price: price})
	}

	c.log.Info().
		Int("filled", len(filled)).
		Int("unpriced", len(missing)).
		Msg("Price completion finished")

	return filled, nil
}

// acceptPrice keeps only answers that read as a price line on their own.
func (c *ChatGPTCompleter) acceptPrice(raw string) (string, bool) {
	price := strings.TrimSpace(raw)
	if price == "" || !c.rules.IsPriceOnly(price) {
		return "", false
	}
	if c.rules.IsComplimentary(price) {
		return "0", true
	}
	return price, true
}

func (c *ChatGPTCompleter) requestPrices(ctx context.Context, names []string, lines []menu.Line) (*chatGPTResponse, error) {
	const op = "requestPrices"

	prompt, err := buildPrompt(names, lines)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var lastErr error
	for attempt := 1; attempt <= c.config.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model:       c.config.Model,
			Temperature: c.config.Temperature,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
				{Role: openai.ChatMessageRoleUser, Content: prompt},
			},
			ResponseFormat: &openai.ChatCompletionResponseFormat{
				Type: openai.ChatCompletionResponseFormatTypeJSONObject,
			},
			MaxTokens: 1000,
		})
		if err != nil {
			lastErr = err
			c.log.Warn().
				Err(err).
				Int("attempt", attempt).
				Int("max_retries", c.config.MaxRetries).
				Msg("ChatGPT request failed, retrying")
			continue
		}

		if len(resp.Choices) == 0 {
			lastErr = errors.New("no response choices from ChatGPT")
			continue
		}

		content := resp.Choices[0].Message.Content
		var parsed chatGPTResponse
		if err := json.Unmarshal([]byte(stripCodeFence(content)), &parsed); err != nil {
			lastErr = fmt.Errorf("failed to parse ChatGPT JSON response: %w", err)
			c.log.Warn().
				Err(err).
				Str("response", content).
				Int("attempt", attempt).
				Msg("Failed to parse ChatGPT response, retrying")
			continue
		}
		return &parsed, nil
	}

	return nil, fmt.Errorf("%s: all %d attempts failed, last error: %w", op, c.config.MaxRetries, lastErr)
}

const systemPrompt = `You read OCR text of restaurant menus and find item prices.
Answer with a JSON object of the form {"prices": {"<item name>": "<price>"}}.
Use the item names exactly as given. Copy each price as printed, for example "$8", "12.50" or "Complimentary".
Use an empty string when the menu text shows no price for an item. Never guess.`

func buildPrompt(names []string, lines []menu.Line) (string, error) {
	list, err := json.Marshal(names)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("Items without a price:\n")
	b.Write(list)
	b.WriteString("\n\nMenu text, top to bottom:\n")
	for i, ln := range lines {
		if i == maxPromptLines {
			break
		}
		b.WriteString(ln.Text)
		b.WriteByte('\n')
	}
	return b.String(), nil
}

// stripCodeFence removes a markdown code fence some models wrap JSON in.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
