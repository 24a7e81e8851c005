package completion

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/sashabaranov/go-openai"

	"menuscan/internal/menu"
	"menuscan/pkg/models"
)

type fakeChat struct {
	replies []string
	errs    []error
	calls   int
	last    openai.ChatCompletionRequest
}

func (f *fakeChat) CreateChatCompletion(_ context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	i := f.calls
	f.calls++
	f.last = req
	if i < len(f.errs) && f.errs[i] != nil {
		return openai.ChatCompletionResponse{}, f.errs[i]
	}
	if i >= len(f.replies) {
		return openai.ChatCompletionResponse{}, nil
	}
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Content: f.replies[i]}},
		},
	}, nil
}

func menuItems() []models.ParsedItem {
	return []models.ParsedItem{
		{Category: "MAINS", Name: "Burger", Price: "$12", Tags: []string{}},
		{Category: "MAINS", Name: "Salad", Tags: []string{}},
		{Category: "MAINS", Name: "Soup", Tags: []string{}},
		{Category: "MAINS", Name: "Bread", Tags: []string{}},
		{Category: "MAINS", Name: "", Tags: []string{}},
	}
}

func TestCompleteFillsOnlyMissingPrices(t *testing.T) {
	chat := &fakeChat{replies: []string{
		`{"prices": {"Burger": "$99", "Salad": "$9", "Soup": "ask your server", "Bread": "Complimentary"}}`,
	}}
	c := NewChatGPTCompleterWithClient(chat, Config{}, nil)

	items := menuItems()
	lines := []menu.Line{{Text: "Salad"}, {Text: "$9"}}
	filled, err := c.Complete(context.Background(), items, lines)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}

	if items[0].Price != "$12" {
		t.Errorf("existing price overwritten: %q", items[0].Price)
	}
	if items[1].Price != "$9" {
		t.Errorf("Salad price = %q, want $9", items[1].Price)
	}
	if items[2].Price != "" {
		t.Errorf("Soup price = %q, want empty", items[2].Price)
	}
	if items[3].Price != "0" {
		t.Errorf("Bread price = %q, want 0", items[3].Price)
	}
	if len(filled) != 2 || filled[0].Index != 1 || filled[1].Index != 3 {
		t.Errorf("filled = %+v", filled)
	}

	if chat.last.Model != DefaultConfig().Model {
		t.Errorf("model = %q", chat.last.Model)
	}
	user := chat.last.Messages[1].Content
	if !strings.Contains(user, `"Salad"`) || strings.Contains(user, `"Burger"`) {
		t.Errorf("prompt should list only unpriced items:\n%s", user)
	}
	if !strings.Contains(user, "$9\n") {
		t.Errorf("prompt should carry menu text:\n%s", user)
	}
}

func TestCompleteNothingMissing(t *testing.T) {
	chat := &fakeChat{}
	c := NewChatGPTCompleterWithClient(chat, Config{}, nil)

	items := []models.ParsedItem{{Name: "Burger", Price: "$12"}}
	filled, err := c.Complete(context.Background(), items, nil)
	if err != nil || filled != nil {
		t.Fatalf("Complete = %v, %v", filled, err)
	}
	if chat.calls != 0 {
		t.Errorf("calls = %d, want 0", chat.calls)
	}
}

func TestCompleteRetries(t *testing.T) {
	chat := &fakeChat{
		errs:    []error{errors.New("rate limited"), nil, nil},
		replies: []string{"", "not json", "```json\n{\"prices\": {\"Salad\": \"8.50\"}}\n```"},
	}
	c := NewChatGPTCompleterWithClient(chat, Config{MaxRetries: 3}, nil)

	items := []models.ParsedItem{{Name: "Salad"}}
	filled, err := c.Complete(context.Background(), items, nil)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if chat.calls != 3 {
		t.Errorf("calls = %d, want 3", chat.calls)
	}
	if len(filled) != 1 || items[0].Price != "8.50" {
		t.Errorf("filled = %+v, price = %q", filled, items[0].Price)
	}
}

func TestCompleteAllAttemptsFail(t *testing.T) {
	boom := errors.New("service down")
	chat := &fakeChat{errs: []error{boom, boom}}
	c := NewChatGPTCompleterWithClient(chat, Config{MaxRetries: 2}, nil)

	items := []models.ParsedItem{{Name: "Salad"}}
	_, err := c.Complete(context.Background(), items, nil)
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want wrapped %v", err, boom)
	}
	if items[0].Price != "" {
		t.Errorf("price changed on failure: %q", items[0].Price)
	}
}

func TestNewChatGPTCompleterRequiresKey(t *testing.T) {
	if _, err := NewChatGPTCompleter(Config{}, nil); !errors.Is(err, ErrNoAPIKey) {
		t.Errorf("err = %v, want ErrNoAPIKey", err)
	}
}
