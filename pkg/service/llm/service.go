package llm

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"strings"
	"text/template"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	"github.com/whatthepack/whatthepack/pkg/domain/model"
	"github.com/whatthepack/whatthepack/pkg/domain/types"
)

// Error tags for categorization
var (
	ErrTagInvalidJSON   = goerr.NewTag("invalid_json")
	ErrTagEmptyResponse = goerr.NewTag("empty_response")
	ErrTagNoItems       = goerr.NewTag("no_items")
)

//go:embed templates/*.md
var templateFS embed.FS

// Service handles LLM operations: briefing prose and order-draft parsing
type Service struct {
	llmClient gollem.LLMClient
}

// NewService creates a new Service instance
func NewService(llmClient gollem.LLMClient) *Service {
	return &Service{
		llmClient: llmClient,
	}
}

// OrderDraftItem is one parsed line of an order draft
type OrderDraftItem struct {
	ProductID types.ProductID `json:"product_id"`
	Quantity  int             `json:"quantity"`
}

// OrderDraft is the structured result of parsing a free-text order request
type OrderDraft struct {
	Items []OrderDraftItem `json:"items"`
	Note  string           `json:"note"`
}

// GenerateBriefingProse turns an aggregated briefing into short prose for the
// daily email. Callers fall back to the deterministic formatter on error.
func (s *Service) GenerateBriefingProse(ctx context.Context, briefing *model.Briefing) (string, error) {
	prompt, err := renderTemplate("templates/briefing.md", briefing)
	if err != nil {
		return "", err
	}

	session, err := s.llmClient.NewSession(ctx)
	if err != nil {
		return "", goerr.Wrap(err, "failed to create LLM session")
	}

	response, err := session.GenerateContent(ctx, gollem.Text(prompt))
	if err != nil {
		return "", goerr.Wrap(err, "failed to generate briefing prose")
	}

	if len(response.Texts) == 0 || strings.TrimSpace(response.Texts[0]) == "" {
		return "", goerr.New("empty response from LLM",
			goerr.T(ErrTagEmptyResponse))
	}

	return strings.TrimSpace(response.Texts[0]), nil
}

// orderDraftTemplateData contains data for the order-draft parsing template
type orderDraftTemplateData struct {
	Products []*model.Product
	Text     string
}

// ParseOrderDraft converts a free-text order request into a structured draft,
// validated against the store's product catalog. Items referencing unknown
// products or non-positive quantities are dropped; a draft with no valid
// items left is an error.
func (s *Service) ParseOrderDraft(ctx context.Context, text string, products []*model.Product) (*OrderDraft, error) {
	if strings.TrimSpace(text) == "" {
		return nil, goerr.New("no order text provided")
	}

	prompt, err := renderTemplate("templates/order_draft.md", orderDraftTemplateData{
		Products: products,
		Text:     text,
	})
	if err != nil {
		return nil, err
	}

	session, err := s.llmClient.NewSession(ctx, gollem.WithSessionContentType(gollem.ContentTypeJSON))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create LLM session")
	}

	response, err := session.GenerateContent(ctx, gollem.Text(prompt))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to generate order draft")
	}

	if len(response.Texts) == 0 || response.Texts[0] == "" {
		return nil, goerr.New("empty response from LLM",
			goerr.T(ErrTagEmptyResponse))
	}

	var draft OrderDraft
	if err := json.Unmarshal([]byte(response.Texts[0]), &draft); err != nil {
		return nil, goerr.Wrap(err, "failed to parse LLM response as JSON",
			goerr.V("response", response.Texts[0]),
			goerr.T(ErrTagInvalidJSON))
	}

	known := make(map[types.ProductID]bool, len(products))
	for _, p := range products {
		known[p.ID] = true
	}

	valid := make([]OrderDraftItem, 0, len(draft.Items))
	for _, item := range draft.Items {
		if !known[item.ProductID] || item.Quantity <= 0 {
			continue
		}
		valid = append(valid, item)
	}
	if len(valid) == 0 {
		return nil, goerr.New("order draft has no valid items",
			goerr.V("response", response.Texts[0]),
			goerr.T(ErrTagNoItems))
	}
	draft.Items = valid

	return &draft, nil
}

// renderTemplate renders one of the embedded prompt templates
func renderTemplate(name string, data any) (string, error) {
	content, err := templateFS.ReadFile(name)
	if err != nil {
		return "", goerr.Wrap(err, "failed to read prompt template",
			goerr.V("template", name))
	}

	tmpl, err := template.New(name).Parse(string(content))
	if err != nil {
		return "", goerr.Wrap(err, "failed to parse prompt template",
			goerr.V("template", name))
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", goerr.Wrap(err, "failed to execute prompt template",
			goerr.V("template", name))
	}

	return buf.String(), nil
}
