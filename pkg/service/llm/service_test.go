package llm_test

import (
	"context"
	"strings"
	"testing"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	"github.com/m-mizutani/gollem/mock"
	"github.com/m-mizutani/gt"
	"github.com/whatthepack/whatthepack/pkg/domain/model"
	"github.com/whatthepack/whatthepack/pkg/domain/types"
	"github.com/whatthepack/whatthepack/pkg/service/llm"
)

func mockLLM(generate func(ctx context.Context, input ...gollem.Input) (*gollem.Response, error)) *mock.LLMClientMock {
	return &mock.LLMClientMock{
		NewSessionFunc: func(ctx context.Context, options ...gollem.SessionOption) (gollem.Session, error) {
			return &mock.SessionMock{GenerateContentFunc: generate}, nil
		},
	}
}

func TestGenerateBriefingProse(t *testing.T) {
	ctx := context.Background()
	briefing := &model.Briefing{
		StoreName:    "Bunga Mawar",
		OrderCount:   12,
		Revenue:      360000,
		Cost:         200000,
		Profit:       160000,
		TrendPercent: 14.5,
		LowStock: []model.Product{
			{Name: "Rose Bouquet", Stock: 2},
		},
	}

	t.Run("success", func(t *testing.T) {
		var gotPrompt string
		client := mockLLM(func(ctx context.Context, input ...gollem.Input) (*gollem.Response, error) {
			if text, ok := input[0].(gollem.Text); ok {
				gotPrompt = string(text)
			}
			return &gollem.Response{Texts: []string{"A good day for Bunga Mawar. "}}, nil
		})
		service := llm.NewService(client)

		prose, err := service.GenerateBriefingProse(ctx, briefing)
		gt.NoError(t, err)
		gt.Equal(t, "A good day for Bunga Mawar.", prose)
		gt.True(t, strings.Contains(gotPrompt, "Bunga Mawar"))
		gt.True(t, strings.Contains(gotPrompt, "Rose Bouquet"))
	})

	t.Run("empty response is an error", func(t *testing.T) {
		client := mockLLM(func(ctx context.Context, input ...gollem.Input) (*gollem.Response, error) {
			return &gollem.Response{Texts: []string{"   "}}, nil
		})
		service := llm.NewService(client)

		_, err := service.GenerateBriefingProse(ctx, briefing)
		gt.Error(t, err)
		gt.True(t, goerr.HasTag(err, llm.ErrTagEmptyResponse))
	})

	t.Run("LLM failure propagates", func(t *testing.T) {
		client := mockLLM(func(ctx context.Context, input ...gollem.Input) (*gollem.Response, error) {
			return nil, goerr.New("model unavailable")
		})
		service := llm.NewService(client)

		_, err := service.GenerateBriefingProse(ctx, briefing)
		gt.Error(t, err)
	})
}

func TestParseOrderDraft(t *testing.T) {
	ctx := context.Background()
	products := []*model.Product{
		{ID: "prod-1", Name: "Rose Bouquet", SKU: "ROSE-01"},
		{ID: "prod-2", Name: "Tulip Box", SKU: "TULIP-01"},
	}

	t.Run("valid draft", func(t *testing.T) {
		client := mockLLM(func(ctx context.Context, input ...gollem.Input) (*gollem.Response, error) {
			return &gollem.Response{Texts: []string{
				`{"items":[{"product_id":"prod-1","quantity":2},{"product_id":"prod-2","quantity":1}],"note":"deliver before noon"}`,
			}}, nil
		})
		service := llm.NewService(client)

		draft, err := service.ParseOrderDraft(ctx, "2 rose bouquets and a tulip box, deliver before noon", products)
		gt.NoError(t, err)
		gt.Equal(t, 2, len(draft.Items))
		gt.Equal(t, types.ProductID("prod-1"), draft.Items[0].ProductID)
		gt.Equal(t, 2, draft.Items[0].Quantity)
		gt.Equal(t, "deliver before noon", draft.Note)
	})

	t.Run("unknown products and bad quantities dropped", func(t *testing.T) {
		client := mockLLM(func(ctx context.Context, input ...gollem.Input) (*gollem.Response, error) {
			return &gollem.Response{Texts: []string{
				`{"items":[{"product_id":"prod-1","quantity":1},{"product_id":"prod-99","quantity":3},{"product_id":"prod-2","quantity":0}],"note":""}`,
			}}, nil
		})
		service := llm.NewService(client)

		draft, err := service.ParseOrderDraft(ctx, "one rose, three unicorns", products)
		gt.NoError(t, err)
		gt.Equal(t, 1, len(draft.Items))
		gt.Equal(t, types.ProductID("prod-1"), draft.Items[0].ProductID)
	})

	t.Run("nothing valid left is an error", func(t *testing.T) {
		client := mockLLM(func(ctx context.Context, input ...gollem.Input) (*gollem.Response, error) {
			return &gollem.Response{Texts: []string{`{"items":[{"product_id":"prod-99","quantity":1}],"note":""}`}}, nil
		})
		service := llm.NewService(client)

		_, err := service.ParseOrderDraft(ctx, "three unicorns", products)
		gt.Error(t, err)
		gt.True(t, goerr.HasTag(err, llm.ErrTagNoItems))
	})

	t.Run("invalid JSON is an error", func(t *testing.T) {
		client := mockLLM(func(ctx context.Context, input ...gollem.Input) (*gollem.Response, error) {
			return &gollem.Response{Texts: []string{"sure, here is the order"}}, nil
		})
		service := llm.NewService(client)

		_, err := service.ParseOrderDraft(ctx, "a rose", products)
		gt.Error(t, err)
		gt.True(t, goerr.HasTag(err, llm.ErrTagInvalidJSON))
	})

	t.Run("empty input rejected without LLM call", func(t *testing.T) {
		client := mockLLM(func(ctx context.Context, input ...gollem.Input) (*gollem.Response, error) {
			t.Fatal("LLM should not be called")
			return nil, nil
		})
		service := llm.NewService(client)

		_, err := service.ParseOrderDraft(ctx, "  ", products)
		gt.Error(t, err)
	})
}
