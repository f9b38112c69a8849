package adapters

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shouni/gemini-menu-kit/pkg/domain"
	"google.golang.org/genai"
)

// ExtractPrompt はメニュー読み取りの指示文です。
const ExtractPrompt = "You are reading a restaurant menu image.\n" +
	"Extract ALL distinct food and drink items.\n" +
	"For each item include:\n" +
	"- name\n" +
	"- description (if available or inferred)\n\n" +
	"Return ONLY JSON matching this schema:\n" +
	"{\n" +
	"  \"items\": [\n" +
	"     {\"name\": \"...\", \"description\": \"...\"},\n" +
	"     ...\n" +
	"  ]\n" +
	"}"

// MenuSchema は items 配列を持つオブジェクトに応答を制約するスキーマです。
func MenuSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"items": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"name":        {Type: genai.TypeString},
						"description": {Type: genai.TypeString},
					},
					Required: []string{"name"},
				},
			},
		},
		Required: []string{"items"},
	}
}

// GeminiMenuExtractor はメニュー画像を Gemini に渡して料理一覧を抽出するアダプターです。
type GeminiMenuExtractor struct {
	imgCore  MenuCore
	aiClient ContentModel
	model    string
	limit    int
}

// NewGeminiMenuExtractor は依存関係を注入して初期化します。limit は 1..10 に丸められます。
func NewGeminiMenuExtractor(core MenuCore, aiClient ContentModel, modelName string, limit int) (*GeminiMenuExtractor, error) {
	if core == nil {
		return nil, fmt.Errorf("core (MenuCore) is required")
	}
	if aiClient == nil {
		return nil, fmt.Errorf("aiClient (ContentModel) is required")
	}
	if limit <= 0 || limit > domain.MaxDishes {
		limit = domain.MaxDishes
	}
	return &GeminiMenuExtractor{
		imgCore:  core,
		aiClient: aiClient,
		model:    modelName,
		limit:    limit,
	}, nil
}

// ExtractDishes はメニュー画像から最大 limit 件の料理を抽出します。
// 失敗時は必ず *domain.ExtractionError を返します。
func (a *GeminiMenuExtractor) ExtractDishes(ctx context.Context, img domain.MenuImage) ([]domain.DishEntry, error) {
	imgPart := a.imgCore.ToPart(ctx, img)
	if imgPart == nil {
		return nil, &domain.ExtractionError{Err: fmt.Errorf("メニュー画像がありません")}
	}

	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromText(ExtractPrompt),
			imgPart,
		}, genai.RoleUser),
	}
	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   MenuSchema(),
	}

	slog.InfoContext(ctx, "メニューの読み取りをリクエストします", "model", a.model, "bytes", len(img.Data))
	start := time.Now()

	resp, err := a.aiClient.GenerateContent(ctx, a.model, contents, config)
	if err != nil {
		return nil, &domain.ExtractionError{Err: fmt.Errorf("Geminiメニュー読み取りエラー: %w", err)}
	}

	dishes, raw, err := a.imgCore.ParseDishes(resp, a.limit)
	if err != nil {
		return nil, &domain.ExtractionError{Err: err, Partial: raw}
	}

	slog.InfoContext(ctx, "メニューを読み取りました", "dishes", len(dishes), "elapsed", time.Since(start))
	return dishes, nil
}
