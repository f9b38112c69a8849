package adapters

import (
	"context"

	"github.com/shouni/gemini-menu-kit/pkg/domain"
	"google.golang.org/genai"
)

// mockMenuCore は MenuCore インターフェースのテスト用モックなのだ。
type mockMenuCore struct {
	toPartFunc      func(ctx context.Context, img domain.MenuImage) *genai.Part
	parseDishesFunc func(resp *genai.GenerateContentResponse, limit int) ([]domain.DishEntry, string, error)
	parseImageFunc  func(resp *genai.GenerateImagesResponse) (*domain.ImageResponse, error)
}

func (m *mockMenuCore) ToPart(ctx context.Context, img domain.MenuImage) *genai.Part {
	if m.toPartFunc != nil {
		return m.toPartFunc(ctx, img)
	}
	return &genai.Part{InlineData: &genai.Blob{MIMEType: img.MimeType, Data: img.Data}}
}

func (m *mockMenuCore) ParseDishes(resp *genai.GenerateContentResponse, limit int) ([]domain.DishEntry, string, error) {
	if m.parseDishesFunc != nil {
		return m.parseDishesFunc(resp, limit)
	}
	return nil, "", nil
}

func (m *mockMenuCore) ParseImage(resp *genai.GenerateImagesResponse) (*domain.ImageResponse, error) {
	if m.parseImageFunc != nil {
		return m.parseImageFunc(resp)
	}
	return nil, nil
}

// mockContentModel は ContentModel のテスト用モックなのだ。
type mockContentModel struct {
	generateFunc func(model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

func (m *mockContentModel) GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	if m.generateFunc != nil {
		return m.generateFunc(model, contents, config)
	}
	return nil, nil
}

// mockImageModel は ImageModel のテスト用モックなのだ。
type mockImageModel struct {
	generateFunc func(model string, prompt string, config *genai.GenerateImagesConfig) (*genai.GenerateImagesResponse, error)
}

func (m *mockImageModel) GenerateImages(ctx context.Context, model string, prompt string, config *genai.GenerateImagesConfig) (*genai.GenerateImagesResponse, error) {
	if m.generateFunc != nil {
		return m.generateFunc(model, prompt, config)
	}
	return nil, nil
}

// mockFetcher は Fetcher のテスト用モックなのだ。
type mockFetcher struct {
	fetchFunc func(ctx context.Context, url string) ([]byte, error)
	calls     int
}

func (m *mockFetcher) FetchBytes(ctx context.Context, url string) ([]byte, error) {
	m.calls++
	return m.fetchFunc(ctx, url)
}

// textResponse は1パーツのテキストだけを持つレスポンスを作るヘルパーなのだ。
func textResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content:      &genai.Content{Parts: []*genai.Part{{Text: text}}},
			FinishReason: genai.FinishReasonStop,
		}},
	}
}
