package adapters

import (
	"context"

	"github.com/shouni/gemini-menu-kit/pkg/domain"
	"google.golang.org/genai"
)

// ContentModel はテキスト/マルチモーダル生成の通信部分です。*genai.Models が満たします。
type ContentModel interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// ImageModel は Imagen による画像生成の通信部分です。*genai.Models が満たします。
type ImageModel interface {
	GenerateImages(ctx context.Context, model string, prompt string, config *genai.GenerateImagesConfig) (*genai.GenerateImagesResponse, error)
}

// Fetcher は URL から画像をダウンロードするためのインターフェースです。
type Fetcher interface {
	FetchBytes(ctx context.Context, url string) ([]byte, error)
}

// MenuCore はアダプター間で共有するパーツ生成とレスポンス解析を抽象化します。
type MenuCore interface {
	ToPart(ctx context.Context, img domain.MenuImage) *genai.Part
	ParseDishes(resp *genai.GenerateContentResponse, limit int) ([]domain.DishEntry, string, error)
	ParseImage(resp *genai.GenerateImagesResponse) (*domain.ImageResponse, error)
}

// MenuExtractor はメニュー画像から料理一覧を取り出します。
type MenuExtractor interface {
	ExtractDishes(ctx context.Context, img domain.MenuImage) ([]domain.DishEntry, error)
}

// PhotoGenerator は1品分のプロンプトから写真を1枚生成します。
type PhotoGenerator interface {
	GeneratePhoto(ctx context.Context, prompt string) (*domain.ImageResponse, error)
}
