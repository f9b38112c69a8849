package adapters

import (
	"context"
	"fmt"

	"github.com/shouni/gemini-menu-kit/pkg/domain"
	"google.golang.org/genai"
)

// PhotoAspectRatio は料理写真のアスペクト比です。
const PhotoAspectRatio = "1:1"

// ImagenPhotoGenerator は Imagen で料理写真を1枚生成するアダプターです。
type ImagenPhotoGenerator struct {
	imgCore  MenuCore
	aiClient ImageModel
	model    string
}

// NewImagenPhotoGenerator は依存関係を注入して初期化します。
func NewImagenPhotoGenerator(core MenuCore, aiClient ImageModel, modelName string) (*ImagenPhotoGenerator, error) {
	if core == nil {
		return nil, fmt.Errorf("core (MenuCore) is required")
	}
	if aiClient == nil {
		return nil, fmt.Errorf("aiClient (ImageModel) is required")
	}
	return &ImagenPhotoGenerator{
		imgCore:  core,
		aiClient: aiClient,
		model:    modelName,
	}, nil
}

// GeneratePhoto はプロンプトから正方形の写真を1枚生成します。
func (a *ImagenPhotoGenerator) GeneratePhoto(ctx context.Context, prompt string) (*domain.ImageResponse, error) {
	config := &genai.GenerateImagesConfig{
		NumberOfImages:   1,
		AspectRatio:      PhotoAspectRatio,
		IncludeRAIReason: true,
	}

	resp, err := a.aiClient.GenerateImages(ctx, a.model, prompt, config)
	if err != nil {
		return nil, fmt.Errorf("Imagen画像生成エラー: %w", err)
	}

	out, err := a.imgCore.ParseImage(resp)
	if err != nil {
		return nil, fmt.Errorf("レスポンスパースに失敗しました: %w", err)
	}
	return out, nil
}
