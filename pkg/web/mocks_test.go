package web

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/shouni/gemini-menu-kit/pkg/domain"
	"github.com/shouni/gemini-menu-kit/pkg/pipeline"
)

var errImagenDown = errors.New("imagen unavailable")

type fakeExtractor struct {
	dishes    []domain.DishEntry
	err       error
	onExtract func()
}

func (f *fakeExtractor) ExtractDishes(ctx context.Context, img domain.MenuImage) ([]domain.DishEntry, error) {
	if f.onExtract != nil {
		f.onExtract()
	}
	return f.dishes, f.err
}

// fakeGenerator は failOn に含まれる料理名だけ失敗させるのだ。
type fakeGenerator struct {
	mu      sync.Mutex
	prompts []string
	failOn  map[string]bool
}

func (f *fakeGenerator) GeneratePhoto(ctx context.Context, prompt string) (*domain.ImageResponse, error) {
	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	f.mu.Unlock()

	for name := range f.failOn {
		if strings.Contains(prompt, name) {
			return nil, errImagenDown
		}
	}
	return &domain.ImageResponse{Data: []byte{0x89, 'P', 'N', 'G'}, MimeType: "image/png"}, nil
}

// recordingRunner は Pipeline が読んだスタイルを記録して本物の Pipeline に委譲するのだ。
type recordingRunner struct {
	inner  *pipeline.Pipeline
	mu     sync.Mutex
	styles []domain.Style
	images []domain.MenuImage
}

func (r *recordingRunner) Run(ctx context.Context, img domain.MenuImage, style pipeline.StyleFunc, obs pipeline.Observer) (*pipeline.Result, error) {
	r.mu.Lock()
	r.images = append(r.images, img)
	r.mu.Unlock()

	recorded := func() domain.Style {
		st := style()
		r.mu.Lock()
		r.styles = append(r.styles, st)
		r.mu.Unlock()
		return st
	}
	return r.inner.Run(ctx, img, recorded, obs)
}

type fakeFetcher struct {
	img *domain.MenuImage
	err error
}

func (f *fakeFetcher) FetchMenuImage(ctx context.Context, rawURL string) (*domain.MenuImage, error) {
	return f.img, f.err
}
