package pipeline

import (
	"context"
	"sync"

	"github.com/shouni/gemini-menu-kit/pkg/domain"
)

type mockExtractor struct {
	dishes    []domain.DishEntry
	err       error
	calls     int
	onExtract func()
}

func (m *mockExtractor) ExtractDishes(ctx context.Context, img domain.MenuImage) ([]domain.DishEntry, error) {
	m.calls++
	if m.onExtract != nil {
		m.onExtract()
	}
	return m.dishes, m.err
}

// mockGenerator はプロンプトを記録し、generateFunc があればその結果を返すのだ。
type mockGenerator struct {
	mu           sync.Mutex
	prompts      []string
	generateFunc func(call int, prompt string) (*domain.ImageResponse, error)
}

func (m *mockGenerator) GeneratePhoto(ctx context.Context, prompt string) (*domain.ImageResponse, error) {
	m.mu.Lock()
	m.prompts = append(m.prompts, prompt)
	call := len(m.prompts) - 1
	m.mu.Unlock()

	if m.generateFunc != nil {
		return m.generateFunc(call, prompt)
	}
	return &domain.ImageResponse{Data: []byte("png"), MimeType: "image/png"}, nil
}

// recordingObserver は通知された順序を記録するのだ。
type recordingObserver struct {
	events  []string
	dishes  []domain.DishEntry
	style   domain.Style
	results []domain.DishResult
}

func (o *recordingObserver) ExtractionStarted() {
	o.events = append(o.events, "extracting")
}

func (o *recordingObserver) DishesExtracted(dishes []domain.DishEntry, style domain.Style) {
	o.events = append(o.events, "extracted")
	o.dishes = dishes
	o.style = style
}

func (o *recordingObserver) DishFinished(result domain.DishResult) {
	o.events = append(o.events, "dish")
	o.results = append(o.results, result)
}
