package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shouni/gemini-menu-kit/pkg/adapters"
	"github.com/shouni/gemini-menu-kit/pkg/domain"
	"github.com/shouni/gemini-menu-kit/pkg/metrics"
)

// Observer は実行の途中経過を受け取ります。写真は生成できた順にすぐ通知されます。
type Observer interface {
	ExtractionStarted()
	DishesExtracted(dishes []domain.DishEntry, style domain.Style)
	DishFinished(result domain.DishResult)
}

// Result は1回の実行結果です。Dishes[i] と Results[i] は同じ料理を指します。
type Result struct {
	Style   domain.Style
	Dishes  []domain.DishEntry
	Results []domain.DishResult
}

// Failed は写真の生成に失敗した料理の数を返します。
func (r *Result) Failed() int {
	n := 0
	for _, res := range r.Results {
		if !res.OK() {
			n++
		}
	}
	return n
}

// Columns は結果を列ごとに並べ替えたものを返します。
func (r *Result) Columns() [][]domain.DishResult {
	cols := make([][]domain.DishResult, domain.GridColumns)
	for _, res := range r.Results {
		cols[res.Column] = append(cols[res.Column], res)
	}
	return cols
}

// StyleFunc は写真生成を始める時点で有効なスタイルを返します。
type StyleFunc func() domain.Style

// Fixed は常に style を返す StyleFunc です。
func Fixed(style domain.Style) StyleFunc {
	return func() domain.Style { return style }
}

// Pipeline は抽出が完了してから料理ごとの写真生成を順番に行います。
type Pipeline struct {
	extractor adapters.MenuExtractor
	generator adapters.PhotoGenerator
}

// New は依存関係を注入して Pipeline を生成します。
func New(extractor adapters.MenuExtractor, generator adapters.PhotoGenerator) (*Pipeline, error) {
	if extractor == nil {
		return nil, fmt.Errorf("extractor is required")
	}
	if generator == nil {
		return nil, fmt.Errorf("generator is required")
	}
	return &Pipeline{extractor: extractor, generator: generator}, nil
}

// Run はメニュー画像から料理を抽出し、1品ずつ写真を生成します。
// スタイルは抽出が終わり生成を始める時点で style から一度だけ読みます。
// 抽出に失敗した場合は *domain.ExtractionError を返し、画像生成は行いません。
// 個々の写真の失敗は Result に記録され、残りの料理の生成は続行されます。
func (p *Pipeline) Run(ctx context.Context, img domain.MenuImage, styleOf StyleFunc, obs Observer) (*Result, error) {
	if obs == nil {
		obs = nopObserver{}
	}
	if styleOf == nil {
		styleOf = Fixed(domain.DefaultStyle)
	}

	obs.ExtractionStarted()
	start := time.Now()
	dishes, err := p.extractor.ExtractDishes(ctx, img)
	if err != nil {
		metrics.ExtractionDurationSeconds.WithLabelValues("error").Observe(time.Since(start).Seconds())
		metrics.RunsTotal.WithLabelValues("extraction_failed").Inc()

		var extractErr *domain.ExtractionError
		if !errors.As(err, &extractErr) {
			extractErr = &domain.ExtractionError{Err: err}
		}
		slog.WarnContext(ctx, "メニューの読み取りに失敗したため実行を中止します", "error", extractErr.Err)
		return nil, extractErr
	}
	if len(dishes) == 0 {
		metrics.RunsTotal.WithLabelValues("extraction_failed").Inc()
		return nil, &domain.ExtractionError{Err: fmt.Errorf("モデルが料理を1件も返しませんでした")}
	}
	if len(dishes) > domain.MaxDishes {
		dishes = dishes[:domain.MaxDishes]
	}
	metrics.ExtractionDurationSeconds.WithLabelValues("ok").Observe(time.Since(start).Seconds())
	metrics.DishesExtracted.Observe(float64(len(dishes)))

	style := styleOf()
	obs.DishesExtracted(dishes, style)

	result := &Result{
		Style:   style,
		Dishes:  dishes,
		Results: make([]domain.DishResult, 0, len(dishes)),
	}

	for i, dish := range dishes {
		if err := ctx.Err(); err != nil {
			metrics.RunsTotal.WithLabelValues("canceled").Inc()
			return result, err
		}

		res := p.generateOne(ctx, i, dish, style)
		result.Results = append(result.Results, res)
		obs.DishFinished(res)
	}

	metrics.RunsTotal.WithLabelValues("ok").Inc()
	slog.InfoContext(ctx, "写真の生成が完了しました",
		"style", string(style), "dishes", len(dishes), "failed", result.Failed())
	return result, nil
}

// generateOne は1品分の写真を生成します。panic も含めて失敗はこの料理の中で閉じます。
func (p *Pipeline) generateOne(ctx context.Context, index int, dish domain.DishEntry, style domain.Style) (res domain.DishResult) {
	res = domain.DishResult{Index: index, Column: Column(index), Dish: dish}
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			res.Photo = nil
			res.Err = &domain.GenerationError{Index: index, Dish: dish.Name, Err: fmt.Errorf("panic: %v", r)}
		}
		metrics.PhotoDurationSeconds.Observe(time.Since(start).Seconds())
		if res.Err != nil {
			metrics.PhotosTotal.WithLabelValues("error").Inc()
			slog.WarnContext(ctx, "料理写真の生成に失敗しました", "index", index, "dish", dish.Name, "error", res.Err)
			return
		}
		metrics.PhotosTotal.WithLabelValues("ok").Inc()
	}()

	out, err := p.generator.GeneratePhoto(ctx, BuildPrompt(dish, style))
	if err != nil {
		res.Err = &domain.GenerationError{Index: index, Dish: dish.Name, Err: err}
		return res
	}
	if out == nil || len(out.Data) == 0 {
		res.Err = &domain.GenerationError{Index: index, Dish: dish.Name, Err: fmt.Errorf("画像データが空です")}
		return res
	}

	res.Photo = &domain.GeneratedPhoto{Dish: dish, Data: out.Data, MimeType: out.MimeType}
	return res
}

type nopObserver struct{}

func (nopObserver) ExtractionStarted()                               {}
func (nopObserver) DishesExtracted([]domain.DishEntry, domain.Style) {}
func (nopObserver) DishFinished(domain.DishResult)                   {}
