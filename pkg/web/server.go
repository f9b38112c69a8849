package web

import (
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shouni/gemini-menu-kit/pkg/domain"
	"github.com/shouni/gemini-menu-kit/pkg/pipeline"
	"github.com/shouni/gemini-menu-kit/pkg/session"
)

// Runner はメニュー画像から写真生成までの1回の実行です。*pipeline.Pipeline が満たします。
type Runner interface {
	Run(ctx context.Context, img domain.MenuImage, style pipeline.StyleFunc, obs pipeline.Observer) (*pipeline.Result, error)
}

// MenuFetcher は URL からメニュー画像を取得します。
type MenuFetcher interface {
	FetchMenuImage(ctx context.Context, rawURL string) (*domain.MenuImage, error)
}

// Options は Server の設定です。
type Options struct {
	MaxUploadBytes int64
}

// Server はメニュー可視化の単一ページ UI を提供します。
type Server struct {
	store   *session.Store
	runner  Runner
	fetcher MenuFetcher
	opts    Options
	tmpl    *template.Template
}

// NewServer は依存関係を注入して Server を生成します。fetcher は nil でも構いません。
func NewServer(store *session.Store, runner Runner, fetcher MenuFetcher, opts Options) (*Server, error) {
	if store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if runner == nil {
		return nil, fmt.Errorf("runner is required")
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 10 << 20
	}
	tmpl, err := parseTemplates()
	if err != nil {
		return nil, fmt.Errorf("テンプレートの読み込みに失敗しました: %w", err)
	}
	return &Server{
		store:   store,
		runner:  runner,
		fetcher: fetcher,
		opts:    opts,
		tmpl:    tmpl,
	}, nil
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(s.withSession)

		r.Get("/", s.handleIndex)
		r.Post("/upload", s.handleUpload)
		r.Post("/style", s.handleStyle)
		r.Post("/generate", s.handleGenerate)
		r.Get("/ws/generate", s.handleGenerateWS)
		r.Get("/menu-image", s.handleMenuImage)
	})

	return r
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		slog.InfoContext(r.Context(), "request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"elapsed", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}
