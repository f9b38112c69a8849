package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shouni/gemini-menu-kit/pkg/adapters"
	"github.com/shouni/gemini-menu-kit/pkg/config"
	"github.com/shouni/gemini-menu-kit/pkg/imgutil"
	"github.com/shouni/gemini-menu-kit/pkg/metrics"
	"github.com/shouni/gemini-menu-kit/pkg/pipeline"
	"github.com/shouni/gemini-menu-kit/pkg/session"
	"github.com/shouni/gemini-menu-kit/pkg/web"
	"github.com/shouni/go-http-kit/pkg/httpkit"
	"google.golang.org/genai"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		// API キーが無いまま UI を出しても何もできないので起動しない
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel})))
	metrics.Register()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("サーバーが異常終了しました", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config) error {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return fmt.Errorf("Geminiクライアントの初期化に失敗しました: %w", err)
	}

	core := adapters.NewGeminiMenuCore(httpkit.New(cfg.FetchTimeout), adapters.CoreOptions{
		PrepareImages: cfg.PrepareImages,
		Prepare: imgutil.PrepareOptions{
			MaxDimension: cfg.ImageMaxDimension,
			Quality:      cfg.ImageJPEGQuality,
		},
	})

	extractor, err := adapters.NewGeminiMenuExtractor(core, client.Models, cfg.TextModel, cfg.MaxDishes)
	if err != nil {
		return err
	}
	generator, err := adapters.NewImagenPhotoGenerator(core, client.Models, cfg.ImageModel)
	if err != nil {
		return err
	}
	p, err := pipeline.New(extractor, generator)
	if err != nil {
		return err
	}

	store := session.NewStore(cfg.SessionIdle)
	go store.RunJanitor(ctx, time.Minute)

	srv, err := web.NewServer(store, p, core, web.Options{MaxUploadBytes: cfg.MaxUploadBytes})
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           srv.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("サーバーを起動します",
			"addr", cfg.Addr,
			"text_model", cfg.TextModel,
			"image_model", cfg.ImageModel,
			"max_dishes", cfg.MaxDishes)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("シャットダウンします")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}
