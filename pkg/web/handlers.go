package web

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/shouni/gemini-menu-kit/pkg/domain"
)

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, s.newPage(sessionFrom(r)))
}

// handleUpload はメニュー画像（ファイルまたは URL）を受け取り、セッションの画像を置き換えます。
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)

	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxUploadBytes+1024*1024)
	if err := r.ParseMultipartForm(s.opts.MaxUploadBytes); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		s.uploadFailed(w, r, http.StatusBadRequest, "Could not read the upload: "+err.Error())
		return
	}
	if r.MultipartForm != nil {
		defer r.MultipartForm.RemoveAll()
	}

	img, status, msg := s.readMenuImage(r)
	if img == nil {
		s.uploadFailed(w, r, status, msg)
		return
	}

	sess.SetImage(*img)
	slog.InfoContext(r.Context(), "メニュー画像を受け付けました",
		"session", sess.ID, "name", img.Name, "mime_type", img.MimeType, "bytes", len(img.Data))

	if wantsJSON(r) {
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "name": img.Name})
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) readMenuImage(r *http.Request) (*domain.MenuImage, int, string) {
	file, header, err := r.FormFile("menu")
	if err == nil {
		defer file.Close()

		if !domain.HasAllowedExtension(header.Filename) {
			return nil, http.StatusUnsupportedMediaType, "Only jpg, jpeg and png files are accepted."
		}
		data, err := io.ReadAll(file)
		if err != nil {
			return nil, http.StatusBadRequest, "Could not read the uploaded file."
		}
		if len(data) == 0 {
			return nil, http.StatusBadRequest, "The uploaded file is empty."
		}
		if int64(len(data)) > s.opts.MaxUploadBytes {
			return nil, http.StatusRequestEntityTooLarge, s.tooLargeMessage()
		}
		mimeType := strings.TrimSpace(header.Header.Get("Content-Type"))
		if mimeType == "" || mimeType == "application/octet-stream" {
			mimeType = domain.DefaultMenuMimeType
		}
		return &domain.MenuImage{Data: data, MimeType: mimeType, Name: header.Filename}, 0, ""
	}
	if !errors.Is(err, http.ErrMissingFile) && !errors.Is(err, http.ErrNotMultipart) {
		return nil, http.StatusBadRequest, "Could not read the uploaded file."
	}

	rawURL := strings.TrimSpace(r.FormValue("menu_url"))
	if rawURL == "" {
		return nil, http.StatusBadRequest, "Choose a menu image to upload."
	}
	if s.fetcher == nil {
		return nil, http.StatusBadRequest, "Loading a menu from a URL is disabled."
	}
	img, err := s.fetcher.FetchMenuImage(r.Context(), rawURL)
	if err != nil {
		slog.WarnContext(r.Context(), "URLからのメニュー取得に失敗しました", "url", rawURL, "error", err)
		return nil, http.StatusBadRequest, "Could not load the menu from that URL: " + err.Error()
	}
	if int64(len(img.Data)) > s.opts.MaxUploadBytes {
		return nil, http.StatusRequestEntityTooLarge, s.tooLargeMessage()
	}
	return img, 0, ""
}

func (s *Server) tooLargeMessage() string {
	return fmt.Sprintf("The menu image must be at most %d MB.", s.opts.MaxUploadBytes>>20)
}

func (s *Server) uploadFailed(w http.ResponseWriter, r *http.Request, status int, msg string) {
	if wantsJSON(r) {
		writeError(w, status, msg)
		return
	}
	page := s.newPage(sessionFrom(r))
	page.Notice = msg
	s.render(w, r, status, page)
}

// handleStyle はスタイルの選択を記録します。生成済みの写真には影響しません。
func (s *Server) handleStyle(w http.ResponseWriter, r *http.Request) {
	style, ok := domain.ParseStyle(r.FormValue("style"))
	if !ok {
		writeError(w, http.StatusBadRequest, "Unknown style.")
		return
	}
	sessionFrom(r).SetStyle(style)

	if wantsJSON(r) {
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "style": string(style)})
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// handleGenerate はスクリプトなしでも使える同期版です。全品の生成が終わってからページを返します。
func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)

	if v := r.FormValue("style"); v != "" {
		style, ok := domain.ParseStyle(v)
		if !ok {
			writeError(w, http.StatusBadRequest, "Unknown style.")
			return
		}
		sess.SetStyle(style)
	}

	page := s.newPage(sess)
	img, ok := sess.Image()
	if !ok {
		page.Notice = "Upload a menu image first."
		s.render(w, r, http.StatusBadRequest, page)
		return
	}

	release, ok := sess.TryBeginRun()
	if !ok {
		page.Notice = "A generation run is already in progress for this session."
		s.render(w, r, http.StatusConflict, page)
		return
	}
	defer release()

	// スタイルは抽出後、生成を始める時点でセッションから読まれる
	result, err := s.runner.Run(r.Context(), img, sess.Style, nil)
	style := sess.Style()
	if result != nil {
		style = result.Style
	}
	page.withResult(result, style, err)

	status := http.StatusOK
	var extractErr *domain.ExtractionError
	if errors.As(err, &extractErr) {
		status = http.StatusBadGateway
	}
	s.render(w, r, status, page)
}

// handleMenuImage はアップロード済みのメニュー画像をそのまま返します。
func (s *Server) handleMenuImage(w http.ResponseWriter, r *http.Request) {
	img, ok := sessionFrom(r).Image()
	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", servedImageType(img))
	w.Header().Set("Content-Length", strconv.Itoa(len(img.Data)))
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	_, _ = w.Write(img.Data)
}

// servedImageType は申告された MIME タイプが JPEG/PNG 以外なら中身から判定し直します。
// どちらでもなければ画像として扱わない。
func servedImageType(img domain.MenuImage) string {
	for _, mimeType := range []string{img.MimeType, http.DetectContentType(img.Data)} {
		if mimeType == "image/jpeg" || mimeType == "image/png" {
			return mimeType
		}
	}
	return "application/octet-stream"
}
