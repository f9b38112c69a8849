package web

import (
	"embed"
	"encoding/base64"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/shouni/gemini-menu-kit/pkg/domain"
	"github.com/shouni/gemini-menu-kit/pkg/pipeline"
	"github.com/shouni/gemini-menu-kit/pkg/session"
)

//go:embed templates/*.html
var templateFS embed.FS

func parseTemplates() (*template.Template, error) {
	return template.ParseFS(templateFS, "templates/*.html")
}

type styleOption struct {
	Value   string
	Checked bool
}

type dishView struct {
	Index       int
	Name        string
	Description string
	Image       template.URL
	Error       string
}

type pageData struct {
	Styles      []styleOption
	HasImage    bool
	ImageName   string
	Notice      string
	MaxUploadMB int64

	Ran          bool
	Status       string
	Style        string
	ExtractError string
	Debug        string
	Columns      [][]dishView
}

func (s *Server) newPage(sess *session.Session) pageData {
	current := sess.Style()
	styles := make([]styleOption, 0, len(domain.Styles))
	for _, st := range domain.Styles {
		styles = append(styles, styleOption{Value: string(st), Checked: st == current})
	}

	data := pageData{
		Styles:      styles,
		MaxUploadMB: s.opts.MaxUploadBytes >> 20,
	}
	if img, ok := sess.Image(); ok {
		data.HasImage = true
		data.ImageName = img.Name
	}
	return data
}

// withResult は実行結果をページに反映します。result と err は Runner.Run の戻り値です。
func (p *pageData) withResult(result *pipeline.Result, style domain.Style, err error) {
	p.Ran = true
	p.Style = string(style)

	var extractErr *domain.ExtractionError
	if errors.As(err, &extractErr) {
		p.ExtractError = extractErr.Err.Error()
		p.Debug = extractErr.Partial
		return
	}
	if result == nil {
		if err != nil {
			p.ExtractError = err.Error()
		}
		return
	}

	p.Status = fmt.Sprintf("Found %d dishes.", len(result.Dishes))
	p.Columns = make([][]dishView, domain.GridColumns)
	for col, results := range result.Columns() {
		for _, res := range results {
			p.Columns[col] = append(p.Columns[col], toDishView(res))
		}
	}
	if err != nil {
		p.Notice = "Generation stopped: " + err.Error()
	}
}

func toDishView(res domain.DishResult) dishView {
	v := dishView{
		Index:       res.Index,
		Name:        res.Dish.Name,
		Description: res.Dish.Description,
	}
	if res.Err != nil {
		var genErr *domain.GenerationError
		if errors.As(res.Err, &genErr) {
			v.Error = genErr.Err.Error()
		} else {
			v.Error = res.Err.Error()
		}
		return v
	}
	if res.Photo != nil {
		v.Image = dataURI(res.Photo.MimeType, res.Photo.Data)
	}
	return v
}

// dataURI は生成画像を img タグに直接埋め込むための data URI を作ります。
func dataURI(mimeType string, data []byte) template.URL {
	if mimeType == "" {
		mimeType = http.DetectContentType(data)
	}
	return template.URL("data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data))
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, data pageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := s.tmpl.ExecuteTemplate(w, "index.html", data); err != nil {
		slog.ErrorContext(r.Context(), "ページの描画に失敗しました", "error", err)
	}
}
