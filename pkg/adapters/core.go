package adapters

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"

	"github.com/shouni/gemini-menu-kit/pkg/domain"
	"github.com/shouni/gemini-menu-kit/pkg/imgutil"
	"google.golang.org/genai"
)

// CoreOptions は GeminiMenuCore の動作設定です。
type CoreOptions struct {
	PrepareImages bool
	Prepare       imgutil.PrepareOptions
}

// GeminiMenuCore はメニュー画像のパーツ化と、Gemini/Imagen レスポンスの解析を受け持ちます。
type GeminiMenuCore struct {
	fetcher Fetcher
	opts    CoreOptions
}

// NewGeminiMenuCore は依存関係を注入して GeminiMenuCore を生成します。
// fetcher が nil の場合、URL からのメニュー取得は無効になります。
func NewGeminiMenuCore(fetcher Fetcher, opts CoreOptions) *GeminiMenuCore {
	return &GeminiMenuCore{
		fetcher: fetcher,
		opts:    opts,
	}
}

// PrepareImage は送信前の前処理を行います。デコードできない画像はそのまま返します。
func (c *GeminiMenuCore) PrepareImage(ctx context.Context, img domain.MenuImage) domain.MenuImage {
	if img.MimeType == "" {
		img.MimeType = detectMimeType(img.Data)
	}
	if !c.opts.PrepareImages {
		return img
	}

	prepared, err := imgutil.PrepareMenuImage(img.Data, img.MimeType, c.opts.Prepare)
	if err != nil {
		slog.WarnContext(ctx, "メニュー画像の前処理に失敗しました。元のデータのまま送信します",
			"name", img.Name, "mime_type", img.MimeType, "error", err)
		return img
	}
	if prepared.Changed {
		slog.InfoContext(ctx, "メニュー画像を前処理しました",
			"name", img.Name,
			"orientation", prepared.Orientation,
			"width", prepared.Width,
			"height", prepared.Height,
			"bytes_before", len(img.Data),
			"bytes_after", len(prepared.Data))
	}

	img.Data = prepared.Data
	img.MimeType = prepared.MimeType
	return img
}

// ToPart はメニュー画像を genai.Part (InlineData) に変換します。データが空なら nil です。
func (c *GeminiMenuCore) ToPart(ctx context.Context, img domain.MenuImage) *genai.Part {
	if img.Empty() {
		return nil
	}
	img = c.PrepareImage(ctx, img)
	return genai.NewPartFromBytes(img.Data, img.MimeType)
}

// ParseDishes は構造化出力(JSON)を解析して料理一覧に変換します。
// 2番目の戻り値はデバッグ表示用の生テキストです。
func (c *GeminiMenuCore) ParseDishes(resp *genai.GenerateContentResponse, limit int) ([]domain.DishEntry, string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0] == nil {
		return nil, "", fmt.Errorf("Geminiからの有効な応答がありませんでした")
	}

	// 現在の仕様では、最初の候補 (Candidate) のみを利用する。
	candidate := resp.Candidates[0]
	raw := candidateText(candidate)
	if raw == "" {
		if candidate.FinishReason != genai.FinishReasonUnspecified && candidate.FinishReason != genai.FinishReasonStop {
			return nil, "", fmt.Errorf("メニュー読み取りが異常終了しました (FinishReason: %s)", candidate.FinishReason)
		}
		return nil, "", fmt.Errorf("応答にテキストが含まれていません")
	}

	dec := json.NewDecoder(strings.NewReader(stripCodeFence(raw)))
	dec.UseNumber()
	var payload any
	if err := dec.Decode(&payload); err != nil {
		return nil, raw, fmt.Errorf("JSONの解析に失敗しました: %w", err)
	}

	obj, ok := payload.(map[string]any)
	if !ok {
		return nil, raw, fmt.Errorf("応答の形式が想定と異なります: object ではありません (%T)", payload)
	}
	items, ok := obj["items"].([]any)
	if !ok {
		return nil, raw, fmt.Errorf("応答の形式が想定と異なります: items 配列がありません")
	}

	dishes := NormalizeDishes(items, limit)
	if len(dishes) == 0 {
		return nil, raw, fmt.Errorf("モデルが料理を1件も返しませんでした")
	}
	return dishes, raw, nil
}

// NormalizeDishes は items を DishEntry に変換します。
// 名前と説明は文字列化して前後の空白を除き、名前が空の要素とオブジェクト以外の要素は捨て、
// 応答順に先頭 limit 件までを残します。
func NormalizeDishes(items []any, limit int) []domain.DishEntry {
	if limit <= 0 || limit > domain.MaxDishes {
		limit = domain.MaxDishes
	}

	dishes := make([]domain.DishEntry, 0, min(len(items), limit))
	for _, it := range items {
		m, ok := it.(map[string]any)
		if !ok {
			continue
		}
		name := strings.TrimSpace(coerceText(m["name"]))
		if name == "" {
			continue
		}
		dishes = append(dishes, domain.DishEntry{
			Name:        name,
			Description: strings.TrimSpace(coerceText(m["description"])),
		})
		if len(dishes) == limit {
			break
		}
	}
	return dishes
}

// ParseImage は Imagen のレスポンスから最初の生成画像を取り出します。
func (c *GeminiMenuCore) ParseImage(resp *genai.GenerateImagesResponse) (*domain.ImageResponse, error) {
	if resp == nil || len(resp.GeneratedImages) == 0 || resp.GeneratedImages[0] == nil {
		return nil, fmt.Errorf("Imagenからの有効な応答がありませんでした")
	}

	generated := resp.GeneratedImages[0]
	if generated.Image == nil || len(generated.Image.ImageBytes) == 0 {
		// 安全フィルター等によるブロックの確認
		if generated.RAIFilteredReason != "" {
			return nil, fmt.Errorf("画像生成がフィルタされました: %s", generated.RAIFilteredReason)
		}
		return nil, fmt.Errorf("画像データが見つかりませんでした")
	}

	mimeType := generated.Image.MIMEType
	if mimeType == "" {
		mimeType = http.DetectContentType(generated.Image.ImageBytes)
	}
	return &domain.ImageResponse{
		Data:     generated.Image.ImageBytes,
		MimeType: mimeType,
	}, nil
}

// FetchMenuImage は URL からメニュー画像を取得します。JPEG/PNG 以外は拒否します。
func (c *GeminiMenuCore) FetchMenuImage(ctx context.Context, rawURL string) (*domain.MenuImage, error) {
	if c.fetcher == nil {
		return nil, fmt.Errorf("URLからの取得は無効です")
	}

	// SSRF対策のバリデーション
	if safe, err := isSafeURL(rawURL); !safe || err != nil {
		slog.WarnContext(ctx, "SSRFの可能性がある、または不正なURLをブロックしました", "url", rawURL, "error", err)
		return nil, fmt.Errorf("安全ではないURLが指定されました: %w", err)
	}

	data, err := c.fetcher.FetchBytes(ctx, rawURL)
	if err != nil {
		return nil, fmt.Errorf("メニュー画像のダウンロードに失敗しました: %w", err)
	}

	mimeType := http.DetectContentType(data)
	if mimeType != "image/jpeg" && mimeType != "image/png" {
		return nil, fmt.Errorf("対応していない画像形式です: %s", mimeType)
	}

	name := "menu"
	if u, err := url.Parse(rawURL); err == nil && u.Path != "" && u.Path != "/" {
		name = path.Base(u.Path)
	}

	return &domain.MenuImage{Data: data, MimeType: mimeType, Name: name}, nil
}

func candidateText(candidate *genai.Candidate) string {
	if candidate.Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, part := range candidate.Content.Parts {
		if part == nil || part.Thought {
			continue
		}
		sb.WriteString(part.Text)
	}
	return strings.TrimSpace(sb.String())
}

// stripCodeFence は ```json ... ``` で囲まれた応答から中身だけを取り出します。
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	}
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "```"))
}

func coerceText(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(bytes.TrimSpace(b))
	}
}

func detectMimeType(data []byte) string {
	mimeType := http.DetectContentType(data)
	if !strings.HasPrefix(mimeType, "image/") {
		return domain.DefaultMenuMimeType
	}
	return mimeType
}

// isSafeURL は SSRF 対策として URL を検証します。
// 名前解決されたすべての IP アドレスに対してプライベート IP チェックを行います。
func isSafeURL(rawURL string) (bool, error) {
	parsedURL, err := url.ParseRequestURI(rawURL)
	if err != nil {
		return false, fmt.Errorf("URLパース失敗: %w", err)
	}

	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return false, fmt.Errorf("不許可スキーム: %s", parsedURL.Scheme)
	}

	host := parsedURL.Hostname()
	var ips []net.IP

	if ip := net.ParseIP(host); ip != nil {
		ips = []net.IP{ip}
	} else {
		resolvedIPs, err := net.LookupIP(host)
		if err != nil {
			return false, fmt.Errorf("名前解決失敗: %w", err)
		}
		ips = resolvedIPs
	}

	if len(ips) == 0 {
		return false, fmt.Errorf("IPが見つかりません")
	}

	for _, ip := range ips {
		if ip.IsPrivate() || ip.IsLoopback() || ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() || ip.IsUnspecified() {
			return false, fmt.Errorf("制限されたネットワークへのアクセスを検知: %s", ip.String())
		}
	}

	return true, nil
}
