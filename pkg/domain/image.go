package domain

import "strings"

// MenuImage はアップロードされたメニュー写真です。セッションが終わるまで保持されます。
type MenuImage struct {
	Data     []byte
	MimeType string
	Name     string
}

// Empty は画像データが未設定かどうかを返します。
func (m *MenuImage) Empty() bool {
	return m == nil || len(m.Data) == 0
}

// DefaultMenuMimeType はアップロード時に MIME タイプが不明だった場合の既定値です。
const DefaultMenuMimeType = "image/jpeg"

// AllowedMenuExtensions はアップロードを受け付ける拡張子です。
var AllowedMenuExtensions = []string{"jpg", "jpeg", "png"}

// HasAllowedExtension はファイル名の拡張子が jpg/jpeg/png のいずれかかを判定します。
// 中身の検証はしません。壊れた画像はそのまま API に渡されます。
func HasAllowedExtension(filename string) bool {
	dot := strings.LastIndex(filename, ".")
	if dot < 0 || dot == len(filename)-1 {
		return false
	}
	ext := strings.ToLower(filename[dot+1:])
	for _, allowed := range AllowedMenuExtensions {
		if ext == allowed {
			return true
		}
	}
	return false
}

// ImageResponse は生成された画像データとそのメタデータです。
type ImageResponse struct {
	Data     []byte
	MimeType string
}
