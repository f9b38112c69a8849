package domain

import "strings"

// Style は写真の雰囲気を決める選択肢です。抽出には影響せず、画像プロンプトの末尾だけを変えます。
type Style string

const (
	StyleFineDining Style = "Michelin fine dining"
	StyleStreetFood Style = "Street food"
)

// DefaultStyle はセッション開始時のスタイルです。
const DefaultStyle = StyleFineDining

// Styles は UI に表示する順序での全スタイルです。
var Styles = []Style{StyleFineDining, StyleStreetFood}

var styleSuffixes = map[Style]string{
	StyleFineDining: "Michelin-star fine dining presentation on elegant plates, " +
		"white tablecloth, soft studio lighting, 4k resolution.",
	StyleStreetFood: "authentic street food style, casual serving containers, " +
		"vibrant colors, handheld or paper serving, 4k resolution.",
}

// Suffix は画像プロンプトに付け足すスタイル文です。未知の値は既定スタイルとして扱います。
func (s Style) Suffix() string {
	if suffix, ok := styleSuffixes[s]; ok {
		return suffix
	}
	return styleSuffixes[DefaultStyle]
}

// ParseStyle はフォームの値を Style に変換します。
func ParseStyle(v string) (Style, bool) {
	v = strings.TrimSpace(v)
	for _, s := range Styles {
		if strings.EqualFold(v, string(s)) {
			return s, true
		}
	}
	return "", false
}
