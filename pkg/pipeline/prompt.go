package pipeline

import (
	"strings"

	"github.com/shouni/gemini-menu-kit/pkg/domain"
)

// BuildPrompt は料理名、説明、スタイル文をつなげて画像生成プロンプトを作ります。
// 説明が空の場合は詰めて連結します。
func BuildPrompt(dish domain.DishEntry, style domain.Style) string {
	parts := []string{"High-quality food photograph of " + dish.Name + "."}
	if desc := strings.TrimSpace(dish.Description); desc != "" {
		parts = append(parts, desc)
	}
	parts = append(parts, style.Suffix())
	return strings.Join(parts, " ")
}

// Column は抽出順 index の料理を置く列です。
func Column(index int) int {
	return index % domain.GridColumns
}
