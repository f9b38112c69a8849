package domain

// MaxDishes は1回の実行で画像生成にまわす料理数の上限です。
const MaxDishes = 10

// GridColumns は生成写真を並べる列数です。
const GridColumns = 2

// DishEntry はメニューから抽出された1品です。Name は常に空ではありません。
type DishEntry struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// GeneratedPhoto は1品分の生成画像です。保存はせず、その場で描画されます。
type GeneratedPhoto struct {
	Dish     DishEntry
	Data     []byte
	MimeType string
}

// DishResult は抽出順 Index の料理に対する生成結果です。
// Photo と Err はどちらか一方だけが設定されます。
type DishResult struct {
	Index  int
	Column int
	Dish   DishEntry
	Photo  *GeneratedPhoto
	Err    error
}

// OK は写真の生成に成功したかを返します。
func (r DishResult) OK() bool {
	return r.Photo != nil && r.Err == nil
}
