package domain

import "fmt"

// ConfigurationError は起動時の設定不備です。UI を開く前に処理を止めます。
type ConfigurationError struct {
	Key    string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("設定エラー %s: %s", e.Key, e.Reason)
}

// ExtractionError はメニュー読み取りの失敗です。その回の実行は画像生成に進みません。
// Partial にはデバッグ表示用に受信できた内容が入ります（無い場合は空）。
type ExtractionError struct {
	Err     error
	Partial string
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("メニューの読み取りに失敗しました: %v", e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// GenerationError は1品分の画像生成の失敗です。他の料理の生成は継続されます。
type GenerationError struct {
	Index int
	Dish  string
	Err   error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("%s の画像を生成できませんでした: %v", e.Dish, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }
