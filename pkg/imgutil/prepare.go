package imgutil

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"

	"github.com/rwcarlsen/goexif/exif"
	"golang.org/x/image/draw"
)

// PrepareOptions はメニュー写真の前処理設定です。
type PrepareOptions struct {
	MaxDimension int // 長辺の上限(px)。0以下なら縮小しない
	Quality      int
}

// Prepared は前処理の結果です。Changed が false の場合、Data は入力そのままです。
type Prepared struct {
	Data        []byte
	MimeType    string
	Changed     bool
	Orientation int
	Width       int
	Height      int
}

// PrepareMenuImage はスマホで撮ったメニュー写真の向きを EXIF に従って補正し、
// 長辺が MaxDimension を超える場合は縮小して JPEG に再エンコードします。
// 補正も縮小も不要なら元のバイト列を返します。
func PrepareMenuImage(data []byte, mimeType string, opts PrepareOptions) (*Prepared, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("画像のデコードに失敗しました: %w", err)
	}
	if int64(cfg.Width)*int64(cfg.Height) > MaxDecodePixels {
		return nil, fmt.Errorf("画像の画素数が大きすぎます: %dx%d", cfg.Width, cfg.Height)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("画像のデコードに失敗しました: %w", err)
	}

	orientation := Orientation(data)
	img = applyOrientation(img, orientation)

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	nw, nh := fitWithin(w, h, opts.MaxDimension)

	if orientation == 1 && nw == w && nh == h {
		return &Prepared{Data: data, MimeType: mimeType, Orientation: orientation, Width: w, Height: h}, nil
	}

	if nw != w || nh != h {
		dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
		draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
		img = dst
	}

	quality := opts.Quality
	if quality <= 0 || quality > 100 {
		quality = jpegDefaultQuality
	}
	out, err := encodeJPEG(img, quality)
	if err != nil {
		return nil, fmt.Errorf("JPEGエンコードに失敗しました: %w", err)
	}

	return &Prepared{
		Data:        out,
		MimeType:    "image/jpeg",
		Changed:     true,
		Orientation: orientation,
		Width:       nw,
		Height:      nh,
	}, nil
}

const jpegDefaultQuality = 85

// MaxDecodePixels はデコードを許す画素数の上限です。
// ファイルサイズが小さくても宣言された寸法が大きい画像はここで止める。
const MaxDecodePixels int64 = 50_000_000

// Orientation は EXIF の Orientation タグ(1-8)を返します。取得できない場合は 1 です。
func Orientation(data []byte) int {
	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		return 1
	}
	tag, err := x.Get(exif.Orientation)
	if err != nil {
		return 1
	}
	v, err := tag.Int(0)
	if err != nil || v < 1 || v > 8 {
		return 1
	}
	return v
}

// fitWithin はアスペクト比を保ったまま長辺を limit に収めたサイズを返します。
func fitWithin(w, h, limit int) (int, int) {
	if limit <= 0 || (w <= limit && h <= limit) {
		return w, h
	}
	if w >= h {
		nh := h * limit / w
		if nh < 1 {
			nh = 1
		}
		return limit, nh
	}
	nw := w * limit / h
	if nw < 1 {
		nw = 1
	}
	return nw, limit
}

// applyOrientation は EXIF Orientation の値に従って画像を正立させます。
func applyOrientation(img image.Image, orientation int) image.Image {
	if orientation <= 1 || orientation > 8 {
		return img
	}

	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	// 5-8 は90度回転を含むため幅と高さが入れ替わる
	dw, dh := w, h
	if orientation >= 5 {
		dw, dh = h, w
	}
	dst := image.NewRGBA(image.Rect(0, 0, dw, dh))

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var dx, dy int
			switch orientation {
			case 2:
				dx, dy = w-1-x, y
			case 3:
				dx, dy = w-1-x, h-1-y
			case 4:
				dx, dy = x, h-1-y
			case 5:
				dx, dy = y, x
			case 6:
				dx, dy = h-1-y, x
			case 7:
				dx, dy = h-1-y, w-1-x
			case 8:
				dx, dy = y, w-1-x
			}
			dst.Set(dx, dy, img.At(b.Min.X+x, b.Min.Y+y))
		}
	}
	return dst
}

func encodeJPEG(img image.Image, quality int) ([]byte, error) {
	buf := new(bytes.Buffer)
	if err := jpeg.Encode(buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
