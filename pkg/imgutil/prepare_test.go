package imgutil

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createSizedPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{0, 128, 255, 255})
		}
	}
	buf := new(bytes.Buffer)
	require.NoError(t, png.Encode(buf, img))
	return buf.Bytes()
}

// withDeclaredSize は PNG の IHDR に書かれた幅と高さだけを書き換えるのだ。
func withDeclaredSize(t *testing.T, data []byte, w, h uint32) []byte {
	t.Helper()
	out := append([]byte(nil), data...)
	// シグネチャ(8) + 長さ(4) + "IHDR"(4) の後に幅、高さが続く
	require.Equal(t, "IHDR", string(out[12:16]))
	binary.BigEndian.PutUint32(out[16:20], w)
	binary.BigEndian.PutUint32(out[20:24], h)
	binary.BigEndian.PutUint32(out[29:33], crc32.ChecksumIEEE(out[12:29]))
	return out
}

func TestPrepareMenuImage(t *testing.T) {
	t.Run("上限以内の画像はそのまま返す", func(t *testing.T) {
		data := createSizedPNG(t, 40, 20)

		got, err := PrepareMenuImage(data, "image/png", PrepareOptions{MaxDimension: 100, Quality: 80})

		require.NoError(t, err)
		assert.False(t, got.Changed)
		assert.Equal(t, data, got.Data)
		assert.Equal(t, "image/png", got.MimeType)
		assert.Equal(t, 1, got.Orientation)
	})

	t.Run("大きい画像は長辺に合わせて縮小しJPEGにする", func(t *testing.T) {
		data := createSizedPNG(t, 200, 100)

		got, err := PrepareMenuImage(data, "image/png", PrepareOptions{MaxDimension: 50, Quality: 80})

		require.NoError(t, err)
		assert.True(t, got.Changed)
		assert.Equal(t, "image/jpeg", got.MimeType)
		assert.Equal(t, 50, got.Width)
		assert.Equal(t, 25, got.Height)

		cfg, format, err := image.DecodeConfig(bytes.NewReader(got.Data))
		require.NoError(t, err)
		assert.Equal(t, "jpeg", format)
		assert.Equal(t, 50, cfg.Width)
		assert.Equal(t, 25, cfg.Height)
	})

	t.Run("品質を下げると出力が小さくなる", func(t *testing.T) {
		src := image.NewRGBA(image.Rect(0, 0, 200, 200))
		for x := 0; x < 200; x++ {
			for y := 0; y < 200; y++ {
				src.Set(x, y, color.RGBA{uint8(x), uint8(y), uint8(x ^ y), 255})
			}
		}
		buf := new(bytes.Buffer)
		require.NoError(t, png.Encode(buf, src))

		high, err := PrepareMenuImage(buf.Bytes(), "image/png", PrepareOptions{MaxDimension: 100, Quality: 100})
		require.NoError(t, err)
		low, err := PrepareMenuImage(buf.Bytes(), "image/png", PrepareOptions{MaxDimension: 100, Quality: 10})
		require.NoError(t, err)

		assert.Less(t, len(low.Data), len(high.Data))
	})

	t.Run("宣言された画素数が上限を超える画像はデコードしない", func(t *testing.T) {
		data := withDeclaredSize(t, createSizedPNG(t, 4, 4), 60000, 60000)

		cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
		require.NoError(t, err)
		require.Equal(t, 60000, cfg.Width)

		got, err := PrepareMenuImage(data, "image/png", PrepareOptions{MaxDimension: 2048})

		assert.Nil(t, got)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "60000x60000")
	})

	t.Run("デコードできないデータはエラー", func(t *testing.T) {
		_, err := PrepareMenuImage([]byte("not an image"), "image/jpeg", PrepareOptions{MaxDimension: 50})
		assert.Error(t, err)
	})
}

func TestFitWithin(t *testing.T) {
	tests := []struct {
		name         string
		w, h, limit  int
		wantW, wantH int
	}{
		{"no limit", 4000, 3000, 0, 4000, 3000},
		{"within", 800, 600, 1024, 800, 600},
		{"landscape", 4000, 2000, 1000, 1000, 500},
		{"portrait", 1500, 3000, 1000, 500, 1000},
		{"very thin", 5000, 1, 100, 100, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h := fitWithin(tt.w, tt.h, tt.limit)
			assert.Equal(t, tt.wantW, w)
			assert.Equal(t, tt.wantH, h)
		})
	}
}

func TestApplyOrientation(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 3, 2))
	marker := color.RGBA{255, 0, 0, 255}
	src.Set(0, 0, marker)

	t.Run("6は時計回り90度で幅と高さが入れ替わる", func(t *testing.T) {
		got := applyOrientation(src, 6)
		assert.Equal(t, 2, got.Bounds().Dx())
		assert.Equal(t, 3, got.Bounds().Dy())
		// 左上のピクセルは右上へ移動する
		assert.Equal(t, marker, got.At(1, 0))
	})

	t.Run("3は180度回転", func(t *testing.T) {
		got := applyOrientation(src, 3)
		assert.Equal(t, marker, got.At(2, 1))
	})

	t.Run("1はそのまま", func(t *testing.T) {
		assert.Same(t, image.Image(src), applyOrientation(src, 1))
	})
}

func TestOrientation_NoExif(t *testing.T) {
	assert.Equal(t, 1, Orientation(createSizedPNG(t, 2, 2)))
}
