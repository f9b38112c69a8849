package session

import (
	"testing"
	"time"

	"github.com/shouni/gemini-menu-kit/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_CreateAndGet(t *testing.T) {
	store := NewStore(time.Hour)

	sess := store.Create()
	require.NotEmpty(t, sess.ID)

	got, ok := store.Get(sess.ID)
	require.True(t, ok)
	assert.Same(t, sess, got)

	_, ok = store.Get("unknown")
	assert.False(t, ok)
	_, ok = store.Get("")
	assert.False(t, ok)
}

func TestStore_Evict(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	store := NewStore(30 * time.Minute)
	store.now = func() time.Time { return now }

	stale := store.Create()
	now = now.Add(20 * time.Minute)
	fresh := store.Create()
	now = now.Add(15 * time.Minute)

	assert.Equal(t, 1, store.Evict())

	_, ok := store.Get(stale.ID)
	assert.False(t, ok, "35分放置されたセッションは破棄されるのだ")
	_, ok = store.Get(fresh.ID)
	assert.True(t, ok)
}

func TestStore_GetKeepsSessionAlive(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	store := NewStore(30 * time.Minute)
	store.now = func() time.Time { return now }

	sess := store.Create()
	now = now.Add(25 * time.Minute)
	_, ok := store.Get(sess.ID)
	require.True(t, ok)
	now = now.Add(25 * time.Minute)

	assert.Equal(t, 0, store.Evict())
}

func TestSession_State(t *testing.T) {
	store := NewStore(0)
	sess := store.Create()

	t.Run("スタイルの初期値は fine dining", func(t *testing.T) {
		assert.Equal(t, domain.DefaultStyle, sess.Style())
	})

	t.Run("スタイルの変更は保持される", func(t *testing.T) {
		sess.SetStyle(domain.StyleStreetFood)
		got, _ := store.Get(sess.ID)
		assert.Equal(t, domain.StyleStreetFood, got.Style())
	})

	t.Run("画像は新しいアップロードで置き換わる", func(t *testing.T) {
		_, ok := sess.Image()
		assert.False(t, ok)

		sess.SetImage(domain.MenuImage{Data: []byte("a"), MimeType: "image/png"})
		sess.SetImage(domain.MenuImage{Data: []byte("b"), MimeType: "image/jpeg"})

		img, ok := sess.Image()
		require.True(t, ok)
		assert.Equal(t, []byte("b"), img.Data)
		assert.Equal(t, "image/jpeg", img.MimeType)
	})

	t.Run("idle が0なら破棄しない", func(t *testing.T) {
		assert.Equal(t, 0, store.Evict())
	})
}

func TestSession_TryBeginRun(t *testing.T) {
	sess := NewStore(time.Hour).Create()

	release, ok := sess.TryBeginRun()
	require.True(t, ok)

	_, ok = sess.TryBeginRun()
	assert.False(t, ok, "実行中は2つ目の実行を受け付けないのだ")

	release()
	release2, ok := sess.TryBeginRun()
	assert.True(t, ok)
	release2()
}
