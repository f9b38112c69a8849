package session

import (
	"sync"
	"time"

	"github.com/shouni/gemini-menu-kit/pkg/domain"
)

// Session は1つのブラウザタブに対応する状態です。
// アップロード画像とスタイル選択だけを保持し、抽出結果や生成画像は保持しません。
type Session struct {
	ID string

	mu       sync.Mutex
	image    *domain.MenuImage
	style    domain.Style
	lastSeen time.Time

	run sync.Mutex
}

func newSession(id string, now time.Time) *Session {
	return &Session{
		ID:       id,
		style:    domain.DefaultStyle,
		lastSeen: now,
	}
}

// SetImage はアップロードされた画像で以前の画像を置き換えます。
func (s *Session) SetImage(img domain.MenuImage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.image = &img
}

// Image は現在の画像を返します。未アップロードなら false です。
func (s *Session) Image() (domain.MenuImage, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.image.Empty() {
		return domain.MenuImage{}, false
	}
	return *s.image, true
}

// SetStyle はユーザーが選んだスタイルを記録します。
func (s *Session) SetStyle(style domain.Style) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.style = style
}

// Style は現在のスタイルです。生成開始時点の値が使われます。
func (s *Session) Style() domain.Style {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.style
}

// TryBeginRun は実行中でなければ実行権を取得し、解放用の関数を返します。
// 既に実行中の場合は false です。
func (s *Session) TryBeginRun() (func(), bool) {
	if !s.run.TryLock() {
		return nil, false
	}
	return s.run.Unlock, true
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}
