package web

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/shouni/gemini-menu-kit/pkg/domain"
)

const wsWriteTimeout = 10 * time.Second

var generateWSUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 64 * 1024,
	CheckOrigin: func(r *http.Request) bool {
		// セッション Cookie は SameSite=Lax なので同一オリジンのページからしか届かない
		return true
	},
}

// wsEvent はストリーミング実行中にクライアントへ送るイベントです。
type wsEvent struct {
	Type    string             `json:"type"`
	Message string             `json:"message,omitempty"`
	Style   string             `json:"style,omitempty"`
	Dishes  []domain.DishEntry `json:"dishes,omitempty"`
	Dish    *wsDish            `json:"dish,omitempty"`
	Debug   string             `json:"debug,omitempty"`
	Failed  int                `json:"failed,omitempty"`
}

type wsDish struct {
	Index       int    `json:"index"`
	Column      int    `json:"column"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Image       string `json:"image,omitempty"`
	Error       string `json:"error,omitempty"`
}

const (
	eventExtracting       = "extracting"
	eventExtracted        = "extracted"
	eventPhoto            = "photo"
	eventPhotoFailed      = "photo_failed"
	eventExtractionFailed = "extraction_failed"
	eventError            = "error"
	eventDone             = "done"
)

// wsObserver は pipeline.Observer を WebSocket のイベント送信に変換します。
// 書き込みは Run を実行しているゴルーチンからのみ行われます。
type wsObserver struct {
	ctx  context.Context
	conn *websocket.Conn
}

func (o *wsObserver) send(ev wsEvent) {
	_ = o.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	if err := o.conn.WriteJSON(ev); err != nil {
		slog.WarnContext(o.ctx, "WebSocketへの送信に失敗しました", "type", ev.Type, "error", err)
	}
}

func (o *wsObserver) ExtractionStarted() {
	o.send(wsEvent{Type: eventExtracting, Message: "Reading menu text..."})
}

func (o *wsObserver) DishesExtracted(dishes []domain.DishEntry, style domain.Style) {
	o.send(wsEvent{Type: eventExtracted, Style: string(style), Dishes: dishes})
}

func (o *wsObserver) DishFinished(res domain.DishResult) {
	view := toDishView(res)
	dish := &wsDish{
		Index:       res.Index,
		Column:      res.Column,
		Name:        view.Name,
		Description: view.Description,
		Image:       string(view.Image),
		Error:       view.Error,
	}
	if view.Error != "" {
		o.send(wsEvent{Type: eventPhotoFailed, Dish: dish})
		return
	}
	o.send(wsEvent{Type: eventPhoto, Dish: dish})
}

// handleGenerateWS は写真ができた順にクライアントへ送るストリーミング版です。
func (s *Server) handleGenerateWS(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)

	conn, err := generateWSUpgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.WarnContext(r.Context(), "WebSocketへのアップグレードに失敗しました", "error", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// クライアントが切断したら実行を止める
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	obs := &wsObserver{ctx: ctx, conn: conn}

	if v := r.URL.Query().Get("style"); v != "" {
		style, ok := domain.ParseStyle(v)
		if !ok {
			obs.send(wsEvent{Type: eventError, Message: "Unknown style."})
			return
		}
		sess.SetStyle(style)
	}

	img, ok := sess.Image()
	if !ok {
		obs.send(wsEvent{Type: eventError, Message: "Upload a menu image first."})
		return
	}

	release, ok := sess.TryBeginRun()
	if !ok {
		obs.send(wsEvent{Type: eventError, Message: "A generation run is already in progress for this session."})
		return
	}
	defer release()

	result, err := s.runner.Run(ctx, img, sess.Style, obs)

	var extractErr *domain.ExtractionError
	switch {
	case errors.As(err, &extractErr):
		obs.send(wsEvent{Type: eventExtractionFailed, Message: extractErr.Err.Error(), Debug: extractErr.Partial})
		return
	case err != nil:
		obs.send(wsEvent{Type: eventError, Message: err.Error()})
		return
	}

	obs.send(wsEvent{Type: eventDone, Failed: result.Failed()})
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "done"),
		time.Now().Add(wsWriteTimeout))
}
