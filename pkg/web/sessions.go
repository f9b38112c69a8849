package web

import (
	"context"
	"net/http"

	"github.com/shouni/gemini-menu-kit/pkg/session"
)

const sessionCookie = "menuviz_session"

type ctxKey struct{}

// withSession は Cookie からセッションを引き当て、無ければ新しく作成します。
func (s *Server) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var sess *session.Session
		if c, err := r.Cookie(sessionCookie); err == nil {
			sess, _ = s.store.Get(c.Value)
		}
		if sess == nil {
			sess = s.store.Create()
			http.SetCookie(w, &http.Cookie{
				Name:     sessionCookie,
				Value:    sess.ID,
				Path:     "/",
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, sess)))
	})
}

func sessionFrom(r *http.Request) *session.Session {
	sess, _ := r.Context().Value(ctxKey{}).(*session.Session)
	return sess
}
