package web

import (
	"context"
	"net/http"
	"strings"

	"content-commerce/internal/domain"
	"content-commerce/internal/domain/model"
	"content-commerce/internal/infra/logging"
)

// Identity headers set by the trusted gateway in front of the service.
const (
	HeaderUserID    = "X-User-ID"
	HeaderUserEmail = "X-User-Email"
	HeaderUserName  = "X-User-Name"
)

type ctxKey int

const actorKey ctxKey = iota

// Identity lifts the gateway headers into the request context.
func Identity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		a := model.Actor{
			ExtUserID: strings.TrimSpace(r.Header.Get(HeaderUserID)),
			Email:     strings.TrimSpace(r.Header.Get(HeaderUserEmail)),
			Username:  strings.TrimSpace(r.Header.Get(HeaderUserName)),
		}
		ctx := context.WithValue(r.Context(), actorKey, a)
		if a.Authenticated() {
			ctx = logging.WithUserID(ctx, a.ExtUserID)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func ActorFrom(ctx context.Context) model.Actor {
	a, _ := ctx.Value(actorKey).(model.Actor)
	return a
}

func (s *Server) requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !ActorFrom(r.Context()).Authenticated() {
			writeError(w, r, s.log, domain.ErrUnauthenticated)
			return
		}
		next.ServeHTTP(w, r)
	})
}
