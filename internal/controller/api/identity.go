package api

import (
	"context"
	"net/http"

	"github.com/Tejasaibodepudi/Donor-saathi/internal/model"
	"github.com/google/uuid"
)

const (
	HeaderActorID   = "X-Actor-ID"
	HeaderActorRole = "X-Actor-Role"
)

type principalKey struct{}

// identity строит вызывающего из заголовков, выставленных шлюзом аутентификации
func identity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rawID := r.Header.Get(HeaderActorID)
		rawRole := r.Header.Get(HeaderActorRole)
		if rawID == "" || rawRole == "" {
			writeStatus(w, http.StatusUnauthorized, "unauthenticated", "actor headers are required")
			return
		}

		id, err := uuid.Parse(rawID)
		if err != nil {
			writeStatus(w, http.StatusUnauthorized, "unauthenticated", "invalid actor id")
			return
		}

		p, err := model.PrincipalFromRole(model.Role(rawRole), id)
		if err != nil {
			writeStatus(w, http.StatusUnauthorized, "unauthenticated", err.Error())
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), principalKey{}, p)))
	})
}

func principalFrom(ctx context.Context) model.Principal {
	p, _ := ctx.Value(principalKey{}).(model.Principal)
	return p
}

// requireRole достаёт вызывающего нужного вида или отвечает 403
func requireRole[T model.Principal](w http.ResponseWriter, r *http.Request) (T, bool) {
	p, ok := principalFrom(r.Context()).(T)
	if !ok {
		writeStatus(w, http.StatusForbidden, "forbidden", "operation is not allowed for this role")
	}
	return p, ok
}
