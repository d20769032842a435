package handlers

import (
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"

	"spaceblog/internal/apperr"
	"spaceblog/internal/middleware"
	"spaceblog/internal/utils/helpers"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// writeError отображает категорию бизнес-ошибки в HTTP-статус.
// Неклассифицированные ошибки наружу не раскрываются.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		helpers.Error(w, http.StatusNotFound, err.Error())
	case errors.Is(err, apperr.ErrForbidden):
		helpers.Error(w, http.StatusForbidden, err.Error())
	case errors.Is(err, apperr.ErrConflict):
		helpers.Error(w, http.StatusConflict, err.Error())
	case errors.Is(err, apperr.ErrValidation):
		helpers.Error(w, http.StatusBadRequest, err.Error())
	default:
		helpers.Error(w, http.StatusInternalServerError, "Внутренняя ошибка сервера")
	}
}

// pagination читает page/pageSize из query с разумными пределами.
func pagination(r *http.Request) (page, pageSize int) {
	page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	pageSize, _ = strconv.Atoi(r.URL.Query().Get("pageSize"))
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return page, pageSize
}

func userIDFromCtx(r *http.Request) (int, bool) {
	id, ok := r.Context().Value(middleware.ContextUserID).(int)
	return id, ok
}

func rolesFromCtx(r *http.Request) []string {
	if role, ok := r.Context().Value(middleware.ContextRole).(string); ok {
		return []string{role}
	}
	return nil
}

// clientIP — первый адрес из X-Forwarded-For, иначе RemoteAddr без порта.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		return strings.TrimSpace(parts[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
