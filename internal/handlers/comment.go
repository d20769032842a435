package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"spaceblog/internal/logger"
	"spaceblog/internal/models"
	"spaceblog/internal/services"
	"spaceblog/internal/utils/helpers"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

type CommentHandler struct {
	svc services.CommentService
}

func NewCommentHandler(svc services.CommentService) *CommentHandler {
	return &CommentHandler{svc: svc}
}

// GetAll godoc
// @Summary      Очередь модерации комментариев
// @Description  Все комментарии с фильтром по статусу (pending/approved/blocked).
// @Tags         comments
// @Produce      json
// @Param        status   query  string  false  "Статус"
// @Param        page     query  int     false  "Страница"
// @Param        pageSize query  int     false  "Размер страницы"
// @Success      200  {object}  models.Paginated
// @Security     ApiKeyAuth
// @Router       /api/comments [get]
func (h *CommentHandler) GetAll(w http.ResponseWriter, r *http.Request) {
	page, pageSize := pagination(r)

	var status *models.CommentStatus
	switch models.CommentStatus(r.URL.Query().Get("status")) {
	case models.CommentPending:
		s := models.CommentPending
		status = &s
	case models.CommentApproved:
		s := models.CommentApproved
		status = &s
	case models.CommentBlocked:
		s := models.CommentBlocked
		status = &s
	}

	list, total, err := h.svc.GetAll(r.Context(), page, pageSize, status)
	if err != nil {
		writeError(w, err)
		return
	}

	helpers.JSON(w, http.StatusOK, models.NewPaginated(list, total, page, pageSize))
}

// GetByID godoc
// @Summary      Комментарий по ID
// @Tags         comments
// @Produce      json
// @Param        id  path  int  true  "ID комментария"
// @Success      200  {object}  models.Comment
// @Failure      404  {object}  helpers.Response
// @Router       /api/comments/{id} [get]
func (h *CommentHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		helpers.Error(w, http.StatusBadRequest, "Некорректный ID")
		return
	}

	c, err := h.svc.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	helpers.JSON(w, http.StatusOK, c)
}

// ListByArticle godoc
// @Summary      Комментарии статьи
// @Description  Корневые комментарии с ответами. По умолчанию только одобренные;
// @Description  onlyApproved=false доступно модерации.
// @Tags         comments
// @Produce      json
// @Param        articleId     path   int   true   "ID статьи"
// @Param        onlyApproved  query  bool  false  "Только одобренные"
// @Success      200  {array}  models.Comment
// @Router       /api/articles/{articleId}/comments [get]
func (h *CommentHandler) ListByArticle(w http.ResponseWriter, r *http.Request) {
	articleID, err := strconv.ParseInt(mux.Vars(r)["articleId"], 10, 64)
	if err != nil {
		helpers.Error(w, http.StatusBadRequest, "Некорректный ID статьи")
		return
	}

	onlyApproved := true
	if r.URL.Query().Get("onlyApproved") == "false" {
		for _, role := range rolesFromCtx(r) {
			if role == models.RoleAdmin || role == models.RoleModerator {
				onlyApproved = false
			}
		}
	}

	list, err := h.svc.ListByArticle(r.Context(), articleID, onlyApproved)
	if err != nil {
		writeError(w, err)
		return
	}

	helpers.JSON(w, http.StatusOK, list)
}

// Create godoc
// @Summary      Оставить комментарий
// @Description  Новый комментарий попадает в очередь модерации (если не включено автоодобрение).
// @Tags         comments
// @Accept       json
// @Produce      json
// @Param        body  body  models.CreateCommentRequest  true  "Данные комментария"
// @Success      201  {object}  models.Comment
// @Failure      400  {object}  helpers.Response
// @Security     ApiKeyAuth
// @Router       /api/comments [post]
func (h *CommentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WithCtx(r.Context()).Warn("Ошибка декодирования JSON при создании комментария", zap.Error(err))
		helpers.Error(w, http.StatusBadRequest, "Невалидный JSON")
		return
	}

	authorID, ok := userIDFromCtx(r)
	if !ok {
		helpers.Error(w, http.StatusUnauthorized, "Не удалось определить пользователя")
		return
	}

	c, err := h.svc.Create(r.Context(), authorID, req, clientIP(r), r.UserAgent())
	if err != nil {
		writeError(w, err)
		return
	}

	helpers.JSON(w, http.StatusCreated, c)
}

// Update godoc
// @Summary      Редактировать комментарий
// @Description  Доступно автору в течение 15 минут после создания.
// @Tags         comments
// @Accept       json
// @Produce      json
// @Param        id    path  int                          true  "ID комментария"
// @Param        body  body  models.UpdateCommentRequest  true  "Новый текст"
// @Success      200  {object}  models.Comment
// @Failure      403  {object}  helpers.Response
// @Security     ApiKeyAuth
// @Router       /api/comments/{id} [patch]
func (h *CommentHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		helpers.Error(w, http.StatusBadRequest, "Некорректный ID")
		return
	}

	var req models.UpdateCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		helpers.Error(w, http.StatusBadRequest, "Невалидный JSON")
		return
	}

	actorID, _ := userIDFromCtx(r)
	c, err := h.svc.Update(r.Context(), id, actorID, req)
	if err != nil {
		writeError(w, err)
		return
	}

	helpers.JSON(w, http.StatusOK, c)
}

// Delete godoc
// @Summary      Удалить комментарий
// @Description  Доступно автору, модератору или администратору.
// @Tags         comments
// @Param        id  path  int  true  "ID комментария"
// @Success      204  "Удалено"
// @Failure      403  {object}  helpers.Response
// @Security     ApiKeyAuth
// @Router       /api/comments/{id} [delete]
func (h *CommentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		helpers.Error(w, http.StatusBadRequest, "Некорректный ID")
		return
	}

	actorID, _ := userIDFromCtx(r)
	if err := h.svc.Delete(r.Context(), id, actorID); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Approve godoc
// @Summary      Одобрить комментарий
// @Tags         comments
// @Produce      json
// @Param        id  path  int  true  "ID комментария"
// @Success      200  {object}  models.Comment
// @Security     ApiKeyAuth
// @Router       /api/comments/{id}/approve [post]
func (h *CommentHandler) Approve(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		helpers.Error(w, http.StatusBadRequest, "Некорректный ID")
		return
	}

	moderatorID, _ := userIDFromCtx(r)
	c, err := h.svc.Approve(r.Context(), id, moderatorID)
	if err != nil {
		writeError(w, err)
		return
	}

	helpers.JSON(w, http.StatusOK, c)
}

// Block godoc
// @Summary      Заблокировать комментарий
// @Description  Причина обязательна.
// @Tags         comments
// @Accept       json
// @Produce      json
// @Param        id    path  int                         true  "ID комментария"
// @Param        body  body  models.BlockCommentRequest  true  "Причина блокировки"
// @Success      200  {object}  models.Comment
// @Failure      400  {object}  helpers.Response
// @Security     ApiKeyAuth
// @Router       /api/comments/{id}/block [post]
func (h *CommentHandler) Block(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		helpers.Error(w, http.StatusBadRequest, "Некорректный ID")
		return
	}

	var req models.BlockCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		helpers.Error(w, http.StatusBadRequest, "Невалидный JSON")
		return
	}

	moderatorID, _ := userIDFromCtx(r)
	c, err := h.svc.Block(r.Context(), id, moderatorID, req.Reason)
	if err != nil {
		writeError(w, err)
		return
	}

	helpers.JSON(w, http.StatusOK, c)
}
