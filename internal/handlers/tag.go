package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"spaceblog/internal/logger"
	"spaceblog/internal/models"
	"spaceblog/internal/repository"
	"spaceblog/internal/services"
	"spaceblog/internal/utils/helpers"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

type TagHandler struct {
	svc      services.TagService
	articles services.ArticleService
}

func NewTagHandler(svc services.TagService, articles services.ArticleService) *TagHandler {
	return &TagHandler{svc: svc, articles: articles}
}

// GetAll godoc
// @Summary      Список тегов
// @Description  Активные теги с количеством использований. includeInactive=true доступно администратору.
// @Tags         tags
// @Produce      json
// @Param        includeInactive  query  bool  false  "Показывать неактивные"
// @Success      200  {array}  models.Tag
// @Router       /api/tags [get]
func (h *TagHandler) GetAll(w http.ResponseWriter, r *http.Request) {
	includeInactive := false
	if r.URL.Query().Get("includeInactive") == "true" {
		for _, role := range rolesFromCtx(r) {
			if role == models.RoleAdmin {
				includeInactive = true
			}
		}
	}

	list, err := h.svc.GetAll(r.Context(), includeInactive)
	if err != nil {
		writeError(w, err)
		return
	}

	helpers.JSON(w, http.StatusOK, list)
}

// GetByID godoc
// @Summary      Тег по ID
// @Tags         tags
// @Produce      json
// @Param        id  path  int  true  "ID тега"
// @Success      200  {object}  models.Tag
// @Failure      404  {object}  helpers.Response
// @Router       /api/tags/{id} [get]
func (h *TagHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		helpers.Error(w, http.StatusBadRequest, "Некорректный ID")
		return
	}

	t, err := h.svc.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	helpers.JSON(w, http.StatusOK, t)
}

// GetBySlug godoc
// @Summary      Тег по slug
// @Tags         tags
// @Produce      json
// @Param        slug  path  string  true  "Slug тега"
// @Success      200  {object}  models.Tag
// @Failure      404  {object}  helpers.Response
// @Router       /api/tags/slug/{slug} [get]
func (h *TagHandler) GetBySlug(w http.ResponseWriter, r *http.Request) {
	t, err := h.svc.GetBySlug(r.Context(), mux.Vars(r)["slug"])
	if err != nil {
		writeError(w, err)
		return
	}

	helpers.JSON(w, http.StatusOK, t)
}

// Articles godoc
// @Summary      Опубликованные статьи по тегу
// @Tags         tags
// @Produce      json
// @Param        id       path   int  true   "ID тега"
// @Param        page     query  int  false  "Страница"
// @Param        pageSize query  int  false  "Размер страницы"
// @Success      200  {object}  models.Paginated
// @Failure      404  {object}  helpers.Response
// @Router       /api/tags/{id}/articles [get]
func (h *TagHandler) Articles(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		helpers.Error(w, http.StatusBadRequest, "Некорректный ID")
		return
	}

	// Сначала убеждаемся, что тег существует — иначе 404 вместо пустого списка.
	if _, err := h.svc.GetByID(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}

	page, pageSize := pagination(r)
	filter := repository.ArticleFilter{OnlyPublished: true, TagID: &id}

	list, total, err := h.articles.GetAll(r.Context(), page, pageSize, filter)
	if err != nil {
		writeError(w, err)
		return
	}

	helpers.JSON(w, http.StatusOK, models.NewPaginated(list, total, page, pageSize))
}

// Create godoc
// @Summary      Создать тег
// @Tags         tags
// @Accept       json
// @Produce      json
// @Param        body  body  models.CreateTagRequest  true  "Данные тега"
// @Success      201  {object}  models.Tag
// @Failure      409  {object}  helpers.Response
// @Security     ApiKeyAuth
// @Router       /api/tags [post]
func (h *TagHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateTagRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WithCtx(r.Context()).Warn("Ошибка декодирования JSON при создании тега", zap.Error(err))
		helpers.Error(w, http.StatusBadRequest, "Невалидный JSON")
		return
	}

	creatorID, ok := userIDFromCtx(r)
	if !ok {
		helpers.Error(w, http.StatusUnauthorized, "Не удалось определить пользователя")
		return
	}

	t, err := h.svc.Create(r.Context(), creatorID, req)
	if err != nil {
		writeError(w, err)
		return
	}

	helpers.JSON(w, http.StatusCreated, t)
}

// Update godoc
// @Summary      Обновить тег
// @Tags         tags
// @Accept       json
// @Produce      json
// @Param        id    path  int                      true  "ID тега"
// @Param        body  body  models.UpdateTagRequest  true  "Данные тега"
// @Success      200  {object}  models.Tag
// @Failure      409  {object}  helpers.Response
// @Security     ApiKeyAuth
// @Router       /api/tags/{id} [patch]
func (h *TagHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		helpers.Error(w, http.StatusBadRequest, "Некорректный ID")
		return
	}

	var req models.UpdateTagRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		helpers.Error(w, http.StatusBadRequest, "Невалидный JSON")
		return
	}

	t, err := h.svc.Update(r.Context(), id, req)
	if err != nil {
		writeError(w, err)
		return
	}

	helpers.JSON(w, http.StatusOK, t)
}

// Delete godoc
// @Summary      Удалить тег
// @Description  Удаление отклоняется, если тег используется хотя бы в одной статье.
// @Tags         tags
// @Param        id  path  int  true  "ID тега"
// @Success      204  "Удалено"
// @Failure      409  {object}  helpers.Response
// @Security     ApiKeyAuth
// @Router       /api/tags/{id} [delete]
func (h *TagHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		helpers.Error(w, http.StatusBadRequest, "Некорректный ID")
		return
	}

	if err := h.svc.Delete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// SetActive godoc
// @Summary      Активировать или скрыть тег
// @Tags         tags
// @Accept       json
// @Param        id    path  int                  true  "ID тега"
// @Param        body  body  object{active=bool}  true  "Новый статус"
// @Success      204  "Обновлено"
// @Security     ApiKeyAuth
// @Router       /api/tags/{id}/active [patch]
func (h *TagHandler) SetActive(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		helpers.Error(w, http.StatusBadRequest, "Некорректный ID")
		return
	}

	var req struct {
		Active bool `json:"active"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		helpers.Error(w, http.StatusBadRequest, "Невалидный JSON")
		return
	}

	if err := h.svc.SetActive(r.Context(), id, req.Active); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
