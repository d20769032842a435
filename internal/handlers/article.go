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

type ArticleHandler struct {
	svc services.ArticleService
}

func NewArticleHandler(svc services.ArticleService) *ArticleHandler {
	return &ArticleHandler{svc: svc}
}

// GetAll godoc
// @Summary      Список статей
// @Description  Постраничный список. Неопубликованные видны только автору/модерации через all=true.
// @Tags         articles
// @Produce      json
// @Param        page     query  int    false  "Страница"
// @Param        pageSize query  int    false  "Размер страницы"
// @Param        tagId    query  int    false  "Фильтр по тегу"
// @Param        authorId query  int    false  "Фильтр по автору"
// @Success      200  {object}  models.Paginated
// @Router       /api/articles [get]
func (h *ArticleHandler) GetAll(w http.ResponseWriter, r *http.Request) {
	page, pageSize := pagination(r)

	filter := repository.ArticleFilter{OnlyPublished: true}
	if v := r.URL.Query().Get("tagId"); v != "" {
		if tagID, err := strconv.ParseInt(v, 10, 64); err == nil {
			filter.TagID = &tagID
		}
	}
	if v := r.URL.Query().Get("authorId"); v != "" {
		if authorID, err := strconv.Atoi(v); err == nil {
			filter.AuthorID = &authorID
		}
	}
	// Черновики выдаются только модерации и администраторам.
	if r.URL.Query().Get("all") == "true" {
		for _, role := range rolesFromCtx(r) {
			if role == models.RoleAdmin || role == models.RoleModerator {
				filter.OnlyPublished = false
			}
		}
	}

	list, total, err := h.svc.GetAll(r.Context(), page, pageSize, filter)
	if err != nil {
		writeError(w, err)
		return
	}

	helpers.JSON(w, http.StatusOK, models.NewPaginated(list, total, page, pageSize))
}

// GetByID godoc
// @Summary      Статья по ID
// @Description  Успешный показ увеличивает счётчик просмотров.
// @Tags         articles
// @Produce      json
// @Param        id  path  int  true  "ID статьи"
// @Success      200  {object}  models.Article
// @Failure      404  {object}  helpers.Response
// @Router       /api/articles/{id} [get]
func (h *ArticleHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		helpers.Error(w, http.StatusBadRequest, "Некорректный ID")
		return
	}

	a, err := h.svc.GetByID(r.Context(), id, true)
	if err != nil {
		writeError(w, err)
		return
	}

	helpers.JSON(w, http.StatusOK, a)
}

// GetBySlug godoc
// @Summary      Статья по slug
// @Tags         articles
// @Produce      json
// @Param        slug  path  string  true  "Slug статьи"
// @Success      200  {object}  models.Article
// @Failure      404  {object}  helpers.Response
// @Router       /api/articles/slug/{slug} [get]
func (h *ArticleHandler) GetBySlug(w http.ResponseWriter, r *http.Request) {
	slug := mux.Vars(r)["slug"]

	a, err := h.svc.GetBySlug(r.Context(), slug, true)
	if err != nil {
		writeError(w, err)
		return
	}

	helpers.JSON(w, http.StatusOK, a)
}

// Create godoc
// @Summary      Создать статью
// @Tags         articles
// @Accept       json
// @Produce      json
// @Param        body  body  models.CreateArticleRequest  true  "Данные статьи"
// @Success      201  {object}  models.Article
// @Failure      400  {object}  helpers.Response
// @Security     ApiKeyAuth
// @Router       /api/articles [post]
func (h *ArticleHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateArticleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WithCtx(r.Context()).Warn("Ошибка декодирования JSON при создании статьи", zap.Error(err))
		helpers.Error(w, http.StatusBadRequest, "Невалидный JSON")
		return
	}

	authorID, ok := userIDFromCtx(r)
	if !ok {
		helpers.Error(w, http.StatusUnauthorized, "Не удалось определить пользователя")
		return
	}

	a, err := h.svc.Create(r.Context(), authorID, req)
	if err != nil {
		writeError(w, err)
		return
	}

	helpers.JSON(w, http.StatusCreated, a)
}

// Update godoc
// @Summary      Обновить статью
// @Tags         articles
// @Accept       json
// @Produce      json
// @Param        id    path  int                          true  "ID статьи"
// @Param        body  body  models.UpdateArticleRequest  true  "Данные статьи"
// @Success      200  {object}  models.Article
// @Failure      403  {object}  helpers.Response
// @Security     ApiKeyAuth
// @Router       /api/articles/{id} [patch]
func (h *ArticleHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		helpers.Error(w, http.StatusBadRequest, "Некорректный ID")
		return
	}

	var req models.UpdateArticleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		helpers.Error(w, http.StatusBadRequest, "Невалидный JSON")
		return
	}

	actorID, _ := userIDFromCtx(r)
	a, err := h.svc.Update(r.Context(), id, actorID, rolesFromCtx(r), req)
	if err != nil {
		writeError(w, err)
		return
	}

	helpers.JSON(w, http.StatusOK, a)
}

// Delete godoc
// @Summary      Удалить статью
// @Description  Вместе со статьёй каскадно удаляются комментарии и связи с тегами.
// @Tags         articles
// @Param        id  path  int  true  "ID статьи"
// @Success      204  "Удалено"
// @Security     ApiKeyAuth
// @Router       /api/articles/{id} [delete]
func (h *ArticleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		helpers.Error(w, http.StatusBadRequest, "Некорректный ID")
		return
	}

	actorID, _ := userIDFromCtx(r)
	if err := h.svc.Delete(r.Context(), id, actorID, rolesFromCtx(r)); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// SetPublish godoc
// @Summary      Опубликовать или снять с публикации
// @Tags         articles
// @Accept       json
// @Produce      json
// @Param        id    path  int  true  "ID статьи"
// @Param        body  body  object{publish=bool}  true  "Статус публикации"
// @Success      200  {object}  models.Article
// @Security     ApiKeyAuth
// @Router       /api/articles/{id}/publish [patch]
func (h *ArticleHandler) SetPublish(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		helpers.Error(w, http.StatusBadRequest, "Некорректный ID")
		return
	}

	var req struct {
		Publish bool `json:"publish"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		helpers.Error(w, http.StatusBadRequest, "Невалидный JSON")
		return
	}

	a, err := h.svc.SetPublish(r.Context(), id, req.Publish)
	if err != nil {
		writeError(w, err)
		return
	}

	helpers.JSON(w, http.StatusOK, a)
}

// SetTags godoc
// @Summary      Заменить теги статьи
// @Tags         articles
// @Accept       json
// @Param        id    path  int                   true  "ID статьи"
// @Param        body  body  object{tagIds=[]int}  true  "Список ID тегов"
// @Success      204  "Обновлено"
// @Security     ApiKeyAuth
// @Router       /api/articles/{id}/tags [put]
func (h *ArticleHandler) SetTags(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		helpers.Error(w, http.StatusBadRequest, "Некорректный ID")
		return
	}

	var req struct {
		TagIDs []int64 `json:"tagIds"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		helpers.Error(w, http.StatusBadRequest, "Невалидный JSON")
		return
	}

	actorID, _ := userIDFromCtx(r)
	if err := h.svc.SetTags(r.Context(), id, actorID, rolesFromCtx(r), req.TagIDs); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Preview godoc
// @Summary      Предпросмотр статьи
// @Description  Возвращает очищенный HTML (без сохранения в БД)
// @Tags         articles
// @Accept       json
// @Produce      json
// @Param        body  body  object{content=string}  true  "Сырой HTML статьи"
// @Success      200  {object}  map[string]string
// @Security     ApiKeyAuth
// @Router       /api/articles/preview [post]
func (h *ArticleHandler) Preview(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		helpers.Error(w, http.StatusBadRequest, "Невалидный JSON")
		return
	}

	safe := h.svc.PreviewHTML(req.Content)
	helpers.JSON(w, http.StatusOK, map[string]string{"content": safe})
}
