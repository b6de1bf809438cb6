package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"hdgstudio-market-api/internal/middleware"
	"hdgstudio-market-api/internal/model"
	"hdgstudio-market-api/internal/service"
	"hdgstudio-market-api/pkg/apierror"
	"hdgstudio-market-api/pkg/response"

	"github.com/go-chi/chi/v5"
)

// PostHandler handles editorial post HTTP requests.
type PostHandler struct {
	posts *service.PostService
}

// NewPostHandler creates a new post handler.
func NewPostHandler(posts *service.PostService) *PostHandler {
	return &PostHandler{posts: posts}
}

func postID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apierror.BadRequest("invalid post id")
	}
	return id, nil
}

// PostRequest represents the request body for creating or editing a post.
type PostRequest struct {
	Title    string `json:"title"`
	ImageURL string `json:"image_url"`
	Realname string `json:"realname"`
}

// Create handles POST /api/v1/posts
func (h *PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	token := middleware.GetTokenDataFromContext(r.Context())
	if token == nil {
		response.Error(w, apierror.Unauthorized(""))
		return
	}
	if token.Role != "editor" && token.Role != "admin" {
		response.Error(w, apierror.Forbidden("editor role required"))
		return
	}

	var req PostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, apierror.BadRequest("invalid request body"))
		return
	}
	defer r.Body.Close()

	created, err := h.posts.Create(r.Context(), &model.Post{
		Title:          req.Title,
		ImageURL:       req.ImageURL,
		EditorID:       token.UserID,
		EditorRealname: req.Realname,
	})
	if err != nil {
		response.Error(w, err)
		return
	}
	response.Created(w, created)
}

// List handles GET /api/v1/posts
func (h *PostHandler) List(w http.ResponseWriter, r *http.Request) {
	posts, err := h.posts.GetAll(r.Context())
	if err != nil {
		response.Error(w, err)
		return
	}
	response.OK(w, posts)
}

// Mine handles GET /api/v1/posts/mine
func (h *PostHandler) Mine(w http.ResponseWriter, r *http.Request) {
	token := middleware.GetTokenDataFromContext(r.Context())
	if token == nil {
		response.Error(w, apierror.Unauthorized(""))
		return
	}

	posts, err := h.posts.GetByEditor(r.Context(), token.UserID)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.OK(w, posts)
}

// Get handles GET /api/v1/posts/{id}
func (h *PostHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := postID(r)
	if err != nil {
		response.Error(w, err)
		return
	}

	post, err := h.posts.GetByID(r.Context(), id)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.OK(w, post)
}

// Update handles PUT /api/v1/posts/{id}
func (h *PostHandler) Update(w http.ResponseWriter, r *http.Request) {
	token := middleware.GetTokenDataFromContext(r.Context())
	if token == nil {
		response.Error(w, apierror.Unauthorized(""))
		return
	}

	id, err := postID(r)
	if err != nil {
		response.Error(w, err)
		return
	}

	var req PostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, apierror.BadRequest("invalid request body"))
		return
	}
	defer r.Body.Close()

	updated, err := h.posts.Update(r.Context(), id, token.UserID, token.Role == "admin", req.Title, req.ImageURL)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.OK(w, updated)
}

// Lock handles POST /api/v1/posts/{id}/lock
func (h *PostHandler) Lock(w http.ResponseWriter, r *http.Request) {
	token := middleware.GetTokenDataFromContext(r.Context())
	if token == nil || token.Role != "admin" {
		response.Error(w, apierror.Forbidden("admin role required"))
		return
	}

	id, err := postID(r)
	if err != nil {
		response.Error(w, err)
		return
	}

	if err := h.posts.Lock(r.Context(), id); err != nil {
		response.Error(w, err)
		return
	}
	response.OK(w, map[string]string{"status": "locked"})
}

// Unlock handles POST /api/v1/posts/{id}/unlock
func (h *PostHandler) Unlock(w http.ResponseWriter, r *http.Request) {
	token := middleware.GetTokenDataFromContext(r.Context())
	if token == nil || token.Role != "admin" {
		response.Error(w, apierror.Forbidden("admin role required"))
		return
	}

	id, err := postID(r)
	if err != nil {
		response.Error(w, err)
		return
	}

	if err := h.posts.Unlock(r.Context(), id); err != nil {
		response.Error(w, err)
		return
	}
	response.OK(w, map[string]string{"status": "unlocked"})
}

// Delete handles DELETE /api/v1/posts/{id}
func (h *PostHandler) Delete(w http.ResponseWriter, r *http.Request) {
	token := middleware.GetTokenDataFromContext(r.Context())
	if token == nil {
		response.Error(w, apierror.Unauthorized(""))
		return
	}

	id, err := postID(r)
	if err != nil {
		response.Error(w, err)
		return
	}

	if err := h.posts.Delete(r.Context(), id, token.UserID, token.Role == "admin"); err != nil {
		response.Error(w, err)
		return
	}
	response.NoContent(w)
}
