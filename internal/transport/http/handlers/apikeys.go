package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/Lukianos76/project-babel/internal/models"
	apierrors "github.com/Lukianos76/project-babel/internal/transport/http/errors"
	"github.com/Lukianos76/project-babel/internal/transport/http/middleware"
)

type createAPIKeyResponse struct {
	ID        string    `json:"id"`
	Token     string    `json:"token"`
	CreatedAt time.Time `json:"createdAt"`
}

// Значение токена в листинге не отдаётся — оно показывается строго один
// раз, в ответе на создание.
type apiKeyItem struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	Revoked   bool      `json:"revoked"`
}

func (h *Handlers) CreateAPIKey(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.PrincipalFrom(r.Context())
	if !ok {
		apierrors.WriteError(w, r, apierrors.ErrPermissionDenied)
		return
	}

	key, err := h.svc.CreateAPIKey(r.Context(), principal.UserID)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, createAPIKeyResponse{
		ID:        key.ID.String(),
		Token:     key.Token,
		CreatedAt: key.CreatedAt,
	})
}

func (h *Handlers) RevokeAPIKey(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		apierrors.WriteError(w, r, apierrors.ErrInvalidArgument)
		return
	}

	if err := h.svc.RevokeAPIKey(r.Context(), id); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) ListAPIKeys(w http.ResponseWriter, r *http.Request) {
	keys, err := h.svc.ListAPIKeys(r.Context())
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, apiKeysToItems(keys))
}

func apiKeysToItems(keys []models.APIKey) []apiKeyItem {
	items := make([]apiKeyItem, 0, len(keys))
	for _, k := range keys {
		items = append(items, apiKeyItem{
			ID:        k.ID.String(),
			CreatedAt: k.CreatedAt,
			Revoked:   k.Revoked,
		})
	}

	return items
}
