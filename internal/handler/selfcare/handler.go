package selfcare

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/havenlabs/haven/backend/internal/model/selfcare"
	"github.com/havenlabs/haven/backend/pkg/utils"
)

// Handler 自助内容的HTTP处理器
type Handler struct {
	items selfcare.Store
}

// New 创建自助内容处理器
func New(items selfcare.Store) *Handler {
	return &Handler{
		items: items,
	}
}

// RegisterRoutes 注册自助内容相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/selfcare", h.handleListItems)
	r.Get("/selfcare/{itemID}", h.handleGetItem)
}

// handleListItems 列出所有自助内容
func (h *Handler) handleListItems(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, h.items.List())
}

// handleGetItem 按ID返回单条自助内容
func (h *Handler) handleGetItem(w http.ResponseWriter, r *http.Request) {
	itemID := chi.URLParam(r, "itemID")

	item, ok := h.items.FindByID(itemID)
	if !ok {
		utils.RespondError(w, http.StatusNotFound, "selfcare item not found")
		return
	}

	utils.RespondJSON(w, http.StatusOK, item)
}
