package handler

import "net/http"

func (h *Handler) GetAllProblems(w http.ResponseWriter, r *http.Request) {
	h.successResponse(w, r, "获取问题列表成功", h.registry.Records())
}
