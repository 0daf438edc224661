package handler

import (
	"errors"
	"net/http"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sysu-ecnc-dev/tz-grid/backend/internal/domain"
)

func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name             string `json:"name" validate:"required,max=100"`
		Description      string `json:"description" validate:"max=1000"`
		AvailabilityType string `json:"availabilityType" validate:"required,oneof=weekly specific"`
	}

	if err := h.readJSON(w, r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)

	session := &domain.Session{
		Name:             req.Name,
		Description:      req.Description,
		AvailabilityType: domain.AvailabilityType(req.AvailabilityType),
		OwnerID:          myInfo.ID,
	}

	if err := h.repository.CreateSession(session); err != nil {
		var pgErr *pgconn.PgError
		switch {
		case errors.As(err, &pgErr):
			switch pgErr.ConstraintName {
			case "sessions_owner_id_fkey":
				h.errorResponse(w, r, "会话所有者不存在")
			default:
				h.internalServerError(w, r, err)
			}
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "创建会话成功", session)
}

// GetAllSessions 管理员可以看到所有会话，组织者只能看到自己的
func (h *Handler) GetAllSessions(w http.ResponseWriter, r *http.Request) {
	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)

	ownerID := myInfo.ID
	if myInfo.Role == domain.RoleAdmin {
		ownerID = 0
	}

	sessions, err := h.repository.GetSessionsByOwner(ownerID)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取会话列表成功", sessions)
}

func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	session := r.Context().Value(SessionCtx).(*domain.Session)

	h.successResponse(w, r, "获取会话成功", session)
}

func (h *Handler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	session := r.Context().Value(SessionCtx).(*domain.Session)

	if err := h.repository.DeleteSession(session.ID); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "删除会话成功", nil)
}
