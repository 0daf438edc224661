package handler

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sysu-ecnc-dev/tz-grid/backend/internal/domain"
	"github.com/sysu-ecnc-dev/tz-grid/backend/internal/repository"
	"github.com/sysu-ecnc-dev/tz-grid/backend/internal/utils"
)

func (h *Handler) CreateParticipant(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name             string           `json:"name" validate:"required,max=100"`
		Role             string           `json:"role" validate:"max=100"`
		Email            string           `json:"email" validate:"omitempty,email"`
		HomeTimezone     string           `json:"homeTimezone" validate:"required,timezone"`
		AvailabilityType string           `json:"availabilityType" validate:"omitempty,oneof=weekly specific"`
		Availability     map[string][]int `json:"availability" validate:"required"`
	}

	if err := h.readJSON(w, r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	session := r.Context().Value(SessionCtx).(*domain.Session)

	participant := &domain.Participant{
		ID:               uuid.New(),
		SessionID:        session.ID,
		Name:             req.Name,
		Role:             req.Role,
		Email:            req.Email,
		HomeTimezone:     req.HomeTimezone,
		AvailabilityType: domain.AvailabilityType(req.AvailabilityType),
		Availability:     req.Availability,
	}

	// 检查空闲时间是否与会话类型一致，同时对小时去重排序
	if err := utils.ValidateParticipantAvailability(participant, session.AvailabilityType); err != nil {
		h.badRequest(w, r, err)
		return
	}

	if err := h.repository.InsertParticipant(participant, h.config.Grid.MaxParticipants); err != nil {
		var pgErr *pgconn.PgError
		switch {
		case errors.Is(err, repository.ErrTooManyParticipants):
			h.errorResponse(w, r, fmt.Sprintf("每个会话最多只能有 %d 个参与者", h.config.Grid.MaxParticipants))
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, "会话不存在")
		case errors.As(err, &pgErr):
			switch pgErr.ConstraintName {
			case "participants_session_name_key":
				h.errorResponse(w, r, "参与者名称已存在")
			default:
				h.internalServerError(w, r, err)
			}
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "添加参与者成功", participant)
}

func (h *Handler) GetAllParticipants(w http.ResponseWriter, r *http.Request) {
	session := r.Context().Value(SessionCtx).(*domain.Session)

	participants, err := h.repository.GetParticipantsBySessionID(session.ID)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取参与者列表成功", participants)
}

func (h *Handler) DeleteParticipant(w http.ResponseWriter, r *http.Request) {
	session := r.Context().Value(SessionCtx).(*domain.Session)
	participantID := r.Context().Value(ParticipantCtx).(uuid.UUID)

	if err := h.repository.DeleteParticipant(session.ID, participantID); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, "参与者不存在")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "删除参与者成功", nil)
}
