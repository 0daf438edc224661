package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/sysu-ecnc-dev/tz-grid/backend/internal/tzconv"
)

// Convert 把一个时间段从 from 时区换算到 to 时区。
// key 是星期名称时按每周模式换算，是 ISO 日期时按具体日期换算。
func (h *Handler) Convert(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	req := struct {
		From string `validate:"required,timezone"`
		To   string `validate:"required,timezone"`
		Key  string `validate:"required"`
		Hour string `validate:"required,number"`
	}{
		From: q.Get("from"),
		To:   q.Get("to"),
		Key:  q.Get("key"),
		Hour: q.Get("hour"),
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	hour, err := strconv.Atoi(req.Hour)
	if err != nil {
		h.errorResponse(w, r, "小时必须是整数")
		return
	}

	var slot tzconv.Slot
	if _, ok := tzconv.ParseWeekday(req.Key); ok {
		slot, err = tzconv.ParseWeeklySlot(req.Key, hour)
	} else {
		slot, err = tzconv.ParseDateSlot(req.Key, hour)
	}
	if err != nil {
		h.badRequest(w, r, err)
		return
	}

	// 与网格一致，缺省锚点取目标时区的今天
	loc, err := h.zones.Location(req.To)
	if err != nil {
		h.badRequest(w, r, err)
		return
	}
	anchor, err := h.readAnchor(q.Get("anchor"), loc)
	if err != nil {
		h.badRequest(w, r, err)
		return
	}

	converted, err := tzconv.NewConverter(h.zones, anchor).Convert(req.From, req.To, slot)
	if err != nil {
		var warnErr *tzconv.InputValidationWarning
		if errors.As(err, &warnErr) {
			h.badRequest(w, r, err)
			return
		}
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "换算成功", struct {
		tzconv.Converted
		Anchor string `json:"anchor"`
	}{
		Converted: converted,
		Anchor:    anchor.Format(tzconv.DateLayout),
	})
}
