package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sysu-ecnc-dev/tz-grid/backend/internal/config"
	"github.com/sysu-ecnc-dev/tz-grid/backend/internal/domain"
	"github.com/sysu-ecnc-dev/tz-grid/backend/internal/grid"
	"github.com/sysu-ecnc-dev/tz-grid/backend/internal/tzconv"
)

func newTestHandler(t *testing.T) *Handler {
	t.Helper()

	cfg := &config.Config{}
	cfg.Grid.DefaultTimezone = "UTC"
	cfg.Grid.SuggestionCount = 5

	h, err := NewHandler(cfg, nil, nil, nil)
	require.NoError(t, err)
	h.now = func() time.Time { return time.Date(2024, 1, 7, 20, 0, 0, 0, time.UTC) }
	h.RegisterRoutes()
	return h
}

func get(t *testing.T, h *Handler, target string) Response {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	h.Mux.ServeHTTP(rec, req)

	var resp Response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func TestConvert(t *testing.T) {
	h := newTestHandler(t)

	tests := []struct {
		name   string
		target string
		want   map[string]any
	}{
		{
			name:   "weekly rolls over to the next day",
			target: "/convert?from=America/New_York&to=Asia/Tokyo&key=Monday&hour=22&anchor=2024-01-08",
			want:   map[string]any{"key": "Tuesday", "hour": float64(12), "weekday": "Tuesday", "anchor": "2024-01-08"},
		},
		{
			name:   "specific date",
			target: "/convert?from=America/Los_Angeles&to=Europe/London&key=2024-07-04&hour=23",
			want:   map[string]any{"key": "2024-07-05", "hour": float64(7), "weekday": "Friday", "anchor": "2024-01-07"},
		},
		{
			// 此刻东京已经是 1 月 8 日，而纽约还是 1 月 7 日
			name:   "default anchor follows the target zone",
			target: "/convert?from=America/New_York&to=Asia/Tokyo&key=Sunday&hour=22",
			want:   map[string]any{"key": "Monday", "hour": float64(12), "weekday": "Monday", "anchor": "2024-01-08"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := get(t, h, tt.target)
			require.True(t, resp.Success, resp.Message)
			assert.Equal(t, tt.want, resp.Data)
		})
	}
}

func TestConvertRejectsBadInput(t *testing.T) {
	h := newTestHandler(t)

	targets := []string{
		"/convert?from=Mars/Olympus&to=UTC&key=Monday&hour=1",
		"/convert?from=UTC&to=Local&key=Monday&hour=1",
		"/convert?from=UTC&to=Asia/Tokyo&key=Funday&hour=1",
		"/convert?from=UTC&to=Asia/Tokyo&key=Monday&hour=24",
		"/convert?from=UTC&to=Asia/Tokyo&key=Monday",
		"/convert?from=UTC&to=Asia/Tokyo&key=Monday&hour=1&anchor=2024-13-01",
	}

	for _, target := range targets {
		resp := get(t, h, target)
		assert.False(t, resp.Success, target)
		assert.NotEmpty(t, resp.Message, target)
	}
}

func TestReadGridQueryDefaults(t *testing.T) {
	h := newTestHandler(t)

	// 没有登录用户时使用配置中的默认时区，锚点是该时区的今天
	r := httptest.NewRequest(http.MethodGet, "/sessions/1/grid", nil)
	q, err := h.readGridQuery(r)
	require.NoError(t, err)
	assert.Equal(t, "UTC", q.Observer)
	assert.Equal(t, "2024-01-07", q.Anchor.Format(tzconv.DateLayout))

	// 用户的偏好时区优先于默认时区，东京此时已经是第二天
	user := &domain.User{PreferredTimezone: "Asia/Tokyo"}
	r = r.WithContext(context.WithValue(r.Context(), MyInfoCtx, user))
	q, err = h.readGridQuery(r)
	require.NoError(t, err)
	assert.Equal(t, "Asia/Tokyo", q.Observer)
	assert.Equal(t, "2024-01-08", q.Anchor.Format(tzconv.DateLayout))

	// 显式参数优先
	r = httptest.NewRequest(http.MethodGet, "/sessions/1/grid?tz=Europe/Berlin&anchor=2024-03-31", nil)
	r = r.WithContext(context.WithValue(r.Context(), MyInfoCtx, user))
	q, err = h.readGridQuery(r)
	require.NoError(t, err)
	assert.Equal(t, "Europe/Berlin", q.Observer)
	assert.Equal(t, "2024-03-31", q.Anchor.Format(tzconv.DateLayout))

	r = httptest.NewRequest(http.MethodGet, "/sessions/1/grid?tz=Nowhere/City", nil)
	_, err = h.readGridQuery(r)
	assert.Error(t, err)
}

func TestGridCacheKeyFollowsVersion(t *testing.T) {
	q := gridQuery{Observer: "Asia/Tokyo", Anchor: time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)}

	before := gridCacheKey(&domain.Session{ID: 3, Version: 1}, q)
	after := gridCacheKey(&domain.Session{ID: 3, Version: 2}, q)

	assert.Equal(t, "grid:3:1:Asia/Tokyo:2024-01-08", before)
	assert.NotEqual(t, before, after)
}

func TestBuildCalendar(t *testing.T) {
	anchor := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	conv := tzconv.NewConverter(tzconv.NewZones(), anchor)
	engine := grid.NewEngine(conv, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))

	participants := []*domain.Participant{
		{ID: uuid.New(), Name: "a", HomeTimezone: "UTC", AvailabilityType: domain.AvailabilityWeekly, Availability: map[string][]int{"Monday": {9, 10}}},
		{ID: uuid.New(), Name: "b", HomeTimezone: "Europe/London", AvailabilityType: domain.AvailabilityWeekly, Availability: map[string][]int{"Monday": {9}}},
	}
	g := engine.Aggregate(participants, "UTC", domain.AvailabilityWeekly)

	session := &domain.Session{ID: 7, Name: "周会", AvailabilityType: domain.AvailabilityWeekly}
	cal := buildCalendar(session, g, conv, time.UTC, anchor)
	out := cal.Serialize()

	assert.Equal(t, 1, len(cal.Events()))
	assert.Contains(t, out, "DTSTART;TZID=UTC:20240115T090000")
	assert.Contains(t, out, "DTEND;TZID=UTC:20240115T100000")
	assert.Contains(t, out, "RRULE:FREQ=WEEKLY")
	assert.Contains(t, out, "session-7-Monday-09@tz-grid")
}

func TestSummarySlots(t *testing.T) {
	cells := []*grid.Cell{{Key: "Monday", Hour: 9, Count: 2}, {Key: "Friday", Hour: 17, Count: 1}}

	assert.Equal(t, []domain.GridSummarySlot{
		{Key: "Monday", Hour: 9, Count: 2},
		{Key: "Friday", Hour: 17, Count: 1},
	}, summarySlots(cells))
	assert.Empty(t, summarySlots(nil))
}

func TestSendSummaryMailsContinuesAfterFailure(t *testing.T) {
	h := newTestHandler(t)

	var delivered []string
	h.sendMail = func(msg domain.MailMessage) error {
		if msg.To == "bob@example.com" {
			return errors.New("队列不可用")
		}
		delivered = append(delivered, msg.To)
		return nil
	}

	anchor := time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)
	engine := grid.NewEngine(tzconv.NewConverter(tzconv.NewZones(), anchor), nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
	participants := []*domain.Participant{
		{ID: uuid.New(), Name: "alice", Email: "alice@example.com", HomeTimezone: "UTC", AvailabilityType: domain.AvailabilityWeekly, Availability: map[string][]int{"Monday": {9}}},
		{ID: uuid.New(), Name: "bob", Email: "bob@example.com", HomeTimezone: "UTC", AvailabilityType: domain.AvailabilityWeekly, Availability: map[string][]int{"Monday": {9}}},
		{ID: uuid.New(), Name: "carol", HomeTimezone: "UTC", AvailabilityType: domain.AvailabilityWeekly, Availability: map[string][]int{"Monday": {9}}},
		{ID: uuid.New(), Name: "dave", Email: "dave@example.com", HomeTimezone: "UTC", AvailabilityType: domain.AvailabilityWeekly, Availability: map[string][]int{"Monday": {9}}},
	}
	g := engine.Aggregate(participants, "UTC", domain.AvailabilityWeekly)

	result := h.sendSummaryMails(&domain.Session{ID: 1, Name: "周会"}, g, participants, "UTC")

	assert.Equal(t, summaryMailResult{Sent: 2, Failed: 1}, result)
	assert.Equal(t, []string{"alice@example.com", "dave@example.com"}, delivered)
}
