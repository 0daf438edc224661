package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sysu-ecnc-dev/tz-grid/backend/internal/domain"
	"github.com/sysu-ecnc-dev/tz-grid/backend/internal/grid"
	"github.com/sysu-ecnc-dev/tz-grid/backend/internal/tzconv"
)

// gridQuery 是查看网格时的观察者时区和锚点日期，在请求边界上只确定一次
type gridQuery struct {
	Observer string
	Location *time.Location
	Anchor   time.Time
}

// readGridQuery 读取 tz 和 anchor 参数。
// tz 缺省时依次使用当前用户的偏好时区和配置中的默认时区，anchor 缺省时使用观察者时区的今天。
func (h *Handler) readGridQuery(r *http.Request) (gridQuery, error) {
	q := r.URL.Query()

	observer := q.Get("tz")
	if observer == "" {
		if myInfo, ok := r.Context().Value(MyInfoCtx).(*domain.User); ok {
			observer = myInfo.PreferredTimezone
		}
	}
	if observer == "" {
		observer = h.config.Grid.DefaultTimezone
	}
	if err := h.validate.Var(observer, "timezone"); err != nil {
		return gridQuery{}, fmt.Errorf("无效的时区 %q", observer)
	}

	loc, err := h.zones.Location(observer)
	if err != nil {
		return gridQuery{}, err
	}

	anchor, err := h.readAnchor(q.Get("anchor"), loc)
	if err != nil {
		return gridQuery{}, err
	}

	return gridQuery{
		Observer: observer,
		Location: loc,
		Anchor:   anchor,
	}, nil
}

func (h *Handler) readAnchor(s string, loc *time.Location) (time.Time, error) {
	if s == "" {
		y, m, d := h.now().In(loc).Date()
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
	}

	if err := h.validate.Var(s, "iso_date"); err != nil {
		return time.Time{}, fmt.Errorf("无效的锚点日期 %q", s)
	}
	return time.Parse(tzconv.DateLayout, s)
}

func (h *Handler) buildGrid(session *domain.Session, q gridQuery) (*grid.Grid, []*domain.Participant) {
	participants := h.repository.LoadParticipants(session.ID)
	engine := grid.NewEngine(tzconv.NewConverter(h.zones, q.Anchor), h.config.Grid.Palette, slog.Default())
	return engine.Aggregate(participants, q.Observer, session.AvailabilityType), participants
}

type participantView struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Role         string `json:"role"`
	HomeTimezone string `json:"homeTimezone"`
	Color        string `json:"color"`
}

type gridView struct {
	SessionID         int64                   `json:"sessionID"`
	Version           int32                   `json:"version"`
	Mode              domain.AvailabilityType `json:"mode"`
	ObserverTimezone  string                  `json:"observerTimezone"`
	ObserverIsDST     bool                    `json:"observerIsDST"`
	Anchor            string                  `json:"anchor"`
	Axis              []string                `json:"axis"`
	TotalParticipants int                     `json:"totalParticipants"`
	Participants      []participantView       `json:"participants"`
	Cells             []*grid.Cell            `json:"cells"`
	FullCoverage      []*grid.Cell            `json:"fullCoverage"`
	Suggestions       []*grid.Cell            `json:"suggestions"`
	Warnings          []grid.Warning          `json:"warnings"`
}

func (h *Handler) newGridView(session *domain.Session, g *grid.Grid, participants []*domain.Participant, q gridQuery) *gridView {
	views := make([]participantView, 0, len(participants))
	for _, p := range participants {
		views = append(views, participantView{
			ID:           p.ID.String(),
			Name:         p.Name,
			Role:         p.Role,
			HomeTimezone: p.HomeTimezone,
			Color:        g.Colors[p.ID.String()],
		})
	}

	// 以锚点当天正午判断观察者时区是否处于夏令时
	noon := time.Date(q.Anchor.Year(), q.Anchor.Month(), q.Anchor.Day(), 12, 0, 0, 0, q.Location)
	isDST, err := tzconv.IsDaylightSavingTime(h.zones, noon, q.Observer)
	if err != nil {
		slog.Warn("无法判断夏令时", "timezone", q.Observer, "error", err)
	}

	fullCoverage := g.FullCoverageCells()
	if fullCoverage == nil {
		fullCoverage = []*grid.Cell{}
	}
	warnings := g.Warnings
	if warnings == nil {
		warnings = []grid.Warning{}
	}

	return &gridView{
		SessionID:         session.ID,
		Version:           session.Version,
		Mode:              g.Mode,
		ObserverTimezone:  g.ObserverTimezone,
		ObserverIsDST:     isDST,
		Anchor:            q.Anchor.Format(tzconv.DateLayout),
		Axis:              g.Axis,
		TotalParticipants: g.TotalParticipants,
		Participants:      views,
		Cells:             g.Cells(),
		FullCoverage:      fullCoverage,
		Suggestions:       grid.Suggest(g, h.config.Grid.SuggestionCount),
		Warnings:          warnings,
	}
}

// 会话版本号在参与者变化时递增，因此缓存无需主动失效
func gridCacheKey(session *domain.Session, q gridQuery) string {
	return fmt.Sprintf("grid:%d:%d:%s:%s", session.ID, session.Version, q.Observer, q.Anchor.Format(tzconv.DateLayout))
}

func (h *Handler) cachedGridView(key string) (json.RawMessage, bool) {
	if h.redisClient == nil {
		return nil, false
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(h.config.Redis.OperationExpiration)*time.Second)
	defer cancel()

	data, err := h.redisClient.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			slog.Warn("读取网格缓存失败", "key", key, "error", err)
		}
		return nil, false
	}

	return json.RawMessage(data), true
}

func (h *Handler) cacheGridView(key string, view *gridView) {
	if h.redisClient == nil {
		return
	}

	data, err := json.Marshal(view)
	if err != nil {
		slog.Warn("序列化网格失败", "key", key, "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(h.config.Redis.OperationExpiration)*time.Second)
	defer cancel()

	if err := h.redisClient.Set(ctx, key, data, time.Duration(h.config.Redis.GridExpiration)*time.Second).Err(); err != nil {
		slog.Warn("写入网格缓存失败", "key", key, "error", err)
	}
}

func (h *Handler) GetSessionGrid(w http.ResponseWriter, r *http.Request) {
	session := r.Context().Value(SessionCtx).(*domain.Session)

	q, err := h.readGridQuery(r)
	if err != nil {
		h.badRequest(w, r, err)
		return
	}

	key := gridCacheKey(session, q)
	if data, ok := h.cachedGridView(key); ok {
		h.successResponse(w, r, "获取网格成功", data)
		return
	}

	g, participants := h.buildGrid(session, q)
	view := h.newGridView(session, g, participants, q)
	h.cacheGridView(key, view)

	h.successResponse(w, r, "获取网格成功", view)
}

// GetSessionDates 返回具体日期模式下网格的日期列
func (h *Handler) GetSessionDates(w http.ResponseWriter, r *http.Request) {
	session := r.Context().Value(SessionCtx).(*domain.Session)

	if session.AvailabilityType != domain.AvailabilitySpecific {
		h.errorResponse(w, r, "只有具体日期类型的会话才有日期列表")
		return
	}

	q, err := h.readGridQuery(r)
	if err != nil {
		h.badRequest(w, r, err)
		return
	}

	participants := h.repository.LoadParticipants(session.ID)
	engine := grid.NewEngine(tzconv.NewConverter(h.zones, q.Anchor), h.config.Grid.Palette, slog.Default())
	dates := engine.CalendarDates(participants, q.Observer)

	h.successResponse(w, r, "获取日期列表成功", dates)
}

func (h *Handler) ExportSessionGrid(w http.ResponseWriter, r *http.Request) {
	session := r.Context().Value(SessionCtx).(*domain.Session)

	q, err := h.readGridQuery(r)
	if err != nil {
		h.badRequest(w, r, err)
		return
	}

	g, _ := h.buildGrid(session, q)
	cal := buildCalendar(session, g, tzconv.NewConverter(h.zones, q.Anchor), q.Location, h.now())

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=session-%d.ics", session.ID))
	if err := cal.SerializeTo(w); err != nil {
		h.logInternalServerError(r, err)
	}
}

// SendSummaryMail 给每个填写了邮箱的参与者发送网格摘要
func (h *Handler) SendSummaryMail(w http.ResponseWriter, r *http.Request) {
	session := r.Context().Value(SessionCtx).(*domain.Session)

	q, err := h.readGridQuery(r)
	if err != nil {
		h.badRequest(w, r, err)
		return
	}

	g, participants := h.buildGrid(session, q)
	result := h.sendSummaryMails(session, g, participants, q.Observer)

	msg := fmt.Sprintf("已发送 %d 封摘要邮件", result.Sent)
	if result.Failed > 0 {
		msg = fmt.Sprintf("已发送 %d 封摘要邮件，%d 封发送失败", result.Sent, result.Failed)
	}
	h.successResponse(w, r, msg, result)
}

type summaryMailResult struct {
	Sent   int `json:"sent"`
	Failed int `json:"failed"`
}

// sendSummaryMails 逐个投递摘要邮件，单封失败只记录日志并继续
func (h *Handler) sendSummaryMails(session *domain.Session, g *grid.Grid, participants []*domain.Participant, observer string) summaryMailResult {
	fullCoverage := summarySlots(g.FullCoverageCells())
	suggestions := summarySlots(grid.Suggest(g, h.config.Grid.SuggestionCount))

	var result summaryMailResult
	for _, p := range participants {
		if p.Email == "" {
			continue
		}

		if err := h.sendMail(domain.MailMessage{
			Type: domain.MailTypeGridSummary,
			To:   p.Email,
			Data: domain.GridSummaryMailData{
				ParticipantName:   p.Name,
				SessionName:       session.Name,
				ObserverTimezone:  observer,
				TotalParticipants: g.TotalParticipants,
				FullCoverage:      fullCoverage,
				Suggestions:       suggestions,
			},
		}); err != nil {
			slog.Error("无法投递摘要邮件", "session", session.ID, "participant", p.ID.String(), "error", err)
			result.Failed++
			continue
		}
		result.Sent++
	}

	return result
}

func summarySlots(cells []*grid.Cell) []domain.GridSummarySlot {
	slots := make([]domain.GridSummarySlot, 0, len(cells))
	for _, c := range cells {
		slots = append(slots, domain.GridSummarySlot{Key: c.Key, Hour: c.Hour, Count: c.Count})
	}
	return slots
}
