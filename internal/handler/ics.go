package handler

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/sysu-ecnc-dev/tz-grid/backend/internal/domain"
	"github.com/sysu-ecnc-dev/tz-grid/backend/internal/grid"
	"github.com/sysu-ecnc-dev/tz-grid/backend/internal/tzconv"
)

const icsLocalLayout = "20060102T150405"

// buildCalendar 把所有参与者都有空的格子导出为观察者时区中的一小时事件。
// 每周模式的事件按周重复，起始日期取锚点之后第一次出现的那一天。
func buildCalendar(session *domain.Session, g *grid.Grid, conv *tzconv.Converter, loc *time.Location, stamp time.Time) *ics.Calendar {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//sysu-ecnc-dev//tz-grid//ZH")
	cal.SetXWRCalName(session.Name)
	cal.SetXWRTimezone(g.ObserverTimezone)

	for _, c := range g.FullCoverageCells() {
		start, err := cellStart(conv, g.Mode, c, loc)
		if err != nil {
			slog.Warn("无法导出格子", "key", c.Key, "hour", c.Hour, "error", err)
			continue
		}
		end := start.Add(time.Hour)

		event := cal.AddEvent(fmt.Sprintf("session-%d-%s-%02d@tz-grid", session.ID, c.Key, c.Hour))
		event.SetDtStampTime(stamp)
		event.SetProperty(ics.ComponentPropertyDtStart, start.Format(icsLocalLayout), ics.WithTZID(g.ObserverTimezone))
		event.SetProperty(ics.ComponentPropertyDtEnd, end.Format(icsLocalLayout), ics.WithTZID(g.ObserverTimezone))
		event.SetSummary(fmt.Sprintf("%s（%d 人全部有空）", session.Name, c.Count))
		event.SetDescription(strings.Join(c.Members, "\n"))
		if g.Mode == domain.AvailabilityWeekly {
			event.AddRrule("FREQ=WEEKLY")
		}
	}

	return cal
}

func cellStart(conv *tzconv.Converter, mode domain.AvailabilityType, c *grid.Cell, loc *time.Location) (time.Time, error) {
	var date time.Time
	switch mode {
	case domain.AvailabilitySpecific:
		d, err := time.Parse(tzconv.DateLayout, c.Key)
		if err != nil {
			return time.Time{}, err
		}
		date = d
	default:
		day, ok := tzconv.ParseWeekday(c.Key)
		if !ok {
			return time.Time{}, fmt.Errorf("无法识别的星期 %q", c.Key)
		}
		d, err := conv.NextOccurrence(day)
		if err != nil {
			return time.Time{}, err
		}
		date = d
	}

	return time.Date(date.Year(), date.Month(), date.Day(), c.Hour, 0, 0, 0, loc), nil
}
