package grid

import (
	"slices"

	"github.com/sysu-ecnc-dev/tz-grid/backend/internal/domain"
)

// CalendarDates 返回具体日期模式下所有空闲时间换算到观察者时区后涉及的日期，升序去重。
// 换算可能跨越日期边界，因此网格的列不能直接取参与者提交的日期。
func (e *Engine) CalendarDates(participants []*domain.Participant, observer string) []string {
	entries, _ := e.convertAll(participants, observer, domain.AvailabilitySpecific)
	return datesOf(entries)
}

func datesOf(entries []entry) []string {
	dates := make([]string, 0, len(entries))
	for _, en := range entries {
		dates = append(dates, en.slot.Key)
	}
	// ISO 日期的字典序就是时间顺序
	slices.Sort(dates)
	return slices.Compact(dates)
}
