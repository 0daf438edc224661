package tzconv

import "time"

// Weekday 以周一为 0、周日为 6，与 time.Weekday（周日为 0）不同。
// 两种约定之间的转换只能通过 FromTimeWeekday 和 TimeWeekday 完成。
type Weekday int

const (
	Monday Weekday = iota
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

var weekdayNames = [...]string{
	"Monday",
	"Tuesday",
	"Wednesday",
	"Thursday",
	"Friday",
	"Saturday",
	"Sunday",
}

// WeekdayNames 返回按周一到周日排列的星期名称
func WeekdayNames() []string {
	names := make([]string, len(weekdayNames))
	copy(names, weekdayNames[:])
	return names
}

func (d Weekday) Valid() bool {
	return d >= Monday && d <= Sunday
}

func (d Weekday) String() string {
	if !d.Valid() {
		return ""
	}
	return weekdayNames[d]
}

// TimeWeekday 转换为 Go 标准库的 time.Weekday
func (d Weekday) TimeWeekday() time.Weekday {
	return time.Weekday((int(d) + 1) % 7)
}

// FromTimeWeekday 将 time.Weekday（周日为 0）转换为 Weekday（周一为 0）
func FromTimeWeekday(wd time.Weekday) Weekday {
	return Weekday((int(wd) + 6) % 7)
}

// ParseWeekday 只接受规范的英文星期名称（区分大小写）
func ParseWeekday(name string) (Weekday, bool) {
	for i, n := range weekdayNames {
		if n == name {
			return Weekday(i), true
		}
	}
	return 0, false
}
