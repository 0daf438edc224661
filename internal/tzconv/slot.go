package tzconv

import (
	"fmt"
	"time"
)

// DateLayout 是具体日期模式下 key 的 ISO 格式
const DateLayout = "2006-01-02"

// Slot 是某个参与者本地墙上时间中的一个小时。
// 只有 WeeklySlot 和 DateSlot 两种实现，模式由类型本身决定。
type Slot interface {
	Key() string
	SlotHour() int
	isSlot()
}

// WeeklySlot 表示每周重复的 (星期, 小时)
type WeeklySlot struct {
	Day  Weekday
	Hour int
}

func (s WeeklySlot) Key() string   { return s.Day.String() }
func (s WeeklySlot) SlotHour() int { return s.Hour }
func (WeeklySlot) isSlot()         {}

// DateSlot 表示具体日期上的某个小时，Date 只使用年月日部分
type DateSlot struct {
	Date time.Time
	Hour int
}

func (s DateSlot) Key() string   { return s.Date.Format(DateLayout) }
func (s DateSlot) SlotHour() int { return s.Hour }
func (DateSlot) isSlot()         {}

// Converted 是换算到目标时区后的时间段。
// Key 在每周模式下是星期名称，在具体日期模式下是 ISO 日期；Weekday 总是有值。
type Converted struct {
	Key     string `json:"key"`
	Hour    int    `json:"hour"`
	Weekday string `json:"weekday"`
}

func validHour(hour int) bool {
	return hour >= 0 && hour <= 23
}

// ParseWeeklySlot 校验星期名称和小时
func ParseWeeklySlot(key string, hour int) (WeeklySlot, error) {
	day, ok := ParseWeekday(key)
	if !ok {
		return WeeklySlot{}, &InputValidationWarning{Key: key, Hour: hour, Reason: "无法识别的星期名称"}
	}
	if !validHour(hour) {
		return WeeklySlot{}, &InputValidationWarning{Key: key, Hour: hour, Reason: "小时必须在 0 到 23 之间"}
	}
	return WeeklySlot{Day: day, Hour: hour}, nil
}

// ParseDateSlot 校验 ISO 日期和小时
func ParseDateSlot(key string, hour int) (DateSlot, error) {
	date, err := time.Parse(DateLayout, key)
	if err != nil {
		return DateSlot{}, &InputValidationWarning{Key: key, Hour: hour, Reason: fmt.Sprintf("日期格式错误: %v", err)}
	}
	if !validHour(hour) {
		return DateSlot{}, &InputValidationWarning{Key: key, Hour: hour, Reason: "小时必须在 0 到 23 之间"}
	}
	return DateSlot{Date: date, Hour: hour}, nil
}

// Unconverted 返回不做换算的原始时间段，用于换算失败时的降级
func Unconverted(slot Slot) Converted {
	switch s := slot.(type) {
	case WeeklySlot:
		return Converted{Key: s.Key(), Hour: s.Hour, Weekday: s.Day.String()}
	case DateSlot:
		return Converted{Key: s.Key(), Hour: s.Hour, Weekday: FromTimeWeekday(s.Date.Weekday()).String()}
	}
	return Converted{Key: slot.Key(), Hour: slot.SlotHour()}
}
