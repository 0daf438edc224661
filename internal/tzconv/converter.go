package tzconv

import (
	"errors"
	"fmt"
	"time"

	"github.com/teambition/rrule-go"
)

// 与 Weekday 的顺序一一对应（rrule-go 同样以周一为 0）
var rruleWeekdays = [...]rrule.Weekday{
	rrule.MO,
	rrule.TU,
	rrule.WE,
	rrule.TH,
	rrule.FR,
	rrule.SA,
	rrule.SU,
}

// Converter 把某个时区的墙上时间经由绝对时刻换算到另一个时区。
//
// 每周模式需要先确定"下一个星期 X"具体是哪一天，Converter 以显式传入的锚点日期为基准，
// 不读取当前时钟，因此相同的输入总是得到相同的结果。
type Converter struct {
	zones  ZoneDatabase
	anchor time.Time
}

// NewConverter 只使用 anchor 的年月日部分（按 anchor 自身所在的时区解读）
func NewConverter(zones ZoneDatabase, anchor time.Time) *Converter {
	if zones == nil {
		zones = DefaultZones()
	}
	y, m, d := anchor.Date()
	return &Converter{
		zones:  zones,
		anchor: time.Date(y, m, d, 0, 0, 0, 0, time.UTC),
	}
}

// Anchor 返回锚点日期（UTC 零点）
func (c *Converter) Anchor() time.Time {
	return c.anchor
}

// Zones 返回换算时使用的时区数据库
func (c *Converter) Zones() ZoneDatabase {
	return c.zones
}

// Convert 将 source 时区中的 slot 换算为 target 时区中的时间段。
//
// 返回的错误类型：
//   - *InputValidationWarning: slot 本身不合法，调用方应跳过该条目
//   - *ZoneResolutionError: 任一时区无法解析
//   - *ConversionFailure: 构造时间失败
func (c *Converter) Convert(source, target string, slot Slot) (Converted, error) {
	if slot == nil {
		return Converted{}, &ConversionFailure{Err: errors.New("slot 为空")}
	}
	if !validHour(slot.SlotHour()) {
		return Converted{}, &InputValidationWarning{Key: slot.Key(), Hour: slot.SlotHour(), Reason: "小时必须在 0 到 23 之间"}
	}

	var (
		date   time.Time
		weekly bool
	)
	switch s := slot.(type) {
	case WeeklySlot:
		if !s.Day.Valid() {
			return Converted{}, &InputValidationWarning{Key: s.Key(), Hour: s.Hour, Reason: "无法识别的星期"}
		}
		occ, err := c.NextOccurrence(s.Day)
		if err != nil {
			return Converted{}, &ConversionFailure{Key: s.Key(), Hour: s.Hour, Err: err}
		}
		date = occ
		weekly = true
	case DateSlot:
		date = s.Date
	default:
		return Converted{}, &ConversionFailure{Key: slot.Key(), Hour: slot.SlotHour(), Err: fmt.Errorf("不支持的时间段类型 %T", slot)}
	}

	srcLoc, err := c.zones.Location(source)
	if err != nil {
		return Converted{}, err
	}
	dstLoc, err := c.zones.Location(target)
	if err != nil {
		return Converted{}, err
	}

	// 偏移取该具体日期当天的规则，夏令时切换由时区数据库决定
	local := time.Date(date.Year(), date.Month(), date.Day(), slot.SlotHour(), 0, 0, 0, srcLoc)
	instant := local.UTC()
	out := instant.In(dstLoc)

	weekday := FromTimeWeekday(out.Weekday())
	converted := Converted{
		Hour:    out.Hour(),
		Weekday: weekday.String(),
	}
	if weekly {
		converted.Key = weekday.String()
	} else {
		converted.Key = out.Format(DateLayout)
	}

	return converted, nil
}

// NextOccurrence 返回锚点当天或之后第一个星期 day 的日期（UTC 零点）
func (c *Converter) NextOccurrence(day Weekday) (time.Time, error) {
	r, err := rrule.NewRRule(rrule.ROption{
		Freq:      rrule.WEEKLY,
		Count:     1,
		Byweekday: []rrule.Weekday{rruleWeekdays[day]},
		Dtstart:   c.anchor,
	})
	if err != nil {
		return time.Time{}, err
	}

	occurrences := r.All()
	if len(occurrences) == 0 {
		return time.Time{}, fmt.Errorf("锚点 %s 之后没有 %s", c.anchor.Format(DateLayout), day)
	}
	return occurrences[0], nil
}
