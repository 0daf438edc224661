package utils

import (
	"errors"
	"fmt"
	"slices"

	"github.com/sysu-ecnc-dev/tz-grid/backend/internal/domain"
	"github.com/sysu-ecnc-dev/tz-grid/backend/internal/tzconv"
)

// NormalizeHours 去重并升序排列
func NormalizeHours(hours []int) []int {
	out := slices.Clone(hours)
	slices.Sort(out)
	return slices.Compact(out)
}

// ValidateParticipantAvailability 检查空闲时间与会话类型是否匹配，并在通过后规范化小时列表
func ValidateParticipantAvailability(p *domain.Participant, availabilityType domain.AvailabilityType) error {
	if p.AvailabilityType != "" && p.AvailabilityType != availabilityType {
		return fmt.Errorf("空闲时间类型 %s 与会话类型 %s 不一致", p.AvailabilityType, availabilityType)
	}

	if len(p.Availability) == 0 {
		return errors.New("至少需要提供一个空闲时间")
	}

	for key, hours := range p.Availability {
		switch availabilityType {
		case domain.AvailabilitySpecific:
			if _, err := tzconv.ParseDateSlot(key, 0); err != nil {
				return fmt.Errorf("无效的日期 %q", key)
			}
		case domain.AvailabilityWeekly:
			if _, ok := tzconv.ParseWeekday(key); !ok {
				return fmt.Errorf("无效的星期 %q", key)
			}
		default:
			return fmt.Errorf("未知的空闲时间类型 %s", availabilityType)
		}

		if len(hours) == 0 {
			return fmt.Errorf("%s 没有选择任何小时", key)
		}
		for _, hour := range hours {
			if hour < 0 || hour > 23 {
				return fmt.Errorf("%s 的小时 %d 超出范围", key, hour)
			}
		}
	}

	for key, hours := range p.Availability {
		p.Availability[key] = NormalizeHours(hours)
	}
	p.AvailabilityType = availabilityType

	return nil
}
