package domain

import (
	"time"

	"github.com/google/uuid"
)

type AvailabilityType string

const (
	AvailabilityWeekly   AvailabilityType = "weekly"
	AvailabilitySpecific AvailabilityType = "specific"
)

func (t AvailabilityType) Valid() bool {
	return t == AvailabilityWeekly || t == AvailabilitySpecific
}

// Participant 的空闲时间以其 HomeTimezone 的墙上时间表示。
// 每周模式下 Availability 的 key 是星期名称，具体日期模式下是 ISO 日期。
type Participant struct {
	ID               uuid.UUID        `json:"id" yaml:"id"`
	SessionID        int64            `json:"sessionID" yaml:"-"`
	Name             string           `json:"name" yaml:"name"`
	Role             string           `json:"role" yaml:"role"`
	Email            string           `json:"email,omitempty" yaml:"email,omitempty"`
	HomeTimezone     string           `json:"homeTimezone" yaml:"home_timezone"`
	AvailabilityType AvailabilityType `json:"availabilityType" yaml:"availability_type"`
	Availability     map[string][]int `json:"availability" yaml:"availability"`
	Position         int32            `json:"position" yaml:"-"` // 在会话中的插入顺序，决定颜色
	CreatedAt        time.Time        `json:"createdAt" yaml:"-"`
}
