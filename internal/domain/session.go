package domain

import "time"

// Session 是一次多人排期，其中所有参与者使用同一种空闲时间类型
type Session struct {
	ID               int64            `json:"id"`
	Name             string           `json:"name"`
	Description      string           `json:"description"`
	AvailabilityType AvailabilityType `json:"availabilityType"`
	OwnerID          int64            `json:"ownerID"`
	CreatedAt        time.Time        `json:"createdAt"`
	Version          int32            `json:"version"`
}
