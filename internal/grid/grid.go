package grid

import (
	"time"

	"github.com/sysu-ecnc-dev/tz-grid/backend/internal/domain"
)

const HoursPerDay = 24

// Cell 是观察者时区中 (key, hour) 的一个格子
type Cell struct {
	Key          string   `json:"key"`
	Hour         int      `json:"hour"`
	Members      []string `json:"members"` // 按参与者的插入顺序排列
	Count        int      `json:"count"`
	FullCoverage bool     `json:"fullCoverage"`
}

type CellKey struct {
	Key  string
	Hour int
}

type WarningKind string

const (
	WarningZoneResolution    WarningKind = "zone_resolution"
	WarningConversionFailure WarningKind = "conversion_failure"
	WarningInputValidation   WarningKind = "input_validation"
)

// Warning 记录一条被降级或跳过的空闲时间
type Warning struct {
	ParticipantID string      `json:"participantID"`
	Key           string      `json:"key"`
	Hour          int         `json:"hour"`
	Kind          WarningKind `json:"kind"`
	Message       string      `json:"message"`
}

// Grid 是聚合结果，只读
type Grid struct {
	Mode              domain.AvailabilityType `json:"mode"`
	ObserverTimezone  string                  `json:"observerTimezone"`
	Anchor            time.Time               `json:"anchor"`
	Axis              []string                `json:"axis"`
	TotalParticipants int                     `json:"totalParticipants"`
	Colors            map[string]string       `json:"colors"`
	Warnings          []Warning               `json:"warnings"`

	cells map[CellKey]*Cell
}

// Cell 返回 (key, hour) 的格子；ok 为 false 表示该格子不在本次计算的网格内
func (g *Grid) Cell(key string, hour int) (*Cell, bool) {
	c, ok := g.cells[CellKey{Key: key, Hour: hour}]
	return c, ok
}

// Cells 按坐标轴顺序、小时升序返回全部格子
func (g *Grid) Cells() []*Cell {
	out := make([]*Cell, 0, len(g.Axis)*HoursPerDay)
	for _, key := range g.Axis {
		for hour := 0; hour < HoursPerDay; hour++ {
			out = append(out, g.cells[CellKey{Key: key, Hour: hour}])
		}
	}
	return out
}

// FullCoverageCells 返回所有参与者都有空的格子
func (g *Grid) FullCoverageCells() []*Cell {
	var out []*Cell
	for _, c := range g.Cells() {
		if c.FullCoverage {
			out = append(out, c)
		}
	}
	return out
}
