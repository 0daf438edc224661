package grid

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sort"

	"github.com/sysu-ecnc-dev/tz-grid/backend/internal/domain"
	"github.com/sysu-ecnc-dev/tz-grid/backend/internal/tzconv"
)

// Engine 把参与者的空闲时间换算到观察者时区并按格子聚合
type Engine struct {
	converter *tzconv.Converter
	palette   []string
	logger    *slog.Logger
}

func NewEngine(converter *tzconv.Converter, palette []string, logger *slog.Logger) *Engine {
	if len(palette) == 0 {
		palette = DefaultPalette
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		converter: converter,
		palette:   palette,
		logger:    logger,
	}
}

// entry 是一条已经换算（或降级）到观察者时区的空闲时间
type entry struct {
	participant int
	slot        tzconv.Converted
}

// Aggregate 计算观察者时区下的网格。
// participants 的顺序即规范顺序，决定格子内成员的顺序和颜色。
func (e *Engine) Aggregate(participants []*domain.Participant, observer string, mode domain.AvailabilityType) *Grid {
	entries, warnings := e.convertAll(participants, observer, mode)

	var axis []string
	switch mode {
	case domain.AvailabilitySpecific:
		axis = datesOf(entries)
	default:
		axis = tzconv.WeekdayNames()
	}

	g := &Grid{
		Mode:              mode,
		ObserverTimezone:  observer,
		Anchor:            e.converter.Anchor(),
		Axis:              axis,
		TotalParticipants: len(participants),
		Colors:            AssignColors(participants, e.palette),
		Warnings:          warnings,
		cells:             make(map[CellKey]*Cell, len(axis)*HoursPerDay),
	}

	for _, key := range axis {
		for hour := 0; hour < HoursPerDay; hour++ {
			g.cells[CellKey{Key: key, Hour: hour}] = &Cell{
				Key:     key,
				Hour:    hour,
				Members: []string{},
			}
		}
	}

	// entries 已按参与者顺序排列，因此追加即可保持成员的规范顺序
	for _, en := range entries {
		cell, ok := g.cells[CellKey{Key: en.slot.Key, Hour: en.slot.Hour}]
		if !ok {
			continue
		}
		id := participants[en.participant].ID.String()
		if slices.Contains(cell.Members, id) {
			continue
		}
		cell.Members = append(cell.Members, id)
	}

	for _, cell := range g.cells {
		cell.Count = len(cell.Members)
		cell.FullCoverage = g.TotalParticipants > 0 && cell.Count == g.TotalParticipants
	}

	return g
}

// convertAll 逐条换算空闲时间，单条失败不会影响其他条目
func (e *Engine) convertAll(participants []*domain.Participant, observer string, mode domain.AvailabilityType) ([]entry, []Warning) {
	var (
		entries  []entry
		warnings []Warning
	)

	for i, p := range participants {
		pid := p.ID.String()

		if p.AvailabilityType != "" && p.AvailabilityType != mode {
			warnings = append(warnings, e.warn(pid, "", 0, WarningInputValidation,
				fmt.Sprintf("参与者的空闲时间类型 %s 与会话类型 %s 不一致", p.AvailabilityType, mode)))
			continue
		}

		for _, key := range sortedKeys(p.Availability) {
			for _, hour := range distinctHours(p.Availability[key]) {
				var (
					slot tzconv.Slot
					err  error
				)
				switch mode {
				case domain.AvailabilitySpecific:
					slot, err = tzconv.ParseDateSlot(key, hour)
				default:
					slot, err = tzconv.ParseWeeklySlot(key, hour)
				}
				if err != nil {
					warnings = append(warnings, e.warn(pid, key, hour, WarningInputValidation, err.Error()))
					continue
				}

				converted, err := e.converter.Convert(p.HomeTimezone, observer, slot)
				if err != nil {
					var (
						zoneErr *tzconv.ZoneResolutionError
						warnErr *tzconv.InputValidationWarning
					)
					switch {
					case errors.As(err, &warnErr):
						warnings = append(warnings, e.warn(pid, key, hour, WarningInputValidation, err.Error()))
						continue
					case errors.As(err, &zoneErr):
						warnings = append(warnings, e.warn(pid, key, hour, WarningZoneResolution, err.Error()))
					default:
						warnings = append(warnings, e.warn(pid, key, hour, WarningConversionFailure, err.Error()))
					}
					// 降级为未换算的原始时间段
					converted = tzconv.Unconverted(slot)
				}

				entries = append(entries, entry{participant: i, slot: converted})
			}
		}
	}

	return entries, warnings
}

func (e *Engine) warn(participantID, key string, hour int, kind WarningKind, msg string) Warning {
	e.logger.Warn("空闲时间换算被降级", "participant", participantID, "key", key, "hour", hour, "kind", kind, "error", msg)
	return Warning{
		ParticipantID: participantID,
		Key:           key,
		Hour:          hour,
		Kind:          kind,
		Message:       msg,
	}
}

func sortedKeys(m map[string][]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func distinctHours(hours []int) []int {
	out := slices.Clone(hours)
	slices.Sort(out)
	return slices.Compact(out)
}
