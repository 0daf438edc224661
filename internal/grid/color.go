package grid

import "github.com/sysu-ecnc-dev/tz-grid/backend/internal/domain"

var DefaultPalette = []string{
	"#4e79a7",
	"#f28e2b",
	"#e15759",
	"#76b7b2",
	"#59a14f",
	"#edc948",
	"#b07aa1",
	"#ff9da7",
	"#9c755f",
	"#bab0ac",
}

// ColorOf 返回规范顺序中第 index 个参与者的颜色
func ColorOf(index int, palette []string) string {
	if len(palette) == 0 {
		palette = DefaultPalette
	}
	return palette[index%len(palette)]
}

// AssignColors 只依赖参与者顺序，与聚合结果无关
func AssignColors(participants []*domain.Participant, palette []string) map[string]string {
	colors := make(map[string]string, len(participants))
	for i, p := range participants {
		colors[p.ID.String()] = ColorOf(i, palette)
	}
	return colors
}
