package grid

import "sort"

// Suggest 返回人数最多的前 n 个格子，人数相同时按坐标轴顺序和小时排序，空格子不参与
func Suggest(g *Grid, n int) []*Cell {
	candidates := make([]*Cell, 0)
	for _, c := range g.Cells() {
		if c.Count > 0 {
			candidates = append(candidates, c)
		}
	}

	// Cells() 已经按坐标轴和小时排好，稳定排序即可保留这一次序
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Count > candidates[j].Count
	})

	if n > 0 && len(candidates) > n {
		return candidates[:n]
	}
	return candidates
}
