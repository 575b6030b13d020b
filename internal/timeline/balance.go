package timeline

import (
	"math"

	"github.com/hitoshi/campusfeed/internal/model"
)

const (
	// DefaultPostRatio は投稿:プロジェクト配分の既定目標（60:40）。
	DefaultPostRatio = 0.6

	// scarcityThreshold は片方の種別が候補全体に占める割合の下限。
	// これを下回る場合は目標比率を供給量に合わせて調整する。
	scarcityThreshold = 0.3

	// balanceCycleLength は配分サイクルのスロット数。
	balanceCycleLength = 3
)

// BalanceMix はスコア降順のエントリ列を、投稿:プロジェクト比が
// 目標比率に近づくよう並べ替える。種別内のスコア順は保存される。
// 繰り返し3スロットサイクルで2つの種別キューをマージし、
// 片方が尽きたら残りをそのまま流し込む。
// 片方の種別が候補の30%未満しかない場合は、サイクル内の配分を
// 供給量に合わせて寄せ、もう片方を枯渇させない。
func BalanceMix(entries []model.TimelineEntry, postRatio float64) []model.TimelineEntry {
	if len(entries) == 0 {
		return entries
	}

	var posts, projects []model.TimelineEntry
	for _, e := range entries {
		if e.ContentType == model.ContentTypeProject {
			projects = append(projects, e)
		} else {
			posts = append(posts, e)
		}
	}

	if len(posts) == 0 || len(projects) == 0 {
		return entries
	}

	postsPerCycle := postsPerCycleFor(len(posts), len(projects), postRatio)

	result := make([]model.TimelineEntry, 0, len(entries))
	pi, ri := 0, 0
	for pi < len(posts) && ri < len(projects) {
		for slot := 0; slot < balanceCycleLength; slot++ {
			if slot < postsPerCycle {
				if pi < len(posts) {
					result = append(result, posts[pi])
					pi++
				}
			} else {
				if ri < len(projects) {
					result = append(result, projects[ri])
					ri++
				}
			}
		}
	}

	// 残ったキューを流し込む
	result = append(result, posts[pi:]...)
	result = append(result, projects[ri:]...)

	return result
}

// postsPerCycleFor は3スロットサイクル中の投稿スロット数を決定する。
// 通常は目標比率の丸め（60:40なら2）、供給が偏っている場合は
// 実際の供給比率に合わせる。結果は[1, 2]に収まり、どちらの種別も
// サイクル内で最低1スロットを確保する。
func postsPerCycleFor(postCount, projectCount int, postRatio float64) int {
	total := postCount + projectCount

	ratio := postRatio
	postFrac := float64(postCount) / float64(total)
	projectFrac := float64(projectCount) / float64(total)
	if postFrac < scarcityThreshold || projectFrac < scarcityThreshold {
		ratio = postFrac
	}

	slots := int(math.Round(ratio * balanceCycleLength))
	if slots < 1 {
		slots = 1
	}
	if slots > balanceCycleLength-1 {
		slots = balanceCycleLength - 1
	}
	return slots
}
