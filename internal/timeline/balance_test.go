package timeline

import (
	"fmt"
	"testing"

	"github.com/hitoshi/campusfeed/internal/model"
)

// makeEntries はスコア降順のテスト用エントリ列を生成する。
func makeEntries(postCount, projectCount int) []model.TimelineEntry {
	var entries []model.TimelineEntry
	score := 100.0
	for i := 0; i < postCount; i++ {
		entries = append(entries, model.TimelineEntry{
			ContentType: model.ContentTypePost,
			ContentID:   fmt.Sprintf("post-%d", i),
			Score:       score,
		})
		score--
	}
	for i := 0; i < projectCount; i++ {
		entries = append(entries, model.TimelineEntry{
			ContentType: model.ContentTypeProject,
			ContentID:   fmt.Sprintf("project-%d", i),
			Score:       score,
		})
		score--
	}
	return entries
}

// postFraction は先頭n件中の投稿の割合を返す。
func postFraction(entries []model.TimelineEntry, n int) float64 {
	if n > len(entries) {
		n = len(entries)
	}
	posts := 0
	for _, e := range entries[:n] {
		if e.ContentType == model.ContentTypePost {
			posts++
		}
	}
	return float64(posts) / float64(n)
}

// TestBalanceMix_TargetRatio は十分な候補がある場合に投稿割合が
// 目標比率の許容帯（60%±15%）に収まることを検証する。
func TestBalanceMix_TargetRatio(t *testing.T) {
	entries := makeEntries(30, 20)

	balanced := BalanceMix(entries, DefaultPostRatio)

	if len(balanced) != 50 {
		t.Fatalf("len = %d, want 50", len(balanced))
	}

	// 両キューが残っている区間で比率を確認する
	frac := postFraction(balanced, 30)
	if frac < 0.45 || frac > 0.75 {
		t.Errorf("post fraction = %v, want within [0.45, 0.75]", frac)
	}
}

// TestBalanceMix_PreservesOrderWithinType は種別内のスコア順が
// 保存されることを検証する。
func TestBalanceMix_PreservesOrderWithinType(t *testing.T) {
	entries := makeEntries(15, 10)

	balanced := BalanceMix(entries, DefaultPostRatio)

	lastPostScore := 101.0
	lastProjectScore := 101.0
	for _, e := range balanced {
		if e.ContentType == model.ContentTypePost {
			if e.Score > lastPostScore {
				t.Fatalf("post order violated: %v after %v", e.Score, lastPostScore)
			}
			lastPostScore = e.Score
		} else {
			if e.Score > lastProjectScore {
				t.Fatalf("project order violated: %v after %v", e.Score, lastProjectScore)
			}
			lastProjectScore = e.Score
		}
	}
}

// TestBalanceMix_NoLossNoDuplicates は並べ替えで欠落も重複も
// 起きないことを検証する。
func TestBalanceMix_NoLossNoDuplicates(t *testing.T) {
	entries := makeEntries(12, 8)

	balanced := BalanceMix(entries, DefaultPostRatio)

	if len(balanced) != len(entries) {
		t.Fatalf("len = %d, want %d", len(balanced), len(entries))
	}

	seen := make(map[string]bool)
	for _, e := range balanced {
		key := string(e.ContentType) + ":" + e.ContentID
		if seen[key] {
			t.Fatalf("duplicate entry: %s", key)
		}
		seen[key] = true
	}
}

// TestBalanceMix_ScarcePosts は投稿が30%未満しかない場合に
// プロジェクトを枯渇させない配分になることを検証する。
func TestBalanceMix_ScarcePosts(t *testing.T) {
	entries := makeEntries(5, 45)

	balanced := BalanceMix(entries, DefaultPostRatio)

	if len(balanced) != 50 {
		t.Fatalf("len = %d, want 50", len(balanced))
	}

	// 供給比率（10%）に合わせて投稿スロットは最小限になるが、
	// サイクル内で最低1スロットは確保される
	frac := postFraction(balanced, 15)
	if frac > 0.4 {
		t.Errorf("post fraction = %v with scarce posts, want <= 0.4", frac)
	}
}

// TestBalanceMix_SingleType は片方の種別しかない場合に
// そのまま返すことを検証する。
func TestBalanceMix_SingleType(t *testing.T) {
	posts := makeEntries(10, 0)
	balanced := BalanceMix(posts, DefaultPostRatio)
	if len(balanced) != 10 {
		t.Errorf("len = %d, want 10", len(balanced))
	}
	for i, e := range balanced {
		if e.ContentID != fmt.Sprintf("post-%d", i) {
			t.Errorf("entry %d = %s, order should be preserved", i, e.ContentID)
		}
	}

	projects := makeEntries(0, 10)
	if got := BalanceMix(projects, DefaultPostRatio); len(got) != 10 {
		t.Errorf("len = %d, want 10", len(got))
	}
}

// TestBalanceMix_Empty は空入力で空が返ることを検証する。
func TestBalanceMix_Empty(t *testing.T) {
	if got := BalanceMix(nil, DefaultPostRatio); len(got) != 0 {
		t.Errorf("len = %d, want 0", len(got))
	}
}

// TestBalanceMix_DrainsRemainder は片方が尽きた後に残りが
// そのまま流し込まれることを検証する。
func TestBalanceMix_DrainsRemainder(t *testing.T) {
	entries := makeEntries(20, 2)

	balanced := BalanceMix(entries, DefaultPostRatio)

	if len(balanced) != 22 {
		t.Fatalf("len = %d, want 22", len(balanced))
	}

	// 末尾側はすべて投稿（プロジェクトが尽きている）
	for _, e := range balanced[10:] {
		if e.ContentType != model.ContentTypePost {
			t.Errorf("tail should be drained posts, got %s", e.ContentType)
		}
	}
}
