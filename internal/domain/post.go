package domain

import (
	"sort"

	"gitlab.com/ranfdev/blogmod/internal/models"
)

type ViewMode string

const (
	ViewAll      ViewMode = "all"
	ViewReported ViewMode = "reported"
)

func ParseViewMode(s string) (ViewMode, bool) {
	switch ViewMode(s) {
	case ViewAll, ViewReported:
		return ViewMode(s), true
	}
	return ViewAll, false
}

// Annotate returns copies of posts with Reported set from idx. The input
// slice and its posts are left untouched.
func Annotate(posts []models.Post, idx ReportIndex) []models.Post {
	res := make([]models.Post, len(posts))
	for i, p := range posts {
		if p.Comments != nil {
			p.Comments = append([]models.Comment(nil), p.Comments...)
		}
		p.Reported = idx.Has(p.ID)
		res[i] = p
	}
	return res
}

func OnlyReported(posts []models.Post) []models.Post {
	res := []models.Post{}
	for _, p := range posts {
		if p.Reported {
			res = append(res, p)
		}
	}
	return res
}

// SortByRecency orders posts newest first in place. Equal timestamps keep
// their relative order.
func SortByRecency(posts []models.Post) {
	sort.SliceStable(posts, func(i, j int) bool {
		return posts[i].Date.Epoch() > posts[j].Date.Epoch()
	})
}

// BuildView derives the panel list from one fetch of posts and reports.
func BuildView(posts []models.Post, reports []models.Report, mode ViewMode) []models.Post {
	view := Annotate(posts, IndexUnresolved(reports))
	if mode == ViewReported {
		view = OnlyReported(view)
	}
	SortByRecency(view)
	return view
}
