package domain

import "gitlab.com/ranfdev/blogmod/internal/models"

// ReportIndex is the set of post ids with at least one unresolved report.
type ReportIndex map[int]struct{}

func (idx ReportIndex) Has(postID int) bool {
	_, ok := idx[postID]
	return ok
}

func IndexUnresolved(reports []models.Report) ReportIndex {
	idx := ReportIndex{}
	for _, r := range reports {
		if !r.Resolved {
			idx[r.PostID] = struct{}{}
		}
	}
	return idx
}

// UnresolvedFor returns the unresolved reports targeting postID, in input order.
func UnresolvedFor(reports []models.Report, postID int) []models.Report {
	res := []models.Report{}
	for _, r := range reports {
		if r.PostID == postID && !r.Resolved {
			res = append(res, r)
		}
	}
	return res
}
