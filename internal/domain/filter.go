package domain

import (
	"strings"

	"gitlab.com/ranfdev/blogmod/internal/models"
)

// FilterView narrows an already held list by a case-insensitive substring
// of title or body and by category. It never talks to the content API.
func FilterView(posts []models.Post, query string, category models.Category) []models.Post {
	if query == "" && category == models.CategoryAll {
		return posts
	}
	q := strings.ToLower(query)
	res := []models.Post{}
	for _, p := range posts {
		matchesSearch := strings.Contains(strings.ToLower(p.Title), q) ||
			strings.Contains(strings.ToLower(p.Body), q)
		matchesCategory := category == models.CategoryAll || p.Category == category
		if matchesSearch && matchesCategory {
			res = append(res, p)
		}
	}
	return res
}
