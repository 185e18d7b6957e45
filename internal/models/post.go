package models

type Category string

const (
	CategoryAll        Category = "ALL"
	CategoryTechnology Category = "TECHNOLOGY"
	CategoryFood       Category = "FOOD"
	CategoryTravel     Category = "TRAVEL"
	CategoryEducation  Category = "EDUCATION"
)

// AvailableCategories lists the categories a post can belong to, in menu order.
var AvailableCategories = []Category{
	CategoryTechnology,
	CategoryFood,
	CategoryTravel,
	CategoryEducation,
}

var categoryLabels = map[Category]string{
	CategoryAll:        "All Categories",
	CategoryTechnology: "Technology",
	CategoryFood:       "Food",
	CategoryTravel:     "Travel",
	CategoryEducation:  "Education",
}

func (c Category) Valid() bool {
	for _, available := range AvailableCategories {
		if c == available {
			return true
		}
	}
	return false
}

func (c Category) Label() string {
	if l, ok := categoryLabels[c]; ok {
		return l
	}
	return string(c)
}

// ParseCategorySelector maps a filter value to a category. Empty and unknown
// values select every category.
func ParseCategorySelector(s string) Category {
	c := Category(s)
	if c.Valid() {
		return c
	}
	return CategoryAll
}

type Post struct {
	ID       int       `json:"id"`
	Title    string    `json:"title"`
	Body     string    `json:"blog"`
	Category Category  `json:"catagory"`
	Date     Timestamp `json:"date"`
	Image    *string   `json:"image"`
	Nickname *string   `json:"nickname"`
	Comments []Comment `json:"comments,omitempty"`

	// Reported is computed from the report list and never sent upstream.
	Reported bool `json:"-"`
}

func (p Post) Author() string {
	if p.Nickname == nil || *p.Nickname == "" {
		return "user"
	}
	return *p.Nickname
}

func (p Post) ImageURL() string {
	if p.Image == nil {
		return ""
	}
	return *p.Image
}

type Comment struct {
	ID      int       `json:"id"`
	Content string    `json:"content"`
	Author  string    `json:"author"`
	Date    Timestamp `json:"date"`
	PostID  int       `json:"postId"`
}

// Pending reports whether the comment was synthesized locally and not yet
// confirmed by the content API.
func (c Comment) Pending() bool {
	return c.ID < 0
}
