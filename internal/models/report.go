package models

type ReportType string

const (
	ReportTypeScam           ReportType = "SCAM"
	ReportTypeOffensive      ReportType = "OFFENSIVE"
	ReportTypeSpam           ReportType = "SPAM"
	ReportTypeCopyright      ReportType = "COPYRIGHT"
	ReportTypeMisinformation ReportType = "MISINFORMATION"
	ReportTypeOther          ReportType = "OTHER"
)

var AvailableReportTypes = []ReportType{
	ReportTypeScam,
	ReportTypeOffensive,
	ReportTypeSpam,
	ReportTypeCopyright,
	ReportTypeMisinformation,
	ReportTypeOther,
}

var reportTypeLabels = map[ReportType]string{
	ReportTypeScam:           "Scam",
	ReportTypeOffensive:      "Offensive Content",
	ReportTypeSpam:           "Spam",
	ReportTypeCopyright:      "Copyright Violation",
	ReportTypeMisinformation: "Misinformation",
	ReportTypeOther:          "Other",
}

func (t ReportType) Valid() bool {
	_, ok := reportTypeLabels[t]
	return ok
}

func (t ReportType) Label() string {
	if l, ok := reportTypeLabels[t]; ok {
		return l
	}
	return string(t)
}

type Report struct {
	ID        string     `json:"id"`
	Reason    string     `json:"reason"`
	Type      ReportType `json:"type"`
	Reporter  string     `json:"reporter"`
	CreatedAt Timestamp  `json:"createdat"`
	PostID    int        `json:"postid"`
	Resolved  bool       `json:"resolved"`
}

// NewReport is the body of a report submission.
type NewReport struct {
	PostID   int        `json:"postId"`
	Type     ReportType `json:"type"`
	Reason   string     `json:"reason,omitempty"`
	Reporter string     `json:"reporter"`
}

type NewComment struct {
	PostID  int    `json:"postId"`
	Author  string `json:"author"`
	Content string `json:"content"`
}
