package models

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"
)

var (
	ErrPostFieldsRequired = ValidationError{"Title, category, and content are required"}
	ErrPostBadCategory    = ValidationError{"Please select a valid category"}
	ErrImageType          = ValidationError{"Only JPEG or PNG images are allowed"}
	ErrReporterRequired   = ValidationError{"Please provide a reporter nickname"}
	ErrReportTypeRequired = ValidationError{"Please select a report type"}
	ErrCommentFields      = ValidationError{"Please fill in all required fields"}
)

// ValidationError is a form error shown next to the form. No request is sent
// upstream when one is returned.
type ValidationError struct {
	Message string
}

func (e ValidationError) Error() string {
	return e.Message
}

func IsValidationError(err error) bool {
	var v ValidationError
	return errors.As(err, &v)
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterValidation("category", func(fl validator.FieldLevel) bool {
		return Category(fl.Field().String()).Valid()
	})
	v.RegisterValidation("reporttype", func(fl validator.FieldLevel) bool {
		return ReportType(fl.Field().String()).Valid()
	})
	return v
}

// failedTags returns the validation tags that failed, keyed by field name.
func failedTags(err error) map[string]string {
	failed := map[string]string{}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			failed[fe.Field()] = fe.Tag()
		}
	}
	return failed
}

type PostForm struct {
	Title    string `schema:"title" validate:"required"`
	Category string `schema:"catagory" validate:"required,category"`
	Content  string `schema:"content" validate:"required"`
	Nickname string `schema:"nickname"`
}

func (f PostForm) Validate() error {
	err := validate.Struct(f)
	if err == nil {
		return nil
	}
	for _, tag := range failedTags(err) {
		if tag == "required" {
			return ErrPostFieldsRequired
		}
	}
	return ErrPostBadCategory
}

// AuthorOr returns the trimmed nickname, or fallback when it's blank.
func AuthorOr(nickname, fallback string) string {
	if n := strings.TrimSpace(nickname); n != "" {
		return n
	}
	return fallback
}

type ImageUpload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ValidateImage accepts JPEG and PNG content up to maxBytes. The type is
// sniffed from the content, the client declared type is ignored.
func ValidateImage(data []byte, maxBytes int64) (*ImageUpload, error) {
	mtype := mimetype.Detect(data)
	if !mtype.Is("image/jpeg") && !mtype.Is("image/png") {
		return nil, ErrImageType
	}
	if int64(len(data)) > maxBytes {
		return nil, ValidationError{fmt.Sprintf("Image size must be less than %dMB", maxBytes/(1024*1024))}
	}
	return &ImageUpload{
		Filename:    "image" + mtype.Extension(),
		ContentType: mtype.String(),
		Data:        data,
	}, nil
}

type NewPost struct {
	Title    string
	Body     string
	Category Category
	Nickname string
	Image    *ImageUpload
}

type ReportForm struct {
	Type     string `schema:"type" validate:"required,reporttype"`
	Reason   string `schema:"reason"`
	Reporter string `schema:"reporter" validate:"required"`
}

func (f ReportForm) Validate() error {
	f.Reporter = strings.TrimSpace(f.Reporter)
	err := validate.Struct(f)
	if err == nil {
		return nil
	}
	if _, ok := failedTags(err)["Reporter"]; ok {
		return ErrReporterRequired
	}
	return ErrReportTypeRequired
}

func (f ReportForm) Report(postID int) NewReport {
	return NewReport{
		PostID:   postID,
		Type:     ReportType(f.Type),
		Reason:   strings.TrimSpace(f.Reason),
		Reporter: AuthorOr(f.Reporter, "someone"),
	}
}

type CommentForm struct {
	Content string `schema:"content" validate:"required"`
	Author  string `schema:"author"`
}

// Validate checks the form. The author is only required when the session
// carries no nickname.
func (f CommentForm) Validate(session Session) error {
	f.Content = strings.TrimSpace(f.Content)
	if err := validate.Struct(f); err != nil {
		return ErrCommentFields
	}
	if !session.HasNickname() && strings.TrimSpace(f.Author) == "" {
		return ErrCommentFields
	}
	return nil
}
