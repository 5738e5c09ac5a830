// Package validation checks the shape of incoming payloads.
//
// Every check returns nil when the input is acceptable and an *Error otherwise.
// Checks fail fast: the first failing field decides the message.
package validation

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"inkwell/internal/model"
)

const (
	// MaxTitleLength is the longest accepted post title, in characters.
	MaxTitleLength = 200
	// MaxCommentLength is the longest accepted comment body, in characters.
	MaxCommentLength = 1000
	// MinPasswordLength is the shortest accepted password, in characters.
	MinPasswordLength = 8
)

// Error is a validation failure with a message safe to return to the caller.
type Error struct {
	Field   string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// UserMessage returns the message shown to API callers.
func (e *Error) UserMessage() string {
	return e.Message
}

func fail(field, message string) *Error {
	return &Error{Field: field, Message: message}
}

// Not RFC 5322: anything shaped like local@domain.tld passes.
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Validator wraps validator.Validate with the blog's custom tags.
// It also satisfies echo.Validator.
type Validator struct {
	validate *validator.Validate
}

// New builds a Validator with the "blogemail" tag registered.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	mustRegister(v, "blogemail", func(fl validator.FieldLevel) bool {
		return IsValidEmail(fl.Field().String())
	})
	return &Validator{validate: v}
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("validation: register %q: %v", tag, err))
	}
}

// SelfValidator is implemented by request types whose rules need ordered,
// user-facing messages rather than struct tags.
type SelfValidator interface {
	Validate() error
}

// Validate implements echo.Validator. Types implementing SelfValidator are
// checked by their own Validate method; other structs by their validate tags.
func (v *Validator) Validate(i interface{}) error {
	if sv, ok := i.(SelfValidator); ok {
		return sv.Validate()
	}
	if err := v.validate.Struct(i); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fail(verrs[0].Field(), "Invalid "+strings.ToLower(verrs[0].Field()))
		}
		return fail("", "Invalid request")
	}
	return nil
}

func (v *Validator) check(value interface{}, tag string) bool {
	return v.validate.Var(value, tag) == nil
}

var std = New()

// IsValidEmail reports whether s looks like an email address.
func IsValidEmail(s string) bool {
	return emailPattern.MatchString(s)
}

// ValidatePassword fails when the password is missing or too short.
func ValidatePassword(password string) error {
	if !std.check(password, fmt.Sprintf("required,min=%d", MinPasswordLength)) {
		return fail("password", "Password must be at least 8 characters")
	}
	return nil
}

// RegisterInput is the payload of a registration request.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Role     string
}

// ValidateRegister checks name, email, password and role, in that order.
func ValidateRegister(in RegisterInput) error {
	if strings.TrimSpace(in.Name) == "" {
		return fail("name", "Name is required")
	}
	if !std.check(in.Email, "required,blogemail") {
		return fail("email", "Valid email is required")
	}
	if err := ValidatePassword(in.Password); err != nil {
		return err
	}
	if in.Role != "" && !model.Role(in.Role).Valid() {
		return fail("role", "Invalid role")
	}
	return nil
}

// LoginInput is the payload of a login request.
type LoginInput struct {
	Email    string
	Password string
}

// ValidateLogin checks that an email and a password were supplied.
func ValidateLogin(in LoginInput) error {
	if !std.check(in.Email, "required,blogemail") {
		return fail("email", "Valid email is required")
	}
	if in.Password == "" {
		return fail("password", "Password is required")
	}
	return nil
}

// PostInput carries the fields of a post create or update.
// Status is the status the post will have once saved.
type PostInput struct {
	Title         string
	Content       string
	Category      string
	FeaturedImage string
	Status        string
}

// ValidatePost checks required fields and limits of a post, including the
// rule that published posts need a category.
func ValidatePost(in PostInput) error {
	if strings.TrimSpace(in.Title) == "" {
		return fail("title", "Title is required")
	}
	if !std.check(in.Title, fmt.Sprintf("max=%d", MaxTitleLength)) {
		return fail("title", "Title must be less than 200 characters")
	}
	if strings.TrimSpace(in.Content) == "" {
		return fail("content", "Content is required")
	}
	if in.Status != "" && !model.PostStatus(in.Status).Valid() {
		return fail("status", "Invalid post status")
	}
	if in.FeaturedImage != "" && !std.check(in.FeaturedImage, "url") {
		return fail("featured_image", "Featured image must be a valid URL")
	}
	if model.PostStatus(in.Status) == model.PostStatusPublished && strings.TrimSpace(in.Category) == "" {
		return fail("category", "Category is required for published posts")
	}
	return nil
}

// CommentInput is the payload of a comment.
type CommentInput struct {
	Content string
	PostID  string
}

// ValidateComment checks comment body and target post.
func ValidateComment(in CommentInput) error {
	if strings.TrimSpace(in.Content) == "" {
		return fail("content", "Comment content is required")
	}
	if !std.check(in.Content, fmt.Sprintf("max=%d", MaxCommentLength)) {
		return fail("content", "Comment must be less than 1000 characters")
	}
	if in.PostID == "" {
		return fail("post_id", "Post ID is required")
	}
	return nil
}

var (
	scriptBlock  = regexp.MustCompile(`(?is)<script\b.*?</script\s*>`)
	eventHandler = regexp.MustCompile(`(?i)\s*on\w+\s*=\s*("[^"]*"|'[^']*')`)
)

// SanitizeContent removes script blocks and inline event handler attributes.
func SanitizeContent(content string) string {
	if content == "" {
		return ""
	}
	content = scriptBlock.ReplaceAllString(content, "")
	return eventHandler.ReplaceAllString(content, "")
}
