package models

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate reports the first missing or malformed field of a stored message.
func (m Message) Validate() error {
	if err := validate.Struct(m); err != nil {
		return describe(err)
	}
	if m.Sent.IsZero() {
		return errors.New("sent is required")
	}
	return nil
}

// Validate reports the first missing or malformed field of a posted view.
func (v MessageView) Validate() error {
	if strings.TrimSpace(v.Content) == "" {
		return errors.New("content is required")
	}
	if err := validate.Struct(v); err != nil {
		return describe(err)
	}
	if v.SentAt.IsZero() {
		return errors.New("sentAt is required")
	}
	return nil
}

func describe(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	fe := verrs[0]
	field := fe.Namespace()
	if idx := strings.Index(field, "."); idx >= 0 {
		field = field[idx+1:]
	}
	switch fe.Tag() {
	case "required":
		return fmt.Errorf("%s is required", jsonName(field))
	case "url":
		return fmt.Errorf("%s must be a valid url", jsonName(field))
	case "max":
		return fmt.Errorf("%s must be at most %s characters", jsonName(field), fe.Param())
	default:
		return fmt.Errorf("%s failed %s validation", jsonName(field), fe.Tag())
	}
}

var jsonNames = map[string]string{
	"Content":          "content",
	"ContentType":      "contentType",
	"UserName":         "userName",
	"UserAvatarURL":    "userAvatarUrl",
	"Author.Name":      "author.name",
	"Author.AvatarURL": "author.avatarUrl",
}

func jsonName(field string) string {
	if name, ok := jsonNames[field]; ok {
		return name
	}
	return field
}
