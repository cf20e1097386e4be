package door

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// DashboardID is the synthetic door standing for the dashboard. It is never
// persisted.
const DashboardID int64 = 0

type Door struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	WebhookURL string `json:"webhookUrl"`
}

func (d *Door) HasWebhook() bool {
	return strings.TrimSpace(d.WebhookURL) != ""
}

// ParseID parses a door id as given in a request path.
func ParseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id < 0 {
		return 0, invalid("id", "Invalid door id")
	}

	return id, nil
}

type CreateInput struct {
	Name       string `json:"name" validate:"required,max=100"`
	WebhookURL string `json:"webhookUrl" validate:"omitempty,url,startswith=http"`
}

// Normalize trims the input and validates it.
func (in *CreateInput) Normalize() error {
	in.Name = strings.TrimSpace(in.Name)
	in.WebhookURL = strings.TrimSpace(in.WebhookURL)

	return validateStruct(in)
}

// UpdateInput carries a partial update. A nil field is left untouched; a
// WebhookURL pointing at an empty string clears the webhook.
type UpdateInput struct {
	Name       *string `json:"name"`
	WebhookURL *string `json:"webhookUrl"`
}

func (in *UpdateInput) Normalize() error {
	if in.Name == nil && in.WebhookURL == nil {
		return invalid("", "No fields to update")
	}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return invalid("name", "Door name is required")
		}
		if err := validate.Var(name, "max=100"); err != nil {
			return invalid("name", "Door name must be at most 100 characters")
		}
		in.Name = &name
	}

	if in.WebhookURL != nil {
		url := strings.TrimSpace(*in.WebhookURL)
		if url != "" {
			if err := validate.Var(url, "url,startswith=http"); err != nil {
				return invalid("webhookUrl", "Invalid webhookUrl")
			}
		}
		in.WebhookURL = &url
	}

	return nil
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return v
}

func validateStruct(data any) error {
	err := validate.Struct(data)
	if err == nil {
		return nil
	}

	var errs validator.ValidationErrors
	if !errors.As(err, &errs) || len(errs) == 0 {
		return err
	}

	e := errs[0]
	switch {
	case e.Field() == "name" && e.Tag() == "required":
		return invalid("name", "Door name is required")
	case e.Field() == "name":
		return invalid("name", fmt.Sprintf("Door name must be at most %s characters", e.Param()))
	default:
		return invalid(e.Field(), fmt.Sprintf("Invalid %s", e.Field()))
	}
}
