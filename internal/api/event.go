package api

import (
	"github.com/mitchellh/mapstructure"
	"github.com/timada-org/doorphone/internal/door"
)

// PressInput is the body of a press request. Every field is optional.
type PressInput struct {
	Source     string `mapstructure:"source" json:"source,omitempty"`
	IDFrom     *int64 `mapstructure:"idFrom" json:"idFrom,omitempty"`
	CustomName string `mapstructure:"customName" json:"customName,omitempty"`
}

func decodePressInput(body map[string]any) (PressInput, error) {
	var input PressInput

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &input,
	})
	if err != nil {
		return input, err
	}

	if err := decoder.Decode(body); err != nil {
		return input, &door.ValidationError{Field: "body", Message: "Invalid press request"}
	}

	return input, nil
}

// decodeUpdateInput keeps the difference between an absent field and a null
// one: a null webhookUrl clears the webhook, a null name is rejected.
func decodeUpdateInput(body map[string]any) (door.UpdateInput, error) {
	var input door.UpdateInput

	if v, ok := body["name"]; ok {
		name, err := optionalString("name", v)
		if err != nil {
			return input, err
		}
		input.Name = &name
	}

	if v, ok := body["webhookUrl"]; ok {
		url, err := optionalString("webhookUrl", v)
		if err != nil {
			return input, err
		}
		input.WebhookURL = &url
	}

	return input, nil
}

func optionalString(field string, v any) (string, error) {
	if v == nil {
		return "", nil
	}

	s, ok := v.(string)
	if !ok {
		return "", &door.ValidationError{Field: field, Message: "Invalid " + field}
	}

	return s, nil
}
