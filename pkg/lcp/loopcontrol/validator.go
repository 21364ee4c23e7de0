// Package loopcontrol validates v1 "loop-control" LCP responses.
//
// A conforming response is a single JSON object with a `decision` object,
// an `actions` list of at most 3 entries and an optional string
// `explanation`. This dialect predates the Core v2 protocol and shares
// nothing with it: keep the two packages strictly separate.
package loopcontrol

import (
	"encoding/json"
	"strings"

	"github.com/pkg/errors"
)

const maxActions = 3

// Validate checks whether text is a conforming loop-control response.
// It returns (true, "") for valid input and (false, description) otherwise;
// internal validation errors never escape this entry point.
func Validate(text string) (bool, string) {
	if err := validate(text); err != nil {
		return false, err.Error()
	}
	return true, ""
}

func validate(text string) error {
	obj, err := parseJSONStrict(text)
	if err != nil {
		return err
	}
	decision, ok := obj["decision"]
	if !ok {
		return errors.New("missing `decision` field")
	}
	actions, ok := obj["actions"]
	if !ok {
		return errors.New("missing `actions` field")
	}
	if err := validateDecision(decision); err != nil {
		return err
	}
	if err := validateActions(actions); err != nil {
		return err
	}
	return validateExplanation(obj["explanation"])
}

// parseJSONStrict parses text as exactly one JSON object, with no text
// before or after it.
func parseJSONStrict(text string) (map[string]interface{}, error) {
	stripped := strings.TrimSpace(text)
	if stripped == "" {
		return nil, errors.New("empty response, expected JSON")
	}
	if !strings.HasPrefix(stripped, "{") || !strings.HasSuffix(stripped, "}") {
		return nil, errors.New("response must be a single JSON object, no text around it")
	}
	var parsed interface{}
	if err := json.Unmarshal([]byte(stripped), &parsed); err != nil {
		return nil, errors.Wrap(err, "invalid JSON")
	}
	obj, ok := parsed.(map[string]interface{})
	if !ok {
		return nil, errors.New("top-level JSON must be an object")
	}
	return obj, nil
}

func validateDecision(decision interface{}) error {
	obj, ok := decision.(map[string]interface{})
	if !ok {
		return errors.New("`decision` must be an object")
	}
	// `kind` takes precedence over the legacy `action_type` key.
	kind, ok := obj["kind"]
	if !ok {
		kind, ok = obj["action_type"]
	}
	if !ok {
		return errors.New("either `decision.kind` or `decision.action_type` is required")
	}
	str, ok := kind.(string)
	if !ok {
		return errors.New("decision type must be a string")
	}
	if str == "" {
		return errors.New("decision type must not be empty")
	}
	return nil
}

func validateActions(actions interface{}) error {
	list, ok := actions.([]interface{})
	if !ok {
		return errors.New("`actions` must be a list")
	}
	if len(list) > maxActions {
		return errors.Errorf("`actions` list must not contain more than %d items", maxActions)
	}
	for _, action := range list {
		if err := validateAction(action); err != nil {
			return err
		}
	}
	return nil
}

func validateAction(action interface{}) error {
	obj, ok := action.(map[string]interface{})
	if !ok {
		return errors.New("each action must be an object")
	}
	kind, ok := obj["kind"]
	if !ok {
		return errors.New("each action must contain `kind`")
	}
	str, ok := kind.(string)
	if !ok {
		return errors.New("`action.kind` must be a string")
	}
	if str == "" {
		return errors.New("`action.kind` must not be empty")
	}
	return nil
}

func validateExplanation(explanation interface{}) error {
	if explanation == nil {
		return nil
	}
	if _, ok := explanation.(string); !ok {
		return errors.New("`explanation` must be a string if present")
	}
	return nil
}
