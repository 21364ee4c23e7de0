// Package corev2 validates Core v2 LCP responses from the unified worker.
//
// This dialect is completely separate from the v1 loop-control protocol:
// it classifies a response by the boolean `ok` field, then by `action`,
// drawn from a closed set. Error responses carry {"ok": false, "error"}.
package corev2

import (
	"encoding/json"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// Actions the worker may report on a success response.
const (
	ActionListFilesResult    = "list_files_result"
	ActionAnalysisResult     = "analysis_result"
	ActionCreateFollowupJobs = "create_followup_jobs"
	ActionWriteFile          = "write_file"
	ActionPatchFile          = "patch_file"
)

var allowedActions = map[string]bool{
	ActionListFilesResult:    true,
	ActionAnalysisResult:     true,
	ActionCreateFollowupJobs: true,
	ActionWriteFile:          true,
	ActionPatchFile:          true,
}

// Validate checks whether text is a conforming Core v2 response.
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
	if err := validateCommon(obj); err != nil {
		return err
	}
	// Action-specific fields are only checked on success responses.
	if ok, _ := obj["ok"].(bool); ok {
		return validateActionFields(obj)
	}
	return nil
}

// parseJSONStrict parses text as exactly one JSON object, with no text
// before or after it.
func parseJSONStrict(text string) (map[string]interface{}, error) {
	txt := strings.TrimSpace(text)
	if txt == "" {
		return nil, errors.New("empty response, expected JSON object")
	}
	if !strings.HasPrefix(txt, "{") || !strings.HasSuffix(txt, "}") {
		return nil, errors.New("response must be a single JSON object (no extra text)")
	}
	var parsed interface{}
	if err := json.Unmarshal([]byte(txt), &parsed); err != nil {
		return nil, errors.Wrap(err, "invalid JSON")
	}
	obj, ok := parsed.(map[string]interface{})
	if !ok {
		return nil, errors.New("top-level JSON must be an object, not array or primitive")
	}
	return obj, nil
}

func validateCommon(obj map[string]interface{}) error {
	okVal, present := obj["ok"]
	if !present {
		return errors.New("missing required field 'ok'")
	}
	okBool, isBool := okVal.(bool)
	if !isBool {
		return errors.New("field 'ok' must be boolean")
	}

	if !okBool {
		errVal, present := obj["error"]
		if !present {
			return errors.New("error responses (ok=false) must contain 'error' field")
		}
		if _, isString := errVal.(string); !isString {
			return errors.New("field 'error' must be string")
		}
		return nil
	}

	action, present := obj["action"]
	if !present {
		return errors.New("success responses (ok=true) must contain 'action' field")
	}
	actionStr, isString := action.(string)
	if !isString {
		return errors.New("field 'action' must be string")
	}
	if !allowedActions[actionStr] {
		return errors.Errorf("unsupported action: %s. Allowed: %s", actionStr, strings.Join(actionNames(), ", "))
	}
	return nil
}

func validateActionFields(obj map[string]interface{}) error {
	action, _ := obj["action"].(string)
	switch action {
	case ActionListFilesResult:
		files, ok := obj["files"].([]interface{})
		if !ok {
			return errors.New("'files' must be an array for list_files_result")
		}
		if !allStrings(files) {
			return errors.New("'files' must be an array of strings")
		}

	case ActionAnalysisResult:
		if _, ok := obj["target_file"].(string); !ok {
			return errors.New("'target_file' must be string for analysis_result")
		}
		if summary, present := obj["summary"]; present {
			if _, ok := summary.(string); !ok {
				return errors.New("'summary' must be string if present")
			}
		}
		for _, key := range []string{"issues", "recommendations"} {
			val, present := obj[key]
			if !present {
				continue
			}
			list, ok := val.([]interface{})
			if !ok {
				return errors.Errorf("'%s' must be array if present", key)
			}
			if !allStrings(list) {
				return errors.Errorf("'%s' must be array of strings if present", key)
			}
		}

	case ActionCreateFollowupJobs:
		newJobs, ok := obj["new_jobs"].([]interface{})
		if !ok {
			return errors.New("'new_jobs' must be array for create_followup_jobs")
		}
		for i, entry := range newJobs {
			spec, ok := entry.(map[string]interface{})
			if !ok {
				return errors.Errorf("'new_jobs[%d]' must be an object", i)
			}
			if _, ok := spec["task"].(string); !ok {
				return errors.Errorf("'new_jobs[%d].task' must be string", i)
			}
			if params, present := spec["params"]; present {
				if _, ok := params.(map[string]interface{}); !ok {
					return errors.Errorf("'new_jobs[%d].params' must be object if present", i)
				}
			}
		}

	case ActionWriteFile, ActionPatchFile:
		if _, ok := obj["file"].(string); !ok {
			return errors.Errorf("'file' must be string for %s", action)
		}
		if action == ActionWriteFile {
			if _, ok := obj["content"].(string); !ok {
				return errors.New("'content' must be string for write_file")
			}
		} else {
			if _, ok := obj["patch"].(string); !ok {
				return errors.New("'patch' must be string for patch_file")
			}
		}
	}
	return nil
}

func allStrings(list []interface{}) bool {
	for _, item := range list {
		if _, ok := item.(string); !ok {
			return false
		}
	}
	return true
}

func actionNames() []string {
	names := make([]string, 0, len(allowedActions))
	for name := range allowedActions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
