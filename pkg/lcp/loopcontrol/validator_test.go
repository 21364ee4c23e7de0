package loopcontrol_test

import (
	"strings"
	"testing"

	"github.com/J3r3C0/sheratan-core-v2/pkg/lcp/loopcontrol"
	"github.com/stretchr/testify/assert"
)

func TestValidResponses(t *testing.T) {
	cases := map[string]string{
		"MinimalDecision":  `{"decision": {"kind": "continue"}, "actions": []}`,
		"LegacyActionType": `{"decision": {"action_type": "stop"}, "actions": []}`,
		"KindPrecedence":   `{"decision": {"kind": "continue", "action_type": "stop"}, "actions": []}`,
		"WithActions":      `{"decision": {"kind": "continue"}, "actions": [{"kind": "read"}, {"kind": "write"}]}`,
		"ThreeActions":     `{"decision": {"kind": "c"}, "actions": [{"kind": "a"}, {"kind": "b"}, {"kind": "c"}]}`,
		"WithExplanation":  `{"decision": {"kind": "continue"}, "actions": [], "explanation": "carry on"}`,
		"SurroundedByWhitespace": `
			{"decision": {"kind": "continue"}, "actions": []}
		`,
	}
	for name, text := range cases {
		t.Run(name, func(t *testing.T) {
			ok, msg := loopcontrol.Validate(text)
			assert.True(t, ok)
			assert.Empty(t, msg)
		})
	}
}

func TestInvalidResponses(t *testing.T) {
	cases := []struct {
		name      string
		text      string
		substring string
	}{
		{"Empty", ``, "empty"},
		{"TextAroundJSON", `sure! {"decision": {"kind": "c"}, "actions": []}`, "single JSON object"},
		{"TopLevelArray", `[{"decision": {"kind": "c"}}]`, "object"},
		{"MissingDecision", `{"actions": []}`, "decision"},
		{"MissingActions", `{"decision": {"kind": "c"}}`, "actions"},
		{"DecisionNotObject", `{"decision": "c", "actions": []}`, "decision"},
		{"DecisionWithoutType", `{"decision": {}, "actions": []}`, "decision.kind"},
		{"DecisionTypeNotString", `{"decision": {"kind": 3}, "actions": []}`, "string"},
		{"DecisionTypeEmpty", `{"decision": {"kind": ""}, "actions": []}`, "empty"},
		{"ActionsNotList", `{"decision": {"kind": "c"}, "actions": {}}`, "list"},
		{"TooManyActions", `{"decision": {"kind": "c"}, "actions": [{"kind": "a"}, {"kind": "b"}, {"kind": "c"}, {"kind": "d"}]}`, "more than 3"},
		{"ActionNotObject", `{"decision": {"kind": "c"}, "actions": ["read"]}`, "action must be an object"},
		{"ActionMissingKind", `{"decision": {"kind": "c"}, "actions": [{}]}`, "kind"},
		{"ActionKindEmpty", `{"decision": {"kind": "c"}, "actions": [{"kind": ""}]}`, "empty"},
		{"ExplanationNotString", `{"decision": {"kind": "c"}, "actions": [], "explanation": 42}`, "explanation"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ok, msg := loopcontrol.Validate(tc.text)
			assert.False(t, ok)
			assert.Contains(t, strings.ToLower(msg), strings.ToLower(tc.substring))
		})
	}
}
