package resolver

import (
	"fmt"
	"strings"

	"github.com/desertthunder/svbridge/internal/models"
)

// FallbackIdea is sent when a non-book task carries no creative text.
const FallbackIdea = "Short video generated from Postiz"

// Workflow returns the task's workflow type: override, then organization default, then short_video.
func Workflow(overrides, base map[string]any) string {
	w := pick(overrides, "workflowType", "workflow_type")
	if w == nil {
		w = base["workflow_type"]
	}
	if w == nil {
		return models.WorkflowShortVideo
	}
	return fmt.Sprint(w)
}

// Idea picks the creative text for a task: idea, then topicText, then hint.
// Book workflows may leave it empty; every other workflow falls back to [FallbackIdea].
func Idea(overrides, base map[string]any) string {
	var text any
	for _, k := range [][]string{{"idea"}, {"topicText", "topic_text"}, {"hint"}} {
		if v := pick(overrides, k...); ToBool(v) {
			text = v
			break
		}
	}

	if text == nil {
		if Workflow(overrides, base) == models.WorkflowBookVideo {
			return ""
		}
		return FallbackIdea
	}

	switch t := text.(type) {
	case []any:
		if len(t) == 0 || t[0] == nil {
			return ""
		}
		return fmt.Sprint(t[0])
	case []string:
		if len(t) == 0 {
			return ""
		}
		return t[0]
	case string:
		return strings.TrimSpace(t)
	}
	return strings.TrimSpace(fmt.Sprint(text))
}

// pick returns the first non-null value among keys.
func pick(m map[string]any, keys ...string) any {
	for _, k := range keys {
		if v := m[k]; v != nil {
			return v
		}
	}
	return nil
}
