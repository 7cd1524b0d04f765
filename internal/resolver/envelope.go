package resolver

import "maps"

// TaskRequest is the body of a generator task creation call.
// Schedule fields are always null: every task runs immediately.
type TaskRequest struct {
	Idea              string  `json:"idea"`
	EnvironmentPrompt any     `json:"environment_prompt"`
	PersonaID         any     `json:"persona_id"`
	TopicMode         any     `json:"topic_mode"`
	TopicText         any     `json:"topic_text"`
	ContentSource     any     `json:"content_source"`
	TargetPlatform    any     `json:"target_platform"`
	ContentType       any     `json:"content_type"`
	PlatformAccountID any     `json:"platform_account_id"`
	WorkflowType      string  `json:"workflow_type"`
	Config            Config  `json:"config,omitempty"`
	ScheduleType      string  `json:"schedule_type"`
	ScheduledAt       *string `json:"scheduled_at"`
	DailyTime         *int    `json:"daily_time"`
	DailyTimes        []int   `json:"daily_times"`
	MultipleTimes     any     `json:"multiple_times"`
	WeeklySchedule    any     `json:"weekly_schedule"`
	ScheduleEndDate   *string `json:"schedule_end_date"`
}

// BuildTaskRequest assembles the generator request for one integration.
//
// Without a platform account, organization defaults merged with the task's config form the base layer.
// With one, the generator loads the account's own config: the base layer is empty, the task's config
// is applied over the top-level overrides, and a config is only sent when either carries something.
func BuildTaskRequest(id Identity, overrides, defaults map[string]any) TaskRequest {
	if overrides == nil {
		overrides = map[string]any{}
	}
	if defaults == nil {
		defaults = map[string]any{}
	}

	taskConfig, _ := overrides["config"].(map[string]any)
	ov := maps.Clone(overrides)
	delete(ov, "config")

	account := pick(ov, "platformAccountId", "platform_account_id")

	var cfg Config
	if ToBool(account) {
		if len(taskConfig) > 0 || Overridden(ov) {
			layer := maps.Clone(ov)
			maps.Copy(layer, taskConfig)
			cfg = Resolve(id, map[string]any{}, layer)
		}
	} else {
		base := maps.Clone(defaults)
		maps.Copy(base, taskConfig)
		cfg = Resolve(id, base, ov)
	}

	var target any
	if id.Platform != "" {
		target = id.Platform
	}

	contentType := layered(ov, defaults, "content_type", "contentType")
	if contentType == nil {
		contentType = "knowledge"
	}

	return TaskRequest{
		Idea:              Idea(ov, defaults),
		EnvironmentPrompt: layered(ov, defaults, "environment_prompt", "environmentPrompt"),
		PersonaID:         layered(ov, defaults, "persona_id", "personaId"),
		TopicMode:         layered(ov, defaults, "topic_mode", "topicMode"),
		TopicText:         layered(ov, defaults, "topic_text", "topicText"),
		ContentSource:     layered(ov, defaults, "content_source", "contentSource"),
		TargetPlatform:    target,
		ContentType:       contentType,
		PlatformAccountID: account,
		WorkflowType:      Workflow(ov, defaults),
		Config:            cfg,
		ScheduleType:      "immediate",
	}
}

// layered returns the override (camelCase, then snake_case) or the organization default.
func layered(ov, defaults map[string]any, key, camel string) any {
	if v := pick(ov, camel, key); v != nil {
		return v
	}
	return defaults[key]
}
