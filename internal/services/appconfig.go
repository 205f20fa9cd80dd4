package services

import (
	"encoding/json"

	"gorm.io/datatypes"
)

// Features are the process-wide feature switches that shape the default
// application config. Built once at startup and passed explicitly.
type Features struct {
	Chatbot bool
}

// BuildDefaultConfig returns the default config JSON for a new
// ApplicationConfig. Chatbot keys only appear when the feature is on.
func BuildDefaultConfig(features Features) map[string]any {
	tracking := map[string]any{
		"ip":                  true,
		"user_agent":          true,
		"device_info":         true,
		"visibility":          true,
		"mouse":               true,
		"clicks":              true,
		"scrolling":           true,
		"inputs":              true,
		"attribute_changes":   false,
		"chapters":            true,
		"summary":             true,
		"exercise_hint":       true,
		"exercise_submitted":  true,
		"exercise_result":     true,
		"question_submission": true,
		"video_progress":      true,
	}
	cfg := map[string]any{
		"exclude":      []any{},
		"js":           []any{},
		"css":          []any{},
		"feedback":     true,
		"summary":      true,
		"reset_button": true,
		"tracking":     tracking,
	}
	if features.Chatbot {
		cfg["chatbot"] = false
		tracking["chatbot"] = true
	}
	return cfg
}

// MergeConfig lays extra top-level keys verbatim over defaults. Neither
// input map is mutated.
func MergeConfig(defaults, extra map[string]any) map[string]any {
	out := make(map[string]any, len(defaults)+len(extra))
	for k, v := range defaults {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}

// ConfigFlags are the config switches the request path cares about. Missing
// or malformed config falls back to the permissive defaults.
type ConfigFlags struct {
	Feedback   bool
	TrackingIP bool
}

func ParseConfigFlags(raw datatypes.JSON) ConfigFlags {
	flags := ConfigFlags{Feedback: true, TrackingIP: true}
	if len(raw) == 0 {
		return flags
	}
	var cfg map[string]any
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return flags
	}
	if v, ok := cfg["feedback"].(bool); ok {
		flags.Feedback = v
	}
	if tr, ok := cfg["tracking"].(map[string]any); ok {
		if v, ok := tr["ip"].(bool); ok {
			flags.TrackingIP = v
		}
	}
	return flags
}
