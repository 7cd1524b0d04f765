package resolver

import (
	"encoding/json"
	"math"
	"reflect"
	"strconv"
	"strings"
)

// Config is a resolved generator task config.
type Config map[string]any

// Identity names the integration a task is created for.
type Identity struct {
	IntegrationID string
	Platform      string
}

// PromptCategories lists the prompt categories the generator understands, in a stable order.
var PromptCategories = []string{
	"video_captions",
	"image_prompts",
	"voice_script",
	"video_prompts",
	"book_script",
	"search_terms",
	"key_points",
	"subtitle_keywords",
	"manim_style_generation",
}

// DefaultPromptConfigs returns a fresh map selecting version 1 of every prompt category.
func DefaultPromptConfigs() map[string]any {
	out := make(map[string]any, len(PromptCategories))
	for _, c := range PromptCategories {
		out[c] = map[string]any{"version": 1}
	}
	return out
}

// Resolve folds base and overrides through [Schema] and stamps the identity on the result.
//
// Base values are copied under their generator key when the field's base predicate holds. Override
// values then replace them when the override predicate holds and coercion succeeds. Identity is
// written last, so neither layer can change integration_id or platform.
func Resolve(id Identity, base, overrides map[string]any) Config {
	cfg := Config{}

	for _, f := range Schema {
		for _, k := range f.Base {
			v, ok := base[k]
			if ok && f.BaseWhen.Holds(v, ok) {
				cfg.set(f, v)
			}
		}
	}

	for _, f := range Schema {
		if f.Override == "" {
			continue
		}
		v, ok := overrides[f.Override]
		if !f.When.Holds(v, ok) {
			continue
		}
		if v, ok = f.Coerce.Apply(v); ok {
			cfg.set(f, v)
		}
	}

	if _, ok := cfg["prompt_templates"]; !ok {
		if _, ok := cfg["prompt_configs"]; !ok {
			cfg["prompt_configs"] = DefaultPromptConfigs()
		}
	}

	cfg["integration_id"] = id.IntegrationID
	cfg["platform"] = id.Platform
	return cfg
}

// Overridden reports whether any override in ov would be applied by [Resolve].
func Overridden(ov map[string]any) bool {
	for _, f := range Schema {
		if f.Override == "" {
			continue
		}
		v, ok := ov[f.Override]
		if !f.When.Holds(v, ok) {
			continue
		}
		if _, ok := f.Coerce.Apply(v); ok {
			return true
		}
	}
	return false
}

func (c Config) set(f Field, v any) {
	c[f.Key] = v
	for _, m := range f.Mirror {
		c[m] = v
	}
}

// Holds reports whether v counts as set. present is false when the key is absent.
func (p Predicate) Holds(v any, present bool) bool {
	switch p {
	case Present:
		return present
	case Truthy:
		return ToBool(v)
	case NotNull:
		return v != nil
	case Defined:
		if v == nil {
			return false
		}
		s, ok := v.(string)
		return !ok || s != ""
	case IsTrue:
		b, ok := v.(bool)
		return ok && b
	case IsArray:
		return kindOf(v) == reflect.Slice || kindOf(v) == reflect.Array
	case NonEmptyArray:
		k := kindOf(v)
		return (k == reflect.Slice || k == reflect.Array) && reflect.ValueOf(v).Len() > 0
	case IsObject:
		return kindOf(v) == reflect.Map
	case NonEmptyObject:
		return kindOf(v) == reflect.Map && reflect.ValueOf(v).Len() > 0
	}
	return false
}

// Apply converts v, returning false when v cannot be represented.
func (c Coercion) Apply(v any) (any, bool) {
	switch c {
	case Number:
		n, ok := ToNumber(v)
		if !ok {
			return nil, false
		}
		return n, true
	case Bool:
		return ToBool(v), true
	}
	return v, true
}

func kindOf(v any) reflect.Kind {
	if v == nil {
		return reflect.Invalid
	}
	return reflect.TypeOf(v).Kind()
}

// ToNumber coerces JSON-ish values to a finite float64.
// Numeric strings are accepted; blank strings count as zero.
func ToNumber(v any) (float64, bool) {
	var n float64
	switch t := v.(type) {
	case float64:
		n = t
	case float32:
		n = float64(t)
	case int:
		n = float64(t)
	case int32:
		n = float64(t)
	case int64:
		n = float64(t)
	case uint:
		n = float64(t)
	case uint64:
		n = float64(t)
	case bool:
		if t {
			n = 1
		}
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return 0, false
		}
		n = f
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return 0, true
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			i, ierr := strconv.ParseInt(s, 0, 64)
			if ierr != nil {
				return 0, false
			}
			f = float64(i)
		}
		n = f
	default:
		return 0, false
	}
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false
	}
	return n, true
}

// ToBool applies loose truthiness: null, false, 0, NaN and "" are false, everything else is true.
func ToBool(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case float64:
		return t != 0 && !math.IsNaN(t)
	case float32, int, int32, int64, uint, uint64, json.Number:
		n, ok := ToNumber(t)
		return ok && n != 0
	}
	return true
}
