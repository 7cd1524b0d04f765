package resolver

// Predicate decides whether a layer's value counts as set.
type Predicate int

const (
	Truthy         Predicate = iota // not null, "", false or 0
	NotNull                         // any non-null value, including 0 and false
	Defined                         // not null and not ""
	IsTrue                          // exactly true
	IsArray                         // any array, including an empty one
	NonEmptyArray                   // array with at least one element
	IsObject                        // any object
	NonEmptyObject                  // object with at least one key
	Present                         // key present, even when null
)

// Coercion converts an override value before it is written.
type Coercion int

const (
	AsIs Coercion = iota
	Number
	Bool
)

// Field is one row of the allow-list.
type Field struct {
	Key      string    // generator key written to the resolved config
	Base     []string  // base keys read in order; a later set key overwrites an earlier one
	BaseWhen Predicate // definedness of base values
	Override string    // task-level override key, empty when the field cannot be overridden
	When     Predicate // definedness of the override value
	Coerce   Coercion
	Mirror   []string // extra keys receiving the same value
}

func text(key string) Field       { return Field{Key: key, Base: []string{key}, BaseWhen: Truthy} }
func value(key string) Field      { return Field{Key: key, Base: []string{key}, BaseWhen: NotNull} }
func list(key string) Field       { return Field{Key: key, Base: []string{key}, BaseWhen: IsArray} }
func textOr(key, ov string) Field { return text(key).overridable(ov, Defined, AsIs) }

func (f Field) overridable(key string, when Predicate, c Coercion) Field {
	f.Override, f.When, f.Coerce = key, when, c
	return f
}

// Schema is the allow-list of generator config fields.
var Schema = []Field{
	// Duration, tone and presentation
	{Key: "video_duration", Base: []string{"default_video_duration", "video_duration"}, BaseWhen: NotNull,
		Override: "targetDuration", When: Defined, Coerce: Number},
	{Key: "tone", Base: []string{"tone", "default_tone"}, BaseWhen: Truthy,
		Override: "tone", When: Defined, Mirror: []string{"default_tone"}},
	{Key: "video_aspect_ratio", Base: []string{"video_aspect_ratio", "default_video_aspect_ratio"}, BaseWhen: Truthy,
		Override: "videoAspectRatio", When: Defined},
	textOr("default_content_style", "contentStyle"),
	{Key: "override_script_style_preset", Base: []string{"default_script_style_preset"}, BaseWhen: Truthy,
		Override: "scriptStylePreset", When: Defined},
	textOr("default_subtitle_preset", "defaultSubtitlePreset"),
	value("image_count").overridable("imageCount", NotNull, Number),
	textOr("default_audience", "defaultAudience"),
	{Key: "extra_hint", Override: "hint", When: Defined, Mirror: []string{"extra_prompt"}},

	// Prompt routing
	{Key: "prompt_configs", Base: []string{"prompt_configs"}, BaseWhen: NonEmptyObject,
		Override: "promptConfigs", When: NonEmptyObject},
	{Key: "override_prompt_template", Base: []string{"default_advanced_prompt"}, BaseWhen: Truthy,
		Override: "overridePromptTemplate", When: Defined},
	{Key: "prompt_templates", Base: []string{"prompt_templates"}, BaseWhen: NonEmptyObject,
		Override: "promptTemplates", When: NonEmptyObject},

	// Content sources
	{Key: "enable_rss_sources", Base: []string{"enable_rss_sources"}, BaseWhen: IsTrue,
		Override: "enableRssSources", When: IsTrue},
	list("rss_sources").overridable("rssSources", NonEmptyArray, AsIs),
	value("rss_fetch_interval_minutes").overridable("rssFetchIntervalMinutes", NotNull, Number),
	list("content_sources").overridable("contentSources", NonEmptyArray, AsIs),
	textOr("wikipedia_language", "wikipediaLanguage"),
	list("content_priority").overridable("contentPriority", NonEmptyArray, AsIs),
	value("use_free_videos").overridable("useFreeVideos", Present, Bool),
	textOr("rsshub_base_url", "rsshubBaseUrl"),

	// Models
	textOr("llm_model_script", "llmModelScript"),
	textOr("llm_model_script_provider", "llmModelScriptProvider"),
	textOr("llm_model_search_terms", "llmModelSearchTerms"),
	textOr("llm_model_search_terms_provider", "llmModelSearchTermsProvider"),
	textOr("llm_model_key_points", "llmModelKeyPoints"),
	textOr("llm_model_key_points_provider", "llmModelKeyPointsProvider"),
	textOr("llm_model_keywords", "llmModelKeywords"),
	textOr("llm_model_keywords_provider", "llmModelKeywordsProvider"),

	// Audio
	textOr("audio_provider", "audioProvider"),
	textOr("edgetts_voice_id", "edgettsVoiceId"),
	textOr("elevenlabs_voice_id", "elevenlabsVoiceId"),
	value("edgetts_speed"),
	value("edgetts_pitch"),
	value("edgetts_volume"),
	text("edgetts_style"),
	value("edgetts_styledegree"),
	text("elevenlabs_model_id"),
	value("elevenlabs_stability"),
	value("elevenlabs_similarity_boost"),
	text("audio_bitrate"),
	value("audio_sample_rate"),

	// Subtitles and languages
	value("subtitle_font_size"),
	text("subtitle_font_name"),
	text("subtitle_font_color"),
	text("subtitle_position"),
	text("subtitle_outline_color"),
	value("subtitle_outline_width"),
	text("subtitle_shadow_color"),
	value("subtitle_no_background"),
	text("subtitle_back_color"),
	value("subtitle_border_style"),
	list("script_languages"),
	text("script_source_language"),
	list("subtitle_languages"),
	text("subtitle_source_language"),
	list("subtitle_languages_to_show"),

	// Composition
	textOr("compose_provider", "composeProvider"),
	text("youtube_mode"),
	value("video_width"),
	value("video_height"),
	value("fps"),
	text("quality"),
	text("creatomate_template_id"),
	text("creatomate_image_element_prefix"),
	text("creatomate_audio_element_name"),
	text("creatomate_subtitle_element_name"),
	{Key: "remotion_template", Base: []string{"remotion_template", "remotion_template_id"}, BaseWhen: Truthy},
	text("remotion_codec"),
	value("remotion_quality"),
	{Key: "remotion_animations", Base: []string{"remotion_animations"}, BaseWhen: IsObject},
	text("manim_output_dir"),
	text("manim_env_path"),
	value("use_manim_animations"),
	text("video_preset"),
	value("video_threads"),
	value("video_crf"),

	// Material search and scoring
	list("image_platforms").overridable("imagePlatforms", NonEmptyArray, AsIs),
	list("video_platforms"),
	text("platform_weights"),
	value("enable_search_expansion"),
	value("use_multi_strategy_search"),
	value("filter_animated_videos"),
	value("cascade_core_keyword_first"),
	value("min_image_score"),
	value("min_video_score"),
	value("images_per_platform"),
	value("videos_per_platform"),
	value("cascade_min_images_per_subtitle"),
	value("keyword_search_max_per_subtitle"),
	value("first_keyword_multiplier"),
	value("allocation_core_keyword_bonus"),
	value("keyword_min_per_subtitle"),
	value("keyword_max_per_subtitle"),
	value("filter_core_keyword_bonus_ratio"),
	value("filter_relevance_weight"),
	value("filter_subtitle_relevance_weight"),
	value("filter_base_score_weight"),
	value("use_semantic_matching"),
	value("match_weight_base_score"),
	value("match_weight_keyword"),
	value("match_weight_subtitle_text"),
	value("match_weight_duration"),
	value("match_weight_semantic"),
	value("match_weight_relevance"),
}
