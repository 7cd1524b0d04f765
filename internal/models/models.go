// package models defines the data model for the short-video bridge
package models

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// Integration is the platform's record of a connected channel.
type Integration struct {
	ID                 string    `json:"id"`
	OrganizationID     string    `json:"organizationId"`
	Name               string    `json:"name"`
	Picture            string    `json:"picture,omitempty"`
	ProviderIdentifier string    `json:"providerIdentifier"`
	InternalID         string    `json:"internalId,omitempty"`     // native account id on the provider
	RootInternalID     string    `json:"rootInternalId,omitempty"` // parent account id for sub-channels
	CreatedAt          time.Time `json:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

// Link is the back-reference a generator account carries to the platform.
//
// On the wire it is the "postiz" object, both top-level and under config.
type Link struct {
	OrganizationID string `json:"organization_id"`
	IntegrationID  string `json:"integration_id"`
}

// GeneratorAccount is the generator's platform_account record.
//
// Only the fields the bridge reasons about are typed; the rest stay in Extra.
type GeneratorAccount struct {
	ID              string         `json:"id"`
	Name            string         `json:"name,omitempty"`
	Platform        string         `json:"platform,omitempty"`
	Status          string         `json:"status,omitempty"`
	AccountID       string         `json:"account_id,omitempty"`
	InternalID      string         `json:"internal_id,omitempty"`
	ChannelID       string         `json:"channel_id,omitempty"`
	ChannelIDCamel  string         `json:"channelId,omitempty"`
	ExternalID      string         `json:"external_id,omitempty"`
	AvatarURL       string         `json:"avatar_url,omitempty"`
	ThumbnailURL    string         `json:"thumbnail_url,omitempty"`
	ProfileImageURL string         `json:"profile_image_url,omitempty"`
	Thumbnail       string         `json:"thumbnail,omitempty"`
	PersonaID       string         `json:"persona_id,omitempty"`
	Postiz          *Link          `json:"postiz,omitempty"`
	Config          map[string]any `json:"config,omitempty"`
	Extra           map[string]any `json:"-"`
}

// UnmarshalJSON decodes the typed fields and keeps the full object in Extra.
//
// Identifier fields are accepted as strings or numbers since the generator is not strict about them.
func (a *GeneratorAccount) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*a = GeneratorAccount{Extra: raw}
	a.ID = stringField(raw, "id")
	a.Name = stringField(raw, "name")
	a.Platform = stringField(raw, "platform")
	a.Status = stringField(raw, "status")
	a.AccountID = stringField(raw, "account_id")
	a.InternalID = stringField(raw, "internal_id")
	a.ChannelID = stringField(raw, "channel_id")
	a.ChannelIDCamel = stringField(raw, "channelId")
	a.ExternalID = stringField(raw, "external_id")
	a.AvatarURL = stringField(raw, "avatar_url")
	a.ThumbnailURL = stringField(raw, "thumbnail_url")
	a.ProfileImageURL = stringField(raw, "profile_image_url")
	a.Thumbnail = stringField(raw, "thumbnail")
	a.PersonaID = stringField(raw, "persona_id")

	if cfg, ok := raw["config"].(map[string]any); ok {
		a.Config = cfg
	}
	a.Postiz = linkFrom(raw["postiz"])
	return nil
}

// MarshalJSON writes the original generator object when one was decoded, so unknown fields survive a round trip.
func (a GeneratorAccount) MarshalJSON() ([]byte, error) {
	if a.Extra != nil {
		return json.Marshal(a.Extra)
	}
	type plain GeneratorAccount
	return json.Marshal(plain(a))
}

// LinkedIntegration returns the integration this account is linked to, preferring config.postiz.
func (a *GeneratorAccount) LinkedIntegration() string {
	if a.Config != nil {
		if l := linkFrom(a.Config["postiz"]); l != nil && l.IntegrationID != "" {
			return l.IntegrationID
		}
	}
	if a.Postiz != nil {
		return a.Postiz.IntegrationID
	}
	return ""
}

// NativeIDs returns the candidate native account ids found on the account and its config.
func (a *GeneratorAccount) NativeIDs() []string {
	candidates := []string{a.InternalID, a.ChannelID, a.ChannelIDCamel, a.ExternalID, a.AccountID}
	if a.Config != nil {
		candidates = append(candidates,
			stringField(a.Config, "account_id"),
			stringField(a.Config, "channel_id"),
			stringField(a.Config, "channelId"),
		)
	}

	ids := make([]string, 0, len(candidates))
	for _, c := range candidates {
		if c = strings.TrimSpace(c); c != "" {
			ids = append(ids, c)
		}
	}
	return ids
}

// Set writes a top-level field, keeping the typed view and the raw object in step.
func (a *GeneratorAccount) Set(key, value string) {
	switch key {
	case "name":
		a.Name = value
	case "avatar_url":
		a.AvatarURL = value
	}
	if a.Extra != nil {
		a.Extra[key] = value
	}
}

// UpstreamAvatar returns the first avatar-like URL reported by the generator.
func (a *GeneratorAccount) UpstreamAvatar() string {
	for _, u := range []string{a.AvatarURL, a.ThumbnailURL, a.ProfileImageURL, a.Thumbnail} {
		if u != "" {
			return strings.TrimSpace(u)
		}
	}
	return ""
}

// AccountPage is the generator's platform-account listing.
//
// The generator answers either with a bare array or with a paginated object; Bare records which,
// and Meta keeps the object's other fields so the page can be written back in the shape it arrived in.
type AccountPage struct {
	Items []GeneratorAccount
	Bare  bool
	Meta  map[string]json.RawMessage
}

func (p *AccountPage) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "[") {
		p.Bare = true
		return json.Unmarshal(data, &p.Items)
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	if items, ok := obj["items"]; ok && strings.HasPrefix(strings.TrimSpace(string(items)), "[") {
		if err := json.Unmarshal(items, &p.Items); err != nil {
			return err
		}
	}
	delete(obj, "items")
	p.Meta = obj
	return nil
}

func (p AccountPage) MarshalJSON() ([]byte, error) {
	items := p.Items
	if items == nil {
		items = []GeneratorAccount{}
	}
	if p.Bare {
		return json.Marshal(items)
	}

	out := make(map[string]any, len(p.Meta)+1)
	for k, v := range p.Meta {
		out[k] = v
	}
	out["items"] = items
	return json.Marshal(out)
}

// IsValidAvatarURL reports whether u looks like an absolute or root-relative URL.
func IsValidAvatarURL(u string) bool {
	t := strings.TrimSpace(u)
	return t != "" && (strings.HasPrefix(t, "http://") || strings.HasPrefix(t, "https://") || strings.HasPrefix(t, "/"))
}

func linkFrom(v any) *Link {
	m, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	return &Link{
		OrganizationID: stringField(m, "organization_id"),
		IntegrationID:  stringField(m, "integration_id"),
	}
}

func stringField(m map[string]any, key string) string {
	switch v := m[key].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case json.Number:
		return v.String()
	default:
		return ""
	}
}
