package tasks

import (
	"strings"

	"github.com/desertthunder/svbridge/internal/models"
)

// MatchIntegration finds the integration a generator account belongs to.
//
// Native ids on the account (internal, channel, external and account ids, top-level and in config)
// are compared with each integration's internal and root ids first. Display names are only compared
// when no id matches. byID reports which signal produced the match.
func MatchIntegration(acc *models.GeneratorAccount, integrations []models.Integration) (match *models.Integration, byID bool) {
	ids := acc.NativeIDs()
	for i := range integrations {
		if idMatch(ids, &integrations[i]) {
			return &integrations[i], true
		}
	}
	for i := range integrations {
		if nameMatch(acc, &integrations[i]) {
			return &integrations[i], false
		}
	}
	return nil, false
}

func matchScore(acc *models.GeneratorAccount, i *models.Integration) int {
	switch {
	case idMatch(acc.NativeIDs(), i):
		return 2
	case nameMatch(acc, i):
		return 1
	default:
		return 0
	}
}

func idMatch(ids []string, i *models.Integration) bool {
	internal := strings.TrimSpace(i.InternalID)
	root := strings.TrimSpace(i.RootInternalID)
	for _, id := range ids {
		if (internal != "" && id == internal) || (root != "" && id == root) {
			return true
		}
	}
	return false
}

func nameMatch(acc *models.GeneratorAccount, i *models.Integration) bool {
	a := strings.TrimSpace(acc.Name)
	b := strings.TrimSpace(i.Name)
	return a != "" && a == b
}

// EnrichAvatars fills avatar_url (and, for the requested integration, a blank name) on listed accounts.
//
// An integration picture is only used when the account was matched by id; otherwise the generator's
// own avatar is kept when it looks like a URL. integrationID may be blank.
func EnrichAvatars(page *models.AccountPage, integrations []models.Integration, integrationID string) {
	if page == nil || len(page.Items) == 0 {
		return
	}

	byProvider := map[string][]models.Integration{}
	for _, i := range integrations {
		p := strings.ToLower(i.ProviderIdentifier)
		byProvider[p] = append(byProvider[p], i)
		if base, _, found := strings.Cut(p, "-"); found && base != "" {
			byProvider[base] = append(byProvider[base], i)
		}
	}

	var requested *models.Integration
	if integrationID != "" {
		for i := range integrations {
			if integrations[i].ID == integrationID {
				requested = &integrations[i]
				break
			}
		}
	}

	for n := range page.Items {
		acc := &page.Items[n]
		linked := acc.LinkedIntegration()

		var match *models.Integration
		var byID, direct bool
		if requested != nil && linked == integrationID {
			match, byID, direct = requested, true, true
		} else {
			match, byID = MatchIntegration(acc, candidatesFor(acc.Platform, byProvider, integrations))
		}

		avatar := ""
		if byID && match != nil && models.IsValidAvatarURL(match.Picture) {
			avatar = strings.TrimSpace(match.Picture)
		} else if up := acc.UpstreamAvatar(); models.IsValidAvatarURL(up) {
			avatar = up
		}
		if avatar != "" {
			acc.Set("avatar_url", avatar)
		}

		if direct {
			if strings.TrimSpace(acc.Name) == "" {
				acc.Set("name", match.Name)
			}
			if models.IsValidAvatarURL(match.Picture) {
				acc.Set("avatar_url", match.Picture)
			}
		}
	}
}

// candidatesFor returns the integrations that may own an account on platform.
func candidatesFor(platform string, byProvider map[string][]models.Integration, all []models.Integration) []models.Integration {
	plat := strings.ToLower(platform)
	base, _, _ := strings.Cut(plat, "-")
	if base == "" {
		base = plat
	}

	if list, ok := byProvider[plat]; ok {
		return list
	}
	if list, ok := byProvider[base]; ok {
		return list
	}

	var out []models.Integration
	for _, i := range all {
		pi := strings.ToLower(i.ProviderIdentifier)
		if pi == plat || pi == base ||
			strings.HasPrefix(pi, plat+"-") || strings.HasPrefix(pi, base+"-") || strings.HasPrefix(pi, base+"_") {
			out = append(out, i)
		}
	}
	return out
}
