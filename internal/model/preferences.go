package model

import (
	"encoding/json"
	"fmt"
	"slices"
)

// Permission mirrors the platform's system-notification permission state.
type Permission string

const (
	PermissionDefault Permission = "default"
	PermissionGranted Permission = "granted"
	PermissionDenied  Permission = "denied"
)

// EmailFrequency controls how often email notifications are sent.
type EmailFrequency string

const (
	FrequencyInstant EmailFrequency = "instant"
	FrequencyDaily   EmailFrequency = "daily"
	FrequencyWeekly  EmailFrequency = "weekly"
)

// Valid reports whether f is a known frequency.
func (f EmailFrequency) Valid() bool {
	switch f {
	case FrequencyInstant, FrequencyDaily, FrequencyWeekly:
		return true
	}
	return false
}

// SoundPrefs controls the audio cue played on new notifications.
type SoundPrefs struct {
	Enabled bool `json:"enabled"`
	Volume  int  `json:"volume"`
}

// BrowserPrefs controls system (desktop) notifications.
type BrowserPrefs struct {
	Enabled    bool       `json:"enabled"`
	Permission Permission `json:"permission"`
}

// EmailPrefs controls email delivery.
type EmailPrefs struct {
	Enabled    bool           `json:"enabled"`
	Frequency  EmailFrequency `json:"frequency"`
	Categories []Category     `json:"categories"`
}

// PushPrefs controls push delivery to the user's other devices.
type PushPrefs struct {
	Enabled    bool       `json:"enabled"`
	Categories []Category `json:"categories"`
}

// Preferences is the per-user notification settings object.
type Preferences struct {
	Sound   SoundPrefs   `json:"sound"`
	Browser BrowserPrefs `json:"browser"`
	Email   EmailPrefs   `json:"email"`
	Push    PushPrefs    `json:"push"`
}

// DefaultPreferences returns the settings a new user starts with.
func DefaultPreferences() Preferences {
	return Preferences{
		Sound: SoundPrefs{Enabled: true, Volume: 70},
		Browser: BrowserPrefs{
			Enabled:    false,
			Permission: PermissionDefault,
		},
		Email: EmailPrefs{
			Enabled:    false,
			Frequency:  FrequencyDaily,
			Categories: AllCategories(),
		},
		Push: PushPrefs{
			Enabled:    false,
			Categories: AllCategories(),
		},
	}
}

// Clone returns a deep copy so category slices are never shared.
func (p Preferences) Clone() Preferences {
	c := p
	c.Email.Categories = slices.Clone(p.Email.Categories)
	c.Push.Categories = slices.Clone(p.Push.Categories)
	return c
}

// EmailWants reports whether email delivery covers category c.
func (p Preferences) EmailWants(c Category) bool {
	return p.Email.Enabled && containsCategory(p.Email.Categories, c)
}

// PushWants reports whether push delivery covers category c.
func (p Preferences) PushWants(c Category) bool {
	return p.Push.Enabled && containsCategory(p.Push.Categories, c)
}

// PreferencesPatch is a partial update. Each non-nil section replaces the
// matching section of Preferences wholesale.
type PreferencesPatch struct {
	Sound   *SoundPrefs   `json:"sound,omitempty"`
	Browser *BrowserPrefs `json:"browser,omitempty"`
	Email   *EmailPrefs   `json:"email,omitempty"`
	Push    *PushPrefs    `json:"push,omitempty"`
}

// IsEmpty reports whether the patch names no section.
func (pp PreferencesPatch) IsEmpty() bool {
	return pp.Sound == nil && pp.Browser == nil && pp.Email == nil && pp.Push == nil
}

// ParsePreferencesPatch decodes a JSON patch. Unknown keys are ignored.
func ParsePreferencesPatch(data []byte) (PreferencesPatch, error) {
	var patch PreferencesPatch
	if err := json.Unmarshal(data, &patch); err != nil {
		return PreferencesPatch{}, fmt.Errorf("parsing preferences patch: %w", err)
	}
	return patch, nil
}

// Apply merges the patch into current and returns the result. Values are
// normalised instead of rejected: volume is clamped to 0-100, an unknown
// frequency keeps the current one, and categories are filtered to the
// closed set. Browser permission is never taken from the patch.
func (pp PreferencesPatch) Apply(current Preferences) Preferences {
	next := current.Clone()

	if pp.Sound != nil {
		next.Sound = SoundPrefs{
			Enabled: pp.Sound.Enabled,
			Volume:  ClampVolume(pp.Sound.Volume),
		}
	}
	if pp.Browser != nil {
		next.Browser = BrowserPrefs{
			Enabled:    pp.Browser.Enabled,
			Permission: current.Browser.Permission,
		}
	}
	if pp.Email != nil {
		freq := pp.Email.Frequency
		if !freq.Valid() {
			freq = current.Email.Frequency
		}
		next.Email = EmailPrefs{
			Enabled:    pp.Email.Enabled,
			Frequency:  freq,
			Categories: NormalizeCategories(pp.Email.Categories),
		}
	}
	if pp.Push != nil {
		next.Push = PushPrefs{
			Enabled:    pp.Push.Enabled,
			Categories: NormalizeCategories(pp.Push.Categories),
		}
	}

	return next
}

// ClampVolume bounds v to 0-100.
func ClampVolume(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// NormalizeCategories drops unknown and duplicate categories, keeping the
// first occurrence order. The result is never nil.
func NormalizeCategories(in []Category) []Category {
	out := make([]Category, 0, len(in))
	seen := make(map[Category]bool, len(in))
	for _, c := range in {
		if !c.Valid() || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}

// Normalize repairs a hydrated Preferences value so it satisfies the same
// constraints a patch would enforce.
func (p Preferences) Normalize() Preferences {
	n := p.Clone()
	n.Sound.Volume = ClampVolume(n.Sound.Volume)
	if !n.Email.Frequency.Valid() {
		n.Email.Frequency = FrequencyDaily
	}
	switch n.Browser.Permission {
	case PermissionDefault, PermissionGranted, PermissionDenied:
	default:
		n.Browser.Permission = PermissionDefault
	}
	n.Email.Categories = NormalizeCategories(n.Email.Categories)
	n.Push.Categories = NormalizeCategories(n.Push.Categories)
	return n
}

func containsCategory(list []Category, c Category) bool {
	for _, x := range list {
		if x == c {
			return true
		}
	}
	return false
}
