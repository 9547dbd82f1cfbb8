package settings

import (
	"encoding/json"
)

// The JSON projection mirrors what the on-console web editor consumes:
// per-setting shape with the current value inlined, readonly as either a
// bare bool or a condition object, and default omitted entirely when a
// setting has none.

type settingJSON struct {
	Name     string           `json:"name"`
	Size     string           `json:"size"`
	Length   int              `json:"length"`
	Values   map[int64]string `json:"values"`
	Current  *int64           `json:"current"`
	ReadOnly interface{}      `json:"readonly"`
	Default  interface{}      `json:"default,omitempty"`
}

type conditionJSON struct {
	Name   string  `json:"name"`
	Values []int64 `json:"values"`
	Negate bool    `json:"negate"`
}

type defaultRuleJSON struct {
	Name    string  `json:"name"`
	Values  []int64 `json:"values"`
	Default int64   `json:"default"`
	Negate  bool    `json:"negate"`
}

func makeSettingJSON(setting *Setting, values Values, position int) settingJSON {
	out := settingJSON{
		Name:   setting.Name,
		Size:   setting.Size.String(),
		Length: setting.Length,
		Values: setting.Values,
	}

	if value, bound := values[position]; bound {
		v := value
		out.Current = &v
	}

	switch setting.ReadOnly.Kind {
	case ReadOnlyAlways:
		out.ReadOnly = true
	case ReadOnlyWhen:
		out.ReadOnly = conditionJSON{
			Name:   setting.ReadOnly.Condition.Name,
			Values: setting.ReadOnly.Condition.Values,
			Negate: setting.ReadOnly.Condition.Negate,
		}
	default:
		out.ReadOnly = false
	}

	switch setting.Default.Kind {
	case DefaultLiteral:
		out.Default = setting.Default.Value
	case DefaultConditional:
		rules := make([]defaultRuleJSON, 0, len(setting.Default.Rules))
		for _, rule := range setting.Default.Rules {
			rules = append(rules, defaultRuleJSON{
				Name:    rule.Condition.Name,
				Values:  rule.Condition.Values,
				Default: rule.Value,
				Negate:  rule.Condition.Negate,
			})
		}
		out.Default = rules
	}

	return out
}

func (r *Region) MarshalJSON() ([]byte, error) {
	settings := r.Schema.Settings()
	out := make([]settingJSON, 0, len(settings))
	for i := range settings {
		out = append(out, makeSettingJSON(&settings[i], r.Values, i))
	}

	var filename interface{}
	if name := r.Schema.Filename(); name != NoFile {
		filename = name
	}

	return json.Marshal(struct {
		Type     string        `json:"type"`
		Filename interface{}   `json:"filename"`
		Settings []settingJSON `json:"settings"`
	}{
		Type:     r.Kind.String(),
		Filename: filename,
		Settings: out,
	})
}

func (c *Configuration) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Serial string  `json:"serial"`
		System *Region `json:"system"`
		Game   *Region `json:"game"`
	}{
		Serial: c.Serial,
		System: c.System,
		Game:   c.Game,
	})
}
