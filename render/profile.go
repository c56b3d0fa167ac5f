package render

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/kimodri/form-filler/model"
)

// sectionSep joins a section title and a label in profile keys. Labels often
// contain dots, so viper's default "." delimiter is replaced.
const sectionSep = "::"

// Profile maps field labels to the values written into a form.
// Keys are normalized labels compared case-insensitively; a key may be
// qualified by its section as "Section::Label".
type Profile struct {
	values map[string]string
}

// NewProfile creates a profile from a flat map
func NewProfile(values map[string]string) *Profile {
	p := &Profile{values: make(map[string]string, len(values))}
	for k, v := range values {
		p.values[profileKey(k)] = v
	}
	return p
}

// LoadProfile reads a JSON, YAML or TOML profile. Nested tables become
// section-qualified keys:
//
//	Full Name: Juan dela Cruz
//	Contact:
//	  Phone: "0917 000 0000"
func LoadProfile(path string) (*Profile, error) {
	v := viper.NewWithOptions(viper.KeyDelimiter(sectionSep))
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read profile: %w", err)
	}

	values := make(map[string]string)
	for _, key := range v.AllKeys() {
		values[key] = v.GetString(key)
	}
	return NewProfile(values), nil
}

// Len returns the number of entries
func (p *Profile) Len() int {
	return len(p.values)
}

// Lookup returns the value for a mapping, preferring the section-qualified
// key over the bare label
func (p *Profile) Lookup(m model.FieldMapping) (string, bool) {
	label := m.Key()
	if section := m.SectionTitle(); section != "" {
		if v, ok := p.values[profileKey(section+sectionSep+label)]; ok && v != "" {
			return v, true
		}
	}
	v, ok := p.values[profileKey(label)]
	return v, ok && v != ""
}

// profileKey normalizes each part of a key
func profileKey(key string) string {
	parts := strings.Split(key, sectionSep)
	for i, part := range parts {
		parts[i] = strings.ToLower(model.NormalizeLabel(part))
	}
	return strings.Join(parts, sectionSep)
}
