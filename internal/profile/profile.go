package profile

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/skncr-ai/scanner/internal/schema"
	"gopkg.in/yaml.v3"
)

// Profile is the user context the product analysis is judged against
type Profile struct {
	Name            string               `yaml:"name" json:"name"`
	SkinType        string               `yaml:"skinType" json:"skinType"`
	PrimaryConcerns []schema.SkinConcern `yaml:"primaryConcerns" json:"primaryConcerns"`
	Sensitivities   []string             `yaml:"sensitivities,omitempty" json:"sensitivities,omitempty"`
	AvoidList       []string             `yaml:"avoidList" json:"avoidList"`
}

var presets = map[string]Profile{
	"mia": {
		Name:            "Mia",
		SkinType:        "Oily",
		PrimaryConcerns: []schema.SkinConcern{schema.ConcernAcne, schema.ConcernTexture},
		AvoidList:       []string{"Coconut Oil", "Cocoa Butter", "Isopropyl Myristate"},
	},
	"liam": {
		Name:            "Liam",
		SkinType:        "Sensitive",
		PrimaryConcerns: []schema.SkinConcern{schema.ConcernRedness},
		Sensitivities:   []string{"Fragrance", "Alcohol Denat"},
		AvoidList:       []string{"Essential Oils", "Limonene", "Menthol"},
	},
	"guest": {
		Name:     "Guest",
		SkinType: "Normal",
	},
}

// Guest returns the profile used when nothing else is configured
func Guest() Profile {
	return presets["guest"]
}

// Presets returns the names of the built-in profiles, sorted
func Presets() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Summary renders the profile as the context line sent with product scans
func (p Profile) Summary() string {
	concerns := make([]string, len(p.PrimaryConcerns))
	for i, c := range p.PrimaryConcerns {
		concerns[i] = string(c)
	}
	return fmt.Sprintf("User Profile: %s, Concerns: %s, Strict Avoid: %s.",
		p.SkinType, strings.Join(concerns, ", "), strings.Join(p.AvoidList, ", "))
}

// Avoids reports whether an ingredient is on the strict avoid list or a known sensitivity
func (p Profile) Avoids(ingredient string) bool {
	for _, list := range [][]string{p.AvoidList, p.Sensitivities} {
		for _, item := range list {
			if strings.EqualFold(strings.TrimSpace(item), strings.TrimSpace(ingredient)) {
				return true
			}
		}
	}
	return false
}

// Load resolves a profile reference: a preset name, a YAML file path, or empty for the guest profile
func Load(ref string) (Profile, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return Guest(), nil
	}
	if p, ok := presets[strings.ToLower(ref)]; ok {
		return p, nil
	}
	return LoadFile(ref)
}

// LoadFile reads a profile from a YAML file
func LoadFile(path string) (Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Profile{}, fmt.Errorf("failed to read profile: %w", err)
	}

	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Profile{}, fmt.Errorf("failed to parse profile %s: %w", path, err)
	}
	for i, c := range p.PrimaryConcerns {
		p.PrimaryConcerns[i] = c.Normalize()
	}
	if p.SkinType == "" {
		p.SkinType = Guest().SkinType
	}
	return p, nil
}
