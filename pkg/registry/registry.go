// Package registry holds the read-only reference data the pipeline routes
// against: accredited facilities and the per-category authorization service
// templates. Data is embedded and immutable for the process lifetime.
package registry

import (
	"embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed data/facilities.yaml data/services.yaml
var dataFS embed.FS

// Facility is one accredited hospital record.
type Facility struct {
	ID               string          `yaml:"id"`
	Name             string          `yaml:"name"`
	Address          string          `yaml:"address"`
	Lat              float64         `yaml:"lat"`
	Lng              float64         `yaml:"lng"`
	Contact          string          `yaml:"contact"`
	EmergencyContact string          `yaml:"emergency_contact"`
	Capabilities     map[string]bool `yaml:"capabilities"`
	InsuranceAccepted []string       `yaml:"insurance_accepted"`
	EmergencyTypes   []string        `yaml:"emergency_types_supported"`
}

// Service is one authorizable service label. Requires names the facility
// capability key the label depends on; empty means always satisfiable.
type Service struct {
	Label    string `yaml:"label"`
	Requires string `yaml:"requires"`
}

// Template is the authorization service template for one emergency category.
type Template struct {
	Services   []Service `yaml:"services"`
	RoomType   string    `yaml:"room_type"`
	Exclusions []string  `yaml:"typical_exclusions"`
}

// Registry is the loaded reference data set.
type Registry struct {
	facilities []Facility
	templates  map[string]Template
}

type facilitiesFile struct {
	Facilities []Facility `yaml:"facilities"`
}

type templatesFile struct {
	Templates map[string]Template `yaml:"templates"`
}

// Load parses the embedded reference data.
func Load() (*Registry, error) {
	rawFacilities, err := dataFS.ReadFile("data/facilities.yaml")
	if err != nil {
		return nil, fmt.Errorf("failed to read facilities data: %w", err)
	}
	var ff facilitiesFile
	if err := yaml.Unmarshal(rawFacilities, &ff); err != nil {
		return nil, fmt.Errorf("failed to parse facilities data: %w", err)
	}
	if len(ff.Facilities) == 0 {
		return nil, fmt.Errorf("facilities data is empty")
	}

	rawTemplates, err := dataFS.ReadFile("data/services.yaml")
	if err != nil {
		return nil, fmt.Errorf("failed to read service templates: %w", err)
	}
	var tf templatesFile
	if err := yaml.Unmarshal(rawTemplates, &tf); err != nil {
		return nil, fmt.Errorf("failed to parse service templates: %w", err)
	}
	if _, ok := tf.Templates["GENERAL"]; !ok {
		return nil, fmt.Errorf("service templates must include GENERAL")
	}

	return &Registry{
		facilities: ff.Facilities,
		templates:  tf.Templates,
	}, nil
}

// Facilities returns all facility records in registry order.
func (r *Registry) Facilities() []Facility {
	return r.facilities
}

// FindByName looks up a facility by case-insensitive exact name match.
func (r *Registry) FindByName(name string) (Facility, bool) {
	want := strings.ToLower(strings.TrimSpace(name))
	for i := range r.facilities {
		if strings.ToLower(r.facilities[i].Name) == want {
			return r.facilities[i], true
		}
	}
	return Facility{}, false
}

// TemplateFor returns the service template for a category, falling back to
// GENERAL for unknown categories.
func (r *Registry) TemplateFor(category string) Template {
	if t, ok := r.templates[category]; ok {
		return t
	}
	return r.templates["GENERAL"]
}

// Labels returns the template's service labels in order.
func (t Template) Labels() []string {
	labels := make([]string, len(t.Services))
	for i, svc := range t.Services {
		labels[i] = svc.Label
	}
	return labels
}

// RequiresFor maps a service label to its required capability key, or ""
// when the label is always satisfiable. Unknown labels return ok=false.
func (t Template) RequiresFor(label string) (string, bool) {
	for _, svc := range t.Services {
		if svc.Label == label {
			return svc.Requires, true
		}
	}
	return "", false
}

// RequiredCapabilities resolves the selected labels to the set of facility
// capability keys they depend on, preserving first-seen order.
func (t Template) RequiredCapabilities(labels []string) []string {
	seen := make(map[string]bool)
	var keys []string
	for _, label := range labels {
		req, ok := t.RequiresFor(label)
		if !ok || req == "" || seen[req] {
			continue
		}
		seen[req] = true
		keys = append(keys, req)
	}
	return keys
}

// Eligible reports whether a facility can take the case. A failing facility
// yields the first failing condition in fixed order: payer, category,
// missing capabilities.
func Eligible(f Facility, payer, category string, requiredCaps []string) (bool, string) {
	accepted := false
	for _, p := range f.InsuranceAccepted {
		if p == payer {
			accepted = true
			break
		}
	}
	if !accepted {
		return false, fmt.Sprintf("%s does not accept %s", f.Name, payer)
	}

	supported := false
	for _, c := range f.EmergencyTypes {
		if c == category {
			supported = true
			break
		}
	}
	if !supported {
		return false, fmt.Sprintf("%s does not support %s emergencies", f.Name, category)
	}

	var missing []string
	for _, key := range requiredCaps {
		if !f.Capabilities[key] {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return false, fmt.Sprintf("%s lacks required capabilities: %s", f.Name, strings.Join(missing, ", "))
	}

	return true, ""
}

// HasCapability reports whether the facility has the named capability.
// An empty key is always satisfied.
func (f Facility) HasCapability(key string) bool {
	if key == "" {
		return true
	}
	return f.Capabilities[key]
}
