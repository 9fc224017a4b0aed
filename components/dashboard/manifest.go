package dashboard

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	manifestVersionV1 = "1"
	// ManifestVersion exposes the current manifest format version for tooling.
	ManifestVersion = manifestVersionV1
)

// SectionManifestDocument models a YAML/JSON manifest describing the sections
// of one role's dashboard.
type SectionManifestDocument struct {
	Version  string            `json:"version" yaml:"version"`
	Name     string            `json:"name,omitempty" yaml:"name,omitempty"`
	Role     Role              `json:"role,omitempty" yaml:"role,omitempty"`
	Sections []ManifestSection `json:"sections" yaml:"sections"`
	Source   string            `json:"-" yaml:"-"`
}

// ManifestSection is a single section entry within a manifest.
type ManifestSection struct {
	SectionDescriptor `yaml:",inline"`
	Tags              []string `json:"tags,omitempty" yaml:"tags,omitempty"`
}

// LoadManifestFile reads a manifest from disk, registers it against the registry, and returns the document.
func (r *Registry) LoadManifestFile(path string) (*SectionManifestDocument, error) {
	doc, err := ReadManifest(path)
	if err != nil {
		return nil, err
	}
	if err := r.LoadManifestDocument(doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// LoadManifestDocument registers the sections of a decoded manifest. Loader
// references are checked against the capabilities already registered.
func (r *Registry) LoadManifestDocument(doc *SectionManifestDocument) error {
	if doc == nil {
		return fmt.Errorf("dashboard: manifest document is nil")
	}
	for _, section := range doc.Sections {
		def := section.SectionDescriptor
		if def.Loader != "" {
			r.mu.RLock()
			_, ok := r.loaders[def.Loader]
			r.mu.RUnlock()
			if !ok {
				return fmt.Errorf("dashboard: section %s from %s references unknown loader %s", def.ID, doc.Source, def.Loader)
			}
		}
		if err := r.RegisterSection(def); err != nil {
			return fmt.Errorf("dashboard: register section %s from %s: %w", def.ID, doc.Source, err)
		}
	}
	return nil
}

// ReadManifest loads a manifest file from disk without registering it.
func ReadManifest(path string) (*SectionManifestDocument, error) {
	f, err := os.Open(path) //nolint:gosec
	if err != nil {
		return nil, fmt.Errorf("dashboard: open manifest %s: %w", path, err)
	}
	defer f.Close()
	doc, err := DecodeManifest(f)
	if err != nil {
		return nil, fmt.Errorf("dashboard: decode manifest %s: %w", path, err)
	}
	doc.Source = path
	return doc, nil
}

// DecodeManifest reads a manifest from any reader.
func DecodeManifest(r io.Reader) (*SectionManifestDocument, error) {
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	var doc SectionManifestDocument
	if err := decoder.Decode(&doc); err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("dashboard: manifest is empty")
		}
		return nil, fmt.Errorf("dashboard: parse manifest: %w", err)
	}
	doc.applyDefaults()
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Validate ensures the manifest satisfies required fields.
func (doc *SectionManifestDocument) Validate() error {
	if doc.Version != manifestVersionV1 {
		return fmt.Errorf("dashboard: unsupported manifest version %q", doc.Version)
	}
	if doc.Role != "" && !doc.Role.Valid() {
		return fmt.Errorf("dashboard: manifest role %q is unknown", doc.Role)
	}
	seen := make(map[string]struct{}, len(doc.Sections))
	logouts := 0
	for idx, section := range doc.Sections {
		id := NormalizeSectionID(section.ID)
		if id == "" {
			return fmt.Errorf("dashboard: manifest section at index %d is missing id", idx)
		}
		if section.RequiredRole != "" && !section.RequiredRole.Valid() {
			return fmt.Errorf("dashboard: manifest section %s has unknown required_role %q", id, section.RequiredRole)
		}
		if _, exists := seen[id]; exists {
			return fmt.Errorf("dashboard: manifest duplicates section id %s", id)
		}
		seen[id] = struct{}{}
		if section.Logout {
			logouts++
		}
	}
	if logouts > 1 {
		return fmt.Errorf("dashboard: manifest declares %d logout sections, expected at most one", logouts)
	}
	return nil
}

func (doc *SectionManifestDocument) applyDefaults() {
	if doc.Version == "" {
		doc.Version = manifestVersionV1
	}
	for i := range doc.Sections {
		doc.Sections[i].ID = NormalizeSectionID(doc.Sections[i].ID)
		if doc.Sections[i].RequiredRole == "" && doc.Role != "" && !doc.Sections[i].Logout {
			doc.Sections[i].RequiredRole = doc.Role
		}
	}
}
