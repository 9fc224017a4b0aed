package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ettle/strcase"
	"gopkg.in/yaml.v3"

	"github.com/codemaster-stack/supamart-dashboard/components/dashboard"
	"github.com/codemaster-stack/supamart-dashboard/pkg/storefront"
)

type manifestCmd struct {
	Check manifestCheckCmd `cmd:"" help:"Validate a manifest against the built-in loaders."`
	Add   manifestAddCmd   `cmd:"" help:"Scaffold a section entry in a manifest."`
}

type manifestCheckCmd struct {
	Path string `arg:"" type:"existingfile" help:"Manifest YAML file."`
}

func (cmd *manifestCheckCmd) Run(_ context.Context, g *Globals) error {
	doc, err := dashboard.ReadManifest(cmd.Path)
	if err != nil {
		return err
	}
	role, err := parseRoleFlag(g.Role)
	if err != nil {
		return err
	}
	if role == "" {
		role = doc.Role
	}
	if role == "" {
		return errors.New("dashctl: manifest has no role; pass --role")
	}
	loaders := storefront.Loaders(storefront.NewMockClient(storefront.MockData{}), storefront.LoaderOptions{})
	registry, err := dashboard.NewRoleRegistry(role, loaders)
	if err != nil {
		return err
	}
	if err := registry.LoadManifestDocument(doc); err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "✓ %s: %d sections, %d visible to %s\n", cmd.Path, len(doc.Sections), len(registry.VisibleFor(role)), role)
	return nil
}

type manifestAddCmd struct {
	Path      string   `arg:"" type:"path" help:"Manifest YAML file to create or update."`
	ID        string   `required:"" help:"Section id (e.g. payout-history)."`
	Title     string   `help:"Header title (defaults to the id in title case)."`
	Loader    string   `help:"Loader capability name (e.g. orders.list)."`
	Resource  string   `help:"Resource whose mutations refresh this section."`
	Icon      string   `help:"Sidebar icon name."`
	Role      string   `name:"section-role" help:"Required role for the section."`
	Tag       []string `help:"Tags recorded on the entry."`
	Overwrite bool     `help:"Replace an existing entry with the same id."`
}

func (cmd *manifestAddCmd) Run(_ context.Context, g *Globals) error {
	id := dashboard.NormalizeSectionID(cmd.ID)
	if id == "" {
		return errors.New("dashctl: section id is required")
	}
	path, err := filepath.Abs(cmd.Path)
	if err != nil {
		return fmt.Errorf("dashctl: resolve manifest path: %w", err)
	}
	doc, err := loadOrInitManifest(path)
	if err != nil {
		return err
	}
	if doc.Role == "" && g.Role != "" {
		role, err := parseRoleFlag(g.Role)
		if err != nil {
			return err
		}
		doc.Role = role
	}
	entry, err := cmd.entry(id)
	if err != nil {
		return err
	}

	replaced := false
	for idx := range doc.Sections {
		if doc.Sections[idx].ID != id {
			continue
		}
		if !cmd.Overwrite {
			return fmt.Errorf("dashctl: manifest already defines section %s (use --overwrite to replace)", id)
		}
		doc.Sections[idx] = entry
		replaced = true
	}
	if !replaced {
		doc.Sections = append(doc.Sections, entry)
	}
	if err := doc.Validate(); err != nil {
		return err
	}
	if err := writeManifest(path, doc); err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "✓ Added %s to %s\n", id, path)
	return nil
}

func (cmd *manifestAddCmd) entry(id string) (dashboard.ManifestSection, error) {
	title := cmd.Title
	if title == "" {
		title = deriveTitle(id)
	}
	var role dashboard.Role
	if cmd.Role != "" {
		parsed, ok := dashboard.ParseRole(cmd.Role)
		if !ok {
			return dashboard.ManifestSection{}, fmt.Errorf("dashctl: unknown section role %q", cmd.Role)
		}
		role = parsed
	}
	return dashboard.ManifestSection{
		SectionDescriptor: dashboard.SectionDescriptor{
			ID:           id,
			Title:        title,
			RequiredRole: role,
			Loader:       cmd.Loader,
			Resource:     cmd.Resource,
			Icon:         cmd.Icon,
		},
		Tags: cmd.Tag,
	}, nil
}

func deriveTitle(id string) string {
	words := strings.Fields(strcase.ToCase(id, strcase.TitleCase, ' '))
	return strings.Join(words, " ")
}

func loadOrInitManifest(path string) (*dashboard.SectionManifestDocument, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &dashboard.SectionManifestDocument{
				Version:  dashboard.ManifestVersion,
				Sections: []dashboard.ManifestSection{},
				Source:   path,
			}, nil
		}
		return nil, fmt.Errorf("dashctl: stat manifest: %w", err)
	}
	return dashboard.ReadManifest(path)
}

func writeManifest(path string, doc *dashboard.SectionManifestDocument) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("dashctl: mkdir %s: %w", filepath.Dir(path), err)
	}
	file, err := os.Create(path) //nolint:gosec
	if err != nil {
		return fmt.Errorf("dashctl: create manifest %s: %w", path, err)
	}
	defer file.Close()

	encoder := yaml.NewEncoder(file)
	encoder.SetIndent(2)
	defer encoder.Close()
	if err := encoder.Encode(doc); err != nil {
		return fmt.Errorf("dashctl: write manifest: %w", err)
	}
	return nil
}
