package dashboard

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stubLoaders() map[string]Loader {
	noop := LoaderFunc(func(context.Context, LoadRequest) ([]Record, error) { return nil, nil })
	return map[string]Loader{
		LoaderUsers:        noop,
		LoaderSellers:      noop,
		LoaderProducts:     noop,
		LoaderOrders:       noop,
		LoaderSellerDetail: noop,
		LoaderSellerShop:   noop,
	}
}

func TestRoleRegistriesExposeDefaultSections(t *testing.T) {
	for _, role := range []Role{RoleAdmin, RoleSeller, RoleUser} {
		reg, err := NewRoleRegistry(role, stubLoaders())
		require.NoError(t, err, role)
		visible := reg.VisibleFor(role)
		require.NotEmpty(t, visible)
		assert.Equal(t, "overview", visible[0], "overview comes first for %s", role)
		for _, def := range reg.Sections() {
			_, _, err := reg.LoaderFor(def)
			assert.NoError(t, err, "section %s loader", def.ID)
		}
	}
}

func TestSectionsVisibleForIsRoleScoped(t *testing.T) {
	sections := []SectionDescriptor{
		{ID: "overview"},
		{ID: "manage-users", RequiredRole: RoleAdmin},
		{ID: "wallet", RequiredRole: RoleSeller},
		{ID: "logout", Logout: true},
	}
	assert.Equal(t, []string{"overview", "manage-users", "logout"}, SectionsVisibleFor(sections, RoleAdmin))
	assert.Equal(t, []string{"overview", "wallet", "logout"}, SectionsVisibleFor(sections, RoleSeller))
	assert.Equal(t, []string{"overview", "logout"}, SectionsVisibleFor(sections, RoleUser))
	assert.Nil(t, SectionsVisibleFor(sections, Role("guest")))
}

func TestRegistryNormalizesAnchorsAndTitles(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.RegisterSection(SectionDescriptor{ID: "#store-settings"}))

	def, ok := reg.Section("#store-settings")
	require.True(t, ok)
	assert.Equal(t, "store-settings", def.ID)
	assert.Equal(t, "Store Settings", def.Title)
}

func TestRegistryKeepsPositionOnReregister(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.RegisterSection(SectionDescriptor{ID: "a", Title: "A"}))
	require.NoError(t, reg.RegisterSection(SectionDescriptor{ID: "b", Title: "B"}))
	require.NoError(t, reg.RegisterSection(SectionDescriptor{ID: "a", Title: "A2"}))

	defs := reg.Sections()
	require.Len(t, defs, 2)
	assert.Equal(t, "a", defs[0].ID)
	assert.Equal(t, "A2", defs[0].Title)
}

func TestRegistryRejectsUnknownRole(t *testing.T) {
	err := NewRegistry().RegisterSection(SectionDescriptor{ID: "x", RequiredRole: "root"})
	assert.Error(t, err)
}

func TestRegistryReportsUnknownLoader(t *testing.T) {
	reg := NewRegistry()
	def := SectionDescriptor{ID: "orphan", Loader: "missing.loader"}
	require.NoError(t, reg.RegisterSection(def))
	_, _, err := reg.LoaderFor(def)
	assert.Error(t, err)
}

func TestSectionsByResource(t *testing.T) {
	reg, err := NewRoleRegistry(RoleSeller, stubLoaders())
	require.NoError(t, err)
	assert.Equal(t, []string{"overview", "wallet", "store-settings"}, reg.SectionsByResource("seller"))
	assert.Equal(t, []string{"manage-products", "shop-preview"}, reg.SectionsByResource("products"))
	def, ok := reg.Section("shop-preview")
	require.True(t, ok)
	assert.Equal(t, LoaderSellerShop, def.Loader)
	assert.Nil(t, reg.SectionsByResource(""))
}

func TestMenuForPutsLogoutLast(t *testing.T) {
	reg, err := NewRoleRegistry(RoleAdmin, stubLoaders())
	require.NoError(t, err)
	require.NoError(t, reg.RegisterSection(SectionDescriptor{ID: "audit-log", RequiredRole: RoleAdmin}))

	menu := MenuFor(reg, RoleAdmin)
	require.NotEmpty(t, menu)
	last := menu[len(menu)-1]
	assert.True(t, last.Logout)
	assert.Equal(t, "#"+SectionAdminLogout, last.Route)
	assert.Equal(t, len(menu), last.Position)
	assert.Equal(t, "audit-log", menu[len(menu)-2].ID)
}

type recordingMenuBuilder struct {
	items []MenuItem
	codes []string
}

func (b *recordingMenuBuilder) EnsureMenuItem(_ context.Context, code string, item MenuItem) error {
	b.codes = append(b.codes, code)
	b.items = append(b.items, item)
	return nil
}

func TestSeedMenuUsesRoleMenuCode(t *testing.T) {
	reg, err := NewRoleRegistry(RoleUser, stubLoaders())
	require.NoError(t, err)
	builder := &recordingMenuBuilder{}
	require.NoError(t, SeedMenu(context.Background(), builder, "", reg, RoleUser))
	require.Len(t, builder.items, len(reg.VisibleFor(RoleUser)))
	assert.Equal(t, "dashboard.user", builder.codes[0])
}

const sellerManifest = `
version: "1"
name: seller-extras
role: seller
sections:
  - id: "#shop-preview"
    title: Shop Preview
    loader: seller.shop
    resource: products
    tags: [public]
  - id: payouts-history
    loader: seller.detail
    resource: seller
`

func TestDecodeManifestAppliesDefaults(t *testing.T) {
	doc, err := DecodeManifest(strings.NewReader(sellerManifest))
	require.NoError(t, err)
	require.Len(t, doc.Sections, 2)
	assert.Equal(t, "shop-preview", doc.Sections[0].ID)
	assert.Equal(t, RoleSeller, doc.Sections[0].RequiredRole)
	assert.Equal(t, []string{"public"}, doc.Sections[0].Tags)
}

func TestDecodeManifestRejectsUnknownFields(t *testing.T) {
	_, err := DecodeManifest(strings.NewReader("version: \"1\"\nsections: []\nwidgets: []\n"))
	assert.Error(t, err)
}

func TestDecodeManifestRejectsDuplicates(t *testing.T) {
	_, err := DecodeManifest(strings.NewReader("version: \"1\"\nsections:\n  - id: a\n  - id: \"#a\"\n"))
	assert.Error(t, err)
}

func TestLoadManifestFileRegistersSections(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sections.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sellerManifest), 0o600))

	reg, err := NewRoleRegistry(RoleSeller, stubLoaders())
	require.NoError(t, err)
	doc, err := reg.LoadManifestFile(path)
	require.NoError(t, err)
	assert.Equal(t, path, doc.Source)

	def, ok := reg.Section("shop-preview")
	require.True(t, ok)
	assert.Equal(t, LoaderSellerShop, def.Loader)
	visible := reg.VisibleFor(RoleSeller)
	assert.Contains(t, visible, "payouts-history")
}

func TestLoadManifestRejectsUnknownLoader(t *testing.T) {
	doc, err := DecodeManifest(strings.NewReader("version: \"1\"\nsections:\n  - id: a\n    loader: nope\n"))
	require.NoError(t, err)
	assert.Error(t, NewRegistry().LoadManifestDocument(doc))
}

func withSectionHooks(t *testing.T, hooks ...SectionHook) {
	t.Helper()
	globalHookMu.Lock()
	saved := globalHooks
	globalHooks = append([]SectionHook(nil), hooks...)
	globalHookMu.Unlock()
	t.Cleanup(func() {
		globalHookMu.Lock()
		globalHooks = saved
		globalHookMu.Unlock()
	})
}

func TestSectionHooksExtendRoleRegistry(t *testing.T) {
	withSectionHooks(t)
	RegisterSectionHook(func(reg *Registry) error {
		return reg.RegisterSection(SectionDescriptor{ID: "promotions", Title: "Promotions", RequiredRole: RoleUser, Loader: LoaderProducts, Resource: "products"})
	})

	reg, err := NewRoleRegistry(RoleUser, stubLoaders())
	require.NoError(t, err)
	visible := reg.VisibleFor(RoleUser)
	assert.Equal(t, "promotions", visible[len(visible)-1])

	_, ok := NewRegistry().Section("promotions")
	assert.False(t, ok, "a bare registry skips hooks")
}

func TestSectionHookErrorIsReturned(t *testing.T) {
	withSectionHooks(t, func(*Registry) error { return errors.New("catalog offline") })

	_, err := NewRoleRegistry(RoleAdmin, stubLoaders())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "catalog offline")
}
