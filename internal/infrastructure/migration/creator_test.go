package migration

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateMigration(t *testing.T) {
	t.Run("creates a numbered up and down pair", func(t *testing.T) {
		dir := t.TempDir()

		mf, err := CreateMigration(dir, "Add Supplier Index", "index for share lookups")
		require.NoError(t, err)

		assert.Equal(t, "000001", mf.Version)
		assert.Equal(t, filepath.Join(dir, "000001_add_supplier_index.up.sql"), mf.UpPath)
		assert.Equal(t, filepath.Join(dir, "000001_add_supplier_index.down.sql"), mf.DownPath)

		up, err := os.ReadFile(mf.UpPath)
		require.NoError(t, err)
		assert.Contains(t, string(up), "index for share lookups")

		_, err = os.Stat(mf.DownPath)
		assert.NoError(t, err)
	})

	t.Run("continues the existing sequence", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "000007_share_links.up.sql"), nil, 0644))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "000007_share_links.down.sql"), nil, 0644))

		mf, err := CreateMigration(dir, "supply records", "")
		require.NoError(t, err)
		assert.Equal(t, "000008", mf.Version)
	})

	t.Run("creates the directory when missing", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "nested", "migrations")

		mf, err := CreateMigration(dir, "init", "")
		require.NoError(t, err)
		assert.FileExists(t, mf.UpPath)
	})
}

func TestSanitizeName(t *testing.T) {
	cases := map[string]string{
		"Add Share Links":     "add_share_links",
		"add-share-links":     "add_share_links",
		"ADD  share   links ": "add_share_links",
		"records v2":          "records_v2",
		"weird!@#chars":       "weirdchars",
	}
	for input, want := range cases {
		assert.Equal(t, want, sanitizeName(input), "input %q", input)
	}
}

func TestListMigrations(t *testing.T) {
	t.Run("lists up migrations sorted", func(t *testing.T) {
		dir := t.TempDir()
		for _, name := range []string{
			"000002_share_links.up.sql",
			"000002_share_links.down.sql",
			"000001_init_schema.up.sql",
			"000001_init_schema.down.sql",
			"notes.txt",
		} {
			require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0644))
		}

		migrations, err := ListMigrations(dir)
		require.NoError(t, err)
		assert.Equal(t, []string{"000001_init_schema", "000002_share_links"}, migrations)
	})

	t.Run("missing directory yields an empty list", func(t *testing.T) {
		migrations, err := ListMigrations(filepath.Join(t.TempDir(), "nope"))
		require.NoError(t, err)
		assert.Empty(t, migrations)
	})
}
