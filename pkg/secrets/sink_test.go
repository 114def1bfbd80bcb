// pkg/secrets/sink_test.go

package secrets

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPersistWritesOwnerOnlyFile(t *testing.T) {
	dir := t.TempDir()
	rec := CredentialRecord{
		Path: filepath.Join(dir, "maas", "maas.creds"),
		Mode: 0600,
	}
	rec.AddField("MAAS_URL", "http://host:5240/MAAS")
	rec.AddField("MAAS_ADMIN_USER", "admin")
	rec.AddSecret("MAAS_ADMIN_PASSWORD", NewSecret(KindPassword, Source{Kind: SourceGenerated}, []byte("s3cr3t")))

	path, err := Persist(context.Background(), rec)
	require.NoError(t, err)
	assert.Equal(t, rec.Path, path)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	dirInfo, err := os.Stat(filepath.Dir(path))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0700), dirInfo.Mode().Perm())

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t,
		"MAAS_URL=http://host:5240/MAAS\nMAAS_ADMIN_USER=admin\nMAAS_ADMIN_PASSWORD=s3cr3t\n",
		string(content))
}

func TestPersistLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	rec := CredentialRecord{Path: filepath.Join(dir, "svc.creds")}
	rec.AddField("KEY", "value")

	_, err := Persist(context.Background(), rec)
	require.NoError(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "svc.creds", entries[0].Name())
}

func TestPersistRequiresPath(t *testing.T) {
	_, err := Persist(context.Background(), CredentialRecord{})
	require.Error(t, err)
}

func TestPersistOverwritesExisting(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "svc.creds")
	require.NoError(t, os.WriteFile(path, []byte("OLD=1\n"), 0600))

	rec := CredentialRecord{Path: path}
	rec.AddField("NEW", "2")
	_, err := Persist(context.Background(), rec)
	require.NoError(t, err)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "NEW=2\n", string(content))
}
