// pkg/platform/facts_test.go

package platform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFamilyFromOSRelease(t *testing.T) {
	tests := []struct {
		name   string
		id     string
		idLike string
		want   string
	}{
		{"ubuntu", "ubuntu", "debian", "debian"},
		{"debian", "debian", "", "debian"},
		{"pop via id_like", "pop", "ubuntu debian", "debian"},
		{"fedora", "fedora", "", "rhel"},
		{"rocky", "rocky", "rhel centos fedora", "rhel"},
		{"alpine", "alpine", "", "unknown"},
		{"empty", "", "", "unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FamilyFromOSRelease(tt.id, tt.idLike))
		})
	}
}

func TestParsePsqlVersion(t *testing.T) {
	tests := []struct {
		name    string
		out     string
		want    int
		wantErr bool
	}{
		{"plain", "psql (PostgreSQL) 16.4", 16, false},
		{"ubuntu packaged", "psql (PostgreSQL) 16.4 (Ubuntu 16.4-0ubuntu0.24.04.1)", 16, false},
		{"older ubuntu packaged", "psql (PostgreSQL) 14.11 (Ubuntu 14.11-0ubuntu0.22.04.1)", 14, false},
		{"trailing newline", "psql (PostgreSQL) 15.6\n", 15, false},
		{"no version", "psql: command not found", 0, true},
		{"empty", "", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parsePsqlVersion(tt.out)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAdminGroupFor(t *testing.T) {
	assert.Equal(t, "wheel", adminGroupFor("rhel"))
	assert.Equal(t, "sudo", adminGroupFor("debian"))
	assert.Equal(t, "sudo", adminGroupFor("unknown"))
}
