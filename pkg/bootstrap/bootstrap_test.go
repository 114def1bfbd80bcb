// pkg/bootstrap/bootstrap_test.go

package bootstrap

import (
	"testing"

	"github.com/probitlabs/hostprep/pkg/config"
	"github.com/probitlabs/hostprep/pkg/platform"
	"github.com/stretchr/testify/assert"
)

func testConfig() *config.Config {
	cfg := config.Defaults()
	return &cfg
}

func TestUserFlowStepOrder(t *testing.T) {
	f := &UserFlow{cfg: testConfig(), facts: platform.Facts{OSFamily: "debian", AdminGroup: "sudo"}}

	var names []string
	for _, s := range f.Steps() {
		names = append(names, s.Name)
	}
	assert.Equal(t, []string{
		"user-present",
		"admin-group-membership",
		"sudoers-dropin",
		"ssh-directory",
	}, names)
}

func TestSSHFlowUnitNamePerFamily(t *testing.T) {
	debian := &SSHFlow{cfg: testConfig(), facts: platform.Facts{OSFamily: "debian"}}
	assert.Equal(t, "ssh", debian.unitName())

	rhel := &SSHFlow{cfg: testConfig(), facts: platform.Facts{OSFamily: "rhel"}}
	assert.Equal(t, "sshd", rhel.unitName())

	unknown := &SSHFlow{cfg: testConfig(), facts: platform.Facts{OSFamily: "unknown"}}
	assert.Equal(t, "ssh", unknown.unitName())
}

func TestSSHFlowKeyStepOnlyWithURL(t *testing.T) {
	withoutKey := &SSHFlow{cfg: testConfig(), facts: platform.Facts{OSFamily: "debian"}}
	assert.Len(t, withoutKey.Steps(), 2)

	cfg := testConfig()
	cfg.RemoteKeyURL = "https://keys.internal/admin.pub"
	withKey := &SSHFlow{cfg: cfg, facts: platform.Facts{OSFamily: "debian"}}
	steps := withKey.Steps()
	assert.Len(t, steps, 3)
	assert.Equal(t, "authorized-key-installed", steps[2].Name)
}
