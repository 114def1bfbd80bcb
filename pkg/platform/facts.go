// pkg/platform/facts.go

// Package platform discovers read-only facts about the host: OS family,
// admin group, available package managers, installed database version. Facts
// are read once per run and never mutated.
package platform

import (
	"bufio"
	"context"
	"os"
	"strings"

	"github.com/probitlabs/hostprep/pkg/execute"
	goversion "github.com/hashicorp/go-version"
	cerr "github.com/cockroachdb/errors"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// Facts is the discovered host state used to build step lists.
type Facts struct {
	OSFamily   string // "debian", "rhel", or "unknown"
	AdminGroup string // "sudo" or "wheel"
	HasAPT     bool
	HasDNF     bool
	HasSnap    bool
	HasSystemd bool
}

// Discover reads host facts. Missing tools are recorded, not errors: the step
// preconditions decide what is fatal.
func Discover(ctx context.Context) Facts {
	logger := otelzap.Ctx(ctx)

	facts := Facts{
		OSFamily:   osFamily(),
		HasAPT:     execute.LookPath("apt-get"),
		HasDNF:     execute.LookPath("dnf"),
		HasSnap:    execute.LookPath("snap"),
		HasSystemd: execute.LookPath("systemctl"),
	}
	facts.AdminGroup = adminGroupFor(facts.OSFamily)

	logger.Debug("Host facts discovered",
		zap.String("os_family", facts.OSFamily),
		zap.String("admin_group", facts.AdminGroup),
		zap.Bool("apt", facts.HasAPT),
		zap.Bool("dnf", facts.HasDNF),
		zap.Bool("snap", facts.HasSnap),
		zap.Bool("systemd", facts.HasSystemd))
	return facts
}

func osFamily() string {
	file, err := os.Open("/etc/os-release")
	if err != nil {
		return "unknown"
	}
	defer file.Close()

	var id, idLike string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "ID="):
			id = strings.Trim(strings.SplitN(line, "=", 2)[1], `"`)
		case strings.HasPrefix(line, "ID_LIKE="):
			idLike = strings.Trim(strings.SplitN(line, "=", 2)[1], `"`)
		}
	}
	return FamilyFromOSRelease(id, idLike)
}

// FamilyFromOSRelease maps os-release ID/ID_LIKE values onto a package
// manager family.
func FamilyFromOSRelease(id, idLike string) string {
	combined := id + " " + idLike
	switch {
	case strings.Contains(combined, "debian"), strings.Contains(combined, "ubuntu"):
		return "debian"
	case strings.Contains(combined, "rhel"), strings.Contains(combined, "fedora"), strings.Contains(combined, "centos"):
		return "rhel"
	default:
		return "unknown"
	}
}

func adminGroupFor(family string) string {
	if family == "rhel" {
		return "wheel"
	}
	return "sudo"
}

// PostgresMajorVersion parses the installed PostgreSQL client version, e.g.
// "psql (PostgreSQL) 16.2" reports 16. Returns an error when psql is absent
// or the output does not parse.
func PostgresMajorVersion(ctx context.Context) (int, error) {
	out, err := execute.Run(ctx, execute.Options{
		Command: "psql",
		Args:    []string{"--version"},
		Capture: true,
	})
	if err != nil {
		return 0, cerr.Wrap(err, "query psql version")
	}
	return parsePsqlVersion(out)
}

// parsePsqlVersion takes the first field that parses as a version. Distro
// builds append a package suffix, e.g.
// "psql (PostgreSQL) 16.4 (Ubuntu 16.4-0ubuntu0.24.04.1)", so scanning from
// the front finds the bare upstream version.
func parsePsqlVersion(out string) (int, error) {
	for _, field := range strings.Fields(strings.TrimSpace(out)) {
		if v, err := goversion.NewVersion(field); err == nil {
			return v.Segments()[0], nil
		}
	}
	return 0, cerr.Newf("unexpected psql version output %q", out)
}
