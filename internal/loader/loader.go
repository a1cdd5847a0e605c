package loader

import (
	"bufio"
	"fmt"
	"io/fs"
	"strings"

	"golang.org/x/mod/semver"

	"rv39kernel/internal/config"
)

// Manifest is one line of an app directory's manifest: the app's name,
// the ABI version it was built against, and the file holding its ELF
// image. The original loader this one replaces found images by walking
// a linker-generated table of offsets (_num_app); go:embed gives this
// kernel a real filesystem to read instead, so the manifest plays the
// role _num_app played, minus the assembly.
type Manifest struct {
	Name    string
	Version string
	File    string
}

// parseManifestText reads "name version file" triples, one per
// non-blank, non-comment line.
func parseManifestText(text string) ([]Manifest, error) {
	var out []Manifest
	sc := bufio.NewScanner(strings.NewReader(text))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 3 {
			return nil, fmt.Errorf("loader: malformed manifest line %q", line)
		}
		out = append(out, Manifest{Name: fields[0], Version: fields[1], File: fields[2]})
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Load reads manifestPath out of appsFS, then every image it lists whose
// major ABI version matches config.ABIVersion. Images built against an
// incompatible major version are skipped and returned by name rather
// than causing Load to fail outright: a kernel image may legitimately
// carry apps spanning an ABI bump during a migration window.
func Load(appsFS fs.FS, manifestPath string) (table *AppTable, skipped []string, err error) {
	raw, err := fs.ReadFile(appsFS, manifestPath)
	if err != nil {
		return nil, nil, err
	}
	entries, err := parseManifestText(string(raw))
	if err != nil {
		return nil, nil, err
	}

	table = NewAppTable(len(entries))
	wantMajor := semver.Major(config.ABIVersion)
	for _, m := range entries {
		v := m.Version
		if !strings.HasPrefix(v, "v") {
			v = "v" + v
		}
		if !semver.IsValid(v) {
			return nil, nil, fmt.Errorf("loader: app %s has invalid version %q", m.Name, m.Version)
		}
		if semver.Major(v) != wantMajor {
			skipped = append(skipped, m.Name)
			continue
		}
		data, err := fs.ReadFile(appsFS, m.File)
		if err != nil {
			return nil, nil, fmt.Errorf("loader: reading %s: %w", m.File, err)
		}
		table.Add(m.Name, data)
	}
	return table, skipped, nil
}
