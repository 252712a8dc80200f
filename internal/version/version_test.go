package version

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fatih/color"
)

func withVersion(t *testing.T, v string) {
	t.Helper()
	orig := Version
	Version = v
	t.Cleanup(func() { Version = orig })
}

func TestDefaultVersionParses(t *testing.T) {
	v, err := Semver()
	if err != nil {
		t.Fatalf("default version must be semver: %v", err)
	}
	if v.Prerelease() != "dev" {
		t.Errorf("prerelease = %q", v.Prerelease())
	}
}

func TestSemverRejectsGarbage(t *testing.T) {
	withVersion(t, "not-a-version")
	if _, err := Semver(); err == nil {
		t.Fatal("want an error")
	}
	if Colored() != "not-a-version" {
		t.Errorf("Colored must fall back to the raw string")
	}
}

func TestColoredPlain(t *testing.T) {
	old := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = old })

	cases := map[string]string{
		"1.2.3":               "1.2.3",
		"0.1.0-dev":           "0.1.0-dev",
		"1.2.3-rc.1+build.42": "1.2.3-rc.1+build.42",
	}
	for in, want := range cases {
		withVersion(t, in)
		if got := Colored(); got != want {
			t.Errorf("Colored(%s) = %q, want %q", in, got, want)
		}
	}
}

func TestWrite(t *testing.T) {
	old := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = old })
	withVersion(t, "2.0.0")
	origCommit, origDate := GitCommit, BuildDate
	GitCommit, BuildDate = "0123456789abcdef0123", "2026-01-02"
	t.Cleanup(func() { GitCommit, BuildDate = origCommit, origDate })

	var buf bytes.Buffer
	Write(&buf)
	out := buf.String()
	for _, want := range []string{"viper 2.0.0\n", "commit: 0123456789ab\n", "built: 2026-01-02\n", "platform: " + Platform()} {
		if !strings.Contains(out, want) {
			t.Errorf("output lacks %q:\n%s", want, out)
		}
	}
}
