package manifest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeManifest(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "manifest.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestParseArgsSplitsOnRightmostEquals(t *testing.T) {
	args, err := ParseArgs([]string{"token=a=b=c", "host=localhost"})
	require.NoError(t, err)
	require.Equal(t, "a=b=c", args["token"])
	require.Equal(t, "localhost", args["host"])
}

func TestParseArgsRejectsMissingEquals(t *testing.T) {
	_, err := ParseArgs([]string{"no-equals-here"})
	require.Error(t, err)
}

func TestLoadSubstitutesPlaceholders(t *testing.T) {
	path := writeManifest(t, ""+
		"stl_files: [\"a.stl\"]\n"+
		"roles:\n"+
		"  - role: Mod::Client\n"+
		"    address: \"${host}\"\n"+
		"test: [\"Mod::Client\"]\n"+
		"constants: {}\n")

	man, err := Load(path, map[string]string{"host": "10.0.0.1"})
	require.NoError(t, err)
	require.Equal(t, []string{"a.stl"}, man.STLFiles)
	require.Len(t, man.Roles, 1)
	require.Equal(t, "Mod::Client", man.Roles[0].Role)
	require.Equal(t, "10.0.0.1", man.Roles[0].Fields["address"])
}

func TestLoadReturnsSyntaxErrorOnMissingArgument(t *testing.T) {
	path := writeManifest(t, "stl_files: [\"${undefined}\"]\n")

	_, err := Load(path, map[string]string{})
	require.Error(t, err)

	var syn *SyntaxError
	require.ErrorAs(t, err, &syn)
}

func TestLoadReturnsSyntaxErrorOnMalformedYAML(t *testing.T) {
	path := writeManifest(t, "stl_files: [this is not valid: yaml\n")

	_, err := Load(path, map[string]string{})
	require.Error(t, err)

	var syn *SyntaxError
	require.ErrorAs(t, err, &syn)
}
