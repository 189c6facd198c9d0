// Package manifest loads a conformance run's manifest file: which .stl
// files to parse, the roles under test, their initial field values, and
// the constants to fill in. Ported from original_source/test_driver.py's
// LoadManifest, with one deliberate format change recorded in DESIGN.md:
// the manifest is YAML rather than a Python dict literal, so it is parsed
// with gopkg.in/yaml.v3 instead of ast.literal_eval.
package manifest

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// RoleEntry is one `roles:` list entry: the qualified role to initialize,
// plus whatever other keys were given as its field values.
type RoleEntry struct {
	Role   string         `yaml:"role"`
	Fields map[string]any `yaml:",inline"`
}

// Manifest is a fully-parsed, but not yet argument-validated, manifest file.
type Manifest struct {
	STLFiles      []string        `yaml:"stl_files"`
	Roles         []RoleEntry     `yaml:"roles"`
	Test          []string        `yaml:"test"`
	Constants     map[string]any  `yaml:"constants"`
	DescriptorSet string          `yaml:"descriptor_set"`
	Plugins       map[string]string `yaml:"plugins"`
}

// SyntaxError wraps a failure in the manifest's `${key}` argument
// substitution step: either a placeholder with no matching -a argument, or
// a YAML document that fails to parse once substitution is applied. The CLI
// maps this specific error to exit code 3, mirroring
// original_source/test_driver.py's LoadManifest sys.exit(3) on a
// substitution SyntaxError.
type SyntaxError struct{ Err error }

func (e *SyntaxError) Error() string { return fmt.Sprintf("manifest syntax error: %v", e.Err) }
func (e *SyntaxError) Unwrap() error { return e.Err }

var placeholderPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// ParseArgs parses a list of "-a key=value" command-line arguments, keyed
// on the rightmost '=' so a value may itself contain '=' characters.
func ParseArgs(pairs []string) (map[string]string, error) {
	out := make(map[string]string, len(pairs))
	for _, p := range pairs {
		i := strings.LastIndex(p, "=")
		if i < 0 {
			return nil, fmt.Errorf("invalid -a argument (expected key=value): %s", p)
		}
		out[p[:i]] = p[i+1:]
	}
	return out, nil
}

// substitute replaces every "${key}" occurrence in data with args[key],
// erroring if any placeholder has no matching argument.
func substitute(data string, args map[string]string) (string, error) {
	var missing []string
	result := placeholderPattern.ReplaceAllStringFunc(data, func(match string) string {
		key := match[2 : len(match)-1]
		if v, ok := args[key]; ok {
			return v
		}
		missing = append(missing, key)
		return match
	})
	if len(missing) > 0 {
		return "", fmt.Errorf("undefined manifest argument(s): %s", strings.Join(missing, ", "))
	}
	return result, nil
}

// Load reads the manifest at path, substitutes every "${key}" placeholder
// with the matching entry of args, and parses the result as YAML.
func Load(path string, args map[string]string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	substituted, err := substitute(string(data), args)
	if err != nil {
		return nil, &SyntaxError{Err: err}
	}
	var m Manifest
	if err := yaml.Unmarshal([]byte(substituted), &m); err != nil {
		return nil, &SyntaxError{Err: err}
	}
	return &m, nil
}
