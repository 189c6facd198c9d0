// Command stltest runs a model-based conformance test driver for an STL
// module against a manifest file, ported from
// original_source/test_driver.py's Main.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/descriptorpb"

	"github.com/arkwright/stl/ast"
	"github.com/arkwright/stl/encoding"
	"github.com/arkwright/stl/executor"
	"github.com/arkwright/stl/graph"
	"github.com/arkwright/stl/manifest"
	"github.com/arkwright/stl/parser"
	"github.com/arkwright/stl/plugin"
	"github.com/arkwright/stl/reporter"
	"github.com/arkwright/stl/resolver"
)

func main() {
	os.Exit(mainRun())
}

// mainRun builds and executes the cobra command, returning the process exit
// code: 0 on a full pass, 1 on any transition failure or operational error,
// 3 when manifest loading fails with a *manifest.SyntaxError (argument
// substitution or the YAML parse that follows it).
func mainRun() int {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.Kitchen,
	})

	var argPairs []string
	var debug bool
	var showGraph bool
	exitCode := 0

	root := &cobra.Command{
		Use:           "stltest MANIFEST",
		Short:         "Run a model-based conformance test against an STL manifest",
		Version:       "0.1.0",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if debug {
				logger.SetLevel(log.DebugLevel)
			}
			code, err := runManifest(logger, args[0], argPairs, showGraph)
			exitCode = code
			return err
		},
	}
	root.Flags().StringArrayVarP(&argPairs, "arg", "a", nil,
		"substitute ${key} in the manifest with value (key=value, repeatable)")
	root.Flags().BoolVarP(&debug, "debug", "d", false, "enable debug logging")
	root.Flags().BoolVarP(&showGraph, "graph", "g", false, "print the transition graph instead of running it")

	if err := root.Execute(); err != nil {
		logger.Error(err.Error())
		if exitCode == 0 {
			exitCode = 1
		}
	}
	return exitCode
}

func runManifest(logger *log.Logger, manifestPath string, argPairs []string, showGraph bool) (int, error) {
	args, err := manifest.ParseArgs(argPairs)
	if err != nil {
		return 1, err
	}

	man, err := manifest.Load(manifestPath, args)
	if err != nil {
		var syn *manifest.SyntaxError
		if asSyntaxError(err, &syn) {
			return 3, err
		}
		return 1, err
	}

	descriptors, err := loadDescriptors(man.DescriptorSet)
	if err != nil {
		return 1, err
	}

	for i, p := range man.STLFiles {
		if !filepath.IsAbs(p) {
			man.STLFiles[i] = filepath.Join(filepath.Dir(manifestPath), p)
		}
	}
	files, err := parseSTLFiles(man.STLFiles)
	if err != nil {
		return 1, err
	}

	modules, err := resolver.LoadModules(files, descriptors)
	if err != nil {
		return 1, err
	}

	registry := plugin.Builtin()
	if err := plugin.Bind(modules, registry); err != nil {
		return 1, err
	}

	roleInits := make([]resolver.RoleInit, 0, len(man.Roles))
	for _, re := range man.Roles {
		modName, roleName, ok := strings.Cut(re.Role, "::")
		if !ok {
			return 1, fmt.Errorf("expected a Module::Name reference, got: %s", re.Role)
		}
		roleInits = append(roleInits, resolver.RoleInit{
			Module: modName,
			Role:   roleName,
			Fields: normalizeYAML(re.Fields).(map[string]any),
		})
	}
	if err := resolver.FillInModuleRoles(modules, roleInits); err != nil {
		return 1, err
	}

	constants, _ := normalizeYAML(man.Constants).(map[string]any)
	if err := resolver.FillInConstants(modules, constants); err != nil {
		return 1, err
	}

	rolesToTest, err := resolver.GetRolesToTest(modules, man.Test)
	if err != nil {
		return 1, err
	}

	resolved, err := resolver.ResolveTransitions(modules, rolesToTest)
	if err != nil {
		return 1, err
	}
	states, err := resolver.InitializeStates(resolved)
	if err != nil {
		return 1, err
	}
	g, err := graph.Build(resolved, states)
	if err != nil {
		return 1, err
	}

	if showGraph {
		printGraph(g)
		return 0, nil
	}

	success, err := executor.Traverse(logger, g)
	if err != nil {
		return 1, err
	}
	if !success {
		logger.Error("conformance test FAILED")
		return 1, nil
	}
	logger.Info("conformance test PASSED")
	return 0, nil
}

func asSyntaxError(err error, target **manifest.SyntaxError) bool {
	se, ok := err.(*manifest.SyntaxError)
	if ok {
		*target = se
	}
	return ok
}

func parseSTLFiles(paths []string) ([]*ast.File, error) {
	files := make([]*ast.File, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, err
		}
		handler := reporter.NewHandler(nil)
		file, err := parser.Parse(p, data, handler)
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", p, err)
		}
		files = append(files, file)
	}
	return files, nil
}

func loadDescriptors(path string) (*encoding.DescriptorRegistry, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var fdset descriptorpb.FileDescriptorSet
	if err := proto.Unmarshal(data, &fdset); err != nil {
		return nil, fmt.Errorf("parsing descriptor set %s: %w", path, err)
	}
	return encoding.NewDescriptorRegistry(&fdset)
}

func printGraph(g *graph.Graph) {
	fmt.Printf("initial vertex: %s\n", g.InitialID)
	for _, v := range g.Order {
		fmt.Printf("vertex %s:\n", v.ID)
		for _, sv := range v.States {
			fmt.Printf("  %s\n", sv.Key())
		}
		for _, e := range g.Edges(v.ID) {
			fmt.Printf("  -- %s --> %s (error -> %s)\n", e.Transition.Name, e.Target.ID, e.ErrorTarget.ID)
		}
	}
}

// normalizeYAML converts gopkg.in/yaml.v3's plain `int` decode results to
// int64 recursively, so manifest-supplied constants and role field values
// match the int64 convention every other part of the model uses for
// integer literals.
func normalizeYAML(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, e := range val {
			out[k] = normalizeYAML(e)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, e := range val {
			out[i] = normalizeYAML(e)
		}
		return out
	case int:
		return int64(val)
	default:
		return val
	}
}
