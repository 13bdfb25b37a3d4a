//
// nose - an automated schema and index advisor for wide-column stores
//
//  Copyright (c) 2026 The NoSE Authors. All rights reserved.
//

// Command nose is the advisor's CLI entry point.
package main

import (
	"os"

	"github.com/pkg/errors"

	"github.com/nose-project/nose/adapters/cli"
	"github.com/nose-project/nose/usecases/workloaddsl"
)

func main() {
	root := cli.NewRootCmd(loadWorkload)
	os.Exit(cli.Execute(root))
}

// loadWorkload resolves a workload source name to a registered
// workloaddsl.Builder. The DSL is a Go builder chain rather than a
// file format (see usecases/workloaddsl), so real deployments embed
// nose as a library and call usecases/advisor directly; this registry
// exists so the CLI has something runnable out of the box.
func loadWorkload(source string) (*workloaddsl.Builder, error) {
	build, ok := registeredWorkloads[source]
	if !ok {
		return nil, errors.Errorf("unknown workload source %q (known: %v)", source, workloadNames())
	}
	return build(), nil
}

var registeredWorkloads = map[string]func() *workloaddsl.Builder{}

func workloadNames() []string {
	names := make([]string, 0, len(registeredWorkloads))
	for name := range registeredWorkloads {
		names = append(names, name)
	}
	return names
}
