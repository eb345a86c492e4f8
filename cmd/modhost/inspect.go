// inspect.go: one-shot scan reporting loaded modules
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/agilira/go-modfactory"
)

func newInspectCommand(opts *globalOptions) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "inspect [dir]",
		Short: "Scan a module directory and list what loaded",
		Example: `  # Scan the directory next to the modhost executable
  modhost inspect

  # Scan a specific directory
  modhost inspect ./modules

  # JSON output
  modhost inspect ./modules --json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := ""
			if len(args) == 1 {
				dir = args[0]
			}
			return runInspect(cmd.OutOrStdout(), opts, dir, asJSON)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print modules as JSON")
	return cmd
}

func runInspect(out io.Writer, opts *globalOptions, dir string, asJSON bool) error {
	config, err := opts.managerConfig()
	if err != nil {
		return err
	}

	manager := modfactory.NewManager(opts.moduleLogger(), modfactory.WithConfig(config))
	// A strict scan can fail with modules already loaded; release them too.
	defer func() {
		if err := manager.Stop(); err != nil {
			opts.logger.Warn().Err(err).Msg("module release reported errors")
		}
	}()
	if err := manager.Start(dir); err != nil {
		return err
	}

	modules := manager.Modules()
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			SearchDir string                  `json:"search_dir"`
			Modules   []modfactory.ModuleInfo `json:"modules"`
		}{SearchDir: manager.SearchDir(), Modules: modules})
	}

	return printModuleTable(out, manager.SearchDir(), modules)
}

func printModuleTable(out io.Writer, searchDir string, modules []modfactory.ModuleInfo) error {
	if len(modules) == 0 {
		_, err := color.New(color.FgYellow).Fprintf(out, "No modules found in %s\n", searchDir)
		return err
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	headers := []string{"id", "version", "constructors", "loaded", "file"}
	for i, h := range headers {
		headers[i] = color.New(color.Bold).Sprint(strings.ToUpper(h))
	}
	if _, err := fmt.Fprintln(w, strings.Join(headers, "\t")); err != nil {
		return err
	}

	for _, m := range modules {
		row := []string{
			m.Factory.ID,
			m.Factory.Version,
			fmt.Sprint(len(m.Constructors)),
			m.LoadedAt.Format(time.RFC3339),
			m.Path,
		}
		if _, err := fmt.Fprintln(w, strings.Join(row, "\t")); err != nil {
			return err
		}
	}
	if err := w.Flush(); err != nil {
		return err
	}

	_, err := color.New(color.FgGreen).Fprintf(out, "%d module(s) loaded from %s\n", len(modules), searchDir)
	return err
}
