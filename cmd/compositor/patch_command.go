package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ivlev/compositor/internal/document"
	"github.com/ivlev/compositor/internal/patch"
	"github.com/ivlev/compositor/internal/project"
)

func newPatchCommand(ctx *commandContext) *cobra.Command {
	var output string
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "patch <project> <patch-file>",
		Short: "Apply a JSON Patch (RFC 6902) to a project and save it",
		Long: "Apply a JSON Patch (RFC 6902) document, written in JSON or YAML, to a project.\n" +
			"The patch is all or nothing: if any operation fails the project file is left unchanged.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, patchPath := args[0], args[1]

			ops, err := patch.ReadFile(patchPath)
			if err != nil {
				return err
			}
			p, err := document.Load(path, project.WithLogger(ctx.log()), project.WithDeferredLoad())
			if err != nil {
				return err
			}
			defer p.Close()

			before, err := document.Fingerprint(document.FromProject(p))
			if err != nil {
				return err
			}
			if err := patch.Apply(p, ops); err != nil {
				return fmt.Errorf("patch %s: %w", path, err)
			}
			doc := document.FromProject(p)
			after, err := document.Fingerprint(doc)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if before == after {
				fmt.Fprintln(out, "Patch applied; project unchanged")
				return nil
			}
			if dryRun {
				data, err := document.Encode(doc, document.FormatFromPath(path))
				if err != nil {
					return err
				}
				_, err = out.Write(data)
				return err
			}

			target := strings.TrimSpace(output)
			if target == "" {
				target = path
			}
			if err := document.SaveFile(doc, target); err != nil {
				return err
			}
			ctx.log().Info("project patched", "path", target, "operations", len(ops), "fingerprint", after)
			fmt.Fprintf(out, "Applied %d operations to %s\n", len(ops), target)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Write the patched project here instead of in place")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the patched project instead of saving it")
	return cmd
}
