package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/wetland-gis-tools/internal/adapter/geopackage"
	"github.com/couchcryptid/wetland-gis-tools/internal/attachments"
	"github.com/couchcryptid/wetland-gis-tools/internal/cleanup"
	"github.com/couchcryptid/wetland-gis-tools/internal/domain"
	"github.com/couchcryptid/wetland-gis-tools/internal/gdbexport"
	"github.com/couchcryptid/wetland-gis-tools/internal/mapbatch"
	"github.com/couchcryptid/wetland-gis-tools/internal/pipeline"
	"github.com/couchcryptid/wetland-gis-tools/internal/reference"
	"github.com/couchcryptid/wetland-gis-tools/internal/scaffold"
)

func (a *app) exportAttachmentsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export-attachments <geodatabase.gpkg/table> <output>",
		Short: "Write every file of an attachment table to a folder or bucket URL",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return a.run(ctx, "export-attachments", args, func(ev *domain.RunEvent) (bool, error) {
				path, table, err := attachments.SplitTablePath(args[0])
				if err != nil {
					return false, err
				}
				g, err := geopackage.Open(ctx, path, a.logger)
				if err != nil {
					return false, err
				}
				defer g.Close()

				bucket, err := attachments.OpenBucket(ctx, args[1])
				if err != nil {
					return false, err
				}
				defer bucket.Close()

				n, err := attachments.NewExporter(a.logger).Export(ctx, g, table, bucket)
				ev.Count("written", n)
				return false, err
			})
		},
	}
}

func (a *app) updateMapsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "update-maps <workspace> <date>",
		Short: "Set the Date text of every map document in a folder and export each to PDF",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return a.run(ctx, "update-maps", args, func(ev *domain.RunEvent) (bool, error) {
				report, err := mapbatch.New(a.logger).Run(ctx, args[0], args[1])
				saved, exported, failed := report.Counts()
				ev.Count("saved", saved)
				ev.Count("exported", exported)
				ev.Count("failed", failed)
				return report.Partial(), err
			})
		},
	}
}

func (a *app) newProjectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "new-project <project-dir> <project-name> <county> <Small|Large>",
		Short: "Create a project folder tree, geodatabase and figure map documents",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.scaffold(cmd.Context(), "new-project", args, scaffold.Request{
				Layout: reference.LayoutProject,
				Root:   args[0],
				Name:   args[1],
				County: args[2],
				Size:   args[3],
			})
		},
	}
}

func (a *app) newPersonProjectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "new-person-project <person> <project-name> <county>",
		Short: "Create a small project under a person's folder in PROJECTS_ROOT",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.scaffold(cmd.Context(), "new-person-project", args, scaffold.Request{
				Layout: reference.LayoutPerson,
				Root:   a.cfg.ProjectsRoot,
				Person: args[0],
				Name:   args[1],
				County: args[2],
			})
		},
	}
}

func (a *app) scaffold(ctx context.Context, tool string, args []string, req scaffold.Request) error {
	return a.run(ctx, tool, args, func(ev *domain.RunEvent) (bool, error) {
		res, err := scaffold.New(a.tables, a.cfg.TemplateDir, a.logger).Create(ctx, req)
		if res != nil {
			ev.Count("folders", len(res.Folders))
			ev.Count("documents", len(res.Documents))
		}
		if err != nil {
			return false, err
		}
		fmt.Fprintln(a.out, res.Dir)
		return false, nil
	})
}

func (a *app) deleteUnusedDomainsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete-unused-domains <geodatabase.gpkg>",
		Short: "Delete attribute domains no field or subtype uses",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return a.run(ctx, "delete-unused-domains", args, func(ev *domain.RunEvent) (bool, error) {
				g, err := geopackage.Open(ctx, args[0], a.logger)
				if err != nil {
					return false, err
				}
				defer g.Close()

				report, err := cleanup.New(a.logger).Run(ctx, g)
				ev.Count("deleted", len(report.Deleted))
				ev.Count("dangling", len(report.Dangling))
				ev.Count("skipped", len(report.Skipped))
				return false, err
			})
		},
	}
}

func (a *app) exportGeodatabaseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export-geodatabase <workspace1> <workspace2> <workspace3> <output-dir> <name>",
		Short: "Copy the delivered feature classes into a new geodatabase",
		Args:  cobra.ExactArgs(5),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return a.run(ctx, "export-geodatabase", args, func(ev *domain.RunEvent) (bool, error) {
				report, err := gdbexport.New(a.tables.ExportPlan(), a.logger).Run(ctx, args[:3], args[3], args[4])
				for _, c := range report.Copied {
					ev.Count("feature_classes", 1)
					ev.Count("features", c.Features)
				}
				if err != nil {
					return false, err
				}
				fmt.Fprintln(a.out, report.Output)
				return false, nil
			})
		},
	}
}

func (a *app) appendCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "append <source> <destination.gpkg>",
		Short: "Validate a project's feature classes and append them to the master geodatabase",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return a.run(ctx, "append", args, func(ev *domain.RunEvent) (bool, error) {
				src, err := pipeline.OpenSource(ctx, args[0], a.logger)
				if err != nil {
					return false, err
				}
				defer src.Close()

				dst, err := geopackage.Open(ctx, args[1], a.logger)
				if err != nil {
					return false, err
				}
				defer dst.Close()

				report, err := pipeline.New(dst, a.logger).Run(ctx, src)
				features, byStatus := report.Counts()
				ev.Count("features", features)
				for status, n := range byStatus {
					ev.Count("categories_"+string(status), n)
				}
				return report.Partial(), err
			})
		},
	}
}

func (a *app) validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <source>",
		Short: "Run the pre-append checks and print a report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return a.run(ctx, "validate", args, func(ev *domain.RunEvent) (bool, error) {
				src, err := pipeline.OpenSource(ctx, args[0], a.logger)
				if err != nil {
					return false, err
				}
				defer src.Close()

				var v pipeline.Validator
				inv, err := v.Validate(ctx, src)
				printValidation(a.out, args[0], inv, v.Checks)
				if inv != nil {
					ev.Count("feature_classes", len(inv.Layers))
				}
				return false, err
			})
		},
	}
}
