// Command gensample writes the sample project data used to try the tools by
// hand: zone templates, a master and a project geodatabase, the same project
// as shapefiles, a domain cleanup fixture, the three export workspaces and a
// folder of figure map documents.
//
// Usage:
//
//	go run ./cmd/gensample -out data/sample
//	TEMPLATE_DIR=data/sample/templates wetgis append data/sample/shapefiles data/sample/master.gpkg
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/couchcryptid/wetland-gis-tools/internal/reference"
	"github.com/couchcryptid/wetland-gis-tools/internal/sample"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", "", "directory to write the sample set into (created if missing)")
	refFile := flag.String("reference", "", "reference tables YAML (defaults to the embedded tables)")
	verbose := flag.Bool("v", false, "log each part as it is written")
	flag.Parse()

	if *out == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -out")
	}
	if err := os.MkdirAll(*out, 0o755); err != nil {
		return err
	}
	entries, err := os.ReadDir(*out)
	if err != nil {
		return err
	}
	if len(entries) > 0 {
		return fmt.Errorf("%s is not empty", *out)
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	tables, err := reference.Load(*refFile)
	if err != nil {
		return fmt.Errorf("load reference tables: %w", err)
	}

	paths, err := sample.Build(context.Background(), *out, tables, logger)
	if err != nil {
		return err
	}

	log.Printf("templates:   %s", paths.Templates)
	log.Printf("master:      %s", paths.Master)
	log.Printf("project:     %s (attachments in %s)", paths.Project, sample.AttachName)
	log.Printf("shapefiles:  %s", paths.Shapefiles)
	log.Printf("domains:     %s", paths.Domains)
	for i, p := range paths.Export {
		log.Printf("export %d:    %s", i+1, p)
	}
	log.Printf("maps:        %s", paths.Maps)
	return nil
}
