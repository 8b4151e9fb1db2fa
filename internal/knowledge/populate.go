package knowledge

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"
)

// Seed file names recognized inside a seed directory. Each holds a JSON
// array of the corresponding record type.
const (
	seedPrograms     = "programs.json"
	seedAdmissions   = "admissions.json"
	seedCourses      = "courses.json"
	seedDeadlines    = "deadlines.json"
	seedResources    = "resources.json"
	seedFAQs         = "faqs.json"
	seedClubs        = "clubs.json"
	seedScholarships = "scholarships.json"
)

// Populate loads every recognized seed file from dir into the store and
// rebuilds the index. Files are parsed and inserted concurrently; unknown
// files are ignored so the directory can carry documentation.
func (s *Service) Populate(ctx context.Context, dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to read seed directory: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		path := filepath.Join(dir, name)

		switch name {
		case seedPrograms:
			g.Go(func() error { return loadSeed(gctx, path, s.store.UpsertProgram) })
		case seedAdmissions:
			g.Go(func() error { return loadSeed(gctx, path, s.store.UpsertAdmissionRequirement) })
		case seedCourses:
			g.Go(func() error { return loadSeed(gctx, path, s.store.UpsertCourse) })
		case seedDeadlines:
			g.Go(func() error { return loadSeed(gctx, path, s.store.UpsertDeadline) })
		case seedResources:
			g.Go(func() error { return loadSeed(gctx, path, s.store.UpsertResource) })
		case seedFAQs:
			g.Go(func() error { return loadSeed(gctx, path, s.store.UpsertFAQ) })
		case seedClubs:
			g.Go(func() error { return loadSeed(gctx, path, s.store.UpsertClub) })
		case seedScholarships:
			g.Go(func() error { return loadSeed(gctx, path, s.store.UpsertScholarship) })
		}
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if err := s.Reindex(ctx); err != nil {
		return err
	}

	stats, err := s.Stats(ctx)
	if err != nil {
		return err
	}
	total := 0
	for _, n := range stats {
		total += n
	}
	log.Printf("knowledge base populated from %s: %d records", dir, total)
	return nil
}

// loadSeed parses one JSON seed file and inserts every record with upsert.
func loadSeed[T any](ctx context.Context, path string, upsert func(context.Context, T) error) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	var records []T
	if err := json.Unmarshal(data, &records); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	for _, record := range records {
		if err := upsert(ctx, record); err != nil {
			return fmt.Errorf("%s: %w", filepath.Base(path), err)
		}
	}
	return nil
}
