// Command seed loads blog posts, case studies and events from a YAML
// fixture file into the configured database.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"

	"lumenai/internal/config"
	"lumenai/internal/database"
	"lumenai/internal/services"
	apperrors "lumenai/pkg/errors"
)

// fixtures mirrors the seed file layout. Entries use the same field names as
// the admin API bodies.
type fixtures struct {
	Blogs       []map[string]any `yaml:"blogs"`
	CaseStudies []map[string]any `yaml:"caseStudies"`
	Events      []map[string]any `yaml:"events"`
}

type counts struct {
	Blogs, CaseStudies, Events int
}

type createFunc func(ctx context.Context, fields map[string]json.RawMessage) error

var fixturePath string

var rootCmd = &cobra.Command{
	Use:           "seed",
	Short:         "Load blog posts, case studies and events from a YAML file",
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd.Context(), fixturePath)
	},
}

func init() {
	rootCmd.Flags().StringVarP(&fixturePath, "file", "f", "seed.yaml", "YAML fixture file")
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "seed: %v\n", describe(err))
		os.Exit(1)
	}
}

// describe appends field details to validation failures.
func describe(err error) string {
	if !apperrors.IsValidation(err) {
		return err.Error()
	}
	appErr, _ := apperrors.As(err)
	parts := make([]string, 0, len(appErr.Details))
	for _, d := range appErr.Details {
		parts = append(parts, d.Field+": "+d.Message)
	}
	return err.Error() + " (" + strings.Join(parts, "; ") + ")"
}

func run(ctx context.Context, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := database.Init(&cfg.Database); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer database.Close()
	db, err := database.GetDB()
	if err != nil {
		return err
	}

	n, err := load(ctx, db, f)
	if err != nil {
		return err
	}
	fmt.Printf("Seeded %d blogs, %d case studies, %d events\n", n.Blogs, n.CaseStudies, n.Events)
	return nil
}

// load decodes the fixture stream and creates every entry through the
// content services so slugs and validation apply as they do over HTTP.
func load(ctx context.Context, db *gorm.DB, r io.Reader) (counts, error) {
	var fx fixtures
	if err := yaml.NewDecoder(r).Decode(&fx); err != nil && err != io.EOF {
		return counts{}, fmt.Errorf("failed to parse fixtures: %w", err)
	}

	blogs := services.NewBlogService(db)
	caseStudies := services.NewCaseStudyService(db)
	events := services.NewEventService(db)

	var n counts
	var err error
	if n.Blogs, err = insert(ctx, "blog", fx.Blogs, createFunc(func(ctx context.Context, f map[string]json.RawMessage) error {
		_, err := blogs.Create(ctx, f)
		return err
	})); err != nil {
		return n, err
	}
	if n.CaseStudies, err = insert(ctx, "case study", fx.CaseStudies, createFunc(func(ctx context.Context, f map[string]json.RawMessage) error {
		_, err := caseStudies.Create(ctx, f)
		return err
	})); err != nil {
		return n, err
	}
	if n.Events, err = insert(ctx, "event", fx.Events, createFunc(func(ctx context.Context, f map[string]json.RawMessage) error {
		_, err := events.Create(ctx, f)
		return err
	})); err != nil {
		return n, err
	}
	return n, nil
}

func insert(ctx context.Context, kind string, entries []map[string]any, create createFunc) (int, error) {
	for i, entry := range entries {
		fields, err := rawFields(entry)
		if err != nil {
			return i, fmt.Errorf("%s #%d: %w", kind, i+1, err)
		}
		if err := create(ctx, fields); err != nil {
			return i, fmt.Errorf("%s #%d: %w", kind, i+1, err)
		}
	}
	return len(entries), nil
}

// rawFields re-encodes a decoded YAML mapping as JSON values. Unquoted YAML
// timestamps decode as time.Time and marshal back to RFC 3339.
func rawFields(entry map[string]any) (map[string]json.RawMessage, error) {
	fields := make(map[string]json.RawMessage, len(entry))
	for k, v := range entry {
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", k, err)
		}
		fields[k] = raw
	}
	return fields, nil
}
