// Package importer bulk-loads historic workouts from a Health Auto Export
// AutoSync directory.
package importer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/claude/workoutkit/internal/ingest"
	"github.com/claude/workoutkit/internal/ingest/hae"
	"github.com/claude/workoutkit/internal/models"
	"github.com/claude/workoutkit/internal/platform"
	"github.com/google/uuid"
)

// DefaultOrigin is the data origin stamped on imported workouts.
const DefaultOrigin = "Apple Health"

// Stats tracks import progress.
type Stats struct {
	FilesProcessed int
	FilesErrored   int

	ingest.Result
}

// Decompressor returns the JSON content of one .hae file.
type Decompressor func(ctx context.Context, path string) ([]byte, error)

// Importer reads workout .hae files and inserts them as records.
type Importer struct {
	db         ingest.Writer
	log        *slog.Logger
	dryRun     bool
	origin     string
	decompress Decompressor
	stats      Stats
}

// Option configures an Importer.
type Option func(*Importer)

// WithOrigin overrides DefaultOrigin.
func WithOrigin(origin string) Option {
	return func(imp *Importer) {
		if origin != "" {
			imp.origin = origin
		}
	}
}

// WithDecompressor replaces the lzfse CLI.
func WithDecompressor(d Decompressor) Option {
	return func(imp *Importer) { imp.decompress = d }
}

// New creates a new Importer.
func New(db ingest.Writer, log *slog.Logger, dryRun bool, opts ...Option) *Importer {
	imp := &Importer{db: db, log: log, dryRun: dryRun, origin: DefaultOrigin, decompress: DecompressLZFSE}
	for _, o := range opts {
		o(imp)
	}
	return imp
}

// Import processes every .hae file under autoSyncDir/Workouts. Files that
// cannot be read or parsed are counted and skipped; storage errors abort.
func (imp *Importer) Import(ctx context.Context, autoSyncDir string) (*Stats, error) {
	workoutDir := filepath.Join(autoSyncDir, "Workouts")
	if info, err := os.Stat(workoutDir); err != nil || !info.IsDir() {
		return &imp.stats, fmt.Errorf("no Workouts directory under %s", autoSyncDir)
	}

	files, err := filepath.Glob(filepath.Join(workoutDir, "*.hae"))
	if err != nil {
		return &imp.stats, err
	}
	sort.Strings(files)

	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return &imp.stats, err
		}
		if err := imp.importFile(ctx, f); err != nil {
			return &imp.stats, err
		}
	}

	if len(imp.stats.UnknownTypes) > 0 {
		imp.stats.Message = fmt.Sprintf("Unrecognized workout names were stored as Other: %v", imp.stats.UnknownTypes)
	}
	return &imp.stats, nil
}

func (imp *Importer) importFile(ctx context.Context, path string) error {
	data, err := imp.decompress(ctx, path)
	if err != nil {
		imp.log.Warn("decompress failed", "file", path, "error", err)
		imp.stats.FilesErrored++
		return nil
	}

	var fw models.HAEFileWorkout
	if err := json.Unmarshal(data, &fw); err != nil {
		imp.log.Warn("parse failed", "file", path, "error", err)
		imp.stats.FilesErrored++
		return nil
	}
	if fw.ID == "" {
		id, err := ParseWorkoutUUID(filepath.Base(path))
		if err != nil {
			imp.log.Warn("workout has no id", "file", path, "error", err)
			imp.stats.FilesErrored++
			return nil
		}
		fw.ID = id
	}

	imp.stats.FilesProcessed++
	imp.stats.WorkoutsReceived++

	rec, err := hae.ConvertWorkout(fw.ToHAEWorkout(), imp.origin)
	if err != nil {
		imp.log.Warn("skipping workout", "file", path, "error", err)
		imp.stats.WorkoutsRejected++
		return nil
	}
	if _, known := platform.FromHealthKit(fw.Name); !known {
		imp.stats.NoteUnknownType(fw.Name)
	}

	if imp.dryRun {
		imp.stats.WorkoutsInserted++
		return nil
	}
	if err := imp.stats.Store(ctx, imp.db, rec); err != nil {
		return fmt.Errorf("inserting workout %s: %w", rec.ID, err)
	}
	return nil
}

// ParseWorkoutUUID extracts the UUID from a workout filename like
// "cycling_20251219_585BDA5C-5A64-4D5A-A432-6BCA6C7BCDBE.hae".
// The type portion may itself contain underscores, so the UUID is taken as
// the last 36 characters.
func ParseWorkoutUUID(filename string) (string, error) {
	base := strings.TrimSuffix(filename, ".hae")
	if len(strings.Split(base, "_")) < 3 {
		return "", fmt.Errorf("unexpected workout filename format: %s", filename)
	}
	if len(base) < 36 {
		return "", fmt.Errorf("filename too short to contain UUID: %s", filename)
	}
	uuidStr := base[len(base)-36:]
	if _, err := uuid.Parse(uuidStr); err != nil {
		return "", fmt.Errorf("invalid UUID in filename %s: %w", filename, err)
	}
	return uuidStr, nil
}
