package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/avolkov/keepsake/internal/config"
	"github.com/avolkov/keepsake/internal/database"
	"github.com/avolkov/keepsake/internal/database/posts"
	"github.com/avolkov/keepsake/internal/entities"
	"github.com/avolkov/keepsake/internal/importers"
)

// ImportCommand handles importing a social media archive file from the
// command line.
type ImportCommand struct {
	Source       string
	ArchivePath  string
	DatabasePath string
	OwnerHandle  string
	OwnerDID     string
	Verbose      bool
	DryRun       bool
}

func NewImportCommand() *ImportCommand {
	return &ImportCommand{}
}

func (cmd *ImportCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("import", flag.ExitOnError)

	fs.StringVar(&cmd.Source, "source", "", "Archive source type: bluesky, mastodon, twitter or twitter-csv (required)")
	fs.StringVar(&cmd.ArchivePath, "file", "", "Path to the archive file (required)")
	fs.StringVar(&cmd.DatabasePath, "db", config.DefaultDatabasePath, "Path to the local database file")
	fs.StringVar(&cmd.OwnerHandle, "handle", "", "Handle of the account the archive belongs to")
	fs.StringVar(&cmd.OwnerDID, "did", "", "DID of the account (bluesky repositories only)")
	fs.BoolVar(&cmd.Verbose, "verbose", false, "Enable verbose logging")
	fs.BoolVar(&cmd.DryRun, "dry-run", false, "Parse and normalize without writing to the database")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s import -source <type> -file <path> [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Import a social media export archive into the local database.\n\n")
		fmt.Fprintf(os.Stderr, "Supported archives:\n")
		fmt.Fprintf(os.Stderr, "  bluesky      repository export (.car)\n")
		fmt.Fprintf(os.Stderr, "  mastodon     ActivityPub outbox.json\n")
		fmt.Fprintf(os.Stderr, "  twitter      official archive tweets.js\n")
		fmt.Fprintf(os.Stderr, "  twitter-csv  third-party backup CSV\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  # Import a twitter archive:\n")
		fmt.Fprintf(os.Stderr, "  %s import -source twitter -file tweets.js -handle alice\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  # Preview a mastodon export without writing:\n")
		fmt.Fprintf(os.Stderr, "  %s import -source mastodon -file outbox.json -dry-run -verbose\n", os.Args[0])
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if cmd.Source == "" {
		return fmt.Errorf("required flag -source not provided")
	}
	if cmd.ArchivePath == "" {
		return fmt.Errorf("required flag -file not provided")
	}

	return nil
}

func (cmd *ImportCommand) Run() error {
	fmt.Println("Archive Import")
	fmt.Println("==============")

	if cmd.DryRun {
		fmt.Println("DRY RUN MODE - No changes will be made")
		fmt.Println()
	}

	source, err := entities.ParseSourceType(cmd.Source)
	if err != nil {
		return err
	}

	if _, err := os.Stat(cmd.ArchivePath); os.IsNotExist(err) {
		return fmt.Errorf("archive file not found: %s", cmd.ArchivePath)
	}

	fmt.Printf("File: %s\n", cmd.ArchivePath)
	fmt.Printf("Source: %s\n", source)

	raw, err := os.ReadFile(cmd.ArchivePath)
	if err != nil {
		return fmt.Errorf("failed to read archive: %w", err)
	}

	opts := importers.Options{
		OwnerHandle: cmd.OwnerHandle,
		OwnerDID:    cmd.OwnerDID,
	}
	if cmd.Verbose {
		opts.OnProgress = func(p importers.Progress) {
			fmt.Printf("  [%3d%%] %s\n", p.Percent, p.Message)
		}
	}

	registry := importers.NewRegistry()

	if cmd.DryRun {
		importer := importers.NewImporter(registry, nil)
		result, err := importer.Import(context.Background(), source, raw, opts)
		if err != nil {
			return err
		}
		fmt.Printf("\nWould import %d posts (%d skipped, %d degraded, %d failed)\n",
			result.Accepted, result.Skipped, result.Degraded, result.Failed)
		fmt.Println("\nDry run complete. Use without -dry-run to import.")
		return nil
	}

	absDBPath, err := filepath.Abs(cmd.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to get absolute path for database: %w", err)
	}
	cmd.DatabasePath = absDBPath

	fmt.Printf("\nSaving to database: %s\n", cmd.DatabasePath)

	db, err := database.NewDatabase(cmd.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	repo := posts.NewRepository(db.DB)
	importer := importers.NewImporter(registry, repo)

	startedAt := time.Now().UTC()
	result, importErr := importer.ImportDiff(context.Background(), source, raw, opts)

	run := &entities.ImportRun{
		SourceType: source,
		FileName:   filepath.Base(cmd.ArchivePath),
		Success:    importErr == nil,
		Accepted:   result.Accepted,
		Skipped:    result.Skipped,
		Degraded:   result.Degraded,
		Failed:     result.Failed,
		Message:    result.Message,
		StartedAt:  startedAt,
	}
	if err := repo.SaveImportRun(run); err != nil && cmd.Verbose {
		fmt.Printf("  [WARN] failed to record import run: %v\n", err)
	}

	if importErr != nil {
		return importErr
	}

	fmt.Println("\n=== Import Summary ===")
	fmt.Printf("Posts imported: %d\n", result.Accepted)
	fmt.Printf("Duplicates skipped: %d\n", result.Skipped)
	if result.Degraded > 0 {
		fmt.Printf("Degraded records: %d\n", result.Degraded)
	}
	if result.Failed > 0 {
		fmt.Printf("Failed validation: %d\n", result.Failed)
	}

	fmt.Println("\nImport complete!")
	return nil
}
