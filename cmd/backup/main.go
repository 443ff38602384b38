package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"familybudget/internal/config"
	"familybudget/internal/database"
	"familybudget/internal/logger"
	"familybudget/internal/repository"
	"familybudget/internal/service"
)

func main() {
	// Define subcommands
	exportCmd := flag.NewFlagSet("export", flag.ExitOnError)
	importCmd := flag.NewFlagSet("import", flag.ExitOnError)

	// Export flags
	exportOutput := exportCmd.String("output", "", "Output file path (default: backup_YYYYMMDD_HHMMSS.json)")

	// Import flags
	importInput := importCmd.String("input", "", "Input file path (required)")
	importClear := importCmd.Bool("clear", false, "Clear existing data before import (WARNING: destructive)")

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	log, err := logger.New("development")
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	// Load configuration
	cfg := config.Load()
	ctx := context.Background()

	backend, err := repository.OpenBackend(cfg)
	if err != nil {
		log.Fatal("Failed to open store", "error", err)
	}
	manager := database.NewManager(backend.Name, backend.Conn, log, database.ManagerOptions{
		MaxRetries:  cfg.StoreMaxRetries,
		MaxInterval: cfg.StoreRetryMaxInterval,
	})
	defer manager.Close()

	// Connect runs migrations so the schema is up to date
	if err := manager.Connect(ctx); err != nil {
		log.Fatal("Failed to connect to store", "error", err)
	}

	backupService := service.NewBackupService(backend.Store, backend.Name, log)

	switch os.Args[1] {
	case "export":
		exportCmd.Parse(os.Args[2:])
		handleExport(ctx, log, backupService, *exportOutput)

	case "import":
		importCmd.Parse(os.Args[2:])
		if *importInput == "" {
			fmt.Println("Error: -input flag is required")
			importCmd.PrintDefaults()
			os.Exit(1)
		}
		handleImport(ctx, log, backupService, *importInput, *importClear)

	default:
		printUsage()
		os.Exit(1)
	}
}

func handleExport(ctx context.Context, log *logger.Logger, backupService *service.BackupService, outputPath string) {
	if outputPath == "" {
		timestamp := time.Now().Format("20060102_150405")
		outputPath = fmt.Sprintf("backup_%s.json", timestamp)
	}

	dir := filepath.Dir(outputPath)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			log.Fatal("Failed to create output directory", "error", err)
		}
	}

	log.Info("Exporting store", "output", outputPath)
	if err := backupService.Export(ctx, outputPath); err != nil {
		log.Fatal("Export failed", "error", err)
	}

	if fileInfo, err := os.Stat(outputPath); err == nil {
		log.Info("Export complete", "sizeMB", fmt.Sprintf("%.2f", float64(fileInfo.Size())/1024/1024))
	}
}

func handleImport(ctx context.Context, log *logger.Logger, backupService *service.BackupService, inputPath string, clearData bool) {
	if _, err := os.Stat(inputPath); os.IsNotExist(err) {
		log.Fatal("Input file does not exist", "input", inputPath)
	}

	if clearData {
		fmt.Print("WARNING: This will delete all existing families. Type 'yes' to confirm: ")
		var confirmation string
		fmt.Scanln(&confirmation)
		if confirmation != "yes" {
			log.Info("Import cancelled")
			return
		}

		removed, err := backupService.Clear(ctx)
		if err != nil {
			log.Fatal("Failed to clear store", "error", err)
		}
		log.Info("Cleared existing families", "count", removed)
	}

	log.Info("Importing store", "input", inputPath)
	report, err := backupService.Import(ctx, inputPath)
	if err != nil {
		log.Fatal("Import failed", "error", err)
	}

	log.Info("Import complete", "imported", report.Imported, "skipped", report.Skipped)
}

func printUsage() {
	fmt.Println("Family Budget Backup Tool")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  backup export [options]    Export all families to a JSON file")
	fmt.Println("  backup import [options]    Import families from a JSON file")
	fmt.Println()
	fmt.Println("Export Options:")
	fmt.Println("  -output <file>    Output file path (default: backup_YYYYMMDD_HHMMSS.json)")
	fmt.Println()
	fmt.Println("Import Options:")
	fmt.Println("  -input <file>     Input file path (required)")
	fmt.Println("  -clear            Delete every family before import (WARNING: destructive)")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  backup export -output mybackup.json")
	fmt.Println("  backup import -input backup.json")
	fmt.Println("  backup import -input backup.json -clear")
	fmt.Println()
	fmt.Println("Environment Variables:")
	fmt.Println("  STORE_BACKEND    sqlite, postgres, mysql, redis or memory (default: sqlite)")
	fmt.Println("  DB_PATH          SQLite database path (default: ./familybudget.db)")
	fmt.Println("  DATABASE_URL     PostgreSQL or MySQL connection URL")
	fmt.Println("  REDIS_ADDR       Redis address (default: localhost:6379)")
}
