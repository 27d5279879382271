// Command regenerate builds the dashboard artifact once from the source
// files and writes it as JSON, plus an optional XLSX report.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/jengzang/sankhya-backend-go/internal/analysis"
	"github.com/jengzang/sankhya-backend-go/internal/config"
	"github.com/jengzang/sankhya-backend-go/internal/database"
	"github.com/jengzang/sankhya-backend-go/internal/dataset"
	"github.com/jengzang/sankhya-backend-go/internal/models"
	"github.com/jengzang/sankhya-backend-go/internal/repository"
	"github.com/jengzang/sankhya-backend-go/internal/service"
	"github.com/jengzang/sankhya-backend-go/internal/snapshot"
)

func main() {
	cfg := config.Load()

	dataDir := flag.String("data", cfg.DataDir, "Directory holding the source CSV files")
	outPath := flag.String("out", cfg.ArtifactPath, "Path of the JSON artifact")
	xlsxPath := flag.String("xlsx", cfg.ExportPath, "Optional path of the XLSX report")
	record := flag.Bool("record", false, "Record the run in the database at DB_PATH")
	top := flag.Int("top", 10, "Number of stressed districts to print")
	flag.Parse()

	sources := cfg.Sources
	if *dataDir != cfg.DataDir {
		sources = dataset.SourcesFromDir(*dataDir)
	}
	cfg.ArtifactPath = *outPath
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	var repo *repository.RunRepository
	if *record {
		if err := database.Init(database.Config{Path: cfg.DBPath}); err != nil {
			log.Fatal("Failed to initialize database:", err)
		}
		defer database.Close()
		repo = repository.NewRunRepository(database.GetDB())
	}

	store := snapshot.NewStore()
	regen := service.NewRegenerationService(service.RegenerationOptions{
		Sources:      sources,
		ArtifactPath: *outPath,
		ExportPath:   *xlsxPath,
		Timeout:      cfg.RegenerateTimeout,
	}, analysis.NewEngine(cfg.Engine), repo, store)

	run, err := regen.Regenerate(context.Background(), models.TriggerCLI)
	if err != nil {
		log.Printf("Regeneration failed: %v", err)
		os.Exit(1)
	}

	dashboard := service.NewDashboardService(store, cfg.Engine.Weights, 0)
	printReport(run, dashboard, *outPath, *xlsxPath, *top)
}

func printReport(run *models.RegenerationRun, dashboard *service.DashboardService, outPath, xlsxPath string, top int) {
	national, err := dashboard.GetSummary(models.NationalKey)
	if err != nil {
		log.Fatal("Failed to read summary:", err)
	}

	fmt.Printf("Run %s\n", run.ID)
	fmt.Printf("  input digest:   %s\n", run.InputDigest)
	fmt.Printf("  districts:      %d (%d critical, %d medium, %d low)\n",
		national.Districts, national.CriticalDistricts, national.MediumDistricts, national.LowDistricts)
	fmt.Printf("  mean DSI:       %.2f\n", national.MeanDSI)
	fmt.Printf("  centers:        %d (%d dead), asset efficiency %.1f%%\n",
		national.Centers, national.DeadCenters, national.AssetEfficiency)
	fmt.Printf("  special zones:  %d blue, %d digital exclusion\n", national.BlueZones, national.DigitalExclusionZones)
	fmt.Printf("  warnings:       %d\n", run.WarningCount)
	fmt.Printf("  artifact:       %s\n", outPath)
	if xlsxPath != "" {
		fmt.Printf("  report:         %s\n", xlsxPath)
	}

	stressed, err := dashboard.ListStressedDistricts(top, string(models.TierMedium))
	if err != nil {
		log.Fatal("Failed to rank districts:", err)
	}
	if len(stressed) == 0 {
		return
	}
	fmt.Println("\nMost stressed districts:")
	for _, d := range stressed {
		fmt.Printf("  %2d. %-28s %5.2f %s\n", d.Rank, d.State+" / "+d.District, d.DSI.Score, d.DSI.Tier)
	}
}
