package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/banshee-data/roughness.report/internal/analysis"
	"github.com/banshee-data/roughness.report/internal/config"
	"github.com/banshee-data/roughness.report/internal/db"
	"github.com/banshee-data/roughness.report/internal/report"
	"github.com/banshee-data/roughness.report/internal/scanfile"
	"github.com/banshee-data/roughness.report/internal/units"
	"github.com/banshee-data/roughness.report/internal/version"
)

var (
	dbPath        = flag.String("db", "roughness.db", "Path to the results database")
	listen        = flag.String("listen", "", "Serve HTTP on this address after analysing (empty = exit when done)")
	configPath    = flag.String("config", "", "Path to a JSON run config (flags override its values)")
	dxOverride    = flag.Float64("dx", 0, "Override the x step size in um (0 = use the scan file's value)")
	dyOverride    = flag.Float64("dy", 0, "Override the y step size in um (0 = use the scan file's value)")
	metricUnits   = flag.String("units", "", "Units for logged metric values: um, nm or mm (default um)")
	plotsDir      = flag.String("plots", "", "Write profile PNGs for each scan under this directory")
	migrationsDir = flag.String("migrations", "migrations", "Path to the schema migrations directory")
	showVersion   = flag.Bool("version", false, "Print version information and exit")
)

// runOptions is the merged view of the config file and the flags that
// override it.
type runOptions struct {
	dx, dy   float64
	units    string
	plotsDir string
}

func mergeOptions() (runOptions, error) {
	opts := runOptions{units: units.UM}
	if *configPath != "" {
		cfg, err := config.Load(*configPath)
		if err != nil {
			return opts, err
		}
		if cfg.DxUM != nil {
			opts.dx = *cfg.DxUM
		}
		if cfg.DyUM != nil {
			opts.dy = *cfg.DyUM
		}
		if cfg.Units != nil {
			opts.units = *cfg.Units
		}
		if cfg.PlotsDir != nil {
			opts.plotsDir = *cfg.PlotsDir
		}
	}
	if *dxOverride > 0 {
		opts.dx = *dxOverride
	}
	if *dyOverride > 0 {
		opts.dy = *dyOverride
	}
	if *metricUnits != "" {
		if !units.IsValid(*metricUnits) {
			return opts, fmt.Errorf("invalid -units %q, must be one of %s", *metricUnits, units.GetValidUnitsString())
		}
		opts.units = *metricUnits
	}
	if *plotsDir != "" {
		opts.plotsDir = *plotsDir
	}
	return opts, nil
}

func main() {
	flag.Parse()
	args := flag.Args()

	if *showVersion {
		fmt.Printf("roughness-report %s (%s, built %s)\n", version.Version, version.GitSHA, version.BuildTime)
		return
	}

	opts, err := mergeOptions()
	if err != nil {
		log.Fatalf("Invalid options: %v", err)
	}

	database, err := db.NewDB(*dbPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer database.Close()

	if len(args) > 0 && args[0] == "migrate" {
		if err := runMigrate(database, args[1:]); err != nil {
			log.Fatalf("Migration failed: %v", err)
		}
		return
	}

	if len(args) == 0 && *listen == "" {
		fmt.Fprintln(os.Stderr, "usage: roughness-report [flags] scan.txt...")
		fmt.Fprintln(os.Stderr, "       roughness-report [flags] migrate {up|down|version}")
		flag.PrintDefaults()
		os.Exit(2)
	}

	server := NewServer(database)
	for _, path := range args {
		if err := analyseFile(database, server, path, opts); err != nil {
			log.Fatalf("Failed to analyse %s: %v", path, err)
		}
	}

	if *listen == "" {
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	httpServer := &http.Server{
		Addr:    *listen,
		Handler: server.ServeMux(),
	}
	go func() {
		log.Printf("HTTP server listening on %s", *listen)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("shutting down HTTP server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}
	log.Printf("Graceful shutdown complete")
}

// analyseFile runs the full pipeline for one scan export: parse, detrend,
// compute metrics, persist, and register the run with the HTTP server.
func analyseFile(database *db.DB, server *Server, path string, opts runOptions) error {
	scan, err := scanfile.Load(path)
	if err != nil {
		return err
	}
	if opts.dx > 0 {
		scan.Incs[0] = opts.dx
	}
	if opts.dy > 0 {
		scan.Incs[1] = opts.dy
	}

	start := analysis.Clock.Now()
	res, detrended, err := analysis.AnalyzeDetrended(scan)
	if err != nil {
		return err
	}

	h := func(um float64) float64 { return units.ConvertHeight(um, opts.units) }
	log.Printf("%s: %dx%d points @ %gx%g %s, analysed in %s",
		res.Filename, res.Nx, res.Ny, res.Dx, res.Dy, units.UM, analysis.Clock.Since(start))
	log.Printf("%s: plane tilt a=%.6g b=%.6g c=%.6g", res.Filename, res.PlaneA, res.PlaneB, res.PlaneC)
	if res.DegenerateMoments {
		log.Printf("%s: Sa=%.6g Sq=%.6g Sz=%.6g Sp=%.6g Sv=%.6g %s (flat surface, Ssk/Sku undefined)",
			res.Filename, h(res.Sa), h(res.Sq), h(res.Sz), h(res.Sp), h(res.Sv), opts.units)
	} else {
		log.Printf("%s: Sa=%.6g Sq=%.6g Sz=%.6g Sp=%.6g Sv=%.6g %s Ssk=%.6g Sku=%.6g",
			res.Filename, h(res.Sa), h(res.Sq), h(res.Sz), h(res.Sp), h(res.Sv), opts.units, res.Ssk, res.Sku)
	}

	if err := database.RecordRun(res); err != nil {
		return err
	}
	server.AddRun(res, detrended, scan.Steps())

	if opts.plotsDir != "" {
		paths, err := report.SaveProfilePlots(opts.plotsDir, detrended, scan.Steps())
		if err != nil {
			return err
		}
		for _, p := range paths {
			log.Printf("%s: wrote %s", res.Filename, p)
		}
	}
	return nil
}

// runMigrate handles the migrate subcommand: up, down, or version.
func runMigrate(database *db.DB, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: migrate {up|down|version}")
	}
	switch args[0] {
	case "up":
		if err := database.MigrateUp(*migrationsDir); err != nil {
			return err
		}
		log.Print("migrations applied")
	case "down":
		if err := database.MigrateDown(*migrationsDir); err != nil {
			return err
		}
		log.Print("rolled back one migration")
	case "version":
		v, dirty, err := database.MigrateVersion(*migrationsDir)
		if err != nil {
			return err
		}
		log.Printf("schema version %d (dirty=%v)", v, dirty)
	default:
		return fmt.Errorf("unknown migrate command %q", args[0])
	}
	return nil
}
