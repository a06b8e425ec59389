// Command plantrip splits a road trip into daily EV legs from the terminal.
//
//	plantrip -from "Bogotá" -to "Cartagena" -km 200 -buffer 0.3 -kml trip.kml
package main

import (
	"context"
	"ev-route-planner/internal/adapters/cache"
	"ev-route-planner/internal/adapters/ocm"
	"ev-route-planner/internal/adapters/ors"
	"ev-route-planner/internal/config"
	"ev-route-planner/internal/domain"
	"ev-route-planner/internal/export"
	"ev-route-planner/internal/platform/logging"
	"ev-route-planner/internal/services"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	from := flag.String("from", "", "origin place name")
	to := flag.String("to", "", "destination place name")
	km := flag.Float64("km", cfg.Planner.DefaultMaxDailyKm, "maximum driving distance per day in km")
	buffer := flag.Float64("buffer", 0, "fraction a leg may exceed the daily limit (0 picks one from -km)")
	policy := flag.String("policy", cfg.Planner.Policy, "stop acceptance policy: first-fit or closest")
	kmlPath := flag.String("kml", "", "write the itinerary as KML to this file")
	verbose := flag.Bool("v", false, "log debug output to stderr")
	flag.Parse()

	level := "warn"
	if *verbose {
		level = "debug"
	}
	logger, err := logging.New(level, true)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger)

	if err := run(cfg, *from, *to, *km, *buffer, *policy, *kmlPath, logger); err != nil {
		fmt.Fprintln(os.Stderr, "plantrip:", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, from, to string, km, buffer float64, policyName, kmlPath string, logger *zap.Logger) error {
	if from == "" || to == "" {
		flag.Usage()
		return fmt.Errorf("%w: -from and -to are required", domain.ErrInvalidTripRequest)
	}

	orsClient, err := ors.NewClient(ors.Options{
		APIKey:     cfg.ORS.APIKey,
		BaseURL:    cfg.ORS.BaseURL,
		Profile:    cfg.ORS.Profile,
		Country:    cfg.ORS.Country,
		SearchSize: cfg.ORS.SearchSize,
		Timeout:    cfg.ORS.Timeout,
	})
	if err != nil {
		return err
	}
	chargers := ocm.NewClient(ocm.Options{
		APIKey:     cfg.OCM.APIKey,
		BaseURL:    cfg.OCM.BaseURL,
		MaxResults: cfg.OCM.MaxResults,
		Timeout:    cfg.OCM.Timeout,
		Logger:     logger,
	})

	// Stage search reverse-geocodes and routes the same points repeatedly.
	store := cache.NewMemoryStore()

	policy, err := services.ParseAcceptancePolicy(policyName)
	if err != nil {
		return err
	}

	planner := services.NewTripPlanner(
		cache.NewCachingGeocoder(orsClient, store, cfg.Cache.TTL, logger),
		cache.NewCachingDirections(orsClient, store, cfg.Cache.TTL, logger),
		cache.NewCachingChargers(chargers, store, cfg.Cache.TTL, logger),
		services.PlannerConfig{
			Country:         cfg.ORS.Country,
			ChargerRadiusKm: cfg.OCM.RadiusKm,
			MaxStages:       cfg.Planner.MaxStages,
			Policy:          policy,
		},
		logger,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	req := services.TripRequest{
		Origin:         from,
		Destination:    to,
		MaxDailyMeters: km * 1000,
		BufferFraction: services.EffectiveBuffer(km, buffer*100),
	}
	result, err := planner.PlanTrip(ctx, req, newPromptSelector(os.Stdin, os.Stdout))
	if err != nil {
		return err
	}

	trip := result.Trip(uuid.NewString(), time.Now().UTC())
	printTrip(os.Stdout, trip)

	if kmlPath != "" {
		if err := writeKMLFile(kmlPath, trip); err != nil {
			return err
		}
		fmt.Printf("\nKML written to %s\n", kmlPath)
	}
	return nil
}

func printTrip(w io.Writer, trip *domain.Trip) {
	fmt.Fprintf(w, "%s -> %s (max %.0f km/day, buffer %.0f%%)\n\n",
		trip.Origin.Name, trip.Destination.Name, trip.MaxDailyMeters/1000, trip.BufferFraction*100)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "DAY\tFROM\tTO\tKM\tCHARGING")
	var total float64
	for _, s := range trip.Stages {
		total += s.DistanceMeters
		fmt.Fprintf(tw, "%d\t%s\t%s\t%.1f\t%s\n", s.Day, s.From, s.To, s.DistanceMeters/1000, s.Charging)
	}
	_ = tw.Flush()

	fmt.Fprintf(w, "\nTotal: %.1f km in %d day(s). Status: %s\n", total/1000, len(trip.Stages), trip.Status)
	if trip.Message != "" {
		fmt.Fprintf(w, "Stopped: %s\n", trip.Message)
	}
	for _, warn := range trip.Warnings {
		fmt.Fprintf(w, "Warning: %s\n", warn)
	}
	fmt.Fprintf(w, "Map: %s\n", export.GoogleMapsURL(trip.Origin.Point, trip.Stages))
}

func writeKMLFile(path string, trip *domain.Trip) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := export.WriteKML(f, trip); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
