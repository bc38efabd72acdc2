package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"wisatamap/internal/cache"
	"wisatamap/internal/debug"
	"wisatamap/internal/engine"
	"wisatamap/internal/geo"
	"wisatamap/internal/geoloc"
	"wisatamap/internal/metrics"
	"wisatamap/internal/routing"
	"wisatamap/internal/ui"

	"github.com/gdamore/tcell/v2"
	"github.com/joho/godotenv"
	"github.com/paulmach/orb"
)

func main() {
	_ = godotenv.Load(".env")

	// Parse command line flags
	help := flag.Bool("h", false, "Show help message")
	backendURL := flag.String("backend", envOr("WISATA_BACKEND", "http://localhost:5000"), "Feature backend base URL")
	routerURL := flag.String("router", os.Getenv("WISATA_ROUTER"), "OSRM base URL (default: straight-line routes)")
	geoipURL := flag.String("geoip", os.Getenv("WISATA_GEOIP"), "IP geolocation URL, e.g. http://ip-api.com/json (default: disabled)")
	originFlag := flag.String("origin", "", "Fixed user location as lat,lon")
	centerFlag := flag.String("center", "-5.4295,105.2610", "Initial map center as lat,lon")
	radiusKm := flag.Float64("r", 8.0, "Map radius in km")
	aspectRatio := flag.Float64("a", 2.0, "Character aspect ratio - adjust for font width (1.0-4.0)")
	cacheDir := flag.String("cache", "", "Cache directory (default: ~/.wisatamap)")
	basemapPath := flag.String("basemap", "", "Basemap shapefile; \"off\" disables (default: Natural Earth download)")
	live := flag.Bool("live", false, "Follow the backend change feed")
	metricsAddr := flag.String("metrics", "", "Serve Prometheus metrics on this address, e.g. :9090")
	suggestLimit := flag.Int("suggest", engine.DefaultSuggestLimit, "Maximum number of search suggestions")
	noFallback := flag.Bool("no-fallback", false, "Fail routing when the location is unknown instead of starting at the map center")
	debugLog := flag.String("d", "", "Debug log file (e.g., debug.log)")
	flag.Parse()

	if *help {
		fmt.Println("wisatamap - Terminal map of tourist attractions")
		fmt.Println("\nUsage: wisatamap [options]")
		fmt.Println("\nOptions:")
		flag.PrintDefaults()
		os.Exit(0)
	}

	// Validate aspect ratio
	if *aspectRatio < 1.0 || *aspectRatio > 4.0 {
		fmt.Fprintf(os.Stderr, "Error: Aspect ratio must be between 1.0 and 4.0\n")
		os.Exit(1)
	}
	if *radiusKm < geo.MinRadiusKm || *radiusKm > geo.MaxRadiusKm {
		fmt.Fprintf(os.Stderr, "Error: Radius must be between %.1f and %.0f km\n", geo.MinRadiusKm, geo.MaxRadiusKm)
		os.Exit(1)
	}
	if *suggestLimit < 1 {
		fmt.Fprintf(os.Stderr, "Error: Suggestion limit must be at least 1\n")
		os.Exit(1)
	}
	center, err := parseLatLon(*centerFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid -center: %v\n", err)
		os.Exit(1)
	}

	var locator geoloc.Locator
	switch {
	case *originFlag != "":
		p, err := parseLatLon(*originFlag)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: invalid -origin: %v\n", err)
			os.Exit(1)
		}
		locator = geoloc.Static{Point: p}
	case *geoipURL != "":
		locator = geoloc.IPLocator{URL: *geoipURL}
	}

	// Set up debug logging if requested
	if *debugLog != "" {
		logFile, err := os.Create(*debugLog)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to create debug log: %v\n", err)
		} else {
			defer logFile.Close()
			debug.Setup(logFile, "debug", "")
			debug.Log("wisatamap debug log started")
			fmt.Printf("Debug logging enabled: %s\n", *debugLog)
		}
	}

	if *metricsAddr != "" {
		go serveMetrics(*metricsAddr)
		fmt.Printf("Serving metrics on %s/metrics\n", *metricsAddr)
	}

	// Initialize cache manager
	fmt.Println("Initializing cache...")
	cacheManager, err := cache.NewManager(*cacheDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to initialize cache: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Loading basemap...")
	basemap, err := loadBasemap(cacheManager, *basemapPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: basemap unavailable: %v\n", err)
	} else if basemap != nil {
		fmt.Printf("Loaded %d basemap lines\n", len(basemap.Lines))
	}

	var router routing.Provider
	if *routerURL != "" {
		router = routing.OSRM{BaseURL: *routerURL}
	}

	projection := geo.NewProjection(center, *radiusKm, 80, 24, *aspectRatio)
	e := engine.New(engine.Options{
		BackendURL:   *backendURL,
		Router:       router,
		Locator:      locator,
		NoFallback:   *noFallback,
		SuggestLimit: *suggestLimit,
		Cache:        cacheManager,
		Live:         *live,
		View:         projection,
		Log:          debug.L(),
	})
	defer e.Close()

	fmt.Printf("Loading features from %s...\n", *backendURL)
	initCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	if err := e.Init(initCtx); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: no features loaded: %v\n", err)
	} else {
		fmt.Printf("Loaded %d features\n", e.Store.Count())
	}
	cancel()

	screen, err := tcell.NewScreen()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to create screen: %v\n", err)
		os.Exit(1)
	}
	if err := screen.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to initialize screen: %v\n", err)
		os.Exit(1)
	}

	app := ui.NewApp(screen, e, projection, basemap)

	// Run with panic recovery to ensure terminal is always restored
	func() {
		defer func() {
			if r := recover(); r != nil {
				screen.Fini()
				fmt.Fprintf(os.Stderr, "\nPanic: %v\n", r)
			}
		}()

		if err := app.Run(context.Background()); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
	}()

	fmt.Println("\nSampai jumpa!")
}

// loadBasemap loads the given shapefile, or downloads the Natural Earth
// layers into the cache when path is empty
func loadBasemap(cm *cache.Manager, path string) (*geo.Basemap, error) {
	switch path {
	case "off":
		return nil, nil
	case "":
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		paths, err := cm.EnsureBasemap(ctx, cache.BasemapFiles)
		if err != nil {
			return nil, err
		}
		if len(paths) == 0 {
			return nil, errors.New("no basemap layers available")
		}
		return geo.LoadBasemap(paths...)
	default:
		return geo.LoadBasemap(path)
	}
}

func serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	s := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	if err := s.ListenAndServe(); err != nil {
		debug.L().Error("metrics_server_error", "err", err)
	}
}

// parseLatLon parses "lat,lon" into an orb point
func parseLatLon(s string) (orb.Point, error) {
	latStr, lonStr, ok := strings.Cut(s, ",")
	if !ok {
		return orb.Point{}, fmt.Errorf("%q is not lat,lon", s)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(latStr), 64)
	if err != nil {
		return orb.Point{}, fmt.Errorf("latitude: %w", err)
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(lonStr), 64)
	if err != nil {
		return orb.Point{}, fmt.Errorf("longitude: %w", err)
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return orb.Point{}, fmt.Errorf("%q is out of range", s)
	}
	return orb.Point{lon, lat}, nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
