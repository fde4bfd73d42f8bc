// Command tripmap is a terminal front-end for the nearby places map. It loads
// the places around a trip or a city and, with -travel, reads "lat,lon" lines
// from stdin as the live location and prints proximity alerts.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/FACorreiaa/go-tripmap/pkg/geo"
	"github.com/FACorreiaa/go-tripmap/pkg/geocode"
	"github.com/FACorreiaa/go-tripmap/pkg/tripmap"
)

type options struct {
	api        string
	token      string
	trip       string
	city       string
	radius     float64
	categories string
	travel     bool
	notify     string
	threshold  float64
	store      string
	nominatim  string
	verbose    bool
}

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout); err != nil {
		log.Fatal(err)
	}
}

func parseFlags(args []string) (options, error) {
	var o options
	fs := flag.NewFlagSet("tripmap", flag.ContinueOnError)
	fs.StringVar(&o.api, "api", envOr("TRIPMAP_API", "http://localhost:8080"), "backend base URL")
	fs.StringVar(&o.token, "token", os.Getenv("TRIPMAP_TOKEN"), "bearer token")
	fs.StringVar(&o.trip, "trip", "", "trip id; empty for discovery mode")
	fs.StringVar(&o.city, "city", "", "city to search around")
	fs.Float64Var(&o.radius, "radius", tripmap.DefaultRadiusKm, "search radius in km")
	fs.StringVar(&o.categories, "categories", "", "comma separated categories; empty for all")
	fs.BoolVar(&o.travel, "travel", false, "read lat,lon lines from stdin and alert on nearby places")
	fs.StringVar(&o.notify, "notify", "", "categories that raise alerts; empty for the defaults")
	fs.Float64Var(&o.threshold, "threshold", tripmap.DefaultAlertThresholdKm, "alert distance in km")
	fs.StringVar(&o.store, "store", "", "sqlite file that remembers map centers")
	fs.StringVar(&o.nominatim, "nominatim", geocode.DefaultNominatimURL, "geocoder base URL")
	fs.BoolVar(&o.verbose, "v", false, "debug logging")
	if err := fs.Parse(args); err != nil {
		return o, err
	}
	return o, nil
}

func run(args []string, stdin io.Reader, stdout io.Writer) error {
	o, err := parseFlags(args)
	if err != nil {
		return err
	}

	logger := zap.NewNop()
	if o.verbose {
		if logger, err = zap.NewDevelopment(); err != nil {
			return err
		}
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var store tripmap.CenterStore = tripmap.NewMemoryCenterStore()
	if o.store != "" {
		s, err := tripmap.OpenSQLiteCenterStore(o.store, logger)
		if err != nil {
			return err
		}
		defer s.Close()
		store = s
	}

	var view *tripmap.View
	view = tripmap.NewView(tripmap.ViewConfig{
		API:              tripmap.NewClient(o.api, o.token, tripmap.WithClientLogger(logger)),
		Geocoder:         geocode.NewNominatim(o.nominatim, geocode.WithLogger(logger)),
		Store:            store,
		Logger:           logger,
		AlertThresholdKm: o.threshold,
		NotifyCategories: notifyCategories(o.notify),
		OnAlert: func(a tripmap.Alert) {
			printAlert(stdout, a, view.Location())
		},
	})
	defer view.Close()

	if err := open(ctx, view, o); err != nil {
		return err
	}
	printPlaces(stdout, view)

	if !o.travel {
		return nil
	}
	return travel(ctx, view, stdin)
}

func open(ctx context.Context, view *tripmap.View, o options) error {
	var res tripmap.FetchResult
	if o.trip != "" {
		res = view.OpenTrip(ctx, o.trip)
	} else {
		res = view.OpenDiscovery(ctx)
	}
	if res.Err != nil {
		return fmt.Errorf("%s", view.Error())
	}

	view.SetRadius(ctx, o.radius)
	if cats := geo.ParseCategories(o.categories); len(cats) > 0 && len(cats) < len(geo.AllCategories) {
		for _, c := range cats {
			view.ToggleCategory(ctx, c)
		}
	}

	if o.city != "" {
		if _, err := view.SearchCity(ctx, o.city); err != nil {
			return fmt.Errorf("%s", view.Error())
		}
	}
	if msg := view.Error(); msg != "" {
		return fmt.Errorf("%s", msg)
	}
	return nil
}

// travel feeds stdin locations to the view until stdin closes or ctx ends.
func travel(ctx context.Context, view *tripmap.View, stdin io.Reader) error {
	view.SetTravelMode(ctx, true)

	g, gctx := errgroup.WithContext(ctx)
	feed := make(chan geo.Coordinates)

	g.Go(func() error {
		defer close(feed)
		scanner := bufio.NewScanner(stdin)
		for scanner.Scan() {
			c, ok := parseLocation(scanner.Text())
			if !ok {
				continue
			}
			select {
			case feed <- c:
			case <-gctx.Done():
				return nil
			}
		}
		return scanner.Err()
	})
	g.Go(func() error {
		return view.WatchLocation(gctx, feed)
	})

	if err := g.Wait(); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

func parseLocation(line string) (geo.Coordinates, bool) {
	parts := strings.Split(strings.TrimSpace(line), ",")
	if len(parts) != 2 {
		return geo.Coordinates{}, false
	}
	lat, errLat := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	lon, errLon := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if errLat != nil || errLon != nil || !geo.ValidCoordinates(lat, lon) {
		return geo.Coordinates{}, false
	}
	return geo.Coordinates{Lat: lat, Lon: lon}, true
}

func notifyCategories(raw string) tripmap.CategorySet {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	return tripmap.NewCategorySet(geo.ParseCategories(raw)...)
}

func printPlaces(w io.Writer, view *tripmap.View) {
	snap := view.Snapshot()
	if snap.Center != nil {
		fmt.Fprintf(w, "Center %s, radius %.0f km, zoom %d\n", snap.Center, snap.RadiusKm, view.ZoomLevel())
	}
	if saved := view.SavedPlaces(); len(saved) > 0 {
		fmt.Fprintf(w, "Saved (%d):\n", len(saved))
		for _, p := range saved {
			fmt.Fprintf(w, "  * %s [%s]\n", p.Name, p.Category())
		}
	}
	nearby := view.NearbyPlaces()
	fmt.Fprintf(w, "Nearby (%d):\n", len(nearby))
	for _, p := range nearby {
		fmt.Fprintf(w, "  - %-40s %-10s %6.2f km\n", p.Name, p.Category(), p.DistanceKm)
	}
}

func printAlert(w io.Writer, a tripmap.Alert, from *geo.Coordinates) {
	fmt.Fprintf(w, "! %s (%s) is %.2f km away\n  %s\n", a.Place.Name, a.Category, a.DistanceKm, a.DirectionsURL(from))
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
