package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/chainsafe/sales-sync/pkg/app"
	"github.com/chainsafe/sales-sync/pkg/app/syncjob"
	"github.com/chainsafe/sales-sync/pkg/config"
	"github.com/chainsafe/sales-sync/pkg/syncer"
)

// paramFlag collects repeated -param key=value flags.
type paramFlag map[string]string

func (p paramFlag) String() string {
	pairs := make([]string, 0, len(p))
	for k, v := range p {
		pairs = append(pairs, k+"="+v)
	}
	return strings.Join(pairs, ",")
}

func (p paramFlag) Set(v string) error {
	key, value, ok := strings.Cut(v, "=")
	if !ok || strings.TrimSpace(key) == "" {
		return fmt.Errorf("expected key=value, got %q", v)
	}
	p[strings.TrimSpace(key)] = strings.TrimSpace(value)
	return nil
}

func main() {
	configPath := flag.String("config", "config.yaml", "Path to configuration file")
	once := flag.Bool("once", false, "Run a single sync pass and exit")
	entities := flag.String("entities", "", "Comma separated entity names to sync (default: all configured)")
	start := flag.String("start", "", "Window start, YYYY-MM-DD or unix seconds (requires -end and -once)")
	end := flag.String("end", "", "Window end, exclusive, YYYY-MM-DD or unix seconds (requires -start and -once)")
	params := paramFlag{}
	flag.Var(params, "param", "Extra vendor query parameter key=value, repeatable (requires -once), e.g. -param number=123 -param documenttypeid=1")
	flag.Parse()

	if err := checkFlags(*once, *start, *end, params); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid flags: %v\n", err)
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	opts := syncjob.RunOptions{Once: *once}
	if *entities != "" {
		for _, name := range strings.Split(*entities, ",") {
			if name = strings.TrimSpace(name); name != "" {
				opts.Entities = append(opts.Entities, name)
			}
		}
	}
	if len(params) > 0 {
		opts.Params = params
	}

	if *start != "" || *end != "" {
		w, err := parseWindow(*start, *end, cfg.Sync.DayBoundaryLocation())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Invalid window: %v\n", err)
			os.Exit(2)
		}
		opts.Window = &w
	}

	var runner app.Runner = syncjob.NewServer(cfg, opts)
	if err := runner.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Sync failed: %v\n", err)
		os.Exit(1)
	}
}

// checkFlags rejects fixed windows and lookups on the schedule, where every
// tick would fetch the same records again.
func checkFlags(once bool, start, end string, params map[string]string) error {
	if once {
		return nil
	}
	if start != "" || end != "" {
		return fmt.Errorf("-start/-end require -once")
	}
	if len(params) > 0 {
		return fmt.Errorf("-param requires -once")
	}
	return nil
}

func parseWindow(start, end string, loc *time.Location) (syncer.Window, error) {
	if start == "" || end == "" {
		return syncer.Window{}, fmt.Errorf("both -start and -end are required")
	}
	s, err := parseBound(start, loc)
	if err != nil {
		return syncer.Window{}, fmt.Errorf("-start: %w", err)
	}
	e, err := parseBound(end, loc)
	if err != nil {
		return syncer.Window{}, fmt.Errorf("-end: %w", err)
	}
	if !s.Before(e) {
		return syncer.Window{}, fmt.Errorf("-start must be before -end")
	}
	return syncer.NewWindow(s, e), nil
}

func parseBound(v string, loc *time.Location) (time.Time, error) {
	if secs, err := strconv.ParseInt(v, 10, 64); err == nil {
		return time.Unix(secs, 0), nil
	}
	return time.ParseInLocation(time.DateOnly, v, loc)
}
