package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"sort"
	"strings"

	"nvt/internal/booking"
	"nvt/internal/catalog"
	"nvt/internal/config"
	"nvt/internal/drafts"
	"nvt/internal/logging"
	"nvt/internal/recent"
	"nvt/internal/site"
	"nvt/internal/store"

	"github.com/prometheus/common/expfmt"
)

var errUsage = errors.New("usage")

func main() {
	err := run(os.Args[1:], os.Stdout, os.Stderr)
	if errors.Is(err, errUsage) {
		usage(os.Stderr)
		os.Exit(2)
	}
	if err != nil {
		log.Fatalf("nvt-cli: %v", err)
	}
}

func usage(w io.Writer) {
	fmt.Fprintln(w, `nvt-cli - site state inspector

Global flags (before the command):
  -backend bolt|sqlite|memory|disabled   (env NVT_BACKEND)
  -data DIR                              (env NVT_DATA_DIR)
  -metrics                               print counters to stderr on exit

Commands:
  view      --type service|specialty --id N
  recent    [--type service|specialty] [--limit N] [--cards]
  services  [--availability all|In-person|Virtual] [--limit N]
  faqs      [--category C] [--search TEXT]
  draft     get|clear --form ID
  draft     save --form ID --data JSON
  book      [--set field=value ...] [--submit]
  keys
  clear-all`)
}

type setFlags []string

func (s *setFlags) String() string     { return strings.Join(*s, ",") }
func (s *setFlags) Set(v string) error { *s = append(*s, v); return nil }

func run(args []string, stdout, stderr io.Writer) error {
	cfg, err := config.Parse()
	if err != nil {
		return err
	}

	global := flag.NewFlagSet("nvt-cli", flag.ContinueOnError)
	global.SetOutput(stderr)
	global.StringVar(&cfg.Backend, "backend", cfg.Backend, "")
	global.StringVar(&cfg.DataDir, "data", cfg.DataDir, "")
	dumpMetrics := global.Bool("metrics", false, "")
	if err := global.Parse(args); err != nil {
		return errUsage
	}
	if global.NArg() == 0 {
		return errUsage
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := logging.New(stderr, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	s, err := site.Open(cfg, logger)
	if err != nil {
		return err
	}
	defer s.Close()

	cmd, rest := global.Arg(0), global.Args()[1:]
	switch cmd {
	case "view":
		err = doView(s, rest, stdout)
	case "recent":
		err = doRecent(s, rest, stdout)
	case "services":
		err = doServices(s, rest, stdout)
	case "faqs":
		err = doFAQs(s, rest, stdout)
	case "draft":
		err = doDraft(s, rest, stdout)
	case "book":
		err = doBook(s, rest, stdout)
	case "keys":
		err = doKeys(s, stdout)
	case "clear-all":
		err = s.KV().ClearAll()
		if err == nil {
			fmt.Fprintln(stdout, "OK cleared")
		}
	default:
		err = errUsage
	}

	if *dumpMetrics {
		if merr := writeMetrics(s, stderr); merr != nil && err == nil {
			err = merr
		}
	}
	return err
}

func parseType(s string) (*recent.EntityType, error) {
	if s == "" {
		return nil, nil
	}
	t, err := recent.ParseEntityType(s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// --- Catalog commands ---

func doView(s *site.Site, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("view", flag.ContinueOnError)
	typ := fs.String("type", "service", "")
	id := fs.Int("id", 0, "")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}

	switch recent.EntityType(*typ) {
	case recent.Service:
		svc, err := s.Browser().OpenService(*id)
		if err != nil {
			return fmt.Errorf("service %d: %w", *id, err)
		}
		fmt.Fprintf(out, "%s (%s, %s)\n%s\n", svc.Name, svc.Duration, svc.Price, svc.FullDescription)
	case recent.Specialty:
		spec, err := s.Browser().OpenSpecialty(*id)
		if err != nil {
			return fmt.Errorf("specialty %d: %w", *id, err)
		}
		fmt.Fprintf(out, "%s\n%s\n", spec.Name, spec.Description)
	default:
		return fmt.Errorf("unknown entity type %q", *typ)
	}
	return nil
}

func doRecent(s *site.Site, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("recent", flag.ContinueOnError)
	typ := fs.String("type", "", "")
	limit := fs.Int("limit", recent.DefaultMax, "")
	cards := fs.Bool("cards", false, "")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	filter, err := parseType(*typ)
	if err != nil {
		return err
	}

	entries := s.Tracker().RecentlyViewed(filter, *limit)
	if *cards {
		for _, c := range s.Catalog().Hydrate(entries) {
			fmt.Fprintf(out, "  %-9s %-3d %s\n", c.Type, c.ID, c.Name)
		}
		return nil
	}
	for _, e := range entries {
		fmt.Fprintf(out, "  %-9s %-3d %s\n", e.Type, e.ID, e.ViewedAt.UTC().Format("2006-01-02T15:04:05.000Z"))
	}
	return nil
}

func doServices(s *site.Site, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("services", flag.ContinueOnError)
	avail := fs.String("availability", string(catalog.All), "")
	limit := fs.Int("limit", 0, "")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	for _, svc := range s.Catalog().Services(catalog.Availability(*avail), *limit) {
		fmt.Fprintf(out, "  %-3d %s\n", svc.ID, svc.Name)
	}
	return nil
}

func doFAQs(s *site.Site, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("faqs", flag.ContinueOnError)
	category := fs.String("category", "all", "")
	search := fs.String("search", "", "")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	for _, f := range s.Catalog().FAQs(*category, *search) {
		fmt.Fprintf(out, "  [%s] %s\n", f.Category, f.Question)
	}
	return nil
}

// --- Draft commands ---

func doDraft(s *site.Site, args []string, out io.Writer) error {
	if len(args) == 0 {
		return errUsage
	}
	fs := flag.NewFlagSet("draft", flag.ContinueOnError)
	form := fs.String("form", booking.FormID, "")
	data := fs.String("data", "", "")
	if err := fs.Parse(args[1:]); err != nil {
		return errUsage
	}

	// Drafts are opaque here; any JSON shape round-trips.
	raw := drafts.New[json.RawMessage](s.KV())
	switch args[0] {
	case "get":
		d, ok := raw.Get(*form)
		if !ok {
			fmt.Fprintf(out, "no draft for %s\n", *form)
			return nil
		}
		fmt.Fprintf(out, "%s saved %s\n%s\n", *form, d.SavedAt.UTC().Format("2006-01-02T15:04:05.000Z"), d.Data)
	case "save":
		if !json.Valid([]byte(*data)) {
			return fmt.Errorf("--data must be valid JSON")
		}
		if err := raw.Save(*form, json.RawMessage(*data)); err != nil {
			return err
		}
		fmt.Fprintf(out, "OK saved %s\n", *form)
	case "clear":
		if err := raw.Clear(*form); err != nil {
			return err
		}
		fmt.Fprintf(out, "OK cleared %s\n", *form)
	default:
		return errUsage
	}
	return nil
}

func doBook(s *site.Site, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("book", flag.ContinueOnError)
	var sets setFlags
	fs.Var(&sets, "set", "")
	submit := fs.Bool("submit", false, "")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}

	sess := s.NewBookingSession()
	for _, kv := range sets {
		field, value, ok := strings.Cut(kv, "=")
		if !ok {
			return fmt.Errorf("--set expects field=value, got %q", kv)
		}
		if err := sess.Change(field, value); err != nil {
			return err
		}
	}

	form := sess.Form()
	fmt.Fprintf(out, "  name=%q email=%q phone=%q schedule=%q serviceType=%s mode=%s\n",
		form.Name, form.Email, form.Phone, form.Schedule, form.ServiceType, form.Mode)
	if !*submit {
		return nil
	}

	conf, err := sess.Submit()
	var verr *booking.ValidationError
	if errors.As(err, &verr) {
		for _, p := range verr.Problems {
			fmt.Fprintf(out, "  ERROR: %s\n", p)
		}
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "OK submitted, reference %s\n", conf.Reference)
	return nil
}

// --- Admin commands ---

func doKeys(s *site.Site, out io.Writer) error {
	keys, err := s.KV().Keys()
	if err != nil {
		return err
	}
	for _, k := range keys {
		raw, outcome, _ := store.Lookup[json.RawMessage](s.KV(), k)
		switch outcome {
		case store.Found:
			fmt.Fprintf(out, "  %-30s %d bytes\n", k, len(raw))
		case store.Absent:
			fmt.Fprintf(out, "  %-30s null\n", k)
		case store.Corrupt:
			fmt.Fprintf(out, "  %-30s corrupt\n", k)
		default:
			fmt.Fprintf(out, "  %-30s unreadable\n", k)
		}
	}
	return nil
}

func writeMetrics(s *site.Site, w io.Writer) error {
	reg, err := s.Registry()
	if err != nil {
		return err
	}
	families, err := reg.Gather()
	if err != nil {
		return err
	}
	sort.Slice(families, func(i, j int) bool { return families[i].GetName() < families[j].GetName() })
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}
