// Package source builds the rider population from the fantasy roster file
// joined with race results from the results site.
package source

import (
	"context"
	"errors"
	"fmt"

	"github.com/okian/peloton/internal/adapters/cache"
	"github.com/okian/peloton/internal/domain/matching"
	"github.com/okian/peloton/internal/domain/rider"
	"github.com/okian/peloton/pkg/logger"
	"github.com/okian/peloton/pkg/metrics"
)

// DefaultRacePrefix selects the race whose results feed the population.
const DefaultRacePrefix = "race/tour-de-france-femmes/2025/"

// Progress is called after each rider during a load.
type Progress func(done, total int, name string)

// LoaderOption applies a configuration option to the Loader.
type LoaderOption func(*Loader)

// WithCache sets the race-result cache.
func WithCache(c cache.Cache) LoaderOption {
	return func(l *Loader) { l.cache = c }
}

// WithFetcher sets the results-site fetcher. Without one the loader only
// uses cached results.
func WithFetcher(f Fetcher) LoaderOption {
	return func(l *Loader) { l.fetcher = f }
}

// WithRacePrefix sets the stage URL prefix of the race to aggregate.
func WithRacePrefix(prefix string) LoaderOption {
	return func(l *Loader) {
		if prefix != "" {
			l.racePrefix = prefix
		}
	}
}

// WithResultsLimit sets how many recent race days are aggregated.
func WithResultsLimit(n int) LoaderOption {
	return func(l *Loader) {
		if n > 0 {
			l.resultsLimit = n
		}
	}
}

// WithStartlist resolves rider slugs by fuzzy matching against a startlist
// file instead of deriving them from the fantasy name.
func WithStartlist(path string) LoaderOption {
	return func(l *Loader) { l.startlistFile = path }
}

// WithLogger sets the logger.
func WithLogger(log logger.Logger) LoaderOption {
	return func(l *Loader) {
		if log != nil {
			l.log = log
		}
	}
}

// Loader reads the roster and joins each rider with its race results.
type Loader struct {
	dataFile      string
	startlistFile string
	racePrefix    string
	resultsLimit  int
	cache         cache.Cache
	fetcher       Fetcher
	log           logger.Logger
}

// NewLoader creates a loader for the roster at dataFile.
func NewLoader(dataFile string, opts ...LoaderOption) *Loader {
	l := &Loader{
		dataFile:     dataFile,
		racePrefix:   DefaultRacePrefix,
		resultsLimit: DefaultResultsLimit,
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.log == nil {
		l.log = logger.Named("source")
	}
	return l
}

// DataFile returns the roster path.
func (l *Loader) DataFile() string { return l.dataFile }

// Load builds the population, fetching only results missing from or stale
// in the cache.
func (l *Loader) Load(ctx context.Context) ([]rider.Record, error) {
	return l.load(ctx, false, nil)
}

// Refresh builds the population, refetching every rider's results.
func (l *Loader) Refresh(ctx context.Context, progress Progress) ([]rider.Record, error) {
	return l.load(ctx, true, progress)
}

func (l *Loader) load(ctx context.Context, force bool, progress Progress) ([]rider.Record, error) {
	roster, err := LoadFantasyFile(l.dataFile)
	if err != nil {
		metrics.RecordPopulationLoad("error")
		return nil, err
	}
	slugs := l.resolveSlugs(ctx, roster)

	records := make([]rider.Record, 0, len(roster))
	for i, fr := range roster {
		if err := ctx.Err(); err != nil {
			metrics.RecordPopulationLoad("cancelled")
			return nil, fmt.Errorf("load population: %w", err)
		}

		rec := rider.Record{
			Name:     fr.Name,
			Team:     fr.Team,
			Position: fr.Position,
			Cost:     fr.Stars,
		}
		if fr.Points != nil {
			rec.Performance = *fr.Points
		}
		if p, ok := l.profile(ctx, slugs[i], force); ok {
			applyProfile(&rec, p, l.racePrefix, l.resultsLimit)
		}
		records = append(records, rec)

		if progress != nil {
			progress(i+1, len(roster), fr.Name)
		}
	}

	metrics.RecordPopulationLoad("ok")
	l.log.Info(ctx, "population loaded",
		logger.Int("riders", len(records)),
		logger.Bool("refresh", force),
		logger.String("file", l.dataFile))
	return records, nil
}

// applyProfile joins race results into rec. Roster points are kept when the
// profile has no result for the race.
func applyProfile(rec *rider.Record, p RiderProfile, racePrefix string, limit int) {
	s := SeasonSummary(p.SeasonResults, racePrefix, limit)
	if s.Results > 0 {
		rec.Performance = s.PCSPoints
	}
	rec.UCIPoints = s.UCIPoints
	rec.Consistency = s.Consistency
	rec.Trend = s.Trend
	rec.ResultsCount = s.Results
	rec.Nationality = p.Nationality
}

func (l *Loader) resolveSlugs(ctx context.Context, roster []FantasyRider) []string {
	slugs := make([]string, len(roster))
	var (
		names   []string
		byName  map[string]StartlistEntry
		matched int
	)
	if l.startlistFile != "" {
		entries, err := LoadStartlistFile(l.startlistFile)
		if err != nil {
			l.log.Warn(ctx, "startlist unavailable, deriving slugs from names", logger.Error(err))
		} else {
			byName = make(map[string]StartlistEntry, len(entries))
			for _, e := range entries {
				if _, dup := byName[e.RiderName]; !dup {
					byName[e.RiderName] = e
					names = append(names, e.RiderName)
				}
			}
		}
	}

	for i, fr := range roster {
		if len(names) > 0 {
			if m, ok := matching.BestMatch(fr.Name, names, matching.DefaultThreshold); ok {
				slugs[i] = byName[m.Candidate].Slug()
				matched++
				continue
			}
			l.log.Debug(ctx, "no startlist match", logger.String("rider", fr.Name))
		}
		slugs[i] = matching.Slug(fr.Name)
	}
	if len(names) > 0 {
		l.log.Info(ctx, "startlist matched", logger.Int("matched", matched), logger.Int("riders", len(roster)))
	}
	return slugs
}

// profile returns the rider's results. Fresh cache entries are used as-is
// unless force is set; stale ones are refetched and used as a fallback when
// the fetch fails.
func (l *Loader) profile(ctx context.Context, slug string, force bool) (RiderProfile, bool) {
	if slug == "" {
		return RiderProfile{}, false
	}
	log := l.log.With(logger.String("slug", slug))

	var fallback []byte
	if l.cache != nil {
		e, err := l.cache.Get(ctx, slug)
		switch {
		case err == nil && !force:
			return l.decode(ctx, log, e.Payload)
		case err == nil, errors.Is(err, cache.ErrStale):
			fallback = e.Payload
		case errors.Is(err, cache.ErrMiss):
		default:
			log.Warn(ctx, "cache lookup failed", logger.Error(err))
		}
	}

	if l.fetcher == nil {
		if fallback != nil {
			return l.decode(ctx, log, fallback)
		}
		return RiderProfile{}, false
	}

	body, err := l.fetcher.Fetch(ctx, slug)
	if err == nil {
		var p RiderProfile
		if p, err = DecodeProfile(body); err == nil {
			if l.cache != nil {
				if perr := l.cache.Put(ctx, slug, body); perr != nil {
					log.Warn(ctx, "cache write failed", logger.Error(perr))
				}
			}
			return p, true
		}
	}

	log.Warn(ctx, "race results unavailable", logger.Error(err), logger.Bool("cached_fallback", fallback != nil))
	if fallback != nil {
		return l.decode(ctx, log, fallback)
	}
	return RiderProfile{}, false
}

func (l *Loader) decode(ctx context.Context, log logger.Logger, payload []byte) (RiderProfile, bool) {
	p, err := DecodeProfile(payload)
	if err != nil {
		log.Warn(ctx, "cached profile unreadable", logger.Error(err))
		return RiderProfile{}, false
	}
	return p, true
}
