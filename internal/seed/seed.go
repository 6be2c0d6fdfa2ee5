// Package seed generates synthetic people and loads them into a store, for
// demos and load tests of the matching engine.
package seed

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/skillswap/internal/domain/model"
	"github.com/okian/skillswap/pkg/logger"
)

// Generation defaults.
const (
	defaultPeople     = 200
	defaultWorkers    = 4
	minSkills         = 2
	maxExtraSkills    = 3
	maxSlots          = 4
	verifiedPercent   = 85
	optInPercent      = 70
	inactivePercent   = 15
	maxSessions       = 120
	activeWindowHours = 30 * 24
)

// Skill is one catalog entry.
type Skill struct {
	ID       string
	Name     string
	Category string
}

// Catalog is the skill list people are drawn from.
var Catalog = []Skill{
	{"go", "Go", "Programming"},
	{"python", "Python", "Programming"},
	{"js", "JavaScript", "Programming"},
	{"sql", "SQL", "Data"},
	{"stats", "Statistics", "Data"},
	{"ux", "UI/UX Design", "Design"},
	{"figma", "Figma", "Design"},
	{"spanish", "Spanish", "Languages"},
	{"german", "German", "Languages"},
	{"japanese", "Japanese", "Languages"},
	{"guitar", "Guitar", "Music"},
	{"piano", "Piano", "Music"},
	{"photo", "Photography", "Arts"},
	{"cooking", "Cooking", "Lifestyle"},
}

var locations = []string{"Berlin, DE", "Lisbon, PT", "Austin, US", "Osaka, JP", "Remote"}

// Config controls generation.
type Config struct {
	People  int
	Seed    uint64
	Workers int
	Now     time.Time
}

func (c Config) withDefaults() Config {
	if c.People <= 0 {
		c.People = defaultPeople
	}
	if c.Workers <= 0 {
		c.Workers = defaultWorkers
	}
	if c.Now.IsZero() {
		c.Now = time.Now().UTC()
	}
	return c
}

// Generate builds cfg.People people. The same seed always yields the same
// population.
func Generate(cfg Config) []*model.Person {
	cfg = cfg.withDefaults()
	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15))

	out := make([]*model.Person, cfg.People)
	for i := range out {
		out[i] = person(rng, i, cfg.Now)
	}
	return out
}

func person(rng *rand.Rand, i int, now time.Time) *model.Person {
	p := &model.Person{
		ID:                 fmt.Sprintf("user-%05d", i),
		DisplayName:        fmt.Sprintf("User %d", i),
		Verified:           rng.IntN(100) < verifiedPercent,
		Rating:             float64(rng.IntN(51)) / 10,
		TotalSessions:      rng.IntN(maxSessions),
		Location:           locations[rng.IntN(len(locations))],
		NotificationsOptIn: rng.IntN(100) < optInPercent,
	}
	activeAgo := time.Duration(rng.IntN(activeWindowHours)) * time.Hour
	if rng.IntN(100) < inactivePercent {
		activeAgo += activeWindowHours * time.Hour
	}
	p.LastActiveAt = now.Add(-activeAgo)

	n := minSkills + rng.IntN(maxExtraSkills+1)
	for j, idx := range rng.Perm(len(Catalog))[:n] {
		s := Catalog[idx]
		teach := j%2 == 0
		prof := 10 + rng.IntN(40)
		if teach {
			prof = 55 + rng.IntN(46)
		}
		p.Skills = append(p.Skills, model.SkillDeclaration{
			SkillID:      s.ID,
			SkillName:    s.Name,
			Category:     s.Category,
			Proficiency:  prof,
			CanTeach:     teach,
			WantsToLearn: !teach,
			Verified:     teach && rng.IntN(2) == 0,
		})
	}

	for range 1 + rng.IntN(maxSlots) {
		start := (6 + rng.IntN(14)) * 60
		p.Availability = append(p.Availability, model.AvailabilitySlot{
			DayOfWeek:   rng.IntN(7),
			StartMinute: start,
			EndMinute:   start + (1+rng.IntN(4))*60,
			Timezone:    "UTC",
			Active:      rng.IntN(10) > 0,
		})
	}
	return p
}

// Writer persists one person.
type Writer interface {
	SavePerson(ctx context.Context, p *model.Person) error
}

// Stats summarizes a Load call.
type Stats struct {
	Saved    int
	Failed   int
	Duration time.Duration
}

// Load writes people with up to workers concurrent writes. Individual
// failures are logged and counted; only cancellation aborts.
func Load(ctx context.Context, w Writer, people []*model.Person, workers int, log logger.Logger) (Stats, error) {
	if workers <= 0 {
		workers = defaultWorkers
	}
	if log == nil {
		log = logger.Nop()
	}
	start := time.Now()

	var saved, failed atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, p := range people {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if err := w.SavePerson(gctx, p); err != nil {
				failed.Add(1)
				log.Warn(gctx, "saving person failed", logger.String("person_id", p.ID), logger.Error(err))
				return nil
			}
			saved.Add(1)
			return nil
		})
	}
	err := g.Wait()

	st := Stats{Saved: int(saved.Load()), Failed: int(failed.Load()), Duration: time.Since(start)}
	log.Info(ctx, "seed load finished",
		logger.Int("saved", st.Saved),
		logger.Int("failed", st.Failed),
		logger.Duration("duration", st.Duration))
	if err != nil {
		return st, fmt.Errorf("seed load: %w", err)
	}
	return st, nil
}
