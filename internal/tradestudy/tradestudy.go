// Package tradestudy runs independent design cases in parallel. Each case
// owns private aircraft, wing and engine instances, so cases are the only
// safe concurrency granularity; segments within one case stay sequential.
package tradestudy

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/aeroconcept/sizer/internal/aircraft"
	"github.com/aeroconcept/sizer/internal/config"
	"github.com/aeroconcept/sizer/internal/engine"
	"github.com/aeroconcept/sizer/internal/mission"
	"github.com/aeroconcept/sizer/internal/sizing"
	"github.com/aeroconcept/sizer/internal/wing"
	"github.com/aeroconcept/sizer/pkg/logger"
)

// BuildCase constructs the private model instances for one design case.
func BuildCase(dc *config.DesignCase) (*aircraft.Aircraft, *mission.Mission, error) {
	eng, err := engine.New(engine.Config{
		Archetype:   engine.Archetype(dc.Engine.Archetype),
		Afterburner: dc.Engine.Afterburner,
		BPR:         dc.Engine.BPR,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("case %q: %w", dc.Name, err)
	}

	var w *wing.Wing
	if dc.Wing != nil {
		designMach, err := aircraft.DesignMachFor(aircraft.Archetype(dc.Aircraft.Type))
		if err != nil {
			return nil, nil, fmt.Errorf("case %q: %w", dc.Name, err)
		}
		w, err = wing.NewForAircraft(wing.Params{
			Sweep:       dc.Wing.Sweep,
			AspectRatio: dc.Wing.AspectRatio,
			FlapType:    wing.FlapType(dc.Wing.FlapType),
			Slats:       dc.Wing.Slats,
			TaperRatio:  dc.Wing.TaperRatio,
			FlapSpan:    dc.Wing.FlapSpan,
			KAero:       dc.Aircraft.KAero,
		}, dc.Aircraft.Type, designMach)
		if err != nil {
			return nil, nil, fmt.Errorf("case %q: %w", dc.Name, err)
		}
	}

	var chute *aircraft.DragChute
	if dc.Aircraft.DragChute != nil {
		chute = &aircraft.DragChute{
			Diameter: dc.Aircraft.DragChute.Diameter,
			CD:       dc.Aircraft.DragChute.CD,
		}
	}

	ac, err := aircraft.New(aircraft.Config{
		Type:          aircraft.Archetype(dc.Aircraft.Type),
		Wing:          w,
		Engine:        eng,
		NumEngines:    dc.Aircraft.NumEngines,
		Stores:        dc.Stores,
		KAero:         dc.Aircraft.KAero,
		K2:            dc.Aircraft.K2,
		KTakeoff:      dc.Aircraft.KTakeoff,
		KTouchdown:    dc.Aircraft.KTouchdown,
		MuRolling:     dc.Aircraft.MuRolling,
		MuBraking:     dc.Aircraft.MuBraking,
		ReverseThrust: dc.Aircraft.ReverseThrust,
		DragChute:     chute,
		CD0:           dc.Aircraft.CD0,
		K1:            dc.Aircraft.K1,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("case %q: %w", dc.Name, err)
	}

	m, err := mission.New(dc.Name, dc.Mission)
	if err != nil {
		return nil, nil, fmt.Errorf("case %q: %w", dc.Name, err)
	}
	return ac, m, nil
}

// CaseResult is the outcome of one case in a study. Err is set (and Result
// nil) when the case failed; a failed case does not abort the study.
type CaseResult struct {
	Name   string         `json:"name"`
	Result *sizing.Result `json:"result,omitempty"`
	Err    string         `json:"error,omitempty"`
}

// Runner executes design cases over a bounded worker pool.
type Runner struct {
	sizer   *sizing.Sizer
	workers int
	log     *logger.Logger
}

func NewRunner(sizer *sizing.Sizer, workers int, log *logger.Logger) *Runner {
	if workers <= 0 {
		workers = 4
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Runner{sizer: sizer, workers: workers, log: log.Named("tradestudy")}
}

// Run evaluates every case and returns results in input order. onCase
// (optional) observes each completed case as it finishes; it may be called
// from multiple goroutines' completions but never concurrently.
func (r *Runner) Run(ctx context.Context, cases []config.DesignCase, onCase func(CaseResult)) ([]CaseResult, error) {
	results := make([]CaseResult, len(cases))

	var mu sync.Mutex
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)

	for i := range cases {
		i := i
		g.Go(func() error {
			dc := &cases[i]
			res := r.runCase(ctx, dc)

			mu.Lock()
			results[i] = res
			if onCase != nil {
				onCase(res)
			}
			mu.Unlock()

			// Only cancellation aborts the study; per-case failures are
			// recorded and the sweep continues.
			return ctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (r *Runner) runCase(ctx context.Context, dc *config.DesignCase) CaseResult {
	ac, m, err := BuildCase(dc)
	if err != nil {
		r.log.Warn("design case rejected", logger.String("case", dc.Name), logger.Error(err))
		return CaseResult{Name: dc.Name, Err: err.Error()}
	}

	res, err := r.sizer.Design(ctx, ac, m, nil)
	if err != nil {
		r.log.Warn("design case failed", logger.String("case", dc.Name), logger.Error(err))
		return CaseResult{Name: dc.Name, Err: err.Error()}
	}
	r.log.Info("design case complete",
		logger.String("case", dc.Name),
		logger.Float("w_to", res.TakeoffWeight),
		logger.Int("iterations", res.Iterations),
	)
	return CaseResult{Name: dc.Name, Result: res}
}
