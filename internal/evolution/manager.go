package evolution

import (
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/san-kum/trackevo/internal/atmosphere"
	"github.com/san-kum/trackevo/internal/config"
	"github.com/san-kum/trackevo/internal/constants"
	"github.com/san-kum/trackevo/internal/grip"
	"github.com/san-kum/trackevo/internal/physics"
	"github.com/san-kum/trackevo/internal/storage"
	"github.com/san-kum/trackevo/internal/surface"
)

// Metric observes the surface after every tick that advanced the simulation.
type Metric interface {
	Name() string
	Observe(g *surface.Grid, env atmosphere.State)
	Value() float64
	Reset()
}

// SummarySaver persists session summaries.
type SummarySaver interface {
	Save(storage.Summary) error
}

// Options describes a simulation context.
type Options struct {
	Track       surface.Dims
	Evolution   config.Evolution
	Environment atmosphere.State
	InitialDust float64
	StartHour   float64
	TimeScale   float64
	Profile     physics.Profile

	// Source drives atmospheric noise. When nil a generator seeded with Seed
	// is used.
	Source atmosphere.Source
	Seed   int64

	Logger *slog.Logger
	Now    func() time.Time
}

func DefaultOptions() Options {
	opts, _ := OptionsFromConfig(config.DefaultConfig())
	return opts
}

// OptionsFromConfig maps a session config onto manager options.
func OptionsFromConfig(cfg *config.Config) (Options, error) {
	profile, err := physics.ParseProfile(cfg.Profile)
	if err != nil {
		return Options{}, fmt.Errorf("%w: %v", config.ErrInvalid, err)
	}
	return Options{
		Track:       cfg.Track,
		Evolution:   cfg.Evolution,
		Environment: cfg.Environment,
		InitialDust: cfg.InitialDust,
		StartHour:   cfg.StartHour,
		TimeScale:   cfg.TimeScale,
		Profile:     profile,
		Seed:        cfg.Seed,
	}, nil
}

// Manager owns the grid and every model that mutates it. It is not safe for
// concurrent use.
type Manager struct {
	grid    *surface.Grid
	atmos   *atmosphere.Atmosphere
	thermal *physics.Thermal
	deposit *physics.Deposition
	relax   *physics.Relaxation
	ext     *physics.Extended

	cfg        config.Evolution
	profile    physics.Profile
	acc        Accumulator
	globalGrip float64
	frame      uint64
	subSteps   uint64
	metrics    []Metric
	logger     *slog.Logger
	now        func() time.Time
}

// New builds a manager. The grid is filled with InitialDust and the
// environment's track ambient temperature.
func New(opts Options) (*Manager, error) {
	g, err := surface.NewGrid(opts.Track)
	if err != nil {
		return nil, fmt.Errorf("create grid: %w", err)
	}
	if err := opts.Evolution.Validate(); err != nil {
		return nil, fmt.Errorf("evolution config: %w", err)
	}
	if opts.InitialDust < 0 || opts.InitialDust > 1 {
		return nil, &config.FieldError{Field: "initial_dust", Value: opts.InitialDust, Wrapped: config.ErrInvalid}
	}

	src := opts.Source
	if src == nil {
		src = atmosphere.NewSource(opts.Seed)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	m := &Manager{
		grid: g,
		atmos: atmosphere.New(atmosphere.Options{
			Initial:   opts.Environment,
			StartHour: opts.StartHour,
			TimeScale: opts.TimeScale,
			Source:    src,
		}),
		cfg:        opts.Evolution,
		profile:    opts.Profile,
		globalGrip: constants.DefaultGlobalGrip,
		logger:     logger,
		now:        now,
	}
	m.thermal = physics.NewThermal(g, &m.cfg)
	m.deposit = physics.NewDeposition(g, &m.cfg)
	m.relax = physics.NewRelaxation(g)
	if m.profile == physics.ProfileExtended {
		m.ext = physics.NewExtended(g)
	}

	temp := opts.Environment.TrackAmbientTemp
	g.Reset(surface.Cell{Dust: opts.InitialDust, SurfaceTemp: temp, SubSurfaceTemp: temp})

	m.logger.Debug("evolution context created",
		"s_segments", opts.Track.SSegments,
		"lat_segments", opts.Track.LatSegments,
		"profile", m.profile.String(),
	)
	return m, nil
}

// Tick advances the atmosphere by dt and drains whole fixed steps from the
// accumulator. It does nothing while the evolution is disabled.
func (m *Manager) Tick(dt float64) {
	if !m.cfg.Enabled || !(dt > 0) {
		return
	}
	m.atmos.Tick(dt)

	steps, dropped := m.acc.Advance(dt, m.cfg.SimulationStepDt, m.cfg.MaxSubSteps)
	if dropped > 0 {
		m.logger.Debug("sub-step cap reached, dropping time",
			"dt", dt,
			"dropped", dropped,
			"max_sub_steps", m.cfg.MaxSubSteps,
		)
	}
	for i := 0; i < steps; i++ {
		m.step(m.cfg.SimulationStepDt)
	}
	if steps == 0 {
		return
	}

	env := m.atmos.Snapshot()
	for _, mt := range m.metrics {
		mt.Observe(m.grid, env)
	}
}

func (m *Manager) step(dt float64) {
	m.frame++
	m.subSteps++
	m.deposit.Stamp(m.frame)

	env := m.atmos.Snapshot()
	m.thermal.Integrate(env, dt)

	if env.DustStormIntensity > constants.StormDustThreshold {
		m.deposit.ApplyGlobalDust(env.DustStormIntensity * constants.StormDustRate)
	}

	if n := m.cfg.PassiveEvery; n > 0 && m.subSteps%uint64(n) == 0 {
		span := dt * float64(n)
		m.relax.RelaxPassive(env, m.cfg.DustDepositionRate, span)
		m.relax.DiffuseHeat(span)
	}

	if m.ext != nil {
		m.ext.Step(env, dt)
	}
}

// Contact is one tire's interaction with the surface during a physics step.
type Contact struct {
	S     float64
	D     float64
	Load  float64
	Slip  float64
	Speed float64
	Dt    float64
}

// ApplyTireContact records a contact without a speed reading.
func (m *Manager) ApplyTireContact(s, d, load, slip, dt float64) grip.Result {
	return m.ApplyContact(Contact{S: s, D: d, Load: load, Slip: slip, Dt: dt})
}

// ApplyContact deposits material, injects friction heat and returns the
// scaled grip at the contact cell. A disabled evolution leaves the surface
// untouched and only reports grip.
func (m *Manager) ApplyContact(c Contact) grip.Result {
	if m.cfg.Enabled {
		m.deposit.OnTireContact(c.S, c.D, c.Load, c.Slip, c.Dt)
		if m.ext != nil {
			m.ext.Contact(c.S, c.D, c.Load, c.Slip, c.Speed, c.Dt)
		}
		joules := math.Abs(c.Slip * c.Load * m.cfg.FrictionHeatFactor * c.Dt)
		if joules > 0 {
			m.thermal.InjectHeat(c.S, c.D, joules)
		}
	}
	return m.QueryGrip(c.S, c.D)
}

// QueryGrip reads the grip at (s, d) without changing the surface.
func (m *Manager) QueryGrip(s, d float64) grip.Result {
	return m.profile.Grip(m.grid.CellAt(s, d)).Scaled(m.globalGrip)
}

// Config returns a copy of the live evolution config.
func (m *Manager) Config() config.Evolution { return m.cfg }

// SetConfig merges p into the live config. The merged config is validated
// first and the whole patch is rejected if any value is out of range.
func (m *Manager) SetConfig(p config.Patch) error {
	next := m.cfg.Apply(p)
	if err := next.Validate(); err != nil {
		return err
	}
	if next.SimulationStepDt != m.cfg.SimulationStepDt {
		m.acc.Reset()
	}
	m.cfg = next
	m.logger.Debug("evolution config updated", "enabled", next.Enabled, "step", next.SimulationStepDt)
	return nil
}

func (m *Manager) GlobalGripMultiplier() float64 { return m.globalGrip }

// SetGlobalGripMultiplier clamps v to [0.2, 1.2]. NaN is ignored.
func (m *Manager) SetGlobalGripMultiplier(v float64) {
	if math.IsNaN(v) {
		return
	}
	m.globalGrip = math.Min(constants.GlobalGripMax, math.Max(constants.GlobalGripMin, v))
}

// ApplyEnvironmentOverrides forwards p to the atmosphere.
func (m *Manager) ApplyEnvironmentOverrides(p atmosphere.Patch) {
	m.atmos.ApplyOverrides(p)
}

// Atmosphere returns a snapshot of the environment.
func (m *Manager) Atmosphere() atmosphere.State { return m.atmos.Snapshot() }

func (m *Manager) TimeOfDay() float64        { return m.atmos.TimeOfDay() }
func (m *Manager) SetTimeOfDay(hour float64) { m.atmos.SetTimeOfDay(hour) }
func (m *Manager) Grid() *surface.Grid       { return m.grid }
func (m *Manager) Frame() uint64             { return m.frame }
func (m *Manager) Profile() physics.Profile  { return m.profile }
func (m *Manager) Accumulated() float64      { return m.acc.Pending() }
func (m *Manager) DroppedTime() float64      { return m.acc.Dropped() }
func (m *Manager) AddMetric(mt Metric)       { m.metrics = append(m.metrics, mt) }
func (m *Manager) Metrics() []Metric         { return m.metrics }

// MetricValues collects the current value of every registered metric.
func (m *Manager) MetricValues() map[string]float64 {
	out := make(map[string]float64, len(m.metrics))
	for _, mt := range m.metrics {
		out[mt.Name()] = mt.Value()
	}
	return out
}

// Summary condenses the grid into a persistable snapshot.
func (m *Manager) Summary(trackID string) storage.Summary {
	avg := m.grid.Averages()
	return storage.Summary{
		TrackID:    trackID,
		AvgRubber:  avg.Rubber,
		AvgMarbles: avg.Marbles,
		AvgTemp:    avg.Temp,
		Timestamp:  m.now(),
	}
}

// SaveSummary writes the session summary. Failures are logged and otherwise
// ignored.
func (m *Manager) SaveSummary(store SummarySaver, trackID string) {
	if store == nil {
		return
	}
	if err := store.Save(m.Summary(trackID)); err != nil {
		m.logger.Warn("failed to save track summary", "track", trackID, "error", err)
		return
	}
	m.logger.Info("track summary saved", "track", trackID)
}
