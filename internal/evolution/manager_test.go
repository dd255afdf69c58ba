package evolution_test

import (
	"errors"
	"io"
	"log/slog"
	"math"
	"slices"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/trackevo/internal/atmosphere"
	"github.com/san-kum/trackevo/internal/config"
	"github.com/san-kum/trackevo/internal/evolution"
	"github.com/san-kum/trackevo/internal/grip"
	"github.com/san-kum/trackevo/internal/physics"
	"github.com/san-kum/trackevo/internal/storage"
	"github.com/san-kum/trackevo/internal/surface"
)

// calmSource yields zero noise and never starts a storm.
type calmSource struct{}

func (calmSource) Float64() float64 { return 0.5 }

type countingMetric struct{ n int }

func (c *countingMetric) Name() string                            { return "observations" }
func (c *countingMetric) Observe(*surface.Grid, atmosphere.State) { c.n++ }
func (c *countingMetric) Value() float64                          { return float64(c.n) }
func (c *countingMetric) Reset()                                  { c.n = 0 }

type failingStore struct{ calls int }

func (f *failingStore) Save(storage.Summary) error {
	f.calls++
	return errors.New("disk full")
}

func testOptions() evolution.Options {
	opts := evolution.DefaultOptions()
	opts.Track = surface.Dims{SSegments: 40, LatSegments: 8, TrackLength: 400, TrackWidth: 12}
	opts.StartHour = 0
	opts.Source = calmSource{}
	opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	return opts
}

func newManager(mutate func(*evolution.Options)) *evolution.Manager {
	opts := testOptions()
	if mutate != nil {
		mutate(&opts)
	}
	m, err := evolution.New(opts)
	Expect(err).NotTo(HaveOccurred())
	return m
}

var _ = Describe("Manager", func() {
	var m *evolution.Manager

	BeforeEach(func() {
		m = newManager(nil)
	})

	Describe("construction", func() {
		It("fills the grid with initial dust and track ambient temperature", func() {
			c := m.Grid().Cell(0, 0)
			Expect(c.Dust).To(Equal(config.DefaultInitialDust))
			Expect(c.SurfaceTemp).To(Equal(atmosphere.DefaultState().TrackAmbientTemp))
			Expect(c.SubSurfaceTemp).To(Equal(c.SurfaceTemp))
		})

		It("rejects too few lateral segments", func() {
			opts := testOptions()
			opts.Track.LatSegments = 2
			_, err := evolution.New(opts)
			Expect(errors.Is(err, surface.ErrInvalidDimensions)).To(BeTrue())
		})

		It("rejects zero specific heat", func() {
			opts := testOptions()
			opts.Evolution.TrackSpecificHeat = 0
			_, err := evolution.New(opts)
			Expect(errors.Is(err, config.ErrInvalid)).To(BeTrue())
		})

		It("maps an unknown profile name to an invalid config", func() {
			cfg := config.DefaultConfig()
			cfg.Profile = "wet"
			_, err := evolution.OptionsFromConfig(cfg)
			Expect(errors.Is(err, config.ErrInvalid)).To(BeTrue())
		})
	})

	Describe("Tick", func() {
		It("leaves the buffer untouched while disabled", func() {
			Expect(m.SetConfig(config.Patch{Enabled: config.Bool(false)})).To(Succeed())
			before := slices.Clone(m.Grid().RawBuffer())

			for _, dt := range []float64{0.01, 0.1, 1, 60, 3600} {
				m.Tick(dt)
			}
			m.ApplyTireContact(100, 0, 1, 0.6, 0.1)

			Expect(m.Grid().RawBuffer()).To(Equal(before))
			Expect(m.Frame()).To(BeZero())
		})

		It("produces the same state for two half steps as for one full step", func() {
			other := newManager(nil)

			m.Tick(0.05)
			m.Tick(0.05)
			other.Tick(0.1)

			Expect(m.Frame()).To(Equal(uint64(1)))
			Expect(other.Frame()).To(Equal(uint64(1)))
			Expect(m.Grid().RawBuffer()).To(Equal(other.Grid().RawBuffer()))
			Expect(m.Atmosphere()).To(Equal(other.Atmosphere()))
		})

		It("carries time shorter than a step forward", func() {
			m.Tick(0.05)
			Expect(m.Frame()).To(BeZero())
			Expect(m.Accumulated()).To(BeNumerically("~", 0.05, 1e-12))
		})

		It("caps the sub-steps drained after a stall", func() {
			m.Tick(100)
			Expect(m.Frame()).To(Equal(uint64(config.DefaultMaxSubSteps)))
			Expect(m.DroppedTime()).To(BeNumerically("~", 99, 1e-6))
			Expect(m.Accumulated()).To(BeNumerically("<", 0.1))
		})

		It("deposits dust during a storm", func() {
			storm := 1.0
			m.ApplyEnvironmentOverrides(atmosphere.Patch{DustStormIntensity: &storm})
			m.Tick(0.1)

			want := config.DefaultInitialDust + 0.999*0.001
			for _, v := range m.Field(surface.FieldDust) {
				Expect(v).To(BeNumerically("~", want, 1e-12))
			}
		})

		It("runs passive relaxation on its cadence", func() {
			Expect(m.SetConfig(config.Patch{PassiveEvery: config.Int(2)})).To(Succeed())
			m.Grid().WriteCell(3, 3, surface.Cell{Marbles: 0.5, Dust: 0.1, SurfaceTemp: 25, SubSurfaceTemp: 25})

			m.Tick(0.1)
			Expect(m.Grid().Cell(3, 3).Marbles).To(Equal(0.5))

			m.Tick(0.1)
			// wind 2 m/s over two 0.1 s steps
			Expect(m.Grid().Cell(3, 3).Marbles).To(BeNumerically("~", 0.5-0.003*0.2, 1e-12))
		})

		It("feeds registered metrics once per advancing tick", func() {
			mt := &countingMetric{}
			m.AddMetric(mt)

			m.Tick(0.05)
			m.Tick(0.05)
			m.Tick(0.3)

			Expect(mt.n).To(Equal(2))
			Expect(m.MetricValues()).To(HaveKeyWithValue("observations", 2.0))
		})
	})

	Describe("tire contact", func() {
		It("lays rubber and cleans dust without marbles at zero slip", func() {
			before := m.Grid().CellAt(120, 1)
			m.ApplyTireContact(120, 1, 1, 0, 1)
			after := m.Grid().CellAt(120, 1)

			Expect(after.Rubber).To(BeNumerically(">", before.Rubber))
			Expect(after.Dust).To(BeNumerically("<", before.Dust))
			Expect(after.Marbles).To(Equal(before.Marbles))
			Expect(after.SurfaceTemp).To(Equal(before.SurfaceTemp))
			Expect(after.PassingVolume).To(Equal(before.PassingVolume + 1))
		})

		It("injects friction heat proportional to slip and load", func() {
			before := m.Grid().CellAt(50, 0).SurfaceTemp
			m.ApplyTireContact(50, 0, 1, 0.5, 0.01)

			want := 0.5 * 1 * 5000 * 0.01 / (5 * config.DefaultSpecificHeat)
			Expect(m.Grid().CellAt(50, 0).SurfaceTemp - before).To(BeNumerically("~", want, 1e-9))
		})

		It("returns the cell grip scaled by the global multiplier", func() {
			m.SetGlobalGripMultiplier(0.5)
			got := m.ApplyTireContact(200, -2, 1.5, 0.3, 0.1)

			base := grip.Of(m.Grid().CellAt(200, -2))
			Expect(got.Multiplier).To(BeNumerically("~", base.Multiplier*0.5, 1e-12))
			Expect(got.Components).To(Equal(base.Components))
			Expect(m.QueryGrip(200, -2)).To(Equal(got))
		})

		It("does not change the surface when only queried", func() {
			before := slices.Clone(m.Grid().RawBuffer())
			for s := 0.0; s < 400; s += 7.5 {
				m.QueryGrip(s, math.Sin(s)*6)
			}
			Expect(m.Grid().RawBuffer()).To(Equal(before))
		})

		It("sheds extra marbles under the extended profile", func() {
			ext := newManager(func(o *evolution.Options) { o.Profile = physics.ProfileExtended })
			Expect(ext.Profile()).To(Equal(physics.ProfileExtended))

			m.ApplyContact(evolution.Contact{S: 10, D: 0, Load: 1, Slip: 0.8, Speed: 30, Dt: 1})
			ext.ApplyContact(evolution.Contact{S: 10, D: 0, Load: 1, Slip: 0.8, Speed: 30, Dt: 1})

			std := m.Grid().CellAt(10, 0)
			got := ext.Grid().CellAt(10, 0)
			Expect(got.Marbles - std.Marbles).To(BeNumerically("~", 0.02*0.4, 1e-12))
			Expect(got.Dust).To(BeNumerically("<", std.Dust))
		})
	})

	Describe("configuration", func() {
		It("merges patches", func() {
			Expect(m.SetConfig(config.Patch{MarbleDiscardRate: config.Float(0.05)})).To(Succeed())
			Expect(m.Config().MarbleDiscardRate).To(Equal(0.05))
			Expect(m.Config().RubberTransferCoefficient).To(Equal(config.DefaultRubberTransfer))
		})

		It("rejects an invalid patch as a whole", func() {
			before := m.Config()
			err := m.SetConfig(config.Patch{
				MarbleDiscardRate: config.Float(0.05),
				TrackSpecificHeat: config.Float(0),
			})
			Expect(errors.Is(err, config.ErrInvalid)).To(BeTrue())
			Expect(m.Config()).To(Equal(before))
		})

		It("clamps the global grip multiplier", func() {
			m.SetGlobalGripMultiplier(5.0)
			Expect(m.GlobalGripMultiplier()).To(Equal(1.2))

			m.SetGlobalGripMultiplier(-1.0)
			Expect(m.GlobalGripMultiplier()).To(Equal(0.2))

			m.SetGlobalGripMultiplier(math.NaN())
			Expect(m.GlobalGripMultiplier()).To(Equal(0.2))
		})

		It("forwards environment overrides and clock control", func() {
			wind := -3.0
			m.ApplyEnvironmentOverrides(atmosphere.Patch{WindSpeed: &wind})
			Expect(m.Atmosphere().WindSpeed).To(BeZero())

			m.SetTimeOfDay(26)
			Expect(m.TimeOfDay()).To(BeNumerically("~", 2, 1e-9))
		})
	})

	Describe("visual fields", func() {
		It("follows the visualization mode", func() {
			vals, ok := m.VisualField()
			Expect(ok).To(BeTrue())
			Expect(vals).To(Equal(m.GripField()))

			Expect(m.SetConfig(config.Patch{VisualizationMode: config.String("dust")})).To(Succeed())
			vals, ok = m.VisualField()
			Expect(ok).To(BeTrue())
			Expect(vals).To(Equal(m.Field(surface.FieldDust)))

			Expect(m.SetConfig(config.Patch{VisualizationMode: config.String("none")})).To(Succeed())
			_, ok = m.VisualField()
			Expect(ok).To(BeFalse())
		})
	})

	Describe("summaries", func() {
		It("saves averages to the store", func() {
			stamp := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
			m = newManager(func(o *evolution.Options) { o.Now = func() time.Time { return stamp } })
			m.ApplyTireContact(0, 0, 1, 0, 1)

			st := storage.New(GinkgoT().TempDir())
			m.SaveSummary(st, "spa")

			sum, err := st.Load("spa")
			Expect(err).NotTo(HaveOccurred())
			Expect(sum.AvgRubber).To(BeNumerically("~", m.Grid().Averages().Rubber, 1e-15))
			Expect(sum.AvgTemp).To(BeNumerically("~", 25, 1e-9))
			Expect(sum.Timestamp.Equal(stamp)).To(BeTrue())
		})

		It("swallows store failures", func() {
			st := &failingStore{}
			Expect(func() { m.SaveSummary(st, "spa") }).NotTo(Panic())
			Expect(st.calls).To(Equal(1))
		})
	})
})
