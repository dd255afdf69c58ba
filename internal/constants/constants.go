// Package constants holds the physical and rate constants shared by the
// surface simulation. Nothing here depends on any other package.
package constants

// Grip model.
const (
	GripOptimalTemp     = 42.0
	GripRubberGain      = 0.06
	GripMarblePenalty   = 0.25
	GripDustPenalty     = 0.10
	GripThermalPenalty  = 0.00008
	GripFloor           = 0.1
	GlobalGripMin       = 0.2
	GlobalGripMax       = 1.2
	DefaultGlobalGrip   = 1.0
	ExtendedRubberGain  = 0.08
	ExtendedRubberShape = 5.0
)

// Thermal model.
const (
	StefanBoltzmann   = 5.67e-8
	Emissivity        = 0.95
	SolarAbsorptivity = 0.9
	KelvinOffset      = 273.15
	SkyTempDepression = 20.0
	SubSurfaceRelax   = 0.01

	// CellMass is a fixed thermal mass per cell (kg). It is not derived from
	// the real cell volume.
	CellMass = 5.0

	// ConductionDepth is the surface to sub-surface distance in meters.
	ConductionDepth = 0.05
)

// Deposition model.
const (
	RubberSlipCutoffGain = 2.0
	MarbleSlipThreshold  = 0.1
	TrafficDustCleaning  = 0.05
	MarbleScatterShare   = 0.25

	// FrictionHeatFactor converts |slip*load*dt| into joules. Heuristic, tune
	// per car class.
	FrictionHeatFactor = 5000.0
)

// Passive relaxation.
const (
	StormDustGain        = 10.0
	MarbleBaseDecay      = 0.001
	MarbleWindDecay      = 0.001
	RubberGlazeThreshold = 0.5
	RubberGlazeRate      = 0.0001
	LateralDiffusion     = 0.5
)

// Extended rule set.
const (
	DegradationOnsetTemp  = 45.0
	DegradationRate       = 0.0005
	DegradationScale      = 10.0
	ExtendedSlipThreshold = 0.4
	ExtendedMarbleRate    = 0.02
	MarbleMigrationRate   = 0.002
	DustCleaningSpeed     = 10.0
	DustCleaningRate      = 0.0005
)

// Atmosphere.
const (
	SecondsPerDay      = 86400.0
	SecondsPerHour     = 3600.0
	HoursPerDay        = 24.0
	SunriseHour        = 6.0
	DaylightHours      = 12.0
	PeakSolarRadiation = 1000.0
	BaseAmbientTemp    = 20.0
	SolarAmbientGain   = 10.0
	AmbientNoise       = 0.05
	WindNoise          = 0.1
	MaxWindSpeed       = 15.0
	StormChance        = 0.001
	StormGrowth        = 0.05
	StormDecay         = 0.001
	StormDustThreshold = 0.1
	StormDustRate      = 0.001
)
