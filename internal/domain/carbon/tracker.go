package carbon

import (
	"fmt"
	"math/rand"
	"sync"
	"time"
)

// Conversion factors used by the mock emission report.
const (
	kwhPerKgCO2    = 0.6
	treesPerKgCO2  = 16.5
	minMeasurement = 0.001
	maxMeasurement = 0.1
)

// Strategy is a canned mitigation suggestion.
type Strategy struct {
	Name                     string `json:"name"`
	Description              string `json:"description"`
	PotentialSavings         string `json:"potential_savings"`
	ImplementationDifficulty string `json:"implementation_difficulty"`
}

// Report summarises tracked emissions.
type Report struct {
	TotalEmissionsKg     float64    `json:"total_emissions_kg"`
	EnergyConsumptionKWh float64    `json:"energy_consumption_kwh"`
	Measurements         []float64  `json:"measurements"`
	TreesEquivalent      float64    `json:"trees_equivalent"`
	MitigationStrategies []Strategy `json:"mitigation_strategies"`
}

// Tracker is a placeholder emission tracker: measurements are synthesized,
// not read from hardware.
type Tracker struct {
	mu           sync.Mutex
	projectName  string
	initialized  bool
	tracking     bool
	measurements []float64
	total        float64
	rand         *rand.Rand
}

func NewTracker() *Tracker {
	return &Tracker{rand: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

// Initialize binds the tracker to a project. Must be called before Start.
func (t *Tracker) Initialize(projectName string) error {
	if projectName == "" {
		return fmt.Errorf("carbon: project name is required")
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.projectName = projectName
	t.initialized = true
	return nil
}

// Start begins a tracking window.
func (t *Tracker) Start() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.initialized {
		return fmt.Errorf("carbon: tracker not initialized")
	}
	t.tracking = true
	return nil
}

// Stop ends the tracking window and returns the measured emissions in kg
// CO2eq. Returns 0 when tracking was never started.
func (t *Tracker) Stop() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.tracking || !t.initialized {
		return 0
	}
	emissions := minMeasurement + t.rand.Float64()*(maxMeasurement-minMeasurement)
	t.tracking = false
	t.measurements = append(t.measurements, emissions)
	t.total += emissions
	return emissions
}

func (t *Tracker) IsTracking() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.tracking
}

func (t *Tracker) TotalEmissions() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.total
}

func (t *Tracker) Measurements() []float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]float64, len(t.measurements))
	copy(out, t.measurements)
	return out
}

// GenerateReport converts the tracked totals into the emission report shape.
func (t *Tracker) GenerateReport() Report {
	t.mu.Lock()
	defer t.mu.Unlock()
	measurements := make([]float64, len(t.measurements))
	copy(measurements, t.measurements)
	return Report{
		TotalEmissionsKg:     t.total,
		EnergyConsumptionKWh: t.total / kwhPerKgCO2,
		Measurements:         measurements,
		TreesEquivalent:      t.total * treesPerKgCO2,
		MitigationStrategies: MitigationStrategies(),
	}
}

// MitigationStrategies returns the static suggestion list embedded in every
// emission report.
func MitigationStrategies() []Strategy {
	return []Strategy{
		{
			Name:                     "Optimize AI Model Size",
			Description:              "Reduce model parameters and optimize architecture",
			PotentialSavings:         "20-60% reduction in emissions",
			ImplementationDifficulty: "Medium",
		},
		{
			Name:                     "Implement Model Distillation",
			Description:              "Create smaller, efficient versions of larger models",
			PotentialSavings:         "40-80% reduction in emissions",
			ImplementationDifficulty: "High",
		},
		{
			Name:                     "Use Efficient Hardware",
			Description:              "Deploy on energy-efficient hardware (e.g., specialized AI chips)",
			PotentialSavings:         "30-50% reduction in emissions",
			ImplementationDifficulty: "Medium",
		},
	}
}
