package bias

import (
	"fmt"
	"sync"
)

// Record is one row of an uploaded evaluation dataset.
type Record map[string]any

// FeatureMetrics holds disparity metrics for one protected feature.
type FeatureMetrics struct {
	Outcomes     map[string]float64 `json:"outcomes"`
	Disparities  map[string]float64 `json:"disparities"`
	MaxDisparity float64            `json:"max_disparity"`
}

// DatasetResult is the stored outcome of one analysis.
type DatasetResult struct {
	Profile Profile                   `json:"profile"`
	Metrics map[string]FeatureMetrics `json:"bias_metrics,omitempty"`
}

// Profile is a minimal dataset profile. The tracker is a placeholder; a real
// profiler can be swapped in behind the same methods.
type Profile struct {
	Name    string   `json:"name"`
	Columns []string `json:"columns"`
}

// Tracker runs bias analyses over in-memory datasets.
type Tracker struct {
	mu      sync.Mutex
	results map[string]DatasetResult
}

func NewTracker() *Tracker {
	return &Tracker{results: make(map[string]DatasetResult)}
}

// ProfileDataset records the column layout of a dataset.
func (t *Tracker) ProfileDataset(records []Record, datasetName string) Profile {
	cols := make(map[string]struct{})
	for _, r := range records {
		for k := range r {
			cols[k] = struct{}{}
		}
	}
	columns := make([]string, 0, len(cols))
	for k := range cols {
		columns = append(columns, k)
	}
	p := Profile{Name: datasetName, Columns: columns}

	t.mu.Lock()
	t.results[datasetName] = DatasetResult{Profile: p}
	t.mu.Unlock()
	return p
}

// AnalyzeBias computes per-group positive-outcome rates for a binary target
// column and the disparity of each group against the best-performing one.
func (t *Tracker) AnalyzeBias(records []Record, protectedFeatures []string, targetColumn, datasetName string) (map[string]FeatureMetrics, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("bias: empty dataset %q", datasetName)
	}
	t.ProfileDataset(records, datasetName)

	metrics := make(map[string]FeatureMetrics)
	for _, feature := range protectedFeatures {
		sums := make(map[string]float64)
		counts := make(map[string]int)
		distinct := make(map[float64]struct{})

		for _, r := range records {
			group := fmt.Sprintf("%v", r[feature])
			outcome, ok := toFloat(r[targetColumn])
			if !ok {
				return nil, fmt.Errorf("bias: target column %q is not numeric", targetColumn)
			}
			distinct[outcome] = struct{}{}
			sums[group] += outcome
			counts[group]++
		}

		outcomes := make(map[string]float64)
		// rates are only meaningful for a binary target
		if len(distinct) == 2 {
			for g, sum := range sums {
				outcomes[g] = sum / float64(counts[g])
			}
		}

		disparities := make(map[string]float64)
		if len(outcomes) > 0 {
			baseline := 0.0
			for _, rate := range outcomes {
				if rate > baseline {
					baseline = rate
				}
			}
			for g, rate := range outcomes {
				disparities[g] = baseline - rate
			}
		}

		maxDisparity := 0.0
		for _, d := range disparities {
			if d > maxDisparity {
				maxDisparity = d
			}
		}

		metrics[feature] = FeatureMetrics{
			Outcomes:     outcomes,
			Disparities:  disparities,
			MaxDisparity: maxDisparity,
		}
	}

	t.mu.Lock()
	res := t.results[datasetName]
	res.Metrics = metrics
	t.results[datasetName] = res
	t.mu.Unlock()
	return metrics, nil
}

// Results returns the stored result for one dataset, or all of them when
// datasetName is empty.
func (t *Tracker) Results(datasetName string) map[string]DatasetResult {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(map[string]DatasetResult)
	if datasetName != "" {
		if r, ok := t.results[datasetName]; ok {
			out[datasetName] = r
		}
		return out
	}
	for k, v := range t.results {
		out[k] = v
	}
	return out
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case bool:
		if x {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
}
