package event

import (
	"math"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/clustermin/clustermin/fingerprint"
	"github.com/clustermin/clustermin/species"
)

// DefaultHistoryCapacity bounds the rolling generation-statistics history
// kept in memory (supplemented feature, grounded on original_source's run
// history buffer).
const DefaultHistoryCapacity = 500

// DefaultHallOfFameCapacity bounds the number of distinct best clusters kept.
const DefaultHallOfFameCapacity = 20

// HistoryEntry is one recorded GenerationUpdate snapshot.
type HistoryEntry struct {
	Generation     int
	PopulationSize int
	ValidCount     int
	Diversity      float64
	MutationRate   float64
	BestEnergy     *float64
	AvgEnergy      *float64
	WorstEnergy    *float64
}

// Telemetry consumes a Bus and accumulates a rolling history and a hall of
// fame, while mirroring live values onto Prometheus gauges. Safe for
// concurrent use: Record may run on the consuming goroutine while Snapshot is
// called from an HTTP handler or test.
type Telemetry struct {
	mu sync.Mutex

	historyCap int
	fameCap    int

	history []HistoryEntry

	// hallOfFame holds at most fameCap unique isomers, oldest-insertion
	// first; fameIndex maps each entry's dedup key to its slot so a later
	// NewBest for the same isomer replaces in place instead of appending
	// (spec §6: "unique clusters by fingerprint, with in-place replacement
	// if a lower-energy isomer appears").
	hallOfFame []fameEntry
	fameIndex  map[string]int

	opsPerSecond prometheus.Gauge
	diversity    prometheus.Gauge
	mutationRate prometheus.Gauge
	bestEnergyEV prometheus.Gauge
}

// fameEntry pairs a hall-of-fame cluster with the dedup key it was filed
// under (its fingerprint, or a synthetic per-cluster key for a degenerate
// fingerprint that must never be deduplicated against anything else).
type fameEntry struct {
	key     string
	cluster *species.Cluster
}

// NewTelemetry constructs a Telemetry and registers its gauges with reg. A
// nil reg skips Prometheus registration (useful in tests).
func NewTelemetry(reg prometheus.Registerer) *Telemetry {
	t := &Telemetry{
		historyCap: DefaultHistoryCapacity,
		fameCap:    DefaultHallOfFameCapacity,
		fameIndex:  make(map[string]int),
		opsPerSecond: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "clustermin_worker_ops_per_second",
			Help: "Most recently reported evaluator throughput, in evaluations per second.",
		}),
		diversity: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "clustermin_population_diversity",
			Help: "Fraction of the most recent generation's evaluated candidates that survived fingerprint deduplication.",
		}),
		mutationRate: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "clustermin_mutation_rate",
			Help: "Current effective mutation rate, after any hyper-mutation adjustment.",
		}),
		bestEnergyEV: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "clustermin_best_energy_ev",
			Help: "Energy of the best cluster found so far, in eV.",
		}),
	}
	if reg != nil {
		reg.MustRegister(t.opsPerSecond, t.diversity, t.mutationRate, t.bestEnergyEV)
	}
	return t
}

// Consume ranges over bus until it closes, recording every event. Intended to
// run on its own goroutine.
func (t *Telemetry) Consume(bus *Bus) {
	for ev := range bus.Events() {
		t.Record(ev)
	}
}

// Record updates history/hall-of-fame/gauges for a single event.
func (t *Telemetry) Record(ev Event) {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch ev.Kind {
	case WorkerHeartbeat:
		t.opsPerSecond.Set(ev.OpsPerSecond)

	case GenerationUpdate:
		t.diversity.Set(ev.Diversity)
		t.mutationRate.Set(ev.MutationRate)
		if ev.BestEnergy != nil {
			t.bestEnergyEV.Set(*ev.BestEnergy)
		}
		entry := HistoryEntry{
			Generation:     ev.Generation,
			PopulationSize: ev.PopulationSize,
			ValidCount:     ev.ValidCount,
			Diversity:      ev.Diversity,
			MutationRate:   ev.MutationRate,
			BestEnergy:     ev.BestEnergy,
			AvgEnergy:      ev.AvgEnergy,
			WorstEnergy:    ev.WorstEnergy,
		}
		t.history = append(t.history, entry)
		if len(t.history) > t.historyCap {
			t.history = t.history[len(t.history)-t.historyCap:]
		}

	case NewBest:
		if ev.Best != nil {
			t.bestEnergyEV.Set(valueOrInf(ev.Best.Energy))
			t.recordBest(ev.Best)
		}
	}
}

// recordBest files c into the hall of fame keyed by fingerprint: an isomer
// already present is replaced in place only if c is strictly lower-energy,
// never appended as a duplicate; a new isomer is appended and, past
// fameCap, evicts the oldest entry. A degenerate fingerprint (empty, or one
// fingerprint.IsDegenerate rejects) is keyed by cluster ID instead, since
// spec §4.3 requires those to be treated as always-unique.
func (t *Telemetry) recordBest(c *species.Cluster) {
	clone := c.Clone()
	key := clone.Fingerprint
	if key == "" || fingerprint.IsDegenerate(key) {
		key = "id:" + clone.ID
	}

	if idx, ok := t.fameIndex[key]; ok {
		existing := t.hallOfFame[idx].cluster
		if existing.Energy != nil && clone.Energy != nil && *clone.Energy < *existing.Energy {
			t.hallOfFame[idx].cluster = clone
		}
		return
	}

	t.hallOfFame = append(t.hallOfFame, fameEntry{key: key, cluster: clone})
	t.fameIndex[key] = len(t.hallOfFame) - 1
	if len(t.hallOfFame) > t.fameCap {
		evicted := t.hallOfFame[0]
		t.hallOfFame = t.hallOfFame[1:]
		delete(t.fameIndex, evicted.key)
		for k, i := range t.fameIndex {
			t.fameIndex[k] = i - 1
		}
	}
}

func valueOrInf(e *float64) float64 {
	if e == nil {
		return math.Inf(1)
	}
	return *e
}

// History returns a copy of the rolling generation-statistics history,
// oldest first.
func (t *Telemetry) History() []HistoryEntry {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]HistoryEntry, len(t.history))
	copy(out, t.history)
	return out
}

// HallOfFame returns a copy of the retained best-cluster list, oldest first.
func (t *Telemetry) HallOfFame() []*species.Cluster {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]*species.Cluster, len(t.hallOfFame))
	for i, e := range t.hallOfFame {
		out[i] = e.cluster.Clone()
	}
	return out
}
