// Package event carries solver progress out of ga/bh to callers (a CLI, a
// dashboard, a test) via a non-blocking channel, grounded on lvlath/bfs's
// visitor-hook idiom (bfs/types.go) turned into an explicit event-channel bus
// since, unlike a single synchronous callback, multiple consumers (logging,
// telemetry, a UI) need to observe the same stream without slowing the solver
// down.
package event

import "github.com/clustermin/clustermin/species"

// Kind discriminates the Event sum type. The fixed set is: Log,
// WorkerHeartbeat, GenerationUpdate, NewBest, Finished. Finished is always the
// last event a Bus ever emits for a given run.
type Kind int

const (
	Log Kind = iota
	WorkerHeartbeat
	GenerationUpdate
	NewBest
	Finished
)

func (k Kind) String() string {
	switch k {
	case Log:
		return "Log"
	case WorkerHeartbeat:
		return "WorkerHeartbeat"
	case GenerationUpdate:
		return "GenerationUpdate"
	case NewBest:
		return "NewBest"
	case Finished:
		return "Finished"
	default:
		return "Unknown"
	}
}

// Event is the single value type carried on a Bus. Only the fields relevant
// to Kind are populated; the rest are zero.
type Event struct {
	Kind Kind

	// Log
	Level   string
	Message string

	// WorkerHeartbeat
	WorkerID     int
	OpsPerSecond float64

	// GenerationUpdate
	Generation     int
	PopulationSize int
	ValidCount     int
	Diversity      float64
	MutationRate   float64
	BestEnergy     *float64
	AvgEnergy      *float64
	WorstEnergy    *float64

	// NewBest
	Best *species.Cluster

	// Finished
	Reason string
}
