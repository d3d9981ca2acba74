package event_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/clustermin/clustermin/event"
	"github.com/clustermin/clustermin/species"
)

func energyPtr(v float64) *float64 { return &v }

func TestTelemetryRecordsGenerationHistory(t *testing.T) {
	tel := event.NewTelemetry(nil)

	for g := 0; g < 3; g++ {
		tel.Record(event.Event{
			Kind:           event.GenerationUpdate,
			Generation:     g,
			PopulationSize: 10,
			Diversity:      0.8,
			MutationRate:   0.2,
			BestEnergy:     energyPtr(-float64(g)),
		})
	}

	hist := tel.History()
	require.Len(t, hist, 3)
	require.Equal(t, 0, hist[0].Generation)
	require.Equal(t, 2, hist[2].Generation)
}

func TestTelemetryHistoryCapBounded(t *testing.T) {
	tel := event.NewTelemetry(nil)
	for g := 0; g < event.DefaultHistoryCapacity+10; g++ {
		tel.Record(event.Event{Kind: event.GenerationUpdate, Generation: g})
	}
	require.Len(t, tel.History(), event.DefaultHistoryCapacity)
}

func TestTelemetryHallOfFameCapBounded(t *testing.T) {
	tel := event.NewTelemetry(nil)
	for i := 0; i < event.DefaultHallOfFameCapacity+5; i++ {
		e := -float64(i)
		// Distinct fingerprints so every NewBest is a genuinely new isomer and
		// eviction, not deduplication, is what's under test here.
		tel.Record(event.Event{Kind: event.NewBest, Best: &species.Cluster{
			ID:          species.NewID(),
			Fingerprint: species.ShortID(species.NewID()),
			Energy:      &e,
		}})
	}
	require.Len(t, tel.HallOfFame(), event.DefaultHallOfFameCapacity)
}

func TestTelemetryHallOfFameReplacesInPlaceOnLowerEnergy(t *testing.T) {
	tel := event.NewTelemetry(nil)
	hi, lo := -1.0, -5.0

	tel.Record(event.Event{Kind: event.NewBest, Best: &species.Cluster{
		ID: "a", Fingerprint: "fp-shared", Energy: &hi,
	}})
	tel.Record(event.Event{Kind: event.NewBest, Best: &species.Cluster{
		ID: "b", Fingerprint: "fp-shared", Energy: &lo,
	}})

	fame := tel.HallOfFame()
	require.Len(t, fame, 1)
	require.Equal(t, "b", fame[0].ID)
	require.Equal(t, lo, *fame[0].Energy)
}

func TestTelemetryHallOfFameKeepsHigherEnergyInPlace(t *testing.T) {
	tel := event.NewTelemetry(nil)
	lo, hi := -5.0, -1.0

	tel.Record(event.Event{Kind: event.NewBest, Best: &species.Cluster{
		ID: "a", Fingerprint: "fp-shared", Energy: &lo,
	}})
	tel.Record(event.Event{Kind: event.NewBest, Best: &species.Cluster{
		ID: "b", Fingerprint: "fp-shared", Energy: &hi,
	}})

	fame := tel.HallOfFame()
	require.Len(t, fame, 1)
	require.Equal(t, "a", fame[0].ID)
	require.Equal(t, lo, *fame[0].Energy)
}

func TestTelemetryHallOfFameNeverDeduplicatesDegenerateFingerprints(t *testing.T) {
	tel := event.NewTelemetry(nil)
	e := -1.0

	for i := 0; i < 3; i++ {
		tel.Record(event.Event{Kind: event.NewBest, Best: &species.Cluster{
			ID: species.NewID(), Energy: &e, // Fingerprint left empty: degenerate.
		}})
	}

	require.Len(t, tel.HallOfFame(), 3)
}

func TestBusNeverDropsUnderLaggingConsumer(t *testing.T) {
	bus := event.NewBus(1)
	const n = 50
	for i := 0; i < n; i++ {
		bus.Send(event.Event{Kind: event.Log, Message: string(rune('a' + i%26))})
	}
	bus.Send(event.Event{Kind: event.Finished})
	bus.Close()

	var got []event.Event
	for ev := range bus.Events() {
		got = append(got, ev)
	}

	require.Len(t, got, n+1)
	require.Equal(t, event.Finished, got[len(got)-1].Kind)
}
