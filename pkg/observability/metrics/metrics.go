package metrics

import (
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
)

var (
	patientsAdmitted     atomic.Int64
	simulationSteps      atomic.Int64
	evaluationsSucceeded atomic.Int64
	evaluationsFailed    atomic.Int64
	activePatients       atomic.Int64
	icuBedsOccupied      atomic.Int64
	wardBedsOccupied     atomic.Int64
	alertsRaised         atomic.Int64
)

func ObserveAdmission() {
	patientsAdmitted.Add(1)
}

func ObserveEvaluation(ok bool) {
	if ok {
		evaluationsSucceeded.Add(1)
		return
	}
	evaluationsFailed.Add(1)
}

func ObserveStep(active int) {
	simulationSteps.Add(1)
	activePatients.Store(int64(active))
}

func ObserveLedger(icuOccupied, wardOccupied int) {
	icuBedsOccupied.Store(int64(icuOccupied))
	wardBedsOccupied.Store(int64(wardOccupied))
}

func ObserveAlert() {
	alertsRaised.Add(1)
}

type sample struct {
	name  string
	kind  string
	help  string
	value int64
}

func snapshot() []sample {
	return []sample{
		{"medicast_triage_patients_admitted_total", "counter", "Number of patients admitted since start.", patientsAdmitted.Load()},
		{"medicast_triage_simulation_steps_total", "counter", "Number of simulation steps run since start.", simulationSteps.Load()},
		{"medicast_triage_evaluations_succeeded_total", "counter", "Number of decision service evaluations applied.", evaluationsSucceeded.Load()},
		{"medicast_triage_evaluations_failed_total", "counter", "Number of decision service evaluations that failed.", evaluationsFailed.Load()},
		{"medicast_triage_active_patients", "gauge", "Non-discharged patients seen by the latest simulation step.", activePatients.Load()},
		{"medicast_ledger_icu_beds_occupied", "gauge", "ICU beds occupied after the latest ledger tick.", icuBedsOccupied.Load()},
		{"medicast_ledger_ward_beds_occupied", "gauge", "Ward beds occupied after the latest ledger tick.", wardBedsOccupied.Load()},
		{"medicast_alerts_raised_total", "counter", "Number of alerts raised from evaluation events.", alertsRaised.Load()},
	}
}

func WritePrometheus(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	writeSamples(w)
}

func writeSamples(w io.Writer) {
	for _, s := range snapshot() {
		fmt.Fprintf(w, "# HELP %s %s\n", s.name, s.help)
		fmt.Fprintf(w, "# TYPE %s %s\n", s.name, s.kind)
		fmt.Fprintf(w, "%s %d\n", s.name, s.value)
	}
}

// Handler exposes WritePrometheus as an http.HandlerFunc.
func Handler(w http.ResponseWriter, _ *http.Request) {
	WritePrometheus(w)
}
