// Package metrics records scheduler run outcomes.
package metrics

// Run outcomes
const (
	OutcomeSaved  = "saved"
	OutcomeDryRun = "dry_run"
	OutcomeFailed = "failed"
)

// Recorder receives scheduler run metrics
type Recorder interface {
	// RecordRun counts a finished run by outcome and observes its duration
	RecordRun(outcome string, seconds float64)
	// RecordAssignments adds the filled and unfilled slot counts of a run
	RecordAssignments(assigned, unfilled int)
	// RecordSwaps adds the number of moves a balance pass made
	RecordSwaps(pass string, count int)
	// RecordStagnation counts a balance pass that stopped without reaching its tolerance
	RecordStagnation(pass string)
}
