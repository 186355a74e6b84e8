package metrics

// NopMetrics discards every metric
type NopMetrics struct{}

var _ Recorder = (*NopMetrics)(nil)

// NewNop creates a new no-op recorder
func NewNop() *NopMetrics {
	return &NopMetrics{}
}

func (n *NopMetrics) RecordRun(_ string, _ float64) {}

func (n *NopMetrics) RecordAssignments(_, _ int) {}

func (n *NopMetrics) RecordSwaps(_ string, _ int) {}

func (n *NopMetrics) RecordStagnation(_ string) {}
