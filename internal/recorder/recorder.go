package recorder

import "FlowRadar/internal/model"

// Recorder keeps a write-only audit trail of reports. Nothing read back from
// it feeds later computation.
type Recorder interface {
	RecordScan(r *model.ScanReport) error
	RecordExplanation(e *model.Explanation) error
	Close() error
}
