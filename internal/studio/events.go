package studio

import "time"

// Event is an input to Apply: a user action or a service result.
type Event interface {
	isEvent()
}

// Submit starts a generation job for Prompt.
type Submit struct {
	Prompt string
}

// Recreate discards the last clip and regenerates it from the same prompt.
type Recreate struct{}

// AddClip returns to Idle so another prompt can be submitted.
type AddClip struct{}

// Finalize records the current preview in the library. At stamps the record.
type Finalize struct {
	At time.Time
}

// RetryMerge resubmits the full clip list after a failed merge.
type RetryMerge struct{}

// NewSession discards the current session and starts SessionID.
type NewSession struct {
	SessionID string
}

// JobSubmitted reports that the generation service accepted the job.
type JobSubmitted struct {
	Token uint64
	Job   JobHandle
}

// JobProgress reports a non-terminal poll result.
type JobProgress struct {
	Token  uint64
	Status JobStatus
	Logs   string
}

// JobSucceeded reports the finished clip URL.
type JobSucceeded struct {
	Token uint64
	URL   string
}

// JobFailed reports a submission, polling, or generation failure.
type JobFailed struct {
	Token uint64
	Err   error
}

// MergeSucceeded reports the stitched preview.
type MergeSucceeded struct {
	Token   uint64
	Preview Preview
}

// MergeFailed reports a stitch failure.
type MergeFailed struct {
	Token uint64
	Err   error
}

// Persisted reports the library record id for a finalize.
type Persisted struct {
	Token    uint64
	RecordID string
}

// PersistFailed reports a library failure during finalize.
type PersistFailed struct {
	Token uint64
	Err   error
}

func (Submit) isEvent()         {}
func (Recreate) isEvent()       {}
func (AddClip) isEvent()        {}
func (Finalize) isEvent()       {}
func (RetryMerge) isEvent()     {}
func (NewSession) isEvent()     {}
func (JobSubmitted) isEvent()   {}
func (JobProgress) isEvent()    {}
func (JobSucceeded) isEvent()   {}
func (JobFailed) isEvent()      {}
func (MergeSucceeded) isEvent() {}
func (MergeFailed) isEvent()    {}
func (Persisted) isEvent()      {}
func (PersistFailed) isEvent()  {}

// Effect is work Apply asks the caller to perform.
type Effect interface {
	isEffect()
}

// StartJob submits Prompt and polls it to completion.
type StartJob struct {
	Token  uint64
	Prompt string
}

// Merge stitches URLs in order.
type Merge struct {
	Token uint64
	URLs  []string
}

// Persist records Video in the library.
type Persist struct {
	Token uint64
	Video Video
}

// Handoff passes a finalized record to the scheduling subsystem.
type Handoff struct {
	RecordID string
	Video    Video
}

func (StartJob) isEffect() {}
func (Merge) isEffect()    {}
func (Persist) isEffect()  {}
func (Handoff) isEffect()  {}
