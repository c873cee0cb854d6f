// SPDX-License-Identifier: BSD-3-Clause

package cmdtracker

// Job tracks one logical command request: a set of NUT targets, each
// resolved either immediately (the send itself failed, or NUT accepted
// the command without granting a tracking ID) or later via a polled
// tracking ID. success AND-accumulates every target's outcome; the job
// is done once every expected target has reported in, generalizing the
// source's "pending tracking-ID set is empty" condition to also cover
// targets that never produced a tracking ID to poll.
type Job struct {
	CorrelationID string

	expected int
	resolved int
	success  bool
	pending  map[string]struct{}
}

// NewJob constructs a Job expecting outcomes for expected targets.
func NewJob(correlationID string, expected int) *Job {
	return &Job{
		CorrelationID: correlationID,
		expected:      expected,
		success:       true,
		pending:       make(map[string]struct{}),
	}
}

// Track registers a tracking ID returned by NUT for one of this job's
// targets; its outcome arrives later via Resolve.
func (j *Job) Track(trackingID string) {
	j.pending[trackingID] = struct{}{}
}

// Resolve accounts one target's outcome, AND-accumulating into the
// job's aggregate success, and reports whether every expected target
// has now resolved. trackingID is empty for a target resolved without
// ever being tracked.
func (j *Job) Resolve(trackingID string, result bool) (done bool) {
	if trackingID != "" {
		delete(j.pending, trackingID)
	}
	j.resolved++
	j.success = j.success && result
	return j.resolved >= j.expected
}

// Pending returns the tracking IDs still awaiting a poll result.
func (j *Job) Pending() []string {
	ids := make([]string, 0, len(j.pending))
	for id := range j.pending {
		ids = append(ids, id)
	}
	return ids
}

// Success returns the job's AND-accumulated result so far.
func (j *Job) Success() bool {
	return j.success
}
