// SPDX-License-Identifier: BSD-3-Clause

package cmdtracker

import "testing"

func TestJobDoneOnlyAfterEveryTargetResolves(t *testing.T) {
	j := NewJob("corr-1", 2)
	j.Track("t1")
	j.Track("t2")

	if done := j.Resolve("t1", true); done {
		t.Fatalf("expected job not done with one target still pending")
	}
	if done := j.Resolve("t2", true); !done {
		t.Fatalf("expected job done once every target resolved")
	}
	if !j.Success() {
		t.Fatalf("expected success when every target succeeded")
	}
}

func TestJobSuccessIsANDAccumulated(t *testing.T) {
	j := NewJob("corr-1", 2)
	j.Track("t1")
	j.Track("t2")

	j.Resolve("t1", true)
	done := j.Resolve("t2", false)
	if !done {
		t.Fatalf("expected job done")
	}
	if j.Success() {
		t.Fatalf("expected one failing target to fail the whole job")
	}
}

func TestJobCountsUntrackedEntriesTowardCompletion(t *testing.T) {
	// A target whose send failed outright, or whose command was accepted
	// without a tracking ID, never enters the pending set but still
	// counts toward the job's expected total.
	j := NewJob("corr-1", 2)
	j.Track("t1")

	if done := j.Resolve("", true); done {
		t.Fatalf("expected job not done with one tracked target still pending")
	}
	if done := j.Resolve("t1", true); !done {
		t.Fatalf("expected job done once the tracked target also resolved")
	}
}

func TestJobPendingListsOnlyTrackedIDs(t *testing.T) {
	j := NewJob("corr-1", 2)
	j.Track("t1")
	j.Resolve("", true)

	pending := j.Pending()
	if len(pending) != 1 || pending[0] != "t1" {
		t.Fatalf("got %+v", pending)
	}
}
