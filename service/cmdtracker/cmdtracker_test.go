// SPDX-License-Identifier: BSD-3-Clause

package cmdtracker

import (
	"context"
	"testing"

	"github.com/u-bmc/nut-bridge/pkg/log"
	"github.com/u-bmc/nut-bridge/pkg/nutclient"
)

type fakeClient struct {
	send func(ctx context.Context, device, cmd, arg string) (string, error)
	poll func(ctx context.Context, id string) (nutclient.TrackingStatus, error)
}

func (f *fakeClient) SendInstantCommand(ctx context.Context, device, cmd, arg string) (string, error) {
	return f.send(ctx, device, cmd, arg)
}

func (f *fakeClient) PollTracking(ctx context.Context, id string) (nutclient.TrackingStatus, error) {
	return f.poll(ctx, id)
}

func (f *fakeClient) Close() error { return nil }

func newTestTracker(client commandClient) *CmdTracker {
	t := New()
	t.client = client
	t.logger = log.GetGlobalLogger()
	return t
}

func TestSubmitEntryTracksWhenGrantedID(t *testing.T) {
	tr := newTestTracker(&fakeClient{
		send: func(ctx context.Context, device, cmd, arg string) (string, error) { return "trk-1", nil },
	})
	job := NewJob("corr-1", 1)
	tr.jobs["corr-1"] = job

	tr.submitEntry(context.Background(), "corr-1", CommandEntry{Asset: "ups-1", Command: "load.off"})

	if tr.tracking["trk-1"] != "corr-1" {
		t.Fatalf("expected tracking ID registered against job, got %+v", tr.tracking)
	}
	pending := job.Pending()
	if len(pending) != 1 || pending[0] != "trk-1" {
		t.Fatalf("got %+v", pending)
	}
}

func TestSubmitEntryResolvesImmediatelyWhenNoTrackingGranted(t *testing.T) {
	tr := newTestTracker(&fakeClient{
		send: func(ctx context.Context, device, cmd, arg string) (string, error) { return "", nil },
	})
	job := NewJob("corr-1", 1)
	tr.jobs["corr-1"] = job

	tr.submitEntry(context.Background(), "corr-1", CommandEntry{Asset: "ups-1", Command: "load.off"})

	if _, ok := tr.jobs["corr-1"]; ok {
		t.Fatalf("expected job removed once its single entry resolved")
	}
}

func TestSubmitEntryResolvesFailureOnSendError(t *testing.T) {
	tr := newTestTracker(&fakeClient{
		send: func(ctx context.Context, device, cmd, arg string) (string, error) {
			return "", ErrCommunication
		},
	})
	job := NewJob("corr-1", 1)
	tr.jobs["corr-1"] = job

	tr.submitEntry(context.Background(), "corr-1", CommandEntry{Asset: "ups-1", Command: "load.off"})

	if _, ok := tr.jobs["corr-1"]; ok {
		t.Fatalf("expected job removed once its single failing entry resolved")
	}
}

func TestPollPendingCompletesJobOnSuccess(t *testing.T) {
	tr := newTestTracker(&fakeClient{
		poll: func(ctx context.Context, id string) (nutclient.TrackingStatus, error) {
			return nutclient.TrackingSuccess, nil
		},
	})
	job := NewJob("corr-1", 1)
	job.Track("trk-1")
	tr.jobs["corr-1"] = job
	tr.tracking["trk-1"] = "corr-1"

	if err := tr.pollPending(context.Background()); err != nil {
		t.Fatalf("pollPending: %v", err)
	}

	if _, ok := tr.jobs["corr-1"]; ok {
		t.Fatalf("expected job removed once its only tracking ID resolved")
	}
	if _, ok := tr.tracking["trk-1"]; ok {
		t.Fatalf("expected tracking ID forgotten once resolved")
	}
}

func TestPollPendingLeavesJobOpenWhilePending(t *testing.T) {
	tr := newTestTracker(&fakeClient{
		poll: func(ctx context.Context, id string) (nutclient.TrackingStatus, error) {
			return nutclient.TrackingPending, nil
		},
	})
	job := NewJob("corr-1", 1)
	job.Track("trk-1")
	tr.jobs["corr-1"] = job
	tr.tracking["trk-1"] = "corr-1"

	if err := tr.pollPending(context.Background()); err != nil {
		t.Fatalf("pollPending: %v", err)
	}

	if _, ok := tr.jobs["corr-1"]; !ok {
		t.Fatalf("expected job to remain open while tracking ID is still pending")
	}
}

func TestPollPendingReturnsErrorOnCommunicationFailure(t *testing.T) {
	tr := newTestTracker(&fakeClient{
		poll: func(ctx context.Context, id string) (nutclient.TrackingStatus, error) {
			return "", ErrCommunication
		},
	})
	job := NewJob("corr-1", 1)
	job.Track("trk-1")
	tr.jobs["corr-1"] = job
	tr.tracking["trk-1"] = "corr-1"

	if err := tr.pollPending(context.Background()); err == nil {
		t.Fatalf("expected pollPending to surface the communication error")
	}
}

func TestCompleteEntryIsNoOpForUnknownJob(t *testing.T) {
	tr := newTestTracker(&fakeClient{})
	tr.completeEntry(context.Background(), "unknown", "trk-1", true)
	// No panic and nothing to assert: the job was never registered.
}
