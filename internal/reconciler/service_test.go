package reconciler

import (
	"context"
	"errors"
	"testing"

	"github.com/nyumbahq/nyumba-backend/pkg/logger"
)

type fakeLock struct {
	acquired bool
	held     bool
}

func (f *fakeLock) Acquire(context.Context) (bool, error) {
	if f.held || f.acquired {
		return false, nil
	}
	f.acquired = true
	return true, nil
}

func (f *fakeLock) Release(context.Context) error { f.acquired = false; return nil }

type testJob struct {
	name string
	err  error
	runs int
}

func (t *testJob) Name() string { return t.name }

func (t *testJob) Run(context.Context) error {
	t.runs++
	return t.err
}

func newTestService(t *testing.T, lock Lock, jobs ...Job) *Service {
	t.Helper()
	service, err := NewService(ServiceParams{
		Logger:   logger.New(logger.Options{ServiceName: "reconciler-test"}),
		Registry: NewRegistry(jobs...),
		Lock:     lock,
		Interval: 0,
	})
	if err != nil {
		t.Fatalf("construct service: %v", err)
	}
	return service
}

func TestServiceRunCycleRunsAllSweepsEvenOnFailure(t *testing.T) {
	success := &testJob{name: "success"}
	failure := &testJob{name: "fail", err: errors.New("boom")}
	service := newTestService(t, &fakeLock{}, success, failure)

	if err := service.runCycle(context.Background()); err != nil {
		t.Fatalf("run cycle: %v", err)
	}
	if success.runs != 1 {
		t.Fatalf("expected success sweep to run once, ran %d", success.runs)
	}
	if failure.runs != 1 {
		t.Fatalf("expected failing sweep to still run once, ran %d", failure.runs)
	}
}

func TestServiceRunCycleSkipsWhenLockHeld(t *testing.T) {
	job := &testJob{name: "sweep"}
	service := newTestService(t, &fakeLock{held: true}, job)

	if err := service.runCycle(context.Background()); err != nil {
		t.Fatalf("run cycle: %v", err)
	}
	if job.runs != 0 {
		t.Fatalf("expected sweep skipped while lock held, ran %d", job.runs)
	}
}

func TestServiceRunJobByName(t *testing.T) {
	first := &testJob{name: "first"}
	second := &testJob{name: "second"}
	service := newTestService(t, &fakeLock{}, first, second)

	if err := service.RunJob(context.Background(), "second"); err != nil {
		t.Fatalf("run job: %v", err)
	}
	if first.runs != 0 {
		t.Fatalf("untargeted sweep should not run, ran %d", first.runs)
	}
	if second.runs != 1 {
		t.Fatalf("expected targeted sweep to run once, ran %d", second.runs)
	}
}

func TestServiceRunJobUnknownName(t *testing.T) {
	service := newTestService(t, &fakeLock{})
	if err := service.RunJob(context.Background(), "missing"); err == nil {
		t.Fatal("expected error for unknown sweep")
	}
}
