package engine

import (
	"context"
	stderrs "errors"
	"fmt"
	"sync"
	"time"

	"github.com/groundwork-io/groundwork/internal/cloud"
	"github.com/groundwork-io/groundwork/internal/descriptor"
	"github.com/groundwork-io/groundwork/internal/errors"
	"github.com/groundwork-io/groundwork/internal/logging"
	"github.com/groundwork-io/groundwork/internal/packager"
)

const defaultParallelism = 4

// Status is a descriptor's terminal state at the end of a run.
type Status string

const (
	StatusCreated Status = "created"
	StatusReused  Status = "reused"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped" // a dependency failed first
)

// Outcome is the terminal record for one descriptor.
type Outcome struct {
	DescriptorID string
	Status       Status
	Err          error
}

// Event reports reconciliation progress.
type Event struct {
	DescriptorID string
	Status       string // "started", "created", "reused", "failed", "skipped"
	Duration     time.Duration
	Err          error
}

// EventCallback is invoked for each event if set.
type EventCallback func(Event)

// ArtifactPackager produces the code bundle a CodeArtifact descriptor
// uploads. Satisfied by packager.Packager.
type ArtifactPackager interface {
	Package(sourceDir string) (packager.Artifact, error)
}

// Result is the outcome of a full reconciliation run.
type Result struct {
	// Resolved holds one entry per descriptor that reached a resolved
	// identity, keyed by descriptor id. Entries are immutable for the
	// rest of the run.
	Resolved map[string]descriptor.Resolved

	// Outcomes lists every descriptor's terminal state in execution
	// order, including failures and skips.
	Outcomes []Outcome
}

// OK reports whether every descriptor resolved.
func (r *Result) OK() bool {
	for _, o := range r.Outcomes {
		if o.Status == StatusFailed || o.Status == StatusSkipped {
			return false
		}
	}
	return true
}

// FailedIDs returns the descriptor ids that failed or were skipped.
func (r *Result) FailedIDs() []string {
	var ids []string
	for _, o := range r.Outcomes {
		if o.Status == StatusFailed || o.Status == StatusSkipped {
			ids = append(ids, o.DescriptorID)
		}
	}
	return ids
}

// Reconciler drives a descriptor set to its resolved state. It is
// additive only: resources found to exist are reused, never mutated or
// deleted. Duplicate creation is prevented by the existence check, not
// by locking, so concurrent runs against one environment must be
// serialized by the operator.
type Reconciler struct {
	env      cloud.Environment
	prober   *Prober
	packager ArtifactPackager
	retry    *RetryPolicy

	// Parallelism caps concurrent remote calls across independent
	// branches of the dependency graph.
	Parallelism int

	// Timeout bounds each remote call (including its retries).
	Timeout time.Duration

	// Callback receives progress events.
	Callback EventCallback
}

// New returns a Reconciler bound to an environment. pkg may be nil when
// the set has no CodeArtifact descriptors.
func New(env cloud.Environment, pkg ArtifactPackager) *Reconciler {
	return &Reconciler{
		env:         env,
		prober:      NewProber(env),
		packager:    pkg,
		retry:       DefaultRetryPolicy(),
		Parallelism: defaultParallelism,
		Timeout:     DefaultTimeout,
	}
}

// Reconcile processes every descriptor to a terminal state and returns
// the full outcome table. Configuration errors abort before any remote
// call; remote failures are collected per branch and aggregated into
// the returned error, so independent branches always run to completion.
func (r *Reconciler) Reconcile(ctx context.Context, set *descriptor.Set) (*Result, error) {
	if err := set.Validate(); err != nil {
		return nil, err
	}
	dag, err := BuildDAG(set)
	if err != nil {
		return nil, err
	}

	// Package code bundles up front so a packaging failure blocks the
	// artifact descriptor (and, via gating, everything depending on it)
	// without touching the environment for that branch.
	artifacts, prefailed := r.packageArtifacts(set)

	parallelism := r.Parallelism
	if parallelism <= 0 {
		parallelism = defaultParallelism
	}

	var (
		mu        sync.Mutex
		cond      = sync.NewCond(&mu)
		completed = make(map[string]bool)
		failed    = make(map[string]bool)
		resolved  = make(map[string]descriptor.Resolved)
		outcomes  = make(map[string]Outcome)
		sem       = make(chan struct{}, parallelism)
		wg        sync.WaitGroup
	)

	emit := func(ev Event) {
		if r.Callback != nil {
			r.Callback(ev)
		}
	}

	mu.Lock()
	for id, perr := range prefailed {
		failed[id] = true
		outcomes[id] = Outcome{DescriptorID: id, Status: StatusFailed, Err: perr}
		emit(Event{DescriptorID: id, Status: "failed", Err: perr})
	}
	mu.Unlock()

	for _, id := range dag.Order() {
		if _, pre := prefailed[id]; pre {
			continue
		}
		d := set.ByID(id)

		wg.Add(1)
		go func(d *descriptor.Descriptor) {
			defer wg.Done()

			// Gate on dependencies reaching a terminal state.
			mu.Lock()
			for {
				depFailed := ""
				allReady := true
				for _, dep := range dag.Dependencies(d.ID) {
					if failed[dep] {
						depFailed = dep
						break
					}
					if !completed[dep] {
						allReady = false
						break
					}
				}
				if depFailed != "" {
					err := errors.ForDescriptor(errors.CodeReconciliation, d.ID,
						fmt.Sprintf("dependency %s did not resolve", depFailed))
					failed[d.ID] = true
					outcomes[d.ID] = Outcome{DescriptorID: d.ID, Status: StatusSkipped, Err: err}
					mu.Unlock()
					emit(Event{DescriptorID: d.ID, Status: "skipped", Err: err})
					cond.Broadcast()
					return
				}
				if allReady {
					break
				}
				cond.Wait()
			}
			snapshot := make(map[string]descriptor.Resolved, len(resolved))
			for k, v := range resolved {
				snapshot[k] = v
			}
			mu.Unlock()

			sem <- struct{}{}
			res, status, rerr := r.reconcileOne(ctx, d, snapshot, artifacts[d.ID])
			<-sem

			mu.Lock()
			if rerr != nil {
				failed[d.ID] = true
				outcomes[d.ID] = Outcome{DescriptorID: d.ID, Status: StatusFailed, Err: rerr}
			} else {
				resolved[d.ID] = res
				completed[d.ID] = true
				outcomes[d.ID] = Outcome{DescriptorID: d.ID, Status: status}
			}
			mu.Unlock()
			cond.Broadcast()
		}(d)
	}

	wg.Wait()

	result := &Result{Resolved: resolved}
	var errs []error
	for _, id := range dag.Order() {
		o := outcomes[id]
		result.Outcomes = append(result.Outcomes, o)
		if o.Err != nil && o.Status == StatusFailed {
			errs = append(errs, o.Err)
		}
	}

	if len(errs) > 0 {
		return result, errors.Wrap(stderrs.Join(errs...), errors.CodeReconciliation,
			fmt.Sprintf("%d descriptor(s) failed", len(errs)))
	}
	return result, nil
}

// reconcileOne drives a single descriptor: probe, then create only on
// NotFound. Ambiguous probes fail without creating a duplicate.
func (r *Reconciler) reconcileOne(ctx context.Context, d *descriptor.Descriptor, resolved map[string]descriptor.Resolved, art *packager.Artifact) (descriptor.Resolved, Status, error) {
	start := time.Now()
	if r.Callback != nil {
		r.Callback(Event{DescriptorID: d.ID, Status: "started"})
	}
	emit := func(status string, err error) {
		if r.Callback != nil {
			r.Callback(Event{DescriptorID: d.ID, Status: status, Duration: time.Since(start), Err: err})
		}
	}

	if err := ctx.Err(); err != nil {
		werr := errors.WrapDescriptor(err, errors.CodeReconciliation, d.ID, "run cancelled")
		emit("failed", werr)
		return descriptor.Resolved{}, StatusFailed, werr
	}

	cfg, err := resolveRefs(d.ID, d.Config, resolved)
	if err != nil {
		emit("failed", err)
		return descriptor.Resolved{}, StatusFailed, err
	}
	if art != nil {
		if cfg == nil {
			cfg = make(map[string]any)
		}
		cfg["artifact_path"] = art.Path
		cfg["artifact_digest"] = art.Digest
	}

	callCtx, cancel := context.WithTimeout(ctx, r.Timeout)
	defer cancel()

	var probe ProbeResult
	err = RetryWithBackoff(callCtx, r.retry, func() error {
		var perr error
		probe, perr = r.prober.Probe(callCtx, d, cfg)
		return perr
	}, IsTransient)
	if err != nil {
		werr := errors.WrapDescriptor(err, errors.CodeReconciliation, d.ID, "existence check failed")
		emit("failed", werr)
		return descriptor.Resolved{}, StatusFailed, werr
	}

	switch probe.Outcome {
	case ProbeFound:
		logging.Debug("resource exists, reusing", "descriptor", d.ID, "name", probe.Identity.Name)
		res := toResolved(d.ID, probe.Identity, false)
		emit("reused", nil)
		return res, StatusReused, nil

	case ProbeAmbiguous:
		aerr := errors.ForDescriptor(errors.CodeAmbiguousResource, d.ID,
			fmt.Sprintf("%d candidates match %q: %s", len(probe.Candidates), d.Name, CandidateNames(probe.Candidates)))
		emit("failed", aerr)
		return descriptor.Resolved{}, StatusFailed, aerr
	}

	var identity cloud.Identity
	err = RetryWithBackoff(callCtx, r.retry, func() error {
		var cerr error
		identity, cerr = r.env.Create(callCtx, d, cfg)
		return cerr
	}, IsTransient)
	if err != nil {
		werr := errors.WrapDescriptor(err, errors.CodeReconciliation, d.ID, "creation failed")
		emit("failed", werr)
		return descriptor.Resolved{}, StatusFailed, werr
	}

	logging.Info("resource created", "descriptor", d.ID, "name", identity.Name)
	res := toResolved(d.ID, identity, true)
	emit("created", nil)
	return res, StatusCreated, nil
}

// packageArtifacts builds code bundles for every CodeArtifact
// descriptor. Failures are returned as pre-failed descriptors so the
// run can still process independent branches.
func (r *Reconciler) packageArtifacts(set *descriptor.Set) (map[string]*packager.Artifact, map[string]error) {
	artifacts := make(map[string]*packager.Artifact)
	prefailed := make(map[string]error)

	for _, d := range set.Items {
		if d.Kind != descriptor.KindCodeArtifact {
			continue
		}
		sourceDir, _ := d.Config["source_dir"].(string)
		if r.packager == nil {
			prefailed[d.ID] = errors.ForDescriptor(errors.CodePackaging, d.ID, "no packager configured")
			continue
		}
		art, err := r.packager.Package(sourceDir)
		if err != nil {
			prefailed[d.ID] = errors.WrapDescriptor(err, errors.CodePackaging, d.ID, "packaging failed")
			continue
		}
		artifacts[d.ID] = &art
	}
	return artifacts, prefailed
}

func toResolved(id string, identity cloud.Identity, createdNow bool) descriptor.Resolved {
	return descriptor.Resolved{
		DescriptorID: id,
		Name:         identity.Name,
		ID:           identity.ID,
		ARN:          identity.ARN,
		CreatedNow:   createdNow,
		Extra:        identity.Extra,
	}
}
