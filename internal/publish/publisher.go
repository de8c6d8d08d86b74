// Package publish writes resolved resource identities to the
// centralized parameter store. The store is the sole contract between
// provisioning and consumption: downstream stages read parameters, not
// orchestrator return values.
package publish

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/groundwork-io/groundwork/internal/cloud"
	"github.com/groundwork-io/groundwork/internal/descriptor"
	"github.com/groundwork-io/groundwork/internal/errors"
	"github.com/groundwork-io/groundwork/internal/logging"
)

const defaultConcurrency = 4

// EntryOutcome is the per-entry publication result.
type EntryOutcome struct {
	Entry descriptor.ParameterEntry
	Err   error
}

// Publisher maps resolved resources to parameter entries under a fixed
// path prefix and writes them with last-writer-wins semantics.
// Publication is partial-success: a failing entry is reported but never
// blocks the remaining entries.
type Publisher struct {
	store  cloud.ParameterStore
	prefix string
	region string

	// Concurrency caps simultaneous store writes.
	Concurrency int
}

func New(store cloud.ParameterStore, prefix, region string) *Publisher {
	return &Publisher{
		store:       store,
		prefix:      strings.TrimRight(prefix, "/"),
		region:      region,
		Concurrency: defaultConcurrency,
	}
}

// Entries maps resolved resources to their parameter entries without
// writing anything. Paths are stable across runs: they derive only from
// the prefix, the descriptor id, and the resource kind.
func (p *Publisher) Entries(set *descriptor.Set, resolved map[string]descriptor.Resolved) []descriptor.ParameterEntry {
	var entries []descriptor.ParameterEntry
	for _, d := range set.Items {
		res, ok := resolved[d.ID]
		if !ok {
			continue // failed or skipped descriptors publish nothing
		}
		entries = append(entries, p.entriesFor(d, res)...)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Path < entries[j].Path })
	return entries
}

// Publish writes every entry for the resolved set and returns the full
// per-entry outcome list. The returned error aggregates entry failures
// and is nil only when every entry published.
func (p *Publisher) Publish(ctx context.Context, set *descriptor.Set, resolved map[string]descriptor.Resolved) ([]EntryOutcome, error) {
	entries := p.Entries(set, resolved)
	outcomes := make([]EntryOutcome, len(entries))

	concurrency := p.Concurrency
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i, entry := range entries {
		g.Go(func() error {
			err := p.store.Put(gctx, entry.Path, entry.Value)
			if err != nil {
				err = errors.Wrap(err, errors.CodePublish, "put "+entry.Path)
				logging.Warn("parameter publish failed", "path", entry.Path, "error", err)
			} else {
				logging.Debug("parameter published", "path", entry.Path)
			}
			mu.Lock()
			outcomes[i] = EntryOutcome{Entry: entry, Err: err}
			mu.Unlock()
			// Entry failures are recorded, not returned: one failing
			// entry must not cancel the remaining writes.
			return nil
		})
	}
	_ = g.Wait()

	var failed int
	for _, o := range outcomes {
		if o.Err != nil {
			failed++
		}
	}
	if failed > 0 {
		return outcomes, errors.Newf(errors.CodePublish, "%d of %d entries failed to publish", failed, len(outcomes))
	}
	return outcomes, nil
}

// entriesFor maps one resolved resource to its parameter entries. Each
// kind publishes its primary identity; Extra identities (for example a
// pool's discovery URL) publish under their own key.
func (p *Publisher) entriesFor(d *descriptor.Descriptor, res descriptor.Resolved) []descriptor.ParameterEntry {
	base := p.prefix + "/" + d.ID
	var entries []descriptor.ParameterEntry

	switch d.Kind {
	case descriptor.KindBucket, descriptor.KindTable:
		entries = append(entries, descriptor.ParameterEntry{Path: base + "_name", Value: res.Name})
	case descriptor.KindCodeArtifact:
		entries = append(entries, descriptor.ParameterEntry{Path: base + "_key", Value: res.ID})
	case descriptor.KindRole, descriptor.KindComputeFunction:
		entries = append(entries, descriptor.ParameterEntry{Path: base + "_arn", Value: res.ARN})
	case descriptor.KindAuthPool:
		entries = append(entries, descriptor.ParameterEntry{Path: base + "_id", Value: res.ID})
		entries = append(entries, descriptor.ParameterEntry{
			Path:  p.prefix + "/cognito_discovery_url",
			Value: p.discoveryURL(res.ID),
		})
	case descriptor.KindAuthClient:
		entries = append(entries, descriptor.ParameterEntry{Path: base + "_id", Value: res.ID})
	default:
		entries = append(entries, descriptor.ParameterEntry{Path: base, Value: res.Name})
	}

	for key, val := range res.Extra {
		if unpublishedKeys[key] {
			continue
		}
		entries = append(entries, descriptor.ParameterEntry{Path: p.prefix + "/" + key, Value: val})
	}
	return entries
}

// unpublishedKeys are Extra entries withheld from the store: matching
// bookkeeping carries no identity, and the client secret is a
// credential, not an identity. Consumers fetch the secret on demand
// from the auth service by client id.
var unpublishedKeys = map[string]bool{
	"key_mismatch":  true,
	"hash_key":      true,
	"user_pool_id":  true,
	"client_secret": true,
}

func (p *Publisher) discoveryURL(poolID string) string {
	return fmt.Sprintf("https://cognito-idp.%s.amazonaws.com/%s/.well-known/openid-configuration", p.region, poolID)
}
