package search

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Fetcher is the module fetch contract: given a parsed query and the
// invocation's context it returns raw candidate records for one remote
// module. A context cancellation error signals supersession and is not
// treated as a failure.
type Fetcher interface {
	Module() Module
	Fetch(ctx context.Context, query *ParsedQuery) ([]Item, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc struct {
	Tag Module
	Fn  func(ctx context.Context, query *ParsedQuery) ([]Item, error)
}

func (f FetcherFunc) Module() Module { return f.Tag }

func (f FetcherFunc) Fetch(ctx context.Context, query *ParsedQuery) ([]Item, error) {
	return f.Fn(ctx, query)
}

// FetchOutcome is the settled result of one remote fan-out: the
// exclusion-filtered records from every module call, plus the
// enrichment diff derived from the global call.
type FetchOutcome struct {
	Records    []Item
	Enrichment EnrichmentDiff
}

// Orchestrator fans a query out to the enabled remote modules
// concurrently and joins the results. Per-module failures are isolated
// and replaced by empty results; only cancellation aborts the whole
// fan-out.
type Orchestrator struct {
	fetchers []Fetcher
	global   Fetcher
	logger   logrus.FieldLogger
	metrics  *Metrics
}

// NewOrchestrator creates an orchestrator over the given module
// fetchers. global may be nil when no cross-module endpoint exists.
func NewOrchestrator(fetchers []Fetcher, global Fetcher, logger logrus.FieldLogger, metrics *Metrics) *Orchestrator {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Orchestrator{
		fetchers: fetchers,
		global:   global,
		logger:   logger,
		metrics:  metrics,
	}
}

// enabledFor reports whether a module participates in this invocation:
// it must be in the caller's enabled list and the active category must
// be "all" or name the module.
func enabledFor(module Module, enabled []Module, category string) bool {
	if category != CategoryAll && category != string(module) {
		return false
	}
	for _, m := range enabled {
		if m == module {
			return true
		}
	}
	return false
}

// Fetch issues one call per enabled module plus the global call, all
// concurrently under ctx. Records whose canonical id is already in the
// corresponding exclusion set are dropped. The joined records keep the
// fetcher registration order, with the global call's records last, so
// equal-score tie-breaks downstream stay deterministic. Returns ctx's
// error when the invocation was cancelled.
func (o *Orchestrator) Fetch(ctx context.Context, query *ParsedQuery, category string, enabled []Module, exclusions *ExclusionSets, known *Dataset) (*FetchOutcome, error) {
	eg, ctx := errgroup.WithContext(ctx)

	var active []Fetcher
	for _, fetcher := range o.fetchers {
		if enabledFor(fetcher.Module(), enabled, category) {
			active = append(active, fetcher)
		}
	}

	slots := make([][]Item, len(active))
	for i, fetcher := range active {
		i, fetcher := i, fetcher
		eg.Go(func() error {
			slots[i] = o.callModule(ctx, fetcher, query, exclusions)
			return ctx.Err()
		})
	}

	outcome := &FetchOutcome{}
	var globalRecords []Item
	if o.global != nil {
		eg.Go(func() error {
			globalRecords = o.callModule(ctx, o.global, query, exclusions)
			outcome.Enrichment = buildEnrichmentDiff(globalRecords, known)
			return ctx.Err()
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}

	for _, records := range slots {
		outcome.Records = append(outcome.Records, records...)
	}
	outcome.Records = append(outcome.Records, globalRecords...)
	return outcome, nil
}

// callModule runs one module fetch, isolating failures: an error other
// than cancellation is logged and yields an empty result so sibling
// calls proceed unharmed.
func (o *Orchestrator) callModule(ctx context.Context, fetcher Fetcher, query *ParsedQuery, exclusions *ExclusionSets) []Item {
	records, err := fetcher.Fetch(ctx, query)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			o.logger.WithField("module", fetcher.Module()).Debug("module fetch cancelled")
			return nil
		}
		o.metrics.recordFetchError(fetcher.Module())
		o.logger.WithError(err).WithField("module", fetcher.Module()).Error("module fetch failed")
		return nil
	}

	// Filter into a fresh slice; the fetcher keeps ownership of the
	// slice it returned and may reuse it across invocations.
	kept := make([]Item, 0, len(records))
	for _, record := range records {
		if exclusions.Excludes(record) {
			continue
		}
		kept = append(kept, record)
	}

	o.metrics.recordFetch(fetcher.Module(), len(kept))
	return kept
}

// buildEnrichmentDiff converts global-call records that are not yet in
// the local dataset into dataset entities, deduplicated by canonical
// identifier within the diff itself.
func buildEnrichmentDiff(records []Item, known *Dataset) EnrichmentDiff {
	diff := EnrichmentDiff{}
	if known == nil {
		return diff
	}

	chats, people := known.Snapshot()
	knownChats := make(map[string]bool, len(chats))
	for _, chat := range chats {
		knownChats[chat.ID] = true
	}
	knownPeople := make(map[string]bool, len(people))
	for _, person := range people {
		knownPeople[person.ID] = true
	}

	for _, record := range records {
		switch item := record.(type) {
		case ChatItem:
			if item.ID == "" || knownChats[item.ID] {
				continue
			}
			knownChats[item.ID] = true
			diff.Chats = append(diff.Chats, Chat{
				ID:       item.ID,
				Title:    item.Title,
				TypeCode: item.TypeCode,
			})
		case UserItem:
			if item.ID == "" || knownPeople[item.ID] {
				continue
			}
			knownPeople[item.ID] = true
			diff.People = append(diff.People, Person{
				ID:    item.ID,
				Name:  item.Name,
				Email: item.Email,
			})
		}
	}

	return diff
}
