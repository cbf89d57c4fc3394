// Package search implements a federated search-aggregation pipeline:
// a user query is combined with a locally held dataset and with
// results fetched concurrently from remote modules, then ranked,
// deduplicated and cached.
//
// # Pipeline
//
// The Coordinator composes the stages:
//
//	check cache -> build exclusion sets -> local stage (partial publish)
//	  -> sparse-result check -> remote fan-out (supersedes prior search)
//	  -> merge/deduplicate -> cache write -> final
//
// The local stage is a synchronous prefix filter over the dataset
// snapshot and is published to the caller before any remote call
// starts, so two observation points exist per invocation: immediate
// local results and the eventual merged list.
//
// # Query Syntax
//
// Free text plus recognized key:value filter tokens:
//
//	"project from:@alice in:#general"
//
// parses to keywords ["project"] with filters {from: "alice",
// in: "general"}. Unrecognized keys stay in the free text.
//
// # Supersession
//
// At most one invocation is current. A new Search cancels any prior
// invocation still awaiting remote responses; results belonging to a
// cancelled invocation are discarded and never overwrite newer state.
//
// # Usage
//
//	ds := search.NewDataset(chats, people)
//	orch := search.NewOrchestrator(fetchers, globalFetcher, logger, metrics)
//	coord := search.NewCoordinator(search.DefaultCoordinatorConfig(), ds, orch, logger, metrics)
//
//	resp, err := coord.Search(ctx, search.Request{Query: "ali"}, func(partial *search.Response) {
//		render(partial.Results) // immediate local results
//	})
package search
