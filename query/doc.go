// Package query binds apicall handles to a fetch or mutate lifecycle
// whose state callers can poll.
//
// A Query models a read. Load performs the initial fetch unless
// ManualLoad is set, Fetch replaces the parameters and refetches, Refresh
// repeats the last fetch:
//
//	q := query.New(usersHandle, query.Options{ResourceName: "data.items"})
//	_ = q.Load(ctx)
//	items := q.Data()
//
// A Mutation models a write and forwards streamed chunks to OnStreaming.
//
// There is no caching, retry or deduplication; every call dispatches.
// When calls overlap, the state reflects the most recently started one.
package query
