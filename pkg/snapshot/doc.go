// Package snapshot serves pre-generated fallback payloads.
//
// A snapshot is the last known good response for a cache key. Snapshots are
// regenerated out of band (on a schedule or after a scrape) and replaced
// wholesale; request handling only ever reads them.
//
// # Stores
//
//   - FileStore: one <key>.json file per snapshot in a directory, indexed
//     in memory. Reload rebuilds the index; a Watcher can call it when files
//     change on disk.
//   - SQLiteStore: snapshots in a single SQLite table (modernc.org/sqlite),
//     replaced in one transaction.
//
// A store that cannot be read reports every key as not found. Snapshots only
// narrow the fallback chain; they never produce errors for callers.
//
// # Generation
//
// Generator builds the snapshot set from the holdings database and Scheduler
// runs it on a cron schedule:
//
//	gen := snapshot.NewGenerator(repo, snapshot.GeneratorConfig{})
//	sched := snapshot.NewScheduler(gen, store, "0 */6 * * *")
//	if err := sched.Start(ctx); err != nil {
//	    return err
//	}
package snapshot
