// Package notify implements live queries: subscriptions that re-deliver a
// fresh query result whenever a committed write touches a table they watch.
//
// A Registry maps table names to the subscriptions watching them. Writers
// call Registry.Publish with the tables a transaction touched, after the
// transaction has committed. Publishing only marks subscriptions dirty;
// each Subscription re-runs its query on its own goroutine, outside any
// write transaction, and sends the result on its channel.
//
// # Delivery guarantees
//
//   - The initial snapshot is produced as soon as the subscription starts
//   - Snapshots are delivered in commit order and never go backwards
//   - Commits that land before a pending re-query are coalesced into one
//     snapshot reflecting all of them
//   - Query failures are delivered as Snapshot.Err; the subscription stays
//     live and retries on the next commit
//   - After Cancel returns (or the subscribing context ends) nothing more
//     is delivered and the channel is closed
package notify
