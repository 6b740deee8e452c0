// Package objstore provides the path-indexed container behind every
// subscription cache.
//
// # Overview
//
// An ObjectStore keeps three things per path:
//
//   - the current Field (may be absent for a path that has no sample yet)
//   - an ordered history of value.Timestamped samples, ascending by timestamp
//   - membership in the path index, which covers every path in either map
//
// plus the server-reported snapshot timestamp of the whole view.
//
// # Merging
//
// MergeHistory is the only operation that combines two stores:
//
//	cache.MergeHistory(delta)   // append delta's samples, stable-sort by timestamp
//	cache.PruneFields(delta)    // keep only the freshest sample per path as Field
//	cache.SetTimestamp(delta.Timestamp())
//
// Entries are never dropped or deduplicated. Samples sharing a timestamp keep
// their arrival order, so repeated merges only add duplicates and can never break
// the sort order.
//
// # Concurrency
//
// All methods are safe for concurrent use. Reads return copies, the same way the
// poller/UI snapshot store does, so callers can hold results without locking.
// MergeHistory and PruneFields never hold two store locks at once.
//
// # Wire Format
//
// MarshalJSON/UnmarshalJSON use the backend layout where fields and history are
// parallel arrays addressed by a paths index:
//
//	{"fields":[{"key":"/x","value":{...}}],"history":[[...]],"paths":{"/x":0},"timestamp":10}
//
// History arrays are re-sorted on decode.
package objstore
