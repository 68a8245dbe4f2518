// Package dedup provides the thread-safe, in-memory resolution cache that
// collapses equivalent concretizations into a single execution.
//
// # Purpose
//
// Designs routinely request the same component dozens of times: every adder
// of the same width and architecture resolves to the same template with the
// same bindings and must land in the output directory exactly once. The
// cache keys each resolution by the match key (descriptor signature plus
// canonical bindings plus artifact name) and guarantees the build function
// runs once per key no matter how many workers ask concurrently.
//
// # Concurrency Model
//
// A plain sync.Map is not enough here: the second requester of a key must
// BLOCK until the first finishes its build, not observe an absent entry and
// start a duplicate generator run. The cache therefore uses a mutex-guarded
// map whose entries carry a done channel; the first requester inserts the
// entry and builds, later requesters wait on the channel. The mutex is held
// only for map access, never across a build, so unrelated keys build in
// parallel.
//
// Failed builds are memoized the same way as successful ones. A generator
// that failed for one instance would fail identically for every equivalent
// instance, and rerunning it would only multiply the noise.
package dedup
