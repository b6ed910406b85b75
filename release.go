package bridge

import "runtime"

// addHandleCleanup registers fn to run once r becomes unreachable, via Go
// 1.24's runtime.AddCleanup — the direct analogue of a host
// FinalizationRegistry. This is the primary auto-release path; the
// Consumer's gcSweepLoop (backed by a weak.Pointer) is the fallback for
// cases where the cleanup queue is never drained before process exit.
func addHandleCleanup(r *Remote, fn func()) runtime.Cleanup {
	return runtime.AddCleanup(r, func(_ struct{}) { fn() }, struct{}{})
}
