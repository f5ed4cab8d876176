package cache

import "runtime"

// HeapInUse estimates process memory as the bytes of allocated heap
// objects. It is the default Estimator.
func HeapInUse() uint64 {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	return ms.HeapAlloc
}
