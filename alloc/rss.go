package alloc

import "runtime"

func runtimeRSS() uintptr {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	return uintptr(ms.Sys)
}
