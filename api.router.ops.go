package main

import (
	"net/http"
	"net/http/pprof"

	"github.com/julienschmidt/httprouter"
)

const (
	opsPrefix   = "/ops"
	debugPrefix = opsPrefix + "/debug"
	pprofPrefix = debugPrefix + "/pprof"
)

// runtimeProfiles are served by the pprof named handler.
var runtimeProfiles = []string{"heap", "allocs", "goroutine", "threadcreate", "block", "mutex"}

// SetupOpsRoutes injects the internal operations endpoints. Profiling
// endpoints need their own flag in addition to the ops one.
func (api *APIHandler) SetupOpsRoutes(router *httprouter.Router, m *MiddlewareMap) *httprouter.Router {
	ops := map[string]httprouter.Handle{
		opsPrefix + "/configs":     api.GetConfigs,
		opsPrefix + "/stats":       api.GetStatistics,
		opsPrefix + "/maintenance": api.Maintenance,
		debugPrefix + "/vars":      GetMemStats,
		debugPrefix + "/gc":        api.RunGC,
		debugPrefix + "/fos":       api.FreeOSMemory,
	}
	if api.config.ProfilerEndpointsEnable {
		for path, h := range api.profilerRoutes() {
			ops[path] = h
		}
	}
	for path, h := range ops {
		router.GET(path, m.ops(h))
	}
	return router
}

func (api *APIHandler) profilerRoutes() map[string]httprouter.Handle {
	routes := map[string]httprouter.Handle{
		pprofPrefix + "/":        api.OpsHandlerWrapper(http.HandlerFunc(pprof.Index)),
		pprofPrefix + "/profile": api.GetCPUProfile,
		pprofPrefix + "/trace":   api.GetTraceProfile,
		pprofPrefix + "/symbol":  api.GetSymbol,
		pprofPrefix + "/cmdline": api.GetCmdLine,
	}
	for _, name := range runtimeProfiles {
		routes[pprofPrefix+"/"+name] = api.OpsHandlerWrapper(pprof.Handler(name))
	}
	return routes
}
