package main

import (
	"net/http"
	"net/http/pprof"
)

// 访问/debug/pprof/进入pprof实时分析页面，/debug/pprof/heap查看峰值内存
func startHTTPDebugger(addr string) {
	pprofHandler := http.NewServeMux()
	pprofHandler.Handle("/debug/pprof/", http.HandlerFunc(pprof.Index))
	pprofHandler.Handle("/debug/pprof/profile", http.HandlerFunc(pprof.Profile))
	pprofHandler.Handle("/debug/pprof/heap", pprof.Handler("heap"))
	server := &http.Server{Addr: addr, Handler: pprofHandler}
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Warnf("pprof server stopped: %v", err)
		}
	}()
}
