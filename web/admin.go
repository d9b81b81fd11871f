package web

import (
	"github.com/gin-gonic/gin"

	"github.com/gox/netrt/nw"
)

type healthResponse struct {
	Running bool `json:"running"`
	Healthy bool `json:"healthy"`
}

type connectionInfo struct {
	ID       uint64 `json:"id"`
	Endpoint string `json:"endpoint"`
}

// MountAdmin registers a read-only status surface for a running
// ServerWrapper onto an existing router: /healthz for run/health state,
// /connections for a registry snapshot. State is read from w on every
// request, nothing is cached.
func MountAdmin(router *gin.Engine, w *nw.ServerWrapper) {
	router.GET("/healthz", func(c *gin.Context) {
		Response(c, 0, "", healthResponse{Running: w.IsRunning(), Healthy: w.IsHealthy()})
	})

	router.GET("/connections", func(c *gin.Context) {
		conns := make([]connectionInfo, 0)
		w.Registry().Range(func(conn nw.Connection) bool {
			conns = append(conns, connectionInfo{ID: uint64(conn.ID()), Endpoint: string(conn.Endpoint())})
			return true
		})
		Response(c, 0, "", conns)
	})
}

// NewAdminServer builds a Server via NewServer and mounts the admin
// surface for w onto it, ready to Run().
func NewAdminServer(host string, release bool, w *nw.ServerWrapper) (*Server, error) {
	s, err := NewServer(host, release, true)
	if err != nil {
		return nil, err
	}
	MountAdmin(s.Router(), w)
	return s, nil
}
