// Package health reports dependency health over HTTP (/healthz) and the
// standard gRPC health service.
package health

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"sort"
	"time"

	"github.com/dmehra2102/storefront/pkg/httpx"
	"google.golang.org/grpc"
	grpchealth "google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

type Check func(ctx context.Context) error

type Checker struct {
	log     *slog.Logger
	checks  map[string]Check
	timeout time.Duration
}

func NewChecker(log *slog.Logger, checks map[string]Check) *Checker {
	return &Checker{log: log, checks: checks, timeout: 2 * time.Second}
}

// Probe runs every check and returns the failures by name.
func (c *Checker) Probe(ctx context.Context) map[string]error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	failed := map[string]error{}
	for name, check := range c.checks {
		if err := check(ctx); err != nil {
			failed[name] = err
		}
	}
	return failed
}

type report struct {
	Status string            `json:"status"`
	Failed map[string]string `json:"failed,omitempty"`
}

func (c *Checker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	failed := c.Probe(r.Context())
	if len(failed) == 0 {
		httpx.RespondJSON(w, http.StatusOK, report{Status: "ok"})
		return
	}

	rep := report{Status: "degraded", Failed: map[string]string{}}
	names := make([]string, 0, len(failed))
	for name, err := range failed {
		rep.Failed[name] = err.Error()
		names = append(names, name)
	}
	sort.Strings(names)
	c.log.Warn("health check failed", "checks", names)
	httpx.RespondJSON(w, http.StatusServiceUnavailable, rep)
}

// Watch keeps the gRPC health status in step with Probe until ctx ends.
func (c *Checker) Watch(ctx context.Context, hs *grpchealth.Server, interval time.Duration) {
	c.update(ctx, hs)
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			hs.Shutdown()
			return
		case <-t.C:
			c.update(ctx, hs)
		}
	}
}

func (c *Checker) update(ctx context.Context, hs *grpchealth.Server) {
	status := healthpb.HealthCheckResponse_SERVING
	if len(c.Probe(ctx)) > 0 {
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	hs.SetServingStatus("", status)
}

// Serve starts a gRPC server on lis exposing only the health service.
func Serve(lis net.Listener, hs *grpchealth.Server) *grpc.Server {
	gs := grpc.NewServer()
	healthpb.RegisterHealthServer(gs, hs)
	go func() {
		_ = gs.Serve(lis)
	}()
	return gs
}

func Run(addr string, hs *grpchealth.Server) (*grpc.Server, error) {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	return Serve(lis, hs), nil
}
