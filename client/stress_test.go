package client

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/luciancaetano/scnet"
	"github.com/luciancaetano/scnet/internal/sctest"
	"github.com/luciancaetano/scnet/sc"
)

// TestStressMultiplexedRequests pushes many concurrent requests through a few clients
func TestStressMultiplexedRequests(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping stress test in short mode")
	}

	srv := newTestServer(t)
	srv.Handle(scnet.TypeCheckElements, func(req sctest.Request) (bool, any) {
		var addrs []uint64
		json.Unmarshal(req.Payload, &addrs)
		return true, addrs
	})

	const (
		numClients        = 20
		requestsPerClient = 250
	)

	clients := make([]*Client, numClients)
	for i := range clients {
		cfg := testConfig()
		cfg.ResponseTimeout = 10 * time.Second
		clients[i] = newTestClient(t, srv, cfg)
	}

	var (
		succeeded    int64
		failed       int64
		mismatched   int64
		totalLatency int64
		wg           sync.WaitGroup
	)

	startTime := time.Now()
	for _, c := range clients {
		for j := 0; j < requestsPerClient; j++ {
			wg.Add(1)
			go func(c *Client, addr sc.Addr) {
				defer wg.Done()

				start := time.Now()
				got, err := c.GetElementsTypes(context.Background(), addr)
				atomic.AddInt64(&totalLatency, int64(time.Since(start)))
				if err != nil {
					atomic.AddInt64(&failed, 1)
					return
				}
				if len(got) != 1 || got[0] != sc.Type(addr) {
					atomic.AddInt64(&mismatched, 1)
					return
				}
				atomic.AddInt64(&succeeded, 1)
			}(c, sc.Addr(j+1))
		}
	}
	wg.Wait()
	elapsed := time.Since(startTime)

	total := int64(numClients * requestsPerClient)
	t.Logf("requests: %d ok, %d failed, %d mismatched in %v", succeeded, failed, mismatched, elapsed)
	t.Logf("throughput: %.0f req/s, average latency: %v",
		float64(total)/elapsed.Seconds(), time.Duration(totalLatency/total))

	if mismatched != 0 {
		t.Errorf("%d responses delivered to the wrong caller", mismatched)
	}
	if succeeded != total {
		t.Errorf("succeeded = %d, want %d", succeeded, total)
	}
}
