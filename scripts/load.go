package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

var (
	url         = flag.String("url", "http://localhost:8080", "Base URL of the user service")
	kind        = flag.String("address", "shipping", "Address to exercise: invoice or shipping")
	maxAge      = flag.Int("max-age", 5, "maxAge in minutes sent with reads")
	writeRatio  = flag.Int("write-every", 10, "Send a PUT every n requests per client")
	concurrency = flag.Int("concurrency", 150, "Number of concurrent clients")
	duration    = flag.Duration("duration", 30*time.Second, "Duration of the load test")
	verbose     = flag.Bool("verbose", false, "Enable verbose output")
)

type stats struct {
	total   atomic.Int64
	success atomic.Int64
	failed  atomic.Int64
	latency atomic.Int64
}

func (s *stats) avgLatencyMs() float64 {
	total := s.total.Load()
	if total == 0 {
		return 0
	}
	return float64(s.latency.Load()) / float64(total) / float64(time.Millisecond)
}

func main() {
	flag.Parse()

	client := &http.Client{Timeout: 10 * time.Second}
	target := fmt.Sprintf("%s/addresses/%s", *url, *kind)

	ctx, cancel := context.WithTimeout(context.Background(), *duration)
	defer cancel()

	var s stats
	startTime := time.Now()

	go report(ctx, &s, startTime)

	group, groupCtx := errgroup.WithContext(ctx)
	for i := 0; i < *concurrency; i++ {
		clientID := i
		group.Go(func() error {
			for n := 0; groupCtx.Err() == nil; n++ {
				req, err := newRequest(groupCtx, target, clientID, n)
				if err != nil {
					return err
				}
				send(client, req, &s)
			}
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		log.Fatalf("Load test aborted: %v", err)
	}

	elapsed := time.Since(startTime).Seconds()
	fmt.Printf("\n\nLoad test completed in %.2f seconds\n", elapsed)
	fmt.Printf("Total requests: %d\n", s.total.Load())
	fmt.Printf("Successful requests: %d\n", s.success.Load())
	fmt.Printf("Failed requests: %d\n", s.failed.Load())
	fmt.Printf("Requests per second: %.2f\n", float64(s.total.Load())/elapsed)
	fmt.Printf("Average latency: %.2f ms\n", s.avgLatencyMs())
}

func newRequest(ctx context.Context, target string, clientID, n int) (*http.Request, error) {
	if *writeRatio > 0 && n%*writeRatio == 0 {
		body := fmt.Sprintf(`{"country":"DE","street":"Client %d request %d"}`, clientID, n)
		req, err := http.NewRequestWithContext(ctx, http.MethodPut, target, bytes.NewBufferString(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	}

	return http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s?maxAge=%d", target, *maxAge), nil)
}

func send(client *http.Client, req *http.Request, s *stats) {
	start := time.Now()
	resp, err := client.Do(req)
	s.latency.Add(int64(time.Since(start)))
	s.total.Add(1)

	if err != nil {
		if req.Context().Err() == nil && *verbose {
			log.Warnf("Request failed: %v", err)
		}
		s.failed.Add(1)
		return
	}

	respBody, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		if *verbose {
			log.Warnf("Failed to read response body: %v", err)
		}
		s.failed.Add(1)
		return
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		s.success.Add(1)
		if *verbose {
			log.Debugf("%v %v: %s", req.Method, resp.StatusCode, respBody)
		}
		return
	}

	if *verbose {
		log.Warnf("Request failed with status %d: %s", resp.StatusCode, respBody)
	}
	s.failed.Add(1)
}

func report(ctx context.Context, s *stats, startTime time.Time) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rps := float64(s.total.Load()) / time.Since(startTime).Seconds()
			fmt.Printf("\rRequests: %d, Success: %d, Failed: %d, RPS: %.2f, Avg Latency: %.2f ms",
				s.total.Load(), s.success.Load(), s.failed.Load(), rps, s.avgLatencyMs())
		}
	}
}
