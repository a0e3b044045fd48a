// Package main is the collectord executable: it wires together the
// config holder, metrics registry and cluster model, exposes a
// Prometheus /metrics endpoint, and serves the textual request surface
// over stdin/stdout. It deliberately does not fetch stats from storage
// nodes or accept RPCs over the network — both are external
// collaborators — so feeding it a batch is done by piping ingest lines,
// see runRequestLoop.
package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/golang/glog"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/agodin/mastermind/config"
	"github.com/agodin/mastermind/metrics"
	"github.com/agodin/mastermind/parser"
	"github.com/agodin/mastermind/query"
	"github.com/agodin/mastermind/storage"
)

var (
	configPath  = flag.String("config", "", "JSON file overriding the default config.Config; empty uses built-in defaults")
	metricsAddr = flag.String("metrics-addr", ":9095", "listen address for the Prometheus /metrics endpoint")
)

func main() {
	flag.Parse()
	defer glog.Flush()

	cfg := config.Default()
	if *configPath != "" {
		if err := loadConfig(*configPath, cfg); err != nil {
			glog.Exitf("collectord: failed to load config from %s: %v", *configPath, err)
		}
	}
	cfgHolder := config.NewHolder(cfg)

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	s := storage.New(cfgHolder, m)

	installSignalHandler()
	go serveMetrics(*metricsAddr, reg)

	glog.Infof("collectord: ready, metrics on %s", *metricsAddr)
	runRequestLoop(s)
}

func loadConfig(path string, cfg *config.Config) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return json.NewDecoder(f).Decode(cfg)
}

func serveMetrics(addr string, reg *prometheus.Registry) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	if err := http.ListenAndServe(addr, mux); err != nil {
		glog.Errorf("collectord: metrics server exited: %v", err)
	}
}

func installSignalHandler() {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-c
		glog.Infof("collectord: caught signal, shutting down")
		glog.Flush()
		os.Exit(0)
	}()
}

// runRequestLoop reads lines from stdin. A line starting with "ingest"
// feeds one monitor-stats JSON batch to Storage.Ingest; any other line is
// handed to query.Dispatch and the JSON response is printed. This stands
// in for the RPC/command handler and stats-fetch transport that core
// scope keeps external.
func runRequestLoop(s *storage.Storage) {
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "ingest ") {
			handleIngest(s, strings.TrimPrefix(line, "ingest "))
			continue
		}
		resp, err := query.Dispatch(s, line)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			continue
		}
		fmt.Println(resp)
	}
}

// handleIngest expects "<host> <port> <family> <path-to-json>".
func handleIngest(s *storage.Storage, rest string) {
	fields := strings.Fields(rest)
	if len(fields) != 4 {
		fmt.Fprintln(os.Stderr, "error: usage: ingest <host> <port> <family> <path>")
		return
	}
	host, port, family, path := fields[0], fields[1], fields[2], fields[3]

	raw, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: read %s: %v\n", path, err)
		return
	}

	p := parser.New()
	res, err := p.Parse(raw)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: parse %s: %v\n", path, err)
		return
	}

	s.Ingest(host, port, family, res, uint64(time.Now().Unix()))
	fmt.Println("ok")
}
