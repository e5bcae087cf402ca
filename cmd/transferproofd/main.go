package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/shieldedpay/transferzk/internal/obs"
)

func main() {
	configPath := flag.String("config", "transferproofd.json", "path to service config")
	requestPath := flag.String("request", "", "path to a GenerateRequest JSON file")
	epoch := flag.Bool("epoch", false, "treat -request as a GenerateEpochRequest and use the epoch circuit")
	healthOnly := flag.Bool("health", false, "run health checks and print the result, then exit")
	flag.Parse()

	cfg, err := obs.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "transferproofd: load config: %v\n", err)
		os.Exit(1)
	}

	svc, err := NewService(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "transferproofd: %v\n", err)
		os.Exit(1)
	}
	defer svc.log.Close()

	if *healthOnly {
		health := svc.health.CheckHealth()
		resp := obs.CreateHealthResponse(health)
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(resp)
		if health.OverallStatus != obs.Healthy {
			os.Exit(1)
		}
		return
	}

	if *requestPath == "" {
		svc.log.Fatal("no -request given: nothing to do")
	}

	data, err := os.ReadFile(*requestPath)
	if err != nil {
		svc.log.Fatal("read request file: %v", err)
	}

	if *epoch {
		var req GenerateEpochRequest
		if err := json.Unmarshal(data, &req); err != nil {
			svc.log.Fatal("decode request file: %v", err)
		}
		if err := svc.GenerateEpochProof(req); err != nil {
			svc.log.Error("generate epoch proof: %v", err)
			os.Exit(1)
		}
		svc.log.Info("wrote epoch proof payload to %s", req.OutputPath)
		return
	}

	var req GenerateRequest
	if err := json.Unmarshal(data, &req); err != nil {
		svc.log.Fatal("decode request file: %v", err)
	}

	if err := svc.GenerateProof(req); err != nil {
		svc.log.Error("generate proof: %v", err)
		os.Exit(1)
	}
	svc.log.Info("wrote proof payload to %s", req.OutputPath)
}
