package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"demand-dashboard/internal/client"
	"demand-dashboard/internal/common"
	"demand-dashboard/internal/features"
	"demand-dashboard/internal/ml"
	"demand-dashboard/internal/predict"
)

func main() {
	var (
		model     = flag.String("model", "", "Model: "+strings.Join(ml.ModelNames(), ", "))
		artifacts = flag.String("artifacts", common.DefaultArtifactsDir, "Artifacts directory (local mode)")
		remote    = flag.String("remote", "", "Dashboard base URL; predicts through its API instead of local artifacts")
		timeout   = flag.Duration("timeout", 5*time.Second, "Request timeout (remote mode)")
		logLevel  = flag.String("log-level", "warn", "Log level: debug, info, warn, error")
		raw       [features.SlotCount]string
	)
	for i, label := range features.Labels() {
		flag.StringVar(&raw[i], strings.ToLower(label), "", label)
	}
	flag.Parse()

	level, err := zerolog.ParseLevel(*logLevel)
	if err != nil {
		level = zerolog.WarnLevel
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	var (
		message string
		ok      bool
	)
	if *remote != "" {
		message, ok = predictRemote(*remote, *timeout, *model, raw)
	} else {
		message, ok = predictLocal(*artifacts, *model, raw)
	}

	fmt.Println(message)
	if !ok {
		os.Exit(1)
	}
}

func predictLocal(dir, model string, raw [features.SlotCount]string) (string, bool) {
	registry, err := ml.LoadRegistry(dir)
	if err != nil {
		log.Fatal().Err(err).Str("dir", dir).Msg("Failed to load model artifacts")
	}

	start := time.Now()
	res := predict.NewHandler(registry).PredictRaw(model, raw)
	log.Debug().
		Str("model", model).
		Dur("latency", time.Since(start)).
		Msg("Prediction computed")

	return res.Message(), res.OK()
}

func predictRemote(base string, timeout time.Duration, model string, raw [features.SlotCount]string) (string, bool) {
	// a blank field is reported as incomplete by the dashboard before any malformed one
	values, err := features.ParseValues(raw)
	if err != nil && !hasBlank(raw) {
		return predict.Result{Err: &predict.ComputationError{Stage: predict.StageParse, Err: err}}.Message(), false
	}

	resp, err := client.New(base, timeout).Predict(model, values)
	if err != nil {
		log.Fatal().Err(err).Str("remote", base).Msg("Prediction request failed")
	}
	log.Debug().
		Str("model", resp.Model).
		Str("version", resp.ModelVersion).
		Float64("latency_ms", resp.Latency).
		Msg("Prediction received")

	return resp.Message, resp.OK
}

func hasBlank(raw [features.SlotCount]string) bool {
	for _, s := range raw {
		if strings.TrimSpace(s) == "" {
			return true
		}
	}
	return false
}
