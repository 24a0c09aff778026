// Command reflect runs the kernel-bypass L2 reflector against one
// network interface until interrupted.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	reflector "github.com/l2reflect/reflect"
	"github.com/l2reflect/reflect/internal/logging"
	"github.com/l2reflect/reflect/internal/rewrite"
	"github.com/l2reflect/reflect/internal/telemetry"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg := reflector.DefaultConfig()

	var (
		verbose       bool
		jsonOut       bool
		csvOut        bool
		noOUIFilter   bool
		ouiStr        string
		modeStr       string
		prometheusAddr string
		ebpfProgram   string
	)

	cmd := &cobra.Command{
		Use:           "reflect <interface>",
		Short:         "Reflect active-measurement UDP traffic at line rate",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg.Interface = args[0]
			cfg.Verbose = verbose
			cfg.JSON = jsonOut
			cfg.CSV = csvOut
			cfg.PrometheusAddr = prometheusAddr
			cfg.EBPFProgram = ebpfProgram

			mode, ok := rewrite.ParseMode(modeStr)
			if !ok {
				return fmt.Errorf("--mode must be one of mac|mac-ip|all, got %q", modeStr)
			}
			cfg.Mode = mode

			if noOUIFilter {
				cfg.OUIFilter = nil
			} else if ouiStr != "" {
				oui, err := parseOUI(ouiStr)
				if err != nil {
					return err
				}
				cfg.OUIFilter = &oui
			}

			return serve(cmd, cfg)
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "stats as JSON")
	cmd.Flags().BoolVar(&csvOut, "csv", false, "stats as CSV")
	cmd.Flags().BoolVar(&cfg.LatencyEnabled, "latency", false, "enable Rx timestamping and latency stats")
	cmd.Flags().IntVar(&cfg.StatsInterval, "stats-interval", 1, "interval in seconds")
	cmd.Flags().Uint16Var(&cfg.UDPPort, "port", 0, "UDP destination port filter (0 = any)")
	cmd.Flags().BoolVar(&noOUIFilter, "no-oui-filter", false, "disable source OUI filter")
	cmd.Flags().StringVar(&ouiStr, "oui", "00:C0:17", "OUI bytes (XX:XX:XX)")
	cmd.Flags().StringVar(&modeStr, "mode", "all", "reflection scope: mac|mac-ip|all")
	cmd.Flags().StringVar(&prometheusAddr, "prometheus-addr", "", "optional address to serve Prometheus /metrics on")
	cmd.Flags().StringVar(&ebpfProgram, "ebpf-program", "", "optional path to a prebuilt XDP object used as a preselector")

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func parseOUI(s string) ([3]byte, error) {
	var oui [3]byte
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return oui, fmt.Errorf("--oui must be XX:XX:XX, got %q", s)
	}
	for i, p := range parts {
		v, err := strconv.ParseUint(p, 16, 8)
		if err != nil {
			return oui, fmt.Errorf("--oui: invalid byte %q: %w", p, err)
		}
		oui[i] = byte(v)
	}
	return oui, nil
}

func serve(cmd *cobra.Command, cfg reflector.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	level := logging.LevelInfo
	if cfg.Verbose {
		level = logging.LevelDebug
	}
	logger := logging.NewLogger(&logging.Config{Level: level, Format: "text", Output: os.Stderr})

	ctrl := reflector.NewController(cfg, logger)
	if err := ctrl.Init(); err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), err)
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := ctrl.Start(ctx); err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), err)
		return err
	}

	var promServer *http.Server
	if cfg.PrometheusAddr != "" {
		promServer = startTelemetry(ctx, cfg.PrometheusAddr, ctrl, logger)
	}

	start := time.Now()
	prev := ctrl.AggregateStats()
	ticker := time.NewTicker(time.Duration(cfg.StatsInterval) * time.Second)
	defer ticker.Stop()

	if cfg.CSV {
		_ = reflector.WriteCSVHeader(cmd.OutOrStdout())
	}

loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case <-ticker.C:
			cur := ctrl.AggregateStats()
			hb := reflector.NewHeartbeat(cur, start, prev, time.Duration(cfg.StatsInterval)*time.Second)
			emit(cmd, cfg, hb)
			prev = cur
		}
	}

	if err := ctrl.Stop(); err != nil {
		return err
	}
	if promServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		_ = promServer.Shutdown(shutdownCtx)
		cancel()
	}

	final := ctrl.AggregateStats()
	hb := reflector.NewHeartbeat(final, start, prev, time.Duration(cfg.StatsInterval)*time.Second)
	fmt.Fprintln(cmd.OutOrStdout())
	emit(cmd, cfg, hb)
	return nil
}

func emit(cmd *cobra.Command, cfg reflector.Config, hb reflector.Heartbeat) {
	switch {
	case cfg.JSON:
		b, err := hb.JSON()
		if err == nil {
			fmt.Fprintln(cmd.OutOrStdout(), string(b))
		}
	case cfg.CSV:
		_ = hb.WriteCSVRow(cmd.OutOrStdout())
	default:
		fmt.Fprint(cmd.OutOrStdout(), hb.Text())
	}
}

// startTelemetry serves a Prometheus /metrics endpoint on addr and spawns
// a goroutine that feeds ctrl's aggregated snapshots into the collector
// once a second, independent of --stats-interval. It returns the
// underlying *http.Server so the caller can shut it down on exit.
func startTelemetry(ctx context.Context, addr string, ctrl *reflector.Controller, logger *logging.Logger) *http.Server {
	reg := prometheus.NewRegistry()
	collector := telemetry.NewCollector(reg)
	srv := telemetry.NewServer(telemetry.ServerConfig{Addr: addr}, reg)

	go func() {
		if err := telemetry.Serve(ctx, srv); err != nil {
			logger.Warn("telemetry server exited", "error", err)
		}
	}()

	go func() {
		start := time.Now()
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		var prevFields telemetry.SnapshotFields
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				cur := ctrl.AggregateStats()
				elapsed := time.Since(start).Seconds()
				var pps, mbps float64
				if elapsed > 0 {
					pps = float64(cur.Reflected) / elapsed
					mbps = float64(cur.BytesReflected) * 8 / elapsed / 1_000_000
				}
				fields := telemetry.SnapshotFields{
					Received: cur.Received, Reflected: cur.Reflected, Dropped: cur.Dropped,
					BytesReceived: cur.BytesReceived, BytesReflected: cur.BytesReflected,
					SigProbeOt: cur.SigProbeOt, SigDataOt: cur.SigDataOt, SigLatency: cur.SigLatency, SigUnknown: cur.SigUnknown,
					ErrMac: cur.ErrInvalidMac, ErrEtherType: cur.ErrInvalidEtherType, ErrProtocol: cur.ErrInvalidProtocol,
					ErrSignature: cur.ErrInvalidSignature, ErrTooShort: cur.ErrTooShort, ErrTxFailed: cur.ErrTxFailed, ErrNoMemory: cur.ErrNoMemory,
					PPS: pps, Mbps: mbps,
				}
				prevFields = collector.Apply(prevFields, fields)
			}
		}
	}()

	logger.Info("prometheus metrics endpoint listening", "addr", addr)
	return srv
}
