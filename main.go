package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/automoto/transformsync/components"
	"github.com/automoto/transformsync/config"
	"github.com/automoto/transformsync/network"
	"github.com/automoto/transformsync/shared/logging"
	"github.com/automoto/transformsync/shared/netcomponents"
	"github.com/automoto/transformsync/systems"
	"github.com/automoto/transformsync/systems/factory"
	"github.com/automoto/transformsync/tags"
	"github.com/go-logr/logr"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/pflag"
	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/ecs"
	"k8s.io/utils/clock"
)

// Observer renders tracked objects received from an authority. In loopback
// mode it also hosts the authority in-process, connected through a lossy
// simulated link.
type Observer struct {
	ecs      *ecs.ECS
	observer *systems.ObserverSystem
	clock    clock.WithTicker
	logger   logr.Logger

	// Loopback only
	authority *ecs.ECS
	authSys   *systems.AuthoritySystem
	motion    func(*ecs.ECS)
	link      *network.Loopback

	client *network.Client
}

func NewObserver(clk clock.WithTicker, logger logr.Logger) (*Observer, error) {
	o := &Observer{
		ecs:    ecs.NewECS(donburi.NewWorld()),
		clock:  clk,
		logger: logger,
	}

	if !config.Client.Loopback {
		o.client = network.NewClient(config.Sync.InboxSize, logger)
		o.observer = systems.NewObserverSystem(config.Sync, o.client, o.client, true, logger, network.WithClock(clk))
		o.client.Connect(config.Client.Address)
		return o, nil
	}

	o.link = network.NewLoopback(clk, config.Client.Latency, config.Client.DropRate, uint64(clk.Now().UnixNano()))
	o.authority = ecs.NewECS(donburi.NewWorld())
	o.authSys = systems.NewAuthoritySystem(config.Sync, o.link, logger, network.WithClock(clk))
	o.motion = systems.NewMotionSystem(float32(config.Sync.TickInterval().Seconds()))
	o.link.Serve(o.authSys.Bootstrap)

	o.observer = systems.NewObserverSystem(config.Sync, o.link, o.link, false, logger, network.WithClock(clk))
	for i := 0; i < config.Server.Objects; i++ {
		id := uuid.NewString()
		factory.CreateAuthorityObject(o.authority, id, netcomponents.Vec3{Z: float64(i) * 2}, config.Motion)
		if _, err := o.observer.Track(o.ecs, id); err != nil {
			return nil, err
		}
	}
	// The authority has to know its objects before the first bootstrap arrives.
	o.authSys.Update(o.authority)
	return o, nil
}

// Run drives the render loop, and the authority loop in loopback mode, until
// ctx is done.
func (o *Observer) Run(ctx context.Context) {
	render := o.clock.NewTicker(config.Sync.RenderInterval())
	defer render.Stop()
	status := o.clock.NewTicker(config.Client.LogInterval)
	defer status.Stop()

	var produce <-chan time.Time
	if o.authority != nil {
		t := o.clock.NewTicker(config.Sync.TickInterval())
		defer t.Stop()
		produce = t.C()
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-produce:
			o.motion(o.authority)
			o.authSys.Update(o.authority)
		case <-render.C():
			o.observer.Update(o.ecs)
		case <-status.C():
			o.logStatus()
		}
	}
}

func (o *Observer) logStatus() {
	if o.client != nil {
		if o.client.State() != network.StateConnected {
			o.logger.Info("Waiting for server", "state", o.client.State().String(), "error", o.client.LastError())
			return
		}
	}
	if o.link != nil {
		st := o.link.Stats()
		o.logger.Info("Link", "sent", st.Sent, "dropped", st.Dropped, "delivered", st.Delivered)
	}

	type line struct {
		id   string
		t    netcomponents.TransformData
		info components.NetInterpData
	}
	var lines []line
	tags.Observer.Each(o.ecs.World, func(e *donburi.Entry) {
		lines = append(lines, line{
			id:   components.Tracked.Get(e).ID,
			t:    *netcomponents.Transform.Get(e),
			info: *components.NetInterp.Get(e),
		})
	})
	sort.Slice(lines, func(i, j int) bool { return lines[i].id < lines[j].id })

	for _, l := range lines {
		o.logger.Info("Object",
			"object", l.id,
			"rendered", l.info.Rendered,
			"idle", l.info.Idle,
			"x", l.t.Position.X,
			"yaw", l.t.Rotation.Y,
			"factor", l.info.Factor,
			"offsetMs", l.info.OffsetMs,
			"buffer", l.info.BufferLen)
	}
}

func (o *Observer) Close() {
	o.observer.Close()
	if o.authSys != nil {
		o.authSys.Close()
	}
	if o.client != nil {
		o.client.Disconnect()
	}
}

func main() {
	configPath := pflag.String("config", "", "YAML config file")
	pflag.StringVar(&config.Client.Address, "address", config.Client.Address, "Server address (host:port)")
	pflag.BoolVar(&config.Client.Loopback, "loopback", config.Client.Loopback, "Simulate the authority in-process over a lossy link")
	pflag.Float64Var(&config.Client.DropRate, "drop", config.Client.DropRate, "Loopback snapshot drop probability")
	pflag.DurationVar(&config.Client.Latency, "latency", config.Client.Latency, "Loopback one-way latency")
	pflag.IntVar(&config.Server.Objects, "objects", config.Server.Objects, "Loopback object count")
	pflag.DurationVar(&config.Client.Duration, "duration", config.Client.Duration, "Stop after this long (0 runs until interrupted)")
	pflag.DurationVar(&config.Client.LogInterval, "log-interval", config.Client.LogInterval, "Status log interval")
	pflag.StringVar(&config.Client.MetricsAddr, "metrics-addr", config.Client.MetricsAddr, "Address serving /metrics (empty disables)")
	verbosity := pflag.IntP("verbosity", "v", 0, "Log verbosity (1 debug, 2 trace)")
	dev := pflag.Bool("dev", false, "Human-readable development logging")
	config.BindSyncFlags(pflag.CommandLine, &config.Sync)
	pflag.Parse()

	logger, flush, err := logging.New(*verbosity, *dev)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer flush()

	if err := run(*configPath, logger); err != nil {
		logger.Error(err, "Observer failed")
		flush()
		os.Exit(1)
	}
}

func run(configPath string, logger logr.Logger) error {
	if configPath != "" {
		client, objects := config.Client, config.Server.Objects
		if err := config.Load(configPath); err != nil {
			return err
		}
		if err := config.ReapplySyncFlags(os.Args[1:]); err != nil {
			return err
		}
		reapplyClientFlags(client, objects)
	}
	if err := config.Sync.Validate(); err != nil {
		return err
	}
	if config.Client.LogInterval <= 0 {
		return fmt.Errorf("log interval must be positive, got %s", config.Client.LogInterval)
	}

	if addr := config.Client.MetricsAddr; addr != "" {
		network.RegisterMetrics(prometheus.DefaultRegisterer)
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			if err := http.ListenAndServe(addr, mux); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error(err, "Metrics listener stopped", "addr", addr)
			}
		}()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if d := config.Client.Duration; d > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}

	o, err := NewObserver(clock.RealClock{}, logger)
	if err != nil {
		return err
	}
	defer o.Close()

	mode := "websocket"
	if config.Client.Loopback {
		mode = "loopback"
	}
	logger.Info("Observer started", "mode", mode, "address", config.Client.Address,
		"renderRate", config.Sync.RenderRate, "offsetMs", config.Sync.InitialOffsetMs)
	o.Run(ctx)
	logger.Info("Observer stopped")
	return nil
}

// reapplyClientFlags restores values given on the command line after a config
// file was loaded over them.
func reapplyClientFlags(flagged config.ClientConfig, objects int) {
	changed := pflag.CommandLine.Changed
	if changed("address") {
		config.Client.Address = flagged.Address
	}
	if changed("loopback") {
		config.Client.Loopback = flagged.Loopback
	}
	if changed("drop") {
		config.Client.DropRate = flagged.DropRate
	}
	if changed("latency") {
		config.Client.Latency = flagged.Latency
	}
	if changed("objects") {
		config.Server.Objects = objects
	}
	if changed("duration") {
		config.Client.Duration = flagged.Duration
	}
	if changed("log-interval") {
		config.Client.LogInterval = flagged.LogInterval
	}
	if changed("metrics-addr") {
		config.Client.MetricsAddr = flagged.MetricsAddr
	}
}
