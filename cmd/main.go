package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/tiiuae/motion_planning/internal/commands"
	"github.com/tiiuae/motion_planning/internal/config"
	"github.com/tiiuae/motion_planning/internal/flight"
	"github.com/tiiuae/motion_planning/internal/planning"
	"github.com/tiiuae/motion_planning/internal/telemetry"
	"github.com/tiiuae/motion_planning/internal/types"
	"github.com/tiiuae/motion_planning/internal/vehicle"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	defaultFlagSet = flag.NewFlagSet(os.Args[0], flag.ContinueOnError)
	configPath     = defaultFlagSet.String("config", "", "YAML configuration file")
	host           = defaultFlagSet.String("host", "", "MQTT broker host")
	port           = defaultFlagSet.Int("port", 0, "MQTT broker port")
	timeout        = defaultFlagSet.Duration("timeout", 0, "Connection timeout")
	deviceID       = defaultFlagSet.String("device_id", "", "The provisioned device id")
	colliders      = defaultFlagSet.String("colliders", "", "Obstacle map (colliders.csv)")
	privateKeyPath = defaultFlagSet.String("private_key", "", "The private key for the MQTT authentication")
	logDir         = defaultFlagSet.String("log_dir", "", "Directory for rotated log files")
)

func main() {
	if err := defaultFlagSet.Parse(os.Args[1:]); err != nil {
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal(err)
	}
	applyFlags(&cfg)
	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}
	setupLogging(cfg.Log)

	// attach sigint & sigterm listeners
	terminationSignals := make(chan os.Signal, 1)
	signal.Notify(terminationSignals, syscall.SIGINT, syscall.SIGTERM)

	// quitFunc will be called when process is terminated
	ctx, quitFunc := context.WithCancel(context.Background())

	// wait group will make sure all goroutines have time to clean up
	var wg sync.WaitGroup

	mqttClient, err := vehicle.Connect(cfg.MQTT)
	if err != nil {
		log.Fatal(err)
	}
	defer mqttClient.Disconnect(1000)

	me := cfg.MQTT.DeviceID
	drone := vehicle.New(mqttClient, me, cfg.MQTT.Timeout)
	ended := make(chan types.MissionEnded, 1)

	messagebus := make(chan types.Message, 100)
	bus := types.NewMessageBus(
		messagebus,
		types.NewLogger(),
		drone,
		commands.New(mqttClient, me),
		telemetry.New(mqttClient, me),
		planning.New(me, cfg.Mission, cfg.Goal),
		flight.New(me, drone, cfg.Mission, cfg.Flight),
		newMissionWatcher(ended),
	)

	go bus.Run(ctx, &wg)

	// wait for termination, land if airborne
	sig := <-terminationSignals
	drain(ended)
	log.Printf("Got %v, ending mission..", sig)
	bus.Post(types.CreateMessage("abort-mission", me, me, types.AbortMission{Reason: fmt.Sprintf("received %v", sig)}))
	select {
	case m := <-ended:
		log.Printf("Mission ended (aborted: %v)", m.Aborted)
	case <-terminationSignals:
		log.Printf("Second signal, not waiting for the mission to end")
	}

	// cancel the main context
	log.Printf("Shutting down..")
	quitFunc()

	// wait until goroutines have done their cleanup
	log.Printf("Waiting for routines to finish...")
	wg.Wait()
	log.Printf("Signing off - BYE")
}

func applyFlags(cfg *config.Config) {
	if *host != "" {
		cfg.MQTT.Host = *host
	}
	if *port != 0 {
		cfg.MQTT.Port = *port
	}
	if *timeout != 0 {
		cfg.MQTT.Timeout = *timeout
	}
	if *deviceID != "" {
		cfg.MQTT.DeviceID = *deviceID
	}
	if *privateKeyPath != "" {
		cfg.MQTT.PrivateKey = *privateKeyPath
	}
	if *colliders != "" {
		cfg.Mission.Colliders = *colliders
	}
	if *logDir != "" {
		cfg.Log.Dir = *logDir
	}
}

func setupLogging(cfg config.Log) {
	if cfg.Dir == "" {
		return
	}

	logFile := &lumberjack.Logger{
		Filename:   filepath.Join(cfg.Dir, fmt.Sprintf("motion_planning_%s.log", time.Now().Format("20060102"))),
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge,
		Compress:   cfg.Compress,
	}
	log.SetOutput(io.MultiWriter(os.Stderr, logFile))
}

func drain(ended chan types.MissionEnded) {
	for {
		select {
		case <-ended:
		default:
			return
		}
	}
}

// missionWatcher forwards mission results to main.
type missionWatcher struct {
	ended chan<- types.MissionEnded
}

func newMissionWatcher(ended chan<- types.MissionEnded) types.MessageHandler {
	return &missionWatcher{ended}
}

func (mw *missionWatcher) Receive(message types.Message) {
	if m, ok := message.Message.(types.MissionEnded); ok {
		select {
		case mw.ended <- m:
		default:
		}
	}
}

func (mw *missionWatcher) Run(ctx context.Context, wg *sync.WaitGroup, post types.PostFn) {
}
