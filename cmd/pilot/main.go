// Command pilot runs the line-follower control loop: it consumes range
// scans, edge vectors and traffic status from the sensor bridge (serial
// and/or UDP), decides speed and turn each vision frame, and publishes Joy
// messages to the drive-by-wire bridge. A monitor HTTP server exposes state,
// live tuning and debug charts.
package main

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/track.pilot/internal/config"
	"github.com/banshee-data/track.pilot/internal/feed"
	"github.com/banshee-data/track.pilot/internal/follower"
	"github.com/banshee-data/track.pilot/internal/follower/monitor"
	"github.com/banshee-data/track.pilot/internal/serialmux"
	"github.com/banshee-data/track.pilot/internal/teledb"
	"github.com/banshee-data/track.pilot/internal/version"
)

var (
	listen        = flag.String("listen", ":8080", "Monitor HTTP listen address")
	serialPort    = flag.String("serial-port", "", "Serial port of the sensor bridge (empty disables serial)")
	serialBaud    = flag.Int("serial-baud", 115200, "Serial baud rate")
	feedListen    = flag.String("feed-listen", "", "UDP listen address for sensor envelopes (empty disables UDP feed)")
	driveAddr     = flag.String("drive-addr", "127.0.0.1:8131", "UDP address of the drive-by-wire bridge")
	configPath    = flag.String("config", config.DefaultConfigPath, "Tuning config file")
	dbFile        = flag.String("db", "pilot_telemetry.db", "Telemetry database file")
	migrationsDir = flag.String("migrations", "data/migrations", "Telemetry schema migrations directory")
	devMode       = flag.Bool("dev", false, "Replay fixtures.txt through a mock serial bridge")
	fixturesPath  = flag.String("fixtures", "fixtures.txt", "Envelope fixtures for dev mode")
)

func main() {
	flag.Parse()

	if *listen == "" {
		log.Fatal("Listen address is required")
	}
	if *serialPort == "" && *feedListen == "" && !*devMode {
		log.Fatal("No sensor source: set -serial-port, -feed-listen, or -dev")
	}

	tuning, err := loadTuning(*configPath)
	if err != nil {
		log.Fatalf("failed to load tuning config: %v", err)
	}

	runID := uuid.NewString()
	log.Printf("starting pilot %s (%s) run %s", version.Version, version.GitSHA, runID)

	db, err := teledb.NewDB(*dbFile)
	if err != nil {
		log.Fatalf("failed to open telemetry database: %v", err)
	}
	defer db.Close()
	if err := db.MigrateUp(*migrationsDir); err != nil {
		log.Fatalf("failed to migrate telemetry database: %v", err)
	}

	sink, err := feed.NewUDPJoySink(*driveAddr)
	if err != nil {
		log.Fatalf("failed to dial drive bridge: %v", err)
	}
	defer sink.Close()

	controller := follower.NewController(sink, tuning.FollowerTuning())
	ring := monitor.NewDecisionRing(512)
	dispatcher := feed.NewDispatcher(controller, db, runID)
	dispatcher.Observer = func(d teledb.Decision) {
		ring.Add(monitor.DecisionPoint{
			Time:      time.Now(),
			Turn:      d.Turn,
			Speed:     d.Speed,
			SpeedMult: d.SpeedMult,
		})
	}

	var mux serialmux.Mux
	var mockPort *serialmux.MockSerialPort
	switch {
	case *devMode:
		mux, mockPort = serialmux.NewMockSerialMux()
	case *serialPort != "":
		m, err := serialmux.NewRealSerialMux(*serialPort, serialmux.PortOptions{BaudRate: *serialBaud})
		if err != nil {
			log.Fatalf("failed to open serial port: %v", err)
		}
		mux = m
	default:
		mux = serialmux.NewDisabledSerialMux()
	}
	defer mux.Close()

	var wg sync.WaitGroup
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// run the monitor routine to manage IO on the serial link
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := mux.Monitor(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("failed to monitor serial port: %v", err)
		}
		log.Print("serial monitor routine terminated")
	}()

	if err := mux.Initialize(); err != nil {
		log.Printf("failed to initialize sensor bridge: %v", err)
	}

	// All sensor sources funnel into one channel so the controller sees a
	// strictly serial dispatch, whichever transports are enabled.
	envelopes := make(chan []byte, 64)

	// subscribe to serial envelope lines
	wg.Add(1)
	go func() {
		defer wg.Done()
		id, c := mux.Subscribe()
		defer mux.Unsubscribe(id)
		for {
			select {
			case payload := <-c:
				select {
				case envelopes <- []byte(payload):
				case <-ctx.Done():
					return
				}
			case <-ctx.Done():
				log.Printf("subscribe routine terminated")
				return
			}
		}
	}()

	// UDP sensor feed
	if *feedListen != "" {
		listener, err := feed.NewUDPListener(feed.UDPListenerConfig{
			Address: *feedListen,
			Handler: func(data []byte) error {
				buf := make([]byte, len(data))
				copy(buf, data)
				select {
				case envelopes <- buf:
				case <-ctx.Done():
				}
				return nil
			},
		})
		if err != nil {
			log.Fatalf("failed to bind feed listener: %v", err)
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := listener.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("feed listener error: %v", err)
			}
		}()
	}

	// reactor loop: one envelope at a time into the controller
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case line := <-envelopes:
				if err := dispatcher.HandleLine(line); err != nil {
					log.Printf("error handling envelope: %v", err)
				}
			case <-ctx.Done():
				log.Printf("reactor loop terminated")
				return
			}
		}
	}()

	// dev mode: replay fixture envelopes through the mock bridge
	if *devMode {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := replayFixtures(ctx, *fixturesPath, mockPort); err != nil {
				log.Printf("fixture replay stopped: %v", err)
			}
		}()
	}

	// monitor HTTP server, with the telemetry store and serial console
	// debug routes mounted alongside
	ws := monitor.NewWebServer(monitor.WebServerConfig{
		Address:    *listen,
		Controller: controller,
		Decisions:  ring,
		RunID:      runID,
	})
	db.AttachAdminRoutes(ws.Mux())
	mux.AttachAdminRoutes(ws.Mux())
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := ws.Start(ctx); err != nil && err != http.ErrServerClosed {
			log.Printf("monitor server error: %v", err)
		}
		log.Printf("monitor server routine stopped")
	}()

	wg.Wait()
	log.Printf("Graceful shutdown complete")
}

// loadTuning reads the tuning config, falling back to built-in defaults when
// the default config file is absent.
func loadTuning(path string) (*config.TuningConfig, error) {
	cfg, err := config.LoadTuningConfig(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && path == config.DefaultConfigPath {
			log.Printf("no tuning config at %s, using built-in defaults", path)
			return config.EmptyTuningConfig(), nil
		}
		return nil, err
	}
	return cfg, nil
}

// replayFixtures feeds envelope lines from a fixtures file into the mock
// serial port at a steady cadence, looping until the context is cancelled.
func replayFixtures(ctx context.Context, path string, port *serialmux.MockSerialPort) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var lines []string
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 1024*1024), 1024*1024)
	for scanner.Scan() {
		if line := scanner.Text(); line != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) == 0 {
		return errors.New("fixtures file has no envelope lines")
	}

	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	i := 0
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := port.FeedLine(lines[i%len(lines)]); err != nil {
				return err
			}
			i++
		}
	}
}
