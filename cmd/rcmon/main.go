// Command rcmon streams telemetry from the PWM bridge to the console and
// optionally records it to a CSV file for dataset capture.
package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/maxboels/quantum-tracer-il/pkg/car"
	"github.com/maxboels/quantum-tracer-il/pkg/config"
	"github.com/maxboels/quantum-tracer-il/pkg/health"
)

var csvHeader = []string{
	"host_time_us",
	"device_time_ms",
	"steering",
	"throttle",
	"steering_raw_us",
	"throttle_raw_us",
	"steering_period_us",
	"throttle_period_us",
}

func main() {
	var (
		portFlag     = flag.String("p", "", "Serial port override (e.g., COM3 or /dev/ttyACM0)")
		configFlag   = flag.String("config", "config.yaml", "Configuration file path")
		mockFlag     = flag.Bool("mock", false, "Use mocked device instead of serial port")
		csvFlag      = flag.String("csv", "", "Record telemetry to this CSV file")
		durationFlag = flag.Duration("duration", 0, "Stop after this long (0 = run until interrupted)")
		quietFlag    = flag.Bool("quiet", false, "Suppress per-frame console output")
	)
	flag.Parse()

	cfg, err := config.Load(*configFlag)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if *portFlag != "" {
		cfg.Serial.Port = *portFlag
	}

	var device car.Device
	if *mockFlag {
		device = car.NewMock(cfg)
		log.Println("Using mocked device")
	} else {
		device = car.New(cfg.Serial.Port, cfg.Serial.Baud, car.DefaultBufferSize)
	}

	if err := device.Connect(); err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}
	defer device.Close()

	if err := device.WaitReady(3 * time.Second); err != nil {
		log.Fatalf("Device did not report ready: %v", err)
	}
	if !*mockFlag {
		log.Printf("Connected to %s", cfg.Serial.Port)
	}

	var writer *csv.Writer
	if *csvFlag != "" {
		f, err := os.Create(*csvFlag)
		if err != nil {
			log.Fatalf("Failed to create CSV file: %v", err)
		}
		defer f.Close()

		writer = csv.NewWriter(f)
		defer writer.Flush()
		if err := writer.Write(csvHeader); err != nil {
			log.Fatalf("Failed to write CSV header: %v", err)
		}
		log.Printf("Recording to %s", *csvFlag)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	window := time.Duration(cfg.Display.WindowSeconds) * time.Second
	monitor := health.New(window, 2*time.Second)

	var deadline <-chan time.Time
	if *durationFlag > 0 {
		deadline = time.After(*durationFlag)
	}

	statusTicker := time.NewTicker(5 * time.Second)
	defer statusTicker.Stop()

	recorded := 0
	for {
		select {
		case <-ctx.Done():
			log.Printf("Interrupted, %d frames recorded", recorded)
			return
		case <-deadline:
			log.Printf("Done, %d frames recorded", recorded)
			return
		case <-statusTicker.C:
			snap := monitor.Snapshot()
			log.Printf("link: %.1f fps, steering %s, throttle %s",
				snap.Rate, snap.Steering.State, snap.Throttle.State)
		case frame, ok := <-device.Frames():
			if !ok {
				log.Printf("Connection closed, %d frames recorded", recorded)
				return
			}
			monitor.Observe(frame)

			if !*quietFlag {
				fmt.Printf("%8dms  steer %+.4f  throttle %.4f  raw %d/%dus\n",
					frame.TimestampMs, frame.Steering, frame.Throttle,
					frame.SteeringRawUs, frame.ThrottleRawUs)
			}

			if writer != nil {
				if err := writer.Write(frameRecord(frame)); err != nil {
					log.Fatalf("Failed to write CSV record: %v", err)
				}
				recorded++
			}
		}
	}
}

func frameRecord(f car.Frame) []string {
	return []string{
		strconv.FormatInt(f.Received.UnixMicro(), 10),
		strconv.FormatUint(uint64(f.TimestampMs), 10),
		strconv.FormatFloat(float64(f.Steering), 'f', 4, 32),
		strconv.FormatFloat(float64(f.Throttle), 'f', 4, 32),
		strconv.FormatUint(uint64(f.SteeringRawUs), 10),
		strconv.FormatUint(uint64(f.ThrottleRawUs), 10),
		strconv.FormatUint(uint64(f.SteeringPeriodUs), 10),
		strconv.FormatUint(uint64(f.ThrottlePeriodUs), 10),
	}
}
