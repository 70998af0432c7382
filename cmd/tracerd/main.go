//go:build linux

// Command tracerd runs the PWM bridge on a Linux single-board computer.
// Receiver channels are captured through the GPIO character device,
// actuators are driven through the hardware PWM pins, and the same line
// protocol as the microcontroller firmware is spoken on stdin/stdout, so
// the host tools work unchanged across a pipe or ssh.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/maxboels/quantum-tracer-il/pkg/config"
	"github.com/maxboels/quantum-tracer-il/pkg/control"
	"github.com/maxboels/quantum-tracer-il/pkg/gpiocap"
	"github.com/maxboels/quantum-tracer-il/pkg/proto"
	"github.com/maxboels/quantum-tracer-il/pkg/pwmcap"
	"github.com/maxboels/quantum-tracer-il/pkg/servoout"
)

func main() {
	var (
		configFlag       = flag.String("config", "config.yaml", "Configuration file path")
		chipFlag         = flag.String("chip", "gpiochip0", "GPIO chip for edge capture")
		steeringLineFlag = flag.Int("steering-line", 17, "GPIO line tapped off the steering lead")
		throttleLineFlag = flag.Int("throttle-line", 27, "GPIO line tapped off the throttle lead")
		steeringPinFlag  = flag.Int("steering-pin", 18, "Hardware PWM pin for the steering servo")
		throttlePinFlag  = flag.Int("throttle-pin", 13, "Hardware PWM pin for the ESC")
	)
	flag.Parse()

	cfg, err := config.Load(*configFlag)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	steeringCap, err := gpiocap.Request(*chipFlag, *steeringLineFlag)
	if err != nil {
		log.Fatalf("Failed to capture steering line: %v", err)
	}
	defer steeringCap.Close()

	throttleCap, err := gpiocap.Request(*chipFlag, *throttleLineFlag)
	if err != nil {
		log.Fatalf("Failed to capture throttle line: %v", err)
	}
	defer throttleCap.Close()

	sampler := pwmcap.NewSampler(steeringCap.Capture, throttleCap.Capture)
	sampler.SteeringCal = cfg.SteeringCalibration()
	sampler.ThrottleCal = cfg.ThrottleCalibration()

	controller := control.New()
	controller.FailsafeMs = uint32(cfg.Failsafe.Timeout.Milliseconds())

	out, err := servoout.Open(*steeringPinFlag, *throttlePinFlag, cfg.ServoRange())
	if err != nil {
		log.Fatalf("Failed to open servo outputs: %v", err)
	}
	defer out.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Command lines from stdin, fed from a goroutine so the tick loop
	// never blocks on a silent peer.
	cmds := make(chan string, 16)
	go func() {
		defer close(cmds)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			cmds <- scanner.Text()
		}
	}()

	start := time.Now()
	nowMs := func() uint32 {
		return uint32(time.Since(start).Milliseconds())
	}

	fmt.Println(proto.ReadyLine)

	ticker := time.NewTicker(cfg.Sampling.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			out.Neutral()
			return

		case line, ok := <-cmds:
			if !ok {
				// Peer hung up; the failsafe takes it from here
				cmds = nil
				continue
			}
			reply, ok := controller.Apply(proto.ParseCommand(line), nowMs())
			if !ok {
				continue
			}
			fmt.Println(reply)
			out.Apply(controller)

		case <-ticker.C:
			if controller.CheckFailsafe(nowMs()) {
				out.Apply(controller)
			}
			fmt.Println(proto.EncodeSample(sampler.Sample(nowMs())))
		}
	}
}
