// Command rccli is an interactive shell for driving the PWM bridge over
// its serial link: switching modes, sending steering/throttle targets and
// watching live telemetry.
package main

import (
	"flag"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/abiosoft/ishell"

	"github.com/maxboels/quantum-tracer-il/pkg/car"
	"github.com/maxboels/quantum-tracer-il/pkg/config"
	"github.com/maxboels/quantum-tracer-il/pkg/proto"
)

const (
	shellKey          = "$shell"
	unconnectedPrompt = "[none] > "
	replyTimeout      = time.Second
)

// Shell provides the ishell backed interactive shell.
type Shell struct {
	Shell   *ishell.Shell
	Config  *config.Config
	UseMock bool

	device car.Device
}

var commands = []*ishell.Cmd{
	&PortsCmd,
	&ConnectCmd,
	&DisconnectCmd,
	&CtrlCmd,
	&ModeCmd,
	&StatusCmd,
	&CenterCmd,
	&WatchCmd,
}

// New creates a new shell.
func New(cfg *config.Config, useMock bool) *Shell {
	s := &Shell{
		Shell:   ishell.New(),
		Config:  cfg,
		UseMock: useMock,
	}
	s.Shell.Set(shellKey, s)
	s.Shell.SetPrompt(unconnectedPrompt)
	for _, cmd := range commands {
		s.Shell.AddCmd(cmd)
	}
	return s
}

// ShellFrom gets Shell from ishell context.
func ShellFrom(c *ishell.Context) *Shell {
	return c.Get(shellKey).(*Shell)
}

// MustBeConnected wraps a command func that requires a connection.
func MustBeConnected(fn func(c *ishell.Context)) func(c *ishell.Context) {
	return func(c *ishell.Context) {
		s := ShellFrom(c)
		if s.device == nil || !s.device.IsConnected() {
			c.Err(fmt.Errorf("not connected"))
			return
		}
		fn(c)
	}
}

// Connect opens the device and waits for its ready line.
func (s *Shell) Connect(port string) error {
	var device car.Device
	name := port
	if s.UseMock {
		device = car.NewMock(s.Config)
		name = "mock"
	} else {
		device = car.New(port, s.Config.Serial.Baud, car.DefaultBufferSize)
	}

	if err := device.Connect(); err != nil {
		return err
	}
	if err := device.WaitReady(3 * time.Second); err != nil {
		device.Close()
		return err
	}

	if s.device != nil {
		s.device.Close()
	}
	s.device = device
	s.Shell.SetPrompt(fmt.Sprintf("%s > ", name))
	return nil
}

// Disconnect closes the current device.
func (s *Shell) Disconnect() {
	if s.device != nil {
		s.device.Close()
		s.device = nil
		s.Shell.SetPrompt(unconnectedPrompt)
	}
}

// awaitReply sends via fn and prints the device's next ack or status.
func awaitReply(c *ishell.Context, fn func() error) {
	s := ShellFrom(c)
	if err := fn(); err != nil {
		c.Err(err)
		return
	}
	select {
	case line, ok := <-s.device.Replies():
		if !ok {
			c.Err(fmt.Errorf("connection closed"))
			return
		}
		c.Println(line)
	case <-time.After(replyTimeout):
		c.Err(fmt.Errorf("reply timeout"))
	}
}

// Run runs the shell.
func (s *Shell) Run(args ...string) {
	defer s.Disconnect()

	if len(args) > 0 {
		if err := s.Shell.Process(args...); err != nil {
			log.Fatalln(err)
		}
		return
	}
	s.Shell.Run()
}

var (
	// PortsCmd lists the available serial ports.
	PortsCmd = ishell.Cmd{
		Name:    "ports",
		Aliases: []string{"list", "l"},
		Help:    "list serial ports",
		Func: func(c *ishell.Context) {
			ports, err := car.Ports()
			if err != nil {
				c.Err(err)
				return
			}
			if len(ports) == 0 {
				c.Println("No serial ports found")
				return
			}
			for _, port := range ports {
				c.Println(port.Name)
			}
		},
	}

	// ConnectCmd connects to the bridge.
	ConnectCmd = ishell.Cmd{
		Name:    "connect",
		Aliases: []string{"c"},
		Help:    "[PORT]",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			port := s.Config.Serial.Port
			if len(c.Args) >= 1 {
				port = c.Args[0]
			}
			if err := s.Connect(port); err != nil {
				c.Err(err)
			}
		},
	}

	// DisconnectCmd disconnects the current device.
	DisconnectCmd = ishell.Cmd{
		Name:    "disconnect",
		Aliases: []string{"d"},
		Help:    "",
		Func: func(c *ishell.Context) {
			ShellFrom(c).Disconnect()
		},
	}

	// CtrlCmd sends a steering/throttle target. Implicitly switches the
	// bridge to autonomous mode.
	CtrlCmd = ishell.Cmd{
		Name: "ctrl",
		Help: "STEERING THROTTLE (steering -1..1, throttle 0..1)",
		Func: MustBeConnected(func(c *ishell.Context) {
			if len(c.Args) < 2 {
				c.Err(fmt.Errorf("usage: ctrl STEERING THROTTLE"))
				return
			}
			steering, err := strconv.ParseFloat(c.Args[0], 32)
			if err != nil {
				c.Err(fmt.Errorf("bad steering %q: %w", c.Args[0], err))
				return
			}
			throttle, err := strconv.ParseFloat(c.Args[1], 32)
			if err != nil {
				c.Err(fmt.Errorf("bad throttle %q: %w", c.Args[1], err))
				return
			}
			s := ShellFrom(c)
			awaitReply(c, func() error {
				return s.device.SetControl(float32(steering), float32(throttle))
			})
		}),
	}

	// ModeCmd switches between manual and autonomous actuation.
	ModeCmd = ishell.Cmd{
		Name: "mode",
		Help: "auto | manual",
		Func: MustBeConnected(func(c *ishell.Context) {
			if len(c.Args) < 1 {
				c.Err(fmt.Errorf("usage: mode auto|manual"))
				return
			}
			var mode proto.Mode
			switch c.Args[0] {
			case "auto", "AUTO":
				mode = proto.ModeAuto
			case "manual", "MANUAL":
				mode = proto.ModeManual
			default:
				c.Err(fmt.Errorf("unknown mode %q", c.Args[0]))
				return
			}
			s := ShellFrom(c)
			awaitReply(c, func() error {
				return s.device.SetMode(mode)
			})
		}),
	}

	// StatusCmd queries the current mode and target.
	StatusCmd = ishell.Cmd{
		Name:    "status",
		Aliases: []string{"s"},
		Help:    "",
		Func: MustBeConnected(func(c *ishell.Context) {
			s := ShellFrom(c)
			awaitReply(c, func() error {
				return s.device.RequestStatus()
			})
		}),
	}

	// CenterCmd zeroes the control target.
	CenterCmd = ishell.Cmd{
		Name: "center",
		Help: "send neutral steering and zero throttle",
		Func: MustBeConnected(func(c *ishell.Context) {
			s := ShellFrom(c)
			awaitReply(c, func() error {
				return s.device.SetControl(0, 0)
			})
		}),
	}

	// WatchCmd streams telemetry frames for a few seconds.
	WatchCmd = ishell.Cmd{
		Name:    "watch",
		Aliases: []string{"w"},
		Help:    "[SECONDS] print live telemetry (default 5s)",
		Func: MustBeConnected(func(c *ishell.Context) {
			seconds := 5
			if len(c.Args) >= 1 {
				v, err := strconv.Atoi(c.Args[0])
				if err != nil || v <= 0 {
					c.Err(fmt.Errorf("bad duration %q", c.Args[0]))
					return
				}
				seconds = v
			}

			s := ShellFrom(c)
			deadline := time.After(time.Duration(seconds) * time.Second)
			for {
				select {
				case frame, ok := <-s.device.Frames():
					if !ok {
						c.Err(fmt.Errorf("connection closed"))
						return
					}
					c.Printf("%8dms  steer %+.4f  throttle %.4f  raw %d/%dus\n",
						frame.TimestampMs, frame.Steering, frame.Throttle,
						frame.SteeringRawUs, frame.ThrottleRawUs)
				case <-deadline:
					return
				}
			}
		}),
	}
)

func main() {
	var (
		portFlag   = flag.String("p", "", "Serial port override (e.g., COM3 or /dev/ttyACM0)")
		configFlag = flag.String("config", "config.yaml", "Configuration file path")
		mockFlag   = flag.Bool("mock", false, "Use mocked device instead of serial port")
	)
	flag.Parse()

	cfg, err := config.Load(*configFlag)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if *portFlag != "" {
		cfg.Serial.Port = *portFlag
	}

	New(cfg, *mockFlag).Run(flag.Args()...)
}
