package env

import (
	"fmt"
	"log"
	"net"
	"net/url"
	"strings"

	"github.com/golang/glog"
	"go.bug.st/serial"
	"golang.org/x/time/rate"

	"github.com/robotalks/rover.go/pkg/bridge/mqtt"
	"github.com/robotalks/rover.go/pkg/l0/comm"
	"github.com/robotalks/rover.go/pkg/l0/comm/websocket"
)

// DialMCU connects to the MCU at MCUURL. An mqtt:// URL reaches the MCU
// through the bridge of Ref.
func (c *Config) DialMCU() (comm.PacketReadWriter, error) {
	if strings.HasPrefix(c.MCUURL, "/") {
		return c.openSerial(c.MCUURL)
	}
	u, err := url.Parse(c.MCUURL)
	if err != nil {
		return nil, fmt.Errorf("invalid MCU URL: %w", err)
	}
	glog.V(1).Infof("connecting MCU %s", c.MCUURL)
	switch u.Scheme {
	case "tcp":
		conn, err := net.DialTimeout("tcp", u.Host, c.Timeout.Duration*10)
		if err != nil {
			return nil, err
		}
		return comm.NewStream(conn), nil
	case "ws", "wss":
		return websocket.Dial(c.MCUURL)
	case "serial":
		return c.openSerial(u.Path)
	case "mqtt":
		return c.dialBridge(c.MCUURL)
	default:
		return nil, fmt.Errorf("unknown MCU URL scheme: %q", u.Scheme)
	}
}

// dialBridge reaches the MCU through the telemetry bridge of Ref.
func (c *Config) dialBridge(brokerURL string) (comm.PacketReadWriter, error) {
	if !c.Ref.IsValid() {
		return nil, fmt.Errorf("rover type and id must be specified")
	}
	q, err := mqtt.ConnectURL(brokerURL)
	if err != nil {
		return nil, err
	}
	rw, err := mqtt.ForRemote(q, c.Ref.Name())
	if err != nil {
		q.Close()
		return nil, err
	}
	rw.OwnQueue = true
	return rw, nil
}

func (c *Config) openSerial(device string) (comm.PacketReadWriter, error) {
	port, err := serial.Open(device, &serial.Mode{BaudRate: c.Baud})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", device, err)
	}
	return comm.NewStream(port), nil
}

// NewClient dials the MCU and creates a client, the caller must Run it.
func (c *Config) NewClient() (*comm.Client, error) {
	rw, err := c.DialMCU()
	if err != nil {
		return nil, err
	}
	cli := comm.NewClient(rw)
	if c.Timeout.Duration > 0 {
		cli.Timeout = c.Timeout.Duration
	}
	if c.Rate > 0 {
		cli.Limiter = rate.NewLimiter(rate.Limit(c.Rate), 1)
	}
	return cli, nil
}

// MustNewClient creates the client and fails on error.
func (c *Config) MustNewClient() *comm.Client {
	cli, err := c.NewClient()
	if err != nil {
		log.Fatalln(err)
	}
	return cli
}
