package main

//go-build: CGO_ENABLED=0

import (
	"context"
	"flag"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/golang/glog"
	"golang.org/x/net/websocket"

	fx "github.com/robotalks/rover.go/pkg/framework"
	"github.com/robotalks/rover.go/pkg/l0/comm"
	wsrw "github.com/robotalks/rover.go/pkg/l0/comm/websocket"
	"github.com/robotalks/rover.go/pkg/mcu"
)

var (
	tcpAddr  = ":7700"
	wsAddr   = ":7780"
	interval = 50 * time.Millisecond
)

func init() {
	mcu.SetupFlags()
	flag.StringVar(&tcpAddr, "tcp", tcpAddr, "TCP listen address, empty to disable.")
	flag.StringVar(&wsAddr, "ws", wsAddr, "Websocket listen address (path /l0), empty to disable.")
	flag.DurationVar(&interval, "interval", interval, "Simulation step interval.")
}

// serveConn serves one host connection until it closes.
func serveConn(ctx context.Context, m *mcu.MCU, rw comm.PacketReadWriter, remote string) {
	s := comm.NewServer(rw, m)
	glog.Infof("%s: host %s connected", s.Name(), remote)
	if err := s.Run(ctx); !fx.IsCleanExit(err) {
		glog.Warningf("%s: host %s failed: %v", s.Name(), remote, err)
		return
	}
	glog.Infof("%s: host %s disconnected", s.Name(), remote)
}

func serveTCP(ctx context.Context, m *mcu.MCU) error {
	ln, err := net.Listen("tcp", tcpAddr)
	if err != nil {
		return err
	}
	return fx.RunWithContextCloser(ctx, ln, func() error {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return err
			}
			go serveConn(ctx, m, comm.NewStream(conn), conn.RemoteAddr().String())
		}
	})
}

func serveWebsocket(ctx context.Context, m *mcu.MCU) error {
	mux := http.NewServeMux()
	mux.Handle("/l0", websocket.Handler(func(conn *websocket.Conn) {
		serveConn(ctx, m, wsrw.New(conn), conn.Request().RemoteAddr)
	}))
	srv := &http.Server{Addr: wsAddr, Handler: mux}
	return fx.RunWithContextCloser(ctx, srv, srv.ListenAndServe)
}

func main() {
	flag.Parse()

	m := mcu.NewConfig().NewMCU()
	loop := fx.NewLoop().Add(m)
	loop.Interval = interval
	if tcpAddr != "" {
		loop.AddRunnable(fx.NamedRun("tcp", fx.RunFunc(func(ctx context.Context) error {
			return serveTCP(ctx, m)
		})))
	}
	if wsAddr != "" {
		loop.AddRunnable(fx.NamedRun("websocket", fx.RunFunc(func(ctx context.Context) error {
			return serveWebsocket(ctx, m)
		})))
	}

	runner := fx.NewRunner().HandleSignals()
	runner.Go(loop)
	if err := runner.Wait(); err != nil {
		log.Fatalln(err)
	}
}
