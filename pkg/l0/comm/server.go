package comm

import (
	"context"
	"errors"
	"io"

	"github.com/golang/glog"

	fx "github.com/robotalks/rover.go/pkg/framework"
	"github.com/robotalks/rover.go/pkg/l0/msgs"
)

// Server provides the MCU side of L0 protocol. Requests are handled one
// at a time in arrival order and each gets exactly one response.
type Server struct {
	ReadWriter PacketReadWriter
	Handler    Handler
	Version    msgs.ProtocolVersion
}

// NewServer creates a Server.
func NewServer(rw PacketReadWriter, h Handler) *Server {
	return &Server{ReadWriter: rw, Handler: h, Version: msgs.CurrentVersion}
}

// Name implements framework Named.
func (s *Server) Name() string {
	return "l0-server(" + transportName(s.ReadWriter) + ")"
}

// Run implements Runnable.
func (s *Server) Run(ctx context.Context) error {
	fn := func() error { return s.serve(ctx) }
	if closer, ok := s.ReadWriter.(io.Closer); ok {
		return fx.RunWithContextCloser(ctx, closer, fn)
	}
	return fx.RunWithContext(ctx, fn)
}

func (s *Server) serve(ctx context.Context) error {
	for {
		var res msgs.Response
		pkt, err := s.ReadWriter.ReadPacket()
		switch {
		case IsFrameError(err):
			glog.Warningf("corrupt request: %v", err)
			res = msgs.DecodeFailure()
		case err != nil:
			return err
		default:
			res = s.Serve(ctx, pkt)
		}
		data, err := res.MarshalBinary()
		if err != nil {
			return err
		}
		if err = s.ReadWriter.WritePacket(&Packet{Version: s.Version, Data: data}); err != nil {
			return err
		}
	}
}

// Serve handles one request packet and returns the response.
func (s *Server) Serve(ctx context.Context, pkt *Packet) msgs.Response {
	if pkt.Version != s.Version {
		glog.Warningf("request version %s, expect %s", pkt.Version, s.Version)
		return msgs.DecodeFailure()
	}
	req, err := msgs.DecodeRequest(pkt.Data)
	if err != nil {
		glog.Warningf("decode request: %v", err)
		return msgs.DecodeFailure()
	}
	if unknown, ok := req.Kind.(msgs.UnknownRequest); ok {
		glog.V(1).Infof("unknown request %s state=%d", unknown.Tag, req.State)
		return msgs.Unimplemented(req.State)
	}
	glog.V(2).Infof("REQ %s state=%d", req.Kind.RequestTag(), req.State)

	data, err := s.Handler.HandleRequest(ctx, req.Kind)
	switch {
	case errors.Is(err, ErrUnimplemented):
		return msgs.Unimplemented(req.State)
	case err != nil:
		glog.Errorf("%s failed: %v", req.Kind.RequestTag(), err)
		return msgs.Response{Status: msgs.StatusError, State: req.State}
	}
	res := msgs.Response{Status: msgs.StatusOK, State: req.State, Data: data}
	var buf [msgs.MaxResponseSize]byte
	if _, err := res.MarshalTo(buf[:]); err != nil {
		glog.Errorf("%s response: %v", req.Kind.RequestTag(), err)
		return msgs.Response{Status: msgs.StatusError, State: req.State}
	}
	return res
}
