package server

import (
	"bufio"
	"context"
	"errors"
	"net"
	"time"

	"github.com/google/uuid"

	"github.com/vyrodovalexey/minapi/internal/observability"
	"github.com/vyrodovalexey/minapi/internal/router"
	"github.com/vyrodovalexey/minapi/internal/util"
	"github.com/vyrodovalexey/minapi/internal/wire"
)

// connState tracks where in its lifecycle a connection is. States
// advance strictly forward; a failure exits the pipeline from the
// state it occurred in and is reported with that state attached.
type connState int

const (
	stateAccepted connState = iota
	stateParsing
	stateMatching
	stateBinding
	stateInvoking
	stateSerializing
	stateWriting
	stateClosed
)

func (s connState) String() string {
	switch s {
	case stateAccepted:
		return "accepted"
	case stateParsing:
		return "parsing"
	case stateMatching:
		return "matching"
	case stateBinding:
		return "binding"
	case stateInvoking:
		return "invoking"
	case stateSerializing:
		return "serializing"
	case stateWriting:
		return "writing"
	case stateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// serviceConnection runs the full pipeline for one connection: read
// and parse exactly one request, dispatch it, write exactly one
// response, close. There is no keep-alive.
func (s *Server) serviceConnection(conn net.Conn) {
	start := time.Now()
	requestID := uuid.New().String()

	logger := s.logger.With(
		observability.String("request_id", requestID),
		observability.String("remote", conn.RemoteAddr().String()),
	)

	defer func() {
		if err := conn.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			logger.Debug("closing connection", observability.Error(err))
		}
		if s.metrics != nil {
			s.metrics.ConnectionClosed()
		}
	}()

	if err := conn.SetReadDeadline(time.Now().Add(s.cfg.Timeouts.GetEffectiveReadTimeout())); err != nil {
		logger.Warn("setting read deadline", observability.Error(err))
		return
	}

	method := "unknown"
	routeLabel := observability.UnmatchedRoute

	var resp *wire.Response
	req, err := wire.ParseRequest(bufio.NewReader(conn))
	switch {
	case err == nil:
		method = req.Method
		ctx := observability.ContextWithRequestID(context.Background(), requestID)
		resp, routeLabel = s.dispatch(ctx, req, logger)
	case errors.Is(err, util.ErrInvalidInput):
		logger.Debug("request rejected",
			observability.String("state", stateParsing.String()),
			observability.Error(err),
		)
		resp = wire.ErrorFrom(err)
	default:
		// Transport failure: the peer went away or stalled past the
		// deadline before a full request arrived. Nothing can be
		// written back.
		logger.Debug("connection dropped before a full request",
			observability.String("state", stateParsing.String()),
			observability.Error(err),
		)
		return
	}

	if err := conn.SetWriteDeadline(time.Now().Add(s.cfg.Timeouts.GetEffectiveWriteTimeout())); err != nil {
		logger.Warn("setting write deadline", observability.Error(err))
		return
	}
	if err := resp.Write(conn); err != nil {
		logger.Debug("writing response",
			observability.String("state", stateWriting.String()),
			observability.Error(err),
		)
		return
	}

	duration := time.Since(start)
	if s.metrics != nil {
		s.metrics.RecordRequest(method, routeLabel, resp.Status, duration, resp.Len())
	}
	logger.Info("request served",
		observability.String("method", method),
		observability.String("route", routeLabel),
		observability.Int("status", resp.Status),
		observability.Int("bytes", resp.Len()),
		observability.Duration("duration", duration),
	)
}

// dispatch matches, binds and invokes for one parsed request. It
// always produces a response; pipeline errors are folded into an error
// response by the serializer. The returned route label is the matched
// pattern, or the unmatched placeholder when lookup failed.
func (s *Server) dispatch(ctx context.Context, req *wire.Request, logger observability.Logger) (*wire.Response, string) {
	route, pathParams, err := s.table.Lookup(req.Method, req.Path)
	if err != nil {
		logger.Debug("no matching route",
			observability.String("state", stateMatching.String()),
			observability.String("method", req.Method),
			observability.String("path", req.Path),
		)
		return wire.ErrorFrom(err), observability.UnmatchedRoute
	}

	args, err := router.Bind(route, req, pathParams)
	if err != nil {
		logger.Debug("parameter binding failed",
			observability.String("state", stateBinding.String()),
			observability.String("route", route.Pattern),
			observability.Error(err),
		)
		return wire.ErrorFrom(err), route.Pattern
	}

	out, err := route.Invoke(ctx, args)
	if err != nil {
		if util.StatusFor(err) >= 500 {
			logger.Error("handler fault",
				observability.String("state", stateInvoking.String()),
				observability.String("route", route.Pattern),
				observability.Error(err),
			)
		} else {
			logger.Debug("handler rejected request",
				observability.String("state", stateInvoking.String()),
				observability.String("route", route.Pattern),
				observability.Error(err),
			)
		}
		return wire.ErrorFrom(err), route.Pattern
	}

	return wire.Ok(out), route.Pattern
}
