// Package ws serves the actor protocol over websocket connections.
package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"furnacesplit.ai/internal/protocol"
	"furnacesplit.ai/internal/sim/world"
)

const outQueue = 64

type Server struct {
	world *world.World
	log   zerolog.Logger

	upgrader websocket.Upgrader
}

func NewServer(w *world.World, logger zerolog.Logger) *Server {
	return &Server{
		world: w,
		log:   logger.With().Str("component", "ws").Logger(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  16 * 1024,
			WriteBufferSize: 16 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
	}
}

func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		actorID, out := s.handshake(r.Context(), conn)
		if actorID == "" {
			return
		}
		log := s.log.With().Str("actor", actorID).Logger()
		log.Debug().Str("remote", r.RemoteAddr).Msg("connected")

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		// Writer goroutine.
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case b, ok := <-out:
					if !ok {
						return
					}
					_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
					if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
						cancel()
						return
					}
				}
			}
		}()

		// Reader loop.
		for {
			_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			_, msg, err := conn.ReadMessage()
			if err != nil {
				cancel()
				break
			}
			act, reason := decodeAct(msg)
			if reason != "" {
				log.Debug().Str("reason", reason).Msg("dropped message")
				reject(out, protocol.ErrProtoBadRequest, reason)
				continue
			}
			select {
			case s.world.Inbox() <- world.ActionEnvelope{ActorID: actorID, Act: act}:
			default:
				log.Warn().Msg("world inbox full")
				reject(out, protocol.ErrWorldBusy, "world inbox busy")
			}
		}

		// Cleanup.
		s.world.Leave() <- actorID
		log.Debug().Msg("disconnected")
	}
}

// decodeAct parses an ACT frame; a non-empty reason means it was rejected.
func decodeAct(msg []byte) (protocol.ActMsg, string) {
	var act protocol.ActMsg
	base, err := protocol.DecodeBase(msg)
	if err != nil {
		return act, "malformed message"
	}
	if base.Type != protocol.TypeAct {
		return act, "unexpected message type " + base.Type
	}
	if base.ProtocolVersion != protocol.Version {
		return act, "bad protocol_version"
	}
	if err := json.Unmarshal(msg, &act); err != nil {
		return act, "malformed ACT"
	}
	return act, ""
}

// reject queues an error RESULT without blocking the reader.
func reject(out chan []byte, code, reason string) {
	b, err := json.Marshal(protocol.ResultMsg{
		Type:            protocol.TypeResult,
		ProtocolVersion: protocol.Version,
		Result:          protocol.ResultError,
		Code:            code,
		Message:         reason,
	})
	if err != nil {
		return
	}
	select {
	case out <- b:
	default:
	}
}

func (s *Server) handshake(ctx context.Context, conn *websocket.Conn) (actorID string, out chan []byte) {
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return "", nil
	}

	base, err := protocol.DecodeBase(msg)
	if err != nil || base.Type != protocol.TypeHello {
		closeWith(conn, "expected HELLO")
		return "", nil
	}

	var hello protocol.HelloMsg
	if err := json.Unmarshal(msg, &hello); err != nil {
		closeWith(conn, "malformed HELLO")
		return "", nil
	}
	if hello.ProtocolVersion != protocol.Version {
		closeWith(conn, "bad protocol_version")
		return "", nil
	}

	out = make(chan []byte, outQueue)
	respCh := make(chan world.JoinResponse, 1)
	select {
	case s.world.Join() <- world.JoinRequest{ActorID: hello.ActorID, Name: hello.Name, Out: out, Resp: respCh}:
	case <-ctx.Done():
		return "", nil
	}
	var resp world.JoinResponse
	select {
	case resp = <-respCh:
	case <-ctx.Done():
		return "", nil
	}

	if resp.Code != "" {
		s.log.Info().Str("actor", hello.ActorID).Str("code", resp.Code).Msg("join rejected")
		_ = writeJSON(conn, protocol.ResultMsg{
			Type:            protocol.TypeResult,
			ProtocolVersion: protocol.Version,
			Op:              protocol.TypeHello,
			Result:          protocol.ResultError,
			Code:            resp.Code,
			Message:         resp.Message,
		})
		closeWith(conn, resp.Message)
		return "", nil
	}

	// Send welcome immediately.
	if err := writeJSON(conn, resp.Welcome); err != nil {
		s.world.Leave() <- resp.Welcome.ActorID
		return "", nil
	}
	return resp.Welcome.ActorID, out
}

func closeWith(conn *websocket.Conn, reason string) {
	_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, reason), time.Now().Add(time.Second))
}

func writeJSON(conn *websocket.Conn, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return conn.WriteMessage(websocket.TextMessage, b)
}
