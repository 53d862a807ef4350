package main

import (
	"encoding/json"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"furnacesplit.ai/internal/logging"
	"furnacesplit.ai/internal/protocol"
)

var (
	botURL   string
	botActor string
	botKind  string
	botFuel  string
)

var botCmd = &cobra.Command{
	Use:   "bot",
	Short: "Connect as an actor, fill an oven and print its estimates",
	Long: `bot joins a running server, places an oven, drops the fuel into slot 0,
deposits every other inventory stack (which the splitter spreads across
slots), lights the oven and logs each OVEN_INFO until interrupted.`,
	RunE: runBot,
}

func init() {
	botCmd.Flags().StringVar(&botURL, "url", "ws://localhost:8080/v1/ws", "ws url")
	botCmd.Flags().StringVar(&botActor, "actor", "bot", "actor id")
	botCmd.Flags().StringVar(&botKind, "kind", "furnace", "oven kind to place")
	botCmd.Flags().StringVar(&botFuel, "fuel", "wood", "fuel item")
	rootCmd.AddCommand(botCmd)
}

func runBot(cmd *cobra.Command, args []string) error {
	logger := logging.Component(logging.Setup(environment), "bot")

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, botURL, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close()
	go func() {
		<-ctx.Done()
		_ = conn.Close()
	}()

	if err := conn.WriteJSON(protocol.HelloMsg{Type: protocol.TypeHello, ProtocolVersion: protocol.Version, ActorID: botActor}); err != nil {
		return fmt.Errorf("send HELLO: %w", err)
	}

	b := &bot{conn: conn, log: logger}
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		if err := b.handle(msg); err != nil {
			return err
		}
	}
}

type bot struct {
	conn *websocket.Conn
	log  zerolog.Logger

	inventoryID string
	inventory   []protocol.SlotObs
	placed      bool
	ovenID      string
}

func (b *bot) handle(msg []byte) error {
	base, err := protocol.DecodeBase(msg)
	if err != nil {
		return nil
	}
	switch base.Type {
	case protocol.TypeWelcome:
		var w protocol.WelcomeMsg
		if err := json.Unmarshal(msg, &w); err != nil {
			return err
		}
		b.inventoryID = w.InventoryID
		b.log.Info().Str("actor", w.ActorID).Int("tick_rate_hz", w.TickRateHz).Strs("oven_kinds", w.OvenKinds).Msg("WELCOME")

	case protocol.TypeState:
		var st protocol.StateMsg
		if err := json.Unmarshal(msg, &st); err != nil {
			return err
		}
		if st.ContainerID != b.inventoryID || b.placed {
			return nil
		}
		b.inventory = st.Slots
		b.placed = true
		return b.act(protocol.ActOp{ID: "place", Op: protocol.OpPlaceOven, Kind: botKind})

	case protocol.TypeResult:
		var r protocol.ResultMsg
		if err := json.Unmarshal(msg, &r); err != nil {
			return err
		}
		b.log.Info().Str("op", r.Op).Str("result", r.Result).Str("code", r.Code).Str("message", r.Message).Msg("RESULT")
		if r.Ref == "place" && r.Result == protocol.ResultOK {
			b.ovenID = r.OvenID
			return b.act(b.fill()...)
		}

	case protocol.TypeOvenInfo:
		var info protocol.OvenInfoMsg
		if err := json.Unmarshal(msg, &info); err != nil {
			return err
		}
		b.log.Info().
			Str("oven", info.OvenID).
			Str("eta", info.ETAText).
			Float64("fuel_needed", info.FuelNeeded).
			Int("total_stacks", info.TotalStacks).
			Msg("OVEN_INFO")
	}
	return nil
}

// fill opens the oven, puts the fuel in slot 0, deposits the rest and lights it.
func (b *bot) fill() []protocol.ActOp {
	ops := []protocol.ActOp{{ID: "loot", Op: protocol.OpLoot, OvenID: b.ovenID}}
	for _, s := range b.inventory {
		if s.Item == botFuel {
			ops = append(ops, protocol.ActOp{ID: "fuel", Op: protocol.OpMove, OvenID: b.ovenID, FromSlot: s.Slot, ToSlot: 0})
			break
		}
	}
	for _, s := range b.inventory {
		if s.Item == botFuel {
			continue
		}
		ops = append(ops, protocol.ActOp{ID: "move_" + s.Item, Op: protocol.OpMove, OvenID: b.ovenID, FromSlot: s.Slot})
	}
	return append(ops, protocol.ActOp{ID: "light", Op: protocol.OpToggle, OvenID: b.ovenID})
}

func (b *bot) act(ops ...protocol.ActOp) error {
	return b.conn.WriteJSON(protocol.ActMsg{Type: protocol.TypeAct, ProtocolVersion: protocol.Version, Ops: ops})
}
