package protocol

// HELLO (client -> server)
type HelloMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	ActorID         string `json:"actor_id"`
	Name            string `json:"name,omitempty"`
}

// WELCOME (server -> client)
type WelcomeMsg struct {
	Type            string         `json:"type"`
	ProtocolVersion string         `json:"protocol_version"`
	SessionID       string         `json:"session_id"`
	ActorID         string         `json:"actor_id"`
	InventoryID     string         `json:"inventory_id"`
	TickRateHz      int            `json:"tick_rate_hz"`
	OvenKinds       []string       `json:"oven_kinds"`
	Catalogs        CatalogDigests `json:"catalogs"`
}

type CatalogDigests struct {
	ItemsDigest  string `json:"items_digest"`
	OvensDigest  string `json:"ovens_digest"`
	TuningDigest string `json:"tuning_digest,omitempty"`
}

// ACT (client -> server)
type ActMsg struct {
	Type            string  `json:"type"`
	ProtocolVersion string  `json:"protocol_version"`
	Ops             []ActOp `json:"ops"`
}

// ActOp is one actor operation. Which fields apply depends on Op.
type ActOp struct {
	ID       string `json:"id,omitempty"`
	Op       string `json:"op"`
	OvenID   string `json:"oven_id,omitempty"`
	FromSlot int    `json:"from_slot,omitempty"`
	ToSlot   int    `json:"to_slot,omitempty"`
	Kind     string `json:"kind,omitempty"`
	Open     *bool  `json:"open,omitempty"`
	Enabled  *bool  `json:"enabled,omitempty"`
	Value    *int   `json:"value,omitempty"`
}

// OVEN_INFO (server -> client)
type OvenInfoMsg struct {
	Type            string  `json:"type"`
	ProtocolVersion string  `json:"protocol_version"`
	Tick            uint64  `json:"tick"`
	OvenID          string  `json:"oven_id"`
	ETASeconds      float64 `json:"eta_seconds"`
	ETAText         string  `json:"eta_text"`
	FuelNeeded      float64 `json:"fuel_needed"`
	FuelItem        string  `json:"fuel_item"`
	TotalStacks     int     `json:"total_stacks"`
	Enabled         bool    `json:"enabled"`
}

// OVEN_CLOSED (server -> client)
type OvenClosedMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	OvenID          string `json:"oven_id"`
}

// STATE (server -> client)
type StateMsg struct {
	Type            string    `json:"type"`
	ProtocolVersion string    `json:"protocol_version"`
	Tick            uint64    `json:"tick"`
	ContainerID     string    `json:"container_id"`
	Kind            string    `json:"kind,omitempty"`
	Slots           []SlotObs `json:"slots"`
}

type SlotObs struct {
	Slot  int    `json:"slot"`
	Item  string `json:"item"`
	Count int    `json:"count"`
}

// RESULT (server -> client)
type ResultMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Tick            uint64 `json:"tick"`
	Ref             string `json:"ref,omitempty"`
	Op              string `json:"op"`
	Result          string `json:"result"`
	Code            string `json:"code,omitempty"`
	Message         string `json:"message,omitempty"`
	OvenID          string `json:"oven_id,omitempty"`
	Value           *int   `json:"value,omitempty"`
	Enabled         *bool  `json:"enabled,omitempty"`
}
