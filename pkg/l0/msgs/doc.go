// Package msgs provides the L0 message schema and its binary encoding.
package msgs

// L0 messages are exchanged between the L1 host controller and the L0
// motor-control firmware (MCU) driving the four-wheel base and the arm.
//
// The host sends a Request tagged with an opaque state token, the MCU
// replies with exactly one Response echoing that token. Every type has a
// single canonical little-endian encoding without padding or length
// prefixes:
//
//   Request:  tag(u8) | payload | state(i32)
//   Response: status(u8) | state(i32) | present(u8) [ | tag(u8) | payload ]
//
// Optional values are a presence byte (0 or 1) followed by the value when
// present. Tags are assigned in declaration order and are append-only.
// Unknown request/response tags decode into UnknownRequest/UnknownResponse
// so older peers degrade gracefully against newer ones.
//
// Producer: L1 controller (requests), L0 firmware (responses)
// Consumer: L0 firmware (requests), L1 controller (responses)
