// Package comm provides L0 protocol transport.
package comm

// L0 protocol is communicated between L0 firmware (MCU) and L1 controller
// as strictly alternating request/response packets: one request is
// outstanding at a time and every request gets exactly one response.
//
// On byte streams (serial port, TCP) each packet is framed as
//
//   COBS(version | data | crc32) 0x00
//
// so a receiver can resync on the next zero byte after line noise.
// Message transports (websocket, MQTT) carry version | data as a single
// message.
//
// Producer: L0 firmware
// Consumer: L1 controller
