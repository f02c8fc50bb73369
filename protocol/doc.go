// Package protocol defines the wire surface of the P18A serial protocol
// spoken by the K128/K149/K150 family of PIC programmers.
//
// # Overview
//
// The protocol is a synchronous request/response exchange over a raw
// 8-N-1 serial link. Every command is a single opcode byte, optionally
// followed by a payload, and is answered by one or more single-character
// acknowledgement bytes, sometimes interleaved with bulk data.
//
// This package provides:
//   - the opcode and acknowledgement tables
//   - request payload builders (Build*Cmd)
//   - response decoding (ParseConfigResponse, ParseVersion)
//   - typed protocol errors
//
// It contains no I/O. The programmer package drives a serial port with
// these building blocks.
package protocol
