// Package hexfile reads and writes Intel HEX files and keeps the decoded
// payload as a set of address-keyed segments.
//
// # Storage convention
//
// PIC tools store each 16-bit program word in file byte order, high byte
// at the even offset. The Store keeps exactly that: bytes are copied from
// the file unmodified, and any reordering to the device's little-endian
// word layout happens at range extraction. Every function moving bytes
// between the store and a device buffer takes an explicit swap argument;
// there is no defaulted polarity.
//
// # Records
//
// Record types 00 (data), 01 (end of file), 02 (extended segment address)
// and 04 (extended linear address) are understood. Anything else is
// rejected.
package hexfile
