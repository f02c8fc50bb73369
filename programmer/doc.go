// Package programmer drives the K128/K149/K150 family of serial PIC
// programmers through reading, erasing, programming and verifying a
// target chip.
//
// # Overview
//
// The Programmer owns a Port for the duration of a session and layers
// two levels of behavior on it:
//
//   - the protocol engine: command bracketing, per-opcode request and
//     acknowledgement exchange, bulk transfer loops (InitVars,
//     ProgramROM, ReadConfig, ...)
//   - the operation orchestrator: complete user-facing sequences that
//     compose the engine primitives (ProgramChip, ReadChip, BlankCheck,
//     Erase, VerifyChip)
//
// A session follows connect, configure, operate, disconnect:
//
//	port := serialport.New("/dev/ttyUSB0")
//	prog := programmer.New(port)
//	if err := prog.Connect(); err != nil {
//	    log.Fatal(err)
//	}
//	defer prog.Disconnect()
//
//	chip, err := chipdb.Load("picpro.dat", "16F628")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := prog.Configure(chip); err != nil {
//	    log.Fatal(err)
//	}
//
//	img, err := prog.ReadChip(programmer.Regions{ROM: true})
//
// # Hardware independence
//
// The Port interface carries no serial dependency, so the engine runs
// unchanged against an in-memory fake that scripts expected responses.
// The serialport package provides the real implementation.
package programmer
