// Package speaker drives the PC speaker through channel 2 of the programmable
// interval timer.
package speaker

import (
	"io"

	"spudos/device"
	"spudos/kernel"
	"spudos/kernel/cpu"
)

const (
	pitFrequency   = 1193180
	pitCommandPort = 0x43
	pitChannel2    = 0x42
	speakerPort    = 0x61

	// channel 2, lobyte/hibyte access, square wave generator
	pitSquareWave = 0xb6

	// speakerGateBits connects the PIT channel 2 output to the speaker.
	speakerGateBits = 0x03

	ioDelayPort = 0x80

	// readsPerMs is the approximate number of port 0x80 reads that take a
	// millisecond on ISA timing.
	readsPerMs = 1000
)

var (
	portWriteByteFn = cpu.PortWriteByte
	portReadByteFn  = cpu.PortReadByte

	// delayFn busy-waits for the given number of milliseconds.
	delayFn = func(ms uint32) {
		for i := uint32(0); i < ms*readsPerMs; i++ {
			portReadByteFn(ioDelayPort)
		}
	}
)

// Speaker is the PC speaker driver.
type Speaker struct{}

// New returns a PC speaker driver.
func New() *Speaker {
	return &Speaker{}
}

// Play starts a square wave at freqHz. A zero frequency silences the speaker.
func (s *Speaker) Play(freqHz uint32) {
	if freqHz == 0 {
		s.Stop()
		return
	}

	div := pitFrequency / freqHz
	portWriteByteFn(pitCommandPort, pitSquareWave)
	portWriteByteFn(pitChannel2, uint8(div))
	portWriteByteFn(pitChannel2, uint8(div>>8))

	if gate := portReadByteFn(speakerPort); gate&speakerGateBits != speakerGateBits {
		portWriteByteFn(speakerPort, gate|speakerGateBits)
	}
}

// Stop disconnects the speaker from the timer.
func (s *Speaker) Stop() {
	portWriteByteFn(speakerPort, portReadByteFn(speakerPort)&^speakerGateBits)
}

// Tone plays freqHz for durationMs milliseconds and then silences the
// speaker. The call blocks for the whole duration.
func (s *Speaker) Tone(freqHz, durationMs uint32) {
	s.Play(freqHz)
	delayFn(durationMs)
	s.Stop()
}

// DriverName returns the name of this driver.
func (s *Speaker) DriverName() string {
	return "pc_speaker"
}

// DriverVersion returns the version of this driver.
func (s *Speaker) DriverVersion() (uint16, uint16, uint16) {
	return 0, 0, 1
}

// DriverInit makes sure the speaker starts out silent.
func (s *Speaker) DriverInit(_ io.Writer) *kernel.Error {
	s.Stop()
	return nil
}

func probeForSpeaker() device.Driver {
	return New()
}

func init() {
	device.RegisterDriver(&device.DriverInfo{
		Order: device.DetectOrderLast,
		Probe: probeForSpeaker,
	})
}
