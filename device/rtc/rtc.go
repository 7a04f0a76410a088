// Package rtc reads the date and time from the CMOS real-time clock.
package rtc

import (
	"io"

	"spudos/device"
	"spudos/kernel"
	"spudos/kernel/cpu"
	"spudos/kernel/kfmt"
)

const (
	cmosIndexPort = 0x70
	cmosDataPort  = 0x71

	// nmiDisable is or-ed into every register index so that selecting a
	// CMOS register does not re-enable NMIs.
	nmiDisable = 0x80

	regSeconds = 0x00
	regMinutes = 0x02
	regHours   = 0x04
	regDay     = 0x07
	regMonth   = 0x08
	regYear    = 0x09
	regStatusA = 0x0a
	regStatusB = 0x0b

	statusAUpdating = 0x80
	statusBBinary   = 0x04
	statusB24Hour   = 0x02
	hourPMBit       = 0x80

	// maxStableReads bounds the read-until-stable loop.
	maxStableReads = 8

	defaultCentury = 2000
)

var (
	portWriteByteFn = cpu.PortWriteByte
	portReadByteFn  = cpu.PortReadByte

	errUnstable = &kernel.Error{Module: "rtc", Message: "clock did not settle"}
)

// DateTime is a calendar timestamp read from the clock. Hour uses the 24
// hour format.
type DateTime struct {
	Year   uint16
	Month  uint8
	Day    uint8
	Hour   uint8
	Minute uint8
	Second uint8
}

// Clock is the CMOS real-time clock driver.
type Clock struct {
	century uint16
}

// NewClock returns a clock driver that places two-digit years in the 2000s.
func NewClock() *Clock {
	return &Clock{century: defaultCentury}
}

// Now reads the current date and time. Registers are read repeatedly until
// two consecutive reads agree so that a value is never torn by an update in
// progress. If the clock keeps changing, the last read is returned.
func (c *Clock) Now() DateTime {
	dt, _ := c.read()
	return dt
}

func (c *Clock) read() (DateTime, *kernel.Error) {
	waitForUpdate()
	last := readRaw()

	for i := 0; i < maxStableReads; i++ {
		waitForUpdate()
		cur := readRaw()
		if cur == last {
			return c.convert(cur), nil
		}
		last = cur
	}

	return c.convert(last), errUnstable
}

// rawTime holds the clock registers as they are stored in the CMOS.
type rawTime struct {
	second, minute, hour, day, month, year, statusB uint8
}

func readRaw() rawTime {
	return rawTime{
		second:  readRegister(regSeconds),
		minute:  readRegister(regMinutes),
		hour:    readRegister(regHours),
		day:     readRegister(regDay),
		month:   readRegister(regMonth),
		year:    readRegister(regYear),
		statusB: readRegister(regStatusB),
	}
}

// convert decodes BCD values and converts 12-hour clocks to 24 hours.
func (c *Clock) convert(r rawTime) DateTime {
	pm := r.hour&hourPMBit != 0
	r.hour &^= hourPMBit

	if r.statusB&statusBBinary == 0 {
		r.second = FromBCD(r.second)
		r.minute = FromBCD(r.minute)
		r.hour = FromBCD(r.hour)
		r.day = FromBCD(r.day)
		r.month = FromBCD(r.month)
		r.year = FromBCD(r.year)
	}

	if r.statusB&statusB24Hour == 0 {
		r.hour = To24Hour(r.hour, pm)
	}

	return DateTime{
		Year:   c.century + uint16(r.year),
		Month:  r.month,
		Day:    r.day,
		Hour:   r.hour,
		Minute: r.minute,
		Second: r.second,
	}
}

// FromBCD converts a packed binary-coded decimal byte to its value.
func FromBCD(v uint8) uint8 {
	return (v>>4)*10 + v&0x0f
}

// To24Hour converts a 1-12 hour value to the 0-23 range.
func To24Hour(hour uint8, pm bool) uint8 {
	hour %= 12
	if pm {
		hour += 12
	}
	return hour
}

func waitForUpdate() {
	for i := 0; i < 1<<16 && readRegister(regStatusA)&statusAUpdating != 0; i++ {
	}
}

func readRegister(reg uint8) uint8 {
	portWriteByteFn(cmosIndexPort, nmiDisable|reg)
	return portReadByteFn(cmosDataPort)
}

// DriverName returns the name of this driver.
func (c *Clock) DriverName() string {
	return "cmos_rtc"
}

// DriverVersion returns the version of this driver.
func (c *Clock) DriverVersion() (uint16, uint16, uint16) {
	return 0, 0, 1
}

// DriverInit checks that the clock can be read and reports the current time.
func (c *Clock) DriverInit(w io.Writer) *kernel.Error {
	dt, err := c.read()
	if err != nil {
		return err
	}

	kfmt.Fprintf(w, "%d-%d-%d %d:%d:%d\n", dt.Year, dt.Month, dt.Day, dt.Hour, dt.Minute, dt.Second)
	return nil
}

func probeForClock() device.Driver {
	return NewClock()
}

func init() {
	device.RegisterDriver(&device.DriverInfo{
		Order: device.DetectOrderLast,
		Probe: probeForClock,
	})
}
