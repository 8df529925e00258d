// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package compass

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	nmea "github.com/adrianmo/go-nmea"
	serial "github.com/jacobsa/go-serial/serial"
)

// ErrNoHeading is returned by ParseHeading for sentences that do not
// carry a heading.
var ErrNoHeading = errors.New("compass: sentence has no heading")

// ParseHeading extracts the heading in degrees from an HDT, HDG or HDM
// sentence.
func ParseHeading(line string) (float64, error) {
	sentence, err := nmea.Parse(strings.TrimSpace(line))
	if err != nil {
		return 0, fmt.Errorf("compass: parse %q: %w", line, err)
	}

	switch sentence.DataType() {
	case nmea.TypeHDT:
		return sentence.(nmea.HDT).Heading, nil
	case nmea.TypeHDG:
		return sentence.(nmea.HDG).Heading, nil
	case nmea.TypeHDM:
		return sentence.(nmea.HDM).Heading, nil
	default:
		return 0, ErrNoHeading
	}
}

// NMEAReader pulls headings out of an NMEA 0183 line stream.
type NMEAReader struct {
	r      *bufio.Reader
	closer io.Closer
}

// NewNMEAReader wraps r. If r is also an io.Closer, Close closes it.
func NewNMEAReader(r io.Reader) *NMEAReader {
	nr := &NMEAReader{r: bufio.NewReader(r)}
	if c, ok := r.(io.Closer); ok {
		nr.closer = c
	}
	return nr
}

// OpenSerial opens an NMEA compass on a serial port (8N1).
func OpenSerial(portName string, baudRate int) (*NMEAReader, error) {
	opts := serial.OpenOptions{
		PortName:              portName,
		BaudRate:              uint(baudRate),
		DataBits:              8,
		StopBits:              1,
		MinimumReadSize:       1,
		ParityMode:            serial.PARITY_NONE,
		InterCharacterTimeout: 0,
	}

	port, err := serial.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("compass: open %s: %w", portName, err)
	}
	return NewNMEAReader(port), nil
}

// NextHeading blocks until the next heading sentence is read. Noise,
// partial lines and other sentence types are skipped.
func (n *NMEAReader) NextHeading() (float32, error) {
	for {
		line, err := n.r.ReadString('\n')
		if err != nil {
			return 0, fmt.Errorf("compass: read: %w", err)
		}

		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "$") {
			continue
		}

		heading, err := ParseHeading(line)
		if err != nil {
			continue
		}
		return float32(heading), nil
	}
}

// Close releases the underlying port, if any.
func (n *NMEAReader) Close() error {
	if n.closer == nil {
		return nil
	}
	return n.closer.Close()
}
