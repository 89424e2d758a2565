package modbuscomm

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"net"
	"time"

	"github.com/goburrow/modbus"
	"go.uber.org/zap"
)

// Poller reads registers from a Modbus TCP meter.
type Poller struct {
	handler *modbus.TCPClientHandler
}

// PollerConfig is the configuration format for Poller
type PollerConfig struct {
	IPAddr  string `json:"IPAddr"`
	Port    string `json:"Port"`
	SlaveID byte   `json:"SlaveID"`
	Timeout int    `json:"Timeout"`
}

// NewPoller is a factory for the Poller struct. Frames are traced to logger at debug
// level when one is given.
func NewPoller(cfg PollerConfig, logger *zap.Logger) Poller {
	handler := modbus.NewTCPClientHandler(net.JoinHostPort(cfg.IPAddr, cfg.Port))
	handler.Timeout = time.Millisecond * time.Duration(cfg.Timeout)
	handler.SlaveId = cfg.SlaveID

	if logger != nil {
		if std, err := zap.NewStdLogAt(logger.Named("modbus"), zap.DebugLevel); err == nil {
			handler.Logger = std
		}
	}

	return Poller{handler: handler}
}

// Address is the meter's host:port.
func (m Poller) Address() string {
	return m.handler.Address
}

// Read connects to the meter, reads every register and disconnects.
func (m Poller) Read(registers []Register) (map[string]float64, error) {
	if err := m.handler.Connect(); err != nil {
		return nil, err
	}
	defer m.handler.Close()

	return ReadRegisters(modbus.NewClient(m.handler), registers)
}

// ReadRegisters reads registers through client. Every register is attempted; the
// values that could be read are returned along with the joined read errors.
func ReadRegisters(client modbus.Client, registers []Register) (map[string]float64, error) {
	values := make(map[string]float64, len(registers))
	var errs []error
	for _, r := range registers {
		if err := r.Check(); err != nil {
			errs = append(errs, err)
			continue
		}

		var resp []byte
		var err error
		if r.FunctionCode == ReadInput {
			resp, err = client.ReadInputRegisters(r.Address, sizeOf(r.DataType))
		} else {
			resp, err = client.ReadHoldingRegisters(r.Address, sizeOf(r.DataType))
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("register %q: %w", r.Name, err))
			continue
		}
		if len(resp) < 2*int(sizeOf(r.DataType)) {
			errs = append(errs, fmt.Errorf("register %q: short response of %d bytes", r.Name, len(resp)))
			continue
		}

		v := decode(resp, r)
		if r.Scale != 0 {
			v *= r.Scale
		}
		values[r.Name] = v
	}
	return values, errors.Join(errs...)
}

// decode coverts byte arrays into float64s
func decode(bytes []byte, register Register) float64 {
	var n float64
	endian := getByteOrder(register.Endianness)
	switch register.DataType {
	case U16:
		n = float64(endian.Uint16(bytes))
	case I16:
		n = float64(int16(endian.Uint16(bytes)))
	case U32:
		n = float64(endian.Uint32(bytes))
	case I32:
		n = float64(int32(endian.Uint32(bytes)))
	case F32:
		n = float64(math.Float32frombits(endian.Uint32(bytes)))
	case U64:
		n = float64(endian.Uint64(bytes))
	case I64:
		n = float64(int64(endian.Uint64(bytes)))
	case F64:
		n = math.Float64frombits(endian.Uint64(bytes))
	}
	return n
}

// getByteOrder returns the binary.ByteOrder for the register; big endian is the
// Modbus default.
func getByteOrder(e Endian) binary.ByteOrder {
	if e == LittleEndian {
		return binary.LittleEndian
	}
	return binary.BigEndian
}

// sizeOf returns the number of u16 registers for the datatype
func sizeOf(t DataType) uint16 {
	switch t {
	case U16, I16:
		return 1
	case U32, I32, F32:
		return 2
	case U64, I64, F64:
		return 4
	}
	return 0
}
