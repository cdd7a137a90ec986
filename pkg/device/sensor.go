package device

// Sensor is a sensor-class device (entry or motion sensor).
type Sensor struct {
	*Device
}

// NewSensor creates a sensor from an inventory record.
func NewSensor(backend Backend, rec Record) *Sensor {
	return &Sensor{Device: NewDevice(backend, rec)}
}

// Open reports whether an entry sensor is currently open.
func (s *Sensor) Open() bool {
	return s.Params().Bool(ParamSensorOpen)
}
