package device

// Type identifies a hardware product class. The numeric codes come from
// the vendor's device catalog.
type Type int

const (
	TypeStation         Type = 0
	TypeCamera          Type = 1
	TypeSensor          Type = 2
	TypeFloodlight      Type = 3
	TypeCameraE         Type = 4
	TypeDoorbell        Type = 5
	TypeBatteryDoorbell Type = 7
	TypeCamera2C        Type = 8
	TypeCamera2         Type = 9
	TypeMotionSensor    Type = 10
	TypeKeypad          Type = 11
	TypeIndoorCamera    Type = 30
	TypeIndoorPTCamera  Type = 31
	TypeLockBasic       Type = 50
	TypeLockAdvanced    Type = 51
	TypeLockSimple      Type = 52
)

// String returns the type name.
func (t Type) String() string {
	switch t {
	case TypeStation:
		return "STATION"
	case TypeCamera:
		return "CAMERA"
	case TypeSensor:
		return "SENSOR"
	case TypeFloodlight:
		return "FLOODLIGHT"
	case TypeCameraE:
		return "CAMERA_E"
	case TypeDoorbell:
		return "DOORBELL"
	case TypeBatteryDoorbell:
		return "BATTERY_DOORBELL"
	case TypeCamera2C:
		return "CAMERA2C"
	case TypeCamera2:
		return "CAMERA2"
	case TypeMotionSensor:
		return "MOTION_SENSOR"
	case TypeKeypad:
		return "KEYPAD"
	case TypeIndoorCamera:
		return "INDOOR_CAMERA"
	case TypeIndoorPTCamera:
		return "INDOOR_PT_CAMERA"
	case TypeLockBasic:
		return "LOCK_BASIC"
	case TypeLockAdvanced:
		return "LOCK_ADVANCED"
	case TypeLockSimple:
		return "LOCK_SIMPLE"
	default:
		return "UNKNOWN"
	}
}

// IsCamera reports whether the type carries a camera.
func (t Type) IsCamera() bool {
	switch t {
	case TypeCamera, TypeCamera2, TypeCamera2C, TypeCameraE,
		TypeDoorbell, TypeBatteryDoorbell, TypeFloodlight,
		TypeIndoorCamera, TypeIndoorPTCamera:
		return true
	default:
		return false
	}
}

// IsDoorbell reports whether the type is a doorbell variant.
func (t Type) IsDoorbell() bool {
	return t == TypeDoorbell || t == TypeBatteryDoorbell
}

// IsSensor reports whether the type is a sensor.
func (t Type) IsSensor() bool {
	return t == TypeSensor || t == TypeMotionSensor
}

// IsStation reports whether the type acts as its own station.
// Doorbells and floodlights are standalone and front themselves.
func (t Type) IsStation() bool {
	return t == TypeStation || t == TypeDoorbell || t == TypeFloodlight
}

// GuardMode is a station arming mode.
type GuardMode int

const (
	GuardModeAway     GuardMode = 0
	GuardModeHome     GuardMode = 1
	GuardModeSchedule GuardMode = 2
	GuardModeDisarmed GuardMode = 63
)

// String returns the guard mode name.
func (m GuardMode) String() string {
	switch m {
	case GuardModeAway:
		return "AWAY"
	case GuardModeHome:
		return "HOME"
	case GuardModeSchedule:
		return "SCHEDULE"
	case GuardModeDisarmed:
		return "DISARMED"
	default:
		return "UNKNOWN"
	}
}
