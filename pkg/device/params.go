package device

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// ParamType identifies a device parameter in the vendor's catalog. Some
// parameters double as command codes on the station channel.
type ParamType int

const (
	ParamCameraIRCut    ParamType = 1013
	ParamCameraPIR      ParamType = 1011
	ParamBattery        ParamType = 1101
	ParamDeviceStatus   ParamType = 1131
	ParamCameraWiFiRSSI ParamType = 1142

	ParamCameraUpgradeNow ParamType = 1133
	ParamDeviceUpgradeNow ParamType = 1134
	ParamDeviceList2      ParamType = 1157
	ParamDeviceList1      ParamType = 1158

	ParamCameraMotionZones   ParamType = 1204
	ParamWatermarkMode       ParamType = 1214 // 1 hides the overlay, 2 shows it
	ParamGuardMode           ParamType = 1224
	ParamCameraSpeakerVolume ParamType = 1230

	ParamCameraRecordClipLength        ParamType = 1249 // seconds
	ParamCameraRecordRetriggerInterval ParamType = 1250 // seconds
	ParamPushMsgMode                   ParamType = 1252
	ParamScheduleMode                  ParamType = 1257
	ParamSnoozeMode                    ParamType = 1271
	ParamFloodlightMotionSensitivity   ParamType = 1272 // range 1-5
	ParamIsHomekitSecureVideo          ParamType = 1285
	ParamRTSPAuthentication            ParamType = 1287
	ParamSensorOpenStatusAlert         ParamType = 1290
	ParamSensorDailyStatusCheck        ParamType = 1291

	ParamCameraRecordEnableAudio ParamType = 1366

	ParamFloodlightManualSwitch       ParamType = 1400
	ParamFloodlightManualBrightness   ParamType = 1401 // range 22-100
	ParamFloodlightMotionBrightness   ParamType = 1412 // range 22-100
	ParamFloodlightScheduleBrightness ParamType = 1413 // range 22-100

	ParamSensorOpen ParamType = 1550

	ParamCameraNotificationOptions ParamType = 1710

	ParamOpenDevice            ParamType = 2001
	ParamNightVisual           ParamType = 2002
	ParamVolume                ParamType = 2003
	ParamDetectMode            ParamType = 2004
	ParamDetectMotionSensitive ParamType = 2005
	ParamDetectZone            ParamType = 2006
	ParamUnDetectZone          ParamType = 2007
	ParamSDCard                ParamType = 2010
	ParamChimeState            ParamType = 2015
	ParamRingingVolume         ParamType = 2022
	ParamDetectExposure        ParamType = 2023
	ParamDetectSwitch          ParamType = 2027
	ParamDetectScenario        ParamType = 2028

	ParamDoorbellHDR                  ParamType = 2029
	ParamDoorbellIRMode               ParamType = 2030
	ParamDoorbellVideoQuality         ParamType = 2031
	ParamDoorbellBrightness           ParamType = 2032
	ParamDoorbellDistortion           ParamType = 2033
	ParamDoorbellRecordQuality        ParamType = 2034
	ParamDoorbellMotionNotification   ParamType = 2035
	ParamDoorbellNotificationOpen     ParamType = 2036
	ParamDoorbellSnoozeStartTime      ParamType = 2037
	ParamDoorbellNotificationJumpMode ParamType = 2038
	ParamDoorbellLEDNightMode         ParamType = 2039
	ParamDoorbellRingRecord           ParamType = 2040
	ParamDoorbellMotionAdvanceOption  ParamType = 2041
	ParamDoorbellAudioRecode          ParamType = 2042

	ParamChargingStatus ParamType = 2111
	ParamCameraOff      ParamType = 99904
)

// UsesBase64 reports whether the parameter's wire value is the base64
// encoding of its JSON form rather than plain JSON.
func (p ParamType) UsesBase64() bool {
	switch p {
	case ParamSnoozeMode, ParamCameraMotionZones,
		ParamSensorOpenStatusAlert, ParamSensorDailyStatusCheck:
		return true
	default:
		return false
	}
}

// DecodeValue parses a parameter's wire value into v. An empty wire
// value leaves v untouched and returns false.
func (p ParamType) DecodeValue(wire string, v any) (bool, error) {
	if wire == "" {
		return false, nil
	}
	raw := []byte(wire)
	if p.UsesBase64() {
		decoded, err := base64.StdEncoding.DecodeString(wire)
		if err != nil {
			return false, fmt.Errorf("failed to decode base64 value of param %d: %w", p, err)
		}
		raw = decoded
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return false, fmt.Errorf("failed to decode value of param %d: %w", p, err)
	}
	return true, nil
}

// EncodeValue serializes v into the parameter's wire form.
func (p ParamType) EncodeValue(v any) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to encode value of param %d: %w", p, err)
	}
	if p.UsesBase64() {
		return base64.StdEncoding.EncodeToString(raw), nil
	}
	return string(raw), nil
}

// ParamUpdate is one serialized parameter assignment bound for the
// cloud's parameter upload endpoint.
type ParamUpdate struct {
	Type  ParamType `json:"param_type"`
	Value string    `json:"param_value"`
}

// NewParamUpdate serializes a single assignment.
func NewParamUpdate(p ParamType, v any) (ParamUpdate, error) {
	wire, err := p.EncodeValue(v)
	if err != nil {
		return ParamUpdate{}, err
	}
	return ParamUpdate{Type: p, Value: wire}, nil
}

// Params is the decoded view of a device's parameter list.
type Params map[ParamType]string

// Int returns the parameter decoded as an integer. ok is false when the
// parameter is absent, empty, or not numeric.
func (p Params) Int(t ParamType) (int, bool) {
	var v int
	ok, err := t.DecodeValue(p[t], &v)
	if err != nil || !ok {
		return 0, false
	}
	return v, true
}

// Bool returns the parameter decoded as a 0/1 switch.
func (p Params) Bool(t ParamType) bool {
	v, ok := p.Int(t)
	return ok && v != 0
}
