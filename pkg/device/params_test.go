package device

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParamEncodePlainJSON(t *testing.T) {
	wire, err := ParamDetectSwitch.EncodeValue(1)
	require.NoError(t, err)
	assert.Equal(t, "1", wire)

	var v int
	ok, err := ParamDetectSwitch.DecodeValue(wire, &v)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 1, v)
}

func TestParamEncodeBase64(t *testing.T) {
	value := map[string]any{"account_id": "abc", "snooze_time": 300}
	wire, err := ParamSnoozeMode.EncodeValue(value)
	require.NoError(t, err)

	// The wire form is base64, not raw JSON.
	_, err = base64.StdEncoding.DecodeString(wire)
	require.NoError(t, err)
	assert.NotContains(t, wire, "{")

	var decoded struct {
		AccountID  string `json:"account_id"`
		SnoozeTime int    `json:"snooze_time"`
	}
	ok, err := ParamSnoozeMode.DecodeValue(wire, &decoded)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "abc", decoded.AccountID)
	assert.Equal(t, 300, decoded.SnoozeTime)
}

func TestParamDecodeEmptyValue(t *testing.T) {
	var v int
	ok, err := ParamDetectSwitch.DecodeValue("", &v)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestParamDecodeRejectsBadBase64(t *testing.T) {
	var v any
	_, err := ParamSnoozeMode.DecodeValue("not-base64!", &v)
	assert.Error(t, err)
}

func TestBase64ParamSet(t *testing.T) {
	base64Params := []ParamType{
		ParamSnoozeMode,
		ParamCameraMotionZones,
		ParamSensorOpenStatusAlert,
		ParamSensorDailyStatusCheck,
	}
	for _, p := range base64Params {
		assert.True(t, p.UsesBase64(), "param %d", p)
	}
	assert.False(t, ParamDetectSwitch.UsesBase64())
	assert.False(t, ParamGuardMode.UsesBase64())
}

func TestParamsIntAndBool(t *testing.T) {
	p := Params{
		ParamDetectSwitch: "1",
		ParamBattery:      "87",
		ParamGuardMode:    "",
	}

	v, ok := p.Int(ParamBattery)
	require.True(t, ok)
	assert.Equal(t, 87, v)

	assert.True(t, p.Bool(ParamDetectSwitch))
	assert.False(t, p.Bool(ParamGuardMode), "empty value reads as off")
	assert.False(t, p.Bool(ParamVolume), "missing value reads as off")
}

func TestRecordParamMap(t *testing.T) {
	rec := Record{
		Params: []ParamRecord{
			{Type: ParamDetectSwitch, Value: "1"},
			{Type: ParamBattery, Value: "87"},
		},
	}
	p := rec.ParamMap()
	assert.Equal(t, "1", p[ParamDetectSwitch])
	assert.Equal(t, "87", p[ParamBattery])
}
