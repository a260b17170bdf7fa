package source

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apexloop-data/setup.coach/internal/telemetry"
)

func packetHeader(kind byte) []byte {
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint16(buf[0:2], wirePreamble)
	buf[2] = wireVersion
	buf[3] = kind
	return buf
}

func sessionPacket(simID, subID int64, maxSteering float32, track string) []byte {
	buf := append(packetHeader(packetSession), make([]byte, 21+len(track))...)
	binary.LittleEndian.PutUint64(buf[4:12], uint64(simID))
	binary.LittleEndian.PutUint64(buf[12:20], uint64(subID))
	binary.LittleEndian.PutUint32(buf[20:24], math.Float32bits(maxSteering))
	buf[24] = byte(len(track))
	copy(buf[25:], track)
	return buf
}

func telemetryPacket(tsMS int64, mask uint32, fields map[int]float32, gear int8, flags byte, tires []float32) []byte {
	buf := append(packetHeader(packetTelemetry), make([]byte, 16+floatFieldCount*4)...)
	binary.LittleEndian.PutUint64(buf[4:12], uint64(tsMS))
	buf[12] = byte(gear)
	buf[13] = flags
	binary.LittleEndian.PutUint32(buf[16:20], mask)
	for idx, v := range fields {
		off := telemetryHeaderLen + idx*4
		binary.LittleEndian.PutUint32(buf[off:off+4], math.Float32bits(v))
	}
	for _, v := range tires {
		var tb [4]byte
		binary.LittleEndian.PutUint32(tb[:], math.Float32bits(v))
		buf = append(buf, tb[:]...)
	}
	return buf
}

func TestUDPSessionPacketDecode(t *testing.T) {
	u := &UDP{}
	require.NoError(t, u.handlePacket(sessionPacket(42, 7, 2.5, "spa")))

	info, err := u.SessionInfo()
	require.NoError(t, err)
	assert.Equal(t, int64(42), info.SimSessionID)
	assert.Equal(t, int64(7), info.SimSubSessionID)
	assert.Equal(t, "spa", info.TrackName)
	assert.Equal(t, "udp", info.Source)
	assert.InDelta(t, 2.5, info.MaxSteeringAngle, 1e-6)
}

func TestUDPTelemetryPacketDecode(t *testing.T) {
	u := &UDP{}
	mask := uint32(1<<fieldSpeed | 1<<fieldThrottle | 1<<fieldLapNumber | maskGear | maskFlags)
	pkt := telemetryPacket(12345, mask, map[int]float32{
		fieldSpeed:     51.5,
		fieldThrottle:  0.75,
		fieldLapNumber: 12,
		// Present on the wire but masked out; must not surface.
		fieldBrake: 0.9,
	}, 4, 0b101, nil)
	require.NoError(t, u.handlePacket(pkt))

	snap, err := u.Telemetry()
	require.NoError(t, err)
	assert.Equal(t, int64(12345), snap.TimestampMS)
	assert.Equal(t, "udp", snap.Source)

	require.NotNil(t, snap.SpeedMPS)
	assert.InDelta(t, 51.5, *snap.SpeedMPS, 1e-6)
	require.NotNil(t, snap.Throttle)
	assert.InDelta(t, 0.75, *snap.Throttle, 1e-6)
	require.NotNil(t, snap.LapNumber)
	assert.Equal(t, 12, *snap.LapNumber)

	assert.Nil(t, snap.Brake, "masked-out fields stay absent")
	assert.Nil(t, snap.EngineRPM)
	assert.Nil(t, snap.TireLF)

	require.NotNil(t, snap.Gear)
	assert.Equal(t, 4, *snap.Gear)
	require.NotNil(t, snap.PitLimiterOn)
	assert.True(t, *snap.PitLimiterOn)
	require.NotNil(t, snap.InPitLane)
	assert.False(t, *snap.InPitLane)
	require.NotNil(t, snap.ABSActive)
	assert.True(t, *snap.ABSActive)
}

func TestUDPTireBlockDecode(t *testing.T) {
	u := &UDP{}
	tires := make([]float32, tireFloatCount)
	for i := range tires {
		tires[i] = float32(80 + i)
	}
	pkt := telemetryPacket(1, maskTires, nil, 0, 0, tires)
	require.NoError(t, u.handlePacket(pkt))

	snap, err := u.Telemetry()
	require.NoError(t, err)
	require.NotNil(t, snap.TireLF)
	assert.Equal(t, telemetry.TireTemps{
		CarcassLeft: 80, CarcassMiddle: 81, CarcassRight: 82,
		SurfaceLeft: 83, SurfaceMiddle: 84, SurfaceRight: 85,
	}, *snap.TireLF)
	require.NotNil(t, snap.TireRR)
	assert.Equal(t, float64(98), snap.TireRR.CarcassLeft)
	assert.Nil(t, snap.Gear, "gear mask bit is clear")
}

func TestUDPLatestUnreadWins(t *testing.T) {
	u := &UDP{}
	require.NoError(t, u.handlePacket(telemetryPacket(1, 0, nil, 0, 0, nil)))
	require.NoError(t, u.handlePacket(telemetryPacket(2, 0, nil, 0, 0, nil)))

	snap, err := u.Telemetry()
	require.NoError(t, err)
	assert.Equal(t, int64(2), snap.TimestampMS)

	_, err = u.Telemetry()
	assert.ErrorIs(t, err, ErrUnavailable, "each snapshot is handed out once")
}

func TestUDPRejectsMalformedPackets(t *testing.T) {
	u := &UDP{}
	cases := []struct {
		name string
		pkt  []byte
	}{
		{"too short", []byte{0xE1}},
		{"bad preamble", append([]byte{0x00, 0x00}, packetHeader(packetTelemetry)[2:]...)},
		{"bad version", func() []byte {
			p := packetHeader(packetTelemetry)
			p[2] = 9
			return p
		}()},
		{"unknown kind", packetHeader(7)},
		{"truncated telemetry", packetHeader(packetTelemetry)},
		{"truncated session name", func() []byte {
			p := sessionPacket(1, 1, 1, "spa")
			p[24] = 200
			return p
		}()},
		{"truncated tire block", telemetryPacket(1, maskTires, nil, 0, 0, []float32{80, 81})},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Error(t, u.handlePacket(tc.pkt))
		})
	}
	_, err := u.Telemetry()
	assert.ErrorIs(t, err, ErrUnavailable, "no malformed packet may produce a snapshot")
	_, err = u.SessionInfo()
	assert.ErrorIs(t, err, ErrUnavailable)
}
