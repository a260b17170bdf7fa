package source

import (
	"encoding/binary"
	"fmt"
	"math"
	"net"
	"sync"

	"github.com/apexloop-data/setup.coach/internal/monitoring"
	"github.com/apexloop-data/setup.coach/internal/telemetry"
)

// Wire format for the UDP bridge feed. Little-endian throughout.
//
// Header (both packet kinds):
//
//	bytes 0-1  preamble 0xA7E1
//	byte  2    format version (currently 1)
//	byte  3    packet kind: 1 session, 2 telemetry
//
// Session packet:
//
//	bytes 4-11  sim session id (int64)
//	bytes 12-19 sim sub-session id (int64)
//	bytes 20-23 max steering angle, radians (float32)
//	byte  24    track name length n
//	bytes 25..  track name, n bytes UTF-8
//
// Telemetry packet:
//
//	bytes 4-11  source timestamp, milliseconds (int64)
//	byte  12    gear (int8, -1 reverse, 0 neutral)
//	byte  13    flag bits: 0 pit limiter, 1 in pit lane, 2 ABS active
//	bytes 14-15 reserved
//	bytes 16-19 presence mask (uint32), bit i covers float field i below
//	bytes 20..  floatFieldCount float32 values in mask-bit order
//	bytes ..    optionally 24 float32 tire temperatures (LF RF LR RR,
//	            carcass L/M/R then surface L/M/R each) when maskTires is set
const (
	wirePreamble       = 0xA7E1
	wireVersion        = 1
	packetSession      = 1
	packetTelemetry    = 2
	telemetryHeaderLen = 20
	floatFieldCount    = 21
	tireFloatCount     = 24
)

// Presence mask bits beyond the float fields.
const (
	maskGear  = 1 << 29
	maskFlags = 1 << 30
	maskTires = 1 << 31
)

// Float field indices within the telemetry packet.
const (
	fieldSpeed = iota
	fieldRPM
	fieldMaxRPM
	fieldShiftPoint
	fieldThrottle
	fieldBrake
	fieldClutch
	fieldSteerAngle
	fieldSteerPct
	fieldYawRate
	fieldPitch
	fieldRoll
	fieldLatAccel
	fieldLonAccel
	fieldLapDist
	fieldLapDistPct
	fieldLapNumber
	fieldLastLap
	fieldBestLap
	fieldLatitude
	fieldLongitude
)

// UDP listens for bridge packets on a local port and hands the most recent
// telemetry packet to the pipeline. Only the latest unread snapshot is
// kept; the pipeline polls faster than sims emit, so nothing is lost in
// practice and a stalled poll never builds a backlog.
type UDP struct {
	conn *net.UDPConn

	mu      sync.Mutex
	session *telemetry.SessionInfo
	pending *telemetry.Snapshot
	closed  bool
}

// ListenUDP starts a listener on addr (e.g. ":9801") and begins consuming
// packets immediately.
func ListenUDP(addr string) (*UDP, error) {
	udpAddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("resolve UDP address: %w", err)
	}
	conn, err := net.ListenUDP("udp", udpAddr)
	if err != nil {
		return nil, fmt.Errorf("listen UDP: %w", err)
	}
	u := &UDP{conn: conn}
	go u.readLoop()
	monitoring.Logf("listening for telemetry on %s", addr)
	return u, nil
}

func (u *UDP) readLoop() {
	buf := make([]byte, 2048)
	for {
		n, _, err := u.conn.ReadFromUDP(buf)
		if err != nil {
			u.mu.Lock()
			closed := u.closed
			u.mu.Unlock()
			if !closed {
				monitoring.Logf("udp read: %v", err)
			}
			return
		}
		if err := u.handlePacket(buf[:n]); err != nil {
			monitoring.Logf("udp packet discarded: %v", err)
		}
	}
}

func (u *UDP) handlePacket(data []byte) error {
	if len(data) < 4 {
		return fmt.Errorf("packet too short: %d bytes", len(data))
	}
	if binary.LittleEndian.Uint16(data[0:2]) != wirePreamble {
		return fmt.Errorf("bad preamble 0x%04X", binary.LittleEndian.Uint16(data[0:2]))
	}
	if data[2] != wireVersion {
		return fmt.Errorf("unsupported format version %d", data[2])
	}
	switch data[3] {
	case packetSession:
		return u.handleSession(data)
	case packetTelemetry:
		return u.handleTelemetry(data)
	default:
		return fmt.Errorf("unknown packet kind %d", data[3])
	}
}

func (u *UDP) handleSession(data []byte) error {
	if len(data) < 25 {
		return fmt.Errorf("session packet too short: %d bytes", len(data))
	}
	nameLen := int(data[24])
	if len(data) < 25+nameLen {
		return fmt.Errorf("session packet truncated track name")
	}
	info := telemetry.SessionInfo{
		Source:           "udp",
		SimSessionID:     int64(binary.LittleEndian.Uint64(data[4:12])),
		SimSubSessionID:  int64(binary.LittleEndian.Uint64(data[12:20])),
		MaxSteeringAngle: float64(math.Float32frombits(binary.LittleEndian.Uint32(data[20:24]))),
		TrackName:        string(data[25 : 25+nameLen]),
	}
	u.mu.Lock()
	u.session = &info
	u.mu.Unlock()
	return nil
}

func (u *UDP) handleTelemetry(data []byte) error {
	if len(data) < telemetryHeaderLen {
		return fmt.Errorf("telemetry packet too short: %d bytes", len(data))
	}
	mask := binary.LittleEndian.Uint32(data[16:20])

	floats := make([]float64, 0, floatFieldCount)
	offset := telemetryHeaderLen
	for i := 0; i < floatFieldCount; i++ {
		if offset+4 > len(data) {
			return fmt.Errorf("telemetry packet truncated at float field %d", i)
		}
		floats = append(floats, float64(math.Float32frombits(binary.LittleEndian.Uint32(data[offset:offset+4]))))
		offset += 4
	}

	snap := telemetry.Snapshot{
		Source:      "udp",
		TimestampMS: int64(binary.LittleEndian.Uint64(data[4:12])),
	}
	take := func(bit int) *float64 {
		if mask&(1<<bit) == 0 {
			return nil
		}
		v := floats[bit]
		return &v
	}
	snap.SpeedMPS = take(fieldSpeed)
	snap.EngineRPM = take(fieldRPM)
	snap.MaxEngineRPM = take(fieldMaxRPM)
	snap.ShiftPointRPM = take(fieldShiftPoint)
	snap.Throttle = take(fieldThrottle)
	snap.Brake = take(fieldBrake)
	snap.Clutch = take(fieldClutch)
	snap.SteeringAngleRad = take(fieldSteerAngle)
	snap.SteeringPct = take(fieldSteerPct)
	snap.YawRateRPS = take(fieldYawRate)
	snap.PitchRad = take(fieldPitch)
	snap.RollRad = take(fieldRoll)
	snap.LatAccelMPS2 = take(fieldLatAccel)
	snap.LonAccelMPS2 = take(fieldLonAccel)
	snap.LapDistM = take(fieldLapDist)
	snap.LapDistPct = take(fieldLapDistPct)
	snap.LastLapTimeS = take(fieldLastLap)
	snap.BestLapTimeS = take(fieldBestLap)
	snap.Latitude = take(fieldLatitude)
	snap.Longitude = take(fieldLongitude)
	if lap := take(fieldLapNumber); lap != nil {
		n := int(*lap)
		snap.LapNumber = &n
	}

	if mask&maskGear != 0 {
		gear := int(int8(data[12]))
		snap.Gear = &gear
	}
	if mask&maskFlags != 0 {
		flags := data[13]
		pit := flags&1 != 0
		inLane := flags&2 != 0
		abs := flags&4 != 0
		snap.PitLimiterOn = &pit
		snap.InPitLane = &inLane
		snap.ABSActive = &abs
	}
	if mask&maskTires != 0 {
		if offset+tireFloatCount*4 > len(data) {
			return fmt.Errorf("telemetry packet truncated tire block")
		}
		temps := make([]float64, tireFloatCount)
		for i := range temps {
			temps[i] = float64(math.Float32frombits(binary.LittleEndian.Uint32(data[offset : offset+4])))
			offset += 4
		}
		readTire := func(base int) *telemetry.TireTemps {
			return &telemetry.TireTemps{
				CarcassLeft:   temps[base],
				CarcassMiddle: temps[base+1],
				CarcassRight:  temps[base+2],
				SurfaceLeft:   temps[base+3],
				SurfaceMiddle: temps[base+4],
				SurfaceRight:  temps[base+5],
			}
		}
		snap.TireLF = readTire(0)
		snap.TireRF = readTire(6)
		snap.TireLR = readTire(12)
		snap.TireRR = readTire(18)
	}

	u.mu.Lock()
	u.pending = &snap
	u.mu.Unlock()
	return nil
}

// SessionInfo returns the last session packet received.
func (u *UDP) SessionInfo() (telemetry.SessionInfo, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.session == nil {
		return telemetry.SessionInfo{}, ErrUnavailable
	}
	return *u.session, nil
}

// Telemetry returns the latest unread snapshot.
func (u *UDP) Telemetry() (telemetry.Snapshot, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.pending == nil {
		return telemetry.Snapshot{}, ErrUnavailable
	}
	snap := *u.pending
	u.pending = nil
	return snap, nil
}

func (u *UDP) Close() error {
	u.mu.Lock()
	u.closed = true
	u.mu.Unlock()
	return u.conn.Close()
}
