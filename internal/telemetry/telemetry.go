// Package telemetry defines the normalized per-tick vehicle snapshot shared by
// every simulator source, the session metadata that frames a run, and the
// annotation variants the detector bank attaches to a snapshot.
//
// Optional measurements are pointer fields: a nil pointer means the source
// could not measure the value this tick. Nothing in this package (or its
// consumers) may substitute a default for an absent field.
package telemetry

// TireTemps carries the three carcass and three surface zone temperatures of
// one tire, in degrees Celsius.
type TireTemps struct {
	CarcassLeft   float64 `json:"carcass_left"`
	CarcassMiddle float64 `json:"carcass_middle"`
	CarcassRight  float64 `json:"carcass_right"`
	SurfaceLeft   float64 `json:"surface_left"`
	SurfaceMiddle float64 `json:"surface_middle"`
	SurfaceRight  float64 `json:"surface_right"`
}

// SurfaceMean returns the arithmetic mean of the three surface zones.
func (t TireTemps) SurfaceMean() float64 {
	return (t.SurfaceLeft + t.SurfaceMiddle + t.SurfaceRight) / 3
}

// Snapshot is one normalized tick of vehicle state.
//
// Seq strictly increases within one session. TimestampMS is the source clock
// in milliseconds. Annotations is written only by the pipeline; consumers
// must treat a fanned-out snapshot as immutable.
type Snapshot struct {
	Seq         uint64 `json:"seq"`
	TimestampMS int64  `json:"timestamp_ms"`
	Source      string `json:"source"`

	// Vehicle state
	Gear          *int     `json:"gear,omitempty"`
	SpeedMPS      *float64 `json:"speed_mps,omitempty"`
	EngineRPM     *float64 `json:"engine_rpm,omitempty"`
	MaxEngineRPM  *float64 `json:"max_engine_rpm,omitempty"`
	ShiftPointRPM *float64 `json:"shift_point_rpm,omitempty"`

	// Driver inputs
	Throttle         *float64 `json:"throttle,omitempty"`
	Brake            *float64 `json:"brake,omitempty"`
	Clutch           *float64 `json:"clutch,omitempty"`
	SteeringAngleRad *float64 `json:"steering_angle_rad,omitempty"`
	SteeringPct      *float64 `json:"steering_pct,omitempty"`

	// Position and timing
	LapDistM     *float64 `json:"lap_dist_m,omitempty"`
	LapDistPct   *float64 `json:"lap_dist_pct,omitempty"`
	LapNumber    *int     `json:"lap_number,omitempty"`
	LastLapTimeS *float64 `json:"last_lap_time_s,omitempty"`
	BestLapTimeS *float64 `json:"best_lap_time_s,omitempty"`

	// Flags
	PitLimiterOn *bool `json:"pit_limiter_on,omitempty"`
	InPitLane    *bool `json:"in_pit_lane,omitempty"`
	ABSActive    *bool `json:"abs_active,omitempty"`

	// Orientation
	PitchRad     *float64 `json:"pitch_rad,omitempty"`
	RollRad      *float64 `json:"roll_rad,omitempty"`
	YawRad       *float64 `json:"yaw_rad,omitempty"`
	PitchRateRPS *float64 `json:"pitch_rate_rps,omitempty"`
	RollRateRPS  *float64 `json:"roll_rate_rps,omitempty"`
	YawRateRPS   *float64 `json:"yaw_rate_rps,omitempty"`

	// Acceleration
	LatAccelMPS2 *float64 `json:"lat_accel_mps2,omitempty"`
	LonAccelMPS2 *float64 `json:"lon_accel_mps2,omitempty"`

	// Absolute position
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`

	// Tire temperatures, one record per corner
	TireLF *TireTemps `json:"tire_lf,omitempty"`
	TireRF *TireTemps `json:"tire_rf,omitempty"`
	TireLR *TireTemps `json:"tire_lr,omitempty"`
	TireRR *TireTemps `json:"tire_rr,omitempty"`

	// Annotations attached by the detector bank, in detector order.
	Annotations []Annotation `json:"annotations,omitempty"`
}

// SessionInfo is per-session constant metadata. A new SessionInfo replaces
// the previous one wholesale; there is no partial update.
type SessionInfo struct {
	SessionID        string  `json:"session_id"`
	TrackName        string  `json:"track_name"`
	Source           string  `json:"source"`
	MaxSteeringAngle float64 `json:"max_steering_angle_rad"`
	SimSessionID     int64   `json:"sim_session_id"`
	SimSubSessionID  int64   `json:"sim_sub_session_id"`
}

// Same reports whether two session infos identify the same logical session.
// The comparison mirrors what the sims expose: session id, sub-session id and
// track identity.
func (s SessionInfo) Same(other SessionInfo) bool {
	return s.SimSessionID == other.SimSessionID &&
		s.SimSubSessionID == other.SimSubSessionID &&
		s.TrackName == other.TrackName
}
