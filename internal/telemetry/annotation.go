package telemetry

// AnnotationKind tags one annotation variant. There is one kind per detector
// family; the kind string is also the wire tag used by the codec.
type AnnotationKind string

const (
	KindEntryOversteer      AnnotationKind = "entry_oversteer"
	KindMidCornerUndersteer AnnotationKind = "mid_corner_understeer"
	KindMidCornerOversteer  AnnotationKind = "mid_corner_oversteer"
	KindBrakeLock           AnnotationKind = "brake_lock"
	KindTireOverheating     AnnotationKind = "tire_overheating"
	KindTireCold            AnnotationKind = "tire_cold"
	KindBottomingOut        AnnotationKind = "bottoming_out"
	KindSlip                AnnotationKind = "slip"
	KindScrub               AnnotationKind = "scrub"
	KindWheelspin           AnnotationKind = "wheelspin"
	KindTrailbrakeSteering  AnnotationKind = "trailbrake_steering"
	KindShortShift          AnnotationKind = "short_shift"
)

// AnnotationKinds returns every kind in a fixed presentation order.
func AnnotationKinds() []AnnotationKind {
	return []AnnotationKind{
		KindEntryOversteer,
		KindMidCornerUndersteer,
		KindMidCornerOversteer,
		KindBrakeLock,
		KindTireOverheating,
		KindTireCold,
		KindBottomingOut,
		KindSlip,
		KindScrub,
		KindWheelspin,
		KindTrailbrakeSteering,
		KindShortShift,
	}
}

// Annotation is a typed signal emitted by one detector for one snapshot.
// Annotations are immutable once attached to a snapshot.
type Annotation interface {
	Kind() AnnotationKind
}

// EntryOversteer: yaw response exceeded the rolling baseline while braking
// and steering (corner entry).
type EntryOversteer struct {
	ExpectedYawRate float64 `json:"expected_yaw_rate"`
	ActualYawRate   float64 `json:"actual_yaw_rate"`
}

func (EntryOversteer) Kind() AnnotationKind { return KindEntryOversteer }

// MidCornerUndersteer: speed bled off during the coasting apex phase.
type MidCornerUndersteer struct {
	SpeedLossMPS float64 `json:"speed_loss_mps"`
}

func (MidCornerUndersteer) Kind() AnnotationKind { return KindMidCornerUndersteer }

// MidCornerOversteer: yaw response exceeded the rolling baseline while
// coasting through the apex.
type MidCornerOversteer struct {
	YawRateExcess float64 `json:"yaw_rate_excess"`
}

func (MidCornerOversteer) Kind() AnnotationKind { return KindMidCornerOversteer }

// BrakeLock: the anti-lock system intervened inside a braking zone.
// ABSActivations counts interventions since the zone was entered.
type BrakeLock struct {
	ABSActivations int `json:"abs_activations"`
}

func (BrakeLock) Kind() AnnotationKind { return KindBrakeLock }

// TireOverheating: the rolling mean of all surface zones sat above the
// optimal band.
type TireOverheating struct {
	AvgTempC    float64 `json:"avg_temp_c"`
	OptimalMaxC float64 `json:"optimal_max_c"`
}

func (TireOverheating) Kind() AnnotationKind { return KindTireOverheating }

// TireCold: the rolling mean of all surface zones sat below the optimal band.
type TireCold struct {
	AvgTempC    float64 `json:"avg_temp_c"`
	OptimalMinC float64 `json:"optimal_min_c"`
}

func (TireCold) Kind() AnnotationKind { return KindTireCold }

// BottomingOut: simultaneous pitch spike and speed loss on a near-straight.
type BottomingOut struct {
	PitchDeltaRad float64 `json:"pitch_delta_rad"`
	SpeedLossMPS  float64 `json:"speed_loss_mps"`
}

func (BottomingOut) Kind() AnnotationKind { return KindBottomingOut }

// Slip: speed fell while steering with constant-or-rising throttle and no
// brake. The finding aggregator classifies slip by pedal context.
type Slip struct {
	PrevSpeedMPS float64 `json:"prev_speed_mps"`
	CurSpeedMPS  float64 `json:"cur_speed_mps"`
}

func (Slip) Kind() AnnotationKind { return KindSlip }

// Scrub: the steering-to-yaw shortfall exceeded its rolling baseline (the
// front tires are pushing rather than turning).
type Scrub struct {
	BaselineShortfall float64 `json:"baseline_shortfall"`
	CurrentShortfall  float64 `json:"current_shortfall"`
}

func (Scrub) Kind() AnnotationKind { return KindScrub }

// Wheelspin: RPM grew faster than the per-gear full-throttle baseline.
type Wheelspin struct {
	Gear              int     `json:"gear"`
	RPMGrowth         float64 `json:"rpm_growth"`
	BaselineRPMGrowth float64 `json:"baseline_rpm_growth"`
}

func (Wheelspin) Kind() AnnotationKind { return KindWheelspin }

// TrailbrakeSteering: steering exceeded the trail-braking limit while hard
// on the brakes.
type TrailbrakeSteering struct {
	SteeringPct float64 `json:"steering_pct"`
	BrakePct    float64 `json:"brake_pct"`
}

func (TrailbrakeSteering) Kind() AnnotationKind { return KindTrailbrakeSteering }

// ShortShift: an upshift happened more than the tolerance below the target
// shift point.
type ShortShift struct {
	ShiftRPM  float64 `json:"shift_rpm"`
	TargetRPM float64 `json:"target_rpm"`
}

func (ShortShift) Kind() AnnotationKind { return KindShortShift }
