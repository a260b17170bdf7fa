// Package recommend maps confirmed handling findings to setup-change
// recommendations with static priorities and pairwise conflict detection.
package recommend

import (
	"sort"

	"github.com/apexloop-data/setup.coach/internal/findings"
)

// Category groups setup parameters by the vehicle system they belong to.
type Category string

const (
	Aerodynamics   Category = "aerodynamics"
	Suspension     Category = "suspension"
	AntiRollBar    Category = "anti_roll_bar"
	Dampers        Category = "dampers"
	Brakes         Category = "brakes"
	Drivetrain     Category = "drivetrain"
	Electronics    Category = "electronics"
	Alignment      Category = "alignment"
	TireManagement Category = "tire_management"
)

var categoryNames = map[Category]string{
	Aerodynamics:   "Aero",
	Suspension:     "Suspension",
	AntiRollBar:    "Antirollbar",
	Dampers:        "Dampers",
	Brakes:         "Brakes",
	Drivetrain:     "Drivetrain",
	Electronics:    "Electronics",
	Alignment:      "Alignment",
	TireManagement: "Tire Mgmt",
}

// DisplayName returns the short label used when presenting the category.
func (c Category) DisplayName() string {
	if name, ok := categoryNames[c]; ok {
		return name
	}
	return string(c)
}

// Direction is a typed adjustment direction. Two recommendations for the
// same parameter conflict only when their directions appear in the
// opposition table below; directions absent from the table never conflict.
type Direction string

const (
	Increase         Direction = "Increase"
	Reduce           Direction = "Reduce"
	Stiffen          Direction = "Stiffen"
	Soften           Direction = "Soften"
	Open             Direction = "Open"
	Close            Direction = "Close"
	MoveForward      Direction = "Move Forward"
	MoveRearward     Direction = "Move Rearward"
	IncreaseToeOut   Direction = "Increase Toe Out"
	IncreaseNegative Direction = "Increase Negative"
)

var opposition = map[Direction][]Direction{
	Increase:     {Reduce},
	Reduce:       {Increase},
	Stiffen:      {Soften},
	Soften:       {Stiffen},
	Open:         {Close},
	Close:        {Open},
	MoveForward:  {MoveRearward},
	MoveRearward: {MoveForward},
}

// Opposes reports whether the two directions pull the same parameter in
// opposite ways.
func (d Direction) Opposes(other Direction) bool {
	for _, opp := range opposition[d] {
		if opp == other {
			return true
		}
	}
	return false
}

// Recommendation is a single static setup-change suggestion.
type Recommendation struct {
	Category    Category  `json:"category"`
	Parameter   string    `json:"parameter"`
	Direction   Direction `json:"direction"`
	Description string    `json:"description"`
	Priority    int       `json:"priority"`
}

// Processed is a recommendation annotated with the conflicting
// recommendations collected in the same pass.
type Processed struct {
	Recommendation
	Conflicts   []Recommendation `json:"conflicts,omitempty"`
	HasConflict bool             `json:"has_conflict"`
}

// Engine holds the immutable finding-to-recommendation table. It carries
// no session state; Processed is a pure function of its inputs.
type Engine struct {
	table map[findings.Type][]Recommendation
}

func NewEngine() *Engine {
	return &Engine{table: buildTable()}
}

// For returns the static recommendations for one finding type.
func (e *Engine) For(t findings.Type) []Recommendation {
	return append([]Recommendation(nil), e.table[t]...)
}

// Processed collects the recommendations for every confirmed finding type,
// deduplicates same-parameter same-direction entries keeping the highest
// priority, cross-links opposing-direction pairs on the same parameter,
// and returns the set sorted by descending priority with category and
// parameter name as tiebreaks.
func (e *Engine) Processed(confirmed []findings.Type) []Processed {
	var collected []Recommendation
	for _, t := range confirmed {
		collected = append(collected, e.table[t]...)
	}

	type dedupeKey struct {
		parameter string
		direction Direction
	}
	byKey := make(map[dedupeKey]Recommendation)
	var order []dedupeKey
	for _, rec := range collected {
		key := dedupeKey{rec.Parameter, rec.Direction}
		if existing, ok := byKey[key]; ok {
			if rec.Priority > existing.Priority {
				byKey[key] = rec
			}
			continue
		}
		byKey[key] = rec
		order = append(order, key)
	}

	processed := make([]Processed, 0, len(order))
	for _, key := range order {
		processed = append(processed, Processed{Recommendation: byKey[key]})
	}
	for i := range processed {
		for j := i + 1; j < len(processed); j++ {
			if processed[i].Parameter != processed[j].Parameter {
				continue
			}
			if !processed[i].Direction.Opposes(processed[j].Direction) {
				continue
			}
			processed[i].Conflicts = append(processed[i].Conflicts, processed[j].Recommendation)
			processed[j].Conflicts = append(processed[j].Conflicts, processed[i].Recommendation)
			processed[i].HasConflict = true
			processed[j].HasConflict = true
		}
	}

	sort.SliceStable(processed, func(i, j int) bool {
		if processed[i].Priority != processed[j].Priority {
			return processed[i].Priority > processed[j].Priority
		}
		if processed[i].Category != processed[j].Category {
			return processed[i].Category < processed[j].Category
		}
		return processed[i].Parameter < processed[j].Parameter
	})
	return processed
}

func buildTable() map[findings.Type][]Recommendation {
	return map[findings.Type][]Recommendation{
		findings.CornerEntryUndersteer: {
			{Brakes, "Brake Bias", MoveRearward, "Moving brake bias rearward reduces front tire load during braking", 5},
			{AntiRollBar, "Front Antirollbar", Soften, "Softer front anti-roll bar allows more front grip during corner entry", 5},
			{Suspension, "Front Springs", Soften, "Softer front springs improve mechanical grip during turn-in", 4},
			{Aerodynamics, "Front Ride Height", Reduce, "Lowering front ride height increases front downforce and grip", 3},
			{Suspension, "Rear Springs", Stiffen, "Stiffer rear springs reduce rear grip, shifting balance forward", 3},
			{Aerodynamics, "Rear Ride Height", Increase, "Raising rear ride height reduces rear downforce, shifting balance forward", 3},
			{Dampers, "Front Bump", Soften, "Softer front bump damping allows weight transfer to front tires", 2},
			{Dampers, "Rear Rebound", Stiffen, "Stiffer rear rebound keeps weight on front tires longer", 2},
			{Alignment, "Front Toe", IncreaseToeOut, "Toe out improves turn-in response and front grip", 2},
		},
		findings.CornerEntryOversteer: {
			{Brakes, "Brake Bias", MoveForward, "Moving brake bias forward increases rear stability under braking", 5},
			{Drivetrain, "Differential Preload", Increase, "Higher preload locks differential on coast, stabilizing rear", 4},
			{Suspension, "Rear Springs", Soften, "Softer rear springs improve rear mechanical grip", 4},
			{AntiRollBar, "Front Antirollbar", Stiffen, "Stiffer front anti-roll bar reduces front grip", 3},
			{Aerodynamics, "Rear Ride Height", Reduce, "Lowering rear ride height increases rear downforce and stability", 3},
			{Suspension, "Front Springs", Stiffen, "Stiffer front springs reduce front grip during turn-in", 3},
			{Aerodynamics, "Front Ride Height", Increase, "Raising front ride height reduces front downforce", 2},
			{Dampers, "Front Bump", Stiffen, "Stiffer front bump reduces weight transfer to front", 2},
			{Dampers, "Rear Rebound", Soften, "Softer rear rebound allows rear to settle faster", 2},
		},
		findings.CornerEntryInstability: {
			{Brakes, "Brake Bias", MoveForward, "Forward brake bias stabilizes the rear under braking", 5},
			{Drivetrain, "Differential Preload", Increase, "Higher preload provides more predictable rear behavior", 4},
			{Suspension, "Front Springs", Stiffen, "Stiffer front springs reduce pitch and improve stability", 4},
		},
		findings.MidCornerUndersteer: {
			{AntiRollBar, "Front Antirollbar", Soften, "Softer front Antirollbar allows more front grip mid-corner", 5},
			{Suspension, "Front Springs", Soften, "Softer front springs improve mechanical grip", 4},
			{AntiRollBar, "Rear Antirollbar", Stiffen, "Stiffer rear Antirollbar shifts grip balance toward the front", 4},
			{Aerodynamics, "Front Wing", Increase, "More front wing increases front downforce at apex", 3},
			{Aerodynamics, "Splitter", Increase, "More splitter increases front downforce", 3},
			{Suspension, "Rear Springs", Stiffen, "Stiffer rear springs reduce rear grip", 3},
			{Alignment, "Front Camber", IncreaseNegative, "More negative camber improves front tire contact patch mid-corner", 3},
		},
		findings.MidCornerOversteer: {
			{AntiRollBar, "Rear Antirollbar", Soften, "Softer rear Antirollbar allows more rear grip mid-corner", 5},
			{Suspension, "Rear Springs", Soften, "Softer rear springs improve rear mechanical grip", 4},
			{AntiRollBar, "Front Antirollbar", Stiffen, "Stiffer front Antirollbar reduces front grip", 4},
			{Aerodynamics, "Rear Wing", Increase, "More rear wing increases rear downforce and stability", 3},
			{Suspension, "Front Springs", Stiffen, "Stiffer front springs reduce front grip", 3},
			{Alignment, "Rear Camber", IncreaseNegative, "More negative camber improves rear tire contact patch", 3},
		},
		findings.CornerExitUndersteer: {
			{Drivetrain, "Differential Preload", Increase, "Higher preload helps rotate the car on power", 5},
			{Drivetrain, "Differential Locking", Increase, "More locking helps transfer power and rotate the car", 4},
			{Suspension, "Front Springs", Soften, "Softer front springs improve front grip on exit", 4},
			{Suspension, "Rear Springs", Stiffen, "Stiffer rear springs reduce rear grip, helping rotation", 3},
			{Dampers, "Rear Slow Bump", Stiffen, "Stiffer rear slow bump reduces rear squat on acceleration", 2},
			{Dampers, "Front Slow Rebound", Soften, "Softer front slow rebound allows front to settle faster", 2},
		},
		findings.CornerExitPowerOversteer: {
			{Electronics, "Traction Control", Increase, "Higher TC cuts power to prevent wheelspin", 5},
			{Drivetrain, "Differential Preload", Reduce, "Lower preload allows more rear slip, reducing wheelspin", 4},
			{Drivetrain, "Differential Locking", Reduce, "Less locking reduces wheelspin on corner exit", 4},
			{Suspension, "Rear Springs", Soften, "Softer rear springs improve rear mechanical grip", 4},
			{Aerodynamics, "Rear Wing", Increase, "More rear wing increases rear downforce at high speeds", 3},
			{Suspension, "Front Springs", Stiffen, "Stiffer front springs reduce front grip, stabilizing rear", 3},
			{Dampers, "Rear Slow Bump", Soften, "Softer rear slow bump allows rear to settle and grip", 2},
			{Dampers, "Front Slow Rebound", Stiffen, "Stiffer front slow rebound keeps weight on rear tires", 2},
		},
		findings.CornerExitSnapOversteer: {
			{AntiRollBar, "Rear Antirollbar", Soften, "Softer rear Antirollbar allows more rear compliance", 5},
			{Suspension, "Rear Springs", Soften, "Softer rear springs prevent sudden rear grip loss", 4},
			{Dampers, "Rear Fast Bump", Soften, "Softer rear fast bump prevents sudden compression", 2},
		},
		findings.FrontBrakeLock: {
			{Brakes, "Brake Bias", MoveRearward, "Moving brake bias rearward reduces front brake force", 5},
			{Brakes, "Brake Pressure", Reduce, "Lower brake pressure reduces overall braking force", 4},
		},
		findings.RearBrakeLock: {
			{Brakes, "Brake Bias", MoveForward, "Moving brake bias forward reduces rear brake force", 5},
		},
		findings.BrakingInstability: {
			{Suspension, "Front Springs", Stiffen, "Stiffer front springs reduce brake dive", 4},
			{Aerodynamics, "Rear Ride Height", Reduce, "Lower rear ride height increases rear stability under braking", 3},
			{Dampers, "Front Bump", Stiffen, "Stiffer front bump controls weight transfer under braking", 2},
		},
		findings.TireOverheating: {
			{TireManagement, "Brake Ducts", Open, "Opening brake ducts increases cooling to tires", 5},
			{AntiRollBar, "Antirollbars", Soften, "Softer Antirollbars reduce tire stress", 4},
			{Suspension, "Springs", Soften, "Softer suspension reduces energy transfer to tires", 4},
		},
		findings.TireCold: {
			{TireManagement, "Brake Ducts", Close, "Closing brake ducts retains heat in tires", 5},
			{Suspension, "Springs", Stiffen, "Stiffer suspension works the tires harder", 4},
			{Alignment, "Toe", Increase, "More toe generates heat through scrub", 2},
		},
		findings.BottomingOut: {
			{Suspension, "Ride Height", Increase, "Raising ride height prevents the floor striking the track", 5},
			{Suspension, "Springs", Stiffen, "Stiffer springs reduce suspension travel", 4},
			{Dampers, "Fast Bump", Stiffen, "Stiffer fast bump resists compression over bumps and kerbs", 2},
		},
		findings.ExcessiveTrailbraking: {
			{Brakes, "Brake Bias", MoveForward, "Forward bias reduces rear instability while trail braking", 5},
			{Drivetrain, "Differential Preload", Increase, "Higher preload stabilizes the rear on corner entry", 4},
			{Suspension, "Rear Springs", Soften, "Softer rear springs improve rear grip on entry", 4},
		},
	}
}
