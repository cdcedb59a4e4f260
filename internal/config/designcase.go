package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/aeroconcept/sizer/internal/aircraft"
	"github.com/aeroconcept/sizer/internal/mission"
)

// DesignCase is one aircraft/mission pair to size. Cases are loaded from
// TOML files or posted as JSON to the API; field validation happens in the
// domain constructors, not here.
type DesignCase struct {
	Name     string            `toml:"name" json:"name"`
	Aircraft AircraftCase      `toml:"aircraft" json:"aircraft"`
	Wing     *WingCase         `toml:"wing" json:"wing,omitempty"`
	Engine   EngineCase        `toml:"engine" json:"engine"`
	Stores   []aircraft.Store  `toml:"stores" json:"stores,omitempty"`
	Mission  []mission.Segment `toml:"mission" json:"mission"`
}

// AircraftCase selects the airframe archetype and drag/ground-roll options
type AircraftCase struct {
	Type          string         `toml:"type" json:"type"`                       // jet_trainer | jet_fighter | mil_cargo | bomber | jet_transport
	NumEngines    int            `toml:"num_engines" json:"num_engines"`         // defaults to 1
	KAero         float64        `toml:"k_aero" json:"k_aero"`                   // technology blend factor [0, 1]
	K2            float64        `toml:"k_2" json:"k_2"`                         // viscous drag-due-to-lift (default 0.003)
	CD0           *float64       `toml:"cd_0" json:"cd_0,omitempty"`             // fixed zero-lift drag override
	K1            *float64       `toml:"k_1" json:"k_1,omitempty"`               // fixed drag-due-to-lift override
	KTakeoff      float64        `toml:"k_to" json:"k_to"`                       // liftoff speed factor (default 1.1)
	KTouchdown    float64        `toml:"k_td" json:"k_td"`                       // touchdown speed factor (default 1.15)
	MuRolling     float64        `toml:"mu_rolling" json:"mu_rolling"`           // takeoff rolling friction (default 0.05)
	MuBraking     float64        `toml:"mu_braking" json:"mu_braking"`           // landing braking friction (default 0.4)
	ReverseThrust bool           `toml:"reverse_thrust" json:"reverse_thrust"`   // reversers available on landing
	DragChute     *DragChuteCase `toml:"drag_chute" json:"drag_chute,omitempty"` // optional landing drag chute
}

// WingCase describes wing geometry; omit to derive the wing from the
// archetype's aspect-ratio regression at its design Mach.
type WingCase struct {
	Sweep       float64    `toml:"sweep" json:"sweep"`               // quarter-chord sweep, degrees [0, 60]
	AspectRatio float64    `toml:"aspect_ratio" json:"aspect_ratio"` // [1, 8]; 0 derives from the archetype regression
	FlapType    string     `toml:"flap_type" json:"flap_type"`       // none | plain | single_slot | fowler | double_slotted | triple_slotted
	Slats       bool       `toml:"slats" json:"slats"`
	TaperRatio  float64    `toml:"taper_ratio" json:"taper_ratio"` // [0, 1]
	FlapSpan    [2]float64 `toml:"flap_span" json:"flap_span"`     // fractional span interval
}

// EngineCase selects the propulsion archetype.
type EngineCase struct {
	Archetype   string   `toml:"archetype" json:"archetype"` // ATJ | ATP | HBTF | LBTF
	BPR         *float64 `toml:"bpr" json:"bpr,omitempty"`   // bypass ratio override
	Afterburner bool     `toml:"afterburner" json:"afterburner"`
}

// DragChuteCase describes an optional landing drag chute; zero fields take
// the defaults (15 ft diameter, cd 1.4).
type DragChuteCase struct {
	Diameter float64 `toml:"diameter" json:"diameter"` // ft
	CD       float64 `toml:"cd" json:"cd"`
}

// LoadDesignCase loads a design case from a TOML file.
func LoadDesignCase(path string) (*DesignCase, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("design case file not found: %s", path)
	}

	var dc DesignCase
	if _, err := toml.DecodeFile(path, &dc); err != nil {
		return nil, fmt.Errorf("failed to decode design case file: %w", err)
	}
	if dc.Name == "" {
		return nil, fmt.Errorf("design case %s has no name", path)
	}
	if len(dc.Mission) == 0 {
		return nil, fmt.Errorf("design case %q has no mission segments", dc.Name)
	}
	return &dc, nil
}
