package malasim

import "testing"

func TestImmuneSystem_CurrentValueIncreasesTowardOneWhenAcquiring(t *testing.T) {
	params := &ImmuneParameters{
		AdultAcquireRateBySlope: 1,
		AdultAcquireRateByAge:   0,
		AdultAcquireRateMax:     0.5,
		InfantMaxAgeDays:        183,
	}
	s := NewImmuneSystem(params, 0.1, 0)
	s.SetIncrease(true)
	got := s.CurrentValue(10, 20*365)
	if got <= 0.1 {
		t.Errorf("expected theta to increase toward 1 under Increase()=true, got %f", got)
	}
}

func TestImmuneSystem_CurrentValueDecaysWhenNotAcquiring(t *testing.T) {
	params := &ImmuneParameters{AdultDecayRate: 0.1, InfantMaxAgeDays: 183}
	s := NewImmuneSystem(params, 0.5, 0)
	s.SetIncrease(false)
	got := s.CurrentValue(10, 20*365)
	if got >= 0.5 {
		t.Errorf("expected theta to decay toward 0 under Increase()=false, got %f", got)
	}
}

func TestImmuneSystem_InfantAlwaysDecaysRegardlessOfIncrease(t *testing.T) {
	params := &ImmuneParameters{
		AdultAcquireRateBySlope: 1,
		AdultAcquireRateByAge:   0,
		AdultAcquireRateMax:     0.5,
		InfantDecayRate:         0.0315,
		InfantMaxAgeDays:        183,
	}
	s := NewImmuneSystem(params, 0.5, 0)
	s.SetIncrease(true) // even under active exposure, an infant must still decay
	got := s.CurrentValue(10, 30)
	if got >= 0.5 {
		t.Errorf("expected an infant's immunity to decay even with Increase()=true, got %f", got)
	}
}

func TestImmuneSystem_SetIncreaseTogglesDirection(t *testing.T) {
	s := NewImmuneSystem(&ImmuneParameters{InfantMaxAgeDays: 0}, 0, 0)
	if s.Increase() {
		t.Errorf("expected a freshly-created ImmuneSystem to start with Increase()=false")
	}
	s.SetIncrease(true)
	if !s.Increase() {
		t.Errorf("expected SetIncrease(true) to flip Increase() to true")
	}
	s.SetIncrease(false)
	if s.Increase() {
		t.Errorf("expected SetIncrease(false) to flip Increase() back to false")
	}
}
