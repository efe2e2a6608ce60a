package malasim

import "testing"

func TestSteadyTreatmentCoverage_ConstantAcrossTime(t *testing.T) {
	c := &SteadyTreatmentCoverage{ByLocation: []float64{0.6}}
	if v := c.PTreatment(0, 0, 10); v != 0.6 {
		t.Errorf(UnequalFloatParameterError, "steady coverage at day 0", 0.6, v)
	}
	if v := c.PTreatment(10000, 0, 10); v != 0.6 {
		t.Errorf(UnequalFloatParameterError, "steady coverage at a far future day", 0.6, v)
	}
}

func TestSteadyTreatmentCoverage_OutOfRangeLocationReturnsZero(t *testing.T) {
	c := &SteadyTreatmentCoverage{ByLocation: []float64{0.6}}
	if v := c.PTreatment(0, 5, 10); v != 0 {
		t.Errorf(UnequalFloatParameterError, "steady coverage at an out-of-range location", 0.0, v)
	}
}

func TestInflatedTreatmentCoverage_RisesThenClampsAtOne(t *testing.T) {
	c := &InflatedTreatmentCoverage{ByLocation: []float64{0.5}, MonthlyInflation: 1.0, StartDay: 0}
	early := c.PTreatment(0, 0, 10)
	later := c.PTreatment(30, 0, 10)
	farFuture := c.PTreatment(3650, 0, 10)
	if early != 0.5 {
		t.Errorf(UnequalFloatParameterError, "inflated coverage at start day", 0.5, early)
	}
	if later <= early {
		t.Errorf("expected inflated coverage to rise after StartDay: early=%f later=%f", early, later)
	}
	if farFuture != 1.0 {
		t.Errorf(UnequalFloatParameterError, "inflated coverage far in the future", 1.0, farFuture)
	}
}

func TestLinearTreatmentCoverage_InterpolatesBetweenBounds(t *testing.T) {
	c := &LinearTreatmentCoverage{FromValue: []float64{0.2}, ToValue: []float64{0.8}, FromDay: 0, ToDay: 100}
	if v := c.PTreatment(0, 0, 10); v != 0.2 {
		t.Errorf(UnequalFloatParameterError, "linear coverage at FromDay", 0.2, v)
	}
	if v := c.PTreatment(50, 0, 10); v != 0.5 {
		t.Errorf(UnequalFloatParameterError, "linear coverage at the midpoint", 0.5, v)
	}
	if v := c.PTreatment(100, 0, 10); v != 0.8 {
		t.Errorf(UnequalFloatParameterError, "linear coverage at ToDay", 0.8, v)
	}
	if v := c.PTreatment(1000, 0, 10); v != 0.8 {
		t.Errorf(UnequalFloatParameterError, "linear coverage past ToDay", 0.8, v)
	}
}
