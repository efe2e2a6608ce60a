package malasim

// DensityUpdateFunc is the per-clone update closure selected by Person
// logic per spec §4.5: given the clone and the number of days elapsed
// since its owning SHCPP was last updated, it returns the clone's new
// last_update_log10_parasite_density. A nil function leaves density
// unchanged.
type DensityUpdateFunc func(clone *ClonalParasitePopulation, duration int, ctx DensityUpdateContext) float64

// DensityUpdateContext carries the per-call inputs a density update
// function needs but that do not belong on the clone itself: the rng for
// stochastic draws and the clinical density range used by clinical
// progression.
type DensityUpdateContext struct {
	Rng                  *Random
	ClinicalDensityFrom  float64
	ClinicalDensityTo    float64
	LogParasiteDensityCured float64
}

// ClinicalProgressionUpdate implements the clinical-progression density
// function: a fresh log10 density sampled uniformly across the configured
// clinical range, independent of the clone's prior density or duration.
func ClinicalProgressionUpdate(clone *ClonalParasitePopulation, duration int, ctx DensityUpdateContext) float64 {
	return ctx.Rng.UniformRange(ctx.ClinicalDensityFrom, ctx.ClinicalDensityTo)
}

// ImmunityClearanceUpdate delegates to the owning person's ImmuneSystem to
// compute the new density from the clone's current density, duration, and
// genotype fitness (spec §4.4's get_parasite_size_after_t_days).
func ImmunityClearanceUpdate(immune *ImmuneSystem, currentTime, ageDays int) DensityUpdateFunc {
	return func(clone *ClonalParasitePopulation, duration int, ctx DensityUpdateContext) float64 {
		fitness := 1.0
		if clone.Genotype != nil {
			fitness = clone.Genotype.DailyFitnessMultipleInfection()
		}
		next := immune.GetParasiteSizeAfterTDays(currentTime, ageDays, duration, clone.LastUpdateLog10Density, fitness)
		if next < ctx.LogParasiteDensityCured {
			return ctx.LogParasiteDensityCured
		}
		return next
	}
}

// HavingDrugUpdate leaves density unchanged; decay from drug pressure is
// applied separately by the scheduler's drug-action step, not by this
// per-clone update hook.
func HavingDrugUpdate(clone *ClonalParasitePopulation, duration int, ctx DensityUpdateContext) float64 {
	return clone.LastUpdateLog10Density
}
