package malasim

import (
	"strconv"
	"time"

	"github.com/pkg/errors"
)

// DispatchPopulationEvents converts every configured population_events
// entry into its corresponding WorldEvent and schedules it, per
// spec.md §6's population-event dispatch table. startDate anchors the
// "date" field of each entry to a scheduler day offset.
func DispatchPopulationEvents(m *Model, configs []PopulationEventConfig, startDate time.Time) error {
	for _, cfg := range configs {
		day, err := resolveEventDay(cfg, startDate)
		if err != nil {
			return errors.Wrapf(err, "population event %q", cfg.Name)
		}
		event, err := buildPopulationWorldEvent(m, cfg, day)
		if err != nil {
			return errors.Wrapf(err, "population event %q", cfg.Name)
		}
		if event == nil {
			return errors.Errorf("unrecognized population event name %q", cfg.Name)
		}
		if err := m.Scheduler.ScheduleWorld(event); err != nil {
			return errors.Wrapf(err, "scheduling population event %q", cfg.Name)
		}
	}
	return nil
}

func resolveEventDay(cfg PopulationEventConfig, startDate time.Time) (int, error) {
	if cfg.Date == "" {
		return 0, nil
	}
	t, err := time.Parse("2006-01-02", cfg.Date)
	if err != nil {
		return 0, errors.Wrap(err, "invalid date")
	}
	return DaysBetween(startDate, t), nil
}

// buildPopulationWorldEvent maps one population_events table entry
// onto the corresponding WorldEvent constructor, reading typed fields
// out of the entry's free-form info map (spec.md §6's Non-goals
// explicitly leave this table's schema loose, so info is read
// defensively field-by-field rather than unmarshalled into a fixed
// struct per event kind).
func buildPopulationWorldEvent(m *Model, cfg PopulationEventConfig, day int) (WorldEvent, error) {
	info := cfg.Info
	switch cfg.Name {
	case "introduce_parasites":
		return NewIntroduceParasitesEvent(
			infoInt(info, "location_id", 0),
			infoString(info, "genotype", ""),
			infoInt(info, "number_of_cases", 1),
			day,
		), nil

	case "introduce_parasites_periodically":
		return NewIntroduceParasitesPeriodicallyEvent(
			infoInt(info, "location_id", 0),
			infoString(info, "genotype", ""),
			infoInt(info, "number_of_cases", 1),
			infoInt(info, "period_days", 30),
			day,
		), nil

	case "change_treatment_coverage":
		mode := infoString(info, "mode", "constant")
		if mode == "linear" {
			return NewChangeTreatmentCoverageEvent(LinearInterpolationCoverage{
				StartingTime: day,
				EndTime:      day + infoInt(info, "duration_days", 365),
				From:         infoFloat(info, "from", 0),
				To:           infoFloat(info, "to", 0),
			}, day), nil
		}
		return NewChangeTreatmentCoverageEvent(ConstantCoverage{Value: infoFloat(info, "value", 0)}, day), nil

	case "change_treatment_strategy":
		return NewChangeTreatmentStrategyEvent(infoInt(info, "strategy_id", 0), day), nil

	case "rotate_treatment_strategy_event":
		return NewRotateTreatmentStrategyEvent(
			infoInt(info, "strategy_a", 0),
			infoInt(info, "strategy_b", 0),
			infoInt(info, "period_years", 3),
			day,
		), nil

	case "modify_nested_mft_strategy":
		strategyID := infoInt(info, "strategy_id", 0)
		replacementID := infoInt(info, "replacement_strategy_id", -1)
		var replacement Strategy
		if replacementID >= 0 {
			replacement = m.Strategies[replacementID]
		}
		return NewModifyNestedMFTStrategyEvent(strategyID, replacement, day), nil

	case "single_round_MDA":
		fractions := make(map[int]float64)
		if raw, ok := info["fraction_population_targeted"].(map[string]interface{}); ok {
			for k, v := range raw {
				if locID, err := strconv.Atoi(k); err == nil {
					fractions[locID] = toFloat(v)
				}
			}
		}
		return NewSingleRoundMDAEvent(
			fractions,
			infoInt(info, "days_to_complete_all_treatments", 14),
			infoInt(info, "therapy_id", 0),
			day,
		), nil

	case "turn_on_mutation":
		return NewTurnOnMutationEvent(day), nil

	case "turn_off_mutation":
		return NewTurnOffMutationEvent(day), nil

	case "change_mutation_probability_per_locus":
		return NewChangeMutationProbabilityPerLocusEvent(infoFloat(info, "value", 0), day), nil

	case "change_mutation_mask":
		return NewChangeMutationMaskEvent(infoString(info, "mask", ""), day), nil

	case "change_within_host_induced_free_recombination":
		return NewChangeWithinHostInducedFreeRecombinationEvent(infoBool(info, "enabled", false), day), nil

	case "introduce_plas2_copy_parasite", "introduce_triple_mutant_to_dpm", "introduce_mutant", "introduce_mutant_event":
		districtID := infoInt(info, "district_id", -1)
		var district *AdminBoundary
		if districtID >= 0 {
			district = m.AdminLevels.Level("district")
		}
		return NewIntroduceMutantEvent(
			infoInt(info, "locus", 0),
			infoString(info, "new_allele", ""),
			infoFloat(info, "fraction", 1.0),
			districtID,
			district,
			day,
		), nil

	case "change_interrupted_feeding_rate":
		return NewChangeInterruptedFeedingRateEvent(
			infoInt(info, "location_id", 0),
			infoFloat(info, "value", 0),
			day,
		), nil

	case "annual_beta_update_event":
		return NewAnnualBetaUpdateEvent(infoFloat(info, "rate", 0), day), nil

	case "annual_coverage_update_event":
		return NewAnnualCoverageUpdateEvent(infoFloat(info, "rate", 0), day), nil

	case "change_circulation_percent_event":
		return NewChangeCirculationPercentEvent(infoFloat(info, "value", 0), day), nil

	case "importation_periodically_random_event":
		return NewImportationPeriodicallyRandomEvent(
			infoString(info, "genotype", ""),
			infoInt(info, "period_days", 30),
			day,
		), nil

	case "update_beta_raster_event":
		return NewUpdateBetaRasterEvent(infoString(info, "raster_path", ""), day), nil

	case "district_importation_daily_event":
		district := m.AdminLevels.Level("district")
		return NewDistrictImportationDailyEvent(
			district,
			infoInt(info, "district_id", 0),
			infoString(info, "genotype", ""),
			infoFloat(info, "probability", 0),
			day,
		), nil

	case "update_ecozone_event":
		return NewUpdateEcozoneEvent(infoInt(info, "from", 0), infoInt(info, "to", 0), day), nil
	}
	return nil, nil
}

func infoString(info map[string]interface{}, key, fallback string) string {
	if v, ok := info[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return fallback
}

func infoFloat(info map[string]interface{}, key string, fallback float64) float64 {
	if v, ok := info[key]; ok {
		return toFloat(v)
	}
	return fallback
}

func infoInt(info map[string]interface{}, key string, fallback int) int {
	if v, ok := info[key]; ok {
		switch n := v.(type) {
		case int64:
			return int(n)
		case int:
			return n
		case float64:
			return int(n)
		}
	}
	return fallback
}

func infoBool(info map[string]interface{}, key string, fallback bool) bool {
	if v, ok := info[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return fallback
}

func toFloat(v interface{}) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int64:
		return float64(n)
	case int:
		return float64(n)
	}
	return 0
}
