package malasim

import (
	"sort"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
)

// LoadConfig parses a TOML configuration document into a Config,
// mirroring the teacher's single evoepi_config.go entry point.
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, errors.Wrap(err, "decoding config file")
	}
	return cfg, nil
}

// BuildModel turns a parsed Config into a fully wired, ready-to-Run
// Model: genotype database, drug/therapy/strategy tables, spatial
// layer, seasonality, movement kernel, immune parameters, and the
// initial population. Every *_db table in cfg is keyed by a string
// that must parse as the integer id referenced elsewhere in the
// config (drug_ids, therapy_ids, strategy ids), per the original
// program's array-of-objects convention.
func BuildModel(cfg *Config, seed int64) (*Model, error) {
	m := NewModel(cfg, seed)

	startDate, err := time.Parse("2006-01-02", cfg.SimulationTimeframe.StartingDate)
	if err != nil {
		return nil, errors.Wrap(err, "simulation_timeframe.starting_date")
	}
	totalDays := cfg.SimulationTimeframe.TotalTime
	if totalDays <= 0 {
		endDate, err := time.Parse("2006-01-02", cfg.SimulationTimeframe.EndingDate)
		if err != nil {
			return nil, errors.Wrap(err, "simulation_timeframe.ending_date")
		}
		totalDays = DaysBetween(startDate, endDate)
	}
	m.Scheduler = NewScheduler(startDate, totalDays)

	if err := buildGenotypeDatabase(m, cfg); err != nil {
		return nil, errors.Wrap(err, "genotype_parameters")
	}
	if err := buildDrugTypes(m, cfg); err != nil {
		return nil, errors.Wrap(err, "drug_parameters")
	}
	if err := buildTherapies(m, cfg); err != nil {
		return nil, errors.Wrap(err, "therapy_parameters")
	}
	if err := buildLocations(m, cfg); err != nil {
		return nil, errors.Wrap(err, "spatial_settings")
	}
	if err := buildStrategies(m, cfg); err != nil {
		return nil, errors.Wrap(err, "strategy_parameters")
	}
	buildSeasonalModel(m, cfg)
	buildMovementKernel(m, cfg)
	buildImmuneParameters(m, cfg)

	m.EpiParams = &cfg.EpidemiologicalParameters
	m.AgeLadder = AgeClassLadder(cfg.EpidemiologicalParameters.AgeClassBoundaries)
	m.MutationMask = cfg.GenotypeParameters.MutationMask
	m.MutationProbabilityPerLocus = cfg.GenotypeParameters.MutationProbabilityPerLocus
	m.WithinHostInducedFreeRecombination = cfg.GenotypeParameters.WithinHostInducedFreeRecombination
	m.CirculationPercent = cfg.MovementSettings.CirculationPercent
	m.Coverage = ConstantCoverage{Value: 0}

	m.MDC = NewModelDataCollector(len(m.Locations), len(m.AgeLadder))

	if err := buildPopulation(m, cfg); err != nil {
		return nil, errors.Wrap(err, "population_demographic")
	}

	if err := DispatchPopulationEvents(m, cfg.PopulationEvents, startDate); err != nil {
		return nil, errors.Wrap(err, "population_events")
	}

	return m, nil
}

func parseDBKey(key string) (int, error) {
	id, err := strconv.Atoi(key)
	if err != nil {
		return 0, errors.Wrapf(err, "table key %q is not an integer id", key)
	}
	return id, nil
}

func buildGenotypeDatabase(m *Model, cfg *Config) error {
	loci := make([]AlleleLocus, len(cfg.GenotypeParameters.PfGenotypeInfo))
	for i, locusCfg := range cfg.GenotypeParameters.PfGenotypeInfo {
		drugEC50 := make(map[string]map[int]float64, len(locusCfg.DrugEC50Power))
		for allele, byDrug := range locusCfg.DrugEC50Power {
			converted := make(map[int]float64, len(byDrug))
			for drugKey, value := range byDrug {
				drugID, err := parseDBKey(drugKey)
				if err != nil {
					return err
				}
				converted[drugID] = value
			}
			drugEC50[allele] = converted
		}
		loci[i] = AlleleLocus{
			Name:          locusCfg.Name,
			Alleles:       locusCfg.Alleles,
			FitnessCost:   locusCfg.FitnessCost,
			DrugEC50Power: drugEC50,
		}
	}
	schema := NewAlleleSchema(loci)

	overrides := make([]EC50Override, len(cfg.GenotypeParameters.OverrideEC50Patterns))
	for i, ov := range cfg.GenotypeParameters.OverrideEC50Patterns {
		overrides[i] = EC50Override{Pattern: ov.Pattern, DrugID: ov.DrugID, Value: ov.Value}
	}

	m.GenotypeDB = NewGenotypeDatabase(schema, overrides)
	return nil
}

func buildDrugTypes(m *Model, cfg *Config) error {
	for key, dc := range cfg.DrugParameters.DrugDB {
		id, err := parseDBKey(key)
		if err != nil {
			return err
		}
		baseDuration := dc.BaseDurationDays
		m.DrugTypes[id] = &DrugType{
			ID:                       id,
			Name:                     dc.Name,
			HalfLife:                 dc.HalfLife,
			MaxKillingRate:           dc.MaxKillingRate,
			AbsorptionMeanByAgeClass: dc.AbsorptionMeanByAgeClass,
			AbsorptionSDByAgeClass:   dc.AbsorptionSDByAgeClass,
			CutoffConcentration:      dc.CutoffConcentration,
			AffectedLoci:             dc.AffectedLoci,
			TotalDurationDays: func(dosingDays int) int {
				return dosingDays + baseDuration
			},
		}
	}
	return nil
}

func buildTherapies(m *Model, cfg *Config) error {
	for key, tc := range cfg.TherapyParameters.TherapyDB {
		id, err := parseDBKey(key)
		if err != nil {
			return err
		}
		components := make([]TherapyComponent, len(tc.Components))
		for i, cc := range tc.Components {
			components[i] = TherapyComponent{TherapyID: cc.TherapyID, StartDay: cc.StartDay}
		}
		m.Therapies[id] = &Therapy{
			ID:          id,
			Name:        tc.Name,
			DrugTypeIDs: tc.DrugIDs,
			Dosing: DosingDaysModel{
				Fixed: tc.DosingDaysFixed,
				Mean:  tc.DosingDaysMean,
				SD:    tc.DosingDaysSD,
				Min:   tc.DosingDaysMin,
				Max:   tc.DosingDaysMax,
			},
			Components: components,
		}
	}
	return nil
}

// buildStrategies constructs every configured strategy in two passes:
// the first pass builds every non-nesting strategy kind (and bare
// nesting shells), the second attaches nested references once every
// id is resolvable, since NestedMFT/NestedMFTMultiLocation/DistrictMFT
// refer to sibling strategies by id.
func buildStrategies(m *Model, cfg *Config) error {
	type pending struct {
		id  int
		cfg StrategyConfig
	}
	var nested []pending

	ids := make([]string, 0, len(cfg.StrategyParameters.StrategyDB))
	for key := range cfg.StrategyParameters.StrategyDB {
		ids = append(ids, key)
	}
	sort.Strings(ids)

	for _, key := range ids {
		sc := cfg.StrategyParameters.StrategyDB[key]
		id, err := parseDBKey(key)
		if err != nil {
			return err
		}
		switch sc.Type {
		case "sft":
			therapyID := 0
			if len(sc.TherapyIDs) > 0 {
				therapyID = sc.TherapyIDs[0]
			}
			m.Strategies[id] = &SFTStrategy{TherapyID: therapyID}
		case "mft":
			m.Strategies[id] = &MFTStrategy{TherapyIDs: sc.TherapyIDs, Weights: sc.Weights}
		case "cycling":
			m.Strategies[id] = &CyclingStrategy{TherapyIDs: sc.TherapyIDs, CyclingPeriodDays: sc.CyclingPeriodDays}
		case "adaptive_cycling":
			locationID := 0
			if len(m.Locations) > 0 {
				locationID = m.Locations[0].ID
			}
			m.Strategies[id] = &AdaptiveCyclingStrategy{
				TherapyIDs:   sc.TherapyIDs,
				TFThreshold:  sc.TFThreshold,
				TFWindowDays: sc.TFWindowDays,
				LocationID:   locationID,
			}
		case "nested_mft", "nested_mft_multi_location", "district_mft":
			nested = append(nested, pending{id: id, cfg: sc})
		default:
			return errors.Errorf("strategy %d: unrecognized type %q", id, sc.Type)
		}
	}

	for _, p := range nested {
		sc := p.cfg
		switch sc.Type {
		case "nested_mft":
			inner := make([]Strategy, len(sc.InnerStrategyIDs))
			for i, innerID := range sc.InnerStrategyIDs {
				inner[i] = m.Strategies[innerID]
			}
			m.Strategies[p.id] = &NestedMFTStrategy{Inner: inner, OuterWeights: sc.OuterWeights}
		case "nested_mft_multi_location":
			inner := make([]Strategy, len(sc.InnerStrategyIDs))
			for i, innerID := range sc.InnerStrategyIDs {
				inner[i] = m.Strategies[innerID]
			}
			m.Strategies[p.id] = &NestedMFTMultiLocationStrategy{
				Inner:                   inner,
				OuterStrategyByLocation: sc.PerLocationOuterStrategy,
			}
		case "district_mft":
			district := m.AdminLevels.Level("district")
			ds := NewDistrictMFTStrategy(district)
			for districtID, strategyID := range sc.DistrictStrategyIDs {
				mft, ok := m.Strategies[strategyID].(*MFTStrategy)
				if !ok {
					return errors.Errorf("strategy %d: district_strategy_ids[%d]=%d is not an mft strategy", p.id, districtID, strategyID)
				}
				if err := ds.SetDistrictStrategy(districtID, mft); err != nil {
					return err
				}
			}
			m.Strategies[p.id] = ds
		}
	}

	m.ActiveStrategyID = cfg.StrategyParameters.InitialStrategyID
	return nil
}

func buildSeasonalModel(m *Model, cfg *Config) {
	sc := cfg.SeasonalitySettings
	if !sc.Enable {
		m.Seasonal = DisabledSeasonality{}
		return
	}
	switch sc.Mode {
	case "equation":
		zoneOf := make([]int, len(m.Locations))
		for i, loc := range m.Locations {
			zoneOf[i] = loc.EcoZone
		}
		m.Seasonal = NewEquationSeasonality(sc.Equation.Base, sc.Equation.A, sc.Equation.B, sc.Equation.Phi, zoneOf)
	case "rainfall":
		// The rainfall adjustment file itself (sc.Rainfall.Filename) is
		// not parsed here; a flat series is installed as a safe default
		// so a configured rainfall mode never silently behaves as
		// "disabled" -- see DESIGN.md's Open Question on seasonality
		// data file ingestion.
		flat := make([]float64, sc.Rainfall.Period)
		for i := range flat {
			flat[i] = 1
		}
		rs, err := NewRainfallSeasonality(flat, sc.Rainfall.Period)
		if err == nil {
			m.Seasonal = rs
		} else {
			m.Seasonal = DisabledSeasonality{}
		}
	case "pattern":
		// As with rainfall mode, the pattern adjustment file
		// (sc.Pattern.Filename) is not parsed here; a single flat
		// district row is installed as a safe default.
		periods := 12
		if !sc.Pattern.IsMonthly {
			periods = 365
		}
		flat := make([]float64, periods)
		for i := range flat {
			flat[i] = 1
		}
		m.Seasonal = &PatternSeasonality{
			DistrictAdjustments: [][]float64{flat},
			IsMonthly:           sc.Pattern.IsMonthly,
			DistrictOf:          func(int) int { return 0 },
		}
	default:
		m.Seasonal = DisabledSeasonality{}
	}
}

func buildMovementKernel(m *Model, cfg *Config) {
	mc := cfg.MovementSettings
	switch mc.Model {
	case "wesolowski_surface":
		m.Movement = WesolowskiSurfaceKernel{Kappa: mc.Kappa, Alpha: mc.Alpha, Beta: mc.Beta, Gamma: mc.Gamma}
	case "marshall":
		k := &MarshallKernel{Tau: mc.Tau, Alpha: mc.Alpha, Rho: mc.Rho}
		k.Prepare(buildDistanceRow(m))
		m.Movement = k
	case "burkina_faso":
		districtOf := make([]int, len(m.Locations))
		district := m.AdminLevels.Level("district")
		if district != nil {
			for i, loc := range m.Locations {
				unit, _ := district.UnitOf(loc.ID)
				districtOf[i] = unit
			}
		}
		k := &BurkinaFasoKernel{Tau: mc.Tau, Alpha: mc.Alpha, Rho: mc.Rho, CapitalDistrict: mc.CapitalDistrict, Penalty: mc.Penalty, DistrictOf: districtOf}
		k.Prepare(buildDistanceRow(m))
		m.Movement = k
	case "barabasi":
		m.Movement = BarabasiKernel{RG0: mc.RG0, BetaR: mc.BetaR, Kappa: mc.Kappa}
	default:
		m.Movement = WesolowskiKernel{Kappa: mc.Kappa, Alpha: mc.Alpha, Beta: mc.Beta, Gamma: mc.Gamma}
	}
}

func buildImmuneParameters(m *Model, cfg *Config) {
	ic := cfg.ImmuneSystemParameters
	m.ImmuneParams = &ImmuneParameters{
		BMin:                                ic.BMin,
		BMax:                                ic.BMax,
		AcquireRateByAge:                    ic.AcquireRateByAge,
		DecayRate:                           ic.DecayRate,
		CMax:                                ic.CMax,
		CMin:                                ic.CMin,
		MaxClinicalProbability:              ic.MaxClinicalProbability,
		ImmuneEffectOnProgressionToClinical: ic.ImmuneEffectOnProgressionToClinical,
	}
}

func buildLocations(m *Model, cfg *Config) error {
	sc := cfg.SpatialSettings
	switch sc.Mode {
	case "location_based":
		for _, lc := range sc.LocationBased.Locations {
			loc := NewLocation(lc.ID, 0, 0, Coordinate{Latitude: lc.Latitude, Longitude: lc.Longitude})
			loc.PopulationTarget = lc.PopulationTarget
			loc.Beta = lc.Beta
			loc.PTreatmentUnder5 = lc.PTreatmentUnder5
			loc.PTreatmentOver5 = lc.PTreatmentOver5
			m.Locations = append(m.Locations, loc)
		}
		return nil
	case "grid_based":
		return buildGridLocations(m, cfg)
	default:
		return errors.Errorf("unrecognized spatial_settings.mode %q", sc.Mode)
	}
}

func buildGridLocations(m *Model, cfg *Config) error {
	gc := cfg.SpatialSettings.GridBased
	rasters := map[string]string{
		"population": gc.PopulationRaster,
		"beta":       gc.BetaRaster,
	}
	loaded := make(map[string]*Raster, len(rasters))
	for name, path := range rasters {
		if path == "" {
			continue
		}
		r, err := ReadRaster(path)
		if err != nil {
			return err
		}
		loaded[name] = r
	}
	if err := ValidateRasterSet(loaded); err != nil {
		return err
	}
	popRaster := loaded["population"]
	if popRaster == nil {
		return errors.New("grid_based mode requires population_raster")
	}
	betaRaster := loaded["beta"]

	var districtRaster, travelRaster, under5Raster, over5Raster, ecoRaster *Raster
	var err error
	if gc.DistrictRaster != "" {
		if districtRaster, err = ReadRaster(gc.DistrictRaster); err != nil {
			return err
		}
	}
	if gc.TravelRaster != "" {
		if travelRaster, err = ReadRaster(gc.TravelRaster); err != nil {
			return err
		}
	}
	if gc.PTreatmentUnder5Raster != "" {
		if under5Raster, err = ReadRaster(gc.PTreatmentUnder5Raster); err != nil {
			return err
		}
	}
	if gc.PTreatmentOver5Raster != "" {
		if over5Raster, err = ReadRaster(gc.PTreatmentOver5Raster); err != nil {
			return err
		}
	}
	if gc.EcoclimaticRaster != "" {
		if ecoRaster, err = ReadRaster(gc.EcoclimaticRaster); err != nil {
			return err
		}
	}

	var district *AdminBoundary
	if districtRaster != nil {
		district = m.AdminLevels.Register("district")
	}

	nextID := 0
	for row := 0; row < popRaster.NRows; row++ {
		for col := 0; col < popRaster.NCols; col++ {
			if popRaster.IsNoData(row, col) {
				continue
			}
			loc := NewLocation(nextID, row, col, Coordinate{})
			loc.PopulationTarget = int(popRaster.At(row, col))
			if betaRaster != nil {
				loc.Beta = betaRaster.At(row, col)
			}
			if under5Raster != nil {
				loc.PTreatmentUnder5 = under5Raster.At(row, col)
			}
			if over5Raster != nil {
				loc.PTreatmentOver5 = over5Raster.At(row, col)
			}
			if ecoRaster != nil {
				loc.EcoZone = int(ecoRaster.At(row, col))
			}
			m.Locations = append(m.Locations, loc)
			if district != nil {
				district.Assign(loc.ID, int(districtRaster.At(row, col)))
			}
			nextID++
		}
	}
	_ = travelRaster // read and validated only; buildMovementKernel does not pass it on, so the kernels' Travel fields stay nil
	return nil
}

// buildPopulation seeds the initial resident population at each
// location according to population_demographic's age structure,
// drawing PopulationTarget / len(AgeStructure) residents per age
// class, per spec.md §6.
func buildPopulation(m *Model, cfg *Config) error {
	ageStructure := cfg.PopulationDemographic.InitialAgeStructure
	if len(ageStructure) == 0 {
		ageStructure = cfg.PopulationDemographic.AgeStructure
	}
	if len(ageStructure) == 0 {
		ageStructure = []int{0}
	}
	for _, loc := range m.Locations {
		perClass := loc.PopulationTarget / len(ageStructure)
		for _, age := range ageStructure {
			for i := 0; i < perClass; i++ {
				component := ImmuneComponent(&NonInfantImmuneComponent{Params: m.ImmuneParams})
				if age < 1 {
					component = &InfantImmuneComponent{Params: m.ImmuneParams}
				}
				immune := NewImmuneSystem(component, m.ImmuneParams)
				immune.DrawRandom(m.Random)
				p := NewPerson(m.Random.UUID(), loc.ID, immune)
				p.AgeYears = age
				p.AgeClass = m.AgeLadder.ClassOf(age)
				p.InnateRelativeBitingRate = m.Random.Gamma(
					cfg.EpidemiologicalParameters.RelativeBitingGammaAlpha,
					cfg.EpidemiologicalParameters.RelativeBitingGammaBeta,
				)
				p.CurrentRelativeBitingRate = p.InnateRelativeBitingRate
				m.People = append(m.People, p)
				_ = p.Schedule(m.Scheduler, NewBirthdayEvent(p, DaysToNextBirthday(AddDays(m.Scheduler.CalendarDate, -age*365), m.Scheduler.CalendarDate)))
			}
		}
	}
	return nil
}
