package malasim

// Config is the parsed, validated root configuration document (spec.md
// §6). Every field is read once at startup from a TOML document via
// LoadConfig; nothing is hot-reloaded, mirroring the teacher's
// single-pass evoepi_config.go loading style.
type Config struct {
	SimulationTimeframe  SimulationTimeframeConfig  `toml:"simulation_timeframe"`
	PopulationDemographic PopulationDemographicConfig `toml:"population_demographic"`
	SpatialSettings      SpatialSettingsConfig      `toml:"spatial_settings"`
	SeasonalitySettings  SeasonalitySettingsConfig  `toml:"seasonality_settings"`
	MovementSettings     MovementSettingsConfig     `toml:"movement_settings"`
	GenotypeParameters   GenotypeParametersConfig   `toml:"genotype_parameters"`
	DrugParameters       DrugParametersConfig       `toml:"drug_parameters"`
	TherapyParameters    TherapyParametersConfig    `toml:"therapy_parameters"`
	StrategyParameters   StrategyParametersConfig   `toml:"strategy_parameters"`
	ImmuneSystemParameters ImmuneSystemParametersConfig `toml:"immune_system_parameters"`
	EpidemiologicalParameters EpidemiologicalParametersConfig `toml:"epidemiological_parameters"`
	PopulationEvents     []PopulationEventConfig    `toml:"population_events"`
}

// SimulationTimeframeConfig is simulation_timeframe.
type SimulationTimeframeConfig struct {
	StartingDate     string `toml:"starting_date"`
	EndingDate       string `toml:"ending_date"`
	StartCollectDataDay int  `toml:"start_collect_data_day"`
	TotalTime        int    `toml:"total_time"`
}

// PopulationDemographicConfig is population_demographic.
type PopulationDemographicConfig struct {
	AgeStructure                       []int       `toml:"age_structure"`
	InitialAgeStructure                []int       `toml:"initial_age_structure"`
	MortalityWhenTreatmentFailByAgeClass []float64 `toml:"mortality_when_treatment_fail_by_age_class"`
}

// SpatialSettingsConfig is spatial_settings. Exactly one of GridBased or
// LocationBased is populated, per Mode.
type SpatialSettingsConfig struct {
	Mode        string            `toml:"mode"` // "grid_based" | "location_based"
	GridBased   GridBasedConfig   `toml:"grid_based"`
	LocationBased LocationBasedConfig `toml:"location_based"`
}

type GridBasedConfig struct {
	PopulationRaster       string  `toml:"population_raster"`
	BetaRaster             string  `toml:"beta_raster"`
	PTreatmentUnder5Raster string  `toml:"p_treatment_under_5_raster"`
	PTreatmentOver5Raster  string  `toml:"p_treatment_over_5_raster"`
	DistrictRaster         string  `toml:"district_raster"`
	TravelRaster           string  `toml:"travel_raster"`
	EcoclimaticRaster      string  `toml:"ecoclimatic_raster"`
	CellSizeKm             float64 `toml:"cell_size_km"`
}

type LocationBasedConfig struct {
	Locations []LocationEntryConfig `toml:"locations"`
}

type LocationEntryConfig struct {
	ID                int     `toml:"id"`
	Latitude          float64 `toml:"lat"`
	Longitude         float64 `toml:"lon"`
	PopulationTarget  int     `toml:"population_target"`
	Beta              float64 `toml:"beta"`
	PTreatmentUnder5  float64 `toml:"p_treatment_under_5"`
	PTreatmentOver5   float64 `toml:"p_treatment_over_5"`
}

// SeasonalitySettingsConfig is seasonality_settings.
type SeasonalitySettingsConfig struct {
	Enable bool   `toml:"enable"`
	Mode   string `toml:"mode"` // disabled | equation | rainfall | pattern

	Equation EquationSeasonalityConfig `toml:"equation"`
	Rainfall RainfallSeasonalityConfig `toml:"rainfall"`
	Pattern  PatternSeasonalityConfig  `toml:"pattern"`
}

type EquationSeasonalityConfig struct {
	Base []float64 `toml:"base"`
	A    []float64 `toml:"a"`
	B    []float64 `toml:"b"`
	Phi  []float64 `toml:"phi"`
}

type RainfallSeasonalityConfig struct {
	Filename string `toml:"filename"`
	Period   int    `toml:"period"`
}

type PatternSeasonalityConfig struct {
	Filename  string `toml:"filename"`
	IsMonthly bool   `toml:"is_monthly"`
}

// MovementSettingsConfig is movement_settings.
type MovementSettingsConfig struct {
	Model                  string  `toml:"model"` // wesolowski | wesolowski_surface | marshall | burkina_faso | barabasi
	Kappa, Alpha, Beta, Gamma float64 `toml:"kappa,alpha,beta,gamma"`
	Tau, Rho               float64 `toml:"tau,rho"`
	RG0, BetaR             float64 `toml:"rg0,beta_r"`
	CapitalDistrict        int     `toml:"capital_district"`
	Penalty                float64 `toml:"penalty"`

	CirculationPercent          float64 `toml:"circulation_percent"`
	RelativeMovementGammaAlpha  float64 `toml:"relative_movement_gamma_alpha"`
	RelativeMovementGammaBeta   float64 `toml:"relative_movement_gamma_beta"`
	MaxTripDuration             int     `toml:"max_trip_duration"`
}

// GenotypeParametersConfig is genotype_parameters.
type GenotypeParametersConfig struct {
	PfGenotypeInfo          []AlleleLocusConfig `toml:"pf_genotype_info"`
	MutationMask            string              `toml:"mutation_mask"`
	MutationProbabilityPerLocus float64         `toml:"mutation_probability_per_locus"`
	OverrideEC50Patterns    []EC50OverrideConfig `toml:"override_ec50_patterns"`
	WithinHostInducedFreeRecombination bool     `toml:"within_host_induced_free_recombination"`
}

type AlleleLocusConfig struct {
	Name          string                        `toml:"name"`
	Alleles       []string                      `toml:"alleles"`
	FitnessCost   map[string]float64            `toml:"fitness_cost"`
	DrugEC50Power map[string]map[string]float64 `toml:"drug_ec50_power"`
}

type EC50OverrideConfig struct {
	Pattern string `toml:"pattern"`
	DrugID  int    `toml:"drug_id"`
	Value   float64 `toml:"value"`
}

// DrugParametersConfig is drug_parameters.
type DrugParametersConfig struct {
	DrugDB map[string]DrugTypeConfig `toml:"drug_db"`
}

type DrugTypeConfig struct {
	Name                     string    `toml:"name"`
	HalfLife                 float64   `toml:"half_life"`
	MaxKillingRate           float64   `toml:"max_killing_rate"`
	AbsorptionMeanByAgeClass []float64 `toml:"absorption_mean_by_age_class"`
	AbsorptionSDByAgeClass   []float64 `toml:"absorption_sd_by_age_class"`
	CutoffConcentration      float64   `toml:"cutoff_concentration"`
	AffectedLoci             []int     `toml:"affected_loci"`
	BaseDurationDays         int       `toml:"base_duration_days"`
}

// TherapyParametersConfig is therapy_parameters.
type TherapyParametersConfig struct {
	TherapyDB map[string]TherapyConfig `toml:"therapy_db"`
}

type TherapyConfig struct {
	Name        string             `toml:"name"`
	DrugIDs     []int              `toml:"drug_ids"`
	DosingDaysFixed int            `toml:"dosing_days_fixed"`
	DosingDaysMean  float64        `toml:"dosing_days_mean"`
	DosingDaysSD    float64        `toml:"dosing_days_sd"`
	DosingDaysMin   int            `toml:"dosing_days_min"`
	DosingDaysMax   int            `toml:"dosing_days_max"`
	Components  []TherapyComponentConfig `toml:"components"`
}

type TherapyComponentConfig struct {
	TherapyID int `toml:"therapy_id"`
	StartDay  int `toml:"start_day"`
}

// StrategyParametersConfig is strategy_parameters.
type StrategyParametersConfig struct {
	StrategyDB       map[string]StrategyConfig `toml:"strategy_db"`
	InitialStrategyID int                      `toml:"initial_strategy_id"`
	MDA              MDAConfig                 `toml:"mda"`
}

type StrategyConfig struct {
	Type              string    `toml:"type"` // sft|mft|cycling|adaptive_cycling|nested_mft|nested_mft_multi_location|district_mft
	TherapyIDs        []int     `toml:"therapy_ids"`
	Weights           []float64 `toml:"weights"`
	CyclingPeriodDays int       `toml:"cycling_period_days"`
	TFThreshold       float64   `toml:"tf_threshold"`
	TFWindowDays      int       `toml:"tf_window_days"`
	InnerStrategyIDs  []int     `toml:"inner_strategy_ids"`
	OuterWeights      []float64 `toml:"outer_weights"`
	PerLocationOuterStrategy map[int]int `toml:"per_location_outer_strategy"`
	DistrictStrategyIDs map[int]int `toml:"district_strategy_ids"`
}

type MDAConfig struct {
	TherapyID int `toml:"therapy_id"`
}

// ImmuneSystemParametersConfig is immune_system_parameters.
type ImmuneSystemParametersConfig struct {
	CMax, CMin float64 `toml:"c_max,c_min"`
	AcquireRateByAge []float64 `toml:"acquire_rate_by_age"`
	DecayRate        float64   `toml:"decay_rate"`
	BMin, BMax       float64   `toml:"b_min,b_max"`
	MaxClinicalProbability             float64 `toml:"max_clinical_probability"`
	ImmuneEffectOnProgressionToClinical float64 `toml:"immune_effect_on_progression_to_clinical"`
}

// EpidemiologicalParametersConfig is epidemiological_parameters.
type EpidemiologicalParametersConfig struct {
	DaysToClinicalUnderFive         int     `toml:"days_to_clinical_under_five"`
	DaysToClinicalOverFive          int     `toml:"days_to_clinical_over_five"`
	DaysMatureGametocyteUnderFive   int     `toml:"days_mature_gametocyte_under_five"`
	DaysMatureGametocyteOverFive    int     `toml:"days_mature_gametocyte_over_five"`
	PCompliance                     float64 `toml:"p_compliance"`
	MinDosingDays                   int     `toml:"min_dosing_days"`
	RelativeInfectivitySigma        float64 `toml:"relative_infectivity_sigma"`
	RelativeInfectivityRhoStar      float64 `toml:"relative_infectivity_rho_star"`
	RelativeBitingMin               float64 `toml:"relative_biting_min"`
	RelativeBitingMax               float64 `toml:"relative_biting_max"`
	RelativeBitingGammaAlpha        float64 `toml:"relative_biting_gamma_alpha"`
	RelativeBitingGammaBeta         float64 `toml:"relative_biting_gamma_beta"`
	UsingAgeDependentBitingLevel    bool    `toml:"using_age_dependent_biting_level"`
	PRelapse                        float64 `toml:"p_relapse"`
	RelapseDurationMean             float64 `toml:"relapse_duration_mean"`
	RelapseDurationSD               float64 `toml:"relapse_duration_sd"`
	UpdateFrequency                 int     `toml:"update_frequency"`
	TreatmentFailureDeathMortalityFactor float64 `toml:"treatment_failure_death_mortality_factor"`
	AgeClassBoundaries              []int   `toml:"age_class_boundaries"`
}

// PopulationEventConfig is one entry of population_events: a named,
// dated, loosely-typed event with a free-form info map, interpreted by
// the population-event dispatch table in events_population.go.
type PopulationEventConfig struct {
	Name string                 `toml:"name"`
	Date string                 `toml:"date"`
	Info map[string]interface{} `toml:"info"`
}
