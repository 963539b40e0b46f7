package malasim

import "fmt"

// AdminBoundary is a named partitioning of locations into
// administrative units (spec.md §3). It is bidirectional:
// location→unit-id and unit-id→ordered set of location-ids, and
// supports both 0-based and 1-based source raster indexing via
// MinUnitID/MaxUnitID.
type AdminBoundary struct {
	Name        string
	locationUnit map[int]int
	unitLocations map[int][]int
	minUnitID   int
	maxUnitID   int
}

// NewAdminBoundary creates an empty named boundary.
func NewAdminBoundary(name string) *AdminBoundary {
	return &AdminBoundary{
		Name:          name,
		locationUnit:  make(map[int]int),
		unitLocations: make(map[int][]int),
		minUnitID:     -1,
		maxUnitID:     -1,
	}
}

// Assign records that locationID belongs to administrative unit
// unitID. Called once per location while building the boundary from a
// raster or a location_based config list.
func (b *AdminBoundary) Assign(locationID, unitID int) {
	if prev, ok := b.locationUnit[locationID]; ok {
		// Re-assignment: drop from the old unit's location list first.
		b.removeFromUnit(prev, locationID)
	}
	b.locationUnit[locationID] = unitID
	b.unitLocations[unitID] = append(b.unitLocations[unitID], locationID)
	if b.minUnitID == -1 || unitID < b.minUnitID {
		b.minUnitID = unitID
	}
	if unitID > b.maxUnitID {
		b.maxUnitID = unitID
	}
}

func (b *AdminBoundary) removeFromUnit(unitID, locationID int) {
	locs := b.unitLocations[unitID]
	for i, id := range locs {
		if id == locationID {
			b.unitLocations[unitID] = append(locs[:i], locs[i+1:]...)
			break
		}
	}
}

// UnitOf returns the administrative unit id that contains locationID.
func (b *AdminBoundary) UnitOf(locationID int) (int, bool) {
	unit, ok := b.locationUnit[locationID]
	return unit, ok
}

// LocationsIn returns the (ordered by insertion) location ids assigned
// to unitID.
func (b *AdminBoundary) LocationsIn(unitID int) []int {
	return b.unitLocations[unitID]
}

// MinUnitID and MaxUnitID report the inclusive range of unit ids seen,
// supporting both 0- and 1-based source data per spec.md §3.
func (b *AdminBoundary) MinUnitID() int { return b.minUnitID }
func (b *AdminBoundary) MaxUnitID() int { return b.maxUnitID }

// UnitCount returns the number of distinct administrative units.
func (b *AdminBoundary) UnitCount() int {
	return len(b.unitLocations)
}

// ValidateCoverage checks the invariant that the boundary covers every
// location in locationIDs exactly once.
func (b *AdminBoundary) ValidateCoverage(locationIDs []int) error {
	seen := make(map[int]bool, len(locationIDs))
	for _, id := range locationIDs {
		if _, ok := b.locationUnit[id]; !ok {
			return NewConfigError("spatial_settings",
				fmt.Sprintf("location %d is not covered by admin boundary %q", id, b.Name))
		}
		seen[id] = true
	}
	for id := range b.locationUnit {
		if !seen[id] {
			return NewConfigError("spatial_settings",
				fmt.Sprintf("admin boundary %q assigns unknown location %d", b.Name, id))
		}
	}
	return nil
}

// AdminLevelRegistry holds every named AdminBoundary level configured
// for a run (e.g. "district" and "region" simultaneously), per
// original_source's AdminLevelManager — the C++ program this spec was
// distilled from supports more than one administrative level at once,
// which spec.md's single "AdminBoundary" type generalizes to a
// registry keyed by level name.
type AdminLevelRegistry struct {
	levels      map[string]*AdminBoundary
	hasDistrict bool
}

// NewAdminLevelRegistry creates an empty registry.
func NewAdminLevelRegistry() *AdminLevelRegistry {
	return &AdminLevelRegistry{levels: make(map[string]*AdminBoundary)}
}

// Register adds a new named level, creating its (initially empty)
// AdminBoundary. The "district" level is treated as the backward
// compatible default level many operations (DistrictMFT, district
// importation events) assume exists.
func (m *AdminLevelRegistry) Register(name string) *AdminBoundary {
	b := NewAdminBoundary(name)
	m.levels[name] = b
	if name == "district" {
		m.hasDistrict = true
	}
	return b
}

// Level returns the named boundary, or nil if not registered.
func (m *AdminLevelRegistry) Level(name string) *AdminBoundary {
	return m.levels[name]
}

// HasLevel reports whether name has been registered.
func (m *AdminLevelRegistry) HasLevel(name string) bool {
	_, ok := m.levels[name]
	return ok
}

// HasDistrict reports whether the mandatory "district" level is
// present.
func (m *AdminLevelRegistry) HasDistrict() bool {
	return m.hasDistrict
}
