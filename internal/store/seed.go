package store

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

type seedRow struct {
	entity string
	attrs  map[string]any
}

// демонстрационный набор: Andromeda → Sun → Earth → Human и соседи
var demoData = []seedRow{
	{"Galaxy", map[string]any{"GalaxyName": "Andromeda", "Diameter": 220000.0, "Age": 10.0, "Mass": 1.5e12}},
	{"Galaxy", map[string]any{"GalaxyName": "Milky Way", "Diameter": 105700.0, "Age": 13.6, "Mass": 1.15e12}},
	{"Star", map[string]any{"StarName": "Sun", "Classification": "G", "RightAscension": 0.0, "Declination": 0.0, "Luminosity": 1.0, "Age": 4.6, "EstimatedObjects": int64(8), "GalaxyName": "Andromeda"}},
	{"Star", map[string]any{"StarName": "Proxima Centauri", "Classification": "M", "RightAscension": 217.43, "Declination": -62.68, "Luminosity": 0.0017, "Age": 4.85, "EstimatedObjects": int64(2), "GalaxyName": "Milky Way"}},
	{"Star", map[string]any{"StarName": "Vega", "Classification": "A", "RightAscension": 279.23, "Declination": 38.78, "Luminosity": 40.12, "Age": 0.45, "EstimatedObjects": int64(0), "GalaxyName": "Milky Way"}},
	{"Planet", map[string]any{"PlanetName": "Earth", "Radius": 6371.0, "Density": 5.51, "RotationalPeriod": 23.93, "StarName": "Sun"}},
	{"Planet", map[string]any{"PlanetName": "Mars", "Radius": 3389.5, "Density": 3.93, "RotationalPeriod": 24.62, "StarName": "Sun"}},
	{"Planet", map[string]any{"PlanetName": "Jupiter", "Radius": 69911.0, "Density": 1.33, "RotationalPeriod": 9.93, "StarName": "Sun"}},
	{"Planet", map[string]any{"PlanetName": "Proxima b", "Radius": 7160.0, "Density": 5.5, "RotationalPeriod": 267.0, "StarName": "Proxima Centauri"}},
	{"MoonOrbits", map[string]any{"MoonName": "Moon", "PlanetName": "Earth", "Radius": 1737.4, "Density": 3.34, "SurfaceGravity": 1.62, "OrbitDistance": 384400.0}},
	{"MoonOrbits", map[string]any{"MoonName": "Phobos", "PlanetName": "Mars", "Radius": 11.27, "Density": 1.88, "SurfaceGravity": 0.0057, "OrbitDistance": 9376.0}},
	{"LifeForms", map[string]any{"LFName": "Human", "Classification": "Animal", "DiscoveryDate": "1758-01-01", "AverageLength": 1.7, "PlanetName": "Earth"}},
	{"LifeForms", map[string]any{"LFName": "Oak", "Classification": "Plant", "DiscoveryDate": "1753-05-01", "AverageLength": 20.0, "PlanetName": "Earth"}},
	{"LifeForms", map[string]any{"LFName": "E. coli", "Classification": "Bacteria", "DiscoveryDate": "1885-01-01", "AverageLength": 0.000002, "PlanetName": "Earth"}},
	{"LifeForms", map[string]any{"LFName": "Xeno", "Classification": "Bacteria", "DiscoveryDate": "2031-04-12", "AverageLength": 0.000001, "PlanetName": "Mars"}},
	{"SmallBodies", map[string]any{"BodyName": "Ceres", "DiscoveryDate": "1801-01-01", "OrbitType": "Elliptical", "StarName": "Sun"}},
	{"SmallBodies", map[string]any{"BodyName": "Halley", "DiscoveryDate": "1758-12-25", "OrbitType": "Elliptical", "StarName": "Sun"}},
	{"Asteroids", map[string]any{"BodyName": "Ceres", "Types": "C-type"}},
	{"Comets", map[string]any{"BodyName": "Halley", "Classification": "Periodic", "NuclearSize": 11.0}},
	{"InterstellarMedium", map[string]any{"ISMName": "Orion", "Temperature": 10000.0, "MagneticField": 0.5, "Radiation": 1.2, "GalaxyName": "Milky Way"}},
	{"Nebula", map[string]any{"ISMName": "Orion", "Luminosity": 3.0, "Opacity": 0.4}},
	{"Components", map[string]any{"ComponentName": "Hydrogen"}},
	{"Components", map[string]any{"ComponentName": "Water"}},
	{"Element", map[string]any{"ComponentName": "Hydrogen", "AtomicNumber": int64(1), "AtomicMass": 1.008}},
	{"Molecule", map[string]any{"ComponentName": "Water", "BondType": "Covalent", "Symmetry": "C2v"}},
	{"SpaceCraft", map[string]any{"SpaceCraftName": "ISS", "LaunchDate": "1998-11-20", "Affiliation": "International", "Mission": "Research", "PlanetName": "Earth"}},
	{"SpaceCraft", map[string]any{"SpaceCraftName": "Perseverance", "LaunchDate": "2020-07-30", "Affiliation": "NASA", "Mission": "Astrobiology", "PlanetName": "Mars"}},
	{"SpaceStation", map[string]any{"SpaceCraftName": "ISS", "Status": "Active", "OrbitHeight": 420.0}},
	{"Rover", map[string]any{"SpaceCraftName": "Perseverance", "LandDate": "2021-02-18"}},
}

// Seed заливает демонстрационные данные; уже существующие строки пропускаются
func (s *Store) Seed(ctx context.Context) error {
	inserted := 0
	for _, r := range demoData {
		e, err := s.entity(r.entity)
		if err != nil {
			return err
		}
		err = s.insert(ctx, "seed", e, r.attrs)
		switch {
		case err == nil:
			inserted++
		case errors.Is(err, ErrDuplicateKey):
		default:
			return fmt.Errorf("seed %s: %w", r.entity, err)
		}
	}
	s.log.Info("demo data seeded", zap.Int("inserted", inserted), zap.Int("total", len(demoData)))
	return nil
}
