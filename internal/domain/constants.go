package domain

// CODATA 2018 physical constants in CGS units. All derived quantities in
// this package (energies in Kelvin, Einstein A coefficients in s⁻¹) assume
// these values; they are not configurable.
const (
	planckH    = 6.62607015e-27 // erg·s
	lightSpeed = 2.99792458e10  // cm/s
	boltzmannK = 1.380649e-16   // erg/K
)
