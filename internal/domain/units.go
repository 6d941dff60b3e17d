package domain

import "math"

// Catalog intensity convention constants. Both encode the 300 K reference
// intensity in nm²·MHz used by the JPL/CDMS .cat distribution and must not
// be adjusted; see https://spec.jpl.nasa.gov/ftp/pub/catalog/doc/catdoc.pdf.
const (
	intensityToSmu2 = 2.40251e4   // nm²·MHz → line strength · dipole² (debye²)
	smu2ToEinsteinA = 1.16395e-20 // debye²·MHz³ → s⁻¹
	referenceTempK  = 300.0
	mhzToHz         = 1e6
	mhzToGHz        = 1e-3
)

// WavenumberToKelvin converts an energy in wavenumbers (cm⁻¹) to Kelvin:
// E/k_B = wn·h·c/k_B.
func WavenumberToKelvin(wavenumber float64) float64 {
	return wavenumber * planckH * lightSpeed / boltzmannK
}

// LogIntensityToEinsteinA converts a base-10 log integrated intensity at
// 300 K (nm²·MHz, the JPL convention) into an Einstein A coefficient in s⁻¹.
//
// nu0MHz is the transition frequency in MHz, gUp the upper-state
// degeneracy, eLowWavenumber the lower-state energy in cm⁻¹, and q300 the
// partition function evaluated at 300 K. Inputs are converted, not
// validated: a non-positive intensity or a Boltzmann denominator that
// underflows produces a non-physical A. Callers that need plausibility
// checks must apply their own.
func LogIntensityToEinsteinA(logInt300, nu0MHz float64, gUp int, eLowWavenumber, q300 float64) float64 {
	eLowK := WavenumberToKelvin(eLowWavenumber)
	eUpK := eLowK + planckH*nu0MHz*mhzToHz/boltzmannK

	boltzmann := math.Exp(-eLowK/referenceTempK) - math.Exp(-eUpK/referenceTempK)
	smu2 := intensityToSmu2 * math.Pow(10, logInt300) * q300 / nu0MHz / boltzmann

	return smu2ToEinsteinA * nu0MHz * nu0MHz * nu0MHz * smu2 / float64(gUp)
}

// upperStateEnergyK derives E_up in Kelvin from the lower-state energy in
// cm⁻¹ and the transition frequency in GHz.
func upperStateEnergyK(eLowWavenumber, frequencyGHz float64) float64 {
	return WavenumberToKelvin(eLowWavenumber) + planckH*frequencyGHz*1e9/boltzmannK
}
