// Package domain models molecular spectral-line catalog data from the two
// major public line lists and normalizes it into one canonical schema.
//
// # Data Sources
//
// Line records originate from the JPL Molecular Spectroscopy catalog
// (https://spec.jpl.nasa.gov) and the Cologne Database for Molecular
// Spectroscopy, CDMS (https://cdms.astro.uni-koeln.de). The upstream
// collector service queries a frequency window per species and publishes
// the raw fixed-width response text to the Kafka source topic, tagged with
// the catalog format. Both catalogs distribute the classic SPCAT .cat line
// layout; the two differ in column offsets, intensity convention, and how
// a species is keyed.
//
// # Catalog Line Conventions
//
// JPL lines (one transition per line, byte offsets per [DefaultJPLSchema]):
//
//	FREQ   transition frequency in MHz
//	ERR    frequency uncertainty in MHz; negative TAG rows are measured
//	       frequencies, positive TAG rows are predicted
//	LGINT  base-10 log of the integrated intensity at 300 K, nm²·MHz
//	DR     degrees of freedom in the rotational partition function
//	ELO    lower-state energy in cm⁻¹
//	GUP    upper-state degeneracy
//	TAG    species tag; |TAG| keys the catdir.cat directory
//	QNFMT  quantum-number format code, followed by upper/lower quanta
//
// CDMS lines carry the same leading physics columns at wider offsets
// (per [DefaultCDMSSchema]), split the species key into a molecular-weight
// field (MOLWT) and a 3-digit sub-tag, tabulate twelve 2-character
// quantum-number sub-fields, and append the species name from offset 89.
// CDMS payloads here follow the lg(A) intensity convention (the query
// issued with the Einstein-A option), so the intensity column is already
// the base-10 log of the Einstein A coefficient in s⁻¹.
//
// # Species Keys
//
// JPL species resolve by |TAG| against the catalog directory. CDMS reuses
// small sub-tag values across isotopologues that differ only in mass, so
// the directory key is the composite MOLWT*1000 + |sub-tag|; resolving a
// CDMS row therefore needs both embedded fields.
//
// # Partition Functions
//
// The JPL directory tabulates lg(Q) on a fixed decreasing grid
// (300, 225, 150, 75, 37.5, 18.75, 9.375 K) without naming it per entry;
// the grid is reversed to increasing order before interpolation. The CDMS
// directory names each column lg(Q(T)) with the temperature embedded in
// the header, including points up to 1000 K. In both, a tabulated value of
// exactly 0 means "not computed" and is discarded along with NaN entries.
// Surviving points map through 10^lgQ and feed a cubic interpolant that
// extrapolates outside the sampled range; [WithExtrapolationNotice]
// observes extrapolated evaluations.
//
// # Canonical Output
//
// Each normalized line carries Species, Frequency (GHz), optional
// Frequency Error (GHz), A_ul (s⁻¹), g_up, and E_up (K), with
// E_up = ELO·h·c/k_B + h·ν/k_B. The enclosing LineList holds the resolved
// species identity, the partition function, and the molecular weight when
// the source format provides one. Intensities and energies are converted,
// never validated: non-positive inputs produce non-positive outputs, and
// plausibility checks belong to downstream consumers.
package domain
