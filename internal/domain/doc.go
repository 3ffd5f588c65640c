// Package domain models wildfire smoke exposure and fire-danger risk data.
//
// # Data Sources
//
// Ground observations come from the USDA Fire Environment Mapping System
// (FEMS) climatology GraphQL API. Two observation families are used:
//
//	weatherObs: hourly RAWS station weather. Temperature, relative
//	humidity, wind speed/direction, and 1/24/48/72 h precipitation
//	accumulations. RAWS stations report wind speed in miles per hour;
//	conversions to m/s use [MpsPerMph].
//
//	nfdrsObs: daily National Fire Danger Rating System outputs per
//	station and fuel model: KBDI drought index, dead fuel moisture at the
//	1/10/100/1000-hour timelag classes, and the standardized fire-behavior
//	indices (ignition component, spread component, energy release
//	component, burning index).
//
// Satellite fire detections come from NASA FIRMS area queries
// (VIIRS/MODIS near-real-time collections). Each detection row carries a
// location, acquisition date/time, fire radiative power (FRP, MW), the
// scan/track pixel dimensions in km, and a confidence value.
//
// # FIRMS Data Conventions
//
// Confidence is numeric (0–100) for MODIS collections but categorical for
// VIIRS: "l"/"low", "n"/"nominal", "h"/"high". Categorical values are
// normalized to 20/60/90 percent by [ConfidencePercent].
//
// Acquisition time is split across two columns:
//
//	acq_date "2024-08-14" + acq_time "1510" parse to 2024-08-14T15:10Z.
//	Three-digit times are zero-padded ("930" reads as "0930").
//
// Missing scan/track dimensions default to 0.375 km, the nominal VIIRS
// pixel size, so every detection yields a usable footprint estimate.
//
// # Risk Classification
//
// The 0–100 fire-danger score is a weighted blend of NFDRS indices and
// current weather (see [ScoreFireDanger]) bucketed into five levels at
// 20/40/60/80. The weights are a decision-support heuristic, not an NFDRS
// standard product.
//
// # Plume Model
//
// [Cone] produces a downwind smoke footprint polygon per time offset. It
// is a parametric cone on the WGS84 ellipsoid driven by wind, burning
// index, dead fuel moisture, FRP, and estimated fire area. It is a fast
// decision-support heuristic, not an atmospheric dispersion model.
package domain
