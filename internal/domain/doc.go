// Package domain models the reference concepts shared by the wetland GIS tools.
//
// # Projection Zones
//
// Illinois is split into two State Plane zones (NAD83, US feet). Every project is
// drawn in the zone of the county it sits in:
//
//	East: EPSG:3435 (NAD83 / Illinois East (ftUS))
//	West: EPSG:3436 (NAD83 / Illinois West (ftUS))
//
// County names arrive as typed by a person in a tool dialog, so the lookup tables
// carry the common spelling and spacing variants as separate entries ("DuPage",
// "Du Page", "Dupage"). Matching is exact and case-sensitive; an unlisted name is a
// precondition failure, never a guess.
//
// # District 1
//
// IDOT District 1 counties need extra reference figures. Counties with ADID
// (Advanced Identification) wetland inventory maps get an ADID figure and a soils
// figure; Cook and Will get only the soils figure.
//
// # Figures
//
// Figure sets by District 1 status, with the overview map added for Large projects:
//
//	ADID:   Location, NWI, ADID, Soils, [Overview], Determination
//	NoADID: Location, NWI, Soils, [Overview], Determination
//	None:   Location, NWI, [Overview], Determination
//
// # Layer Categories
//
// Field crews deliver one shapefile per layer, named by prefix ("Project_Boundary",
// "Wetland_Sites", "Sampling_Points" ...). The prefix plus the geometry type decides
// which master geodatabase feature class the layer is appended to. See [Categories].
//
// # Errors
//
// Failures are classified by kind (see [ErrPreconditionFailed], [ErrResourceExists],
// [ErrExternalCallFailed]) so commands can tell a bad input from an existing output
// from a failed library call.
package domain
