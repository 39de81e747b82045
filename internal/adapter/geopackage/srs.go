package geopackage

// SpatialRef is one row of gpkg_spatial_ref_sys.
type SpatialRef struct {
	Name         string
	ID           int
	Organization string
	OrgID        int
	Definition   string
	Description  string
}

// spatialRefs are seeded into every new geodatabase: the three systems the
// GeoPackage standard requires plus both Illinois State Plane zones.
var spatialRefs = []SpatialRef{
	{Name: "Undefined cartesian SRS", ID: -1, Organization: "NONE", OrgID: -1, Definition: "undefined", Description: "undefined cartesian coordinate reference system"},
	{Name: "Undefined geographic SRS", ID: 0, Organization: "NONE", OrgID: 0, Definition: "undefined", Description: "undefined geographic coordinate reference system"},
	{
		Name: "WGS 84 geodetic", ID: 4326, Organization: "EPSG", OrgID: 4326,
		Definition: `GEOGCS["WGS 84",DATUM["WGS_1984",SPHEROID["WGS 84",6378137,298.257223563]],PRIMEM["Greenwich",0],UNIT["degree",0.0174532925199433],AUTHORITY["EPSG","4326"]]`,
	},
	{
		Name: "NAD83 / Illinois East (ftUS)", ID: 3435, Organization: "EPSG", OrgID: 3435,
		Definition: `PROJCS["NAD83 / Illinois East (ftUS)",GEOGCS["NAD83",DATUM["North_American_Datum_1983",SPHEROID["GRS 1980",6378137,298.257222101]],PRIMEM["Greenwich",0],UNIT["degree",0.0174532925199433]],PROJECTION["Transverse_Mercator"],PARAMETER["latitude_of_origin",36.66666666666666],PARAMETER["central_meridian",-88.33333333333333],PARAMETER["scale_factor",0.999975],PARAMETER["false_easting",984250],PARAMETER["false_northing",0],UNIT["US survey foot",0.3048006096012192],AUTHORITY["EPSG","3435"]]`,
	},
	{
		Name: "NAD83 / Illinois West (ftUS)", ID: 3436, Organization: "EPSG", OrgID: 3436,
		Definition: `PROJCS["NAD83 / Illinois West (ftUS)",GEOGCS["NAD83",DATUM["North_American_Datum_1983",SPHEROID["GRS 1980",6378137,298.257222101]],PRIMEM["Greenwich",0],UNIT["degree",0.0174532925199433]],PROJECTION["Transverse_Mercator"],PARAMETER["latitude_of_origin",36.66666666666666],PARAMETER["central_meridian",-90.16666666666667],PARAMETER["scale_factor",0.999941177],PARAMETER["false_easting",2296583.333],PARAMETER["false_northing",0],UNIT["US survey foot",0.3048006096012192],AUTHORITY["EPSG","3436"]]`,
	},
}
