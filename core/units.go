package core

// Unit conversions used across the viewer. Each function is the exact
// algebraic inverse of its counterpart, so round-tripping any finite
// value is lossless to floating-point precision.

const (
	kmPerGm = 1e6
	mmPerGm = 1e3 // megametres per gigametre
	mPerKm  = 1e3

	// GmPerAu is one astronomical unit expressed in gigametres.
	GmPerAu = 149.597870707

	// GravitationalConstant is G in m^3 kg^-1 s^-2.
	GravitationalConstant = 6.67430e-11

	// metersPerSceneUnit fixes the scene scale: one rendering unit is
	// one gigametre. The full system span (~150 Gm) then fits in a few
	// hundred scene units while close-up framing stays well above
	// float precision limits.
	metersPerSceneUnit = 1e9
)

// KmToGm converts kilometres to gigametres.
func KmToGm(km float64) float64 { return km / kmPerGm }

// GmToKm converts gigametres to kilometres.
func GmToKm(gm float64) float64 { return gm * kmPerGm }

// MmToGm converts megametres to gigametres.
func MmToGm(mm float64) float64 { return mm / mmPerGm }

// GmToMm converts gigametres to megametres.
func GmToMm(gm float64) float64 { return gm * mmPerGm }

// MToKm converts metres to kilometres.
func MToKm(m float64) float64 { return m / mPerKm }

// KmToM converts kilometres to metres.
func KmToM(km float64) float64 { return km * mPerKm }

// AuToGm converts astronomical units to gigametres.
func AuToGm(au float64) float64 { return au * GmPerAu }

// GmToAu converts gigametres to astronomical units.
func GmToAu(gm float64) float64 { return gm / GmPerAu }

// MetersToScene converts metres to scene units.
func MetersToScene(m float64) float64 { return m / metersPerSceneUnit }

// SceneToMeters converts scene units to metres.
func SceneToMeters(u float64) float64 { return u * metersPerSceneUnit }
