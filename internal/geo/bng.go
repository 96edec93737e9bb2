package geo

import "math"

// Airy 1830 ellipsoid and National Grid projection constants (EPSG:27700).
const (
	airyA   = 6377563.396
	airyB   = 6356256.909
	ngF0    = 0.9996012717
	ngLat0  = 49.0 * math.Pi / 180
	ngLon0  = -2.0 * math.Pi / 180
	ngN0    = -100000.0
	ngE0    = 400000.0
	grs80A  = 6378137.0
	grs80B  = 6356752.3141
	arcSec  = math.Pi / (180 * 3600)
	mmLimit = 0.00001
)

// OSGB36 to WGS84 Helmert parameters.
var helmert = struct {
	tx, ty, tz, s, rx, ry, rz float64
}{
	tx: 446.448, ty: -125.157, tz: 542.060,
	s:  -20.4894e-6,
	rx: 0.1502 * arcSec, ry: 0.2470 * arcSec, rz: 0.8421 * arcSec,
}

// BNGToWGS84 converts British National Grid eastings and northings in metres
// to WGS84 longitude and latitude in degrees. Accuracy is a few metres.
func BNGToWGS84(easting, northing float64) (lon, lat float64) {
	phi, lam := gridToOSGB36(easting, northing)
	x, y, z := toCartesian(phi, lam, airyA, airyB)
	x, y, z = applyHelmert(x, y, z)
	phi, lam = fromCartesian(x, y, z, grs80A, grs80B)
	return lam * 180 / math.Pi, phi * 180 / math.Pi
}

// IsProjected reports whether a coordinate is outside the degree range and
// so must be in metres.
func IsProjected(x, y float64) bool {
	return math.Abs(x) > 180 || math.Abs(y) > 90
}

func gridToOSGB36(e, n float64) (phi, lam float64) {
	a, b := airyA, airyB
	e2 := 1 - (b*b)/(a*a)
	nn := (a - b) / (a + b)
	n2, n3 := nn*nn, nn*nn*nn

	phi = ngLat0
	m := 0.0
	for {
		phi = (n-ngN0-m)/(a*ngF0) + phi
		ma := (1 + nn + 1.25*n2 + 1.25*n3) * (phi - ngLat0)
		mb := (3*nn + 3*n2 + 21.0/8*n3) * math.Sin(phi-ngLat0) * math.Cos(phi+ngLat0)
		mc := (15.0/8*n2 + 15.0/8*n3) * math.Sin(2*(phi-ngLat0)) * math.Cos(2*(phi+ngLat0))
		md := 35.0 / 24 * n3 * math.Sin(3*(phi-ngLat0)) * math.Cos(3*(phi+ngLat0))
		m = b * ngF0 * (ma - mb + mc - md)
		if math.Abs(n-ngN0-m) < mmLimit {
			break
		}
	}

	sin, cos, tan := math.Sin(phi), math.Cos(phi), math.Tan(phi)
	nu := a * ngF0 / math.Sqrt(1-e2*sin*sin)
	rho := a * ngF0 * (1 - e2) / math.Pow(1-e2*sin*sin, 1.5)
	eta2 := nu/rho - 1
	t2, t4, t6 := tan*tan, math.Pow(tan, 4), math.Pow(tan, 6)

	vii := tan / (2 * rho * nu)
	viii := tan / (24 * rho * math.Pow(nu, 3)) * (5 + 3*t2 + eta2 - 9*t2*eta2)
	ix := tan / (720 * rho * math.Pow(nu, 5)) * (61 + 90*t2 + 45*t4)
	x := 1 / (cos * nu)
	xi := 1 / (cos * 6 * math.Pow(nu, 3)) * (nu/rho + 2*t2)
	xii := 1 / (cos * 120 * math.Pow(nu, 5)) * (5 + 28*t2 + 24*t4)
	xiia := 1 / (cos * 5040 * math.Pow(nu, 7)) * (61 + 662*t2 + 1320*t4 + 720*t6)

	de := e - ngE0
	lat := phi - vii*math.Pow(de, 2) + viii*math.Pow(de, 4) - ix*math.Pow(de, 6)
	lon := ngLon0 + x*de - xi*math.Pow(de, 3) + xii*math.Pow(de, 5) - xiia*math.Pow(de, 7)
	return lat, lon
}

func toCartesian(phi, lam, a, b float64) (x, y, z float64) {
	e2 := 1 - (b*b)/(a*a)
	sin := math.Sin(phi)
	nu := a / math.Sqrt(1-e2*sin*sin)
	x = nu * math.Cos(phi) * math.Cos(lam)
	y = nu * math.Cos(phi) * math.Sin(lam)
	z = (1 - e2) * nu * sin
	return x, y, z
}

func applyHelmert(x, y, z float64) (float64, float64, float64) {
	h := helmert
	return h.tx + (1+h.s)*x - h.rz*y + h.ry*z,
		h.ty + h.rz*x + (1+h.s)*y - h.rx*z,
		h.tz - h.ry*x + h.rx*y + (1+h.s)*z
}

func fromCartesian(x, y, z, a, b float64) (phi, lam float64) {
	e2 := 1 - (b*b)/(a*a)
	p := math.Hypot(x, y)
	phi = math.Atan2(z, p*(1-e2))
	for i := 0; i < 20; i++ {
		sin := math.Sin(phi)
		nu := a / math.Sqrt(1-e2*sin*sin)
		next := math.Atan2(z+e2*nu*sin, p)
		if math.Abs(next-phi) < 1e-12 {
			phi = next
			break
		}
		phi = next
	}
	return phi, math.Atan2(y, x)
}
