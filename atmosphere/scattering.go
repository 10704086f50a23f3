// Package atmosphere renders light transport through a planet's atmosphere
// with a closed-form approximation of columnar air density, avoiding nested
// integration along light rays. It is self-contained: pure functions over ray
// geometry, no shared state with the surface simulation.
package atmosphere

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Opaque is the columnar density ratio reported for rays that strike the
// surface of the world; light along them is fully extinguished.
const Opaque = 1e20

// viewStepCount is the number of samples taken while marching along the view
// ray. Light rays from each sample use the closed form, so total cost stays
// linear in this count.
const viewStepCount = 16

// scaleHeightsToSpace is how many scale heights of atmosphere are treated as
// its outer edge; 12 reaches beyond the official edge of space for Earth-like
// parameters.
const scaleHeightsToSpace = 12.0

// relationBetweenRayAndPoint returns the squared distance z2 from the ray to
// the point at closest approach and the distance xz along the ray at which
// that approach occurs.
func relationBetweenRayAndPoint(point, origin, direction mgl64.Vec3) (z2, xz float64) {
	toPoint := point.Sub(origin)
	xz = toPoint.Dot(direction)
	z2 = toPoint.Dot(toPoint) - xz*xz
	return z2, xz
}

// relationBetweenRayAndSphere returns the distances along the ray at which it
// enters and exits a sphere of the given radius, given the ray/center closest
// approach. ok is false when the ray misses; enter and exit are still
// meaningful then — they collapse toward the closest approach, which the
// column density algebra relies on to place x_world at the ray's low point.
func relationBetweenRayAndSphere(radius, z2, xz float64) (enter, exit float64, ok bool) {
	half := math.Sqrt(math.Max(radius*radius-z2, 1e-20))
	return xz - half, xz + half, z2 < radius*radius
}

// heightAlongRay is the height above the surface at distance x from closest
// approach, for a ray whose closest approach to the planet center is sqrt(z2).
func heightAlongRay(x, z2, radius float64) float64 {
	return math.Sqrt(math.Max(x*x+z2, 0)) - radius
}

// heightChangeRateAlongRay is the rate at which that height changes per unit
// of distance traveled.
func heightChangeRateAlongRay(x, z2 float64) float64 {
	return x / math.Sqrt(math.Max(x*x+z2, 0))
}

// densityRatioAtHeight is air density at height h as a fraction of the surface
// value, for an exponential atmosphere with scale height scaleHeight.
func densityRatioAtHeight(h, scaleHeight float64) float64 {
	return math.Exp(-h / scaleHeight)
}

// columnDensityRatioFromSamples approximates the integral of density ratio
// along the ray. The exact integral has no usable closed form, so height is
// linearized from two samples: slope at xm, intercept at xb. All distances are
// relative to closest approach.
func columnDensityRatioFromSamples(x, xm, xb, z2, radius, scaleHeight float64) float64 {
	m := heightChangeRateAlongRay(xm, z2)
	b := heightAlongRay(xb, z2, radius)
	h := m*(x-xb) + b
	return -scaleHeight / m * math.Exp(-h/scaleHeight)
}

// columnDensityRatioForSegment picks sensible sample points for a segment of
// the ray starting at xmin with width dx and evaluates the linearized column
// density there, clamping x into the segment.
func columnDensityRatioForSegment(x, xmin, dx, z2, radius, scaleHeight float64) float64 {
	const (
		fm = 0.5
		fb = 0.2
	)
	xm := xmin + fm*dx
	xb := xmin + fb*dx
	xmax := xmin + dx
	return columnDensityRatioFromSamples(mgl64.Clamp(x, xmin, xmax), xm, xb, z2, radius, scaleHeight)
}

// columnDensityRatioForAbsX approximates the columnar density ratio from the
// surface of the world out to |x|, splitting the atmosphere into two segments
// with separate height linearizations so the result holds for any x. xWorld
// and xAtmo are the distances from closest approach to the surface and to the
// top of the atmosphere; sigma0 is the value this equation yields at the
// surface, used to express results relative to it.
func columnDensityRatioForAbsX(x, xWorld, xAtmo, sigma0, z2, radius, scaleHeight float64) float64 {
	xWorld = math.Abs(xWorld)
	xAtmo = math.Abs(xAtmo)
	x = math.Max(math.Abs(x)-xWorld, 0) + xWorld
	dx := (xAtmo - xWorld) / 3

	return columnDensityRatioForSegment(x, xWorld, dx, z2, radius, scaleHeight) +
		columnDensityRatioForSegment(x, xWorld+dx, dx, z2, radius, scaleHeight) -
		sigma0
}

// referenceColumnDensityRatio returns the surface reference value sigma0.
func referenceColumnDensityRatio(xWorld, xAtmo, z2, radius, scaleHeight float64) float64 {
	return columnDensityRatioForAbsX(xWorld, xWorld, xAtmo, 0, z2, radius, scaleHeight)
}

// columnDensityRatio2D evaluates the column between two signed distances along
// the ray, clamped to avoid generating infinities at grazing angles.
func columnDensityRatio2D(xStart, xStop, xWorld, xAtmo, sigma0, z2, radius, scaleHeight float64) float64 {
	return sign(xStop)*math.Min(columnDensityRatioForAbsX(xStop, xWorld, xAtmo, sigma0, z2, radius, scaleHeight), Opaque) -
		sign(xStart)*math.Min(columnDensityRatioForAbsX(xStart, xWorld, xAtmo, sigma0, z2, radius, scaleHeight), Opaque)
}

// ColumnDensityRatioAlongSegment returns the columnar air density ratio
// encountered along a 3D ray segment through the atmosphere of a world,
// relative to surface air density. Rays that strike the surface return Opaque.
func ColumnDensityRatioAlongSegment(origin, direction mgl64.Vec3, length float64, worldPosition mgl64.Vec3, worldRadius, scaleHeight float64) float64 {
	atmosphereRadius := worldRadius + scaleHeightsToSpace*scaleHeight

	z2, xz := relationBetweenRayAndPoint(worldPosition, origin, direction)
	_, exitWorld, _ := relationBetweenRayAndSphere(worldRadius, z2, xz)

	obstructed := 0 < exitWorld && exitWorld < length && z2 < worldRadius*worldRadius
	if obstructed {
		return Opaque
	}

	_, exitAtmo, _ := relationBetweenRayAndSphere(atmosphereRadius, z2, xz)

	sigma0 := referenceColumnDensityRatio(exitWorld-xz, exitAtmo-xz, z2, worldRadius, scaleHeight)
	return columnDensityRatio2D(0-xz, length-xz, exitWorld-xz, exitAtmo-xz, sigma0, z2, worldRadius, scaleHeight)
}

// RayleighPhaseFactor is the fraction of light scattered toward an angle whose
// cosine is mu by molecular (Rayleigh) scattering.
func RayleighPhaseFactor(mu float64) float64 {
	return 3 / (16 * math.Pi) * (1 + mu*mu)
}

// HenyeyGreensteinPhaseFactor approximates Mie (aerosol) scattering toward an
// angle whose cosine is mu, with the usual forward-scattering asymmetry.
func HenyeyGreensteinPhaseFactor(mu float64) float64 {
	const g = 0.76
	return (1 - g*g) / (4 * math.Pi * math.Pow(1+g*g-2*g*mu, 1.5))
}

// Params bundles the per-world inputs of LightIntensity.
type Params struct {
	WorldPosition mgl64.Vec3
	WorldRadius   float64
	ScaleHeight   float64

	LightDirection mgl64.Vec3
	LightIntensity mgl64.Vec3 // rgb
	Background     mgl64.Vec3 // rgb intensity behind the atmosphere

	BetaRayleigh   mgl64.Vec3 // per-channel molecular scattering coefficients
	BetaMie        mgl64.Vec3 // per-channel aerosol scattering coefficients
	BetaAbsorption mgl64.Vec3 // per-channel absorption coefficients
}

// LightIntensity marches a view ray through the atmosphere and returns the
// rgb intensity arriving at the viewer: sunlight scattered toward the viewer
// at each sample, attenuated along both the light path and the view path, plus
// whatever background intensity survives the traverse.
func LightIntensity(viewOrigin, viewDirection mgl64.Vec3, p Params) mgl64.Vec3 {
	atmosphereRadius := p.WorldRadius + scaleHeightsToSpace*p.ScaleHeight

	cosScatterAngle := viewDirection.Dot(p.LightDirection)
	gammaRay := RayleighPhaseFactor(cosScatterAngle)
	gammaMie := HenyeyGreensteinPhaseFactor(cosScatterAngle)

	z2, xz := relationBetweenRayAndPoint(p.WorldPosition, viewOrigin, viewDirection)
	enterAtmo, exitAtmo, scattered := relationBetweenRayAndSphere(atmosphereRadius, z2, xz)
	enterWorld, _, obstructed := relationBetweenRayAndSphere(p.WorldRadius, z2, xz)

	if !scattered {
		return p.Background
	}

	xStart := math.Max(enterAtmo, 0)
	xStop := exitAtmo
	if obstructed {
		xStop = enterWorld
	}
	dx := (xStop - xStart) / viewStepCount
	x := xStart + 0.5*dx

	betaSum := p.BetaRayleigh.Add(p.BetaMie).Add(p.BetaAbsorption)
	incomingBeta := p.BetaRayleigh.Mul(gammaRay).Add(p.BetaMie.Mul(gammaMie))

	total := mgl64.Vec3{}
	viewSigma := 0.0
	for step := 0; step < viewStepCount; step++ {
		lightOrigin := viewOrigin.Add(viewDirection.Mul(x))
		h := heightAlongRay(x-xz, z2, p.WorldRadius)

		viewSigma = ColumnDensityRatioAlongSegment(viewOrigin, viewDirection, x, p.WorldPosition, p.WorldRadius, p.ScaleHeight)
		lightSigma := ColumnDensityRatioAlongSegment(lightOrigin, p.LightDirection, 3*p.WorldRadius, p.WorldPosition, p.WorldRadius, p.ScaleHeight)

		// Outgoing fraction scatters away from the viewer over both paths;
		// incoming fraction scatters toward the viewer at this sample.
		outgoing := expNeg(betaSum.Mul(viewSigma + lightSigma))
		incoming := incomingBeta.Mul(dx * densityRatioAtHeight(h, p.ScaleHeight))
		total = total.Add(hadamard(p.LightIntensity, hadamard(outgoing, incoming)))

		x += dx
	}

	// Background light that traveled straight in, minus what got diverted.
	total = total.Add(hadamard(p.Background, expNeg(betaSum.Mul(viewSigma))))
	return total
}

func sign(v float64) float64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}

func hadamard(a, b mgl64.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{a[0] * b[0], a[1] * b[1], a[2] * b[2]}
}

func expNeg(v mgl64.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{math.Exp(-v[0]), math.Exp(-v[1]), math.Exp(-v[2])}
}
