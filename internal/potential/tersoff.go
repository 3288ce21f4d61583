package potential

import (
	"fmt"
	"math"
	"sync/atomic"

	"github.com/san-kum/bondmd/internal/box"
	"github.com/san-kum/bondmd/internal/md"
	"github.com/san-kum/bondmd/internal/neighbor"
)

// zetaEps is the threshold below which the angular sum counts as zero and
// the bond order saturates to 1 with zero derivative. Without it the
// derivative is 0/0 for an isolated bond.
const zetaEps = 1e-16

// minChunk is the smallest per-goroutine atom range worth spawning for.
const minChunk = 64

// TersoffParams are the single-element constants of the 1989 bond-order
// form. They are immutable once handed to a model.
type TersoffParams struct {
	A      float64 `yaml:"a"`      // repulsive amplitude, eV
	B      float64 `yaml:"b"`      // attractive amplitude, eV
	Lambda float64 `yaml:"lambda"` // repulsive decay, 1/Angstrom
	Mu     float64 `yaml:"mu"`     // attractive decay, 1/Angstrom
	Beta   float64 `yaml:"beta"`   // bond-order scale
	N      float64 `yaml:"n"`      // bond-order exponent
	C      float64 `yaml:"c"`      // angular strength
	D      float64 `yaml:"d"`      // angular width
	H      float64 `yaml:"h"`      // cosine of the preferred bond angle
	R1     float64 `yaml:"r1"`     // inner cutoff, Angstrom
	R2     float64 `yaml:"r2"`     // outer cutoff, Angstrom
}

// SiliconParams returns the published silicon parameter set.
func SiliconParams() TersoffParams {
	return TersoffParams{
		A:      1830.8,
		B:      471.18,
		Lambda: 2.4799,
		Mu:     1.7322,
		Beta:   1.1e-6,
		N:      0.78734,
		C:      1.0039e5,
		D:      16.217,
		H:      -0.59825,
		R1:     2.7,
		R2:     3.0,
	}
}

// Validate rejects parameter sets for which the model is ill-defined.
func (p TersoffParams) Validate() error {
	switch {
	case p.A <= 0 || p.B <= 0:
		return fmt.Errorf("%w: amplitudes A=%g B=%g must be positive", md.ErrBadParameter, p.A, p.B)
	case p.Lambda <= 0 || p.Mu <= 0:
		return fmt.Errorf("%w: decay rates lambda=%g mu=%g must be positive", md.ErrBadParameter, p.Lambda, p.Mu)
	case p.Beta <= 0 || p.N <= 0:
		return fmt.Errorf("%w: bond order beta=%g n=%g must be positive", md.ErrBadParameter, p.Beta, p.N)
	case p.D == 0:
		return fmt.Errorf("%w: angular width d must be nonzero", md.ErrBadParameter)
	case p.R1 <= 0 || p.R2 <= p.R1:
		return fmt.Errorf("%w: cutoffs must satisfy 0 < R1 < R2, got R1=%g R2=%g", md.ErrBadParameter, p.R1, p.R2)
	}
	return nil
}

// Tersoff evaluates the bond-order three-body potential in three
// barrier-separated sweeps over atoms: bond order, partial force, assembly.
// Scratch buffers are reused in place each call and are invalid between
// calls.
type Tersoff struct {
	p    TersoffParams
	opts Options

	c2, d2  float64
	piTaper float64 // pi / (R2 - R1)

	nAtoms int
	stride int

	// per directed pair, indexed atom*stride + slot
	b, bp            []float64
	f12x, f12y, f12z []float64

	// per atom, HNEMD driving accumulation
	fdx, fdy, fdz []float64
}

// NewTersoff validates the parameters and returns a model with the given
// measurement options.
func NewTersoff(p TersoffParams, opts Options) (*Tersoff, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	t := &Tersoff{
		p:       p,
		c2:      p.C * p.C,
		d2:      p.D * p.D,
		piTaper: math.Pi / (p.R2 - p.R1),
	}
	if err := t.SetOptions(opts); err != nil {
		return nil, err
	}
	return t, nil
}

// Params returns the model constants.
func (t *Tersoff) Params() TersoffParams { return t.p }

// Cutoff returns the outer interaction radius.
func (t *Tersoff) Cutoff() float64 { return t.p.R2 }

// Options returns the active measurement configuration.
func (t *Tersoff) Options() Options { return t.opts }

// SetOptions switches the measurement mode between calls.
func (t *Tersoff) SetOptions(opts Options) error {
	if opts.Mode == FluxSampling && opts.Sampler == nil {
		return fmt.Errorf("potential: flux sampling mode requires a sampler")
	}
	t.opts = opts
	return nil
}

func (t *Tersoff) ensureScratch(n, mn int) {
	if t.nAtoms == n && t.stride == mn {
		return
	}
	t.nAtoms, t.stride = n, mn
	t.b = make([]float64, n*mn)
	t.bp = make([]float64, n*mn)
	t.f12x = make([]float64, n*mn)
	t.f12y = make([]float64, n*mn)
	t.f12z = make([]float64, n*mn)
	t.fdx = make([]float64, n)
	t.fdy = make([]float64, n)
	t.fdz = make([]float64, n)
}

// Compute runs the three passes and fills out. The neighbor list is
// read-only here; a list that no longer reflects the positions is a
// precondition violation owned by the driver.
func (t *Tersoff) Compute(bx *box.Box, nl *neighbor.List, atoms *md.Atoms, out *Output) error {
	n := atoms.N
	if nl.N() != n || out.N != n {
		return fmt.Errorf("%w: %d atoms, list for %d, output for %d", md.ErrSizeMismatch, n, nl.N(), out.N)
	}
	t.ensureScratch(n, nl.MN)
	out.Reset()

	t.bondOrderPass(bx, nl, atoms)
	t.partialForcePass(bx, nl, atoms, out)
	return t.assemble(bx, nl, atoms, out)
}

// cutoffFn is the smooth taper: 1 inside R1, a half-cosine between R1 and
// R2, 0 beyond. Both fc and its derivative are continuous at R1 and R2.
func (t *Tersoff) cutoffFn(r float64) (fc, fcp float64) {
	switch {
	case r < t.p.R1:
		return 1, 0
	case r < t.p.R2:
		arg := t.piTaper * (r - t.p.R1)
		return 0.5 * (1 + math.Cos(arg)), -0.5 * t.piTaper * math.Sin(arg)
	}
	return 0, 0
}

func (t *Tersoff) repulsive(r float64) (fr, frp float64) {
	fr = t.p.A * math.Exp(-t.p.Lambda*r)
	return fr, -t.p.Lambda * fr
}

func (t *Tersoff) attractive(r float64) (fa, fap float64) {
	fa = t.p.B * math.Exp(-t.p.Mu*r)
	return fa, -t.p.Mu * fa
}

// angular is g(cos) and its derivative with respect to the cosine. g has
// its minimum value 1 at the preferred angle cos = h.
func (t *Tersoff) angular(cos float64) (g, gp float64) {
	u := t.p.H - cos
	den := t.d2 + u*u
	g = 1 + t.c2/t.d2 - t.c2/den
	gp = -2 * t.c2 * u / (den * den)
	return g, gp
}

// bondOrder maps the angular sum to b and its derivative with respect to
// zeta. A zero sum saturates to b=1, bp=0 (isolated bond).
func (t *Tersoff) bondOrder(zeta float64) (b, bp float64) {
	if zeta < zetaEps {
		return 1, 0
	}
	u := math.Pow(t.p.Beta*zeta, t.p.N)
	b = math.Pow(1+u, -0.5/t.p.N)
	bp = -0.5 * u * math.Pow(1+u, -0.5/t.p.N-1) / zeta
	return b, bp
}

// bondOrderPass fills b and bp for every directed pair. It reads only
// positions, so atoms can run in any order; each atom writes only its own
// pair rows. O(N * MN^2), the dominant cost.
func (t *Tersoff) bondOrderPass(bx *box.Box, nl *neighbor.List, atoms *md.Atoms) {
	mn := nl.MN
	md.ParallelFor(atoms.N, minChunk, func(start, end int) {
		dx := make([]float64, mn)
		dy := make([]float64, mn)
		dz := make([]float64, mn)
		dd := make([]float64, mn)
		for i := start; i < end; i++ {
			nn := gatherPairs(bx, nl, atoms, i, dx, dy, dz, dd)
			base := i * t.stride
			for jj := 0; jj < nn; jj++ {
				zeta := 0.0
				for kk := 0; kk < nn; kk++ {
					if kk == jj {
						continue
					}
					cos := (dx[jj]*dx[kk] + dy[jj]*dy[kk] + dz[jj]*dz[kk]) / (dd[jj] * dd[kk])
					fck, _ := t.cutoffFn(dd[kk])
					g, _ := t.angular(cos)
					zeta += fck * g
				}
				t.b[base+jj], t.bp[base+jj] = t.bondOrder(zeta)
			}
		}
	})
}

// partialForcePass computes the per-pair partial force f12 (atom i's view
// of the i-j bond) and, when energy is requested, the two-body energy
// share. It reads the bond-order field every atom wrote in the previous
// pass, which is why the passes are barrier-separated.
func (t *Tersoff) partialForcePass(bx *box.Box, nl *neighbor.List, atoms *md.Atoms, out *Output) {
	mn := nl.MN
	wantEnergy := t.opts.ComputeEnergy
	md.ParallelFor(atoms.N, minChunk, func(start, end int) {
		dx := make([]float64, mn)
		dy := make([]float64, mn)
		dz := make([]float64, mn)
		dd := make([]float64, mn)
		for i := start; i < end; i++ {
			nn := gatherPairs(bx, nl, atoms, i, dx, dy, dz, dd)
			base := i * t.stride
			pe := 0.0
			for jj := 0; jj < nn; jj++ {
				d12 := dd[jj]
				x12, y12, z12 := dx[jj], dy[jj], dz[jj]
				fc12, fcp12 := t.cutoffFn(d12)
				fr12, frp12 := t.repulsive(d12)
				fa12, fap12 := t.attractive(d12)
				b12 := t.b[base+jj]
				bp12 := t.bp[base+jj]

				// two-body part, along the bond direction
				f2 := 0.5 * (fcp12*(fr12-b12*fa12) + fc12*(frp12-b12*fap12)) / d12
				fx := f2 * x12
				fy := f2 * y12
				fz := f2 * z12

				if wantEnergy {
					pe += 0.5 * fc12 * (fr12 - b12*fa12)
				}

				// three-body correction: the bond order of (i,j) and of
				// every (i,k) depends on this bond's length and direction.
				// The sign convention must match the f12 - f21 assembly or
				// the third law will not close.
				for kk := 0; kk < nn; kk++ {
					if kk == jj {
						continue
					}
					d13 := dd[kk]
					fc13, _ := t.cutoffFn(d13)
					fa13, _ := t.attractive(d13)
					bp13 := t.bp[base+kk]

					cos := (x12*dx[kk] + y12*dy[kk] + z12*dz[kk]) / (d12 * d13)
					g, gp := t.angular(cos)

					// gradient of the cosine with respect to this bond
					cdx := dx[kk]/(d12*d13) - cos*x12/(d12*d12)
					cdy := dy[kk]/(d12*d13) - cos*y12/(d12*d12)
					cdz := dz[kk]/(d12*d13) - cos*z12/(d12*d12)

					ang := -0.5 * gp * (bp12*fc12*fa12*fc13 + bp13*fc13*fa13*fc12)
					rad := -0.5 * bp13 * fc13 * fa13 * fcp12 * g / d12

					fx += ang*cdx + rad*x12
					fy += ang*cdy + rad*y12
					fz += ang*cdz + rad*z12
				}

				t.f12x[base+jj] = fx
				t.f12y[base+jj] = fy
				t.f12z[base+jj] = fz
			}
			if wantEnergy {
				out.PE[i] = pe
			}
		}
	})
}

// assemble symmetrizes partial forces and accumulates the active
// measurement. The mode switch happens once here; each mode gets its own
// sweep body so the per-atom inner loop carries no mode checks.
func (t *Tersoff) assemble(bx *box.Box, nl *neighbor.List, atoms *md.Atoms, out *Output) error {
	var badAtom atomic.Int64
	badAtom.Store(-1)

	perAtom := t.assemblyFn(bx, nl, atoms, out, &badAtom)
	md.ParallelFor(atoms.N, minChunk, func(start, end int) {
		for i := start; i < end; i++ {
			perAtom(i)
		}
	})
	if i := badAtom.Load(); i >= 0 {
		return fmt.Errorf("%w: atom %d not found in a neighbor's list", md.ErrNeighborAsymmetry, i)
	}

	if t.opts.Mode == HNEMD {
		t.applyDrivingCorrection(out)
	}
	return nil
}

// pairForces looks up the reciprocal partial force for slot jj of atom i
// and returns both halves of the bond force. A missing reciprocal entry is
// a contract violation, not a recoverable condition.
func (t *Tersoff) pairForces(nl *neighbor.List, i, jj int, badAtom *atomic.Int64) (f12, f21 [3]float64, ok bool) {
	base := i * t.stride
	j := nl.Idx[i*nl.MN+jj]
	slot := nl.Find(j, i)
	if slot < 0 {
		badAtom.CompareAndSwap(-1, int64(i))
		return f12, f21, false
	}
	f12 = [3]float64{t.f12x[base+jj], t.f12y[base+jj], t.f12z[base+jj]}
	rbase := j * t.stride
	f21 = [3]float64{t.f12x[rbase+slot], t.f12y[rbase+slot], t.f12z[rbase+slot]}
	return f12, f21, true
}

// assemblyFn returns the per-atom body for the active mode.
func (t *Tersoff) assemblyFn(bx *box.Box, nl *neighbor.List, atoms *md.Atoms, out *Output, badAtom *atomic.Int64) func(i int) {
	switch t.opts.Mode {
	case Virial:
		return func(i int) {
			fx, fy, fz := 0.0, 0.0, 0.0
			vxx, vyy, vzz := 0.0, 0.0, 0.0
			for jj := 0; jj < nl.Count[i]; jj++ {
				f12, f21, ok := t.pairForces(nl, i, jj, badAtom)
				if !ok {
					return
				}
				x12, y12, z12 := pairDisplacement(bx, atoms, i, nl.Idx[i*nl.MN+jj])
				bfx := f12[0] - f21[0]
				bfy := f12[1] - f21[1]
				bfz := f12[2] - f21[2]
				fx += bfx
				fy += bfy
				fz += bfz
				vxx -= 0.5 * x12 * bfx
				vyy -= 0.5 * y12 * bfy
				vzz -= 0.5 * z12 * bfz
			}
			out.FX[i], out.FY[i], out.FZ[i] = fx, fy, fz
			out.VXX[i], out.VYY[i], out.VZZ[i] = vxx, vyy, vzz
		}

	case HeatCurrent:
		return func(i int) {
			fx, fy, fz := 0.0, 0.0, 0.0
			var h [5]float64
			vx, vy, vz := atoms.VX[i], atoms.VY[i], atoms.VZ[i]
			for jj := 0; jj < nl.Count[i]; jj++ {
				f12, f21, ok := t.pairForces(nl, i, jj, badAtom)
				if !ok {
					return
				}
				x12, y12, z12 := pairDisplacement(bx, atoms, i, nl.Idx[i*nl.MN+jj])
				fx += f12[0] - f21[0]
				fy += f12[1] - f21[1]
				fz += f12[2] - f21[2]

				// in-plane and out-of-plane split of f21 . v_i, weighted
				// by the bond displacement; the transport axis is treated
				// asymmetrically downstream, so the parts stay separate.
				sIn := f21[0]*vx + f21[1]*vy
				sOut := f21[2] * vz
				h[0] += x12 * sIn
				h[1] += x12 * sOut
				h[2] += y12 * sIn
				h[3] += y12 * sOut
				h[4] += z12 * (sIn + sOut)
			}
			out.FX[i], out.FY[i], out.FZ[i] = fx, fy, fz
			copy(out.Heat[i*5:i*5+5], h[:])
		}

	case HNEMD:
		fe := t.opts.DrivingField
		return func(i int) {
			fx, fy, fz := 0.0, 0.0, 0.0
			dxs, dys, dzs := 0.0, 0.0, 0.0
			for jj := 0; jj < nl.Count[i]; jj++ {
				f12, f21, ok := t.pairForces(nl, i, jj, badAtom)
				if !ok {
					return
				}
				x12, y12, z12 := pairDisplacement(bx, atoms, i, nl.Idx[i*nl.MN+jj])
				fx += f12[0] - f21[0]
				fy += f12[1] - f21[1]
				fz += f12[2] - f21[2]

				s := x12*fe[0] + y12*fe[1] + z12*fe[2]
				dxs += f21[0] * s
				dys += f21[1] * s
				dzs += f21[2] * s
			}
			t.fdx[i], t.fdy[i], t.fdz[i] = dxs, dys, dzs
			out.FX[i] = fx + dxs
			out.FY[i] = fy + dys
			out.FZ[i] = fz + dzs
		}

	case FluxSampling:
		sampler := t.opts.Sampler
		return func(i int) {
			fx, fy, fz := 0.0, 0.0, 0.0
			for jj := 0; jj < nl.Count[i]; jj++ {
				j := nl.Idx[i*nl.MN+jj]
				f12, f21, ok := t.pairForces(nl, i, jj, badAtom)
				if !ok {
					return
				}
				bfx := f12[0] - f21[0]
				bfy := f12[1] - f21[1]
				bfz := f12[2] - f21[2]
				fx += bfx
				fy += bfy
				fz += bfz
				if sampler.slot[i] >= 0 && sampler.partner[i] == j {
					sampler.Record(i, FluxSample{
						F:  [3]float64{bfx, bfy, bfz},
						VI: [3]float64{atoms.VX[i], atoms.VY[i], atoms.VZ[i]},
						VJ: [3]float64{atoms.VX[j], atoms.VY[j], atoms.VZ[j]},
					})
				}
			}
			out.FX[i], out.FY[i], out.FZ[i] = fx, fy, fz
		}

	default: // Standard
		return func(i int) {
			fx, fy, fz := 0.0, 0.0, 0.0
			for jj := 0; jj < nl.Count[i]; jj++ {
				f12, f21, ok := t.pairForces(nl, i, jj, badAtom)
				if !ok {
					return
				}
				fx += f12[0] - f21[0]
				fy += f12[1] - f21[1]
				fz += f12[2] - f21[2]
			}
			out.FX[i], out.FY[i], out.FZ[i] = fx, fy, fz
		}
	}
}

// applyDrivingCorrection subtracts the mean injected force from every atom
// so the field adds exactly zero net momentum. The reduction runs strictly
// after the assembly barrier and before the correction sweep.
func (t *Tersoff) applyDrivingCorrection(out *Output) {
	n := out.N
	sx, sy, sz := 0.0, 0.0, 0.0
	for i := 0; i < n; i++ {
		sx += t.fdx[i]
		sy += t.fdy[i]
		sz += t.fdz[i]
	}
	sx /= float64(n)
	sy /= float64(n)
	sz /= float64(n)
	md.ParallelFor(n, minChunk, func(start, end int) {
		for i := start; i < end; i++ {
			out.FX[i] -= sx
			out.FY[i] -= sy
			out.FZ[i] -= sz
		}
	})
}

// gatherPairs fills the per-atom displacement scratch under minimum image
// and returns the neighbor count.
func gatherPairs(bx *box.Box, nl *neighbor.List, atoms *md.Atoms, i int, dx, dy, dz, dd []float64) int {
	nn := nl.Count[i]
	base := i * nl.MN
	for jj := 0; jj < nn; jj++ {
		j := nl.Idx[base+jj]
		x := atoms.X[j] - atoms.X[i]
		y := atoms.Y[j] - atoms.Y[i]
		z := atoms.Z[j] - atoms.Z[i]
		bx.MinimumImage(&x, &y, &z)
		dx[jj], dy[jj], dz[jj] = x, y, z
		dd[jj] = math.Sqrt(x*x + y*y + z*z)
	}
	return nn
}

func pairDisplacement(bx *box.Box, atoms *md.Atoms, i, j int) (x, y, z float64) {
	x = atoms.X[j] - atoms.X[i]
	y = atoms.Y[j] - atoms.Y[i]
	z = atoms.Z[j] - atoms.Z[i]
	bx.MinimumImage(&x, &y, &z)
	return x, y, z
}
