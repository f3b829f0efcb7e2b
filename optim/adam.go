package optim

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

type Adam struct {
	params []*Param
	lr     float64
	beta1  float64
	beta2  float64
	eps    float64
	m      map[*Param]*mat.Dense
	v      map[*Param]*mat.Dense
	step   int
}

func NewAdam(params []*Param, lr, beta1, beta2, eps float64) *Adam {
	return &Adam{
		params: params,
		lr:     lr,
		beta1:  beta1,
		beta2:  beta2,
		eps:    eps,
		m:      map[*Param]*mat.Dense{},
		v:      map[*Param]*mat.Dense{},
	}
}

func (o *Adam) Step() error {
	for _, p := range o.params {
		if p == nil {
			continue
		}
		if err := p.check(); err != nil {
			return err
		}
	}
	o.step++
	biasCorr1 := 1 - math.Pow(o.beta1, float64(o.step))
	biasCorr2 := 1 - math.Pow(o.beta2, float64(o.step))
	if biasCorr1 == 0 {
		biasCorr1 = math.SmallestNonzeroFloat64
	}
	if biasCorr2 == 0 {
		biasCorr2 = math.SmallestNonzeroFloat64
	}
	for _, p := range o.params {
		if p == nil {
			continue
		}
		r, c := p.Grad.Dims()
		m := o.m[p]
		if m == nil {
			m = mat.NewDense(r, c, nil)
			o.m[p] = m
		}
		v := o.v[p]
		if v == nil {
			v = mat.NewDense(r, c, nil)
			o.v[p] = v
		}
		g := p.Grad.RawMatrix()
		mm := m.RawMatrix()
		vm := v.RawMatrix()
		val := p.Value.RawMatrix()
		for i := 0; i < r; i++ {
			for j := 0; j < c; j++ {
				gi := g.Data[i*g.Stride+j]
				mi := o.beta1*mm.Data[i*mm.Stride+j] + (1-o.beta1)*gi
				vi := o.beta2*vm.Data[i*vm.Stride+j] + (1-o.beta2)*gi*gi
				mm.Data[i*mm.Stride+j] = mi
				vm.Data[i*vm.Stride+j] = vi
				mHat := mi / biasCorr1
				vHat := vi / biasCorr2
				val.Data[i*val.Stride+j] -= o.lr * mHat / (math.Sqrt(vHat) + o.eps)
			}
		}
	}
	return nil
}

func (o *Adam) ZeroGrad() {
	zeroGrad(o.params)
}
