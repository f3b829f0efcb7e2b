package optim

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// ErrShapeMismatch is returned when a parameter and its gradient differ in shape.
var ErrShapeMismatch = errors.New("optim: parameter and gradient shapes differ")

// Param is a trainable matrix and the gradient accumulated for it.
type Param struct {
	Name  string
	Value *mat.Dense
	Grad  *mat.Dense
}

// NewParam wraps value with a zeroed gradient of the same shape.
func NewParam(name string, value *mat.Dense) *Param {
	r, c := value.Dims()
	return &Param{Name: name, Value: value, Grad: mat.NewDense(r, c, nil)}
}

func (p *Param) check() error {
	if p.Value == nil || p.Grad == nil {
		return errors.Wrapf(ErrShapeMismatch, "param %q has nil value or grad", p.Name)
	}
	vr, vc := p.Value.Dims()
	gr, gc := p.Grad.Dims()
	if vr != gr || vc != gc {
		return errors.Wrapf(ErrShapeMismatch, "param %q is %dx%d, grad is %dx%d", p.Name, vr, vc, gr, gc)
	}
	return nil
}

func zeroGrad(params []*Param) {
	for _, p := range params {
		if p != nil && p.Grad != nil {
			p.Grad.Zero()
		}
	}
}
