package optim

import "gonum.org/v1/gonum/mat"

type SGD struct {
	params        []*Param
	lr            float64
	momentum      float64
	weightDecay   float64
	nesterov      bool
	velocity      map[*Param]*mat.Dense
	maxGradNorm   float64
	gradNormType  float64
	gradValueClip float64
}

type SGDConfig struct {
	LR            float64
	Momentum      float64
	WeightDecay   float64
	Nesterov      bool
	MaxGradNorm   float64
	GradNormType  float64
	GradValueClip float64
}

func NewSGD(params []*Param, lr float64, momentum float64) *SGD {
	return NewSGDWithConfig(params, SGDConfig{LR: lr, Momentum: momentum})
}

func NewSGDWithConfig(params []*Param, cfg SGDConfig) *SGD {
	return &SGD{
		params:        params,
		lr:            cfg.LR,
		momentum:      cfg.Momentum,
		weightDecay:   cfg.WeightDecay,
		nesterov:      cfg.Nesterov,
		velocity:      make(map[*Param]*mat.Dense),
		maxGradNorm:   cfg.MaxGradNorm,
		gradNormType:  cfg.GradNormType,
		gradValueClip: cfg.GradValueClip,
	}
}

func (o *SGD) Step() error {
	for _, p := range o.params {
		if p == nil {
			continue
		}
		if err := p.check(); err != nil {
			return err
		}
	}
	if o.maxGradNorm > 0 {
		ClipGradNorm(o.params, o.maxGradNorm, o.gradNormType)
	}
	if o.gradValueClip > 0 {
		ClipGradValue(o.params, o.gradValueClip)
	}
	for _, p := range o.params {
		if p == nil {
			continue
		}
		update := mat.DenseCopyOf(p.Grad)
		if o.weightDecay > 0 {
			update.Add(update, scaled(p.Value, o.weightDecay))
		}
		if o.momentum > 0 {
			v := o.velocity[p]
			if v == nil {
				r, c := update.Dims()
				v = mat.NewDense(r, c, nil)
				o.velocity[p] = v
			}
			v.Scale(o.momentum, v)
			v.Add(v, update)
			if o.nesterov {
				update.Add(update, scaled(v, o.momentum))
			} else {
				update.Copy(v)
			}
		}
		p.Value.Sub(p.Value, scaled(update, o.lr))
	}
	return nil
}

func (o *SGD) SetLR(lr float64) {
	o.lr = lr
}

func (o *SGD) LR() float64 {
	return o.lr
}

func (o *SGD) ZeroGrad() {
	zeroGrad(o.params)
}

func scaled(m *mat.Dense, f float64) *mat.Dense {
	var out mat.Dense
	out.Scale(f, m)
	return &out
}
