package main

import (
	"io"

	"github.com/bytedance/sonic"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/fumitoshi0524/costloss/internal/config"
	"github.com/fumitoshi0524/costloss/loss"
)

type request struct {
	Logits           [][]float64 `json:"logits"`
	Labels           []int       `json:"labels"`
	Penalty          [][]float64 `json:"penalty,omitempty"`
	NormalizePenalty bool        `json:"normalize_penalty,omitempty"`
}

type report struct {
	BaseLoss      string      `json:"base_loss"`
	Lambda        float64     `json:"lambda"`
	Classes       int         `json:"classes"`
	Batch         int         `json:"batch"`
	Loss          float64     `json:"loss"`
	Base          float64     `json:"base"`
	CostSensitive float64     `json:"cost_sensitive"`
	PerExample    []float64   `json:"per_example"`
	Gradient      [][]float64 `json:"gradient,omitempty"`
}

func decodeRequest(r io.Reader) (*request, error) {
	body, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "read request")
	}
	req := &request{}
	if err := sonic.Unmarshal(body, req); err != nil {
		return nil, errors.Wrap(err, "decode request")
	}
	return req, nil
}

func toDense(rows [][]float64) (*mat.Dense, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, loss.ErrShape
	}
	cols := len(rows[0])
	out := mat.NewDense(len(rows), cols, nil)
	for i, r := range rows {
		if len(r) != cols {
			return nil, errors.Wrapf(loss.ErrShape, "logits row %d has %d entries, want %d", i, len(r), cols)
		}
		out.SetRow(i, r)
	}
	return out, nil
}

// evaluate runs the configured loss on req. The class count follows the
// logits width unless a penalty matrix is supplied.
func evaluate(cfg *config.Config, req *request, withGradient bool) (*report, error) {
	logits, err := toDense(req.Logits)
	if err != nil {
		return nil, err
	}
	rc, err := cfg.RegularizedConfig()
	if err != nil {
		return nil, err
	}
	_, rc.Classes = logits.Dims()
	if len(req.Penalty) > 0 {
		p, err := loss.NewPenaltyMatrix(req.Penalty)
		if err != nil {
			return nil, err
		}
		if req.NormalizePenalty {
			p = p.Normalized()
		}
		rc.Penalty = p
	}
	l, err := loss.NewRegularizedWithConfig(rc)
	if err != nil {
		return nil, err
	}
	base, cost, err := l.Terms(logits, req.Labels)
	if err != nil {
		return nil, err
	}
	per, err := l.PerExample(logits, req.Labels)
	if err != nil {
		return nil, err
	}
	rows, _ := logits.Dims()
	out := &report{
		BaseLoss:      l.Base().String(),
		Lambda:        l.Lambda(),
		Classes:       rc.Classes,
		Batch:         rows,
		Loss:          base + l.Lambda()*cost,
		Base:          base,
		CostSensitive: cost,
		PerExample:    per,
	}
	if withGradient {
		grad, err := l.Backward(logits, req.Labels)
		if err != nil {
			return nil, err
		}
		out.Gradient = make([][]float64, rows)
		for i := range out.Gradient {
			out.Gradient[i] = mat.Row(nil, i, grad)
		}
	}
	return out, nil
}

func encodeReport(w io.Writer, r *report) error {
	body, err := sonic.Marshal(r)
	if err != nil {
		return errors.Wrap(err, "encode report")
	}
	_, err = w.Write(append(body, '\n'))
	return err
}
