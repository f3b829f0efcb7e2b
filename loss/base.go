package loss

import (
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// BaseLoss selects the standard loss term of a Regularized loss.
type BaseLoss int

const (
	BaseCrossEntropy BaseLoss = iota
	BaseFocal
	BaseLabelSmoothing
	BaseGaussianLabelSmoothing
)

var baseLossNames = map[BaseLoss]string{
	BaseCrossEntropy:           "ce",
	BaseFocal:                  "focal_loss",
	BaseLabelSmoothing:         "ls",
	BaseGaussianLabelSmoothing: "gls",
}

var baseLossAliases = map[string]BaseLoss{
	"focal":         BaseFocal,
	"cross_entropy": BaseCrossEntropy,
}

func (b BaseLoss) String() string {
	if name, ok := baseLossNames[b]; ok {
		return name
	}
	return "unknown"
}

// BaseLossNames lists the canonical selector strings.
func BaseLossNames() []string {
	names := make([]string, 0, len(baseLossNames))
	for _, name := range baseLossNames {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ParseBaseLoss resolves a selector such as "ce", "focal_loss", "ls" or "gls".
func ParseBaseLoss(s string) (BaseLoss, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	for b, name := range baseLossNames {
		if name == key {
			return b, nil
		}
	}
	if b, ok := baseLossAliases[key]; ok {
		return b, nil
	}
	return 0, errors.Wrapf(ErrUnknownBaseLoss, "%q, known base losses are \"%s\"", s, strings.Join(BaseLossNames(), "\", \""))
}

func (b BaseLoss) valid() bool {
	_, ok := baseLossNames[b]
	return ok
}

// UnmarshalText lets BaseLoss be filled from configuration strings.
func (b *BaseLoss) UnmarshalText(text []byte) error {
	v, err := ParseBaseLoss(string(text))
	if err != nil {
		return err
	}
	*b = v
	return nil
}

func (b BaseLoss) MarshalText() ([]byte, error) {
	if !b.valid() {
		return nil, errors.Wrapf(ErrUnknownBaseLoss, "%d", int(b))
	}
	return []byte(b.String()), nil
}
