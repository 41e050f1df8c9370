package nn

import (
	"fmt"
	"math"
	"strings"
)

// Activation selects the nonlinearity applied by a hidden layer. The values
// are part of the model file format.
type Activation uint32

const (
	Linear Activation = iota
	ReLU
	Sigmoid
	Tanh
)

func (a Activation) String() string {
	switch a {
	case Linear:
		return "linear"
	case ReLU:
		return "relu"
	case Sigmoid:
		return "sigmoid"
	case Tanh:
		return "tanh"
	default:
		return fmt.Sprintf("Activation(%d)", uint32(a))
	}
}

func (a Activation) valid() bool {
	return a <= Tanh
}

// ParseActivation maps a name such as "relu" to its Activation.
func ParseActivation(s string) (Activation, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "linear", "identity":
		return Linear, nil
	case "relu":
		return ReLU, nil
	case "sigmoid":
		return Sigmoid, nil
	case "tanh":
		return Tanh, nil
	}
	return 0, fmt.Errorf("unknown activation %q", s)
}

func (a Activation) apply(x float32) float32 {
	switch a {
	case ReLU:
		if x > 0 {
			return x
		}
		return 0
	case Sigmoid:
		return sigmoid(x)
	case Tanh:
		return float32(math.Tanh(float64(x)))
	default:
		return x
	}
}

// derivative returns the slope at pre-activation z with output y.
// Sigmoid and tanh are expressed through their output.
func (a Activation) derivative(z, y float32) float32 {
	switch a {
	case ReLU:
		if z > 0 {
			return 1
		}
		return 0
	case Sigmoid:
		return y * (1 - y)
	case Tanh:
		return 1 - y*y
	default:
		return 1
	}
}

func sigmoid(x float32) float32 {
	if math.IsNaN(float64(x)) {
		return 0.5
	}
	return float32(1 / (1 + math.Exp(-float64(x))))
}

// saturate narrows a pre-activation to the finite float32 range. NaN maps
// to 0.
func saturate(x float64) float32 {
	switch {
	case math.IsNaN(x):
		return 0
	case x > math.MaxFloat32:
		return math.MaxFloat32
	case x < -math.MaxFloat32:
		return -math.MaxFloat32
	}
	return float32(x)
}
