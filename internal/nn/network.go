package nn

import (
	"fmt"
	"math"
	"math/rand/v2"
	"sync"

	"github.com/rs/zerolog"
)

// AllLayers addresses every hidden layer in SetActivation.
const AllLayers = -1

// Network is a fully connected feed-forward network. Hidden layers use a
// configurable activation; the single output neuron is always a sigmoid, so
// predictions are probabilities.
//
// Weights of layer l are stored row-major as [out][in]. Predict and Train
// share scratch buffers and are serialized by an internal mutex.
type Network struct {
	mu sync.Mutex

	sizes   []int
	acts    []Activation // one per hidden layer
	weights [][]float32
	biases  [][]float32

	// scratch, indexed by neuron layer; z[0] is unused
	z     [][]float32
	a     [][]float32
	delta [][]float32

	log zerolog.Logger
}

// NewNetwork builds a network with the given layer sizes and hidden
// activation, initialized with seeded Xavier-style uniform weights.
func NewNetwork(sizes []int, act Activation, seed uint64) (*Network, error) {
	if len(sizes) < 2 {
		return nil, fmt.Errorf("need at least 2 layers, got %d: %w", len(sizes), ErrDimensionMismatch)
	}
	for i, s := range sizes {
		if s <= 0 {
			return nil, fmt.Errorf("layer %d has size %d: %w", i, s, ErrDimensionMismatch)
		}
	}
	if sizes[len(sizes)-1] != 1 {
		return nil, fmt.Errorf("output layer has size %d, want 1: %w", sizes[len(sizes)-1], ErrDimensionMismatch)
	}
	if !act.valid() {
		return nil, fmt.Errorf("invalid activation %d", act)
	}

	acts := make([]Activation, len(sizes)-2)
	for i := range acts {
		acts[i] = act
	}
	n := newShape(sizes, acts)

	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	for l := range n.weights {
		in, out := sizes[l], sizes[l+1]
		limit := math.Sqrt(2 / float64(in+out))
		for i := range n.weights[l] {
			n.weights[l][i] = float32((rng.Float64() - 0.5) * 2 * limit)
		}
	}
	return n, nil
}

// NewChessNetwork builds a network taking the FeatureCount board encoding
// through the given hidden layers to a single output.
func NewChessNetwork(hidden []int, act Activation, seed uint64) (*Network, error) {
	sizes := make([]int, 0, len(hidden)+2)
	sizes = append(sizes, FeatureCount)
	sizes = append(sizes, hidden...)
	sizes = append(sizes, 1)
	return NewNetwork(sizes, act, seed)
}

// newShape allocates zeroed parameters and buffers for sizes.
func newShape(sizes []int, acts []Activation) *Network {
	n := &Network{
		sizes:   append([]int(nil), sizes...),
		acts:    append([]Activation(nil), acts...),
		weights: make([][]float32, len(sizes)-1),
		biases:  make([][]float32, len(sizes)-1),
		z:       make([][]float32, len(sizes)),
		a:       make([][]float32, len(sizes)),
		delta:   make([][]float32, len(sizes)),
		log:     zerolog.Nop(),
	}
	for l := 0; l < len(sizes)-1; l++ {
		n.weights[l] = make([]float32, sizes[l]*sizes[l+1])
		n.biases[l] = make([]float32, sizes[l+1])
	}
	for l, s := range sizes {
		n.z[l] = make([]float32, s)
		n.a[l] = make([]float32, s)
		n.delta[l] = make([]float32, s)
	}
	return n
}

// SetLogger sets the logger used for fallback warnings.
func (n *Network) SetLogger(log zerolog.Logger) {
	n.mu.Lock()
	n.log = log
	n.mu.Unlock()
}

// Initialized reports whether the network has a usable topology.
func (n *Network) Initialized() bool {
	return n != nil && len(n.sizes) >= 2 && len(n.weights) == len(n.sizes)-1
}

// NumLayers returns the number of neuron layers, input and output included.
func (n *Network) NumLayers() int {
	return len(n.sizes)
}

// LayerSizes returns a copy of the neuron counts per layer.
func (n *Network) LayerSizes() []int {
	return append([]int(nil), n.sizes...)
}

// InputSize returns the width of the input layer, or 0 when uninitialized.
func (n *Network) InputSize() int {
	if len(n.sizes) == 0 {
		return 0
	}
	return n.sizes[0]
}

// activationFor returns the activation of weight layer l.
func (n *Network) activationFor(l int) Activation {
	if l == len(n.weights)-1 {
		return Sigmoid
	}
	return n.acts[l]
}

// Activation returns the activation of hidden layer layer (0-based).
func (n *Network) Activation(layer int) (Activation, error) {
	if layer < 0 || layer >= len(n.acts) {
		return 0, fmt.Errorf("hidden layer %d out of range [0,%d)", layer, len(n.acts))
	}
	return n.acts[layer], nil
}

// SetActivation sets the activation of hidden layer layer, or of every
// hidden layer when layer is AllLayers. The output layer stays sigmoid.
func (n *Network) SetActivation(layer int, act Activation) error {
	if !act.valid() {
		return fmt.Errorf("invalid activation %d", act)
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	if layer == AllLayers {
		for i := range n.acts {
			n.acts[i] = act
		}
		return nil
	}
	if layer < 0 || layer >= len(n.acts) {
		return fmt.Errorf("hidden layer %d out of range [0,%d)", layer, len(n.acts))
	}
	n.acts[layer] = act
	return nil
}

// SetLayerWeights replaces the parameters feeding neuron layer layer+1.
// w is row-major [out][in] and b has one entry per output neuron.
func (n *Network) SetLayerWeights(layer int, w, b []float32) error {
	if !n.Initialized() {
		return ErrNotInitialized
	}
	if layer < 0 || layer >= len(n.weights) {
		return fmt.Errorf("weight layer %d out of range [0,%d)", layer, len(n.weights))
	}
	in, out := n.sizes[layer], n.sizes[layer+1]
	if len(w) != in*out {
		return fmt.Errorf("layer %d: %d weights, want %d: %w", layer, len(w), in*out, ErrDimensionMismatch)
	}
	if len(b) != out {
		return fmt.Errorf("layer %d: %d biases, want %d: %w", layer, len(b), out, ErrDimensionMismatch)
	}
	n.mu.Lock()
	copy(n.weights[layer], w)
	copy(n.biases[layer], b)
	n.mu.Unlock()
	return nil
}

// LayerWeights returns copies of the weights and biases of weight layer layer.
func (n *Network) LayerWeights(layer int) (w, b []float32, err error) {
	if layer < 0 || layer >= len(n.weights) {
		return nil, nil, fmt.Errorf("weight layer %d out of range [0,%d)", layer, len(n.weights))
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]float32(nil), n.weights[layer]...), append([]float32(nil), n.biases[layer]...), nil
}

// Clone returns a deep copy with fresh scratch buffers.
func (n *Network) Clone() *Network {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.sizes) < 2 {
		return &Network{log: n.log}
	}
	c := newShape(n.sizes, n.acts)
	for l := range n.weights {
		copy(c.weights[l], n.weights[l])
		copy(c.biases[l], n.biases[l])
	}
	c.log = n.log
	return c
}

// forward runs input through the network and returns the output neuron.
// Caller holds n.mu and has validated the input size.
func (n *Network) forward(input []float32) float32 {
	copy(n.a[0], input)
	for l, w := range n.weights {
		in, out := n.a[l], n.a[l+1]
		z := n.z[l+1]
		act := n.activationFor(l)
		width := len(in)
		for j := range out {
			sum := float64(n.biases[l][j])
			row := w[j*width : (j+1)*width]
			for i, x := range in {
				if x != 0 {
					sum += float64(row[i]) * float64(x)
				}
			}
			z[j] = saturate(sum)
			out[j] = act.apply(z[j])
		}
	}
	return n.a[len(n.a)-1][0]
}

// Predict returns the network output for input. An uninitialized network or
// a wrongly sized input yields the neutral 0.5.
func (n *Network) Predict(input []float32) float32 {
	if n == nil {
		return 0.5
	}
	if !n.Initialized() {
		n.log.Warn().Msg("predict on uninitialized network")
		return 0.5
	}
	if len(input) != n.sizes[0] {
		n.log.Warn().Int("got", len(input)).Int("want", n.sizes[0]).Msg("predict input size mismatch")
		return 0.5
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.forward(input)
}

// Train performs one step of stochastic gradient descent towards target and
// returns the squared error before the update. Invalid calls return 0.
func (n *Network) Train(input []float32, target, lr float32) float32 {
	if n == nil {
		return 0
	}
	if !n.Initialized() {
		n.log.Warn().Msg("train on uninitialized network")
		return 0
	}
	if len(input) != n.sizes[0] {
		n.log.Warn().Int("got", len(input)).Int("want", n.sizes[0]).Msg("train input size mismatch")
		return 0
	}
	n.mu.Lock()
	defer n.mu.Unlock()

	out := n.forward(input)
	diff := out - target
	last := len(n.sizes) - 1
	n.delta[last][0] = diff * out * (1 - out)

	// Deltas for every layer are computed before any weight moves.
	for l := last - 1; l >= 1; l-- {
		w := n.weights[l]
		width := n.sizes[l]
		act := n.activationFor(l - 1)
		for i := 0; i < width; i++ {
			var sum float32
			for j, d := range n.delta[l+1] {
				sum += w[j*width+i] * d
			}
			n.delta[l][i] = sum * act.derivative(n.z[l][i], n.a[l][i])
		}
	}

	for l, w := range n.weights {
		in := n.a[l]
		width := len(in)
		for j, d := range n.delta[l+1] {
			if d == 0 {
				continue
			}
			step := lr * d
			row := w[j*width : (j+1)*width]
			for i, x := range in {
				if x != 0 {
					row[i] -= step * x
				}
			}
			n.biases[l][j] -= step
		}
	}
	return diff * diff
}
