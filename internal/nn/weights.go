package nn

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Model file format constants. All integers and floats are little-endian.
const (
	Magic         = "NNWB"
	FormatVersion = 1
	FileExt       = ".nn"

	maxLayers    = 64
	maxLayerSize = 1 << 20
)

// countingWriter tracks bytes written for io.WriterTo.
type countingWriter struct {
	w io.Writer
	n int64
}

func (cw *countingWriter) Write(p []byte) (int, error) {
	n, err := cw.w.Write(p)
	cw.n += int64(n)
	return n, err
}

// countingReader tracks bytes read for io.ReaderFrom.
type countingReader struct {
	r io.Reader
	n int64
}

func (cr *countingReader) Read(p []byte) (int, error) {
	n, err := cr.r.Read(p)
	cr.n += int64(n)
	return n, err
}

// WriteTo serializes the network:
//   - Magic "NNWB" (4 bytes), Version (uint32)
//   - LayerCount (uint32), LayerSizes (uint32 each)
//   - ActivationCount (uint32), hidden Activations (uint32 each)
//   - per weight layer: WeightCount (uint32), Weights (float32, [out][in]),
//     BiasCount (uint32), Biases (float32)
func (n *Network) WriteTo(w io.Writer) (int64, error) {
	if !n.Initialized() {
		return 0, ErrNotInitialized
	}
	n.mu.Lock()
	defer n.mu.Unlock()

	cw := &countingWriter{w: w}
	bw := bufio.NewWriter(cw)
	le := binary.LittleEndian

	if _, err := bw.WriteString(Magic); err != nil {
		return cw.n, fmt.Errorf("failed to write magic: %w", err)
	}
	header := []uint32{FormatVersion, uint32(len(n.sizes))}
	for _, s := range n.sizes {
		header = append(header, uint32(s))
	}
	header = append(header, uint32(len(n.acts)))
	for _, a := range n.acts {
		header = append(header, uint32(a))
	}
	if err := binary.Write(bw, le, header); err != nil {
		return cw.n, fmt.Errorf("failed to write header: %w", err)
	}

	for l := range n.weights {
		if err := binary.Write(bw, le, uint32(len(n.weights[l]))); err != nil {
			return cw.n, fmt.Errorf("failed to write layer %d weight count: %w", l, err)
		}
		if err := binary.Write(bw, le, n.weights[l]); err != nil {
			return cw.n, fmt.Errorf("failed to write layer %d weights: %w", l, err)
		}
		if err := binary.Write(bw, le, uint32(len(n.biases[l]))); err != nil {
			return cw.n, fmt.Errorf("failed to write layer %d bias count: %w", l, err)
		}
		if err := binary.Write(bw, le, n.biases[l]); err != nil {
			return cw.n, fmt.Errorf("failed to write layer %d biases: %w", l, err)
		}
	}

	if err := bw.Flush(); err != nil {
		return cw.n, fmt.Errorf("failed to flush model: %w", err)
	}
	return cw.n, nil
}

// ReadFrom replaces the network with one decoded from r. On error the
// receiver is left unchanged.
func (n *Network) ReadFrom(r io.Reader) (int64, error) {
	cr := &countingReader{r: r}
	decoded, err := decode(bufio.NewReader(cr))
	if err != nil {
		return cr.n, err
	}

	n.mu.Lock()
	n.sizes, n.acts = decoded.sizes, decoded.acts
	n.weights, n.biases = decoded.weights, decoded.biases
	n.z, n.a, n.delta = decoded.z, decoded.a, decoded.delta
	n.mu.Unlock()
	return cr.n, nil
}

func decode(r io.Reader) (*Network, error) {
	le := binary.LittleEndian

	magic := make([]byte, len(Magic))
	if _, err := io.ReadFull(r, magic); err != nil {
		return nil, fmt.Errorf("failed to read magic: %w", err)
	}
	if string(magic) != Magic {
		return nil, fmt.Errorf("got %q: %w", magic, ErrBadMagic)
	}

	var version uint32
	if err := binary.Read(r, le, &version); err != nil {
		return nil, fmt.Errorf("failed to read version: %w", err)
	}
	if version != FormatVersion {
		return nil, fmt.Errorf("version %d: %w", version, ErrUnsupportedVersion)
	}

	var layerCount uint32
	if err := binary.Read(r, le, &layerCount); err != nil {
		return nil, fmt.Errorf("failed to read layer count: %w", err)
	}
	if layerCount < 2 || layerCount > maxLayers {
		return nil, fmt.Errorf("layer count %d: %w", layerCount, ErrDimensionMismatch)
	}
	raw := make([]uint32, layerCount)
	if err := binary.Read(r, le, raw); err != nil {
		return nil, fmt.Errorf("failed to read layer sizes: %w", err)
	}
	sizes := make([]int, layerCount)
	for i, s := range raw {
		if s == 0 || s > maxLayerSize {
			return nil, fmt.Errorf("layer %d size %d: %w", i, s, ErrDimensionMismatch)
		}
		sizes[i] = int(s)
	}

	var actCount uint32
	if err := binary.Read(r, le, &actCount); err != nil {
		return nil, fmt.Errorf("failed to read activation count: %w", err)
	}
	if int(actCount) != len(sizes)-2 {
		return nil, fmt.Errorf("%d activations for %d hidden layers: %w", actCount, len(sizes)-2, ErrDimensionMismatch)
	}
	rawActs := make([]uint32, actCount)
	if err := binary.Read(r, le, rawActs); err != nil {
		return nil, fmt.Errorf("failed to read activations: %w", err)
	}
	acts := make([]Activation, actCount)
	for i, a := range rawActs {
		acts[i] = Activation(a)
		if !acts[i].valid() {
			return nil, fmt.Errorf("hidden layer %d: invalid activation %d", i, a)
		}
	}

	n := newShape(sizes, acts)
	for l := range n.weights {
		var count uint32
		if err := binary.Read(r, le, &count); err != nil {
			return nil, fmt.Errorf("failed to read layer %d weight count: %w", l, err)
		}
		if int(count) != len(n.weights[l]) {
			return nil, fmt.Errorf("layer %d: %d weights, want %d: %w", l, count, len(n.weights[l]), ErrDimensionMismatch)
		}
		if err := binary.Read(r, le, n.weights[l]); err != nil {
			return nil, fmt.Errorf("failed to read layer %d weights: %w", l, err)
		}
		if err := binary.Read(r, le, &count); err != nil {
			return nil, fmt.Errorf("failed to read layer %d bias count: %w", l, err)
		}
		if int(count) != len(n.biases[l]) {
			return nil, fmt.Errorf("layer %d: %d biases, want %d: %w", l, count, len(n.biases[l]), ErrDimensionMismatch)
		}
		if err := binary.Read(r, le, n.biases[l]); err != nil {
			return nil, fmt.Errorf("failed to read layer %d biases: %w", l, err)
		}
	}
	return n, nil
}

// MarshalBinary returns the model file encoding.
func (n *Network) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	if _, err := n.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UnmarshalBinary decodes a model file encoding into n.
func (n *Network) UnmarshalBinary(data []byte) error {
	_, err := n.ReadFrom(bytes.NewReader(data))
	return err
}

// Save writes the network to path, adding the .nn extension when missing.
// It returns the path actually written.
func (n *Network) Save(path string) (string, error) {
	if filepath.Ext(path) != FileExt {
		path += FileExt
	}
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create model file: %w", err)
	}
	if _, err := n.WriteTo(f); err != nil {
		f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to close model file: %w", err)
	}
	return path, nil
}

// Load reads a network from path.
func Load(path string) (*Network, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open model file: %w", err)
	}
	defer f.Close()

	n := &Network{}
	if _, err := n.ReadFrom(f); err != nil {
		return nil, err
	}
	return n, nil
}

// Load replaces n with the network stored at path.
func (n *Network) Load(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open model file: %w", err)
	}
	defer f.Close()

	_, err = n.ReadFrom(f)
	return err
}
