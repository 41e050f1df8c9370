package nn

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/hailam/chessnet/internal/testutil"
)

func TestModelRoundTrip(t *testing.T) {
	n, err := NewNetwork([]int{5, 4, 3, 1}, Tanh, 21)
	testutil.AssertNoError(t, err)
	testutil.AssertNoError(t, n.SetActivation(1, ReLU))

	data, err := n.MarshalBinary()
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, string(data[:4]), Magic)
	testutil.AssertEqual(t, binary.LittleEndian.Uint32(data[4:8]), uint32(FormatVersion))
	testutil.AssertEqual(t, binary.LittleEndian.Uint32(data[8:12]), uint32(4))

	// 4 magic + 4 version + 4 count + 16 sizes + 4 count + 8 activations
	// + per layer 2 counts and (in*out + out) floats
	want := 4 + 4 + 4 + 16 + 4 + 8 + 4*(2*3+(5*4+4)+(4*3+3)+(3*1+1))
	testutil.AssertEqual(t, len(data), want)

	var m Network
	testutil.AssertNoError(t, m.UnmarshalBinary(data))
	testutil.AssertEqual(t, m.LayerSizes(), n.LayerSizes())
	act, _ := m.Activation(1)
	testutil.AssertEqual(t, act, ReLU)

	input := []float32{0.5, -1, 0, 1, 2}
	testutil.AssertEqual(t, m.Predict(input), n.Predict(input))

	again, err := m.MarshalBinary()
	testutil.AssertNoError(t, err)
	testutil.AssertTrue(t, bytes.Equal(again, data), "re-encoding is stable")
}

func TestModelDecodeErrors(t *testing.T) {
	n, _ := NewNetwork([]int{3, 2, 1}, ReLU, 1)
	good, _ := n.MarshalBinary()

	corrupt := func(f func(b []byte) []byte) []byte {
		return f(append([]byte(nil), good...))
	}

	tests := []struct {
		name   string
		data   []byte
		target error
	}{
		{"bad magic", corrupt(func(b []byte) []byte { b[0] = 'X'; return b }), ErrBadMagic},
		{"version", corrupt(func(b []byte) []byte { binary.LittleEndian.PutUint32(b[4:], 2); return b }), ErrUnsupportedVersion},
		{"one layer", corrupt(func(b []byte) []byte { binary.LittleEndian.PutUint32(b[8:], 1); return b }), ErrDimensionMismatch},
		{"zero width", corrupt(func(b []byte) []byte { binary.LittleEndian.PutUint32(b[16:], 0); return b }), ErrDimensionMismatch},
		{"activation count", corrupt(func(b []byte) []byte { binary.LittleEndian.PutUint32(b[24:], 2); return b }), ErrDimensionMismatch},
		{"weight count", corrupt(func(b []byte) []byte { binary.LittleEndian.PutUint32(b[32:], 5); return b }), ErrDimensionMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var m Network
			testutil.AssertErrorIs(t, m.UnmarshalBinary(tt.data), tt.target)
		})
	}

	t.Run("truncated", func(t *testing.T) {
		var m Network
		testutil.AssertError(t, m.UnmarshalBinary(good[:len(good)-3]))
		testutil.AssertFalse(t, m.Initialized())
	})

	t.Run("bad activation", func(t *testing.T) {
		var m Network
		b := corrupt(func(b []byte) []byte { binary.LittleEndian.PutUint32(b[28:], 9); return b })
		testutil.AssertError(t, m.UnmarshalBinary(b))
	})
}

func TestFailedLoadKeepsNetwork(t *testing.T) {
	n, _ := NewNetwork([]int{3, 2, 1}, ReLU, 1)
	input := []float32{1, 1, 1}
	before := n.Predict(input)

	err := n.UnmarshalBinary([]byte("NNWB\x07\x00\x00\x00"))
	testutil.AssertErrorIs(t, err, ErrUnsupportedVersion)
	testutil.AssertEqual(t, n.LayerSizes(), []int{3, 2, 1})
	testutil.AssertEqual(t, n.Predict(input), before)
}

func TestWriteUninitialized(t *testing.T) {
	var n Network
	_, err := n.MarshalBinary()
	testutil.AssertErrorIs(t, err, ErrNotInitialized)
}

func TestSaveLoad(t *testing.T) {
	dir := t.TempDir()
	n, _ := NewNetwork([]int{4, 3, 1}, Sigmoid, 9)

	path, err := n.Save(filepath.Join(dir, "model"))
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, path, filepath.Join(dir, "model.nn"))
	_, err = os.Stat(path)
	testutil.AssertNoError(t, err)

	path2, err := n.Save(filepath.Join(dir, "other.nn"))
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, path2, filepath.Join(dir, "other.nn"), "extension not doubled")

	loaded, err := Load(path)
	testutil.AssertNoError(t, err)
	input := []float32{1, 0, 0, 1}
	testutil.AssertEqual(t, loaded.Predict(input), n.Predict(input))

	var into Network
	testutil.AssertNoError(t, into.Load(path2))
	testutil.AssertEqual(t, into.Predict(input), n.Predict(input))

	_, err = Load(filepath.Join(dir, "missing.nn"))
	testutil.AssertError(t, err)
}
