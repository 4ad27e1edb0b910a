// Package onnx runs an exported regression model through ONNX Runtime. The
// model takes a single [1, 14] float32 input and yields one scalar.
package onnx

import (
	"context"
	"fmt"
	"sync"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/kilianp07/deliveryeta/core/features"
	"github.com/kilianp07/deliveryeta/core/prediction"
)

// ortEnv manages global ONNX Runtime initialization.
var ortEnv struct {
	once sync.Once
	err  error
}

// initORT initializes the ONNX Runtime environment. Only the first call has
// any effect.
func initORT(libPath string) error {
	ortEnv.once.Do(func() {
		if libPath != "" {
			ort.SetSharedLibraryPath(libPath)
		}
		ortEnv.err = ort.InitializeEnvironment()
	})
	return ortEnv.err
}

// Config locates the model and the runtime library.
type Config struct {
	ModelPath   string `json:"model_path"`
	LibraryPath string `json:"library_path"`
	Threads     int    `json:"threads"`
}

// Estimator wraps a DynamicAdvancedSession.
type Estimator struct {
	mu         sync.Mutex
	session    *ort.DynamicAdvancedSession
	inputName  string
	outputName string
	outShape   ort.Shape
}

// New loads the model and validates its input and output tensors.
func New(cfg Config) (*Estimator, error) {
	if err := initORT(cfg.LibraryPath); err != nil {
		return nil, fmt.Errorf("onnx: failed to initialize runtime: %w", err)
	}
	inputs, outputs, err := ort.GetInputOutputInfo(cfg.ModelPath)
	if err != nil {
		return nil, fmt.Errorf("onnx: failed to read model info: %w", err)
	}
	if len(inputs) != 1 {
		return nil, fmt.Errorf("onnx: expected 1 input, got %d", len(inputs))
	}
	dims := inputs[0].Dimensions
	if len(dims) != 2 || (dims[1] != features.Size && dims[1] != -1) {
		return nil, fmt.Errorf("onnx: expected input shape [n %d], got %v", features.Size, dims)
	}
	if len(outputs) == 0 {
		return nil, fmt.Errorf("onnx: model has no outputs")
	}
	outShape := make(ort.Shape, len(outputs[0].Dimensions))
	n := int64(1)
	for i, d := range outputs[0].Dimensions {
		if d < 0 {
			d = 1
		}
		outShape[i] = d
		n *= d
	}
	if n != 1 {
		return nil, fmt.Errorf("onnx: expected scalar output, got %v", outputs[0].Dimensions)
	}

	opts, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("onnx: failed to create session options: %w", err)
	}
	defer opts.Destroy()
	threads := cfg.Threads
	if threads <= 0 {
		threads = 1
	}
	_ = opts.SetIntraOpNumThreads(threads)
	_ = opts.SetInterOpNumThreads(1)

	session, err := ort.NewDynamicAdvancedSession(cfg.ModelPath,
		[]string{inputs[0].Name}, []string{outputs[0].Name}, opts)
	if err != nil {
		return nil, fmt.Errorf("onnx: failed to create session: %w", err)
	}
	return &Estimator{
		session:    session,
		inputName:  inputs[0].Name,
		outputName: outputs[0].Name,
		outShape:   outShape,
	}, nil
}

// Predict runs one inference call.
func (e *Estimator) Predict(ctx context.Context, v features.Vector) (float64, error) {
	if err := prediction.CheckShape(v, features.Size); err != nil {
		return 0, err
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	in := make([]float32, len(v))
	for i, x := range v {
		in[i] = float32(x)
	}
	tIn, err := ort.NewTensor(ort.NewShape(1, features.Size), in)
	if err != nil {
		return 0, fmt.Errorf("onnx: failed to create input tensor: %w", err)
	}
	defer tIn.Destroy()
	tOut, err := ort.NewEmptyTensor[float32](e.outShape)
	if err != nil {
		return 0, fmt.Errorf("onnx: failed to create output tensor: %w", err)
	}
	defer tOut.Destroy()

	e.mu.Lock()
	err = e.session.Run([]ort.Value{tIn}, []ort.Value{tOut})
	e.mu.Unlock()
	if err != nil {
		return 0, &prediction.EstimationError{Want: features.Size, Got: len(v), Err: err}
	}
	return float64(tOut.GetData()[0]), nil
}

// Close releases the session.
func (e *Estimator) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.session.Destroy()
}
