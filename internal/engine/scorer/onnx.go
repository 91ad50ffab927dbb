package scorer

import (
	"fmt"
	"path/filepath"
	"sync"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/crimson-sun/warden/internal/engine/features"
	"github.com/crimson-sun/warden/internal/model"
)

// ortEnv manages global ONNX Runtime initialization (process-wide singleton).
var ortEnv struct {
	once sync.Once
	err  error
}

// initORT initializes the ONNX Runtime environment. Safe to call multiple
// times; only the first call has any effect.
func initORT(libPath string) error {
	ortEnv.once.Do(func() {
		ort.SetSharedLibraryPath(libPath)
		ortEnv.err = ort.InitializeEnvironment()
	})
	return ortEnv.err
}

// ONNX scores feature vectors with a trained classifier exported to ONNX
// (a gradient-boosted tree ensemble in the shipped model). The graph must
// take a single float32 input [batch, featureDim] and produce per-class
// scores [batch, numClasses].
type ONNX struct {
	session    *ort.DynamicAdvancedSession
	inputName  string
	outputName string
	featureDim int
	numClasses int
}

// NewONNX loads the model at modelPath and validates its tensor shapes
// against the feature schema. Any mismatch is a startup error.
func NewONNX(modelPath string, schema *features.Schema) (*ONNX, error) {
	// The ONNX Runtime shared library ships alongside the model file.
	libPath := filepath.Join(filepath.Dir(modelPath), "libonnxruntime.so")
	if err := initORT(libPath); err != nil {
		return nil, fmt.Errorf("scorer: failed to initialize onnx runtime: %w", err)
	}

	inputs, outputs, err := ort.GetInputOutputInfo(modelPath)
	if err != nil {
		return nil, fmt.Errorf("scorer: failed to read model info: %w", err)
	}
	if len(inputs) != 1 {
		return nil, fmt.Errorf("scorer: expected 1 model input, got %d", len(inputs))
	}
	if len(outputs) == 0 {
		return nil, fmt.Errorf("scorer: model has no outputs")
	}

	in := inputs[0]
	if len(in.Dimensions) != 2 {
		return nil, fmt.Errorf("scorer: expected 2D input tensor, got %v", in.Dimensions)
	}
	if dim := in.Dimensions[1]; dim > 0 && int(dim) != schema.Len() {
		return nil, fmt.Errorf("scorer: model expects %d features, schema %s has %d",
			dim, features.SchemaVersion, schema.Len())
	}

	out := outputs[0]
	numClasses := len(model.Labels())
	if len(out.Dimensions) != 2 {
		return nil, fmt.Errorf("scorer: expected 2D output tensor, got %v", out.Dimensions)
	}
	if dim := out.Dimensions[1]; dim > 0 && int(dim) != numClasses {
		return nil, fmt.Errorf("scorer: model emits %d classes, want %d", dim, numClasses)
	}

	opts, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("scorer: failed to create session options: %w", err)
	}
	defer opts.Destroy()
	opts.SetIntraOpNumThreads(1)
	opts.SetInterOpNumThreads(1)

	session, err := ort.NewDynamicAdvancedSession(
		modelPath,
		[]string{in.Name},
		[]string{out.Name},
		opts,
	)
	if err != nil {
		return nil, fmt.Errorf("scorer: failed to create session: %w", err)
	}

	return &ONNX{
		session:    session,
		inputName:  in.Name,
		outputName: out.Name,
		featureDim: schema.Len(),
		numClasses: numClasses,
	}, nil
}

// Score runs one inference call.
func (o *ONNX) Score(vec features.Vector) (model.Label, map[model.Label]float64, error) {
	if len(vec) != o.featureDim {
		return "", nil, fmt.Errorf("scorer: vector has %d features, want %d", len(vec), o.featureDim)
	}

	data := make([]float32, len(vec))
	for i, v := range vec {
		data[i] = float32(v)
	}

	tIn, err := ort.NewTensor(ort.NewShape(1, int64(o.featureDim)), data)
	if err != nil {
		return "", nil, fmt.Errorf("scorer: failed to create input tensor: %w", err)
	}
	defer tIn.Destroy()

	tOut, err := ort.NewEmptyTensor[float32](ort.NewShape(1, int64(o.numClasses)))
	if err != nil {
		return "", nil, fmt.Errorf("scorer: failed to create output tensor: %w", err)
	}
	defer tOut.Destroy()

	if err := o.session.Run([]ort.Value{tIn}, []ort.Value{tOut}); err != nil {
		return "", nil, fmt.Errorf("scorer: inference failed: %w", err)
	}

	raw := tOut.GetData()
	scores := make([]float64, o.numClasses)
	for i := range scores {
		scores[i] = float64(raw[i])
	}

	label, dist := distribution(scores)
	return label, dist, nil
}

// Close releases ONNX session resources.
func (o *ONNX) Close() error {
	return o.session.Destroy()
}
