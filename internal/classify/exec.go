package classify

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"os/exec"
	"sync"

	"github.com/mattn/go-shellwords"
	"github.com/signlabs/signvoice/internal/config"
	"github.com/signlabs/signvoice/internal/vision"
)

type execClassifier struct {
	cmd  []string
	cfg  config.ClassifierConfig
	info ModelInfo
	mu   sync.Mutex
}

type execRequest struct {
	TensorBase64 string `json:"tensor_base64"`
	InputSize    int    `json:"input_size"`
}

type execResponse struct {
	Probs []float32 `json:"probs"`
}

// NewExecClassifier wraps an inference subprocess. The command is run once
// with --describe at construction to discover the model's input size and
// output dimensionality, then once per frame for inference.
func NewExecClassifier(ctx context.Context, cfg config.ClassifierConfig) (Classifier, error) {
	parser := shellwords.NewParser()
	args, err := parser.Parse(cfg.Command)
	if err != nil {
		return nil, fmt.Errorf("parse classifier command: %w", err)
	}
	if len(args) == 0 {
		return nil, fmt.Errorf("classifier command is empty")
	}

	c := &execClassifier{cmd: args, cfg: cfg}
	info, err := c.describe(ctx)
	if err != nil {
		return nil, err
	}
	if info.InputSize <= 0 || info.NumClasses <= 0 {
		return nil, fmt.Errorf("classifier described invalid model: input_size=%d num_classes=%d",
			info.InputSize, info.NumClasses)
	}
	c.info = info
	return c, nil
}

func (c *execClassifier) Describe() ModelInfo {
	return c.info
}

func (c *execClassifier) describe(ctx context.Context) (ModelInfo, error) {
	args := c.commandArgs()
	args = append(args, "--describe")
	command := exec.CommandContext(ctx, c.cmd[0], args...)
	var stdout, stderr bytes.Buffer
	command.Stdout = &stdout
	command.Stderr = &stderr
	if err := command.Run(); err != nil {
		return ModelInfo{}, fmt.Errorf("classifier describe failed: %w: %s", err, stderr.String())
	}
	var info ModelInfo
	if err := json.Unmarshal(stdout.Bytes(), &info); err != nil {
		return ModelInfo{}, fmt.Errorf("decode classifier description: %w", err)
	}
	return info, nil
}

func (c *execClassifier) Predict(ctx context.Context, tensor vision.Tensor) ([]float32, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	payload, err := json.Marshal(execRequest{
		TensorBase64: encodeTensor(tensor),
		InputSize:    tensor.Size,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal inference request: %w", err)
	}

	command := exec.CommandContext(ctx, c.cmd[0], c.commandArgs()...)
	command.Stdin = bytes.NewReader(payload)
	var stdout, stderr bytes.Buffer
	command.Stdout = &stdout
	command.Stderr = &stderr

	if err := command.Run(); err != nil {
		return nil, fmt.Errorf("classifier command failed: %w: %s", err, stderr.String())
	}

	var resp execResponse
	if err := json.Unmarshal(stdout.Bytes(), &resp); err != nil {
		return nil, fmt.Errorf("decode classifier response: %w", err)
	}
	if len(resp.Probs) == 0 {
		return nil, fmt.Errorf("classifier returned no probabilities")
	}
	return resp.Probs, nil
}

func (c *execClassifier) commandArgs() []string {
	args := append([]string{}, c.cmd[1:]...)
	if c.cfg.ModelPath != "" {
		args = append(args, "--model", c.cfg.ModelPath)
	}
	return args
}

func encodeTensor(tensor vision.Tensor) string {
	raw := make([]byte, len(tensor.Data)*4)
	for i, v := range tensor.Data {
		binary.LittleEndian.PutUint32(raw[i*4:], math.Float32bits(v))
	}
	return base64.StdEncoding.EncodeToString(raw)
}
