package jobs

import (
	"strconv"

	"vidgend/pkg/types"
)

const (
	defaultSize   = "1280*720"
	defaultSteps  = 20
	defaultSolver = "unipc"
)

// buildEngineArgs assembles the pass-through argument list for one engine
// invocation. The flag semantics belong to the engine; vidgend only forwards
// what the request named.
func buildEngineArgs(req types.GenerateRequest, ckptDir, outputFile string, numGPUs int) []string {
	size := req.Size
	if size == "" {
		size = defaultSize
	}
	steps := req.SampleSteps
	if steps <= 0 {
		steps = defaultSteps
	}
	solver := req.SampleSolver
	if solver == "" {
		solver = defaultSolver
	}

	args := []string{
		"--task", req.Task,
		"--size", size,
		"--ckpt_dir", ckptDir,
		"--sample_steps", strconv.Itoa(steps),
		"--sample_solver", solver,
		"--save_file", outputFile,
		"--prompt", req.Prompt,
	}
	if req.Seed > 0 {
		args = append(args, "--base_seed", strconv.FormatInt(req.Seed, 10))
	}
	if req.FrameNum > 0 {
		args = append(args, "--frame_num", strconv.Itoa(req.FrameNum))
	}
	if req.ImagePath != "" {
		args = append(args, "--image", req.ImagePath)
	}
	if req.AudioPath != "" {
		args = append(args, "--audio", req.AudioPath)
	}
	if numGPUs > 1 {
		args = append(args, "--dit_fsdp", "--t5_fsdp", "--ulysses_size", strconv.Itoa(numGPUs))
	}
	return args
}
