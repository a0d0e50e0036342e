package genctl

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"vidgend/pkg/types"
)

// BuildRootCmd constructs the vidgenctl command tree around an HTTP client
// bound lazily to the --server flag.
func BuildRootCmd() *cobra.Command {
	server := envStr("VIDGEND_ADDR", "http://127.0.0.1:7860")
	logLvl := envStr("VIDGENCTL_LOG_LEVEL", "info")

	root := &cobra.Command{
		Use:           "vidgenctl",
		Short:         "Client for a vidgend video generation daemon",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&server, "server", server, "Daemon base URL (defaults VIDGEND_ADDR)")
	root.PersistentFlags().StringVar(&logLvl, "log-level", logLvl, "Log level: debug|info|warn|error")
	root.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		SetLogLevel(logLvl)
	}
	client := func() *Client { return NewClient(strings.TrimRight(server, "/")) }

	var req types.GenerateRequest
	var gpuIDs string
	submit := &cobra.Command{
		Use:     "submit <prompt>",
		Short:   "Submit a generation job and wait for its result",
		Example: "  vidgenctl submit --task t2v-A14B --num-gpus 2 \"A red fox running through fresh snow\"",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req.Prompt = args[0]
			ids, err := parseGPUIDs(gpuIDs)
			if err != nil {
				return err
			}
			req.GPUIDs = ids
			info("submitting job to %s (task=%s gpus=%d)", server, req.Task, req.NumGPUs)
			resp, err := client().Submit(req)
			if err != nil {
				return err
			}
			if resp.Success {
				info("job %s completed in %.1fs: %s", resp.JobID, resp.ElapsedSec, resp.OutputFile)
			} else {
				warn("job %s %s after %.1fs", resp.JobID, resp.Outcome, resp.ElapsedSec)
				if resp.Output != "" {
					fmt.Println(resp.Output)
				}
			}
			return nil
		},
	}
	submit.Flags().StringVar(&req.JobID, "job-id", "", "Stable job id (server assigns one if empty)")
	submit.Flags().StringVar(&req.Task, "task", "t2v-A14B", "Generation task kind")
	submit.Flags().StringVar(&req.Size, "size", "", "Resolution as WIDTH*HEIGHT")
	submit.Flags().IntVar(&req.SampleSteps, "steps", 0, "Sampling steps (0=engine default)")
	submit.Flags().StringVar(&req.SampleSolver, "solver", "", "Sampler name")
	submit.Flags().Int64Var(&req.Seed, "seed", 0, "Random seed (0=engine chooses)")
	submit.Flags().IntVar(&req.FrameNum, "frames", 0, "Output frame count (0=engine default)")
	submit.Flags().IntVar(&req.NumGPUs, "num-gpus", 1, "Number of GPUs")
	submit.Flags().StringVar(&gpuIDs, "gpu-ids", "", "Comma-separated device indices (must match --num-gpus)")
	submit.Flags().StringVar(&req.ImagePath, "image", "", "Server-side input image path")
	submit.Flags().StringVar(&req.AudioPath, "audio", "", "Server-side input audio path")
	submit.Flags().IntVar(&req.TimeoutSec, "timeout-sec", 0, "Execution timeout in seconds (0=server default)")

	queue := &cobra.Command{
		Use:   "queue",
		Short: "Show running jobs and queue depth",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := client().Queue()
			if err != nil {
				return err
			}
			if st.Summary == "" {
				fmt.Println("idle")
				return nil
			}
			fmt.Println(st.Summary)
			for _, j := range st.Active {
				fmt.Printf("  %s  %-12s gpus=%v  %q\n", j.JobID, j.Task, j.GPUIDs, j.PromptPreview)
			}
			return nil
		},
	}

	cancel := &cobra.Command{
		Use:   "cancel <job-id>",
		Short: "Request cancellation of a queued or running job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := client().Cancel(args[0])
			if err != nil {
				return err
			}
			info("cancellation recorded for job %s", resp.JobID)
			return nil
		},
	}

	gpus := &cobra.Command{
		Use:   "gpus",
		Short: "List detected GPUs and the scheduler pool size",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := client().GPUs()
			if err != nil {
				return err
			}
			fmt.Printf("pool size: %d\n", resp.Count)
			for _, g := range resp.GPUs {
				fmt.Printf("  [%d] %s  %d/%d MB used\n", g.Index, g.Name, g.MemoryUsedMB, g.MemoryTotalMB)
			}
			return nil
		},
	}

	root.AddCommand(submit, queue, cancel, gpus)
	return root
}

func parseGPUIDs(s string) ([]int, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	var out []int
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid gpu id %q", p)
		}
		out = append(out, n)
	}
	return out, nil
}
