package runner

import (
	"fmt"
	"strings"
)

// oomSignatures are the free-text markers the engine emits when a device runs
// out of memory. The engine's error reporting is unstructured, so detection
// is string-based and the hints are advisory only.
var oomSignatures = []string{
	"CUDA error: out of memory",
	"CUDA out of memory",
	"torch.OutOfMemoryError",
}

// appendMemoryHints adds remediation guidance to a failure message when an
// out-of-memory signature is present. Returns the message unchanged otherwise.
func appendMemoryHints(msg string, numGPUs int, gpuIDs []int) string {
	if !hasOOMSignature(msg) {
		return msg
	}
	var b strings.Builder
	b.WriteString(msg)
	b.WriteString("\n\nGPU memory issue detected:")
	fmt.Fprintf(&b, "\n- Current configuration: %d GPU(s)", numGPUs)
	if len(gpuIDs) > 0 {
		fmt.Fprintf(&b, " (IDs: %v)", gpuIDs)
	}
	b.WriteString("\n- Try reducing video duration or switching to a lower resolution")
	b.WriteString("\n- Try reducing the GPU count or selecting different devices to skip busy GPUs")
	b.WriteString("\n- Run 'nvidia-smi' to check GPU memory availability")
	return b.String()
}

func hasOOMSignature(msg string) bool {
	for _, sig := range oomSignatures {
		if strings.Contains(msg, sig) {
			return true
		}
	}
	return false
}
