package gridengine

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/gridhaven/kraken/pkg/adaptor"
)

// Unstructured parser for the free-text output of qsub, qdel, and qacct.
//
// Each line is classified as a success token (identifier extracted), a
// failure token (message extracted), or ignorable. When no recognizable
// token is found, the parse error embeds both captured streams so an
// operator can see the raw backend response.

var (
	// "Your job 42 ("sleep.sh") has been submitted"
	submitAcceptedPattern = regexp.MustCompile(`Your job (\d+)`)

	// "user has registered the job 42 for deletion"
	// "user has deleted job 42"
	cancelAcceptedPattern = regexp.MustCompile(`has (registered the job|deleted job) (\d+)`)

	// `denied: job "42" does not exist`
	// "job 42 does not exist"
	cancelGonePattern = regexp.MustCompile(`job "?(\d+)"? does not exist`)

	// "error: job id 42 not found" (qacct)
	accountingMissingPattern = regexp.MustCompile(`job (id|number) "?\d+"? not found`)

	failureTokenPrefixes = []string{"unable to", "denied:", "error:", "qsub:", "qdel:", "qacct:", "request couldn't"}
)

func isFailureToken(line string) bool {
	lower := strings.ToLower(strings.TrimSpace(line))
	for _, prefix := range failureTokenPrefixes {
		if strings.HasPrefix(lower, prefix) {
			return true
		}
	}
	return false
}

func combinedStreams(stdout, stderr []byte) string {
	return fmt.Sprintf("stdout: %q stderr: %q",
		strings.TrimSpace(string(stdout)), strings.TrimSpace(string(stderr)))
}

// parseSubmitOutput extracts the backend-assigned job identifier from qsub
// output.
func parseSubmitOutput(stdout, stderr []byte) (string, error) {
	for _, line := range splitLines(stdout, stderr) {
		if m := submitAcceptedPattern.FindStringSubmatch(line); m != nil {
			return m[1], nil
		}
	}

	for _, line := range splitLines(stdout, stderr) {
		if isFailureToken(line) {
			return "", adaptor.NewError(adaptor.ErrBackend, AdaptorName, "SubmitJob",
				fmt.Sprintf("submission rejected: %s", strings.TrimSpace(line)), nil)
		}
	}

	return "", adaptor.NewError(adaptor.ErrParse, AdaptorName, "SubmitJob",
		fmt.Sprintf("no job identifier in submission output (%s)", combinedStreams(stdout, stderr)), nil)
}

// parseCancelOutput checks qdel output. A job that already finished is not
// an error; genuine rejections are backend failures.
func parseCancelOutput(jobID string, stdout, stderr []byte) error {
	lines := splitLines(stdout, stderr)

	for _, line := range lines {
		if cancelAcceptedPattern.MatchString(line) {
			return nil
		}
		if cancelGonePattern.MatchString(line) {
			// Already finished and dropped by the backend.
			return nil
		}
	}

	for _, line := range lines {
		if isFailureToken(line) {
			return adaptor.NewError(adaptor.ErrBackend, AdaptorName, "CancelJob",
				fmt.Sprintf("cancellation of job %s rejected: %s", jobID, strings.TrimSpace(line)), nil)
		}
	}

	return adaptor.NewError(adaptor.ErrParse, AdaptorName, "CancelJob",
		fmt.Sprintf("unrecognized cancellation output for job %s (%s)", jobID, combinedStreams(stdout, stderr)), nil)
}

// parseAccountingOutput parses the key/value block qacct prints for one job.
func parseAccountingOutput(stdout, stderr []byte) (map[string]string, error) {
	for _, line := range splitLines(nil, stderr) {
		if accountingMissingPattern.MatchString(line) {
			return nil, adaptor.NewError(adaptor.ErrNotFound, AdaptorName, "Accounting",
				strings.TrimSpace(line), nil)
		}
	}

	attrs := make(map[string]string)
	for _, line := range splitLines(stdout, nil) {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "=") {
			continue
		}
		fields := strings.Fields(trimmed)
		if len(fields) < 2 {
			continue
		}
		attrs[fields[0]] = strings.Join(fields[1:], " ")
	}

	if len(attrs) == 0 {
		for _, line := range splitLines(stdout, stderr) {
			if isFailureToken(line) {
				return nil, adaptor.NewError(adaptor.ErrBackend, AdaptorName, "Accounting",
					strings.TrimSpace(line), nil)
			}
		}
		return nil, adaptor.NewError(adaptor.ErrParse, AdaptorName, "Accounting",
			fmt.Sprintf("no accounting data in output (%s)", combinedStreams(stdout, stderr)), nil)
	}

	return attrs, nil
}

func splitLines(stdout, stderr []byte) []string {
	var lines []string
	for _, stream := range [][]byte{stdout, stderr} {
		if len(stream) == 0 {
			continue
		}
		for _, line := range strings.Split(string(stream), "\n") {
			if strings.TrimSpace(line) != "" {
				lines = append(lines, line)
			}
		}
	}
	return lines
}
