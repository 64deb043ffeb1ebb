package gridengine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridhaven/kraken/pkg/adaptor"
)

func TestParseSubmitOutput(t *testing.T) {
	id, err := parseSubmitOutput([]byte("Your job 4242 (\"render.sh\") has been submitted\n"), nil)
	require.NoError(t, err)
	assert.Equal(t, "4242", id)
}

func TestParseSubmitOutputBackendRejection(t *testing.T) {
	_, err := parseSubmitOutput(nil, []byte("Unable to run job: denied: queue \"bogus.q\" does not exist\n"))
	require.Error(t, err)
	assert.True(t, adaptor.IsBackend(err))
	assert.False(t, adaptor.IsParse(err), "a backend rejection is not a parse failure")
}

func TestParseSubmitOutputUnrecognized(t *testing.T) {
	_, err := parseSubmitOutput([]byte("something entirely unexpected\n"), []byte("and more noise\n"))
	require.Error(t, err)
	assert.True(t, adaptor.IsParse(err))
	// The diagnostic must carry both raw streams for the operator.
	assert.Contains(t, err.Error(), "something entirely unexpected")
	assert.Contains(t, err.Error(), "and more noise")
}

func TestParseCancelOutput(t *testing.T) {
	tests := []struct {
		name    string
		stdout  string
		stderr  string
		wantErr bool
		check   func(error) bool
	}{
		{
			name:   "registered for deletion",
			stdout: "alice has registered the job 42 for deletion\n",
		},
		{
			name:   "deleted immediately",
			stdout: "alice has deleted job 42\n",
		},
		{
			name:   "already finished is tolerated",
			stderr: "denied: job \"42\" does not exist\n",
		},
		{
			name:    "genuine rejection",
			stderr:  "denied: \"bob\" must be operator to delete the job of others\n",
			wantErr: true,
			check:   adaptor.IsBackend,
		},
		{
			name:    "unrecognized output",
			stdout:  "nonsense\n",
			wantErr: true,
			check:   adaptor.IsParse,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := parseCancelOutput("42", []byte(tt.stdout), []byte(tt.stderr))
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, tt.check(err))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

const accountingOutput = `==============================================================
qname        all.q
hostname     node01
jobname      render.sh
jobnumber    42
qsub_time    Fri Aug 29 10:11:12 2026
start_time   Fri Aug 29 10:11:20 2026
end_time     Fri Aug 29 10:14:02 2026
failed       0
exit_status  0
ru_wallclock 162
`

func TestParseAccountingOutput(t *testing.T) {
	attrs, err := parseAccountingOutput([]byte(accountingOutput), nil)
	require.NoError(t, err)

	assert.Equal(t, "0", attrs["exit_status"])
	assert.Equal(t, "0", attrs["failed"])
	assert.Equal(t, "42", attrs["jobnumber"])
	assert.Equal(t, "Fri Aug 29 10:11:12 2026", attrs["qsub_time"])
}

func TestParseAccountingOutputJobMissing(t *testing.T) {
	_, err := parseAccountingOutput(nil, []byte("error: job id 42 not found\n"))
	require.Error(t, err)
	assert.True(t, adaptor.IsNotFound(err))
}

func TestParseAccountingOutputUnrecognized(t *testing.T) {
	_, err := parseAccountingOutput(nil, nil)
	require.Error(t, err)
	assert.True(t, adaptor.IsParse(err))
}
