package main

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umit144/subscriber-provisioner/internal/config"
	"github.com/umit144/subscriber-provisioner/internal/database"
	"github.com/umit144/subscriber-provisioner/internal/models"
	"github.com/umit144/subscriber-provisioner/internal/services"
)

type stubProvisioner struct {
	report  *services.ProvisionReport
	found   *models.Subscriber
	removed int64
	err     error
}

func (s *stubProvisioner) RemoveByIdentifier(context.Context, string) (int64, error) {
	return s.removed, s.err
}

func (s *stubProvisioner) Insert(context.Context, models.Subscriber) (string, error) {
	return "", s.err
}

func (s *stubProvisioner) Verify(context.Context, string) (*models.Subscriber, error) {
	return s.found, s.err
}

func (s *stubProvisioner) Provision(context.Context, models.Subscriber) (*services.ProvisionReport, error) {
	return s.report, s.err
}

func (s *stubProvisioner) Remove(context.Context, string) (int64, error) {
	return s.removed, s.err
}

// useService swaps the datastore wiring for the duration of the test and
// returns the config the command built.
func useService(t *testing.T, svc services.Provisioner, buildErr error) *config.Config {
	t.Helper()
	var seen config.Config
	prev := newService
	newService = func(_ context.Context, cfg *config.Config) (services.Provisioner, func(), error) {
		seen = *cfg
		if buildErr != nil {
			return nil, nil, buildErr
		}
		return svc, func() {}, nil
	}
	t.Cleanup(func() { newService = prev })
	return &seen
}

func foundReport() *services.ProvisionReport {
	return &services.ProvisionReport{
		IMSI:         models.DefaultIMSI,
		Count:        1,
		Found:        true,
		K:            "465B5CE8B199B49FAA5F0A2EE238A6BC",
		OperatorKind: models.OperatorKeyOPc,
		OperatorKey:  "E8ED289DEBA952E4283B54E88E6183CA",
		DefaultAPN:   "internet",
	}
}

func TestSplitCommand(t *testing.T) {
	tests := []struct {
		args     []string
		wantCmd  string
		wantRest []string
	}{
		{args: nil, wantCmd: cmdProvision, wantRest: nil},
		{args: []string{"-imsi", "1"}, wantCmd: cmdProvision, wantRest: []string{"-imsi", "1"}},
		{args: []string{"verify", "-imsi", "1"}, wantCmd: cmdVerify, wantRest: []string{"-imsi", "1"}},
		{args: []string{"remove"}, wantCmd: cmdRemove, wantRest: []string{}},
	}

	for _, tt := range tests {
		cmd, rest := splitCommand(tt.args)
		assert.Equal(t, tt.wantCmd, cmd)
		assert.Equal(t, tt.wantRest, rest)
	}
}

func TestRunUsageErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{name: "unknown command", args: []string{"seed"}},
		{name: "unknown flag", args: []string{"provision", "-bogus"}},
		{name: "bad strategy", args: []string{"-strategy", "merge"}},
		{name: "missing profile", args: []string{"-profile", filepath.Join("testdata", "absent.toml")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			assert.Equal(t, exitUsage, run(tt.args, &stdout, &stderr))
			assert.Empty(t, stdout.String())
		})
	}
}

func TestLoadSubscriberOverridesIMSI(t *testing.T) {
	sub, err := loadSubscriber("", "001010000000009")
	require.NoError(t, err)
	assert.Equal(t, "001010000000009", sub.IMSI)
	assert.Equal(t, "internet", sub.DefaultAPN())

	sub, err = loadSubscriber("", "")
	require.NoError(t, err)
	assert.Equal(t, models.DefaultIMSI, sub.IMSI)
}

func TestPrintReport(t *testing.T) {
	var out bytes.Buffer
	printReport(&out, &services.ProvisionReport{
		IMSI:         models.DefaultIMSI,
		Count:        1,
		Found:        true,
		K:            "465B5CE8B199B49FAA5F0A2EE238A6BC",
		OperatorKind: models.OperatorKeyOPc,
		OperatorKey:  "E8ED289DEBA952E4283B54E88E6183CA",
		DefaultAPN:   "internet",
	})

	assert.Equal(t, "Subscribers added: 1\n"+
		"Subscriber IMSI: 999700000000001\n"+
		"Subscriber K: 465B5CE8B199B49FAA5F0A2EE238A6BC\n"+
		"Subscriber OPc: E8ED289DEBA952E4283B54E88E6183CA\n"+
		"Default APN: internet\n", out.String())
}

func TestPrintReportNotFound(t *testing.T) {
	var out bytes.Buffer
	printReport(&out, &services.ProvisionReport{IMSI: models.DefaultIMSI, Count: 0})
	assert.Equal(t, "Subscribers added: 0\nERROR: Subscriber not found after insertion!\n", out.String())
}

func TestPrintSubscriberWithOP(t *testing.T) {
	sub := models.TestNetworkSubscriber()
	sub.Security.Operator = models.OP("CDC202D5123E20F62B6D676AC72CB318")

	var out bytes.Buffer
	printSubscriber(&out, &sub)
	assert.Contains(t, out.String(), "Subscriber OP: CDC202D5123E20F62B6D676AC72CB318\n")
	assert.Contains(t, out.String(), "Default APN: internet\n")
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, exitUsage, exitCode(fmt.Errorf("x: %w", models.ErrInvalidRecord)))
	assert.Equal(t, exitUsage, exitCode(fmt.Errorf("x: %w", database.ErrInvalidConnString)))
	assert.Equal(t, exitFailure, exitCode(fmt.Errorf("x: %w", models.ErrConnectivity)))
	assert.Equal(t, exitFailure, exitCode(fmt.Errorf("x: %w", models.ErrDuplicateKey)))
	assert.Equal(t, exitFailure, exitCode(fmt.Errorf("x: %w", models.ErrCorruptRecord)))
}

func TestRunProvisionExitCodes(t *testing.T) {
	tests := []struct {
		name    string
		stub    *stubProvisioner
		want    int
		wantOut string
	}{
		{
			name: "found",
			stub: &stubProvisioner{report: foundReport()},
			want: exitOK,
			wantOut: "Subscribers added: 1\n" +
				"Subscriber IMSI: 999700000000001\n" +
				"Subscriber K: 465B5CE8B199B49FAA5F0A2EE238A6BC\n" +
				"Subscriber OPc: E8ED289DEBA952E4283B54E88E6183CA\n" +
				"Default APN: internet\n",
		},
		{
			name:    "not found after insert",
			stub:    &stubProvisioner{report: &services.ProvisionReport{IMSI: models.DefaultIMSI, Count: 0}},
			want:    exitFailure,
			wantOut: "Subscribers added: 0\nERROR: Subscriber not found after insertion!\n",
		},
		{
			name: "store unreachable",
			stub: &stubProvisioner{err: fmt.Errorf("delete failed: %w", models.ErrConnectivity)},
			want: exitFailure,
		},
		{
			name: "stored record corrupt",
			stub: &stubProvisioner{err: fmt.Errorf("decode failed: %w", models.ErrCorruptRecord)},
			want: exitFailure,
		},
		{
			name: "invalid record",
			stub: &stubProvisioner{err: fmt.Errorf("%w: imsi", models.ErrInvalidRecord)},
			want: exitUsage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			useService(t, tt.stub, nil)

			var stdout, stderr bytes.Buffer
			assert.Equal(t, tt.want, run([]string{"provision"}, &stdout, &stderr))
			assert.Equal(t, tt.wantOut, stdout.String())
		})
	}
}

func TestRunVerify(t *testing.T) {
	sub := models.TestNetworkSubscriber()
	useService(t, &stubProvisioner{found: &sub}, nil)

	var stdout, stderr bytes.Buffer
	require.Equal(t, exitOK, run([]string{"verify"}, &stdout, &stderr))
	assert.Contains(t, stdout.String(), "Subscriber OPc: E8ED289DEBA952E4283B54E88E6183CA\n")
}

func TestRunVerifyNotFound(t *testing.T) {
	useService(t, &stubProvisioner{err: fmt.Errorf("find failed: %w", models.ErrNotFound)}, nil)

	var stdout, stderr bytes.Buffer
	assert.Equal(t, exitFailure, run([]string{"verify", "-imsi", "001010000000009"}, &stdout, &stderr))
	assert.Equal(t, "ERROR: Subscriber 001010000000009 not found!\n", stdout.String())
}

func TestRunRemove(t *testing.T) {
	useService(t, &stubProvisioner{removed: 2}, nil)

	var stdout, stderr bytes.Buffer
	assert.Equal(t, exitOK, run([]string{"remove"}, &stdout, &stderr))
	assert.Equal(t, "Subscribers removed: 2\n", stdout.String())
}

func TestRunDatastoreSetupErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "bad uri", err: fmt.Errorf("%w: mongo: bad scheme", database.ErrInvalidConnString), want: exitUsage},
		{name: "unreachable", err: fmt.Errorf("mongo ping failed: %w", models.ErrConnectivity), want: exitFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			useService(t, nil, tt.err)

			var stdout, stderr bytes.Buffer
			assert.Equal(t, tt.want, run(nil, &stdout, &stderr))
			assert.Empty(t, stdout.String())
		})
	}
}

func TestRunStrategyFlagOverridesEnvironment(t *testing.T) {
	t.Setenv("PROVISION_STRATEGY", "merge")
	seen := useService(t, &stubProvisioner{report: foundReport()}, nil)

	var stdout, stderr bytes.Buffer
	require.Equal(t, exitOK, run([]string{"-strategy", "upsert"}, &stdout, &stderr), stderr.String())
	assert.Equal(t, services.StrategyUpsert, seen.Strategy)
}
