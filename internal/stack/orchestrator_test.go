package stack

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testProject = "safehaven"
	testStack   = "shm-acme-sre-sandbox"
	backupKey   = ".pulumi/stacks/safehaven/shm-acme-sre-sandbox.json.bak"
)

var conflictErr = errors.New(`error: deleting subnet: Code="InUseSubnetCannotBeDeleted" Message="Subnet shm-acme is in use"`)

type harness struct {
	backend   *fakeBackend
	workspace *fakeWorkspace
	records   *memoryRecords
	blobs     *fakeBlobs
	purger    *fakePurger
	registry  *prometheus.Registry
	opts      Options
}

func newHarness() *harness {
	backend := newFakeBackend()
	h := &harness{
		backend:   backend,
		workspace: &fakeWorkspace{Backend: backend},
		records:   newMemoryRecords(),
		blobs:     &fakeBlobs{Objects: map[string]bool{backupKey: true}},
		purger:    &fakePurger{},
		registry:  prometheus.NewRegistry(),
	}
	h.opts = Options{
		Identity:    Identity{Project: testProject, Stack: testStack},
		Workspace:   h.workspace,
		Credentials: staticCredentials{"ARM_SUBSCRIPTION_ID": "sub"},
		Records:     h.records,
		Cleanup: CleanupTargets{
			Blobs:     h.blobs,
			BackupKey: backupKey,
			Vaults:    h.purger,
			VaultName: "kv-shm-acme-sre-sandbox",
		},
		Plugins:              []Plugin{{Name: "azure-native", Version: "2.60.0"}},
		Metrics:              NewMetrics(h.registry),
		Logger:               zerolog.Nop(),
		DestroyMaxAttempts:   10,
		DestroyRetryInterval: time.Millisecond,
	}
	return h
}

func (h *harness) orchestrator(t *testing.T) *Orchestrator {
	t.Helper()
	o, err := New(h.opts)
	require.NoError(t, err)
	return o
}

func indexOf(calls []string, call string) int {
	for i, c := range calls {
		if c == call {
			return i
		}
	}
	return -1
}

func lastIndexOf(calls []string, call string) int {
	for i := len(calls) - 1; i >= 0; i-- {
		if calls[i] == call {
			return i
		}
	}
	return -1
}

func TestNewValidation(t *testing.T) {
	t.Parallel()
	valid := newHarness().opts

	tests := []struct {
		name    string
		mutate  func(*Options)
		wantErr string
	}{
		{"missing project", func(o *Options) { o.Identity.Project = "" }, "project name is required"},
		{"missing stack", func(o *Options) { o.Identity.Stack = "" }, "stack name is required"},
		{"missing workspace", func(o *Options) { o.Workspace = nil }, "workspace is required"},
		{"missing records", func(o *Options) { o.Records = nil }, "record store is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			opts := valid
			tt.mutate(&opts)
			_, err := New(opts)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestNewAppliesDefaults(t *testing.T) {
	t.Parallel()
	h := newHarness()
	h.opts.DestroyMaxAttempts = 0
	h.opts.DestroyRetryInterval = 0
	h.opts.Classifier = nil
	o := h.orchestrator(t)

	assert.Equal(t, DefaultDestroyMaxAttempts, o.opts.DestroyMaxAttempts)
	assert.Equal(t, DefaultDestroyRetryInterval, o.opts.DestroyRetryInterval)
	assert.Equal(t, DefaultParallel, o.opts.Parallel)
	assert.NotNil(t, o.classifier)
	assert.Equal(t, StateUnloaded, o.State())
}

func TestDeploy_Sequence(t *testing.T) {
	t.Parallel()
	h := newHarness()
	o := h.orchestrator(t)
	o.AddOption("azure-native:location", "uksouth", true)
	o.AddSecret("db-password", "p4ss", false)

	require.NoError(t, o.Deploy(context.Background(), false))
	assert.Equal(t, StateUpdated, o.State())

	calls := h.backend.Calls
	assert.Equal(t, 1, h.workspace.Calls)
	assert.Equal(t, "sub", h.workspace.Env["ARM_SUBSCRIPTION_ID"])
	assert.Equal(t, "install-plugin", calls[0])
	assert.Less(t, lastIndexOf(calls, "set-config"), indexOf(calls, "refresh"), "config must be flushed before refresh")
	assert.Less(t, indexOf(calls, "refresh"), indexOf(calls, "preview"))
	assert.Less(t, indexOf(calls, "preview"), indexOf(calls, "up"))
	assert.Equal(t, 0, h.backend.count("destroy"))

	require.Len(t, h.backend.RefreshOpts, 1)
	assert.Equal(t, RefreshOptions{Parallel: 1}, h.backend.RefreshOpts[0])
	require.Len(t, h.backend.PreviewOpts, 1)
	assert.Equal(t, PreviewOptions{Parallel: 1, Diff: true}, h.backend.PreviewOpts[0])

	assert.Equal(t, float64(1), testutil.ToFloat64(o.opts.Metrics.operations.WithLabelValues(testStack, "update", "success")))
}

func TestDeploy_ExampleScenario(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		existing   map[string]ConfigValue
		wantSecret string
	}{
		{
			name:       "password not yet set",
			wantSecret: "p4ss",
		},
		{
			name:       "password already set remotely",
			existing:   map[string]ConfigValue{"db-password": {Value: "0ld-p4ss", Secret: true}},
			wantSecret: "0ld-p4ss",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			h := newHarness()
			for k, v := range tt.existing {
				h.backend.Config[k] = v
			}
			o := h.orchestrator(t)
			o.AddOption("azure-native:location", "uksouth", true)
			o.AddSecret("db-password", "p4ss", false)

			ctx := context.Background()
			require.NoError(t, o.Deploy(ctx, false))

			name, err := o.Output(ctx, "storage_account_name")
			require.NoError(t, err)
			assert.NotEmpty(t, name)

			secret, err := o.Secret(ctx, "db-password")
			require.NoError(t, err)
			assert.Equal(t, tt.wantSecret, secret)

			location, err := o.Secret(ctx, "azure-native:location")
			require.NoError(t, err)
			assert.Equal(t, "uksouth", location)

			// The stack handle is built once per orchestrator.
			assert.Equal(t, 1, h.workspace.Calls)
			assert.Equal(t, 0, h.backend.count("outputs"), "outputs come from the update result")
		})
	}
}

func TestDeploy_Idempotent(t *testing.T) {
	t.Parallel()
	h := newHarness()
	ctx := context.Background()

	deploy := func() {
		o := h.orchestrator(t)
		o.AddOption("azure-native:location", "uksouth", true)
		o.AddSecret("db-password", "p4ss", false)
		require.NoError(t, o.Deploy(ctx, false))
		assert.Equal(t, StateUpdated, o.State())
	}

	deploy()
	writes := h.backend.count("set-config")
	assert.Equal(t, 2, writes)

	deploy()
	assert.Equal(t, writes, h.backend.count("set-config"), "second deploy must not rewrite config")
	assert.Equal(t, 2, h.backend.count("up"))
}

func TestDeploy_PersistsRecord(t *testing.T) {
	t.Parallel()
	h := newHarness()
	h.backend.EncryptedKey = "v1:abc"
	o := h.orchestrator(t)
	o.AddOption("azure-native:location", "uksouth", true)
	o.AddSecret("db-password", "p4ss", false)

	require.NoError(t, o.Deploy(context.Background(), false))

	rec := h.records.Records[testProject+"/"+testStack]
	require.NotNil(t, rec)
	assert.Equal(t, testStack, rec.StackName)
	assert.Equal(t, "v1:abc", rec.EncryptedKey, "key is adopted on first load")
	assert.Equal(t, map[string]string{
		"azure-native:location": "uksouth",
		"db-password":           SecretPlaceholder,
	}, rec.Config)
}

func TestDeploy_EncryptedKeyMismatch(t *testing.T) {
	t.Parallel()
	h := newHarness()
	h.records.Records[testProject+"/"+testStack] = &Record{StackName: testStack, EncryptedKey: "A"}
	h.backend.EncryptedKey = "B"
	o := h.orchestrator(t)
	o.AddOption("azure-native:location", "uksouth", true)

	err := o.Deploy(context.Background(), false)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConsistency)
	var lerr *LifecycleError
	require.ErrorAs(t, err, &lerr)
	assert.Equal(t, StepLoad, lerr.Step)

	assert.Equal(t, StateUnloaded, o.State())
	for _, call := range []string{"get-config", "set-config", "refresh", "preview", "up"} {
		assert.Equal(t, 0, h.backend.count(call), "%s must not run after a key mismatch", call)
	}
	assert.Equal(t, "A", h.records.Records[testProject+"/"+testStack].EncryptedKey)
}

func TestDeploy_MatchingKeyIsAccepted(t *testing.T) {
	t.Parallel()
	h := newHarness()
	h.records.Records[testProject+"/"+testStack] = &Record{StackName: testStack, EncryptedKey: "key-a"}
	o := h.orchestrator(t)

	require.NoError(t, o.Deploy(context.Background(), false))
}

func TestDeploy_LoadFailures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		setup func(*harness)
	}{
		{
			name:  "workspace cannot create stack",
			setup: func(h *harness) { h.workspace.Err = errors.New("error: invalid Pulumi.yaml") },
		},
		{
			name: "plugin install fails",
			setup: func(h *harness) {
				h.backend.InstallPluginFunc = func(context.Context, string, string) error {
					return errors.New("error: plugin not found")
				}
			},
		},
		{
			name:  "credentials cannot be resolved",
			setup: func(h *harness) { h.opts.Credentials = failingCredentials{} },
		},
		{
			name:  "record store unreadable",
			setup: func(h *harness) { h.records.GetErr = errors.New("AccessDenied") },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			h := newHarness()
			tt.setup(h)
			o := h.orchestrator(t)

			err := o.Deploy(context.Background(), false)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrLoad)
			assert.LessOrEqual(t, h.workspace.Calls, 1, "load is never retried")
			assert.Equal(t, 0, h.backend.count("refresh"))
		})
	}
}

func TestDeploy_ConfigApplicationError(t *testing.T) {
	t.Parallel()
	h := newHarness()
	h.backend.SetConfigFunc = func(context.Context, string, ConfigValue) error {
		return errors.New("error: secrets provider unavailable")
	}
	o := h.orchestrator(t)
	o.AddSecret("db-password", "p4ss", true)

	err := o.Deploy(context.Background(), false)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConfigApplication)
	assert.Contains(t, err.Error(), "configure step")
	assert.Contains(t, err.Error(), "secrets provider unavailable")
	assert.Equal(t, 0, h.backend.count("refresh"))
}

func TestDeploy_RefreshFailureIsFatal(t *testing.T) {
	t.Parallel()
	h := newHarness()
	h.backend.RefreshFunc = func(context.Context, RefreshOptions) error {
		return fmt.Errorf("exit status 255\nerror: %w", conflictErr)
	}
	o := h.orchestrator(t)

	err := o.Deploy(context.Background(), false)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRefresh)
	assert.Equal(t, 1, h.backend.count("refresh"), "refresh is not retried even for conflicts")
	assert.Equal(t, 0, h.backend.count("preview"))
	assert.Equal(t, 0, h.backend.count("up"))
}

func TestDeploy_PreviewFailureIsIgnored(t *testing.T) {
	t.Parallel()
	h := newHarness()
	h.backend.PreviewFunc = func(context.Context, PreviewOptions) error {
		return errors.New("error: preview failed")
	}
	o := h.orchestrator(t)

	require.NoError(t, o.Deploy(context.Background(), false))
	assert.Equal(t, 1, h.backend.count("up"))
	assert.Equal(t, float64(1), testutil.ToFloat64(o.opts.Metrics.operations.WithLabelValues(testStack, "preview", "ignored")))
}

func TestDeploy_UpdateFailures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		up      func(context.Context) (UpResult, error)
		wantMsg string
	}{
		{
			name: "command error",
			up: func(context.Context) (UpResult, error) {
				return UpResult{}, errors.New("error: update failed\n  error: quota exceeded")
			},
			wantMsg: "quota exceeded",
		},
		{
			name: "unsuccessful summary",
			up: func(context.Context) (UpResult, error) {
				return UpResult{Summary: Summary{Result: "failed"}}, nil
			},
			wantMsg: `update finished with result "failed"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			h := newHarness()
			h.backend.UpFunc = tt.up
			o := h.orchestrator(t)

			err := o.Deploy(context.Background(), false)

			require.Error(t, err)
			assert.ErrorIs(t, err, ErrUpdate)
			assert.Contains(t, err.Error(), tt.wantMsg)
			assert.Equal(t, 1, h.backend.count("up"), "update is never retried")
			assert.NotEqual(t, StateUpdated, o.State())
		})
	}
}

func TestDeploy_ForceCancelsFirst(t *testing.T) {
	t.Parallel()
	h := newHarness()
	o := h.orchestrator(t)

	require.NoError(t, o.Deploy(context.Background(), true))

	calls := h.backend.Calls
	assert.Less(t, indexOf(calls, "cancel"), indexOf(calls, "refresh"))
	require.Len(t, h.backend.RefreshOpts, 2)
	assert.True(t, h.backend.RefreshOpts[0].ClearPendingCreates, "repair pass clears pending creates")
	assert.False(t, h.backend.RefreshOpts[1].ClearPendingCreates)
	assert.Equal(t, StateUpdated, o.State())
}

func TestCancel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		cancelErr error
		repairErr error
		wantErr   bool
	}{
		{name: "cancel succeeds"},
		{name: "nothing running", cancelErr: errors.New("error: no update in progress")},
		{name: "repair cannot reconcile", repairErr: errors.New("error: resource in unknown state")},
		{name: "cancel fails", cancelErr: errors.New("error: backend unreachable"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			h := newHarness()
			h.backend.CancelFunc = func(context.Context) error { return tt.cancelErr }
			h.backend.RefreshFunc = func(context.Context, RefreshOptions) error { return tt.repairErr }
			o := h.orchestrator(t)

			err := o.Cancel(context.Background())

			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrCancellation)
				assert.Equal(t, 0, h.backend.count("refresh"))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, StateLoaded, o.State())
			require.Len(t, h.backend.RefreshOpts, 1)
			assert.True(t, h.backend.RefreshOpts[0].ClearPendingCreates)
		})
	}
}

func TestTeardown_Succeeds(t *testing.T) {
	t.Parallel()
	h := newHarness()
	h.records.Records[testProject+"/"+testStack] = &Record{StackName: testStack, EncryptedKey: "key-a"}
	o := h.orchestrator(t)

	require.NoError(t, o.Teardown(context.Background(), false))

	calls := h.backend.Calls
	assert.Less(t, indexOf(calls, "refresh"), indexOf(calls, "destroy"), "destroy only after refresh")
	assert.Less(t, indexOf(calls, "destroy"), indexOf(calls, "remove-stack"), "cleanup only after destroy")
	assert.Equal(t, []string{backupKey}, h.blobs.Deleted)
	assert.Equal(t, []string{"kv-shm-acme-sre-sandbox"}, h.purger.Purged)
	assert.NotContains(t, h.records.Records, testProject+"/"+testStack)
	assert.Equal(t, StateCleaned, o.State())
	assert.Equal(t, 0, h.backend.count("up"))
}

func TestTeardown_RetriesTransientConflicts(t *testing.T) {
	t.Parallel()
	h := newHarness()
	attempts := 0
	h.backend.DestroyFunc = func(context.Context) (DestroyResult, error) {
		attempts++
		if attempts <= 3 {
			return DestroyResult{}, conflictErr
		}
		return DestroyResult{Summary: Summary{Result: ResultSucceeded}}, nil
	}
	o := h.orchestrator(t)

	require.NoError(t, o.Teardown(context.Background(), false))

	assert.Equal(t, 4, h.backend.count("destroy"))
	assert.Equal(t, StateCleaned, o.State())
	assert.Equal(t, float64(3), testutil.ToFloat64(o.opts.Metrics.destroyRetries.WithLabelValues(testStack)))
}

func TestTeardown_NonMatchingErrorIsNotRetried(t *testing.T) {
	t.Parallel()
	h := newHarness()
	h.backend.DestroyFunc = func(context.Context) (DestroyResult, error) {
		return DestroyResult{}, errors.New("error: AuthorizationFailed: client lacks permission")
	}
	o := h.orchestrator(t)

	err := o.Teardown(context.Background(), false)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDestroy)
	assert.Contains(t, err.Error(), "AuthorizationFailed")
	assert.Equal(t, 1, h.backend.count("destroy"))
	assert.Equal(t, 0, h.backend.count("remove-stack"), "cleanup must not run after a failed destroy")
	assert.Equal(t, float64(0), testutil.ToFloat64(o.opts.Metrics.destroyRetries.WithLabelValues(testStack)))
}

func TestTeardown_ConflictRetriesAreBounded(t *testing.T) {
	t.Parallel()
	h := newHarness()
	h.opts.DestroyMaxAttempts = 3
	h.backend.DestroyFunc = func(context.Context) (DestroyResult, error) {
		return DestroyResult{}, conflictErr
	}
	o := h.orchestrator(t)

	err := o.Teardown(context.Background(), false)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDestroy)
	assert.Contains(t, err.Error(), "after 3 attempts")
	assert.Equal(t, 3, h.backend.count("destroy"))
	assert.Equal(t, 0, h.backend.count("remove-stack"))
}

func TestTeardown_UnsuccessfulDestroySummary(t *testing.T) {
	t.Parallel()
	h := newHarness()
	h.backend.DestroyFunc = func(context.Context) (DestroyResult, error) {
		return DestroyResult{Summary: Summary{Result: "failed"}}, nil
	}
	o := h.orchestrator(t)

	err := o.Teardown(context.Background(), false)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDestroy)
	assert.Equal(t, 1, h.backend.count("destroy"))
}

func TestTeardown_CleanupToleratesAbsentStack(t *testing.T) {
	t.Parallel()
	h := newHarness()
	h.backend.RemoveStackFunc = func(context.Context) error {
		return errors.New("error: no stack named 'shm-acme-sre-sandbox' found")
	}
	h.purger.Err = ErrAbsent
	o := h.orchestrator(t)

	require.NoError(t, o.Teardown(context.Background(), false))
	assert.Equal(t, []string{backupKey}, h.blobs.Deleted, "backup removal still runs")
	assert.Len(t, h.purger.Purged, 1, "vault purge still runs")
}

func TestTeardown_CleanupFailureReportsCompletedSteps(t *testing.T) {
	t.Parallel()
	h := newHarness()
	h.purger.Err = errors.New("AuthorizationFailed: purge not permitted")
	o := h.orchestrator(t)

	err := o.Teardown(context.Background(), false)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCleanup)
	var lerr *LifecycleError
	require.ErrorAs(t, err, &lerr)
	assert.Equal(t, StepCleanup, lerr.Step)

	var cerr *CleanupError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, []string{CleanupRemoveStack, CleanupStateBackup}, cerr.Completed)
	assert.Equal(t, CleanupPurgeVault, cerr.Failed)
	assert.Contains(t, err.Error(), "remove-stack, remove-state-backup")
	assert.Contains(t, h.records.Records, testProject+"/"+testStack, "record is kept when cleanup fails")
}

func TestTeardown_RecordRemovalFailure(t *testing.T) {
	t.Parallel()
	h := newHarness()
	h.records.DeleteErr = errors.New("AccessDenied")
	o := h.orchestrator(t)

	err := o.Teardown(context.Background(), false)

	var cerr *CleanupError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, stepForgetRecord, cerr.Failed)
	assert.Len(t, cerr.Completed, 3)
}

func TestOutput(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("read from engine once before any update", func(t *testing.T) {
		t.Parallel()
		h := newHarness()
		o := h.orchestrator(t)

		v, err := o.Output(ctx, "storage_account_name")
		require.NoError(t, err)
		assert.Equal(t, "shmacmesresandbox01", v)

		_, err = o.Output(ctx, "storage_account_name")
		require.NoError(t, err)
		assert.Equal(t, 1, h.backend.count("outputs"))
	})

	t.Run("unknown output", func(t *testing.T) {
		t.Parallel()
		h := newHarness()
		o := h.orchestrator(t)
		require.NoError(t, o.Deploy(ctx, false))

		_, err := o.Output(ctx, "missing")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("update replaces cached outputs", func(t *testing.T) {
		t.Parallel()
		h := newHarness()
		o := h.orchestrator(t)
		_, err := o.Output(ctx, "storage_account_name")
		require.NoError(t, err)

		h.backend.StackOutputs = Outputs{"storage_account_name": "renamed"}
		require.NoError(t, o.Deploy(ctx, false))

		v, err := o.Output(ctx, "storage_account_name")
		require.NoError(t, err)
		assert.Equal(t, "renamed", v)
	})
}

func TestSecretNotFound(t *testing.T) {
	t.Parallel()
	h := newHarness()
	o := h.orchestrator(t)

	_, err := o.Secret(context.Background(), "never-set")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLifecycleErrorMessage(t *testing.T) {
	t.Parallel()
	err := newLifecycleError(StepDestroy, ErrDestroy, testStack,
		errors.New("exit status 1"), []string{"error: InUseSubnetCannotBeDeleted"})

	assert.Equal(t,
		"stack shm-acme-sre-sandbox: destroy step: destroy failed: exit status 1\n  error: InUseSubnetCannotBeDeleted",
		err.Error())
	assert.ErrorIs(t, err, ErrDestroy)

	bare := newLifecycleError(StepRefresh, ErrRefresh, testStack, errors.New("boom"), nil)
	assert.Equal(t, "stack shm-acme-sre-sandbox: refresh step: refresh failed: boom", bare.Error())

	single := errors.New("error: stack is locked")
	dedup := newLifecycleError(StepUpdate, ErrUpdate, testStack, single, []string{"error: stack is locked"})
	assert.Equal(t, "stack shm-acme-sre-sandbox: update step: update failed: error: stack is locked", dedup.Error())
}

func TestTeardown_MultiLineFailuresKeepStepContext(t *testing.T) {
	t.Parallel()
	azureErr := errors.New("POST https://management.azure.com/subscriptions/sub/providers/Microsoft.KeyVault/locations/uksouth/deletedVaults/kv-x/purge\n" +
		"--------------------------------------------------------------------------------\n" +
		"RESPONSE 403: 403 Forbidden\n" +
		"ERROR CODE: AuthorizationFailed\n" +
		"--------------------------------------------------------------------------------")
	multiConflict := fmt.Errorf("exit status 1\nstderr: %w", conflictErr)

	tests := []struct {
		name  string
		setup func(h *harness)
		kind  error
		want  []string
	}{
		{
			name: "cleanup failure names completed and failed steps",
			setup: func(h *harness) {
				h.purger.Err = azureErr
			},
			kind: ErrCleanup,
			want: []string{
				"remove-stack, remove-state-backup",
				CleanupPurgeVault,
				"ERROR CODE: AuthorizationFailed",
			},
		},
		{
			name: "exhausted destroy reports attempt count",
			setup: func(h *harness) {
				h.opts.DestroyMaxAttempts = 3
				h.backend.DestroyFunc = func(context.Context) (DestroyResult, error) {
					return DestroyResult{}, multiConflict
				}
			},
			kind: ErrDestroy,
			want: []string{
				"after 3 attempts",
				"InUseSubnetCannotBeDeleted",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			h := newHarness()
			tt.setup(h)
			o := h.orchestrator(t)

			err := o.Teardown(context.Background(), false)

			require.Error(t, err)
			assert.ErrorIs(t, err, tt.kind)
			for _, want := range tt.want {
				assert.Contains(t, err.Error(), want)
			}
		})
	}
}

func TestStateString(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "unloaded", StateUnloaded.String())
	assert.Equal(t, "cleaned", StateCleaned.String())
	assert.Equal(t, "state(42)", State(42).String())
}
