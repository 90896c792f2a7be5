package handlers

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/imamik/safehaven/internal/config"
	"github.com/imamik/safehaven/internal/credentials"
	"github.com/imamik/safehaven/internal/logging"
	"github.com/imamik/safehaven/internal/platform/keyvault"
	"github.com/imamik/safehaven/internal/platform/pulumi"
	"github.com/imamik/safehaven/internal/platform/s3"
	"github.com/imamik/safehaven/internal/stack"
	"github.com/imamik/safehaven/internal/util/keygen"
	"github.com/imamik/safehaven/internal/util/prerequisites"
)

// Lifecycle is the orchestrator surface the handlers use.
type Lifecycle interface {
	Identity() stack.Identity
	AddOption(name, value string, replace bool)
	AddSecret(name, value string, replace bool)
	Deploy(ctx context.Context, force bool) error
	Teardown(ctx context.Context, force bool) error
	Cancel(ctx context.Context) error
	Output(ctx context.Context, name string) (any, error)
	Secret(ctx context.Context, name string) (string, error)
}

// Factory function variables - can be replaced in tests.
var (
	loadSettings    = config.LoadSettings
	loadConfig      = config.Load
	newLogger       = logging.New
	newOrchestrator = buildOrchestrator
	generateValue   = keygen.Generate
	checkTools      = prerequisites.CheckEngine

	stdout io.Writer = os.Stdout
)

// session is one CLI invocation against one stack.
type session struct {
	cfg         *config.Config
	log         zerolog.Logger
	orch        Lifecycle
	registry    *prometheus.Registry
	metricsFile string
}

func setup(ctx context.Context, configPath string) (*session, error) {
	settings, err := loadSettings()
	if err != nil {
		return nil, err
	}

	log, err := newLogger(logging.Options{Level: settings.LogLevel, Format: settings.LogFormat})
	if err != nil {
		return nil, err
	}
	log = log.With().Str("run_id", uuid.NewString()).Logger()

	tools := checkTools()
	if err := tools.Err(); err != nil {
		return nil, err
	}
	for _, tool := range tools.MissingOptional() {
		log.Warn().
			Str("tool", tool.Name).
			Str("purpose", tool.Purpose).
			Str("install", tool.InstallURL).
			Msg("optional tool not found")
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		return nil, err
	}
	settings.Apply(cfg)

	registry := prometheus.NewRegistry()
	orch, err := newOrchestrator(ctx, cfg, settings, registry, log)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare stack %s: %w", cfg.StackName(), err)
	}

	return &session{
		cfg:         cfg,
		log:         log,
		orch:        orch,
		registry:    registry,
		metricsFile: settings.MetricsFile,
	}, nil
}

// writeMetrics exports the run's metrics when a metrics file is configured.
// A failed write is logged and does not change the command's outcome.
func (s *session) writeMetrics() {
	if s.metricsFile == "" {
		return
	}
	if err := prometheus.WriteToTextfile(s.metricsFile, s.registry); err != nil {
		s.log.Warn().Err(err).Str("path", s.metricsFile).Msg("failed to write metrics file")
		return
	}
	s.log.Debug().Str("path", s.metricsFile).Msg("metrics written")
}

// stateBucket is the part of the state client used by the preflight check.
type stateBucket interface {
	Bucket() string
	BucketExists(ctx context.Context) (bool, error)
}

// checkStateBucket fails before any stack is touched when the state bucket
// is missing or unreachable.
func checkStateBucket(ctx context.Context, b stateBucket) error {
	exists, err := b.BucketExists(ctx)
	if err != nil {
		return fmt.Errorf("state bucket is not reachable: %w", err)
	}
	if !exists {
		return fmt.Errorf("state bucket %s does not exist, create it before running safehaven", b.Bucket())
	}
	return nil
}

// buildOrchestrator wires the orchestrator to Azure, the state bucket and
// the engine project described by cfg.
func buildOrchestrator(ctx context.Context, cfg *config.Config, settings *config.Settings, registry *prometheus.Registry, log zerolog.Logger) (Lifecycle, error) {
	creds, err := credentials.NewDefault(credentials.Options{
		SubscriptionID: cfg.Azure.SubscriptionID,
		TenantID:       cfg.Azure.TenantID,
		State: credentials.StateBackend{
			Endpoint:  cfg.State.Endpoint,
			Region:    cfg.State.Region,
			Bucket:    cfg.State.Bucket,
			AccessKey: cfg.State.AccessKey,
			SecretKey: cfg.State.SecretKey,
		},
		TTL: settings.CredentialTTL,
	})
	if err != nil {
		return nil, err
	}

	bucket, err := s3.NewClient(ctx, s3.Options{
		Endpoint:  cfg.State.Endpoint,
		Region:    cfg.State.Region,
		AccessKey: cfg.State.AccessKey,
		SecretKey: cfg.State.SecretKey,
		Bucket:    cfg.State.Bucket,
		PathStyle: cfg.State.Endpoint != "",
	})
	if err != nil {
		return nil, err
	}
	if err := checkStateBucket(ctx, bucket); err != nil {
		return nil, err
	}

	ws, err := pulumi.NewWorkspace(cfg.ProjectDir, cfg.SecretsProvider, log)
	if err != nil {
		return nil, err
	}

	targets := stack.CleanupTargets{}
	if !cfg.Cleanup.KeepStateBackup {
		targets.Blobs = bucket
		targets.BackupKey = cfg.StateBackupKey()
	}
	if cfg.Cleanup.PurgeKeyVault {
		vaults, err := keyvault.NewARMVaults(cfg.Azure.SubscriptionID, creds.Credential())
		if err != nil {
			return nil, err
		}
		targets.Vaults = keyvault.NewPurger(vaults, cfg.Azure.Location, log)
		targets.VaultName = cfg.KeyVaultName()
	}

	orch, err := stack.New(stack.Options{
		Identity:             cfg.Identity(),
		Workspace:            ws,
		Credentials:          creds,
		Records:              s3.NewRecordStore(bucket, cfg.State.Prefix),
		Cleanup:              targets,
		Plugins:              cfg.Plugins,
		Metrics:              stack.NewMetrics(registry),
		Logger:               log,
		DestroyMaxAttempts:   settings.DestroyMaxAttempts,
		DestroyRetryInterval: settings.DestroyRetryInterval,
	})
	if err != nil {
		return nil, err
	}
	return orch, nil
}
