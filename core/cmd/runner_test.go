package cmd

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	coreconfig "github.com/m3rciful/fishbot/core/config"
	coretelegram "github.com/m3rciful/fishbot/core/telegram"
)

type carrier struct{ cfg *coreconfig.Config }

func (c carrier) CoreConfig() *coreconfig.Config { return c.cfg }

type app struct{ opts coretelegram.RunOptions }

func (a app) TelegramRunOptions() (coretelegram.RunOptions, error) { return a.opts, nil }

func TestRunWiresLifecycleHooks(t *testing.T) {
	t.Setenv("FISHBOT_TEST_CONFIG", "from-env.yaml")

	var (
		loadedPath string
		started    bool
		stopped    bool
	)
	err := Run(Options{
		ConfigEnvVar:      "FISHBOT_TEST_CONFIG",
		DefaultConfigPath: "default.yaml",
		LoadConfig: func(path string) (ConfigCarrier, error) {
			loadedPath = path
			return carrier{cfg: &coreconfig.Config{}}, nil
		},
		Bootstrap: func(ConfigCarrier) (TelegramApp, error) {
			return app{opts: coretelegram.RunOptions{
				OnStart: func(context.Context, coretelegram.Runtime) error { started = true; return nil },
				OnStop:  func(context.Context, coretelegram.Runtime) error { stopped = true; return nil },
			}}, nil
		},
		ShutdownLogger: func() error { return nil },
		RunTelegram: func(ctx context.Context, opts coretelegram.RunOptions) error {
			if err := opts.OnStart(ctx, coretelegram.Runtime{}); err != nil {
				return err
			}
			return opts.OnStop(ctx, coretelegram.Runtime{})
		},
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if loadedPath != "from-env.yaml" {
		t.Fatalf("config path = %q, want env override", loadedPath)
	}
	if !started || !stopped {
		t.Fatalf("hooks not chained: started=%v stopped=%v", started, stopped)
	}
}

func TestRunFailsOnBootstrapError(t *testing.T) {
	boom := errors.New("boom")
	err := Run(Options{
		DefaultConfigPath: "config.yaml",
		LoadConfig: func(string) (ConfigCarrier, error) {
			return carrier{cfg: &coreconfig.Config{}}, nil
		},
		Bootstrap: func(ConfigCarrier) (TelegramApp, error) { return nil, boom },
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected bootstrap error, got %v", err)
	}
}

func TestLoadDotEnvKeepsExistingValues(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("FISHBOT_DOTENV_A=file\nFISHBOT_DOTENV_B=file\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("FISHBOT_DOTENV_A", "env")
	t.Cleanup(func() { os.Unsetenv("FISHBOT_DOTENV_B") })

	loadDotEnv([]string{filepath.Join(dir, "missing.env"), path})

	if got := os.Getenv("FISHBOT_DOTENV_A"); got != "env" {
		t.Fatalf("existing env overwritten: %q", got)
	}
	if got := os.Getenv("FISHBOT_DOTENV_B"); got != "file" {
		t.Fatalf("dotenv value not loaded: %q", got)
	}
}
