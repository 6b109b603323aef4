package app

import (
	"context"
	"os"
	"testing"

	"github.com/vk/compstash/internal/hcl_adapter"
	"github.com/vk/compstash/internal/host"
	"github.com/vk/compstash/internal/hostlink"
	"github.com/vk/compstash/internal/registry"
	"github.com/vk/compstash/internal/testutil"
)

// SetupAppTest creates a new app instance for command tests.
func SetupAppTest(t *testing.T, appConfig *Config, modules ...registry.Module) (*App, *testutil.SafeBuffer, *testutil.SafeBuffer) {
	t.Helper()

	out := &testutil.SafeBuffer{}
	logs := &testutil.SafeBuffer{}
	appConfig.LogLevel = "debug"
	testApp := NewApp(out, logs, appConfig, hcl_adapter.NewLoader(), modules...)

	t.Cleanup(func() {
		if os.Getenv("COMPSTASH_TEST_LOGS") == "true" {
			t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logs.String())
		}
	})

	return testApp, out, logs
}

// fixedHost returns a HostDialer handing out h.
func fixedHost(h host.Host) HostDialer {
	return func(_ context.Context, _ hostlink.Options) (host.Host, func() error, error) {
		return h, func() error { return nil }, nil
	}
}
