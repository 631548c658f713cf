package taskpool

import "testing"

func TestValidateConfig_Defaults(t *testing.T) {
	cfg := defaultConfig()
	if err := validateConfig(&cfg); err != nil {
		t.Fatalf("validateConfig returned error for defaults: %v", err)
	}
}

func TestDefaultConfig_Values(t *testing.T) {
	cfg := defaultConfig()
	if cfg.WorkerCount != 1 {
		t.Fatalf("WorkerCount default = %d; want 1", cfg.WorkerCount)
	}
	if cfg.ArgumentMode != ModeSingle {
		t.Fatalf("ArgumentMode default = %q; want %q", cfg.ArgumentMode, ModeSingle)
	}
	if cfg.ExceptionPolicy != PolicyImmediate {
		t.Fatalf("ExceptionPolicy default = %q; want %q", cfg.ExceptionPolicy, PolicyImmediate)
	}
	if !cfg.Bounded {
		t.Fatalf("Bounded default = %v; want true", cfg.Bounded)
	}
	if cfg.Unordered {
		t.Fatalf("Unordered default = %v; want false", cfg.Unordered)
	}
	if cfg.UseThreads {
		t.Fatalf("UseThreads default = %v; want false", cfg.UseThreads)
	}
}

func TestValidateConfig_Rejections(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"zero worker count", Config{WorkerCount: 0, ArgumentMode: ModeSingle, ExceptionPolicy: PolicyIgnore}},
		{"negative worker count", Config{WorkerCount: -1, ArgumentMode: ModeSingle, ExceptionPolicy: PolicyIgnore}},
		{"unknown argument mode", Config{WorkerCount: 1, ArgumentMode: "bogus", ExceptionPolicy: PolicyIgnore}},
		{"unknown exception policy", Config{WorkerCount: 1, ArgumentMode: ModeSingle, ExceptionPolicy: "bogus"}},
		{"negative chunk size", Config{WorkerCount: 1, ArgumentMode: ModeSingle, ExceptionPolicy: PolicyIgnore, ChunkSize: -1}},
		{"negative prefill ratio", Config{WorkerCount: 1, ArgumentMode: ModeSingle, ExceptionPolicy: PolicyIgnore, ChunkPrefillRatio: -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.cfg
			if err := validateConfig(&cfg); err == nil {
				t.Fatalf("validateConfig(%+v) = nil; want error", cfg)
			}
		})
	}
}
