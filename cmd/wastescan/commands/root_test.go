package commands

import "testing"

func TestRootCommandRegistersScanSubcommand(t *testing.T) {
	found := false
	for _, c := range rootCmd.Commands() {
		if c.Name() == "scan" {
			found = true
		}
	}
	if !found {
		t.Fatal("expected \"scan\" to be registered as a subcommand of the root command")
	}
}

func TestRootCommandDefaultConcurrencyFlags(t *testing.T) {
	regionFlag := rootCmd.PersistentFlags().Lookup("region-concurrency")
	if regionFlag == nil {
		t.Fatal("expected a --region-concurrency flag")
	}
	if regionFlag.DefValue != "8" {
		t.Fatalf("--region-concurrency default = %s, want 8", regionFlag.DefValue)
	}

	adapterFlag := rootCmd.PersistentFlags().Lookup("adapter-concurrency")
	if adapterFlag == nil {
		t.Fatal("expected an --adapter-concurrency flag")
	}
	if adapterFlag.DefValue != "16" {
		t.Fatalf("--adapter-concurrency default = %s, want 16", adapterFlag.DefValue)
	}
}

func TestRootCommandHasJSONAndStrictFlags(t *testing.T) {
	for _, name := range []string{"json", "strict", "verbose", "rules", "regions", "account", "profile"} {
		if rootCmd.PersistentFlags().Lookup(name) == nil {
			t.Fatalf("expected a --%s persistent flag", name)
		}
	}
}
