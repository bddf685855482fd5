package deviceplugin

import "testing"

func TestBuildEnvNamespacesPerDeviceKeys(t *testing.T) {
	perDevice := map[string]perDeviceEnv{
		"d0": {InstanceShortHash: "abc0000000", Properties: map[string]string{"role": "a"}},
		"d1": {InstanceShortHash: "def0000000", Properties: map[string]string{"role": "b"}},
	}
	env := BuildEnv(perDevice, nil)
	if env["ROLE_abc0000000"] != "a" || env["ROLE_def0000000"] != "b" {
		t.Fatalf("expected namespaced ROLE env vars, got %v", env)
	}
	if _, bare := env["ROLE"]; bare {
		t.Fatalf("bare ROLE must never appear when a per-device property collides with it")
	}
}

func TestBuildEnvExposesUnambiguousStaticKeys(t *testing.T) {
	perDevice := map[string]perDeviceEnv{
		"d0": {InstanceShortHash: "abc0000000", Properties: map[string]string{"role": "a"}},
	}
	static := map[string]string{"region": "us-west"}
	env := BuildEnv(perDevice, static)
	if env["REGION"] != "us-west" {
		t.Fatalf("expected bare REGION env var, got %v", env)
	}
}
