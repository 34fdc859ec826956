package svcwrap

import "testing"

func TestOperationString(t *testing.T) {
	tests := []struct {
		op   Operation
		want string
	}{
		{OpUnknown, "unknown"},
		{OpResolve, "resolve"},
		{OpDownload, "download"},
		{OpVerify, "verify"},
		{OpSpawn, "spawn"},
		{OpStart, "start"},
		{OpKill, "kill"},
		{OpStop, "stop"},
		{OpStatus, "status"},
		{OpPurge, "purge"},
		{OpConfig, "config"},
		{Operation(99), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.op.String(); got != tt.want {
			t.Errorf("Operation(%d).String() = %q, want %q", tt.op, got, tt.want)
		}
	}
}

func TestStateString(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StateStopped, "stopped"},
		{StateStarting, "starting"},
		{StateRunning, "running"},
		{StateStopping, "stopping"},
		{StateFailed, "failed"},
		{State(42), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("State(%d).String() = %q, want %q", tt.state, got, tt.want)
		}
	}

	if !StateStarting.transitional() || !StateStopping.transitional() {
		t.Error("starting and stopping are transitional")
	}
	if StateRunning.transitional() || StateStopped.transitional() {
		t.Error("running and stopped are not transitional")
	}
}

func TestGetVersion(t *testing.T) {
	info := GetVersion()
	if info.Version != Version {
		t.Errorf("Version = %s, want %s", info.Version, Version)
	}
	if info.HealthPath != HealthPath {
		t.Errorf("HealthPath = %s, want %s", info.HealthPath, HealthPath)
	}
}
