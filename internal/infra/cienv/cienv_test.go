package cienv

import "testing"

func TestLoad(t *testing.T) {
	t.Setenv("CI", "true")
	t.Setenv("COVRIG_BRANCH", "main")
	t.Setenv("COVRIG_JOB_ID", "42.1")
	t.Setenv("COVRIG_COMMIT", "abc1234")
	t.Setenv("COVRIG_REPO_TOKEN", "tok")
	t.Setenv("COVRIG_RUNTIME_VERSION", "3.6")

	m, err := Load()
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}

	if !m.CI {
		t.Fatalf("expected CI=true")
	}
	if m.Service != "covrig" {
		t.Fatalf("expected default service=covrig, got=%s", m.Service)
	}
	if m.Branch != "main" || m.JobID != "42.1" || m.Commit != "abc1234" {
		t.Fatalf("unexpected meta: %+v", m)
	}
	if m.RuntimeVersion != "3.6" {
		t.Fatalf("expected runtime=3.6, got=%s", m.RuntimeVersion)
	}

	um := m.UploadMeta()
	if um.ServiceName != "covrig" || um.Branch != "main" {
		t.Fatalf("unexpected upload meta: %+v", um)
	}
}
