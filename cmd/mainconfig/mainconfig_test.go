package mainconfig

import (
	"context"
	"testing"

	appconfig "github.com/medexa/medexa-platform/internal/config"
)

func TestLoadAWSConfigStaticCredentials(t *testing.T) {
	cfg := &appconfig.Config{AWSRegion: "us-west-2", AWSAccessKeyID: "AKIDEXAMPLE", AWSSecretAccessKey: "secret"}
	awsCfg, err := LoadAWSConfig(context.Background(), cfg)
	if err != nil {
		t.Fatalf("LoadAWSConfig: %v", err)
	}
	if awsCfg.Region != "us-west-2" {
		t.Fatalf("expected region us-west-2, got %q", awsCfg.Region)
	}
	creds, err := awsCfg.Credentials.Retrieve(context.Background())
	if err != nil {
		t.Fatalf("retrieve credentials: %v", err)
	}
	if creds.AccessKeyID != "AKIDEXAMPLE" {
		t.Fatalf("expected static key, got %q", creds.AccessKeyID)
	}
}

func TestNeedsAWS(t *testing.T) {
	if NeedsAWS(&appconfig.Config{EmailProvider: "stub", FilesBackend: "memory"}) {
		t.Fatal("stub email with memory files should not need aws")
	}
	if !NeedsAWS(&appconfig.Config{EmailProvider: "ses"}) || !NeedsAWS(&appconfig.Config{FilesBackend: "s3"}) {
		t.Fatal("ses or s3 should need aws")
	}
}
