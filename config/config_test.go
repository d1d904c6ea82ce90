package config

import "testing"

func TestValidatePlans(t *testing.T) {
	if err := validatePlans(DefaultPlans); err != nil {
		t.Fatalf("default plan table must validate: %v", err)
	}

	bad := map[string]Plan{"plan_free": {Days: 30, Price: 0}}
	if err := validatePlans(bad); err == nil {
		t.Fatal("expected error for zero price")
	}

	bad = map[string]Plan{"plan_neg": {Days: -1, Price: 100}}
	if err := validatePlans(bad); err == nil {
		t.Fatal("expected error for negative duration")
	}

	if err := validatePlans(map[string]Plan{}); err == nil {
		t.Fatal("expected error for empty plan table")
	}
}

func TestLoadRequiresToken(t *testing.T) {
	t.Setenv("BOT_TOKEN", "")
	t.Setenv("MONGO_URI", "mongodb://localhost:27017")
	if _, err := Load(); err == nil {
		t.Fatal("expected error when BOT_TOKEN is missing")
	}

	t.Setenv("BOT_TOKEN", "123:abc")
	t.Setenv("MONGO_URI", "")
	if _, err := Load(); err == nil {
		t.Fatal("expected error when MONGO_URI is missing")
	}
}

func TestLoadParsesOverrides(t *testing.T) {
	t.Setenv("BOT_TOKEN", "123:abc")
	t.Setenv("MONGO_URI", "mongodb://localhost:27017")
	t.Setenv("ADMIN_ID", "7315805581")
	t.Setenv("FREE_DAILY_LIMIT", "10")

	c, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.AdminID != 7315805581 {
		t.Errorf("admin id = %d", c.AdminID)
	}
	if c.FreeLimit != 10 {
		t.Errorf("free limit = %d", c.FreeLimit)
	}
	if c.QuotaZone != "Asia/Kolkata" {
		t.Errorf("quota zone default = %q", c.QuotaZone)
	}
}
