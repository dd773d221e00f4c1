package dbconfig

import "testing"

func TestNewAppliesDocumentedDefaults(t *testing.T) {
	c := New()
	if c.MaxAttachedObjectTypes != 256 {
		t.Fatalf("MaxAttachedObjectTypes = %d, want 256", c.MaxAttachedObjectTypes)
	}
	if !c.UseAttachedObjectDB || !c.UseEntityDB || !c.AllowRefCountingOnEntities {
		t.Fatalf("expected both indices and refcounting enabled by default, got %+v", c)
	}
	if c.OptimizeThreshold != OptimizeThresholdDefault {
		t.Fatalf("OptimizeThreshold = %d, want %d", c.OptimizeThreshold, OptimizeThresholdDefault)
	}
	if err := c.Validate(); err != nil {
		t.Fatalf("default config should validate, got %v", err)
	}
}

func TestOptionsOverrideDefaults(t *testing.T) {
	c := New(
		WithMaxAttachedObjectTypes(64),
		WithAttachedObjectDB(false),
		WithEntityDB(false),
		WithRefCounting(false),
		WithOptimizeThreshold(10),
	)
	if c.MaxAttachedObjectTypes != 64 {
		t.Fatalf("MaxAttachedObjectTypes = %d, want 64", c.MaxAttachedObjectTypes)
	}
	if c.UseAttachedObjectDB || c.UseEntityDB || c.AllowRefCountingOnEntities {
		t.Fatalf("expected all three toggles disabled, got %+v", c)
	}
	if c.OptimizeThreshold != 10 {
		t.Fatalf("OptimizeThreshold = %d, want 10", c.OptimizeThreshold)
	}
}

func TestValidateRejectsNonMultipleOf64(t *testing.T) {
	c := New(WithMaxAttachedObjectTypes(100))
	if err := c.Validate(); err == nil {
		t.Fatalf("expected an error for a non-multiple-of-64 bit width")
	}
}

func TestValidateRejectsZeroOrNegativeBitWidth(t *testing.T) {
	for _, n := range []int{0, -64} {
		c := New(WithMaxAttachedObjectTypes(n))
		if err := c.Validate(); err == nil {
			t.Fatalf("expected an error for MaxAttachedObjectTypes=%d", n)
		}
	}
}

func TestValidateRejectsNegativeOptimizeThreshold(t *testing.T) {
	c := New(WithOptimizeThreshold(-1))
	if err := c.Validate(); err == nil {
		t.Fatalf("expected an error for a negative optimize threshold")
	}
}

func TestNewDoesNotMutateCallerAcrossInvocations(t *testing.T) {
	a := New(WithMaxAttachedObjectTypes(128))
	b := New()
	if b.MaxAttachedObjectTypes != 256 {
		t.Fatalf("New() without options leaked a prior call's override: got %d", b.MaxAttachedObjectTypes)
	}
	if a.MaxAttachedObjectTypes != 128 {
		t.Fatalf("a.MaxAttachedObjectTypes = %d, want 128", a.MaxAttachedObjectTypes)
	}
}
