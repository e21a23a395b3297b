package tariffs

import "testing"

func TestDefault(t *testing.T) {
	d := Default()
	if d.Name != FreeName {
		t.Fatalf("expected name %q, got %q", FreeName, d.Name)
	}
	if d.Price != 0 {
		t.Fatalf("free tariff must cost nothing, got %d", d.Price)
	}
	if d.ChannelsLimit != 1 || d.PostsPerDay != 1 {
		t.Fatalf("unexpected free limits: channels=%d posts=%d", d.ChannelsLimit, d.PostsPerDay)
	}
	if d.DurationDays != 0 {
		t.Fatalf("free tariff must not expire, got %d days", d.DurationDays)
	}
}
