package achievement

import "testing"

func TestParseTier(t *testing.T) {
	for _, tier := range AllTiers() {
		got, err := ParseTier(string(tier))
		if err != nil {
			t.Fatalf("ParseTier(%q): %v", tier, err)
		}
		if got != tier {
			t.Errorf("ParseTier(%q) = %q", tier, got)
		}
	}

	for _, bad := range []string{"", "Bronze", "diamond"} {
		if _, err := ParseTier(bad); err == nil {
			t.Errorf("ParseTier(%q) should fail", bad)
		}
	}
}

func TestTierRankOrder(t *testing.T) {
	tiers := AllTiers()
	for i := 1; i < len(tiers); i++ {
		if tiers[i-1].Rank() >= tiers[i].Rank() {
			t.Errorf("%s should rank below %s", tiers[i-1], tiers[i])
		}
	}
	if Tier("diamond").DisplayName() != "diamond" {
		t.Error("unknown tier should display its raw value")
	}
}
