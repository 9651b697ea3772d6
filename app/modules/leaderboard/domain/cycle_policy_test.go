package leaderboarddomain

import "testing"

func TestResolveCycleForVote(t *testing.T) {
	tests := []struct {
		name          string
		explicitCycle int64
		currentSeason int64
		want          CycleContext
	}{
		{
			name:          "explicit cycle wins over current season",
			explicitCycle: 3,
			currentSeason: 7,
			want:          CycleContext{CycleID: 3, IsActive: false},
		},
		{
			name:          "explicit cycle matching current season is active",
			explicitCycle: 7,
			currentSeason: 7,
			want:          CycleContext{CycleID: 7, IsActive: true},
		},
		{
			name:          "falls back to current season",
			explicitCycle: 0,
			currentSeason: 5,
			want:          CycleContext{CycleID: 5, IsActive: true},
		},
		{
			name:          "no context yields empty result",
			explicitCycle: 0,
			currentSeason: 0,
			want:          CycleContext{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolveCycleForVote(tt.explicitCycle, tt.currentSeason)
			if got != tt.want {
				t.Errorf("ResolveCycleForVote(%d, %d) = %+v, want %+v",
					tt.explicitCycle, tt.currentSeason, got, tt.want)
			}
		})
	}
}

func TestShouldProcessVote(t *testing.T) {
	if ShouldProcessVote(CycleContext{}) {
		t.Error("empty context should not be processed")
	}
	if !ShouldProcessVote(CycleContext{CycleID: 1}) {
		t.Error("resolved context should be processed")
	}
}
