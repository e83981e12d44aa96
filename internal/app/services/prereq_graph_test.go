package services

import "testing"

func TestHasCycle(t *testing.T) {
	tests := []struct {
		name      string
		adjacency map[int64][]int64
		want      bool
	}{
		{
			name:      "empty graph",
			adjacency: map[int64][]int64{},
			want:      false,
		},
		{
			name: "single node no edges",
			adjacency: map[int64][]int64{
				1: nil,
			},
			want: false,
		},
		{
			name: "chain",
			adjacency: map[int64][]int64{
				3: {2},
				2: {1},
				1: nil,
			},
			want: false,
		},
		{
			name: "diamond is not a cycle",
			adjacency: map[int64][]int64{
				4: {2, 3},
				2: {1},
				3: {1},
				1: nil,
			},
			want: false,
		},
		{
			name: "self loop",
			adjacency: map[int64][]int64{
				1: {1},
			},
			want: true,
		},
		{
			name: "two node cycle",
			adjacency: map[int64][]int64{
				1: {2},
				2: {1},
			},
			want: true,
		},
		{
			name: "long cycle",
			adjacency: map[int64][]int64{
				1: {2},
				2: {3},
				3: {4},
				4: {1},
			},
			want: true,
		},
		{
			name: "cycle in disconnected component",
			adjacency: map[int64][]int64{
				1: {2},
				2: nil,
				7: {8},
				8: {9},
				9: {7},
			},
			want: true,
		},
		{
			name: "shared prerequisite reached twice",
			adjacency: map[int64][]int64{
				5: {1},
				6: {1},
				1: nil,
			},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := hasCycle(tt.adjacency); got != tt.want {
				t.Errorf("hasCycle() = %v, want %v", got, tt.want)
			}
		})
	}
}
