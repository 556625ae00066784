package model

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTrainQueryOffset(t *testing.T) {
	tests := []struct {
		name  string
		query TrainQuery
		want  int
	}{
		{"first page", TrainQuery{Page: 1, Limit: 10}, 0},
		{"third page", TrainQuery{Page: 3, Limit: 25}, 50},
		{"largest exact page", TrainQuery{Page: math.MaxInt/100 + 1, Limit: 100}, (math.MaxInt / 100) * 100},
		{"overflowing page saturates", TrainQuery{Page: math.MaxInt, Limit: 100}, math.MaxInt},
		{"zero page", TrainQuery{Page: 0, Limit: 10}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.query.Offset())
		})
	}
}
