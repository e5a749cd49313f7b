package entity_test

import (
	"testing"

	"hikari/internal/modules/collector/entity"
	"hikari/internal/pkg/apperror"

	"github.com/stretchr/testify/assert"
)

func TestTrendingInterval_Valid(t *testing.T) {
	assert.True(t, entity.IntervalHour.Valid())
	assert.True(t, entity.IntervalDay.Valid())
	assert.True(t, entity.IntervalWeek.Valid())
	assert.False(t, entity.TrendingInterval("month").Valid())
	assert.False(t, entity.TrendingInterval("").Valid())
}

func TestTrendingGroupBy_Valid(t *testing.T) {
	assert.True(t, entity.GroupByModel.Valid())
	assert.True(t, entity.GroupByProvider.Valid())
	assert.True(t, entity.GroupByStage.Valid())
	assert.False(t, entity.TrendingGroupBy("region").Valid())
}

func TestTrendingInterval_ContinuousAggregateTable(t *testing.T) {
	assert.Equal(t, "cost_hourly", entity.IntervalHour.ContinuousAggregateTable())
	assert.Equal(t, "cost_daily", entity.IntervalDay.ContinuousAggregateTable())
	assert.Equal(t, "cost_weekly", entity.IntervalWeek.ContinuousAggregateTable())
	assert.Equal(t, "", entity.TrendingInterval("unknown").ContinuousAggregateTable())
}

func TestSpan_TableName(t *testing.T) {
	assert.Equal(t, "spans", entity.Span{}.TableName())
}

func TestErrPipelineNotFound_Kind(t *testing.T) {
	assert.Equal(t, apperror.KindPersistance, entity.ErrPipelineNotFound.Kind)
}
