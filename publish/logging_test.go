package publish

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/cwbriones/scientist/experiment"
	"github.com/cwbriones/scientist/pkg/logger"
)

func Test_Logging_Publish(t *testing.T) {
	t.Parallel()

	t.Run("matched result logs at info", func(t *testing.T) {
		t.Parallel()

		lggr, logs := logger.TestObserved(t, zapcore.DebugLevel)
		sink := NewLogging[int](lggr)

		runInts(t, sink, "pricing", 1, 1)

		entries := logs.FilterMessage("Experiment result published").All()
		require.Len(t, entries, 1)
		assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
		assert.Equal(t, "pricing", entries[0].ContextMap()["experiment"])
	})

	t.Run("mismatched result logs at warn", func(t *testing.T) {
		t.Parallel()

		lggr, logs := logger.TestObserved(t, zapcore.DebugLevel)
		sink := NewLogging[int](lggr)

		runInts(t, sink, "pricing", 1, 2)

		entries := logs.FilterMessage("Experiment result had mismatches").All()
		require.Len(t, entries, 1)
		assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
		assert.EqualValues(t, 1, entries[0].ContextMap()["mismatched"])
	})
}

func Test_Logging_SwallowsRaised(t *testing.T) {
	t.Parallel()

	lggr, logs := logger.TestObserved(t, zapcore.DebugLevel)
	sink := NewLogging[int](lggr)

	exp := experiment.NewWithHandler[int]("pricing", sink).
		WithComparator(func(control, candidate int) (bool, error) {
			return false, errors.New("comparator broken")
		})
	exp, err := exp.AddControl(behavior(1))
	require.NoError(t, err)
	exp, err = exp.AddCandidate("rewrite", behavior(1))
	require.NoError(t, err)

	// The comparator failure is logged and swallowed; the run completes and
	// the candidate counts as mismatched by the falsy fallback.
	value, result, err := exp.RunResult(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 1, value)
	assert.True(t, result.HasMismatches())

	entries := logs.FilterMessage("Guarded operation failed").All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.ErrorLevel, entries[0].Level)
	assert.Equal(t, experiment.OperationCompare, entries[0].ContextMap()["operation"])
}

func Test_Logging_SwallowsThrown(t *testing.T) {
	t.Parallel()

	lggr, logs := logger.TestObserved(t, zapcore.DebugLevel)
	sink := NewLogging[int](lggr)

	exp := experiment.NewWithHandler[int]("pricing", sink).
		WithComparator(func(control, candidate int) (bool, error) {
			panic("comparator exploded")
		})
	exp, err := exp.AddControl(behavior(1))
	require.NoError(t, err)
	exp, err = exp.AddCandidate("rewrite", behavior(1))
	require.NoError(t, err)

	assert.NotPanics(t, func() {
		value, err := exp.Run(t.Context())
		require.NoError(t, err)
		assert.Equal(t, 1, value)
	})

	entries := logs.FilterMessage("Guarded operation panicked").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "comparator exploded", entries[0].ContextMap()["panic"])
}
