package report

import (
	"bytes"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRun(t *testing.T) {
	rpt, err := Run(discardLogger(), DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, 398, rpt.TotalRows)
	assert.Equal(t, 392, rpt.CleanRows)
	assert.Greater(t, rpt.MPGMedian, 0.0)

	// One trend row per model year, in order.
	require.Len(t, rpt.Trends, 13)
	for i, tr := range rpt.Trends {
		assert.Equal(t, 70+i, tr.Year)
		assert.Greater(t, tr.N, 0)
		assert.Greater(t, tr.MeanMPG, 0.0)
		assert.Greater(t, tr.MeanHorsepower, 0.0)
	}

	// Five regression variants, all succeeding on the bundled table.
	require.Len(t, rpt.Regressions, 5)
	for _, reg := range rpt.Regressions {
		require.NoErrorf(t, reg.Err, "regression %q", reg.Name)
		assert.GreaterOrEqual(t, reg.TestRMSE, 0.0, reg.Name)
		assert.LessOrEqual(t, reg.TrainR2, 1.0, reg.Name)
	}
	assert.Len(t, rpt.Manufacturers, DefaultOptions().TopManufacturers)
}

func TestRunClassifiers(t *testing.T) {
	rpt, err := Run(discardLogger(), DefaultOptions())
	require.NoError(t, err)

	for _, result := range []ClassifierResult{rpt.KNN, rpt.Logistic} {
		require.NoErrorf(t, result.Err, "classifier %q", result.Name)
		assert.NotEmpty(t, result.Selected, result.Name)
		require.NotNil(t, result.Confusion, result.Name)

		testRows := int(float64(rpt.CleanRows) * DefaultOptions().TestFraction)
		assert.Equal(t, testRows, result.Confusion.N(), result.Name)

		assert.GreaterOrEqual(t, result.TestKappa, -1.0, result.Name)
		assert.LessOrEqual(t, result.TestKappa, 1.0, result.Name)
		assert.GreaterOrEqual(t, result.TestAUC, 0.0, result.Name)
		assert.LessOrEqual(t, result.TestAUC, 1.0, result.Name)

		require.NotEmpty(t, result.ROC, result.Name)
		first := result.ROC[0]
		last := result.ROC[len(result.ROC)-1]
		assert.Equal(t, 0.0, first.FPR, result.Name)
		assert.Equal(t, 0.0, first.TPR, result.Name)
		assert.Equal(t, 1.0, last.FPR, result.Name)
		assert.Equal(t, 1.0, last.TPR, result.Name)
	}
}

func TestRunDeterministic(t *testing.T) {
	opts := DefaultOptions()

	first, err := Run(discardLogger(), opts)
	require.NoError(t, err)
	second, err := Run(discardLogger(), opts)
	require.NoError(t, err)

	assert.Equal(t, first.Regressions, second.Regressions)
	assert.Equal(t, first.KNN.Selected, second.KNN.Selected)
	assert.Equal(t, first.KNN.TestKappa, second.KNN.TestKappa)
	assert.Equal(t, first.Logistic.Selected, second.Logistic.Selected)
	assert.Equal(t, first.Logistic.TestAUC, second.Logistic.TestAUC)
}

func TestRender(t *testing.T) {
	rpt, err := Run(discardLogger(), DefaultOptions())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, rpt.Render(&buf))
	text := buf.String()

	assert.Contains(t, text, "Automobile fuel economy report")
	assert.Contains(t, text, "Mean mpg and horsepower by model year")
	assert.Contains(t, text, "Regression models (target: mpg)")
	assert.Contains(t, text, "Classification (label: mpg at or above the median)")
	assert.Contains(t, text, "mpg ~ horsepower")
	assert.Contains(t, text, "k-NN")
	assert.Contains(t, text, "weighted logistic")
	assert.Contains(t, text, "1973 oil embargo")
	assert.NotContains(t, text, "ERROR")
}

func TestRenderFailedSection(t *testing.T) {
	rpt := &Report{
		TotalRows: 398,
		CleanRows: 392,
		Folds:     5,
		MPGMedian: 23,
		Regressions: []RegressionResult{
			{Name: "mpg ~ horsepower", Err: assert.AnError},
		},
		KNN:      ClassifierResult{Name: "k-NN", Err: assert.AnError},
		Logistic: ClassifierResult{Name: "weighted logistic", Err: assert.AnError},
	}

	var buf bytes.Buffer
	require.NoError(t, rpt.Render(&buf))
	text := buf.String()

	// A failed stage is reported, not silently dropped.
	assert.Contains(t, text, "ERROR")
	assert.Equal(t, 3, strings.Count(text, "ERROR"))
}

func TestSaveCharts(t *testing.T) {
	rpt, err := Run(discardLogger(), DefaultOptions())
	require.NoError(t, err)

	dir := t.TempDir()
	require.NoError(t, rpt.SaveCharts(dir))

	for _, name := range []string{"mpg_hp_by_year.png", "roc_curve.png"} {
		info, statErr := os.Stat(filepath.Join(dir, name))
		require.NoErrorf(t, statErr, "chart %s", name)
		assert.Greater(t, info.Size(), int64(0), name)
	}
}

func TestYearlyTrendsAggregation(t *testing.T) {
	rpt, err := Run(discardLogger(), DefaultOptions())
	require.NoError(t, err)

	total := 0
	for _, tr := range rpt.Trends {
		total += tr.N
	}
	assert.Equal(t, rpt.CleanRows, total, "trend rows partition the clean dataset")
}
