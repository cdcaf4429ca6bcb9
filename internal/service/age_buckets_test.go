package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/vaccination-tracker-api/internal/models"
	appErrors "github.com/noah-isme/vaccination-tracker-api/pkg/errors"
)

func TestNormalizeAgeBucketsFallsBackToDefaults(t *testing.T) {
	inputs := []string{
		``,
		`null`,
		`[]`,
		`{"label":"A"}`,
		`not json`,
		`[{"label":"A","minMonths":5,"maxMonths":2}]`,
		`[{"label":"  ","minMonths":0,"maxMonths":2}]`,
		`[{"label":"A","minMonths":-1,"maxMonths":2}]`,
		`[{"label":"A","minMonths":"0","maxMonths":2}]`,
		`[{"label":"A","minMonths":0.5,"maxMonths":2}]`,
		`[42, "x"]`,
	}
	for _, raw := range inputs {
		assert.Equal(t, models.DefaultAgeBuckets(), NormalizeAgeBuckets([]byte(raw)), raw)
	}
}

func TestNormalizeAgeBucketsDropsInvalidAndSorts(t *testing.T) {
	raw := `[
		{"label":"older","minMonths":24,"maxMonths":48},
		{"label":"bad","minMonths":10,"maxMonths":1},
		{"label":"baby","minMonths":0,"maxMonths":23},
		{"minMonths":50,"maxMonths":60}
	]`
	buckets := NormalizeAgeBuckets([]byte(raw))
	assert.Equal(t, []models.AgeBucket{
		{Label: "baby", MinMonths: 0, MaxMonths: 23},
		{Label: "older", MinMonths: 24, MaxMonths: 48},
	}, buckets)
}

func TestValidateAgeBucketsRejectsOverlap(t *testing.T) {
	_, err := ValidateAgeBuckets([]byte(`[{"label":"a","minMonths":0,"maxMonths":23},{"label":"b","minMonths":20,"maxMonths":40}]`))
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Contains(t, appErr.Message, "overlaps")
}

func TestValidateAgeBucketsRejectsInvalidItems(t *testing.T) {
	cases := []struct {
		raw      string
		fragment string
	}{
		{`[]`, "at least one"},
		{`[{"minMonths":0,"maxMonths":1}]`, "ageBuckets[0]: label is required"},
		{`[{"label":"a","minMonths":0,"maxMonths":1},{"label":"b","minMonths":"x","maxMonths":3}]`, "ageBuckets[1]: minMonths must be an integer"},
		{`[{"label":"a","minMonths":0,"maxMonths":1.5}]`, "maxMonths must be an integer"},
		{`[{"label":"a","minMonths":-2,"maxMonths":1}]`, "must not be negative"},
		{`[{"label":"a","minMonths":5,"maxMonths":1}]`, "greater than or equal"},
		{`{"label":"a"}`, "JSON array"},
		{`[7]`, "must be an object"},
		{`[{"label":"a","minMonths":0,"maxMonths":5},{"label":" a ","minMonths":6,"maxMonths":10}]`, `ageBuckets[1]: label "a" is already used`},
	}
	for _, tc := range cases {
		_, err := ValidateAgeBuckets([]byte(tc.raw))
		require.Error(t, err, tc.raw)
		assert.Contains(t, appErrors.FromError(err).Message, tc.fragment, tc.raw)
	}
}

func TestValidateAgeBucketsSortsValidInput(t *testing.T) {
	buckets, err := ValidateAgeBuckets([]byte(`[{"label":"b","minMonths":12,"maxMonths":23},{"label":"a","minMonths":0,"maxMonths":11}]`))
	require.NoError(t, err)
	assert.Equal(t, "a", buckets[0].Label)
	assert.Equal(t, "b", buckets[1].Label)
}

func TestBucketLabelFor(t *testing.T) {
	buckets := models.DefaultAgeBuckets()
	assert.Equal(t, "0-11", BucketLabelFor(buckets, 0))
	assert.Equal(t, "12-59", BucketLabelFor(buckets, 21))
	assert.Equal(t, "180+", BucketLabelFor(buckets, 2000))

	gappy := []models.AgeBucket{{Label: "a", MinMonths: 0, MaxMonths: 5}, {Label: "b", MinMonths: 10, MaxMonths: 20}}
	assert.Equal(t, "b", BucketLabelFor(gappy, 7))
	assert.Equal(t, "", BucketLabelFor(nil, 7))
	assert.Equal(t, -1, BucketIndexFor(nil, 7))
	assert.Equal(t, 1, BucketIndexFor([]models.AgeBucket{{Label: "a", MinMonths: 0, MaxMonths: 5}, {Label: "a", MinMonths: 6, MaxMonths: 10}}, 8))
}
