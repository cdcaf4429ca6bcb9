package service

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/noah-isme/vaccination-tracker-api/internal/models"
	appErrors "github.com/noah-isme/vaccination-tracker-api/pkg/errors"
)

// NormalizeAgeBuckets parses stored bucket preferences, silently dropping invalid
// items. An empty or unusable payload yields the default bucket set.
func NormalizeAgeBuckets(raw []byte) []models.AgeBucket {
	items, err := decodeBucketItems(raw)
	if err != nil {
		return models.DefaultAgeBuckets()
	}

	buckets := make([]models.AgeBucket, 0, len(items))
	for _, item := range items {
		bucket, err := parseBucketItem(item)
		if err != nil {
			continue
		}
		buckets = append(buckets, bucket)
	}
	if len(buckets) == 0 {
		return models.DefaultAgeBuckets()
	}

	sortBuckets(buckets)
	return buckets
}

// ValidateAgeBuckets parses a bucket payload submitted by a user and rejects it as a
// whole when any item is invalid, a label repeats or two consecutive buckets overlap.
func ValidateAgeBuckets(raw []byte) ([]models.AgeBucket, error) {
	items, err := decodeBucketItems(raw)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "age buckets must be a JSON array of objects")
	}
	if len(items) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "at least one age bucket is required")
	}

	buckets := make([]models.AgeBucket, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	for i, item := range items {
		bucket, err := parseBucketItem(item)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("ageBuckets[%d]: %s", i, err.Error()))
		}
		if _, dup := seen[bucket.Label]; dup {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("ageBuckets[%d]: label %q is already used", i, bucket.Label))
		}
		seen[bucket.Label] = struct{}{}
		buckets = append(buckets, bucket)
	}

	sortBuckets(buckets)
	for i := 1; i < len(buckets); i++ {
		prev, next := buckets[i-1], buckets[i]
		if next.MinMonths <= prev.MaxMonths {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("age bucket %q overlaps age bucket %q", next.Label, prev.Label))
		}
	}
	return buckets, nil
}

// BucketIndexFor returns the position of the first bucket containing ageMonths, the
// last position when none matches, or -1 for an empty list.
func BucketIndexFor(buckets []models.AgeBucket, ageMonths int) int {
	for i, b := range buckets {
		if b.MinMonths <= ageMonths && ageMonths <= b.MaxMonths {
			return i
		}
	}
	return len(buckets) - 1
}

// BucketLabelFor returns the label of the bucket chosen by BucketIndexFor.
func BucketLabelFor(buckets []models.AgeBucket, ageMonths int) string {
	i := BucketIndexFor(buckets, ageMonths)
	if i < 0 {
		return ""
	}
	return buckets[i].Label
}

// BucketsEqual reports whether two bucket lists are identical.
func BucketsEqual(a, b []models.AgeBucket) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func decodeBucketItems(raw []byte) ([]map[string]interface{}, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}
	var elements []json.RawMessage
	if err := json.Unmarshal(trimmed, &elements); err != nil {
		return nil, err
	}
	items := make([]map[string]interface{}, 0, len(elements))
	for _, el := range elements {
		dec := json.NewDecoder(bytes.NewReader(el))
		dec.UseNumber()
		var item map[string]interface{}
		if err := dec.Decode(&item); err != nil || item == nil {
			// keep position so strict validation can report the index
			items = append(items, nil)
			continue
		}
		items = append(items, item)
	}
	return items, nil
}

func parseBucketItem(item map[string]interface{}) (models.AgeBucket, error) {
	if item == nil {
		return models.AgeBucket{}, fmt.Errorf("bucket must be an object")
	}
	label, ok := item["label"].(string)
	label = strings.TrimSpace(label)
	if !ok || label == "" {
		return models.AgeBucket{}, fmt.Errorf("label is required")
	}
	minMonths, ok := jsonInteger(item["minMonths"])
	if !ok {
		return models.AgeBucket{}, fmt.Errorf("minMonths must be an integer")
	}
	maxMonths, ok := jsonInteger(item["maxMonths"])
	if !ok {
		return models.AgeBucket{}, fmt.Errorf("maxMonths must be an integer")
	}
	if minMonths < 0 {
		return models.AgeBucket{}, fmt.Errorf("minMonths must not be negative")
	}
	if maxMonths < minMonths {
		return models.AgeBucket{}, fmt.Errorf("maxMonths must be greater than or equal to minMonths")
	}
	return models.AgeBucket{Label: label, MinMonths: minMonths, MaxMonths: maxMonths}, nil
}

func jsonInteger(value interface{}) (int, bool) {
	num, ok := value.(json.Number)
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(num.String())
	if err != nil {
		return 0, false
	}
	return n, true
}

func sortBuckets(buckets []models.AgeBucket) {
	sort.SliceStable(buckets, func(i, j int) bool {
		return buckets[i].MinMonths < buckets[j].MinMonths
	})
}
