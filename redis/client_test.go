package redis

import (
	"errors"
	"testing"

	"github.com/Kuljeet1998/healthcare-nlp/utils"
	jsonpatch "github.com/evanphx/json-patch"
	"github.com/stretchr/testify/require"
)

type statusDoc struct {
	Status   string   `json:"status"`
	Attempts int      `json:"attempts"`
	Errors   []string `json:"errors"`
}

func TestMergeUpdateKeepsUnknownFields(t *testing.T) {
	raw := []byte(`{"status": "submitted", "attempts": 1, "errors": null, "owner": {"name": "sequencer"}}`)
	var doc statusDoc

	merged, err := MergeUpdate(raw, &doc, func() error {
		doc.Status = "started"
		doc.Attempts++
		doc.Errors = append(doc.Errors, "first")
		return nil
	})
	require.NoError(t, err)

	expected := []byte(`{"status": "started", "attempts": 2, "errors": ["first"], "owner": {"name": "sequencer"}}`)
	require.True(t, jsonpatch.Equal(expected, merged), string(merged))
}

func TestMergeUpdateNoChanges(t *testing.T) {
	raw := []byte(`{"status": "started", "extra": [1, 2, 3]}`)
	var doc statusDoc

	merged, err := MergeUpdate(raw, &doc, func() error { return nil })
	require.NoError(t, err)
	require.True(t, jsonpatch.Equal(raw, merged), string(merged))
}

func TestMergeUpdateErrors(t *testing.T) {
	var doc statusDoc

	_, err := MergeUpdate([]byte(`not json`), &doc, func() error { return nil })
	require.Error(t, err)

	failure := errors.New("nope")
	_, err = MergeUpdate([]byte(`{}`), &doc, func() error { return failure })
	require.ErrorIs(t, err, failure)

	_, err = MergeUpdate([]byte(`{}`), &doc, func() error { panic("boom") })
	require.ErrorIs(t, err, utils.ErrPanic)
}
