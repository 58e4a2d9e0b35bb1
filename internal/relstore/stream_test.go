package relstore

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeGroupsRoutesSharedKeysToGrouped(t *testing.T) {
	old := "3 @ 1 : 1 0 0\n"
	incoming := "3 @ 2 : 1 1 0\n5 @ 9 : 1 0 0\n"

	var singles, grouped strings.Builder
	require.NoError(t, MergeGroups(strings.NewReader(old), strings.NewReader(incoming), &singles, &grouped))

	singleLines := strings.Split(strings.TrimRight(singles.String(), "\n"), "\n")
	assert.Contains(t, singleLines, "5 @ 9 : 1 0 0")
	assert.Contains(t, singleLines, "3 @ 1 : 1 0 0")

	groupedLines := strings.Split(strings.TrimRight(grouped.String(), "\n"), "\n")
	assert.Len(t, groupedLines, 2)
}

func TestMergeGroupsPreservesTotalCount(t *testing.T) {
	old := "3 @ 1 : 1 0 0\n7 @ 4 : 1 0 0\n"
	incoming := "3 @ 2 : 1 1 0\n"

	var singles, grouped strings.Builder
	require.NoError(t, MergeGroups(strings.NewReader(old), strings.NewReader(incoming), &singles, &grouped))

	singleCount := len(strings.Split(strings.TrimRight(singles.String(), "\n"), "\n"))
	groupedCount := len(strings.Split(strings.TrimRight(grouped.String(), "\n"), "\n"))
	// Three input lines, each written once, plus the shared-q group's
	// first line, which is written to both singles and grouped.
	assert.Equal(t, 4, singleCount+groupedCount)
}
