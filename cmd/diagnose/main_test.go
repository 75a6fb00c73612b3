package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robert-malhotra/go-ramses/internal/ramsestest"
)

func writeOutput(t *testing.T) string {
	t.Helper()
	spec := &ramsestest.Spec{
		NDim: 3, NCPU: 2, NLevelMax: 2, BoxLen: 1,
		Fields: []string{"density", "pressure"},
	}
	first, second := spec.NewShard(), spec.NewShard()
	spec.RefinedTree(first, 0, 2, 1)
	second.Grids[0][0] = first.Grids[0][0]
	second.Grids[1][1] = [][3]float64{{0.75, 0.75, 0.75}}
	dir, err := spec.WriteOutput(t.TempDir(), 12, []*ramsestest.Shard{first, second})
	require.NoError(t, err)
	return dir
}

func TestDiagnose(t *testing.T) {
	dir := writeOutput(t)

	var out bytes.Buffer
	d := newDiagnose()
	d.Root.SetOut(&out)
	d.Root.SetArgs([]string{dir, "--human=false"})
	require.NoError(t, d.Root.Execute())

	s := out.String()
	assert.Contains(t, s, "output 12: ncpu 2, ndim 3")
	assert.Contains(t, s, "Domain 1:")
	assert.Contains(t, s, "Domain 2:")
	assert.Contains(t, s, "octs per level [1 1]")
	assert.Contains(t, s, "density")
	assert.Contains(t, s, "pressure")
}

func TestDiagnoseOneDomain(t *testing.T) {
	dir := writeOutput(t)

	var out bytes.Buffer
	d := newDiagnose()
	d.Root.SetOut(&out)
	d.Root.SetArgs([]string{dir, "--domain", "2", "--fields", "pressure", "--human=false"})
	require.NoError(t, d.Root.Execute())

	s := out.String()
	assert.NotContains(t, s, "Domain 1:")
	assert.Contains(t, s, "Domain 2:")
	assert.Contains(t, s, "pressure")
	assert.Contains(t, s, "8 cells")

	d = newDiagnose()
	d.Root.SetOut(&out)
	d.Root.SetArgs([]string{dir, "--domain", "3"})
	assert.Error(t, d.Root.Execute())
}
