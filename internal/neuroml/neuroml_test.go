package neuroml_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"neuromlcap/internal/neuroml"
	"neuromlcap/internal/neuroml/neuromltest"
)

const handWritten = `<?xml version="1.0" encoding="UTF-8"?>
<neuroml xmlns="http://www.neuroml.org/schema/neuroml2" id="tiny">
    <include href="channels/na.channel.nml"/>
    <cell id="tiny">
        <morphology id="m">
            <segment id="0" name="soma">
                <proximal x="0" y="0" z="0" diameter="10"/>
                <distal x="0" y="10" z="0" diameter="10"/>
            </segment>
            <segment id="1" name="d1">
                <parent segment="0"/>
                <distal x="0" y="20" z="0" diameter="1"/>
            </segment>
            <segment id="2" name="d2">
                <parent segment="1"/>
                <distal x="0" y="30" z="0" diameter="1"/>
            </segment>
            <segmentGroup id="soma_group">
                <member segment="0"/>
            </segmentGroup>
            <segmentGroup id="dend" neuroLexId="sao864921383">
                <member segment="1"/>
                <member segment="2"/>
            </segmentGroup>
            <segmentGroup id="all">
                <include segmentGroup="soma_group"/>
                <include segmentGroup="dend"/>
                <member segment="2"/>
            </segmentGroup>
        </morphology>
    </cell>
</neuroml>
`

func TestDecodeHandWrittenCell(t *testing.T) {
	doc, err := neuroml.Decode([]byte(handWritten))
	require.NoError(t, err)
	require.Len(t, doc.Cells, 1)
	cell := &doc.Cells[0]

	assert.Equal(t, "tiny", cell.ID)
	assert.Equal(t, []int{0, 1, 2}, cell.SegmentIDs())
	assert.Equal(t, []string{"dend"}, cell.UnbranchedGroups())
	assert.Equal(t, []string{"soma_group"}, cell.SegmentGroupsBySubstring("soma", false))

	all, err := cell.SegmentsInGroup("all")
	require.NoError(t, err)
	assert.Equal(t, []int{2, 0, 1}, all)

	prox, dist, err := cell.Endpoints(2)
	require.NoError(t, err)
	assert.Equal(t, 20.0, prox.Y)
	assert.Equal(t, 30.0, dist.Y)

	_, err = cell.SegmentsInGroup("axon")
	require.Error(t, err)
}

func TestIncludedFilesWalksIncludes(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "channels"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tiny.cell.nml"), []byte(handWritten), 0o644))
	channel := `<neuroml xmlns="http://www.neuroml.org/schema/neuroml2" id="na"><include href="../tiny.cell.nml"/></neuroml>`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "channels", "na.channel.nml"), []byte(channel), 0o644))

	files, err := neuroml.IncludedFiles("tiny.cell.nml", dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"tiny.cell.nml", filepath.Join("channels", "na.channel.nml")}, files)
}

func TestWriteNetworkDocument(t *testing.T) {
	doc := &neuroml.Document{
		ID:       "step_current_sim_0",
		Includes: []neuroml.Include{{Href: "tiny.cell.nml"}},
		PulseGenerators: []neuroml.PulseGenerator{
			{ID: "pg_0", Delay: "500ms", Duration: "1000ms", Amplitude: "0.2nA"},
		},
		Networks: []neuroml.Network{{
			ID:          "network",
			Type:        "networkWithTemperature",
			Temperature: "34 degC",
			Populations: []neuroml.Population{{
				ID: "population_of_tiny", Component: "tiny", Type: "populationList", Size: 1,
				Instances: []neuroml.Instance{{ID: 0}},
			}},
		}},
	}
	path := filepath.Join(t.TempDir(), "net.nml")
	require.NoError(t, neuroml.WriteFile(path, doc))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)
	assert.True(t, strings.HasPrefix(text, "<?xml"))
	assert.Contains(t, text, `xmlns="http://www.neuroml.org/schema/neuroml2"`)
	assert.Contains(t, text, `<pulseGenerator id="pg_0" delay="500ms" duration="1000ms" amplitude="0.2nA"></pulseGenerator>`)
	assert.Less(t, strings.Index(text, "<pulseGenerator"), strings.Index(text, "<network"))

	back, err := neuroml.ReadFile(path)
	require.NoError(t, err)
	require.Len(t, back.Networks, 1)
	assert.Equal(t, "population_of_tiny", back.Networks[0].Populations[0].ID)
}

func TestSyntheticCellRoundTrip(t *testing.T) {
	dir := t.TempDir()
	name := neuromltest.WriteCell(t, dir, "syn", []int{3, 5})

	cell, err := neuroml.ReadCell(filepath.Join(dir, name))
	require.NoError(t, err)
	assert.Equal(t, []string{"dend_0", "dend_1"}, cell.UnbranchedGroups())

	segs, err := cell.SegmentsInGroup("dend_1")
	require.NoError(t, err)
	assert.Equal(t, []int{4, 5, 6, 7, 8}, segs)

	all, err := cell.SegmentsInGroup("all")
	require.NoError(t, err)
	assert.Len(t, all, 9)
}
