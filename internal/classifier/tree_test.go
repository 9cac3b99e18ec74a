package classifier

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const treeDoc = `<?xml version="1.0" encoding="UTF-8"?>
<ns:Root xmlns:ns="urn:test">
  <ns:A>
    <ns:B id="1">first</ns:B>
    <ns:C><ns:B id="2">nested</ns:B></ns:C>
  </ns:A>
  <ns:B id="3"> third </ns:B>
  <ns:Agt><ns:Inst><ns:BIC>AAAABBCC</ns:BIC></ns:Inst></ns:Agt>
</ns:Root>`

func TestFind_DescendantFirstStep(t *testing.T) {
	root, err := Parse(treeDoc)
	require.NoError(t, err)

	all := root.FindAll("B")
	require.Len(t, all, 3)
	ids := make([]string, 0, len(all))
	for _, el := range all {
		id, ok := el.Attr("id")
		require.True(t, ok)
		ids = append(ids, id)
	}
	assert.Equal(t, []string{"1", "2", "3"}, ids)
	assert.Equal(t, "first", root.Find("B").Value())
}

func TestFind_ChildAndDescendantSteps(t *testing.T) {
	root, err := Parse(treeDoc)
	require.NoError(t, err)

	assert.Equal(t, "nested", root.Find("C/B").Value())
	assert.Nil(t, root.Find("A/BIC"))
	assert.Equal(t, "AAAABBCC", root.Find("Agt//BIC").Value())
	assert.Equal(t, "AAAABBCC", root.Find(".//ns:Agt//ns:BIC").Value())
}

func TestFind_MissingAndNil(t *testing.T) {
	root, err := Parse(treeDoc)
	require.NoError(t, err)

	assert.Nil(t, root.Find("Nope"))
	assert.Nil(t, root.Find(""))

	var missing *Element
	assert.Equal(t, "", missing.Value())
	_, ok := missing.Attr("id")
	assert.False(t, ok)
	assert.Nil(t, missing.FindAll("B"))
}

func TestValue_TrimsWhitespace(t *testing.T) {
	root, err := Parse(treeDoc)
	require.NoError(t, err)

	third := root.FindAll("B")[2]
	assert.Equal(t, " third ", third.Text)
	assert.Equal(t, "third", third.Value())
}
