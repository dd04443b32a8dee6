package stream

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
)

func image(t *testing.T, payload string) Image {
	var im Image
	require.NoError(t, json.Unmarshal([]byte(payload), &im))
	return im
}

func TestTableUnionsColumns(t *testing.T) {
	table := NewTable()
	require.NoError(t, table.Append(image(t, `{"id": {"S": "1"}, "amount": {"N": "9.99"}}`)))
	require.NoError(t, table.Append(image(t, `{"id": {"S": "2"}, "note": {"S": "gift"}}`)))
	require.NoError(t, table.Append(image(t, `{"note": {"S": "rush"}, "amount": {"N": "42"}}`)))

	assert.Equal(t, 3, table.Len())
	assert.Equal(t, []string{"id", "amount", "note"}, table.Columns())
	assert.Equal(t, [][]string{
		{"1", "9.99", NullCell},
		{"2", NullCell, "gift"},
		{NullCell, "42", "rush"},
	}, table.Rows())
}

func TestTableWriteCSV(t *testing.T) {
	table := NewTable()
	require.NoError(t, table.Append(image(t, `{"id": {"S": "1"}, "note": {"S": "a, b"}}`)))
	require.NoError(t, table.Append(image(t, `{"id": {"N": "2"}, "note": {"S": "say \"hi\""}, "tags": {"SS": ["x", "y"]}}`)))

	buf := &bytes.Buffer{}
	require.NoError(t, table.WriteCSV(buf))

	expected := "id,note,tags\n" +
		"1,\"a, b\",\n" +
		"2,\"say \"\"hi\"\"\",\"[\"\"x\"\",\"\"y\"\"]\"\n"
	assert.Equal(t, expected, buf.String())
}

func TestEmptyTableWritesEmptyHeader(t *testing.T) {
	buf := &bytes.Buffer{}
	require.NoError(t, NewTable().WriteCSV(buf))
	assert.Equal(t, "\"\"\n", buf.String())
}

func TestTableWriteCSVKeepsEmptySingleCellRows(t *testing.T) {
	table := NewTable()
	require.NoError(t, table.Append(image(t, `{"id": {"S": ""}}`)))
	require.NoError(t, table.Append(image(t, `{"id": {"S": "2"}}`)))
	require.NoError(t, table.Append(image(t, `{}`)))

	buf := &bytes.Buffer{}
	require.NoError(t, table.WriteCSV(buf))
	assert.Equal(t, "id\n\"\"\n2\n\"\"\n", buf.String())

	records, err := csv.NewReader(buf).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"id"}, {""}, {"2"}, {""}}, records)
}

func TestTableWriteCSVZeroColumns(t *testing.T) {
	table := NewTable()
	require.NoError(t, table.Append(image(t, `{}`)))
	require.NoError(t, table.Append(image(t, `{}`)))

	buf := &bytes.Buffer{}
	require.NoError(t, table.WriteCSV(buf))

	records, err := csv.NewReader(buf).ReadAll()
	require.NoError(t, err)
	assert.Len(t, records, 3)
}
