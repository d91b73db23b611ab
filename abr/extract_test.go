package abr

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"abr-search/models"
)

func payload(records ...string) string {
	return `<?xml version="1.0" encoding="utf-8"?>
<ABRPayloadSearchResults xmlns="http://abr.business.gov.au/ABRXMLSearch/">
  <response>
    <searchResultsList>
      <numberOfRecords>` + fmt.Sprint(len(records)) + `</numberOfRecords>
      ` + strings.Join(records, "\n      ") + `
    </searchResultsList>
  </response>
</ABRPayloadSearchResults>`
}

const acmeRecord = `<searchResultsRecord>
  <ABN><identifierValue>12345678901</identifierValue><identifierStatus>Active</identifierStatus></ABN>
  <businessName><organisationName>Acme Pty Ltd</organisationName><score>97</score><isCurrentIndicator>Y</isCurrentIndicator></businessName>
  <mainBusinessPhysicalAddress><stateCode>QLD</stateCode><postcode>4000</postcode></mainBusinessPhysicalAddress>
</searchResultsRecord>`

func TestExtract_FullRecord(t *testing.T) {
	rows, err := ExtractString(payload(acmeRecord))
	require.NoError(t, err)
	require.Len(t, rows, 1)

	assert.Equal(t, models.OutputRow{
		ABN:          "12345678901",
		ABNStatus:    "Active",
		BusinessName: "Acme Pty Ltd",
		NameType:     "Business Name",
		Score:        "97",
		IsCurrent:    "Y",
		StateCode:    "QLD",
		Postcode:     "4000",
	}, rows[0])
}

func TestExtract_BusinessNameWins(t *testing.T) {
	rec := `<searchResultsRecord>
  <mainName><organisationName>Main Co</organisationName><score>80</score></mainName>
  <otherTradingName><organisationName>Other Co</organisationName></otherTradingName>
  <businessName><organisationName>Biz Co</organisationName><score>99</score></businessName>
</searchResultsRecord>`

	rows, err := ExtractString(payload(rec))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Biz Co", rows[0].BusinessName)
	assert.Equal(t, "Business Name", rows[0].NameType)
	assert.Equal(t, "99", rows[0].Score)
}

func TestExtract_FallbackOrder(t *testing.T) {
	tests := []struct {
		name     string
		record   string
		wantName string
		wantType string
	}{
		{
			name: "main name before trading name",
			record: `<searchResultsRecord>
  <mainTradingName><organisationName>Trading Co</organisationName></mainTradingName>
  <mainName><organisationName>Main Co</organisationName></mainName>
</searchResultsRecord>`,
			wantName: "Main Co",
			wantType: "Main Name",
		},
		{
			name: "trading name before other trading name",
			record: `<searchResultsRecord>
  <otherTradingName><organisationName>Other Co</organisationName></otherTradingName>
  <mainTradingName><organisationName>Trading Co</organisationName></mainTradingName>
</searchResultsRecord>`,
			wantName: "Trading Co",
			wantType: "Trading Name",
		},
		{
			name: "other trading name last",
			record: `<searchResultsRecord>
  <otherTradingName><organisationName>Other Co</organisationName></otherTradingName>
</searchResultsRecord>`,
			wantName: "Other Co",
			wantType: "Other Trading Name",
		},
		{
			name: "parent without organisationName is skipped",
			record: `<searchResultsRecord>
  <businessName><score>100</score></businessName>
  <mainName><organisationName>Main Co</organisationName><score>75</score></mainName>
</searchResultsRecord>`,
			wantName: "Main Co",
			wantType: "Main Name",
		},
		{
			name: "personal names only",
			record: `<searchResultsRecord>
  <legalName><fullName>Jane Citizen</fullName></legalName>
</searchResultsRecord>`,
			wantName: "",
			wantType: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows, err := ExtractString(payload(tt.record))
			require.NoError(t, err)
			require.Len(t, rows, 1)
			assert.Equal(t, tt.wantName, rows[0].BusinessName)
			assert.Equal(t, tt.wantType, rows[0].NameType)
		})
	}
}

func TestExtract_OnlyFirstOccurrenceConsulted(t *testing.T) {
	rec := `<searchResultsRecord>
  <otherTradingName><score>50</score></otherTradingName>
  <otherTradingName><organisationName>Second Co</organisationName></otherTradingName>
</searchResultsRecord>`

	rows, err := ExtractString(payload(rec))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Empty(t, rows[0].BusinessName)
	assert.Empty(t, rows[0].NameType)
}

func TestExtract_MissingElementsDefaultToEmpty(t *testing.T) {
	rec := `<searchResultsRecord>
  <businessName><organisationName>No Score Pty Ltd</organisationName></businessName>
  <mainBusinessPhysicalAddress><stateCode>VIC</stateCode></mainBusinessPhysicalAddress>
</searchResultsRecord>`

	rows, err := ExtractString(payload(rec))
	require.NoError(t, err)
	require.Len(t, rows, 1)

	row := rows[0]
	assert.Empty(t, row.ABN)
	assert.Empty(t, row.ABNStatus)
	assert.Equal(t, "No Score Pty Ltd", row.BusinessName)
	assert.Equal(t, "Business Name", row.NameType)
	assert.Empty(t, row.Score)
	assert.Empty(t, row.IsCurrent)
	assert.Equal(t, "VIC", row.StateCode)
	assert.Empty(t, row.Postcode)
}

func TestExtract_ABNWithoutChildren(t *testing.T) {
	rec := `<searchResultsRecord><ABN /></searchResultsRecord>`

	rows, err := ExtractString(payload(rec))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, models.OutputRow{}, rows[0])
}

func TestExtract_ZeroRecords(t *testing.T) {
	rows, err := ExtractString(payload())
	require.NoError(t, err)
	assert.NotNil(t, rows)
	assert.Empty(t, rows)
}

func TestExtract_OtherNamespaceIgnored(t *testing.T) {
	doc := `<ABRPayloadSearchResults xmlns="urn:something-else">
  <searchResultsRecord><ABN><identifierValue>1</identifierValue></ABN></searchResultsRecord>
</ABRPayloadSearchResults>`

	rows, err := ExtractString(doc)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestExtract_ChildInOtherNamespaceIgnored(t *testing.T) {
	rec := `<searchResultsRecord xmlns:o="urn:other">
  <o:ABN><o:identifierValue>999</o:identifierValue></o:ABN>
  <ABN><identifierValue>111</identifierValue></ABN>
</searchResultsRecord>`

	rows, err := ExtractString(payload(rec))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "111", rows[0].ABN)
}

func TestExtract_Malformed(t *testing.T) {
	inputs := map[string]string{
		"unclosed":         payload(acmeRecord)[:200],
		"mismatch":         `<ABRPayloadSearchResults xmlns="http://abr.business.gov.au/ABRXMLSearch/"><a></b></ABRPayloadSearchResults>`,
		"empty":            "",
		"plaintext":        "Service temporarily unavailable",
		"trailing text":    payload(acmeRecord) + "\nService temporarily unavailable",
		"trailing element": payload(acmeRecord) + "<html><body>error</body></html>",
		"two roots":        payload(acmeRecord) + payload(acmeRecord),
	}

	for name, in := range inputs {
		t.Run(name, func(t *testing.T) {
			rows, err := ExtractString(in)
			require.Error(t, err)
			assert.Nil(t, rows)
			assert.Equal(t, XMLParseFailure, KindOf(err))
		})
	}
}

func TestExtract_TrailingWhitespaceAndComments(t *testing.T) {
	rows, err := ExtractString(payload(acmeRecord) + "\n<!-- served by registry -->\n\n")
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestExtract_NestedRecords(t *testing.T) {
	rec := `<searchResultsRecord>
  <ABN><identifierValue>11111111111</identifierValue></ABN>
  <related>
    <searchResultsRecord>
      <ABN><identifierValue>22222222222</identifierValue></ABN>
      <searchResultsRecord><ABN><identifierValue>33333333333</identifierValue></ABN></searchResultsRecord>
    </searchResultsRecord>
  </related>
</searchResultsRecord>`
	after := `<searchResultsRecord><ABN><identifierValue>44444444444</identifierValue></ABN></searchResultsRecord>`

	rows, err := ExtractString(payload(rec, after))
	require.NoError(t, err)
	require.Len(t, rows, 4)
	for i, want := range []string{"11111111111", "22222222222", "33333333333", "44444444444"} {
		assert.Equal(t, want, rows[i].ABN, "row %d", i)
	}
}

func TestExtract_PreservesDocumentOrder(t *testing.T) {
	var records []string
	for i := 0; i < 25; i++ {
		records = append(records, fmt.Sprintf(
			`<searchResultsRecord><ABN><identifierValue>%011d</identifierValue></ABN></searchResultsRecord>`, i))
	}

	rows, err := ExtractString(payload(records...))
	require.NoError(t, err)
	require.Len(t, rows, 25)
	for i, row := range rows {
		assert.Equal(t, fmt.Sprintf("%011d", i), row.ABN)
	}
}

func TestExtract_NonUTF8Charset(t *testing.T) {
	doc := "<?xml version=\"1.0\" encoding=\"ISO-8859-1\"?>\n" +
		`<ABRPayloadSearchResults xmlns="http://abr.business.gov.au/ABRXMLSearch/">` +
		"<searchResultsRecord><businessName><organisationName>Caf\xe9 Pty Ltd</organisationName></businessName></searchResultsRecord>" +
		`</ABRPayloadSearchResults>`

	rows, err := ExtractString(doc)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Café Pty Ltd", rows[0].BusinessName)
}

func TestExtract_SampleResponseRoundTrip(t *testing.T) {
	businesses := []SampleBusiness{
		{ABN: "11111111111", Name: "Alpha & Sons", State: "NSW", Postcode: "2000"},
		{ABN: "22222222222", Name: "Beta <Holdings>", Status: "Cancelled", Score: "88", State: "WA", Postcode: "6000"},
		{ABN: "33333333333", Name: "Gamma", State: "TAS", Postcode: "7000"},
	}

	doc, err := SampleResponse("alpha", businesses, time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC))
	require.NoError(t, err)

	rows, err := ExtractString(doc)
	require.NoError(t, err)
	require.Len(t, rows, len(businesses))

	assert.Equal(t, "Alpha & Sons", rows[0].BusinessName)
	assert.Equal(t, "Active", rows[0].ABNStatus)
	assert.Equal(t, "98", rows[0].Score)
	assert.Equal(t, "Beta <Holdings>", rows[1].BusinessName)
	assert.Equal(t, "Cancelled", rows[1].ABNStatus)
	assert.Equal(t, "88", rows[1].Score)
	assert.Equal(t, "TAS", rows[2].StateCode)
	for _, row := range rows {
		assert.Equal(t, "Business Name", row.NameType)
		assert.Equal(t, "Y", row.IsCurrent)
	}
}
