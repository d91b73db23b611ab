package abr

import (
	"bytes"
	"encoding/xml"
	"strings"
	"text/template"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
)

// SampleBusiness is one record rendered by SampleResponse.
// Empty Status and Score default to "Active" and "98".
type SampleBusiness struct {
	ABN      string
	Status   string
	Name     string
	Score    string
	State    string
	Postcode string
}

var sampleTemplate = template.Must(template.New("abr").Funcs(template.FuncMap{
	"x": escapeXML,
}).Parse(`<?xml version="1.0" encoding="utf-8"?>
<ABRPayloadSearchResults xmlns:xsd="http://www.w3.org/2001/XMLSchema" xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance" xmlns="http://abr.business.gov.au/ABRXMLSearch/">
  <request>
    <nameSearchRequestAdvanced2017>
      <authenticationGUID>{{.GUID}}</authenticationGUID>
      <name>{{x .Term}}</name>
      <filters>
        <nameType>
          <tradingName>Y</tradingName>
          <legalName>Y</legalName>
          <businessName>Y</businessName>
        </nameType>
        <postcode />
        <stateCode>
          <QLD>Y</QLD>
          <NT>Y</NT>
          <SA>Y</SA>
          <WA>Y</WA>
          <VIC>Y</VIC>
          <ACT>Y</ACT>
          <TAS>Y</TAS>
          <NSW>Y</NSW>
        </stateCode>
        <activeABNsOnly>Y</activeABNsOnly>
      </filters>
      <searchWidth>Typical</searchWidth>
      <minimumScore>0</minimumScore>
      <maxSearchResults>100000</maxSearchResults>
    </nameSearchRequestAdvanced2017>
  </request>
  <response>
    <usageStatement>Sample payload generated locally.</usageStatement>
    <dateRegisterLastUpdated>{{.Date}}</dateRegisterLastUpdated>
    <dateTimeRetrieved>{{.Time}}</dateTimeRetrieved>
    <searchResultsList>
      <numberOfRecords>{{len .Businesses}}</numberOfRecords>
      <exceedsMaximum>N</exceedsMaximum>
{{- range .Businesses}}
      <searchResultsRecord>
        <ABN>
          <identifierValue>{{x .ABN}}</identifierValue>
          <identifierStatus>{{x .Status}}</identifierStatus>
        </ABN>
        <businessName>
          <organisationName>{{x .Name}}</organisationName>
          <score>{{x .Score}}</score>
          <isCurrentIndicator>Y</isCurrentIndicator>
        </businessName>
        <mainBusinessPhysicalAddress>
          <stateCode>{{x .State}}</stateCode>
          <postcode>{{x .Postcode}}</postcode>
          <isCurrentIndicator>Y</isCurrentIndicator>
        </mainBusinessPhysicalAddress>
      </searchResultsRecord>
{{- end}}
    </searchResultsList>
  </response>
</ABRPayloadSearchResults>
`))

// SampleResponse renders a well-formed registry payload containing businesses.
// It is used for offline runs and fixtures.
func SampleResponse(term string, businesses []SampleBusiness, now time.Time) (string, error) {
	filled := make([]SampleBusiness, len(businesses))
	for i, b := range businesses {
		if b.Status == "" {
			b.Status = "Active"
		}
		if b.Score == "" {
			b.Score = "98"
		}
		filled[i] = b
	}

	var buf bytes.Buffer
	err := sampleTemplate.Execute(&buf, map[string]any{
		"GUID":       uuid.NewString(),
		"Term":       term,
		"Date":       now.Format("2006-01-02"),
		"Time":       now.Format("2006-01-02T15:04:05.000000Z07:00"),
		"Businesses": filled,
	})
	if err != nil {
		return "", eris.Wrap(err, "render sample response")
	}
	return buf.String(), nil
}

func escapeXML(s string) string {
	var sb strings.Builder
	_ = xml.EscapeText(&sb, []byte(s))
	return sb.String()
}
