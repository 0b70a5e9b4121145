package composer

import "github.com/mohammed-shakir/w3w-wfs/internal/core/ogc"

// the location feature type; the same document serves both dialects
const featureTypeSchema = `<?xml version="1.0" encoding="UTF-8"?>
<xsd:schema xmlns:xsd="` + nsXSD + `" xmlns:gml="` + nsGML2 + `" xmlns:w3w="` + Namespace + `" targetNamespace="` + Namespace + `" elementFormDefault="qualified" version="1.0">
  <xsd:import namespace="` + nsGML2 + `" schemaLocation="` + xsdGML2 + `"/>
  <xsd:element name="` + FeatureTypeName + `" type="w3w:locationType" substitutionGroup="gml:_Feature"/>
  <xsd:complexType name="locationType">
    <xsd:complexContent>
      <xsd:extension base="gml:AbstractFeatureType">
        <xsd:sequence>
          <xsd:element name="words" type="xsd:string" minOccurs="0"/>
          <xsd:element name="country" type="xsd:string" minOccurs="0"/>
          <xsd:element name="nearestPlace" type="xsd:string" minOccurs="0"/>
          <xsd:element name="language" type="xsd:string" minOccurs="0"/>
          <xsd:element name="geometry" type="gml:PointPropertyType" minOccurs="0"/>
        </xsd:sequence>
      </xsd:extension>
    </xsd:complexContent>
  </xsd:complexType>
</xsd:schema>
`

// DescribeFeatureType returns the XML Schema of the location feature type.
func (c *Composer) DescribeFeatureType(_ ogc.Dialect) []byte {
	return []byte(featureTypeSchema)
}
