package composer

import (
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/mohammed-shakir/w3w-wfs/internal/core/ogc"
	"github.com/mohammed-shakir/w3w-wfs/internal/crs"
)

// WFS 1.0.0

type capabilitiesV1 struct {
	XMLName        xml.Name `xml:"WFS_Capabilities"`
	Version        string   `xml:"version,attr"`
	Xmlns          string   `xml:"xmlns,attr"`
	XmlnsOGC       string   `xml:"xmlns:ogc,attr"`
	XmlnsW3W       string   `xml:"xmlns:w3w,attr"`
	XmlnsXSI       string   `xml:"xmlns:xsi,attr"`
	SchemaLocation string   `xml:"xsi:schemaLocation,attr"`

	Service struct {
		Name              string `xml:"Name"`
		Title             string `xml:"Title"`
		Abstract          string `xml:"Abstract,omitempty"`
		Keywords          string `xml:"Keywords,omitempty"`
		OnlineResource    string `xml:"OnlineResource"`
		Fees              string `xml:"Fees"`
		AccessConstraints string `xml:"AccessConstraints"`
	} `xml:"Service"`

	Capability struct {
		Request struct {
			GetCapabilities struct {
				DCPType []dcpTypeV1 `xml:"DCPType"`
			} `xml:"GetCapabilities"`
			DescribeFeatureType struct {
				SchemaDescriptionLanguage struct {
					XMLSCHEMA struct{} `xml:"XMLSCHEMA"`
				} `xml:"SchemaDescriptionLanguage"`
				DCPType []dcpTypeV1 `xml:"DCPType"`
			} `xml:"DescribeFeatureType"`
			GetFeature struct {
				ResultFormat struct {
					GML2 struct{} `xml:"GML2"`
				} `xml:"ResultFormat"`
				DCPType []dcpTypeV1 `xml:"DCPType"`
			} `xml:"GetFeature"`
		} `xml:"Request"`
	} `xml:"Capability"`

	FeatureTypeList struct {
		Operations struct {
			Query struct{} `xml:"Query"`
		} `xml:"Operations"`
		FeatureType []featureTypeV1 `xml:"FeatureType"`
	} `xml:"FeatureTypeList"`

	FilterCapabilities struct {
		Spatial struct {
			Operators struct {
				BBOX struct{} `xml:"ogc:BBOX"`
			} `xml:"ogc:Spatial_Operators"`
		} `xml:"ogc:Spatial_Capabilities"`
		Scalar struct {
			Logical struct{} `xml:"ogc:Logical_Operators"`
		} `xml:"ogc:Scalar_Capabilities"`
	} `xml:"ogc:Filter_Capabilities"`
}

type dcpTypeV1 struct {
	HTTP struct {
		Get  *onlineResourceV1 `xml:"Get,omitempty"`
		Post *onlineResourceV1 `xml:"Post,omitempty"`
	} `xml:"HTTP"`
}

type onlineResourceV1 struct {
	OnlineResource string `xml:"onlineResource,attr"`
}

type featureTypeV1 struct {
	Name               string `xml:"Name"`
	Title              string `xml:"Title"`
	SRS                string `xml:"SRS"`
	LatLongBoundingBox struct {
		MinX string `xml:"minx,attr"`
		MinY string `xml:"miny,attr"`
		MaxX string `xml:"maxx,attr"`
		MaxY string `xml:"maxy,attr"`
	} `xml:"LatLongBoundingBox"`
}

// WFS 2.0.0

type capabilitiesV2 struct {
	XMLName        xml.Name `xml:"WFS_Capabilities"`
	Version        string   `xml:"version,attr"`
	Xmlns          string   `xml:"xmlns,attr"`
	XmlnsWFS       string   `xml:"xmlns:wfs,attr"`
	XmlnsOWS       string   `xml:"xmlns:ows,attr"`
	XmlnsFES       string   `xml:"xmlns:fes,attr"`
	XmlnsGML       string   `xml:"xmlns:gml,attr"`
	XmlnsXLink     string   `xml:"xmlns:xlink,attr"`
	XmlnsW3W       string   `xml:"xmlns:w3w,attr"`
	XmlnsXSI       string   `xml:"xmlns:xsi,attr"`
	SchemaLocation string   `xml:"xsi:schemaLocation,attr"`

	ServiceIdentification struct {
		Title              string    `xml:"ows:Title"`
		Abstract           string    `xml:"ows:Abstract,omitempty"`
		Keywords           *keywords `xml:"ows:Keywords,omitempty"`
		ServiceType        string    `xml:"ows:ServiceType"`
		ServiceTypeVersion string    `xml:"ows:ServiceTypeVersion"`
		Fees               string    `xml:"ows:Fees"`
		AccessConstraints  string    `xml:"ows:AccessConstraints"`
	} `xml:"ows:ServiceIdentification"`

	ServiceProvider *serviceProvider `xml:"ows:ServiceProvider,omitempty"`

	OperationsMetadata struct {
		Operation  []operationV2  `xml:"ows:Operation"`
		Constraint []constraintV2 `xml:"ows:Constraint"`
	} `xml:"ows:OperationsMetadata"`

	FeatureTypeList struct {
		FeatureType []featureTypeV2 `xml:"FeatureType"`
	} `xml:"FeatureTypeList"`

	FilterCapabilities struct {
		Conformance struct {
			Constraint []constraintV2 `xml:"fes:Constraint"`
		} `xml:"fes:Conformance"`
		Spatial struct {
			GeometryOperands struct {
				Operand []namedV2 `xml:"fes:GeometryOperand"`
			} `xml:"fes:GeometryOperands"`
			SpatialOperators struct {
				Operator []namedV2 `xml:"fes:SpatialOperator"`
			} `xml:"fes:SpatialOperators"`
		} `xml:"fes:Spatial_Capabilities"`
	} `xml:"fes:Filter_Capabilities"`
}

type keywords struct {
	Keyword []string `xml:"ows:Keyword"`
}

type serviceProvider struct {
	ProviderName   string `xml:"ows:ProviderName,omitempty"`
	ProviderSite   *link  `xml:"ows:ProviderSite,omitempty"`
	ServiceContact struct {
		IndividualName string       `xml:"ows:IndividualName,omitempty"`
		ContactInfo    *contactInfo `xml:"ows:ContactInfo,omitempty"`
	} `xml:"ows:ServiceContact"`
}

type link struct {
	Href string `xml:"xlink:href,attr"`
}

type contactInfo struct {
	Address struct {
		ElectronicMailAddress string `xml:"ows:ElectronicMailAddress"`
	} `xml:"ows:Address"`
}

type operationV2 struct {
	Name string `xml:"name,attr"`
	DCP  struct {
		HTTP struct {
			Get link `xml:"ows:Get"`
		} `xml:"ows:HTTP"`
	} `xml:"ows:DCP"`
}

type constraintV2 struct {
	Name         string   `xml:"name,attr"`
	NoValues     struct{} `xml:"ows:NoValues"`
	DefaultValue string   `xml:"ows:DefaultValue"`
}

type namedV2 struct {
	Name string `xml:"name,attr"`
}

type featureTypeV2 struct {
	Name          string   `xml:"Name"`
	Title         string   `xml:"Title"`
	DefaultCRS    string   `xml:"DefaultCRS"`
	OtherCRS      []string `xml:"OtherCRS"`
	OutputFormats struct {
		Format []string `xml:"Format"`
	} `xml:"OutputFormats"`
	WGS84BoundingBox struct {
		LowerCorner string `xml:"ows:LowerCorner"`
		UpperCorner string `xml:"ows:UpperCorner"`
	} `xml:"ows:WGS84BoundingBox"`
}

// Capabilities renders the GetCapabilities document for the dialect.
// serviceURL is the endpoint advertised for every operation.
func (c *Composer) Capabilities(d ogc.Dialect, serviceURL string) ([]byte, error) {
	var doc any
	if d == ogc.DialectV2 {
		doc = c.capabilitiesV2(serviceURL)
	} else {
		doc = c.capabilitiesV1(serviceURL)
	}
	b, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal capabilities %s: %w", d, err)
	}
	return append([]byte(xml.Header), b...), nil
}

// endpoint appends the separator clients expect before KVP parameters.
func endpoint(serviceURL string) string {
	switch {
	case strings.HasSuffix(serviceURL, "?"), strings.HasSuffix(serviceURL, "&"):
		return serviceURL
	case strings.Contains(serviceURL, "?"):
		return serviceURL + "&"
	default:
		return serviceURL + "?"
	}
}

func (c *Composer) capabilitiesV1(serviceURL string) capabilitiesV1 {
	href := endpoint(serviceURL)
	dcp := func() []dcpTypeV1 {
		var get, post dcpTypeV1
		get.HTTP.Get = &onlineResourceV1{OnlineResource: href}
		post.HTTP.Post = &onlineResourceV1{OnlineResource: serviceURL}
		return []dcpTypeV1{get, post}
	}

	var doc capabilitiesV1
	doc.Version = ogc.DialectV1.Version()
	doc.Xmlns = nsWFS1
	doc.XmlnsOGC = nsOGC
	doc.XmlnsW3W = Namespace
	doc.XmlnsXSI = nsXSI
	doc.SchemaLocation = nsWFS1 + " " + xsdWFS1

	doc.Service.Name = "WFS"
	doc.Service.Title = c.info.Title
	doc.Service.Abstract = c.info.Abstract
	doc.Service.Keywords = strings.Join(c.info.Keywords, ", ")
	doc.Service.OnlineResource = serviceURL
	doc.Service.Fees = "NONE"
	doc.Service.AccessConstraints = "NONE"

	doc.Capability.Request.GetCapabilities.DCPType = dcp()
	doc.Capability.Request.DescribeFeatureType.DCPType = dcp()
	doc.Capability.Request.GetFeature.DCPType = dcp()

	ft := featureTypeV1{Name: FeatureTypeName, Title: FeatureTypeTitle, SRS: crs.WGS84}
	ft.LatLongBoundingBox.MinX = "-180"
	ft.LatLongBoundingBox.MinY = "-90"
	ft.LatLongBoundingBox.MaxX = "180"
	ft.LatLongBoundingBox.MaxY = "90"
	doc.FeatureTypeList.FeatureType = []featureTypeV1{ft}
	return doc
}

func (c *Composer) capabilitiesV2(serviceURL string) capabilitiesV2 {
	href := endpoint(serviceURL)

	var doc capabilitiesV2
	doc.Version = ogc.DialectV2.Version()
	doc.Xmlns = nsWFS2
	doc.XmlnsWFS = nsWFS2
	doc.XmlnsOWS = nsOWS
	doc.XmlnsFES = nsFES
	doc.XmlnsGML = nsGML32
	doc.XmlnsXLink = nsXLink
	doc.XmlnsW3W = Namespace
	doc.XmlnsXSI = nsXSI
	doc.SchemaLocation = nsWFS2 + " " + xsdWFS2

	si := &doc.ServiceIdentification
	si.Title = c.info.Title
	si.Abstract = c.info.Abstract
	if len(c.info.Keywords) > 0 {
		si.Keywords = &keywords{Keyword: c.info.Keywords}
	}
	si.ServiceType = "WFS"
	si.ServiceTypeVersion = ogc.DialectV2.Version()
	si.Fees = "NONE"
	si.AccessConstraints = "NONE"

	doc.ServiceProvider = c.serviceProvider()

	for _, name := range ogc.Operations() {
		var op operationV2
		op.Name = name
		op.DCP.HTTP.Get.Href = href
		doc.OperationsMetadata.Operation = append(doc.OperationsMetadata.Operation, op)
	}
	doc.OperationsMetadata.Constraint = []constraintV2{
		{Name: "ImplementsBasicWFS", DefaultValue: "FALSE"},
		{Name: "ImplementsTransactionalWFS", DefaultValue: "FALSE"},
		{Name: "ImplementsLockingWFS", DefaultValue: "FALSE"},
		{Name: "KVPEncoding", DefaultValue: "TRUE"},
		{Name: "XMLEncoding", DefaultValue: "FALSE"},
		{Name: "SOAPEncoding", DefaultValue: "FALSE"},
		{Name: "ImplementsInheritance", DefaultValue: "FALSE"},
		{Name: "ImplementsRemoteResolve", DefaultValue: "FALSE"},
		{Name: "ImplementsResultPaging", DefaultValue: "FALSE"},
		{Name: "ImplementsStandardJoins", DefaultValue: "FALSE"},
		{Name: "ImplementsSpatialJoins", DefaultValue: "FALSE"},
		{Name: "ImplementsTemporalJoins", DefaultValue: "FALSE"},
		{Name: "ImplementsFeatureVersioning", DefaultValue: "FALSE"},
		{Name: "ManageStoredQueries", DefaultValue: "FALSE"},
	}

	ft := featureTypeV2{
		Name:       "w3w:" + FeatureTypeName,
		Title:      FeatureTypeTitle,
		DefaultCRS: crs.WGS84,
	}
	for _, code := range c.crs.SupportedCodes() {
		if code != crs.WGS84 {
			ft.OtherCRS = append(ft.OtherCRS, code)
		}
	}
	ft.OutputFormats.Format = []string{ContentTypeGML + "; version=3.2", ContentTypeGeoJSON}
	ft.WGS84BoundingBox.LowerCorner = "-180 -90"
	ft.WGS84BoundingBox.UpperCorner = "180 90"
	doc.FeatureTypeList.FeatureType = []featureTypeV2{ft}

	fc := &doc.FilterCapabilities
	fc.Conformance.Constraint = []constraintV2{
		{Name: "ImplementsQuery", DefaultValue: "TRUE"},
		{Name: "ImplementsAdHocQuery", DefaultValue: "TRUE"},
		{Name: "ImplementsFunctions", DefaultValue: "FALSE"},
		{Name: "ImplementsMinStandardFilter", DefaultValue: "FALSE"},
		{Name: "ImplementsStandardFilter", DefaultValue: "FALSE"},
		{Name: "ImplementsMinSpatialFilter", DefaultValue: "TRUE"},
		{Name: "ImplementsSpatialFilter", DefaultValue: "FALSE"},
		{Name: "ImplementsMinTemporalFilter", DefaultValue: "FALSE"},
		{Name: "ImplementsTemporalFilter", DefaultValue: "FALSE"},
		{Name: "ImplementsVersionNav", DefaultValue: "FALSE"},
		{Name: "ImplementsSorting", DefaultValue: "FALSE"},
		{Name: "ImplementsExtendedOperators", DefaultValue: "FALSE"},
	}
	fc.Spatial.GeometryOperands.Operand = []namedV2{{Name: "gml:Envelope"}}
	fc.Spatial.SpatialOperators.Operator = []namedV2{{Name: "BBOX"}}
	return doc
}

// serviceProvider is nil unless a site or contact is configured; a provider
// name alone does not make a valid block.
func (c *Composer) serviceProvider() *serviceProvider {
	if !c.info.HasProviderDetails() {
		return nil
	}
	sp := &serviceProvider{ProviderName: c.info.ProviderName}
	if sp.ProviderName == "" {
		sp.ProviderName = c.info.Title
	}
	if c.info.ProviderSite != "" {
		sp.ProviderSite = &link{Href: c.info.ProviderSite}
	}
	sp.ServiceContact.IndividualName = c.info.ContactPerson
	if c.info.ContactEmail != "" {
		ci := &contactInfo{}
		ci.Address.ElectronicMailAddress = c.info.ContactEmail
		sp.ServiceContact.ContactInfo = ci
	}
	return sp
}
