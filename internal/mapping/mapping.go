// Package mapping converts directory breweries into Notion page properties.
package mapping

import (
	"maps"
	"strings"

	"github.com/jomei/notionapi"
	"golang.org/x/text/unicode/norm"

	"github.com/sells-group/brewery-sync/internal/model"
	"github.com/sells-group/brewery-sync/pkg/notion"
)

// Property names in the brewery database schema.
const (
	PropName       = "Name"
	PropAddress    = "Address"
	PropTown       = "Town"
	PropState      = "State"
	PropZipCode    = "Zip code"
	PropPhone      = "Phone number"
	PropWebsite    = "Website"
	PropType       = "Type"
	PropLatitude   = "Latitude"
	PropLongitude  = "Longitude"
	PropExternalID = "ID"
	PropDriveTime  = "Drive time"
	PropMiles      = "Miles from home"
)

// Defaults for select properties, which cannot be empty.
const (
	DefaultTown = "No town"
	DefaultType = "None"
)

// ToProperties maps b onto the database schema. Empty text fields become "",
// empty selects get a default option, and empty phone or website values are
// left out. The external ID is not included; see WithExternalID.
func ToProperties(b model.Brewery) notionapi.Properties {
	props := notionapi.Properties{
		PropName:      notion.Title(b.Name),
		PropAddress:   notion.RichText(b.Street.String()),
		PropTown:      notion.Select(SelectName(b.City.String(), DefaultTown)),
		PropZipCode:   notion.RichText(b.PostalCode.String()),
		PropType:      notion.Select(SelectName(b.BreweryType, DefaultType)),
		PropLatitude:  notion.RichText(b.Latitude.String()),
		PropLongitude: notion.RichText(b.Longitude.String()),
	}
	if phone := b.Phone.String(); phone != "" {
		props[PropPhone] = notion.PhoneNumber(phone)
	}
	if site := b.WebsiteURL.String(); site != "" {
		props[PropWebsite] = notion.URL(site)
	}
	return props
}

// WithExternalID returns a copy of props carrying id in the ID property.
func WithExternalID(props notionapi.Properties, id string) notionapi.Properties {
	out := make(notionapi.Properties, len(props)+1)
	maps.Copy(out, props)
	out[PropExternalID] = notion.RichText(id)
	return out
}

// SelectName normalizes name into a valid select option, falling back to def
// when nothing is left. Notion rejects commas in option names.
func SelectName(name, def string) string {
	name = norm.NFC.String(name)
	name = strings.ReplaceAll(name, ",", " ")
	name = strings.Join(strings.Fields(name), " ")
	if name == "" {
		return def
	}
	return name
}
