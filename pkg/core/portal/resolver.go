// Package portal turns catalog links into FRE section URLs on the CVM RAD portal and
// retrieves the PDF embedded in the portal page.
package portal

import (
	"net/url"
	"strings"

	"fre_viewer/pkg/models"
)

// SequentialIDParam is the query parameter carrying the document identifier.
const SequentialIDParam = "NumeroSequencialDocumento"

// ResolveIdentity extracts the sequential document id from a catalog link.
// An empty link, an unparseable URL or a missing parameter all resolve to absent.
func ResolveIdentity(link string) (models.DocumentIdentity, bool) {
	link = strings.TrimSpace(link)
	if link == "" {
		return models.DocumentIdentity{}, false
	}

	u, err := url.Parse(link)
	if err != nil {
		return models.DocumentIdentity{}, false
	}

	// ParseQuery keeps the pairs it could decode even when it reports an error.
	query, _ := url.ParseQuery(u.RawQuery)

	id := strings.TrimSpace(query.Get(SequentialIDParam))
	if id == "" {
		for key, values := range query {
			if strings.EqualFold(key, SequentialIDParam) && len(values) > 0 {
				id = strings.TrimSpace(values[0])
				break
			}
		}
	}
	if id == "" {
		return models.DocumentIdentity{}, false
	}
	return models.DocumentIdentity{SequentialID: id}, true
}
