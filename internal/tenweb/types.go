// internal/tenweb/types.go
//
// Wire types for the site-builder API.  These mirror the upstream JSON
// shapes; the workflow layer converts between them and the locally
// persisted site record, so upstream schema drift stays inside this
// package.

package tenweb

// Website is one hosted site as reported by the list/create endpoints.
type Website struct {
	ID       int64  `json:"id"`
	SiteURL  string `json:"site_url"`
	AdminURL string `json:"admin_url"`
	Region   string `json:"region,omitempty"`
}

// CreateWebsiteParams drives POST /hosting/website.
type CreateWebsiteParams struct {
	Subdomain     string `json:"subdomain"`
	Region        string `json:"region"`
	SiteTitle     string `json:"site_title"`
	AdminUsername string `json:"admin_username"`
	AdminPassword string `json:"admin_password"`
}

// CreateWebsiteResult carries the upstream ID of the new site.  ID is a
// pointer on purpose: the upstream has been observed to report success with
// no usable ID, and the workflow must treat that as a contract violation
// rather than zero-value its way past it.
type CreateWebsiteResult struct {
	ID *int64 `json:"id"`
}

// SitemapParams drives the AI sitemap-generation endpoint.
type SitemapParams struct {
	BusinessName        string `json:"business_name"`
	BusinessDescription string `json:"business_description"`
	BusinessType        string `json:"business_type"`
}

// SitemapSection is one suggested section of a suggested page.
type SitemapSection struct {
	SectionTitle       string `json:"section_title"`
	SectionDescription string `json:"section_description"`
}

// SitemapPage is one suggested page in the generated sitemap.
type SitemapPage struct {
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Sections    []SitemapSection `json:"sections"`
}

// ColorSet and FontSet are the design defaults suggested by the sitemap
// endpoint and echoed back on full generation.
type ColorSet struct {
	PrimaryColor   string `json:"primary_color"`
	SecondaryColor string `json:"secondary_color"`
	BackgroundDark string `json:"background_dark"`
}

type FontSet struct {
	Primary string `json:"primary"`
}

// Sitemap is the AI-suggested structure and design for a business brief.
type Sitemap struct {
	PagesMeta      []SitemapPage `json:"pages_meta"`
	Colors         ColorSet      `json:"colors"`
	Fonts          FontSet       `json:"fonts"`
	WebsiteType    string        `json:"website_type"`
	SeoTitle       string        `json:"website_title"`
	SeoDescription string        `json:"website_description"`
	SeoKeyphrase   string        `json:"website_keyphrase"`
}

// PageInput is the page/section shape the full-generation endpoint expects.
// It differs from SitemapPage (the upstream renamed the fields between the
// two endpoints), which is why the workflow converts explicitly.
type PageInput struct {
	PageTitle       string         `json:"page_title"`
	PageDescription string         `json:"page_description"`
	Sections        []SectionInput `json:"sections"`
}

type SectionInput struct {
	SectionTitle       string `json:"section_title"`
	SectionDescription string `json:"section_description"`
}

// GenerateSiteParams drives the AI full-site generation endpoint.
type GenerateSiteParams struct {
	BusinessName        string      `json:"business_name"`
	BusinessDescription string      `json:"business_description"`
	BusinessType        string      `json:"business_type"`
	WebsiteTitle        string      `json:"website_title"`
	WebsiteDescription  string      `json:"website_description"`
	WebsiteKeyphrase    string      `json:"website_keyphrase"`
	WebsiteType         string      `json:"website_type"`
	Colors              ColorSet    `json:"colors"`
	Fonts               FontSet     `json:"fonts"`
	PagesMeta           []PageInput `json:"pages_meta"`
}

// GenerateSiteResult is the full-generation response.
type GenerateSiteResult struct {
	UniqueID string `json:"unique_id"`
	SiteURL  string `json:"site_url"`
}

// Page is one WordPress page on a hosted site.
type Page struct {
	ID     int64  `json:"id"`
	Title  string `json:"title"`
	Status string `json:"status"`
}

// Domain is one domain name attached to a hosted site.
type Domain struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Default bool   `json:"default"`
}
