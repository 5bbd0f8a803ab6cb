package model

// Site is a site collection entry of the tenant.
type Site struct {
	Title string `json:"Title"`
	URL   string `json:"Url"`
}

// WebTemplate is a template that can be applied to a new web.
type WebTemplate struct {
	Title string `json:"Title"`
	Name  string `json:"Name"`
}

// SiteHandle references an existing site collection.
type SiteHandle struct {
	ID  string `json:"Id"`
	URL string `json:"Url"`
}

// WebCreation describes a subweb to create under a site's root web.
type WebCreation struct {
	WebTemplate        string
	Title              string
	Description        string
	URL                string
	InheritPermissions bool
}

// Web is a created web.
type Web struct {
	Title string `json:"Title"`
	URL   string `json:"Url"`
}
