package service

// User-facing strings.
const (
	textGreeting           = "Hi, I'm an Office 365 bot. I can help you manage the SharePoint sites of your tenant."
	textActionsICanDo      = "These are the actions I can do:"
	textShowAllSites       = "Show all site collections"
	textChangeSiteLogo     = "Change a site collection logo"
	textCreateSubsite      = "Create a subsite"
	textDoSomethingElse    = "Do something else"
	textSiteCollection     = "Site collection: "
	textNoSites            = "I could not find any site collections."
	textWhichSiteLogo      = "On which SharePoint site do you want to change the logo?"
	textCreateSubsiteReply = "Create subsite"
	textCreateNewSubsite   = "Create new subsite"
	textFillSubsiteForm    = "Please fill in the information to create a subsite."
	textSelectSite         = "Select a SharePoint site"
	textNewSubsiteName     = "New subsite name"
	textWebTemplate        = "Web template to apply"
	textSave               = "Save"
	textSubsiteCreated     = "Your subsite has been created. You can access it by clicking on this link."
	textGoToNewSubsite     = "Go to the new subsite"
	textSomethingWrong     = "Sorry, something went wrong while processing your request. Please try again."
	textPleaseSignIn       = "Please sign in so I can access your tenant."
	textSignIn             = "Sign in"
	textSignedIn           = "You have been signed in successfully."
	textWhatWouldYouLike   = "What would you like me to do?"
)

// logoSettingsPath is appended to a site URL to reach its logo settings page.
const logoSettingsPath = "/_layouts/15/prjsetng.aspx"
