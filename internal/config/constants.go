package config

import "time"

const (
	// Completion request parameters
	Temperature = 0.1
	MaxTokens   = 4000

	// HTTP client timeout for the completion endpoint
	RequestTimeout = 90 * time.Second

	// HTTP client timeout for the forms service
	FormsTimeout = 30 * time.Second

	// Tenant tokens are refreshed this long before they expire
	TokenExpiryBuffer = 1 * time.Hour

	// Default completion model
	DefaultModel = "sonar-pro"

	// Prefix of every adapter failure message
	FailureMarker = "❌"

	// Query used by the connection check
	ConnectionTestQuery = "SolidWorks latest version features"

	// Telegram limits
	MaxTelegramMessageLen = 4096
)

// AllowedModels is the fixed model catalog.
var AllowedModels = []string{"sonar-pro", "sonar"}

// SearchDomains restricts search grounding to SolidWorks sources.
var SearchDomains = []string{
	"solidworks.com",
	"help.solidworks.com",
	"forum.solidworks.com",
	"my.solidworks.com",
	"blogs.solidworks.com",
	"reddit.com/r/SolidWorks",
	"eng-tips.com",
	"grabcad.com",
	"cati.com",
	"javelin-tech.com",
}

// VagueTerms mark a query that probably lacks context.
var VagueTerms = []string{
	"crashes", "doesn't work", "won't start", "having issues", "problems with",
	"not working", "broken", "error", "won't open", "freezes", "slow",
	"how to", "help with", "fix", "solve",
}

// SpecificTerms mark a query that already carries usable context. Feature
// names count as specifics because they pin the question to one workflow.
var SpecificTerms = []string{
	"version", "error message", "when i", "steps", "after", "during",
	"while", "assembly", "part", "drawing", "simulation", "specific",
	"weldment", "sketch", "sheet metal", "extrude", "revolve", "sweep",
	"loft", "fillet", "chamfer", "pattern", "mates", "configuration",
	"toolbox", "pdm",
}

var FailureTerms = []string{"crash", "error", "problem", "issue"}

var HowToTerms = []string{"how to", "tutorial", "guide", "steps"}

// ContextPhrases mark a reply that asks the user for more detail.
var ContextPhrases = []string{
	"need more information", "can you provide", "please specify",
	"what version", "which version", "can you tell me more",
	"more details", "specific error", "exactly when", "what exactly",
	"could you clarify", "additional information", "help me understand",
}
