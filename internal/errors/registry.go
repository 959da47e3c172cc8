package errors

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category Category
	Message  string
	Detail   string
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Build Errors (E101-E119)
	// ============================================

	"E101": {
		Category: CategoryBuild,
		Message:  "Unclosed element at end of template",
	},
	"E102": {
		Category: CategoryBuild,
		Message:  "Closing tag without matching open tag",
	},
	"E103": {
		Category: CategoryBuild,
		Message:  "Closing tag does not match the open element",
	},
	"E104": {
		Category: CategoryBuild,
		Message:  "Markup tokenizer failed",
	},
	"E105": {
		Category: CategoryBuild,
		Message:  "Control tag is missing a required attribute",
	},

	// ============================================
	// Configuration Errors (E120-E139)
	// ============================================

	"E120": {
		Category: CategoryConfig,
		Message:  "Invalid configuration file",
		Detail:   "vtree.json could not be read or parsed.",
	},
	"E121": {
		Category: CategoryConfig,
		Message:  "Configuration file not found",
	},
	"E122": {
		Category: CategoryConfig,
		Message:  "Invalid configuration value",
	},

	// ============================================
	// CLI Errors (E140-E159)
	// ============================================

	"E140": {
		Category: CategoryCLI,
		Message:  "Template not found",
	},
	"E141": {
		Category: CategoryCLI,
		Message:  "Invalid data file",
		Detail:   "Data files must be JSON or YAML objects.",
	},

	// ============================================
	// Binding Errors (E201-E299)
	// ============================================

	"E201": {
		Category: CategoryBinding,
		Message:  "Unknown event handler",
	},
	"E202": {
		Category: CategoryBinding,
		Message:  "Collection is not iterable",
	},

	// ============================================
	// Render Errors (E301-E399)
	// ============================================

	"E301": {
		Category: CategoryRender,
		Message:  "Condition evaluation failed",
	},
	"E302": {
		Category: CategoryRender,
		Message:  "Render cycle already in progress",
		Detail:   "Only one bind/diff/patch cycle may run at a time. Serialize updates before calling Update.",
	},
	"E303": {
		Category: CategoryRender,
		Message:  "View has not been rendered",
	},

	// ============================================
	// Patch Errors (E401-E499)
	// ============================================

	"E401": {
		Category: CategoryPatch,
		Message:  "Live tree rejected an operation",
		Detail:   "The live tree is partially updated. Call Render to remount it.",
	},
	"E402": {
		Category: CategoryPatch,
		Message:  "Live tree is stale",
		Detail:   "A previous patch failed. The live tree must be remounted before further patches are applied.",
	},
	"E403": {
		Category: CategoryPatch,
		Message:  "Node has no live counterpart",
	},
}

// GetAllCodes returns all registered error codes.
func GetAllCodes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	return codes
}

// GetTemplate returns the template for an error code.
func GetTemplate(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}

// Register adds a new error template to the registry.
func Register(code string, template ErrorTemplate) {
	registry[code] = template
}
